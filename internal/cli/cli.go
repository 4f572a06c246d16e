package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"snapkv/internal/autosave"
	"snapkv/internal/config"
	"snapkv/internal/health"
	"snapkv/internal/logs"
	"snapkv/internal/metrics"
	"snapkv/internal/snapshot"
	"snapkv/internal/store"
)

var Version string

func version() string {
	if Version != "" {
		return Version
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "(devel)"
	}

	return info.Main.Version
}

type CLI struct {
	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader
}

func NewCLI(stdout, stderr io.Writer, stdin io.Reader) *CLI {
	return &CLI{
		stdout: stdout,
		stderr: stderr,
		stdin:  stdin,
	}
}

func (c *CLI) Run(args []string) int {
	// A .env file may carry SNAPKV_CONFIG; absence is fine.
	_ = godotenv.Load()

	opts, err := parseFlags(args[1:])
	if err != nil {
		fmt.Fprintf(c.stderr, "failed to parse flags: %v\n", err)
		return 2
	}
	if opts.showVersion {
		fmt.Fprintf(c.stdout, "snapkv version %s; %s\n", version(), runtime.Version())
		return 0
	}

	configPath := opts.configPath
	if configPath == "" {
		configPath = os.Getenv("SNAPKV_CONFIG")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(c.stderr, "failed to load config: %v\n", err)
		return 1
	}
	if opts.snapshotPath != "" {
		cfg.Snapshot.Path = opts.snapshotPath
	}
	if opts.defaultTTLSec >= 0 {
		cfg.Store.DefaultTTL = time.Duration(opts.defaultTTLSec * float64(time.Second))
	}

	level, err := logs.ParseLevel(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(c.stderr, "failed to configure logging: %v\n", err)
		return 1
	}
	zl, err := logs.NewZap(level)
	if err != nil {
		fmt.Fprintf(c.stderr, "failed to configure logging: %v\n", err)
		return 1
	}
	defer zl.Sync()

	logger := logs.NewLogger(zl, 1000)
	registry := metrics.NewRegistry()

	st := store.NewStore(cfg.Store.DefaultTTL, registry)
	codec := snapshot.NewCodec(cfg.Snapshot.Path, logger, registry)
	ctl := autosave.NewController(codec, logger, registry)
	analyzer := health.NewAnalyzer(registry, logger)

	// Restore prior state before the loop starts. A corrupt snapshot
	// is reported and the store starts empty; only an unreadable file
	// aborts startup.
	entries, err := codec.Load()
	switch {
	case errors.Is(err, snapshot.ErrCorrupt):
		logger.Error("snapshot load failed: corrupt file", "path", cfg.Snapshot.Path)
		fmt.Fprintf(c.stderr, "ignoring corrupt snapshot %s: %v\n", cfg.Snapshot.Path, err)
	case err != nil:
		fmt.Fprintf(c.stderr, "failed to load snapshot: %v\n", err)
		return 1
	default:
		st.Replace(entries)
	}

	if cfg.Autosave {
		ctl.Enable()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Snapshot.CheckpointInterval > 0 {
		cp := autosave.NewCheckpointer(st, codec, cfg.Snapshot.CheckpointInterval, logger, registry)
		go cp.Start(ctx)
	}

	logger.Info("store ready",
		"snapshot", cfg.Snapshot.Path,
		"keys", st.Len(),
		"autosave", ctl.Enabled(),
	)

	NewDispatcher(st, codec, ctl, analyzer, logger, c.stdout).Loop(c.stdin)
	return 0
}
