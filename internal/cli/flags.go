package cli

import (
	"flag"
	"fmt"
)

type options struct {
	configPath    string
	snapshotPath  string
	defaultTTLSec float64
	showVersion   bool
}

func parseFlags(args []string) (options, error) {
	opt := options{}
	fs := flag.NewFlagSet("snapkv", flag.ContinueOnError)
	fs.StringVar(&opt.configPath, "config", "", "path to config.yaml; empty uses built-in defaults")
	fs.StringVar(&opt.snapshotPath, "snapshot", "", "snapshot file path, overrides the config file")
	fs.Float64Var(&opt.defaultTTLSec, "default-ttl", -1, "default ttl in seconds for SET without ttl, overrides the config file; 0 disables expiry")
	fs.BoolVar(&opt.showVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	// -1 is the "defer to the config file" sentinel; any other negative
	// is a bad ttl, same as the config validation.
	if opt.defaultTTLSec < 0 && opt.defaultTTLSec != -1 {
		return options{}, fmt.Errorf("-default-ttl must not be negative, got %v", opt.defaultTTLSec)
	}

	return opt, nil
}
