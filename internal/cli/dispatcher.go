package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"snapkv/internal/autosave"
	"snapkv/internal/health"
	"snapkv/internal/logs"
	"snapkv/internal/snapshot"
	"snapkv/internal/store"
)

const prompt = "snapkv> "

// Dispatcher parses textual commands and calls into the store, codec
// and autosave controller. It is the only actor that mutates the store.
type Dispatcher struct {
	store    *store.Store
	codec    *snapshot.Codec
	ctl      *autosave.Controller
	analyzer *health.Analyzer
	logger   *logs.Logger
	out      io.Writer
}

// NewDispatcher wires a dispatcher to its collaborators.
func NewDispatcher(
	st *store.Store,
	codec *snapshot.Codec,
	ctl *autosave.Controller,
	analyzer *health.Analyzer,
	logger *logs.Logger,
	out io.Writer,
) *Dispatcher {
	return &Dispatcher{
		store:    st,
		codec:    codec,
		ctl:      ctl,
		analyzer: analyzer,
		logger:   logger,
		out:      out,
	}
}

// Loop reads commands from in until EXIT or EOF. On exit, a final save
// runs if autosave is enabled, so no acknowledged mutation is lost to
// a clean shutdown.
func (d *Dispatcher) Loop(in io.Reader) {
	fmt.Fprintf(d.out, "snapkv interactive shell (EXIT to quit)\n")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(d.out, prompt)
		if !scanner.Scan() {
			// A read error ends the shell like EOF but must not pass
			// silently.
			if err := scanner.Err(); err != nil {
				fmt.Fprintf(d.out, "input error: %v\n", err)
				d.logger.Error("command input failed", "error", err.Error())
			}
			break
		}
		if d.Execute(scanner.Text()) {
			break
		}
	}

	if d.ctl.Enabled() {
		if err := d.ctl.Commit(d.store); err != nil {
			fmt.Fprintf(d.out, "final save failed: %v\n", err)
		}
	}
}

// Execute runs a single command line and reports whether the loop
// should terminate.
func (d *Dispatcher) Execute(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToUpper(cmd) {
	case "SET":
		d.set(rest)
	case "GET":
		d.get(rest)
	case "DELETE":
		d.del(rest)
	case "SAVE":
		d.save()
	case "LOAD":
		d.load()
	case "ENABLE_AUTOSAVE":
		d.ctl.Enable()
		fmt.Fprintln(d.out, "Autosave enabled")
	case "DISABLE_AUTOSAVE":
		d.ctl.Disable()
		fmt.Fprintln(d.out, "Autosave disabled")
	case "HEALTH":
		d.health()
	case "EXIT":
		fmt.Fprintln(d.out, "Bye")
		return true
	default:
		fmt.Fprintf(d.out, "Unknown command %q\n", cmd)
	}
	return false
}

// set handles both forms of the SET command:
//
//	SET key value [ttl_seconds]
//	SET key1 value1, key2 value2[, ttl_seconds]
//
// A trailing lone numeric token is the ttl and applies to every pair
// in the command.
func (d *Dispatcher) set(rest string) {
	if rest == "" {
		fmt.Fprintln(d.out, "Error: SET requires a key and a value")
		return
	}

	segments := strings.Split(rest, ",")
	for i := range segments {
		segments[i] = strings.TrimSpace(segments[i])
	}

	var ttl *time.Duration // nil = not given, use the store default

	// Single-segment form may carry the ttl as a third token.
	if len(segments) == 1 {
		if fields := strings.Fields(segments[0]); len(fields) == 3 {
			if sec, ok := parseTTL(fields[2]); ok {
				ttl = &sec
				segments[0] = fields[0] + " " + fields[1]
			}
		}
	} else if fields := strings.Fields(segments[len(segments)-1]); len(fields) == 1 {
		sec, ok := parseTTL(fields[0])
		if !ok {
			fmt.Fprintf(d.out, "Error: invalid ttl %q\n", fields[0])
			return
		}
		ttl = &sec
		segments = segments[:len(segments)-1]
	}

	if ttl != nil && *ttl < 0 {
		fmt.Fprintln(d.out, "Error: ttl must not be negative")
		return
	}

	mutated := false
	for _, seg := range segments {
		fields := strings.Fields(seg)
		if len(fields) != 2 {
			fmt.Fprintf(d.out, "Error: invalid key-value pair %q, use 'key value'\n", seg)
			continue
		}
		key, val := fields[0], store.ParseScalar(fields[1])

		if ttl == nil {
			d.store.Set(key, val)
		} else if err := d.store.SetTTL(key, val, *ttl); err != nil {
			fmt.Fprintf(d.out, "Error: %v\n", err)
			continue
		}

		mutated = true
		fmt.Fprintf(d.out, "SET %s = %s\n", key, val)
	}

	if mutated {
		d.commit()
	}
}

func (d *Dispatcher) get(key string) {
	if key == "" {
		fmt.Fprintln(d.out, "Error: GET requires a key")
		return
	}

	val, ok := d.store.Get(key)
	if !ok {
		fmt.Fprintf(d.out, "GET %s: (nil)\n", key)
		return
	}
	fmt.Fprintf(d.out, "GET %s = %s\n", key, val)
}

func (d *Dispatcher) del(key string) {
	if key == "" {
		fmt.Fprintln(d.out, "Error: DELETE requires a key")
		return
	}

	if d.store.Delete(key) {
		fmt.Fprintf(d.out, "DELETE %s\n", key)
	} else {
		fmt.Fprintf(d.out, "DELETE %s: no such key\n", key)
	}
	d.commit()
}

func (d *Dispatcher) save() {
	if err := d.codec.Save(d.store); err != nil {
		fmt.Fprintf(d.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(d.out, "Saved %d keys to %s\n", d.store.Len(), d.codec.Path())
}

// load replaces the in-memory state with the snapshot contents. A
// corrupt snapshot is reported and leaves the current state in place;
// the recommended recovery is to fix or remove the file.
func (d *Dispatcher) load() {
	entries, err := d.codec.Load()
	if err != nil {
		if errors.Is(err, snapshot.ErrCorrupt) {
			d.logger.Error("snapshot load failed: corrupt file", "path", d.codec.Path())
		}
		fmt.Fprintf(d.out, "Error: %v\n", err)
		return
	}

	d.store.Replace(entries)
	fmt.Fprintf(d.out, "Loaded %d keys from %s\n", len(entries), d.codec.Path())
}

func (d *Dispatcher) health() {
	report := d.analyzer.Analyze()
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Fprintf(d.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(d.out, "%s\n", data)
}

// commit runs the autosave trigger after a mutating command. A failed
// save is reported but the mutation stands.
func (d *Dispatcher) commit() {
	if err := d.ctl.Commit(d.store); err != nil {
		fmt.Fprintf(d.out, "autosave failed: %v\n", err)
	}
}

// parseTTL reads a non-negative ttl in seconds. The bool reports
// whether the token was a finite number at all; range errors surface
// later.
func parseTTL(tok string) (time.Duration, bool) {
	sec, err := strconv.ParseFloat(tok, 64)
	if err != nil || math.IsNaN(sec) || math.IsInf(sec, 0) {
		return 0, false
	}
	return time.Duration(sec * float64(time.Second)), true
}
