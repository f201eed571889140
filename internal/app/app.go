// Package app wires the sampler, catalog and front ends into a
// runnable application and owns the process exit codes.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/rs/zerolog"

	"procscope/internal/config"
	"procscope/internal/fileinfo"
	"procscope/internal/ident"
	"procscope/internal/logging"
	"procscope/internal/model"
	"procscope/internal/procfs"
	"procscope/internal/proctable"
	"procscope/internal/sampler"
	"procscope/internal/ui"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

const (
	ExitOK    = 0
	ExitError = 1
)

// Application is one configured procscope run.
type Application struct {
	Config    config.Config
	ErrWriter io.Writer
}

// New parses the argument list into an application. args is the full
// os.Args slice including the program name.
func New(args []string, errWriter io.Writer) (*Application, error) {
	name := "procscope"
	var cmdArgs []string
	if len(args) > 0 {
		name = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.FromFlags(name, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}
	return &Application{Config: cfg, ErrWriter: errWriter}, nil
}

// IsHelpError reports whether the error came from the -h flag.
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

// HasVersionFlag reports whether the raw argument list asks for the
// version, before any flag parsing happens.
func HasVersionFlag(args []string) bool {
	for _, a := range args {
		if a == "-version" || a == "--version" {
			return true
		}
	}
	return false
}

// PrintVersion writes the version banner.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "procscope %s\n", Version)
}

// Run executes the configured mode and returns the process exit code.
// The sampler runs for the whole lifetime of the call regardless of
// which front end consumes it.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	log, closeLog, err := a.newLogger()
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "procscope: %v\n", err)
		return ExitError
	}
	defer func() {
		if cerr := closeLog(); cerr != nil {
			fmt.Fprintf(a.ErrWriter, "procscope: closing log: %v\n", cerr)
		}
	}()

	idents := ident.Load(log)
	src := procfs.New(a.Config.ProcRoot, log)
	catalog := proctable.NewCatalog(a.Config.ProcRoot, idents, log)
	engine := sampler.NewEngine(src, catalog, a.Config.TopN, a.Config.Interval, log)
	store := sampler.NewStore()
	smp := sampler.NewSampler(engine, store, a.Config.Interval, log)

	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	smp.Start()
	defer smp.Stop()

	switch {
	case a.Config.JSON:
		return a.runJSONOnce(ctx, out, store)
	case a.Config.JSONStream:
		return a.runJSONStream(ctx, out, store)
	default:
		return a.runDashboard(store, catalog, idents, log)
	}
}

// newLogger picks the log sink for the configured mode. The dashboard
// owns the terminal, so without a log file it logs nowhere; the JSON
// modes keep stdout for payloads and log to the error writer.
func (a *Application) newLogger() (zerolog.Logger, func() error, error) {
	noClose := func() error { return nil }
	if a.Config.LogFile != "" {
		return logging.ToFile(a.Config.LogFile, a.Config.Debug)
	}
	if a.Config.JSON || a.Config.JSONStream {
		return logging.New(a.ErrWriter, a.Config.Debug), noClose, nil
	}
	return zerolog.Nop(), noClose, nil
}

// runJSONOnce waits for the first completed cycle and prints it as one
// indented JSON document.
func (a *Application) runJSONOnce(ctx context.Context, out io.Writer, store *sampler.Store) int {
	spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond, spinner.WithWriter(a.ErrWriter))
	spin.Suffix = " sampling"
	spin.Start()
	snap, ok := awaitFirstCycle(ctx, store)
	spin.Stop()

	if !ok {
		fmt.Fprintln(a.ErrWriter, "procscope: interrupted before the first sample")
		return ExitError
	}

	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "procscope: encoding snapshot: %v\n", err)
		return ExitError
	}
	fmt.Fprintln(out, string(payload))
	return ExitOK
}

func awaitFirstCycle(ctx context.Context, store *sampler.Store) (model.Snapshot, bool) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if snap := store.Get(); snap.Cycle > 0 {
			return snap, true
		}
		select {
		case <-ctx.Done():
			return model.Snapshot{}, false
		case <-ticker.C:
		}
	}
}

// runJSONStream emits one JSON line per completed cycle until the
// context is cancelled. Cycles are deduplicated by their counter, so
// polling faster than the sampler never repeats a snapshot.
func (a *Application) runJSONStream(ctx context.Context, out io.Writer, store *sampler.Store) int {
	enc := json.NewEncoder(out)

	poll := a.Config.Interval / 5
	if poll < 50*time.Millisecond {
		poll = 50 * time.Millisecond
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	var lastCycle uint64
	for {
		select {
		case <-ctx.Done():
			return ExitOK
		case <-ticker.C:
			snap := store.Get()
			if snap.Cycle == lastCycle {
				continue
			}
			lastCycle = snap.Cycle
			if err := enc.Encode(snap); err != nil {
				fmt.Fprintf(a.ErrWriter, "procscope: encoding snapshot: %v\n", err)
				return ExitError
			}
		}
	}
}

func (a *Application) runDashboard(store *sampler.Store, catalog *proctable.Catalog, idents *ident.Table, log zerolog.Logger) int {
	browser := fileinfo.NewBrowser(idents, log)
	if err := ui.RunTUI(a.Config, store, catalog, browser, log); err != nil {
		fmt.Fprintf(a.ErrWriter, "procscope: %v\n", err)
		return ExitError
	}
	return ExitOK
}
