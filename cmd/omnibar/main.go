// omnibar is a terminal filter bar over scanner image catalogs.
//
// Without robot flags it opens the interactive omnibar. The --robot-* flags
// print JSON for scripts: the parsed form of a query, the images it matches,
// completions at a cursor, or timing metrics.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/vanderheijden86/omnibar/pkg/config"
	"github.com/vanderheijden86/omnibar/pkg/debug"
	"github.com/vanderheijden86/omnibar/pkg/metrics"
	"github.com/vanderheijden86/omnibar/pkg/version"
)

// exitError carries a process exit code through run.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }
func (e *exitError) ExitCode() int { return e.code }

func usageError(format string, args ...any) error {
	return &exitError{code: 2, err: fmt.Errorf(format, args...)}
}

// options are the parsed command line flags.
type options struct {
	catalogs []string
	user     string
	query    string
	cursor   int

	robotParse   bool
	robotFilter  bool
	robotSuggest bool
	robotMetrics bool

	save    bool
	name    string
	saved   bool
	history bool
	load    string
	delete  string
	limit   int

	noWatch bool
	version bool
	help    bool
}

func (o options) robot() bool {
	return o.robotParse || o.robotFilter || o.robotSuggest || o.robotMetrics
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "omnibar: %v\n", err)
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}

func newFlagSet(opts *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("omnibar", pflag.ContinueOnError)
	fs.StringArrayVar(&opts.catalogs, "catalog", nil, "catalog JSONL file, SQLite database or directory (repeatable)")
	fs.StringVar(&opts.user, "user", "", "user that creator:@me expands to")
	fs.StringVarP(&opts.query, "query", "q", "", "query to parse, filter with, save or start the TUI with")
	fs.IntVar(&opts.cursor, "cursor", -1, "cursor rune offset for --robot-suggest (default: end of query)")

	fs.BoolVar(&opts.robotParse, "robot-parse", false, "print the tokens and filter state of --query as JSON")
	fs.BoolVar(&opts.robotFilter, "robot-filter", false, "print the catalog images matching --query as JSON")
	fs.BoolVar(&opts.robotSuggest, "robot-suggest", false, "print completions for --query at --cursor as JSON")
	fs.BoolVar(&opts.robotMetrics, "robot-metrics", false, "print timing metrics as JSON after the other robot output")

	fs.BoolVar(&opts.save, "save", false, "save --query under --name (prompts for a name on a terminal)")
	fs.StringVar(&opts.name, "name", "", "name for --save")
	fs.BoolVar(&opts.saved, "saved", false, "list saved queries as JSON")
	fs.BoolVar(&opts.history, "history", false, "list recent queries as JSON")
	fs.StringVar(&opts.load, "load", "", "start from the saved query NAME")
	fs.StringVar(&opts.delete, "delete", "", "delete the saved query NAME")
	fs.IntVar(&opts.limit, "limit", 20, "maximum entries for --history")

	fs.BoolVar(&opts.noWatch, "no-watch", false, "do not reload catalogs when they change on disk")
	fs.BoolVar(&opts.version, "version", false, "show version")
	fs.BoolVarP(&opts.help, "help", "h", false, "show help")
	fs.SortFlags = false
	return fs
}

func printHelp(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, "Usage: omnibar [options]")
	fmt.Fprintln(w, "\nFilter scanner image catalogs with group:, scaler:, creator:, pipeline:,")
	fmt.Fprintln(w, "is: and generator: filters plus free text.")
	fmt.Fprintln(w)
	fmt.Fprint(w, fs.FlagUsages())
}

func run(args []string, stdout, stderr io.Writer) error {
	var opts options
	fs := newFlagSet(&opts)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stdout, fs)
			return nil
		}
		return usageError("%v", err)
	}
	if fs.NArg() > 0 {
		return usageError("unexpected arguments: %v", fs.Args())
	}

	if opts.help {
		printHelp(stdout, fs)
		return nil
	}
	if opts.version {
		fmt.Fprintf(stdout, "omnibar %s\n", version.Get())
		return nil
	}
	if opts.load != "" && fs.Changed("query") {
		return usageError("--load and --query are mutually exclusive")
	}
	if opts.save && opts.load != "" {
		return usageError("--save and --load are mutually exclusive")
	}

	cfg, err := config.Load()
	if err != nil {
		// A broken config file should not lock the user out.
		fmt.Fprintf(stderr, "Warning: %v (using defaults)\n", err)
		cfg = config.DefaultConfig()
		cfg.ApplyEnv(os.Getenv)
	}
	applyFlags(&cfg, opts, fs)
	debug.Dump("config", cfg)

	if opts.robotMetrics {
		metrics.SetEnabled(true)
		metrics.ResetAll()
	}

	switch {
	case opts.save:
		return runSave(opts, cfg, stdout)
	case opts.saved:
		return runListSaved(cfg, stdout)
	case opts.delete != "":
		return runDelete(opts.delete, cfg, stdout)
	case opts.history:
		return runHistory(opts, cfg, stdout)
	}

	if opts.load != "" {
		q, err := lookupSaved(cfg, opts.load)
		if err != nil {
			return err
		}
		opts.query = q
	}

	if opts.robot() {
		return runRobot(opts, cfg, stdout)
	}
	return runTUI(opts, cfg, stderr)
}

// applyFlags overlays the command line onto cfg. Flags win over the
// environment and the config file.
func applyFlags(cfg *config.Config, opts options, fs *pflag.FlagSet) {
	if fs.Changed("catalog") {
		cfg.Catalogs = opts.catalogs
	}
	if fs.Changed("user") {
		cfg.User = opts.user
	}
	if opts.noWatch {
		off := false
		cfg.Watch = &off
	}
}
