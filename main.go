package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"condaswitch/internal/config"
	"condaswitch/internal/locate"
	"condaswitch/internal/logging"
	"condaswitch/internal/model"
	"condaswitch/internal/shell"
	"condaswitch/internal/switcher"
	"condaswitch/internal/tui"

	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// app carries the process boundary so tests can drive run with buffers.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
}

func main() {
	a := app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr, getenv: os.Getenv}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := a.run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func (a app) run(ctx context.Context, args []string) int {
	fs := pflag.NewFlagSet("conda-switch", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	configFlag := fs.StringP("config", "c", "", "Config file (default ~/.config/conda-switch/config.yaml)")
	fs.StringP("profile", "p", "", "Search profile: cluster, generic or pair")
	fs.StringSliceP("root", "r", nil, "Search root (repeatable, replaces the profile's roots)")
	fs.IntP("depth", "d", 0, "Maximum traversal depth below each root (0 = unbounded)")
	fs.StringP("shell", "s", "", "Shell dialect for emitted code: bash, zsh, sh or fish (default from $SHELL)")
	verboseFlag := fs.BoolP("verbose", "v", false, "Log discovery details to stderr")
	outdatedFlag := fs.BoolP("outdated", "o", false, "Flag installations with a newer conda release (queries GitHub)")
	versionFlag := fs.BoolP("version", "V", false, "Print version information")
	helpFlag := fs.BoolP("help", "h", false, "Show this help message")

	usage := func() {
		fmt.Fprint(a.stderr, tui.RenderHelp(isTerminal(a.stderr), 80))
		fmt.Fprintf(a.stderr, "\nFlags:\n%s", fs.FlagUsages())
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(a.stderr, "invalid option: %v\n", err)
		return 1
	}

	if *helpFlag {
		usage()
		return 1
	}
	if *versionFlag {
		fmt.Fprintf(a.stdout, "conda-switch version %s\n", model.Version)
		return 0
	}

	command := "status"
	rest := fs.Args()
	if len(rest) > 0 {
		command = rest[0]
	}

	switch command {
	case "help", "-h", "--help":
		usage()
		return 1
	case "list", "switch", "status", "debug", "init":
	default:
		if !switcher.IsIndexArg(command) {
			fmt.Fprintf(a.stderr, "invalid option: %s\n", command)
			fmt.Fprintln(a.stderr, "run 'conda-switch help' for usage")
			return 1
		}
	}

	v := viper.New()
	_ = v.BindPFlag(config.KeyProfile, fs.Lookup("profile"))
	_ = v.BindPFlag(config.KeySearchRoots, fs.Lookup("root"))
	_ = v.BindPFlag(config.KeyMaxDepth, fs.Lookup("depth"))
	_ = v.BindPFlag(config.KeyShell, fs.Lookup("shell"))

	cfg, err := config.Load(v, *configFlag)
	if err != nil {
		fmt.Fprintf(a.stderr, "Error loading config: %v\n", err)
		return 1
	}

	sh := shell.DetectShell(a.getenv("SHELL"))
	if cfg.Shell != "" {
		if sh, err = shell.ByName(cfg.Shell); err != nil {
			fmt.Fprintf(a.stderr, "Error: %v\n", err)
			return 1
		}
	}
	if command == "init" && len(rest) > 1 {
		if sh, err = shell.ByName(rest[1]); err != nil {
			fmt.Fprintf(a.stderr, "Error: %v\n", err)
			return 1
		}
	}

	logger := logging.New(a.stderr, *verboseFlag || command == "debug")
	searchPath := a.getenv("PATH")
	runner := shell.NewRunner(cfg.VersionTimeout)
	loc := locate.New(locate.Options{
		Roots:      cfg.SearchRoots,
		Fallbacks:  cfg.Fallbacks,
		MaxDepth:   cfg.MaxDepth,
		Names:      cfg.Names,
		Prefixes:   cfg.Prefixes,
		Exclude:    cfg.Exclude,
		SearchPath: searchPath,
	}, runner, logger)
	logger.Debug("configuration", "profile", cfg.Profile, "roots", cfg.SearchRoots, "fallbacks", cfg.Fallbacks,
		"max_depth", cfg.MaxDepth, "shell", sh.Name())

	opts := switcher.Options{
		Locator:    loc,
		Runner:     runner,
		Shell:      sh,
		SearchPath: searchPath,
		Out:        a.stdout,
		Err:        a.stderr,
		Logger:     logger,
		Styled:     isTerminal(a.stdout),
	}
	if *outdatedFlag {
		opts.Latest = switcher.CondaRelease
	}
	sw := switcher.New(opts)

	switch command {
	case "list":
		err = sw.List(ctx)
	case "status":
		err = sw.Status(ctx)
	case "debug":
		err = sw.Debug(ctx)
	case "switch":
		err = sw.SwitchInteractive(ctx, a.prompter())
	case "init":
		exe, exeErr := os.Executable()
		if exeErr != nil {
			exe = "conda-switch"
		}
		err = sw.Init(exe)
	default:
		index, convErr := strconv.Atoi(command)
		if convErr != nil {
			// Digits only, so this is an overflow: no registry is that long.
			index = -1
		}
		err = sw.Switch(ctx, index)
	}
	return exitCode(err)
}

// prompter picks the bubbletea picker when a terminal is attached and the
// plain numbered prompt otherwise. The picker draws on stderr because stdout
// is usually captured by $(...).
func (a app) prompter() switcher.Prompter {
	if isTerminal(a.stderr) && isTerminal(a.stdin) {
		return tui.TeaPrompter{Out: a.stderr}
	}
	return tui.LinePrompter{In: a.stdin, Out: a.stderr}
}

// exitCode maps command errors to a process status. Selection problems and
// activation warnings were already reported and keep status 0.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var sel *switcher.InvalidSelectionError
	var rej *locate.RejectError
	switch {
	case errors.As(err, &sel),
		errors.As(err, &rej),
		errors.Is(err, switcher.ErrAborted),
		errors.Is(err, switcher.ErrNoInstallations),
		errors.Is(err, switcher.ErrActivation):
		return 0
	}
	return 1
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
