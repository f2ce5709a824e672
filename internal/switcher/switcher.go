// Package switcher implements the list, status, switch, debug and init
// commands on top of installation discovery.
//
// A child process cannot change its parent shell's PATH, so switching emits
// shell code on the output writer for the invoking shell to evaluate, e.g.
//
//	eval "$(conda-switch 2)"
//
// Human-readable messages for switching go to the error writer so that the
// output stays evaluable.
package switcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"condaswitch/internal/locate"
	"condaswitch/internal/model"
	"condaswitch/internal/pathenv"
	"condaswitch/internal/shell"
)

// Discoverer builds and re-validates the installation registry.
type Discoverer interface {
	Discover(ctx context.Context) locate.Result
	Validate(ctx context.Context, inst model.Installation) (model.Installation, error)
}

// CondaRunner runs conda subcommands.
type CondaRunner interface {
	Base(ctx context.Context, condaBin string) (string, error)
	Hook(ctx context.Context, condaBin string, sh shell.Shell) (string, error)
}

// Prompter asks the user to pick an installation. It returns the raw input;
// quitting returns "q".
type Prompter interface {
	Prompt(entries []model.Installation, active int) (string, error)
}

// Options configures a Switcher.
type Options struct {
	Locator Discoverer
	Runner  CondaRunner
	Shell   shell.Shell
	// SearchPath is the inherited PATH.
	SearchPath string
	Out        io.Writer // listings and emitted shell code
	Err        io.Writer // messages while switching
	Logger     *log.Logger
	// Styled enables lipgloss colors on Out.
	Styled bool
	// Latest, when set, flags installations with a newer conda release.
	Latest LatestFunc
}

// Switcher runs the user-facing commands.
type Switcher struct {
	locator    Discoverer
	runner     CondaRunner
	sh         shell.Shell
	analyzer   *pathenv.Analyzer
	searchPath string
	out        io.Writer
	errOut     io.Writer
	logger     *log.Logger
	styled     bool
	latest     LatestFunc
}

// New creates a Switcher.
func New(opts Options) *Switcher {
	s := &Switcher{
		locator:    opts.Locator,
		runner:     opts.Runner,
		sh:         opts.Shell,
		analyzer:   pathenv.NewAnalyzer(),
		searchPath: opts.SearchPath,
		out:        opts.Out,
		errOut:     opts.Err,
		logger:     opts.Logger,
		styled:     opts.Styled,
	}
	if s.sh == nil {
		s.sh = shell.Bash()
	}
	if opts.Latest != nil {
		s.latest = memoize(opts.Latest)
	}
	return s
}

// Switch discovers installations and switches to the 1-based index.
func (s *Switcher) Switch(ctx context.Context, index int) error {
	reg := s.locator.Discover(ctx).Registry
	if reg.Len() == 0 {
		return s.fail(ErrNoInstallations)
	}
	inst, ok := reg.At(index)
	if !ok {
		return s.fail(&InvalidSelectionError{Input: strconv.Itoa(index), Max: reg.Len()})
	}
	return s.apply(ctx, reg, inst)
}

// SwitchInteractive lists the registry through p and switches to the choice.
func (s *Switcher) SwitchInteractive(ctx context.Context, p Prompter) error {
	reg := s.locator.Discover(ctx).Registry
	if reg.Len() == 0 {
		return s.fail(ErrNoInstallations)
	}
	input, err := p.Prompt(reg.Entries(), s.activeIndex(reg))
	if err != nil {
		return s.fail(fmt.Errorf("prompt: %w", err))
	}
	index, err := ParseSelection(input, reg.Len())
	if err != nil {
		return s.fail(err)
	}
	inst, _ := reg.At(index)
	return s.apply(ctx, reg, inst)
}

// apply re-validates inst, then emits the PATH rewrite followed by the
// activation step. The steps are not transactional: an activation failure
// is reported after the PATH export has been written.
func (s *Switcher) apply(ctx context.Context, reg *model.Registry, inst model.Installation) error {
	checked, err := s.locator.Validate(ctx, inst)
	if err != nil {
		return s.fail(fmt.Errorf("%s is no longer usable: %w", inst.Path, err))
	}
	inst = checked

	var drop []string
	for _, e := range reg.Entries() {
		drop = append(drop, e.BinDir(), e.CondaBinDir())
	}
	dirs := s.analyzer.Clean(pathenv.Segments(s.searchPath), drop...)
	dirs = pathenv.Prepend(dirs, inst.BinDir())
	s.logger.Debug("rewritten PATH", "path", pathenv.Join(dirs))

	if _, err := fmt.Fprintln(s.out, s.sh.ExportPath(dirs)); err != nil {
		return fmt.Errorf("writing shell code: %w", err)
	}

	actErr := s.activate(ctx, inst)
	if actErr != nil {
		s.logger.Warn("PATH updated but shell integration failed", "installation", inst.Path, "err", actErr)
	}
	fmt.Fprintf(s.errOut, "switched to %s %s (%s)\n", inst.Name, inst.Version, inst.Path)
	return actErr
}

func (s *Switcher) activate(ctx context.Context, inst model.Installation) error {
	script := s.sh.ActivationScript(inst.Path)
	if model.IsRegularFile(script) {
		s.logger.Debug("sourcing activation script", "script", script)
		_, err := fmt.Fprintln(s.out, s.sh.Source(script))
		return err
	}

	s.logger.Debug("running shell hook", "conda", inst.CondaBin(), "args", s.sh.HookArgs())
	hook, err := s.runner.Hook(ctx, inst.CondaBin(), s.sh)
	if err == nil {
		err = s.sh.Check(hook)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrActivation, err)
	}
	_, err = fmt.Fprintln(s.out, strings.TrimRight(hook, "\n"))
	return err
}

// Init writes the cswitch wrapper function for the configured shell.
func (s *Switcher) Init(exe string) error {
	_, err := io.WriteString(s.out, s.sh.Wrapper(exe))
	return err
}

// fail reports a selection-level error to the user and returns it.
func (s *Switcher) fail(err error) error {
	var sel *InvalidSelectionError
	switch {
	case errors.As(err, &sel):
		fmt.Fprintf(s.errOut, "%s\n", sel.Error())
	case errors.Is(err, ErrAborted):
		fmt.Fprintln(s.errOut, "aborted, PATH unchanged")
	case errors.Is(err, ErrNoInstallations):
		fmt.Fprintln(s.errOut, "no conda installations found")
	default:
		fmt.Fprintf(s.errOut, "error: %v\n", err)
	}
	return err
}

// activeIndex returns the 1-based index of the installation whose bin or
// condabin directory comes first on the search path, or 0.
func (s *Switcher) activeIndex(reg *model.Registry) int {
	cands := make(map[string]int)
	for i, e := range reg.Entries() {
		cands[e.BinDir()] = i + 1
		cands[e.CondaBinDir()] = i + 1
	}
	dirs := pathenv.Split(s.searchPath)
	canon := make([]string, len(dirs))
	for i, d := range dirs {
		canon[i] = model.Canonical(d)
	}
	if i, v := pathenv.FirstOf(canon, cands); i >= 0 {
		return v
	}
	return 0
}

// activeConda returns the first executable conda on the search path.
func (s *Switcher) activeConda() string {
	for _, dir := range pathenv.Split(s.searchPath) {
		exe := filepath.Join(dir, "conda")
		if model.IsExecutable(exe) {
			return exe
		}
	}
	return ""
}
