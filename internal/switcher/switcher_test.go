package switcher

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"condaswitch/internal/locate"
	"condaswitch/internal/logging"
	"condaswitch/internal/model"
	"condaswitch/internal/pathenv"
	"condaswitch/internal/shell"
	"condaswitch/internal/testutil"
)

type fixture struct {
	sw     *Switcher
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newFixture(t *testing.T, roots []string, searchPath string, opts ...func(*Options)) fixture {
	t.Helper()
	runner := shell.NewRunner(5 * time.Second)
	loc := locate.New(locate.Options{
		Roots:      roots,
		MaxDepth:   3,
		Names:      []string{"anaconda3", "miniconda3", "miniforge3"},
		SearchPath: searchPath,
	}, runner, logging.Discard())

	f := fixture{out: &bytes.Buffer{}, errOut: &bytes.Buffer{}}
	o := Options{
		Locator:    loc,
		Runner:     runner,
		Shell:      shell.Bash(),
		SearchPath: searchPath,
		Out:        f.out,
		Err:        f.errOut,
		Logger:     logging.Discard(),
	}
	for _, fn := range opts {
		fn(&o)
	}
	f.sw = New(o)
	return f
}

// evalPath evaluates emitted shell code starting from startPath and returns
// the resulting PATH.
func evalPath(t *testing.T, script, startPath string) string {
	t.Helper()
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), "")
	require.NoError(t, err)
	runner, err := interp.New(interp.Env(expand.ListEnviron("PATH=" + startPath)))
	require.NoError(t, err)
	require.NoError(t, runner.Run(context.Background(), prog))
	return runner.Vars["PATH"].String()
}

func TestList_SingleInstallation(t *testing.T) {
	root := filepath.Join(t.TempDir(), "fakeconda")
	prefix := testutil.FakeConda(t, filepath.Join(root, "miniforge3"), testutil.WithVersion("24.1.0"))
	f := newFixture(t, []string{root}, "/usr/bin:/bin")

	require.NoError(t, f.sw.List(context.Background()))
	out := f.out.String()
	require.Contains(t, out, " 1. ")
	require.NotContains(t, out, " 2. ")
	require.Contains(t, out, "miniforge3")
	require.Contains(t, out, model.Canonical(prefix))
	require.Contains(t, out, "24.1.0")
	require.Contains(t, out, "standard")
}

func TestList_Empty(t *testing.T) {
	f := newFixture(t, []string{filepath.Join(t.TempDir(), "missing")}, "")
	require.NoError(t, f.sw.List(context.Background()))
	require.Equal(t, "no conda installations found\n", f.out.String())
}

func TestList_MarksActiveAndMamba(t *testing.T) {
	root := t.TempDir()
	mf := testutil.FakeConda(t, filepath.Join(root, "miniforge3"), testutil.WithMamba())
	testutil.FakeConda(t, filepath.Join(root, "anaconda3"))
	f := newFixture(t, []string{root}, filepath.Join(mf, "condabin")+":/usr/bin")

	require.NoError(t, f.sw.List(context.Background()))
	lines := strings.Split(f.out.String(), "\n")
	var mfLine string
	for _, l := range lines {
		if strings.Contains(l, "miniforge3") {
			mfLine = l
		}
	}
	require.Contains(t, mfLine, model.IconActive)
	require.Contains(t, mfLine, "mamba (fast installer)")
}

func TestList_OutdatedNote(t *testing.T) {
	root := t.TempDir()
	testutil.FakeConda(t, filepath.Join(root, "miniforge3"), testutil.WithVersion("23.1.0"))
	calls := 0
	f := newFixture(t, []string{root}, "", func(o *Options) {
		o.Latest = func(current string) (string, bool, error) {
			calls++
			return "24.9.2", current != "24.9.2", nil
		}
	})

	require.NoError(t, f.sw.List(context.Background()))
	require.NoError(t, f.sw.List(context.Background()))
	require.Contains(t, f.out.String(), "24.9.2 available")
	require.Equal(t, 1, calls, "release lookups are cached per version")
}

func TestSwitch_PrependsSelectedBin(t *testing.T) {
	root := filepath.Join(t.TempDir(), "fakeconda")
	prefix := model.Canonical(testutil.FakeConda(t, filepath.Join(root, "miniforge3")))
	start := "/home/u/anaconda3/bin:/usr/bin:/home/u/miniconda3/condabin:/bin"
	f := newFixture(t, []string{root}, start)

	require.NoError(t, f.sw.Switch(context.Background(), 1))

	script := f.out.String()
	require.NoError(t, shell.Bash().Check(script))
	got := pathenv.Split(evalPath(t, script, start))
	require.Equal(t, []string{filepath.Join(prefix, "bin"), "/usr/bin", "/bin"}, got)
	require.Contains(t, f.errOut.String(), "switched to miniforge3")
	require.Contains(t, script, "CONDA_EXE", "hook output is emitted when no conda.sh exists")
}

func TestSwitch_RemovesPreviousRegistryBinDirs(t *testing.T) {
	root := t.TempDir()
	// Prefix-matched names carry no marker substring, so only the registry
	// entries identify their bin directories.
	lab := model.Canonical(testutil.FakeConda(t, filepath.Join(root, "conda-lab")))
	other := model.Canonical(testutil.FakeConda(t, filepath.Join(root, "conda-old")))
	start := filepath.Join(other, "bin") + ":/usr/bin:" + filepath.Join(lab, "bin")

	runner := shell.NewRunner(5 * time.Second)
	var out, errOut bytes.Buffer
	sw := New(Options{
		Locator: locate.New(locate.Options{
			Roots:      []string{root},
			Prefixes:   []string{"conda"},
			SearchPath: start,
		}, runner, logging.Discard()),
		Runner:     runner,
		Shell:      shell.Bash(),
		SearchPath: start,
		Out:        &out,
		Err:        &errOut,
		Logger:     logging.Discard(),
	})

	require.NoError(t, sw.Switch(context.Background(), 1))
	got := pathenv.Split(evalPath(t, out.String(), start))
	require.Equal(t, []string{filepath.Join(lab, "bin"), "/usr/bin"}, got)
}

func TestSwitch_KeepsEmptyPathSegments(t *testing.T) {
	root := t.TempDir()
	prefix := model.Canonical(testutil.FakeConda(t, filepath.Join(root, "miniforge3")))
	start := "/usr/bin::/opt/anaconda3/bin:/bin"
	f := newFixture(t, []string{root}, start)

	require.NoError(t, f.sw.Switch(context.Background(), 1))
	require.Equal(t, filepath.Join(prefix, "bin")+":/usr/bin::/bin", evalPath(t, f.out.String(), start))
}

func TestSwitch_RemovesSymlinkedRegistryBinDirs(t *testing.T) {
	root := t.TempDir()
	lab := model.Canonical(testutil.FakeConda(t, filepath.Join(root, "conda-lab")))
	other := testutil.FakeConda(t, filepath.Join(root, "conda-old"))
	alias := filepath.Join(t.TempDir(), "current")
	require.NoError(t, os.Symlink(other, alias))
	start := filepath.Join(alias, "bin") + ":/usr/bin"

	runner := shell.NewRunner(5 * time.Second)
	var out, errOut bytes.Buffer
	sw := New(Options{
		Locator: locate.New(locate.Options{
			Roots:      []string{root},
			Prefixes:   []string{"conda"},
			SearchPath: start,
		}, runner, logging.Discard()),
		Runner:     runner,
		Shell:      shell.Bash(),
		SearchPath: start,
		Out:        &out,
		Err:        &errOut,
		Logger:     logging.Discard(),
	})

	require.NoError(t, sw.Switch(context.Background(), 1))
	got := pathenv.Split(evalPath(t, out.String(), start))
	require.Equal(t, []string{filepath.Join(lab, "bin"), "/usr/bin"}, got)
}

func TestSwitch_SourcesActivationScript(t *testing.T) {
	root := t.TempDir()
	prefix := model.Canonical(testutil.FakeConda(t, filepath.Join(root, "anaconda3"), testutil.WithActivationScript()))
	f := newFixture(t, []string{root}, "/usr/bin")

	require.NoError(t, f.sw.Switch(context.Background(), 1))
	script := f.out.String()
	require.Contains(t, script, filepath.Join(prefix, "etc", "profile.d", "conda.sh"))
	require.NotContains(t, script, "CONDA_EXE")
	require.Equal(t, filepath.Join(prefix, "bin")+":/usr/bin", evalPath(t, script, "/usr/bin"))
}

func TestSwitch_OutOfRangeLeavesPathUntouched(t *testing.T) {
	root := t.TempDir()
	testutil.FakeConda(t, filepath.Join(root, "miniforge3"))
	f := newFixture(t, []string{root}, "/usr/bin")

	for _, idx := range []int{0, 2, 99} {
		f.out.Reset()
		err := f.sw.Switch(context.Background(), idx)
		var sel *InvalidSelectionError
		require.True(t, errors.As(err, &sel), "index %d", idx)
		require.Equal(t, 1, sel.Max)
		require.Empty(t, f.out.String(), "no shell code for index %d", idx)
	}
	require.Contains(t, f.errOut.String(), "invalid selection")
}

func TestSwitch_NoInstallations(t *testing.T) {
	f := newFixture(t, nil, "/usr/bin")
	err := f.sw.Switch(context.Background(), 1)
	require.ErrorIs(t, err, ErrNoInstallations)
	require.Empty(t, f.out.String())
	require.Contains(t, f.errOut.String(), "no conda installations found")
}

func TestSwitch_ActivationFailureKeepsPathExport(t *testing.T) {
	root := t.TempDir()
	prefix := model.Canonical(testutil.FakeConda(t, filepath.Join(root, "miniforge3"), testutil.WithHook("")))
	f := newFixture(t, []string{root}, "/usr/bin")

	err := f.sw.Switch(context.Background(), 1)
	require.ErrorIs(t, err, ErrActivation)
	require.Equal(t, filepath.Join(prefix, "bin")+":/usr/bin", evalPath(t, f.out.String(), "/usr/bin"))
}

type staleLocator struct {
	reg *model.Registry
}

func (s staleLocator) Discover(context.Context) locate.Result { return locate.Result{Registry: s.reg} }

func (s staleLocator) Validate(_ context.Context, inst model.Installation) (model.Installation, error) {
	return model.Installation{}, &locate.RejectError{Path: inst.Path, Reason: "no bin/conda"}
}

func TestSwitch_RevalidatesBeforeMutating(t *testing.T) {
	reg := &model.Registry{}
	reg.Add(model.NewInstallation("/gone/miniforge3", model.SourceRoot))
	var out, errOut bytes.Buffer
	sw := New(Options{
		Locator:    staleLocator{reg: reg},
		Runner:     shell.NewRunner(time.Second),
		SearchPath: "/usr/bin",
		Out:        &out,
		Err:        &errOut,
		Logger:     logging.Discard(),
	})

	err := sw.Switch(context.Background(), 1)
	var rej *locate.RejectError
	require.True(t, errors.As(err, &rej))
	require.Empty(t, out.String())
	require.Contains(t, errOut.String(), "no longer usable")
}

type scriptedPrompter struct {
	input  string
	err    error
	seen   int
	active int
}

func (p *scriptedPrompter) Prompt(entries []model.Installation, active int) (string, error) {
	p.seen = len(entries)
	p.active = active
	return p.input, p.err
}

func TestSwitchInteractive(t *testing.T) {
	root := t.TempDir()
	testutil.FakeConda(t, filepath.Join(root, "anaconda3"))
	second := model.Canonical(testutil.FakeConda(t, filepath.Join(root, "miniforge3")))

	t.Run("valid", func(t *testing.T) {
		f := newFixture(t, []string{root}, "/usr/bin")
		p := &scriptedPrompter{input: " 2 "}
		require.NoError(t, f.sw.SwitchInteractive(context.Background(), p))
		require.Equal(t, 2, p.seen)
		require.Equal(t, 0, p.active)
		require.Equal(t, filepath.Join(second, "bin")+":/usr/bin", evalPath(t, f.out.String(), "/usr/bin"))
	})

	t.Run("non-numeric", func(t *testing.T) {
		f := newFixture(t, []string{root}, "/usr/bin")
		err := f.sw.SwitchInteractive(context.Background(), &scriptedPrompter{input: "two"})
		var sel *InvalidSelectionError
		require.True(t, errors.As(err, &sel))
		require.Empty(t, f.out.String())
	})

	t.Run("quit", func(t *testing.T) {
		f := newFixture(t, []string{root}, "/usr/bin")
		err := f.sw.SwitchInteractive(context.Background(), &scriptedPrompter{input: "q"})
		require.ErrorIs(t, err, ErrAborted)
		require.Empty(t, f.out.String())
		require.Contains(t, f.errOut.String(), "aborted")
	})

	t.Run("prompt error", func(t *testing.T) {
		f := newFixture(t, []string{root}, "/usr/bin")
		err := f.sw.SwitchInteractive(context.Background(), &scriptedPrompter{err: errors.New("no tty")})
		require.Error(t, err)
		require.Empty(t, f.out.String())
	})
}

func TestStatus_NothingActive(t *testing.T) {
	f := newFixture(t, []string{filepath.Join(t.TempDir(), "nope")}, "")
	require.NoError(t, f.sw.Status(context.Background()))
	out := f.out.String()
	require.Contains(t, out, "no conda installation active")
	require.Contains(t, out, "(none)")
	require.Contains(t, out, "available installations: none")
}

func TestStatus_ActiveInstallation(t *testing.T) {
	root := t.TempDir()
	prefix := testutil.FakeConda(t, filepath.Join(root, "miniforge3"))
	searchPath := filepath.Join(prefix, "bin") + ":/usr/bin:" + filepath.Join(prefix, "bin")
	f := newFixture(t, []string{root}, searchPath)

	require.NoError(t, f.sw.Status(context.Background()))
	out := f.out.String()
	require.Contains(t, out, "Active installation: "+prefix)
	require.Contains(t, out, filepath.Join(prefix, "bin"))
	require.Contains(t, out, "(duplicate of 1)")
	require.Contains(t, out, "appears more than once (entries 1 and 3)")
	require.Contains(t, out, "Available installations:")
	require.Empty(t, f.errOut.String(), "status is read-only and silent on stderr")
}

func TestDebug_ListsRejected(t *testing.T) {
	root := t.TempDir()
	testutil.FakeConda(t, filepath.Join(root, "anaconda3"), testutil.Broken())
	testutil.FakeConda(t, filepath.Join(root, "miniforge3"))
	f := newFixture(t, []string{root}, "")

	require.NoError(t, f.sw.Debug(context.Background()))
	out := f.out.String()
	require.Contains(t, out, "Registered installations:")
	require.Contains(t, out, "Rejected candidates:")
	require.Contains(t, out, "version query failed")
	require.Contains(t, out, "PATH diagnostics: none")
	require.Empty(t, f.errOut.String())
}

func TestDebug_ReportsPathDiagnostics(t *testing.T) {
	f := newFixture(t, nil, "/usr/bin:/bin:/usr/bin")

	require.NoError(t, f.sw.Debug(context.Background()))
	out := f.out.String()
	require.Contains(t, out, "PATH diagnostics:")
	require.Contains(t, out, "/usr/bin appears more than once (entries 1 and 3)")
}

func TestInit_WritesWrapper(t *testing.T) {
	f := newFixture(t, nil, "")
	require.NoError(t, f.sw.Init("/usr/local/bin/conda-switch"))
	require.NoError(t, shell.Bash().Check(f.out.String()))
	require.Contains(t, f.out.String(), "cswitch()")
}
