// Package testutil builds fake conda installations on disk for tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// FakeOptions controls the behavior of a fake conda executable.
type FakeOptions struct {
	Version    string // printed as "conda <Version>"; empty prints nothing
	Fail       bool   // every invocation exits 1
	Hook       string // output of `conda shell.* hook`
	Mamba      bool   // also create bin/mamba
	Activation bool   // create etc/profile.d/conda.sh
}

// Option mutates FakeOptions.
type Option func(*FakeOptions)

// WithVersion sets the reported version.
func WithVersion(v string) Option { return func(o *FakeOptions) { o.Version = v } }

// WithHook sets the shell hook output.
func WithHook(script string) Option { return func(o *FakeOptions) { o.Hook = script } }

// WithMamba adds a bin/mamba executable.
func WithMamba() Option { return func(o *FakeOptions) { o.Mamba = true } }

// WithActivationScript adds etc/profile.d/conda.sh.
func WithActivationScript() Option { return func(o *FakeOptions) { o.Activation = true } }

// Broken makes every invocation fail.
func Broken() Option { return func(o *FakeOptions) { o.Fail = true } }

// Silent makes --version print nothing while exiting 0.
func Silent() Option { return func(o *FakeOptions) { o.Version = "" } }

// FakeConda creates <prefix>/bin/conda as a shell script and returns prefix.
// By default it reports version 24.1.0, prints prefix for `info --base`, and
// emits a one-line hook.
//
// Usage:
//
//	prefix := testutil.FakeConda(t, filepath.Join(root, "miniforge3"))
//	prefix := testutil.FakeConda(t, dir, testutil.Broken())
func FakeConda(t testing.TB, prefix string, opts ...Option) string {
	t.Helper()

	o := FakeOptions{
		Version: "24.1.0",
		Hook:    "export CONDA_EXE='" + filepath.Join(prefix, "bin", "conda") + "'\n",
	}
	for _, opt := range opts {
		opt(&o)
	}

	bin := filepath.Join(prefix, "bin")
	if err := os.MkdirAll(bin, 0o755); err != nil {
		t.Fatalf("create %s: %v", bin, err)
	}

	var script strings.Builder
	script.WriteString("#!/bin/sh\n")
	if o.Fail {
		script.WriteString("exit 1\n")
	} else {
		script.WriteString("case \"$1\" in\n")
		if o.Version != "" {
			fmt.Fprintf(&script, "--version) echo 'conda %s' ;;\n", o.Version)
		} else {
			script.WriteString("--version) ;;\n")
		}
		fmt.Fprintf(&script, "info) echo '%s' ;;\n", prefix)
		hook := o.Hook
		if hook != "" && !strings.HasSuffix(hook, "\n") {
			hook += "\n"
		}
		fmt.Fprintf(&script, "shell.*) cat <<'__HOOK__'\n%s__HOOK__\n;;\n", hook)
		script.WriteString("*) exit 1 ;;\nesac\n")
	}
	WriteExecutable(t, filepath.Join(bin, "conda"), script.String())

	if o.Mamba {
		WriteExecutable(t, filepath.Join(bin, "mamba"), "#!/bin/sh\nexit 0\n")
	}
	if o.Activation {
		profile := filepath.Join(prefix, "etc", "profile.d")
		if err := os.MkdirAll(profile, 0o755); err != nil {
			t.Fatalf("create %s: %v", profile, err)
		}
		if err := os.WriteFile(filepath.Join(profile, "conda.sh"), []byte("conda() { :; }\n"), 0o644); err != nil {
			t.Fatalf("write conda.sh: %v", err)
		}
	}
	return prefix
}

// WriteExecutable writes an executable file, creating parent directories.
func WriteExecutable(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
