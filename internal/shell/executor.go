package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Runner invokes conda executables.
type Runner struct {
	// Timeout bounds a single invocation; zero waits indefinitely.
	Timeout time.Duration
	// Environ is the base environment; os.Environ() when nil.
	Environ []string
}

// NewRunner creates a Runner with the given per-call timeout. A timeout of
// zero or less disables the limit.
func NewRunner(timeout time.Duration) *Runner {
	if timeout < 0 {
		timeout = 0
	}
	return &Runner{Timeout: timeout}
}

// Version runs `<condaBin> --version` and returns the parsed version.
// A non-zero exit or empty output is an error.
func (r *Runner) Version(ctx context.Context, condaBin string) (string, error) {
	out, err := r.run(ctx, condaBin, "--version")
	if err != nil {
		return "", err
	}
	v := ParseVersion(out)
	if v == "" {
		return "", fmt.Errorf("%s --version: no output", condaBin)
	}
	return v, nil
}

// Base runs `<condaBin> info --base` and returns the installation base.
func (r *Runner) Base(ctx context.Context, condaBin string) (string, error) {
	out, err := r.run(ctx, condaBin, "info", "--base")
	if err != nil {
		return "", err
	}
	base := strings.TrimSpace(lastLine(out))
	if base == "" {
		return "", fmt.Errorf("%s info --base: no output", condaBin)
	}
	return base, nil
}

// Hook runs the shell hook subcommand for sh and returns its output.
func (r *Runner) Hook(ctx context.Context, condaBin string, sh Shell) (string, error) {
	args := sh.HookArgs()
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	cmd := r.command(ctx, condaBin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s %s: %w: %s", condaBin, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func (r *Runner) run(ctx context.Context, condaBin string, args ...string) (string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	cmd := r.command(ctx, condaBin, args...)

	// Older conda releases print the version on stderr.
	out, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%s %s: timed out after %s", condaBin, strings.Join(args, " "), r.Timeout)
		}
		return "", fmt.Errorf("%s %s: %w", condaBin, strings.Join(args, " "), err)
	}
	return string(out), nil
}

func (r *Runner) command(ctx context.Context, condaBin string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, condaBin, args...)
	cmd.Env = r.env()
	return cmd
}

func (r *Runner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.Timeout)
}

// env drops variables left behind by a previously activated installation so
// the invoked conda reports its own prefix.
func (r *Runner) env() []string {
	base := r.Environ
	if base == nil {
		base = os.Environ()
	}
	env := make([]string, 0, len(base))
	for _, e := range base {
		name, _, _ := strings.Cut(e, "=")
		switch name {
		case "CONDA_EXE", "CONDA_PYTHON_EXE", "_CE_CONDA", "_CE_M":
			continue
		}
		env = append(env, e)
	}
	return env
}
