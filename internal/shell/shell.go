package shell

import (
	"fmt"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Shell defines the dialect-specific pieces of the code emitted for the
// invoking shell to evaluate.
type Shell interface {
	Name() string
	// Quote returns s as a single shell word.
	Quote(s string) string
	// ExportPath returns a statement that sets PATH to dirs, in order.
	ExportPath(dirs []string) string
	// Source returns a statement that loads file into the current shell.
	Source(file string) string
	// HookArgs returns the conda arguments that print the shell hook.
	HookArgs() []string
	// ActivationScript returns the activation script for an installation prefix.
	ActivationScript(prefix string) string
	// Check reports whether script is usable by this shell.
	Check(script string) error
	// Wrapper returns the cswitch function that evaluates exe's output.
	Wrapper(exe string) string
}

// posixFamily covers sh, bash and zsh, which share quoting and export syntax.
type posixFamily struct {
	name string
	lang syntax.LangVariant
	// parse is false for dialects mvdan/sh cannot fully parse.
	parse bool
}

func (s *posixFamily) Name() string { return s.name }

func (s *posixFamily) Quote(v string) string {
	q, err := syntax.Quote(v, s.lang)
	if err != nil {
		// Non-printable characters in POSIX mode; single quotes still work
		// for anything but NUL, which a path cannot contain.
		return "'" + strings.ReplaceAll(v, "'", `'\''`) + "'"
	}
	return q
}

func (s *posixFamily) ExportPath(dirs []string) string {
	return "export PATH=" + s.Quote(strings.Join(dirs, ":"))
}

func (s *posixFamily) Source(file string) string {
	return ". " + s.Quote(file)
}

func (s *posixFamily) HookArgs() []string {
	return []string{"shell." + s.name, "hook"}
}

func (s *posixFamily) ActivationScript(prefix string) string {
	return filepath.Join(prefix, "etc", "profile.d", "conda.sh")
}

func (s *posixFamily) Check(script string) error {
	if strings.TrimSpace(script) == "" {
		return fmt.Errorf("empty %s script", s.name)
	}
	if !s.parse {
		return nil
	}
	if _, err := syntax.NewParser(syntax.Variant(s.lang)).Parse(strings.NewReader(script), s.name); err != nil {
		return fmt.Errorf("unparsable %s script: %w", s.name, err)
	}
	return nil
}

func (s *posixFamily) Wrapper(exe string) string {
	cmd := "command " + s.Quote(exe) + " --shell " + s.name
	var b strings.Builder
	b.WriteString("cswitch() {\n")
	b.WriteString("    case \"${1:-}\" in\n")
	b.WriteString("        switch|[0-9]*)\n")
	b.WriteString("            __cswitch_out=\"$(" + cmd + " \"$@\")\" || return\n")
	b.WriteString("            eval \"$__cswitch_out\"\n")
	b.WriteString("            unset __cswitch_out\n")
	b.WriteString("            ;;\n")
	b.WriteString("        *)\n")
	b.WriteString("            " + cmd + " \"$@\"\n")
	b.WriteString("            ;;\n")
	b.WriteString("    esac\n")
	b.WriteString("}\n")
	return b.String()
}

// FishShell implements Shell for fish.
type FishShell struct{}

func (s *FishShell) Name() string { return "fish" }

func (s *FishShell) Quote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func (s *FishShell) ExportPath(dirs []string) string {
	quoted := make([]string, len(dirs))
	for i, d := range dirs {
		quoted[i] = s.Quote(d)
	}
	return "set -gx PATH " + strings.Join(quoted, " ")
}

func (s *FishShell) Source(file string) string {
	return "source " + s.Quote(file)
}

func (s *FishShell) HookArgs() []string {
	return []string{"shell.fish", "hook"}
}

func (s *FishShell) ActivationScript(prefix string) string {
	return filepath.Join(prefix, "etc", "fish", "conf.d", "conda.fish")
}

func (s *FishShell) Check(script string) error {
	if strings.TrimSpace(script) == "" {
		return fmt.Errorf("empty fish script")
	}
	return nil
}

func (s *FishShell) Wrapper(exe string) string {
	cmd := "command " + s.Quote(exe)
	return "function cswitch\n" +
		"    if test \"$argv[1]\" = switch; or string match -qr '^[0-9]+$' -- \"$argv[1]\"\n" +
		"        " + cmd + " --shell fish $argv | source\n" +
		"    else\n" +
		"        " + cmd + " $argv\n" +
		"    end\n" +
		"end\n"
}

// Bash returns the bash dialect.
func Bash() Shell { return &posixFamily{name: "bash", lang: syntax.LangBash, parse: true} }

// Zsh returns the zsh dialect. Its hook output is not parsed, only checked
// for content.
func Zsh() Shell { return &posixFamily{name: "zsh", lang: syntax.LangBash} }

// Posix returns the plain sh dialect.
func Posix() Shell { return &posixFamily{name: "posix", lang: syntax.LangPOSIX, parse: true} }

// Fish returns the fish dialect.
func Fish() Shell { return &FishShell{} }

// ByName returns the dialect for a name given on the command line or in
// config ("bash", "zsh", "sh"/"posix", "fish").
func ByName(name string) (Shell, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bash":
		return Bash(), nil
	case "zsh":
		return Zsh(), nil
	case "sh", "posix", "dash", "ksh":
		return Posix(), nil
	case "fish":
		return Fish(), nil
	default:
		return nil, fmt.Errorf("unsupported shell %q", name)
	}
}

// DetectShell identifies the user's shell from a $SHELL-style path,
// defaulting to bash, the usual login shell on cluster nodes.
func DetectShell(shellPath string) Shell {
	base := filepath.Base(shellPath)
	switch {
	case strings.Contains(base, "fish"):
		return Fish()
	case strings.Contains(base, "zsh"):
		return Zsh()
	case strings.Contains(base, "bash"):
		return Bash()
	case base == "sh" || base == "dash" || base == "ksh":
		return Posix()
	}
	return Bash()
}
