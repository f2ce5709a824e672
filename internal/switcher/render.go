package switcher

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"condaswitch/internal/locate"
	"condaswitch/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	nameStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

func (s *Switcher) paint(style lipgloss.Style, text string) string {
	if !s.styled {
		return text
	}
	return style.Render(text)
}

// List discovers installations and prints the registry.
func (s *Switcher) List(ctx context.Context) error {
	reg := s.locator.Discover(ctx).Registry
	return s.writeRegistry(s.out, reg, "Available conda installations:")
}

// Status prints the active installation, the conda-related PATH entries and
// the registry. It never changes anything.
func (s *Switcher) Status(ctx context.Context) error {
	w := s.out
	base := ""
	if exe := s.activeConda(); exe != "" {
		b, err := s.runner.Base(ctx, exe)
		if err != nil {
			s.logger.Debug("active conda did not report its base", "exe", exe, "err", err)
		} else {
			base = b
		}
	}
	if base == "" {
		fmt.Fprintln(w, "no conda installation active")
	} else {
		fmt.Fprintf(w, "%s %s\n", s.paint(headerStyle, "Active installation:"), base)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, s.paint(headerStyle, "Conda-related PATH entries:"))
	analysis := s.analyzer.Analyze(s.searchPath)
	segments := analysis.CondaSegments()
	for _, e := range segments {
		line := fmt.Sprintf("  %2d. %s", e.Index+1, e.Value)
		if e.IsDuplicate {
			line += s.paint(dimStyle, fmt.Sprintf(" (duplicate of %d)", e.DuplicateOf+1))
		}
		fmt.Fprintln(w, line)
	}
	if len(segments) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	s.writeDiagnostics(w, analysis.Diagnostics)

	fmt.Fprintln(w)
	reg := s.locator.Discover(ctx).Registry
	if reg.Len() == 0 {
		fmt.Fprintln(w, "available installations: none")
		return nil
	}
	return s.writeRegistry(w, reg, "Available installations:")
}

// Debug runs discovery (with the logger at debug level, set by the caller)
// and prints the registry followed by every rejected candidate.
func (s *Switcher) Debug(ctx context.Context) error {
	res := s.locator.Discover(ctx)
	fmt.Fprintf(s.out, "search path: %s\n", s.searchPath)
	if diags := s.analyzer.Analyze(s.searchPath).Diagnostics; len(diags) > 0 {
		fmt.Fprintln(s.out, s.paint(headerStyle, "PATH diagnostics:"))
		s.writeDiagnostics(s.out, diags)
	} else {
		fmt.Fprintln(s.out, "PATH diagnostics: none")
	}
	fmt.Fprintln(s.out)
	if err := s.writeRegistry(s.out, res.Registry, "Registered installations:"); err != nil {
		return err
	}
	fmt.Fprintln(s.out)
	return s.writeRejected(s.out, res.Rejected)
}

func (s *Switcher) writeRegistry(w io.Writer, reg *model.Registry, title string) error {
	if reg.Len() == 0 {
		_, err := fmt.Fprintln(w, "no conda installations found")
		return err
	}

	entries := reg.Entries()
	active := s.activeIndex(reg)
	nameWidth, pathWidth := 0, 0
	for _, e := range entries {
		nameWidth = max(nameWidth, len(e.Name))
		pathWidth = max(pathWidth, len(e.Path))
	}

	var b strings.Builder
	b.WriteString(s.paint(headerStyle, title))
	b.WriteString("\n")
	for i, e := range entries {
		marker := model.IconOK
		if i+1 == active {
			marker = model.IconActive
		}
		version := e.Version
		if version == "" {
			version = "unknown"
		}
		fmt.Fprintf(&b, "  %2d. %s %s  %-*s  %-8s %s %s",
			i+1, marker,
			s.paint(nameStyle, fmt.Sprintf("%-*s", nameWidth, e.Name)),
			pathWidth, e.Path,
			version, model.FlavorIcon(e.Flavor), s.flavorLabel(e.Flavor))
		if note := s.outdatedNote(e.Version); note != "" {
			b.WriteString("  " + s.paint(warnStyle, note))
		}
		b.WriteString("\n")
	}
	if active > 0 {
		b.WriteString(s.paint(dimStyle, fmt.Sprintf("  %s active", model.IconActive)))
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (s *Switcher) writeDiagnostics(w io.Writer, diags []string) {
	for _, d := range diags {
		fmt.Fprintf(w, "  %s %s\n", s.paint(warnStyle, "!"), d)
	}
}

func (s *Switcher) writeRejected(w io.Writer, rejected []*locate.RejectError) error {
	if len(rejected) == 0 {
		_, err := fmt.Fprintln(w, "Rejected candidates: none")
		return err
	}
	var b strings.Builder
	b.WriteString(s.paint(headerStyle, "Rejected candidates:"))
	b.WriteString("\n")
	for _, r := range rejected {
		fmt.Fprintf(&b, "  %s %s: %s", model.IconInvalid, r.Path, r.Reason)
		if r.Err != nil {
			fmt.Fprintf(&b, " (%v)", r.Err)
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (s *Switcher) flavorLabel(f model.Flavor) string {
	if f == model.FlavorMamba {
		return "mamba (fast installer)"
	}
	return "standard"
}

func (s *Switcher) outdatedNote(version string) string {
	if s.latest == nil || version == "" {
		return ""
	}
	newest, outdated, err := s.latest(version)
	if err != nil {
		s.logger.Debug("release check failed", "version", version, "err", err)
		return ""
	}
	if !outdated {
		return ""
	}
	return fmt.Sprintf("%s %s available", model.IconOutdated, newest)
}
