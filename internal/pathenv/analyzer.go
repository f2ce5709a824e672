// Package pathenv analyzes and rewrites colon-delimited executable search paths.
package pathenv

import (
	"fmt"
	"path/filepath"
	"strings"

	"condaswitch/internal/model"
)

// DefaultMarkers are the installation-name substrings that identify a
// conda-managed PATH segment.
var DefaultMarkers = []string{"anaconda", "miniconda", "miniforge"}

// Entry is a single directory of a search path.
type Entry struct {
	Index       int // 0-based position in the search path
	Value       string
	IsConda     bool // a path component mentions an installation marker
	IsDuplicate bool
	DuplicateOf int // index of the first occurrence when IsDuplicate
}

// Analysis is the processed form of a search path.
type Analysis struct {
	Entries     []Entry
	Diagnostics []string
}

// Analyzer classifies search path segments.
type Analyzer struct {
	markers []string
}

// NewAnalyzer creates an Analyzer; with no markers DefaultMarkers is used.
func NewAnalyzer(markers ...string) *Analyzer {
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	return &Analyzer{markers: markers}
}

// Split breaks a search path into directories, dropping empty segments.
func Split(path string) []string {
	var dirs []string
	for _, p := range strings.Split(path, string(filepath.ListSeparator)) {
		if p == "" {
			continue
		}
		dirs = append(dirs, p)
	}
	return dirs
}

// Segments breaks a search path into directories, keeping empty segments,
// which shells read as the current directory. An empty path has none.
func Segments(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, string(filepath.ListSeparator))
}

// Join is the inverse of Segments.
func Join(dirs []string) string {
	return strings.Join(dirs, string(filepath.ListSeparator))
}

// IsConda reports whether any path component of dir contains a marker.
// This is substring matching: /home/u/miniforge-data/bin matches as well.
func (a *Analyzer) IsConda(dir string) bool {
	for _, part := range strings.Split(dir, "/") {
		if part == "" {
			continue
		}
		for _, m := range a.markers {
			if strings.Contains(part, m) {
				return true
			}
		}
	}
	return false
}

// Analyze classifies every segment of path.
func (a *Analyzer) Analyze(path string) Analysis {
	dirs := Split(path)
	entries := make([]Entry, len(dirs))
	var diags []string

	seen := make(map[string]int) // value -> index
	for i, d := range dirs {
		entries[i] = Entry{Index: i, Value: d, IsConda: a.IsConda(d)}
		if first, ok := seen[d]; ok {
			entries[i].IsDuplicate = true
			entries[i].DuplicateOf = first
			diags = append(diags, fmt.Sprintf("%s appears more than once (entries %d and %d)", d, first+1, i+1))
			continue
		}
		seen[d] = i
	}
	return Analysis{Entries: entries, Diagnostics: diags}
}

// CondaSegments returns the entries that mention an installation marker.
func (r Analysis) CondaSegments() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.IsConda {
			out = append(out, e)
		}
	}
	return out
}

// Clean removes conda segments and any segment resolving to the same
// directory as one of drop. Empty segments are kept.
func (a *Analyzer) Clean(dirs []string, drop ...string) []string {
	dropSet := make(map[string]struct{}, len(drop))
	for _, d := range drop {
		dropSet[model.Canonical(d)] = struct{}{}
	}
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if d == "" {
			out = append(out, d)
			continue
		}
		if a.IsConda(d) {
			continue
		}
		if _, ok := dropSet[model.Canonical(d)]; ok {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Prepend returns dir followed by dirs.
func Prepend(dirs []string, dir string) []string {
	out := make([]string, 0, len(dirs)+1)
	out = append(out, dir)
	return append(out, dirs...)
}

// FirstOf returns the index in dirs of the first directory that appears in
// candidates, or -1.
func FirstOf(dirs []string, candidates map[string]int) (dirIdx int, value int) {
	for i, d := range dirs {
		if v, ok := candidates[filepath.Clean(d)]; ok {
			return i, v
		}
	}
	return -1, 0
}
