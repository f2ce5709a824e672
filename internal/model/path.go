package model

import "path/filepath"

// Flavor classifies an installation by the package tooling it ships.
type Flavor string

const (
	FlavorStandard Flavor = "standard"
	FlavorMamba    Flavor = "mamba" // fast installer available at bin/mamba
)

// Source records how a candidate was found.
type Source int

const (
	SourceRoot     Source = iota // bounded traversal of a search root
	SourceFallback               // configured fallback path
	SourcePath                   // conda executable reachable via PATH
)

func (s Source) String() string {
	switch s {
	case SourceRoot:
		return "search root"
	case SourceFallback:
		return "fallback"
	case SourcePath:
		return "PATH"
	default:
		return "unknown"
	}
}

// Installation is a validated conda-like installation.
type Installation struct {
	Path    string // Canonical absolute path (e.g., /opt/miniforge3)
	Name    string // Final path segment (e.g., miniforge3)
	Version string // Reported by `conda --version`, e.g. 24.1.0
	Flavor  Flavor
	Source  Source
	Root    string // Search root it was found under, if any
}

// NewInstallation builds an Installation for path, deriving its display name.
func NewInstallation(path string, src Source) Installation {
	return Installation{
		Path:   path,
		Name:   filepath.Base(path),
		Flavor: FlavorStandard,
		Source: src,
	}
}

// CondaBin returns <path>/bin/conda.
func (i Installation) CondaBin() string {
	return filepath.Join(i.Path, "bin", "conda")
}

// BinDir returns <path>/bin.
func (i Installation) BinDir() string {
	return filepath.Join(i.Path, "bin")
}

// CondaBinDir returns <path>/condabin, the directory `conda init` puts on PATH.
func (i Installation) CondaBinDir() string {
	return filepath.Join(i.Path, "condabin")
}

// Registry is an ordered set of installations keyed by path.
// The zero value is ready to use.
type Registry struct {
	entries []Installation
	seen    map[string]int // path -> index
}

// Add appends inst unless an entry with the same path already exists.
// It reports whether inst was added.
func (r *Registry) Add(inst Installation) bool {
	if r.seen == nil {
		r.seen = make(map[string]int)
	}
	if _, ok := r.seen[inst.Path]; ok {
		return false
	}
	r.seen[inst.Path] = len(r.entries)
	r.entries = append(r.entries, inst)
	return true
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Entries returns a copy of the entries in insertion order.
func (r *Registry) Entries() []Installation {
	out := make([]Installation, len(r.entries))
	copy(out, r.entries)
	return out
}

// At returns the entry at the 1-based index i.
func (r *Registry) At(i int) (Installation, bool) {
	if i < 1 || i > len(r.entries) {
		return Installation{}, false
	}
	return r.entries[i-1], true
}
