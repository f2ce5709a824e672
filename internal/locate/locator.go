// Package locate discovers conda-like installations on the host filesystem.
//
// Discovery walks each configured search root to a bounded depth, checks any
// configured fallback paths, and resolves every conda executable reachable via
// PATH. Candidates are canonicalized, deduplicated (first occurrence wins) and
// validated by running `<path>/bin/conda --version`. Nothing is persisted: the
// registry is rebuilt on every call.
package locate

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	ignore "github.com/sabhiram/go-gitignore"
	"github.com/sourcegraph/conc/iter"

	"condaswitch/internal/model"
	"condaswitch/internal/pathenv"
)

// VersionChecker queries a conda executable for its version.
type VersionChecker interface {
	Version(ctx context.Context, condaBin string) (string, error)
}

// Options configures a Locator.
type Options struct {
	Roots     []string
	Fallbacks []string
	// MaxDepth bounds traversal below each root; 0 means unbounded.
	MaxDepth int
	Names    []string // exact directory names, e.g. miniforge3
	Prefixes []string // name prefixes, e.g. miniforge
	Exclude  []string // gitignore-style patterns relative to each root
	// SearchPath is the PATH value scanned for conda executables.
	SearchPath string
}

// RejectError explains why a candidate was dropped.
type RejectError struct {
	Path   string
	Reason string
	Err    error
}

func (e *RejectError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

func (e *RejectError) Unwrap() error { return e.Err }

// Result is the outcome of a discovery run.
type Result struct {
	Registry *model.Registry
	// Rejected lists candidates dropped before or during validation.
	Rejected []*RejectError
}

// Locator finds and validates installations.
type Locator struct {
	opts    Options
	checker VersionChecker
	logger  *log.Logger
	exclude *ignore.GitIgnore
}

type candidate struct {
	path   string
	source model.Source
	root   string
}

type validation struct {
	inst model.Installation
	err  *RejectError
}

// New creates a Locator.
func New(opts Options, checker VersionChecker, logger *log.Logger) *Locator {
	return &Locator{
		opts:    opts,
		checker: checker,
		logger:  logger,
		exclude: ignore.CompileIgnoreLines(opts.Exclude...),
	}
}

// Discover builds a fresh registry. Missing roots and invalid candidates are
// never errors; they are logged at debug level and listed in Result.Rejected.
func (l *Locator) Discover(ctx context.Context) Result {
	res := Result{Registry: &model.Registry{}}

	var cands []candidate
	for _, root := range l.opts.Roots {
		if ctx.Err() != nil {
			break
		}
		found, rejected := l.walkRoot(ctx, root)
		cands = append(cands, found...)
		res.Rejected = append(res.Rejected, rejected...)
	}
	for _, fb := range l.opts.Fallbacks {
		if !model.IsRegularFile(filepath.Join(fb, "bin", "conda")) {
			l.logger.Debug("fallback has no bin/conda", "path", fb)
			res.Rejected = append(res.Rejected, &RejectError{Path: fb, Reason: "no bin/conda"})
			continue
		}
		cands = append(cands, candidate{path: fb, source: model.SourceFallback})
	}
	found, rejected := l.scanSearchPath()
	cands = append(cands, found...)
	res.Rejected = append(res.Rejected, rejected...)

	cands = l.dedupe(cands)

	results := iter.Map(cands, func(c *candidate) validation {
		inst, err := l.validate(ctx, *c)
		return validation{inst: inst, err: err}
	})
	for _, v := range results {
		if v.err != nil {
			l.logger.Debug("rejected", "path", v.err.Path, "reason", v.err.Reason, "err", v.err.Err)
			res.Rejected = append(res.Rejected, v.err)
			continue
		}
		l.logger.Debug("registered", "path", v.inst.Path, "version", v.inst.Version, "flavor", v.inst.Flavor)
		res.Registry.Add(v.inst)
	}
	return res
}

// Validate re-checks a single installation path, as done before a switch.
func (l *Locator) Validate(ctx context.Context, inst model.Installation) (model.Installation, error) {
	out, rej := l.validate(ctx, candidate{path: inst.Path, source: inst.Source, root: inst.Root})
	if rej != nil {
		return model.Installation{}, rej
	}
	return out, nil
}

func (l *Locator) validate(ctx context.Context, c candidate) (model.Installation, *RejectError) {
	inst := model.NewInstallation(c.path, c.source)
	inst.Root = c.root

	if !model.IsRegularFile(inst.CondaBin()) {
		return inst, &RejectError{Path: c.path, Reason: "no bin/conda"}
	}
	v, err := l.checker.Version(ctx, inst.CondaBin())
	if err != nil {
		return inst, &RejectError{Path: c.path, Reason: "version query failed", Err: err}
	}
	inst.Version = v
	if model.IsRegularFile(filepath.Join(inst.BinDir(), "mamba")) {
		inst.Flavor = model.FlavorMamba
	}
	return inst, nil
}

func (l *Locator) walkRoot(ctx context.Context, root string) ([]candidate, []*RejectError) {
	resolved := root
	if r, err := filepath.EvalSymlinks(root); err == nil {
		resolved = r
	}
	if !model.IsDir(resolved) {
		l.logger.Debug("search root missing, skipped", "root", root)
		return nil, nil
	}
	l.logger.Debug("scanning", "root", root, "resolved", resolved, "max_depth", l.opts.MaxDepth)

	var found []candidate
	var rejected []*RejectError
	_ = filepath.WalkDir(resolved, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			l.logger.Debug("unreadable, skipped", "path", p, "err", err)
			if d != nil && d.IsDir() && p != resolved {
				return fs.SkipDir
			}
			return nil
		}
		if p == resolved {
			return nil
		}

		isDir := d.IsDir()
		if !isDir && (d.Type()&fs.ModeSymlink == 0 || !model.IsDir(p)) {
			return nil
		}

		rel, _ := filepath.Rel(resolved, p)
		if l.exclude.MatchesPath(filepath.ToSlash(rel) + "/") {
			l.logger.Debug("excluded", "path", p)
			if isDir {
				return fs.SkipDir
			}
			return nil
		}

		if l.matches(d.Name()) {
			if model.IsRegularFile(filepath.Join(p, "bin", "conda")) {
				l.logger.Debug("candidate", "path", p, "root", root)
				found = append(found, candidate{path: p, source: model.SourceRoot, root: root})
			} else {
				l.logger.Debug("candidate without bin/conda", "path", p)
				rejected = append(rejected, &RejectError{Path: p, Reason: "no bin/conda"})
			}
			// Installations are never nested inside one another.
			if isDir {
				return fs.SkipDir
			}
			return nil
		}

		depth := strings.Count(rel, string(filepath.Separator)) + 1
		if isDir && l.opts.MaxDepth > 0 && depth >= l.opts.MaxDepth {
			return fs.SkipDir
		}
		return nil
	})
	return found, rejected
}

// scanSearchPath resolves every conda executable on the search path to its
// installation root, the grandparent of the resolved executable.
func (l *Locator) scanSearchPath() ([]candidate, []*RejectError) {
	var found []candidate
	var rejected []*RejectError
	for _, dir := range pathenv.Split(l.opts.SearchPath) {
		exe := filepath.Join(dir, "conda")
		if !model.IsExecutable(exe) {
			continue
		}
		resolved, err := filepath.EvalSymlinks(exe)
		if err != nil {
			rejected = append(rejected, &RejectError{Path: exe, Reason: "unresolvable conda executable", Err: err})
			continue
		}
		parent := filepath.Base(filepath.Dir(resolved))
		if parent != "bin" && parent != "condabin" {
			l.logger.Debug("conda outside bin/ or condabin/", "exe", exe, "resolved", resolved)
			rejected = append(rejected, &RejectError{Path: exe, Reason: "not inside an installation bin/ directory"})
			continue
		}
		root := filepath.Dir(filepath.Dir(resolved))
		if !model.IsRegularFile(filepath.Join(root, "bin", "conda")) {
			rejected = append(rejected, &RejectError{Path: root, Reason: "no bin/conda"})
			continue
		}
		l.logger.Debug("candidate from PATH", "path", root, "exe", exe)
		found = append(found, candidate{path: root, source: model.SourcePath})
	}
	return found, rejected
}

func (l *Locator) dedupe(cands []candidate) []candidate {
	seen := make(map[string]struct{}, len(cands))
	out := make([]candidate, 0, len(cands))
	for _, c := range cands {
		c.path = model.Canonical(c.path)
		if _, ok := seen[c.path]; ok {
			l.logger.Debug("duplicate dropped", "path", c.path, "source", c.source)
			continue
		}
		seen[c.path] = struct{}{}
		out = append(out, c)
	}
	return out
}

func (l *Locator) matches(name string) bool {
	if slices.Contains(l.opts.Names, name) {
		return true
	}
	for _, p := range l.opts.Prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
