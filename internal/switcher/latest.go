package switcher

import (
	"github.com/tcnksm/go-latest"
)

// LatestFunc reports the newest known release for a conda version.
type LatestFunc func(current string) (newest string, outdated bool, err error)

// CondaRelease checks current against the conda/conda GitHub tags.
func CondaRelease(current string) (string, bool, error) {
	githubTag := &latest.GithubTag{
		Owner:      "conda",
		Repository: "conda",
	}

	res, err := latest.Check(githubTag, current)
	if err != nil {
		return "", false, err
	}
	return res.Current, res.Outdated, nil
}

// memoize caches lookups per version for the lifetime of one command.
func memoize(f LatestFunc) LatestFunc {
	type answer struct {
		newest   string
		outdated bool
		err      error
	}
	cache := map[string]answer{}
	return func(current string) (string, bool, error) {
		if a, ok := cache[current]; ok {
			return a.newest, a.outdated, a.err
		}
		n, o, err := f(current)
		cache[current] = answer{n, o, err}
		return n, o, err
	}
}
