package shell

import (
	"regexp"
	"strings"
)

var versionRe = regexp.MustCompile(`(?m)^\s*conda\s+v?([0-9][^\s]*)`)

// ParseVersion extracts the version from `conda --version` output.
// Matches:
//
//	conda 24.1.0
//	...warnings...\nconda 4.12.0
//
// Output without a "conda" prefix falls back to the last field of the last
// non-empty line. Empty output yields "".
func ParseVersion(out string) string {
	if m := versionRe.FindStringSubmatch(out); m != nil {
		return m[1]
	}
	line := strings.TrimSpace(lastLine(out))
	if line == "" {
		return ""
	}
	fields := strings.Fields(line)
	return fields[len(fields)-1]
}

func lastLine(out string) string {
	lines := strings.Split(strings.TrimRight(out, "\r\n\t "), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			return lines[i]
		}
	}
	return ""
}
