package shell

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	cases := []struct {
		name string
		out  string
		want string
	}{
		{"modern", "conda 24.1.0\n", "24.1.0"},
		{"leading warnings", "WARNING: something odd\nconda 4.12.0\n", "4.12.0"},
		{"v prefix", "conda v23.3.1", "23.3.1"},
		{"bare version", "23.11.0\n", "23.11.0"},
		{"empty", "", ""},
		{"whitespace only", " \n\t\n", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ParseVersion(tc.out))
		})
	}
}
