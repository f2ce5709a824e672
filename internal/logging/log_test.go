package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_LevelFollowsDebugFlag(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Debug("hidden")
	require.Empty(t, buf.String())

	New(&buf, true).Debug("candidate", "path", "/opt/miniforge3")
	out := buf.String()
	require.Contains(t, out, "conda-switch")
	require.Contains(t, out, "candidate")
	require.Contains(t, out, "/opt/miniforge3")
}

func TestDiscard(t *testing.T) {
	Discard().Error("nothing to see")
}
