package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionDefaultsAreInitialized(t *testing.T) {
	// All build metadata defaults to "unknown" until overridden via ldflags.
	require.NotEmpty(t, Version)
	require.NotEmpty(t, BuildTime)
	require.NotEmpty(t, GitCommit)
}
