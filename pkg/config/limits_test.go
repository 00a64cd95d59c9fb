package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/covenant/pkg/config"
)

func TestDefaultLimits_MatchesProtocolCeilings(t *testing.T) {
	limits := config.DefaultLimits()

	assert.Equal(t, 1048576, limits.MaxDocumentBytes)
	assert.Equal(t, 256, limits.MaxConstraints)
	assert.Equal(t, 16, limits.MaxChainDepth)
	assert.Equal(t, "high", limits.DefaultSeverity)
	assert.Equal(t, 3600, limits.RateLimitUnits.Hour)
}

func TestLoadLimits_OverridesFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "limits.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_chain_depth: 4\ndefault_severity: medium\n"), 0o644))

	limits, err := config.LoadLimits(path)
	require.NoError(t, err)

	assert.Equal(t, 4, limits.MaxChainDepth)
	assert.Equal(t, "medium", limits.DefaultSeverity)
	// Unspecified fields keep their protocol default.
	assert.Equal(t, 1048576, limits.MaxDocumentBytes)
}

func TestLoadLimits_MissingFileErrors(t *testing.T) {
	_, err := config.LoadLimits("/nonexistent/limits.yaml")
	assert.Error(t, err)
}
