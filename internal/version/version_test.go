package version

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "version.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":"1.4.2"}`), 0o644))

	info := Load(path, hclog.NewNullLogger())
	assert.Equal(t, "1.4.2", info.Version)
	assert.NotEmpty(t, info.GoVersion)
}

func TestLoadFallsBack(t *testing.T) {
	assert.Equal(t, "0.0.0", Load(filepath.Join(t.TempDir(), "missing.json"), hclog.NewNullLogger()).Version)

	path := filepath.Join(t.TempDir(), "version.json")
	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o644))
	assert.Equal(t, "0.0.0", Load(path, hclog.NewNullLogger()).Version)
}

func TestLinkedVersionWins(t *testing.T) {
	buildVersion = "9.9.9"
	t.Cleanup(func() { buildVersion = "" })
	assert.Equal(t, "9.9.9", Load("does-not-matter", hclog.NewNullLogger()).Version)
}
