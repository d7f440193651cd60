package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfigFile(t *testing.T) {
	t.Run("flag wins over everything", func(t *testing.T) {
		t.Setenv(EnvConfigFile, "/tmp/env-ferry.yaml")
		got, err := ResolveConfigFile("custom.yaml")
		require.NoError(t, err)

		abs, err := filepath.Abs("custom.yaml")
		require.NoError(t, err)
		assert.Equal(t, abs, got)
	})

	t.Run("env wins when flag is empty", func(t *testing.T) {
		t.Setenv(EnvConfigFile, "/tmp/env-ferry.yaml")
		got, err := ResolveConfigFile("")
		require.NoError(t, err)
		assert.Equal(t, "/tmp/env-ferry.yaml", got)
	})

	t.Run("falls back to cwd default", func(t *testing.T) {
		t.Setenv(EnvConfigFile, "")
		got, err := ResolveConfigFile("")
		require.NoError(t, err)

		cwd, err := os.Getwd()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(cwd, DefaultConfigFileName), got)
	})
}
