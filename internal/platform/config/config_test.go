package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults apply without file or env", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, DefaultAddr, cfg.Addr)
		assert.Equal(t, DefaultMaxBatchRows, cfg.MaxBatchRows)
		assert.Equal(t, filepath.Join(DefaultModelDir, DefaultModelFile), cfg.ModelPath())
	})

	t.Run("env overrides file which overrides defaults", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(file, []byte(
			"server:\n  addr: \":9000\"\nmodel:\n  dir: /opt/artifacts\nlimits:\n  max_batch_rows: 100\n",
		), 0o600))

		t.Setenv("RISK_API_CONFIG", file)
		t.Setenv("RISK_API_ADDR", ":9100")
		t.Setenv("MODEL_FILENAME", "cat_model_v2.json")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, ":9100", cfg.Addr, "env wins over file")
		assert.Equal(t, "/opt/artifacts", cfg.ModelDir, "file wins over default")
		assert.Equal(t, 100, cfg.MaxBatchRows)
		assert.Equal(t, filepath.Join("/opt/artifacts", "cat_model_v2.json"), cfg.ModelPath())
	})

	t.Run("missing config file is an error", func(t *testing.T) {
		t.Setenv("RISK_API_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("invalid batch row limit is an error", func(t *testing.T) {
		t.Setenv("MAX_BATCH_ROWS", "-5")

		_, err := Load()
		assert.Error(t, err)
	})
}
