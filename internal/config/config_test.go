package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invertedv/ipea/internal/errors"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Bronze", cfg.BronzeFolder)
	assert.Equal(t, "Silver", cfg.SilverFolder)
	assert.Equal(t, "Gold", cfg.GoldFolder)
	assert.Equal(t, "Descriptive Analysis", cfg.AnalysisFolder)
	assert.Equal(t, 60*time.Second, cfg.IpeaTimeout)
	assert.Equal(t, 2.0, cfg.IpeaRPS)
	assert.Equal(t, 24*time.Hour, cfg.RedisTTL)
	assert.False(t, cfg.Parquet)
	assert.Empty(t, cfg.DBDialect)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BRONZE_FOLDER", "raw")
	t.Setenv("IPEA_RPS", "0.5")
	t.Setenv("PARQUET", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "raw", cfg.BronzeFolder)
	assert.Equal(t, 0.5, cfg.IpeaRPS)
	assert.True(t, cfg.Parquet)
}

func TestEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GOLD_FOLDER=ouro\n"), 0o600))
	t.Setenv("GOLD_FOLDER", "")
	require.NoError(t, os.Unsetenv("GOLD_FOLDER"))

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"), envFile)
	require.NoError(t, err)
	assert.Equal(t, "ouro", cfg.GoldFolder)
}

func TestValidate(t *testing.T) {
	t.Setenv("DB_DIALECT", "mysql")
	_, err := Load()
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	t.Setenv("DB_DIALECT", "postgres")
	_, err = Load()
	assert.ErrorContains(t, err, "DB_TABLE")

	t.Setenv("DB_TABLE", "gold")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBDialect)

	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	_, err = Load()
	assert.ErrorContains(t, err, "MINIO_BUCKET")
}

func TestCreateFolders(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		BronzeFolder:   filepath.Join(dir, "Bronze"),
		SilverFolder:   filepath.Join(dir, "Silver"),
		GoldFolder:     filepath.Join(dir, "Gold"),
		AnalysisFolder: filepath.Join(dir, "Descriptive Analysis"),
	}

	require.NoError(t, cfg.CreateFolders())
	for _, f := range cfg.Folders() {
		info, err := os.Stat(f)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
