package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "aws", cfg.Translation.Engine)
	assert.Equal(t, "EN", cfg.Translation.DefaultTarget)
	assert.Equal(t, 4, cfg.Translation.Workers)
	assert.Equal(t, 3000, cfg.Translation.MaxChunkTokens)
	assert.Equal(t, "Comments", cfg.Store.TableName)
	assert.False(t, cfg.Cache.Enabled())
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `
logging:
  level: debug
translation:
  engine: libretranslate
  defaultTarget: DE
  workers: 8
cache:
  addr: localhost:6379
  ttl: 1h
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("TRANSLATION_WORKERS", "2")
	t.Setenv("COMMENTS_TABLE", "Notes")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "libretranslate", cfg.Translation.Engine)
	assert.Equal(t, "DE", cfg.Translation.DefaultTarget)
	assert.Equal(t, 2, cfg.Translation.Workers)
	assert.Equal(t, "Notes", cfg.Store.TableName)
	assert.True(t, cfg.Cache.Enabled())
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("CFG_TEST_INT", "nope")
	t.Setenv("CFG_TEST_DURATION", "5s")

	assert.Equal(t, 7, getEnvInt("CFG_TEST_INT", 7))
	assert.Equal(t, 5*time.Second, getEnvDuration("CFG_TEST_DURATION", time.Second))
	assert.Equal(t, "fallback", getEnv("CFG_TEST_UNSET", "fallback"))
}
