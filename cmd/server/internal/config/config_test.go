package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"ENV", "PORT", "LOG_LEVEL", "MAX_UPLOAD_MB", "MAX_CONCURRENT_JOBS", "ENGINE_CONFIG_FILE"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Server.Env)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, int64(512), cfg.Upload.MaxSizeMB)
	assert.Equal(t, int64(4), cfg.Pipeline.MaxConcurrentJobs)
	assert.Equal(t, "medium", cfg.Engines.Model)
	assert.False(t, cfg.IsProduction())

	require.NoError(t, ValidateConfig(cfg))
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("MAX_CONCURRENT_JOBS", "2")
	t.Setenv("WHISPER_MODEL", "large-v2")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Server.Env)
	assert.Equal(t, ":9090", cfg.GetServerAddr())
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, int64(2), cfg.Pipeline.MaxConcurrentJobs)
	assert.Equal(t, "large-v2", cfg.Engines.Model)
	assert.True(t, cfg.IsProduction())
}

func TestEngineConfigFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engines.yaml")
	content := []byte("whisperx_path: /opt/whisperx/bin/whisperx\nmodel: small\nfail_threshold: 5\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	t.Setenv("ENGINE_CONFIG_FILE", path)
	t.Setenv("WHISPER_LANGUAGE", "en")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	// File values win where present.
	assert.Equal(t, "/opt/whisperx/bin/whisperx", cfg.Engines.WhisperXPath)
	assert.Equal(t, "small", cfg.Engines.Model)
	assert.Equal(t, 5, cfg.Engines.FailThreshold)
	// Env values survive where the file is silent.
	assert.Equal(t, "en", cfg.Engines.Language)
}

func TestEngineConfigFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("ENGINE_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("model: [unclosed"), 0o644))
		t.Setenv("ENGINE_CONFIG_FILE", path)
		_, err := LoadConfig()
		assert.Error(t, err)
	})
}

func TestValidateConfigCollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Env: "weird", Port: "99999"},
		Upload:   UploadConfig{MaxSizeMB: 0},
		Pipeline: PipelineConfig{MaxConcurrentJobs: 0},
		Engines:  EnginesConfig{HealthInterval: 0, FailThreshold: 0},
		Log:      LogConfig{Level: "loud"},
	}

	err := ValidateConfig(cfg)
	require.Error(t, err)

	for _, fragment := range []string{"PORT", "ENV", "LOG_LEVEL", "MAX_UPLOAD_MB", "MAX_CONCURRENT_JOBS", "ENGINE_HEALTH_INTERVAL_SECONDS", "ENGINE_FAIL_THRESHOLD"} {
		assert.Contains(t, err.Error(), fragment)
	}
}
