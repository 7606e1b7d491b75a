// Package config loads service configuration from environment variables,
// with an optional YAML file for inference engine tunables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Pipeline PipelineConfig
	Engines  EnginesConfig
	Log      LogConfig
	Audit    AuditConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Env  string // dev, staging, prod
	Port string
}

// UploadConfig controls upload handling.
type UploadConfig struct {
	Dir       string // where uploads and canonical waveforms are staged
	MaxSizeMB int64  // reject larger uploads before job creation
}

// PipelineConfig controls pipeline execution.
type PipelineConfig struct {
	MaxConcurrentJobs int64
	FFmpegPath        string
}

// EnginesConfig selects and tunes the inference engines. Values may be
// overridden by a YAML file pointed to by ENGINE_CONFIG_FILE.
type EnginesConfig struct {
	WhisperXPath   string `yaml:"whisperx_path"`
	Model          string `yaml:"model"`
	Language       string `yaml:"language"`
	PythonPath     string `yaml:"python_path"`
	DiarizeScript  string `yaml:"diarize_script"`
	HealthInterval int    `yaml:"health_interval_seconds"`
	FailThreshold  int    `yaml:"fail_threshold"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string // debug, info, warn, error
}

// AuditConfig holds the audit trail location.
type AuditConfig struct {
	LogPath string
}

// LoadConfig reads configuration from the environment, then layers the
// optional engine YAML file on top of the engine defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Env:  getEnv("ENV", "dev"),
			Port: getEnv("PORT", "8000"),
		},
		Upload: UploadConfig{
			Dir:       getEnv("UPLOAD_DIR", os.TempDir()),
			MaxSizeMB: getEnvInt64("MAX_UPLOAD_MB", 512),
		},
		Pipeline: PipelineConfig{
			MaxConcurrentJobs: getEnvInt64("MAX_CONCURRENT_JOBS", 4),
			FFmpegPath:        getEnv("FFMPEG_PATH", "ffmpeg"),
		},
		Engines: EnginesConfig{
			WhisperXPath:   getEnv("WHISPERX_PATH", "/usr/local/bin/whisperx"),
			Model:          getEnv("WHISPER_MODEL", "medium"),
			Language:       getEnv("WHISPER_LANGUAGE", ""),
			PythonPath:     getEnv("PYTHON_PATH", "python3"),
			DiarizeScript:  getEnv("DIARIZE_SCRIPT", "/app/scripts/pyannote_diarize.py"),
			HealthInterval: int(getEnvInt64("ENGINE_HEALTH_INTERVAL_SECONDS", 300)),
			FailThreshold:  int(getEnvInt64("ENGINE_FAIL_THRESHOLD", 3)),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Audit: AuditConfig{
			LogPath: getEnv("AUDIT_LOG_PATH", "./audit/jobs.log"),
		},
	}

	if path := os.Getenv("ENGINE_CONFIG_FILE"); path != "" {
		if err := loadEngineFile(path, &cfg.Engines); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// loadEngineFile overlays YAML engine settings onto dst. Fields absent
// from the file keep their environment/default values.
func loadEngineFile(path string, dst *EnginesConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read engine config file: %w", err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse engine config file %s: %w", path, err)
	}
	return nil
}

// ValidateConfig checks the loaded configuration and reports every problem
// at once.
func ValidateConfig(cfg *Config) error {
	var errs []string

	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid PORT value: %s (must be 1-65535)", cfg.Server.Port))
	}

	validEnvs := map[string]bool{"dev": true, "development": true, "staging": true, "prod": true, "production": true}
	if !validEnvs[cfg.Server.Env] {
		errs = append(errs, fmt.Sprintf("invalid ENV: %s (must be: dev, development, staging, prod, production)", cfg.Server.Env))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid LOG_LEVEL: %s (must be: debug, info, warn, error)", cfg.Log.Level))
	}

	if cfg.Upload.MaxSizeMB < 1 {
		errs = append(errs, fmt.Sprintf("MAX_UPLOAD_MB must be at least 1, got %d", cfg.Upload.MaxSizeMB))
	}

	if cfg.Pipeline.MaxConcurrentJobs < 1 {
		errs = append(errs, fmt.Sprintf("MAX_CONCURRENT_JOBS must be at least 1, got %d", cfg.Pipeline.MaxConcurrentJobs))
	}

	if cfg.Engines.HealthInterval < 1 {
		errs = append(errs, fmt.Sprintf("ENGINE_HEALTH_INTERVAL_SECONDS must be at least 1, got %d", cfg.Engines.HealthInterval))
	}
	if cfg.Engines.FailThreshold < 1 {
		errs = append(errs, fmt.Sprintf("ENGINE_FAIL_THRESHOLD must be at least 1, got %d", cfg.Engines.FailThreshold))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// IsProduction reports whether the service runs in a production env.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "prod" || c.Server.Env == "production"
}

// GetServerAddr returns the listen address.
func (c *Config) GetServerAddr() string {
	return ":" + c.Server.Port
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
