package main

import (
	// Standard library
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	// External dependencies
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	// Internal packages
	"github.com/callinsights/diarize/cmd/server/internal/api"
	"github.com/callinsights/diarize/cmd/server/internal/audio"
	"github.com/callinsights/diarize/cmd/server/internal/audit"
	"github.com/callinsights/diarize/cmd/server/internal/config"
	"github.com/callinsights/diarize/cmd/server/internal/engine"
	"github.com/callinsights/diarize/cmd/server/internal/engine/health"
	"github.com/callinsights/diarize/cmd/server/internal/jobs"
	"github.com/callinsights/diarize/cmd/server/internal/middleware"
	"github.com/callinsights/diarize/cmd/server/internal/pipeline"
	"github.com/callinsights/diarize/pkg/logger"
)

const version = "1.0.0"

// buildEngines constructs the inference providers. When a program is
// missing the corresponding mock is wired instead, so the service starts
// in degraded mode and reports the gap through /health rather than
// refusing to boot.
func buildEngines(cfg *config.Config, log *slog.Logger) (engine.Transcriber, engine.Aligner, engine.Diarizer) {
	var transcriber engine.Transcriber
	var aligner engine.Aligner
	var diarizer engine.Diarizer

	if t, err := engine.NewWhisperXTranscriber(cfg.Engines.WhisperXPath); err != nil {
		log.Warn("transcription engine unavailable, wiring mock", "error", err)
		transcriber = &engine.MockTranscriber{Log: log}
	} else {
		transcriber = t
	}

	if a, err := engine.NewWhisperXAligner(cfg.Engines.WhisperXPath); err != nil {
		log.Warn("alignment engine unavailable, wiring mock", "error", err)
		aligner = &engine.MockAligner{Log: log}
	} else {
		aligner = a
	}

	if d, err := engine.NewPyannoteDiarizer(cfg.Engines.PythonPath, cfg.Engines.DiarizeScript); err != nil {
		log.Warn("diarization engine unavailable, wiring mock", "error", err)
		diarizer = &engine.MockDiarizer{Log: log}
	} else {
		diarizer = d
	}

	return transcriber, aligner, diarizer
}

func main() {
	logInstance, err := logger.Init(logger.Config{
		Level:       os.Getenv("LOG_LEVEL"),
		Environment: os.Getenv("ENV"),
		WithSource:  os.Getenv("ENV") != "prod",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	appLogger := logInstance.With("component", "diarize-server")

	cfg, err := config.LoadConfig()
	if err != nil {
		appLogger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(cfg); err != nil {
		appLogger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	appLogger.Info("configuration loaded", "env", cfg.Server.Env, "port", cfg.Server.Port)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
		appLogger.Error("upload dir not usable", "dir", cfg.Upload.Dir, "error", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Audit.LogPath), 0o755); err != nil {
		appLogger.Error("audit dir not usable", "path", cfg.Audit.LogPath, "error", err)
		os.Exit(1)
	}
	auditLog := audit.NewLogger(cfg.Audit.LogPath)

	transcriber, aligner, diarizer := buildEngines(cfg, appLogger)
	appLogger.Info("engines wired",
		"transcriber", transcriber.Name(),
		"aligner", aligner.Name(),
		"diarizer", diarizer.Name(),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background engine health probes feeding /health.
	checkInterval := time.Duration(cfg.Engines.HealthInterval) * time.Second
	checkers := []*health.Checker{
		health.NewChecker(transcriber, appLogger, checkInterval, cfg.Engines.FailThreshold),
		health.NewChecker(aligner, appLogger, checkInterval, cfg.Engines.FailThreshold),
		health.NewChecker(diarizer, appLogger, checkInterval, cfg.Engines.FailThreshold),
	}
	for _, checker := range checkers {
		go checker.Start(rootCtx)
	}

	store := jobs.NewMemoryStore()
	normalizer := audio.NewNormalizer(cfg.Pipeline.FFmpegPath, cfg.Upload.Dir)
	opts := &engine.Options{Model: cfg.Engines.Model, Language: cfg.Engines.Language}
	driver := pipeline.NewDriver(store, normalizer, transcriber, aligner, diarizer,
		opts, auditLog, appLogger, cfg.Pipeline.MaxConcurrentJobs)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())

	router.GET("/", api.HandleRoot(version))
	router.POST("/diarize", api.HandleDiarize(store, driver, api.SubmitOptions{
		UploadDir:    cfg.Upload.Dir,
		MaxSizeBytes: cfg.Upload.MaxSizeMB << 20,
		Audit:        auditLog,
	}))
	router.GET("/status/:job_id", api.HandleStatus(store))
	router.DELETE("/job/:job_id", api.HandleDelete(store, auditLog))
	router.GET("/health", api.HandleHealth(store, checkers))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	server := &http.Server{
		Addr:    cfg.GetServerAddr(),
		Handler: router,
	}

	go func() {
		appLogger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	appLogger.Info("shutdown signal received")

	for _, checker := range checkers {
		checker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("graceful shutdown failed", "error", err)
	}
	appLogger.Info("server stopped")
}
