package logger

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expect    slog.Level
		expectErr bool
	}{
		{"debug", "debug", slog.LevelDebug, false},
		{"default-info", "", slog.LevelInfo, false},
		{"warn", "warn", slog.LevelWarn, false},
		{"warning-alias", "warning", slog.LevelWarn, false},
		{"error", "error", slog.LevelError, false},
		{"invalid", "verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, err := levelFromString(tt.input)
			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error for input %q", tt.input)
				}
				if !strings.Contains(err.Error(), "invalid log level") {
					t.Fatalf("unexpected error message: %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if level != tt.expect {
				t.Fatalf("expected %v, got %v", tt.expect, level)
			}
		})
	}
}

func TestInitAndL(t *testing.T) {
	t.Cleanup(func() {
		// reset singleton for other tests
		once = sync.Once{}
		global = nil
	})

	logger, err := Init(Config{Level: "debug", Environment: "dev", WithSource: true})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if logger == nil {
		t.Fatal("init returned nil logger")
	}

	// Repeated Init returns the first instance.
	again, err := Init(Config{Level: "error", Environment: "prod"})
	if err != nil {
		t.Fatalf("second init: %v", err)
	}
	if again != logger {
		t.Fatal("second Init should return the original logger")
	}

	if L() != logger {
		t.Fatal("L() should return the initialized logger")
	}
}

func TestLPanicsWithoutInit(t *testing.T) {
	t.Cleanup(func() {
		once = sync.Once{}
		global = nil
	})
	once = sync.Once{}
	global = nil

	defer func() {
		if recover() == nil {
			t.Fatal("L() should panic before Init")
		}
	}()
	L()
}

func TestNewInvalidLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestLogStageDoesNotPanic(t *testing.T) {
	logger, err := New(Config{Level: "debug", Environment: "dev"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	LogStage(logger, "transcribe", "success", "job-1", 1200, nil)
	LogStage(logger, "diarize", "error", "job-1", 40, errors.New("engine exited"))
}
