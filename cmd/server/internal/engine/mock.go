package engine

import (
	"context"
	"log/slog"
)

// Mock implementations back the degraded mode: when an inference program
// is missing at boot the server still starts, serves job management, and
// reports unhealthy through /health instead of refusing requests.

// MockTranscriber returns empty transcriptions and never errors.
type MockTranscriber struct {
	Log *slog.Logger
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audioPath string, opts *Options) ([]Segment, error) {
	if m.Log != nil {
		m.Log.Warn("mock transcriber invoked, transcription engine unavailable", "audio", audioPath)
	}
	return []Segment{}, nil
}

// HealthCheck always reports unhealthy: the mock existing at all means the
// real engine could not be wired.
func (m *MockTranscriber) HealthCheck(ctx context.Context) (bool, error) { return false, nil }

func (m *MockTranscriber) Name() string { return "mock-transcriber" }

// MockAligner passes segments through unchanged.
type MockAligner struct {
	Log *slog.Logger
}

func (m *MockAligner) Align(ctx context.Context, segments []Segment, audioPath string) ([]Segment, error) {
	if m.Log != nil {
		m.Log.Warn("mock aligner invoked, alignment engine unavailable", "audio", audioPath)
	}
	return segments, nil
}

func (m *MockAligner) HealthCheck(ctx context.Context) (bool, error) { return false, nil }

func (m *MockAligner) Name() string { return "mock-aligner" }

// MockDiarizer returns no speaker intervals.
type MockDiarizer struct {
	Log *slog.Logger
}

func (m *MockDiarizer) Diarize(ctx context.Context, audioPath string) ([]SpeakerInterval, error) {
	if m.Log != nil {
		m.Log.Warn("mock diarizer invoked, diarization engine unavailable", "audio", audioPath)
	}
	return []SpeakerInterval{}, nil
}

func (m *MockDiarizer) HealthCheck(ctx context.Context) (bool, error) { return false, nil }

func (m *MockDiarizer) Name() string { return "mock-diarizer" }
