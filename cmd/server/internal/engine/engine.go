// Package engine defines the capability contracts the pipeline driver
// consumes: transcription, time alignment, and speaker diarization.
// Implementations wrap external inference programs; the driver treats
// them as opaque providers and never retries a failed stage.
package engine

import (
	"context"
	"time"
)

// Segment is a timestamped span of transcribed text, in seconds from the
// start of the audio.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// SpeakerInterval is one diarized span attributed to a speaker label
// (e.g. "SPEAKER_00").
type SpeakerInterval struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Options carries optional inference parameters. All fields are optional;
// implementations apply their own defaults.
type Options struct {
	// Model selects the model variant (e.g. "medium", "large-v2").
	Model string

	// Language forces a language (ISO 639-1 code); empty means auto-detect.
	Language string

	// Timeout overrides the default per-invocation timeout.
	Timeout time.Duration
}

// Provider is the common surface every engine exposes for health
// monitoring and logging.
type Provider interface {
	// HealthCheck reports whether the engine is ready to serve. It must be
	// lightweight and respect the context deadline.
	HealthCheck(ctx context.Context) (bool, error)

	// Name identifies the implementation in logs and the health endpoint.
	Name() string
}

// Transcriber converts canonical audio into ordered text segments with
// coarse timestamps.
type Transcriber interface {
	Provider
	Transcribe(ctx context.Context, audioPath string, opts *Options) ([]Segment, error)
}

// Aligner refines segment timestamps against the audio. Implementations
// must return segments in the same chronological order they received.
type Aligner interface {
	Provider
	Align(ctx context.Context, segments []Segment, audioPath string) ([]Segment, error)
}

// Diarizer labels time intervals of the audio with speaker identities.
type Diarizer interface {
	Provider
	Diarize(ctx context.Context, audioPath string) ([]SpeakerInterval, error)
}
