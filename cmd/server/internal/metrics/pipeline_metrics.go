// Package metrics exposes prometheus instrumentation for the diarization
// pipeline. All collectors register themselves via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsTotal counts finished jobs by outcome.
	// Labels: status (completed/failed)
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diarize_jobs_total",
			Help: "Total number of diarization jobs by terminal status",
		},
		[]string{"status"},
	)

	// StageErrorsTotal counts stage failures.
	// Labels: stage (normalize/transcribe/align/diarize/synthesize), error_code
	StageErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diarize_stage_errors_total",
			Help: "Total number of pipeline stage errors by stage and error code",
		},
		[]string{"stage", "error_code"},
	)

	// ActiveJobs tracks jobs currently queued or processing.
	ActiveJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "diarize_active_jobs",
			Help: "Number of jobs currently queued or processing",
		},
	)

	// StageDuration observes per-stage wall-clock time in seconds.
	// Labels: stage (normalize/transcribe/align/diarize/synthesize)
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "diarize_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"stage"},
	)

	// AudioDuration observes the length of processed recordings in seconds.
	AudioDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "diarize_audio_duration_seconds",
			Help:    "Duration of successfully normalized recordings in seconds",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
	)
)

// RecordJobFinished records a job reaching a terminal state.
func RecordJobFinished(completed bool) {
	status := "completed"
	if !completed {
		status = "failed"
	}
	JobsTotal.WithLabelValues(status).Inc()
}

// RecordStageError records one stage failure.
func RecordStageError(stage, errorCode string) {
	StageErrorsTotal.WithLabelValues(stage, errorCode).Inc()
}

// RecordStageDuration records stage wall-clock time in seconds.
func RecordStageDuration(stage string, seconds float64) {
	StageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordAudioDuration records the length of a normalized recording.
func RecordAudioDuration(seconds float64) {
	AudioDuration.Observe(seconds)
}
