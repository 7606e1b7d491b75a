// Package pipeline drives one job through the staged speech pipeline:
// normalize -> transcribe -> align -> diarize -> synthesize. Progress is
// checkpointed after each stage; any stage error becomes a terminal job
// failure; temporary audio artifacts are removed on every exit path.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/callinsights/diarize/cmd/server/internal/audit"
	"github.com/callinsights/diarize/cmd/server/internal/engine"
	"github.com/callinsights/diarize/cmd/server/internal/jobs"
	"github.com/callinsights/diarize/cmd/server/internal/metrics"
	"github.com/callinsights/diarize/cmd/server/internal/synth"
	"github.com/callinsights/diarize/pkg/logger"
)

// Progress checkpoints per stage. Design constants, not derived from
// measured stage cost.
const (
	progressNormalized  = 0.2
	progressTranscribed = 0.4
	progressAligned     = 0.6
	progressDiarized    = 0.8
)

// Normalizer is the audio-normalization seam; the production
// implementation shells out to ffmpeg, tests substitute a fake.
type Normalizer interface {
	// Normalize writes a canonical mono 16 kHz artifact and returns its
	// path and the audio duration in seconds.
	Normalize(ctx context.Context, inputPath string) (string, float64, error)
}

// Driver runs pipelines as independent background tasks. It is the sole
// writer of a job's record while the job is processing. Concurrent
// pipelines are bounded by a weighted semaphore sized to the inference
// capacity of the host.
type Driver struct {
	store       jobs.Store
	normalizer  Normalizer
	transcriber engine.Transcriber
	aligner     engine.Aligner
	diarizer    engine.Diarizer
	opts        *engine.Options
	auditLog    *audit.Logger
	log         *slog.Logger
	sem         *semaphore.Weighted
}

// NewDriver wires a driver. maxConcurrent bounds simultaneously running
// pipelines; auditLog may be nil to disable the audit trail.
func NewDriver(
	store jobs.Store,
	normalizer Normalizer,
	transcriber engine.Transcriber,
	aligner engine.Aligner,
	diarizer engine.Diarizer,
	opts *engine.Options,
	auditLog *audit.Logger,
	log *slog.Logger,
	maxConcurrent int64,
) *Driver {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Driver{
		store:       store,
		normalizer:  normalizer,
		transcriber: transcriber,
		aligner:     aligner,
		diarizer:    diarizer,
		opts:        opts,
		auditLog:    auditLog,
		log:         log,
		sem:         semaphore.NewWeighted(maxConcurrent),
	}
}

// Launch starts the pipeline for jobID in a background goroutine and
// returns immediately. There is no cancellation: once processing begins
// the job runs to completion or failure, even if the client deletes the
// record meanwhile.
func (d *Driver) Launch(jobID, uploadPath string) {
	go d.run(context.Background(), jobID, uploadPath)
}

func (d *Driver) run(ctx context.Context, jobID, uploadPath string) {
	// The upload artifact must be removed even if we never reach the
	// normalize stage.
	defer d.removeArtifact(jobID, uploadPath)

	if err := d.sem.Acquire(ctx, 1); err != nil {
		d.store.Fail(jobID, "pipeline could not be scheduled: "+err.Error())
		return
	}
	defer d.sem.Release(1)

	start := time.Now()

	if err := d.store.Begin(jobID); err != nil {
		// Job was deleted (or failed) between submission and scheduling.
		d.log.Warn("skipping pipeline, job not startable", "job_id", jobID, "error", err)
		return
	}

	result, stageErr := d.process(ctx, jobID, uploadPath)
	if stageErr != nil {
		d.log.Error("pipeline failed", "job_id", jobID, "stage", stageErr.Stage, "error", stageErr)
		d.store.Fail(jobID, stageErr.Error())
		metrics.RecordJobFinished(false)
		metrics.RecordStageError(stageErr.Stage, string(stageErr.Code))
		if d.auditLog != nil {
			d.auditLog.LogFailure(jobID, stageErr.Stage, stageErr.Error())
		}
	} else {
		result.JobID = jobID
		result.ProcessingTime = time.Since(start).Seconds()
		d.store.Complete(jobID, result)
		metrics.RecordJobFinished(true)
		if d.auditLog != nil {
			d.auditLog.LogCompletion(jobID, result.AudioDuration, result.ProcessingTime, result.TotalSpeakers)
		}
		d.log.Info("pipeline completed",
			"job_id", jobID,
			"processing_time", result.ProcessingTime,
			"total_speakers", result.TotalSpeakers,
		)
	}

	metrics.ActiveJobs.Set(float64(d.store.ActiveCount()))
}

// process executes the stages and returns either a synthesized result or
// the first stage failure. All engine errors are caught here; nothing
// escapes the job boundary.
func (d *Driver) process(ctx context.Context, jobID, uploadPath string) (*synth.Result, *StageError) {
	stageStart := time.Now()
	canonical, audioDuration, err := d.normalizer.Normalize(ctx, uploadPath)
	if err != nil {
		return nil, NewStageError(AUDIO_FORMAT_FAILED, "normalize", "audio normalization failed", err)
	}
	defer d.removeArtifact(jobID, canonical)
	d.finishStage(jobID, "normalize", stageStart, progressNormalized)
	metrics.RecordAudioDuration(audioDuration)

	stageStart = time.Now()
	rawSegments, err := d.transcriber.Transcribe(ctx, canonical, d.opts)
	if err != nil {
		return nil, NewStageError(TRANSCRIBE_FAILED, "transcribe", "transcription failed", err)
	}
	d.finishStage(jobID, "transcribe", stageStart, progressTranscribed)

	stageStart = time.Now()
	aligned, err := d.aligner.Align(ctx, rawSegments, canonical)
	if err != nil {
		return nil, NewStageError(ALIGN_FAILED, "align", "alignment failed", err)
	}
	d.finishStage(jobID, "align", stageStart, progressAligned)

	stageStart = time.Now()
	intervals, err := d.diarizer.Diarize(ctx, canonical)
	if err != nil {
		return nil, NewStageError(DIARIZE_FAILED, "diarize", "speaker diarization failed", err)
	}
	d.finishStage(jobID, "diarize", stageStart, progressDiarized)

	stageStart = time.Now()
	labeled := synth.AssignSpeakers(aligned, intervals)
	result, err := synth.Synthesize(labeled, audioDuration)
	if err != nil {
		return nil, NewStageError(SYNTHESIZE_FAILED, "synthesize", "result synthesis failed", err)
	}
	logger.LogStage(d.log, "synthesize", "success", jobID, time.Since(stageStart).Milliseconds(), nil)
	metrics.RecordStageDuration("synthesize", time.Since(stageStart).Seconds())

	return result, nil
}

// finishStage records stage telemetry and advances job progress. Advance
// errors are logged, not fatal: the job may have been deleted mid-flight,
// and late progress writes are dropped by contract.
func (d *Driver) finishStage(jobID, stage string, start time.Time, progress float64) {
	elapsed := time.Since(start)
	logger.LogStage(d.log, stage, "success", jobID, elapsed.Milliseconds(), nil)
	metrics.RecordStageDuration(stage, elapsed.Seconds())

	if err := d.store.Advance(jobID, progress); err != nil {
		d.log.Warn("progress update dropped", "job_id", jobID, "stage", stage, "error", err)
	}
}

// removeArtifact deletes a temporary audio file. Cleanup is best-effort:
// an already-absent file is not an error.
func (d *Driver) removeArtifact(jobID, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		d.log.Warn("temp file cleanup failed", "job_id", jobID, "path", path, "error", err)
	}
}
