// Package audit writes a rotating JSON-lines trail of job lifecycle
// events: submissions, completions, failures, and deletions.
package audit

import (
	"encoding/json"
	"log"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger records job lifecycle events to a size/age-rotated file.
type Logger struct {
	logger *log.Logger
}

// NewLogger creates an audit logger writing to logPath with rotation.
func NewLogger(logPath string) *Logger {
	writer := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    100, // MB
		MaxBackups: 10,
		MaxAge:     30, // days
		Compress:   true,
	}
	// No prefix or flags: each record carries its own timestamp.
	return &Logger{logger: log.New(writer, "", 0)}
}

// LogSubmission records a new job and the checksum of its upload.
func (a *Logger) LogSubmission(jobID, filename, checksum string, sizeBytes int64) {
	a.write(map[string]interface{}{
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"event":      "submitted",
		"job_id":     jobID,
		"filename":   filename,
		"checksum":   checksum,
		"size_bytes": sizeBytes,
	})
}

// LogCompletion records a successfully finished job.
func (a *Logger) LogCompletion(jobID string, audioDuration, processingTime float64, totalSpeakers int) {
	a.write(map[string]interface{}{
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
		"event":           "completed",
		"job_id":          jobID,
		"audio_duration":  audioDuration,
		"processing_time": processingTime,
		"total_speakers":  totalSpeakers,
	})
}

// LogFailure records a job that ended in the failed state.
func (a *Logger) LogFailure(jobID, stage, message string) {
	a.write(map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"event":     "failed",
		"job_id":    jobID,
		"stage":     stage,
		"error":     message,
	})
}

// LogDeletion records a client-requested job removal.
func (a *Logger) LogDeletion(jobID string) {
	a.write(map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"event":     "deleted",
		"job_id":    jobID,
	})
}

func (a *Logger) write(record map[string]interface{}) {
	data, _ := json.Marshal(record)
	a.logger.Println(string(data))
}
