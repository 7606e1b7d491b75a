package pipeline

import (
	"fmt"
	"time"
)

// ErrorCode classifies pipeline stage failures.
type ErrorCode string

const (
	// AUDIO_FORMAT_FAILED input audio could not be decoded or normalized
	AUDIO_FORMAT_FAILED ErrorCode = "AUDIO_FORMAT_FAILED"

	// TRANSCRIBE_FAILED transcription engine error
	TRANSCRIBE_FAILED ErrorCode = "TRANSCRIBE_FAILED"

	// ALIGN_FAILED alignment engine error
	ALIGN_FAILED ErrorCode = "ALIGN_FAILED"

	// DIARIZE_FAILED diarization engine error
	DIARIZE_FAILED ErrorCode = "DIARIZE_FAILED"

	// SYNTHESIZE_FAILED merge/statistics synthesis error
	SYNTHESIZE_FAILED ErrorCode = "SYNTHESIZE_FAILED"
)

// StageError is a terminal stage failure. The driver converts it into a
// failed job; it never propagates past the job boundary.
type StageError struct {
	Code      ErrorCode `json:"code"`
	Stage     string    `json:"stage"`
	Message   string    `json:"message"`
	Cause     error     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

// Error implements the error interface.
func (e *StageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap supports errors.Is/As on the cause chain.
func (e *StageError) Unwrap() error {
	return e.Cause
}

// NewStageError creates a stage failure record.
func NewStageError(code ErrorCode, stage, message string, cause error) *StageError {
	return &StageError{
		Code:      code,
		Stage:     stage,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}
