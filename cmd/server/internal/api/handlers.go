// Package api implements the HTTP surface of the diarization service:
// submission, status polling, deletion, and health introspection.
package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/callinsights/diarize/cmd/server/internal/audio"
	"github.com/callinsights/diarize/cmd/server/internal/audit"
	"github.com/callinsights/diarize/cmd/server/internal/engine/health"
	"github.com/callinsights/diarize/cmd/server/internal/jobs"
	"github.com/callinsights/diarize/cmd/server/internal/metrics"
)

// Launcher starts the background pipeline for a submitted job. The
// pipeline driver satisfies this; tests substitute a no-op.
type Launcher interface {
	Launch(jobID, uploadPath string)
}

// SubmitOptions configures the upload handler.
type SubmitOptions struct {
	UploadDir    string
	MaxSizeBytes int64
	Audit        *audit.Logger
}

// HandleDiarize handles POST /diarize: validates the upload, stages it on
// disk, registers a queued job, and launches the pipeline. Validation
// failures are rejected before any job record exists.
func HandleDiarize(store jobs.Store, launcher Launcher, opts SubmitOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("audio_file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "missing audio_file upload field"})
			return
		}

		if !audio.SupportedExtension(fileHeader.Filename) {
			c.JSON(http.StatusBadRequest, gin.H{
				"detail": "Unsupported file format. Please upload MP3, WAV, M4A, or FLAC files.",
			})
			return
		}
		if fileHeader.Size == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "uploaded file is empty"})
			return
		}
		if opts.MaxSizeBytes > 0 && fileHeader.Size > opts.MaxSizeBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"detail": fmt.Sprintf("uploaded file exceeds the %d MB limit", opts.MaxSizeBytes/(1<<20)),
			})
			return
		}

		jobID := uuid.NewString()
		uploadPath := filepath.Join(opts.UploadDir, jobID+strings.ToLower(filepath.Ext(fileHeader.Filename)))

		checksum, err := saveUpload(fileHeader, uploadPath)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to store uploaded file"})
			return
		}

		if err := store.Create(jobID, checksum); err != nil {
			// uuid collisions do not happen in practice; treat as server fault.
			os.Remove(uploadPath)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to register job"})
			return
		}
		metrics.ActiveJobs.Set(float64(store.ActiveCount()))

		if opts.Audit != nil {
			opts.Audit.LogSubmission(jobID, fileHeader.Filename, checksum, fileHeader.Size)
		}

		launcher.Launch(jobID, uploadPath)

		c.JSON(http.StatusOK, gin.H{"job_id": jobID, "status": string(jobs.StatusQueued)})
	}
}

// saveUpload streams the multipart part to destPath while hashing it,
// returning the blake3 checksum of the content.
func saveUpload(fileHeader *multipart.FileHeader, destPath string) (string, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	checksum, err := audio.Checksum(io.TeeReader(src, dst))
	if err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	return checksum, nil
}

// HandleStatus handles GET /status/:job_id. The result field is present
// only for completed jobs, the error field only for failed ones.
func HandleStatus(store jobs.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, err := store.Get(c.Param("job_id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Job not found"})
			return
		}
		c.JSON(http.StatusOK, job)
	}
}

// HandleDelete handles DELETE /job/:job_id. Deleting a processing job
// does not interrupt its pipeline; the late result write is dropped.
func HandleDelete(store jobs.Store, auditLog *audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("job_id")
		if err := store.Delete(jobID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Job not found"})
			return
		}
		metrics.ActiveJobs.Set(float64(store.ActiveCount()))
		if auditLog != nil {
			auditLog.LogDeletion(jobID)
		}
		c.JSON(http.StatusOK, gin.H{"message": "Job deleted successfully"})
	}
}

// HealthResponse is the GET /health payload.
type HealthResponse struct {
	Status     string                  `json:"status"`
	Engines    []health.ProviderStatus `json:"engines"`
	ActiveJobs int                     `json:"active_jobs"`
}

// HandleHealth reports engine readiness and the active job count. The
// overall status is degraded when any engine is unhealthy; the endpoint
// never mutates core state.
func HandleHealth(store jobs.Store, checkers []*health.Checker) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := HealthResponse{
			Status:     "healthy",
			Engines:    make([]health.ProviderStatus, 0, len(checkers)),
			ActiveJobs: store.ActiveCount(),
		}
		for _, checker := range checkers {
			status := checker.GetStatus()
			if !status.IsHealthy {
				resp.Status = "degraded"
			}
			resp.Engines = append(resp.Engines, status)
		}
		c.JSON(http.StatusOK, resp)
	}
}

// HandleRoot serves the service banner with an endpoint index.
func HandleRoot(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Speaker Diarization API",
			"version": version,
			"endpoints": gin.H{
				"diarize": "POST /diarize - Upload audio for diarization",
				"status":  "GET /status/{job_id} - Check job status",
				"delete":  "DELETE /job/{job_id} - Delete a job record",
				"health":  "GET /health - Health check",
				"metrics": "GET /metrics - Prometheus metrics",
			},
		})
	}
}
