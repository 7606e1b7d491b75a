package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// APIClient wraps HTTP access to the diarization service.
type APIClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewAPIClient creates a client for the given base URL.
func NewAPIClient(serverURL string) *APIClient {
	return &APIClient{
		BaseURL: serverURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SubmitResponse is the POST /diarize reply.
type SubmitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// SpeakerStats mirrors the per-speaker block of a job result.
type SpeakerStats struct {
	TotalDuration          float64 `json:"total_duration"`
	SegmentCount           int     `json:"segment_count"`
	WordCount              int     `json:"word_count"`
	Percentage             float64 `json:"percentage"`
	AverageSegmentDuration float64 `json:"average_segment_duration"`
}

// JobResult mirrors the result payload of a completed job.
type JobResult struct {
	JobID          string                  `json:"job_id"`
	Transcript     string                  `json:"transcript"`
	Speakers       map[string]SpeakerStats `json:"speakers"`
	AudioDuration  float64                 `json:"audio_duration"`
	TotalSpeakers  int                     `json:"total_speakers"`
	ProcessingTime float64                 `json:"processing_time"`
}

// JobStatus mirrors the GET /status reply.
type JobStatus struct {
	JobID    string     `json:"job_id"`
	Status   string     `json:"status"`
	Progress float64    `json:"progress"`
	Result   *JobResult `json:"result,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// Submit uploads an audio file and returns the assigned job handle.
func (c *APIClient) Submit(audioPath string) (*SubmitResponse, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	body, contentType, err := multipartBody(file, filepath.Base(audioPath))
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", c.BaseURL+"/diarize", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	var resp SubmitResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status fetches the current state of a job.
func (c *APIClient) Status(jobID string) (*JobStatus, error) {
	req, err := http.NewRequest("GET", c.BaseURL+"/status/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	var status JobStatus
	if err := c.do(req, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Delete removes a job record from the service.
func (c *APIClient) Delete(jobID string) error {
	req, err := http.NewRequest("DELETE", c.BaseURL+"/job/"+jobID, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, nil)
}

// Health returns the raw /health payload.
func (c *APIClient) Health() (map[string]interface{}, error) {
	req, err := http.NewRequest("GET", c.BaseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	var resp map[string]interface{}
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// do executes the request and decodes a JSON reply into out when out is
// non-nil. Non-2xx replies surface the server's detail body.
func (c *APIClient) do(req *http.Request, out interface{}) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed (server %s): %w", c.BaseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// multipartBody builds an in-memory multipart form carrying the audio
// file under the field name the server expects.
func multipartBody(file io.Reader, filename string) (io.Reader, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("audio_file", filename)
	if err != nil {
		return nil, "", fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("read audio file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("finish form: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

// WaitForCompletion polls until the job reaches a terminal state or the
// deadline passes, printing each observed status line along the way.
func (c *APIClient) WaitForCompletion(jobID string, interval, timeout time.Duration) (*JobStatus, error) {
	deadline := time.Now().Add(timeout)
	for {
		status, err := c.Status(jobID)
		if err != nil {
			return nil, err
		}

		fmt.Printf("Status: %s - Progress: %.1f%%\n", status.Status, status.Progress*100)

		switch status.Status {
		case "completed":
			return status, nil
		case "failed":
			return status, fmt.Errorf("job failed: %s", status.Error)
		}

		if time.Now().After(deadline) {
			return status, fmt.Errorf("timed out after %s waiting for job %s", timeout, jobID)
		}
		time.Sleep(interval)
	}
}
