package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// PyannoteDiarizer runs a pyannote-based diarization script through a
// Python interpreter. The script prints a JSON array of speaker intervals
// to stdout: [{"speaker": "SPEAKER_00", "start": 0.0, "end": 4.2}, ...].
type PyannoteDiarizer struct {
	pythonPath string
	scriptPath string
}

// NewPyannoteDiarizer verifies the diarization script exists before
// returning an instance. The interpreter itself is only exercised at
// health-check and invocation time.
func NewPyannoteDiarizer(pythonPath, scriptPath string) (*PyannoteDiarizer, error) {
	if _, err := os.Stat(scriptPath); err != nil {
		return nil, fmt.Errorf("diarization script not found: %s: %w", scriptPath, err)
	}
	if pythonPath == "" {
		pythonPath = "python3"
	}
	return &PyannoteDiarizer{pythonPath: pythonPath, scriptPath: scriptPath}, nil
}

func (p *PyannoteDiarizer) Diarize(ctx context.Context, audioPath string) ([]SpeakerInterval, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultInferenceTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.pythonPath, p.scriptPath, "--audio", audioPath, "--format", "json")
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("pyannote diarization failed: %w, stderr: %s", err, string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("pyannote diarization failed: %w", err)
	}

	var intervals []SpeakerInterval
	if err := json.Unmarshal(output, &intervals); err != nil {
		return nil, fmt.Errorf("decode diarization output: %w", err)
	}
	return intervals, nil
}

// HealthCheck runs the script in probe mode, which loads nothing heavy
// and exits 0 when the model cache and token are in place.
func (p *PyannoteDiarizer) HealthCheck(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.pythonPath, p.scriptPath, "--probe")
	if output, err := cmd.CombinedOutput(); err != nil {
		return false, fmt.Errorf("probe failed: %w, output: %s", err, string(output))
	}
	return true, nil
}

func (p *PyannoteDiarizer) Name() string { return "pyannote-diarizer" }
