package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
)

const defaultInferenceTimeout = 10 * time.Minute

// whisperx emits timestamps as arbitrary-precision decimals; parsing them
// through decimal.Decimal avoids float re-rounding before we convert once.
type wxSegment struct {
	Text  string          `json:"text"`
	Start decimal.Decimal `json:"start"`
	End   decimal.Decimal `json:"end"`
}

type wxResult struct {
	Segments []wxSegment `json:"segments"`
}

// WhisperXTranscriber invokes the whisperx CLI for transcription. The
// program writes a JSON result file next to the requested output dir;
// the transcriber parses that file rather than stdout.
type WhisperXTranscriber struct {
	binaryPath string
}

// NewWhisperXTranscriber validates that the whisperx binary exists and is
// executable before returning an instance.
func NewWhisperXTranscriber(binaryPath string) (*WhisperXTranscriber, error) {
	if err := checkExecutable(binaryPath); err != nil {
		return nil, err
	}
	return &WhisperXTranscriber{binaryPath: binaryPath}, nil
}

func (w *WhisperXTranscriber) Transcribe(ctx context.Context, audioPath string, opts *Options) ([]Segment, error) {
	timeout := defaultInferenceTimeout
	model := "medium"
	language := ""
	if opts != nil {
		if opts.Timeout > 0 {
			timeout = opts.Timeout
		}
		if opts.Model != "" {
			model = opts.Model
		}
		language = opts.Language
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outDir, err := os.MkdirTemp("", "whisperx-out-")
	if err != nil {
		return nil, fmt.Errorf("create whisperx output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	args := []string{audioPath, "--model", model, "--output_dir", outDir, "--output_format", "json"}
	if language != "" {
		args = append(args, "--language", language)
	}

	cmd := exec.CommandContext(ctx, w.binaryPath, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("whisperx execution failed: %w, output: %s", err, string(output))
	}

	resultPath := filepath.Join(outDir, baseWithoutExt(audioPath)+".json")
	return readSegmentsFile(resultPath)
}

func (w *WhisperXTranscriber) HealthCheck(ctx context.Context) (bool, error) {
	cmd := exec.CommandContext(ctx, w.binaryPath, "--version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return false, fmt.Errorf("version check failed: %w, output: %s", err, string(output))
	}
	return len(output) > 0, nil
}

func (w *WhisperXTranscriber) Name() string { return "whisperx-transcriber" }

// WhisperXAligner refines segment timestamps by invoking whisperx in
// alignment mode with the coarse segments as input.
type WhisperXAligner struct {
	binaryPath string
}

// NewWhisperXAligner validates the whisperx binary before returning.
func NewWhisperXAligner(binaryPath string) (*WhisperXAligner, error) {
	if err := checkExecutable(binaryPath); err != nil {
		return nil, err
	}
	return &WhisperXAligner{binaryPath: binaryPath}, nil
}

func (w *WhisperXAligner) Align(ctx context.Context, segments []Segment, audioPath string) ([]Segment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultInferenceTimeout)
	defer cancel()

	inFile, err := os.CreateTemp("", "align-in-*.json")
	if err != nil {
		return nil, fmt.Errorf("create alignment input: %w", err)
	}
	defer os.Remove(inFile.Name())

	if err := json.NewEncoder(inFile).Encode(wxResultFromSegments(segments)); err != nil {
		inFile.Close()
		return nil, fmt.Errorf("encode alignment input: %w", err)
	}
	if err := inFile.Close(); err != nil {
		return nil, fmt.Errorf("close alignment input: %w", err)
	}

	outDir, err := os.MkdirTemp("", "whisperx-align-")
	if err != nil {
		return nil, fmt.Errorf("create alignment output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	args := []string{"align", audioPath,
		"--segments", inFile.Name(),
		"--output_dir", outDir,
		"--output_format", "json",
	}
	cmd := exec.CommandContext(ctx, w.binaryPath, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("whisperx align failed: %w, output: %s", err, string(output))
	}

	resultPath := filepath.Join(outDir, baseWithoutExt(audioPath)+".json")
	return readSegmentsFile(resultPath)
}

func (w *WhisperXAligner) HealthCheck(ctx context.Context) (bool, error) {
	cmd := exec.CommandContext(ctx, w.binaryPath, "--version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return false, fmt.Errorf("version check failed: %w, output: %s", err, string(output))
	}
	return len(output) > 0, nil
}

func (w *WhisperXAligner) Name() string { return "whisperx-aligner" }

func wxResultFromSegments(segments []Segment) wxResult {
	out := wxResult{Segments: make([]wxSegment, len(segments))}
	for i, s := range segments {
		out.Segments[i] = wxSegment{
			Text:  s.Text,
			Start: decimal.NewFromFloat(s.Start),
			End:   decimal.NewFromFloat(s.End),
		}
	}
	return out
}

func readSegmentsFile(path string) ([]Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open whisperx result: %w", err)
	}
	defer f.Close()
	return decodeSegments(f)
}

func decodeSegments(r io.Reader) ([]Segment, error) {
	var parsed wxResult
	if err := json.NewDecoder(r).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode whisperx result: %w", err)
	}

	segments := make([]Segment, len(parsed.Segments))
	for i, s := range parsed.Segments {
		segments[i] = Segment{
			Text:  s.Text,
			Start: s.Start.InexactFloat64(),
			End:   s.End.InexactFloat64(),
		}
	}
	return segments, nil
}

func baseWithoutExt(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("engine program not found: %s", path)
	}
	if err != nil {
		return fmt.Errorf("stat engine program: %w", err)
	}
	if info.Mode()&0111 == 0 {
		return fmt.Errorf("engine program is not executable: %s (mode: %s)", path, info.Mode())
	}
	return nil
}
