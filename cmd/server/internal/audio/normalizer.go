// Package audio converts uploaded recordings into the canonical waveform
// the inference engines expect: mono, 16 kHz, 16-bit PCM WAV.
package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrAudioFormat marks input that could not be decoded as audio.
var ErrAudioFormat = errors.New("audio format not supported")

// CanonicalSampleRate is the sample rate every engine consumes.
const CanonicalSampleRate = 16000

// supportedExtensions are the upload formats accepted at submission time.
var supportedExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".flac": true,
}

// SupportedExtension reports whether filename carries an accepted audio
// extension. The check runs before a job record is created.
func SupportedExtension(filename string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Normalizer produces canonical waveforms via ffmpeg. The binary decodes
// every accepted container, downmixes multi-channel input by averaging,
// and resamples in one pass.
type Normalizer struct {
	FFmpegPath string
	TempDir    string
}

// NewNormalizer builds a normalizer using ffmpegPath (defaults to "ffmpeg"
// on PATH) and tempDir (defaults to the system temp dir) for artifacts.
func NewNormalizer(ffmpegPath, tempDir string) *Normalizer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Normalizer{FFmpegPath: ffmpegPath, TempDir: tempDir}
}

// Normalize decodes inputPath and writes a new mono 16 kHz WAV artifact,
// leaving the input untouched. A fresh file is written even when the input
// is already canonical so callers always have exactly one artifact to
// clean up. Returns the artifact path and the audio duration in seconds.
func (n *Normalizer) Normalize(ctx context.Context, inputPath string) (string, float64, error) {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outPath := filepath.Join(n.TempDir, base+"_processed.wav")

	cmd := exec.CommandContext(ctx, n.FFmpegPath,
		"-y", "-i", inputPath,
		"-ac", "1",
		"-ar", strconv.Itoa(CanonicalSampleRate),
		"-sample_fmt", "s16",
		"-f", "wav",
		outPath,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		// Leave no partial artifact behind.
		os.Remove(outPath)
		return "", 0, fmt.Errorf("%w: ffmpeg: %v: %s", ErrAudioFormat, err, lastLine(output))
	}

	duration, err := WAVDuration(outPath)
	if err != nil {
		os.Remove(outPath)
		return "", 0, fmt.Errorf("inspect canonical waveform: %w", err)
	}

	return outPath, duration, nil
}

// lastLine trims ffmpeg's noisy output down to its final line, which is
// where the actual decode error lands.
func lastLine(output []byte) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
