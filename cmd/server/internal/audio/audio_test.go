package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeWAV builds a minimal PCM WAV file for header-parsing tests.
func writeWAV(t *testing.T, channels uint16, sampleRate uint32, bitsPerSample uint16, dataBytes int) string {
	t.Helper()

	var buf bytes.Buffer
	data := make([]byte, dataBytes)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataBytes))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, channels)
	binary.Write(&buf, binary.LittleEndian, sampleRate)
	byteRate := sampleRate * uint32(channels) * uint32(bitsPerSample/8)
	binary.Write(&buf, binary.LittleEndian, byteRate)
	binary.Write(&buf, binary.LittleEndian, uint16(uint32(channels)*uint32(bitsPerSample/8)))
	binary.Write(&buf, binary.LittleEndian, bitsPerSample)

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataBytes))
	buf.Write(data)

	path := filepath.Join(t.TempDir(), "test.wav")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	return path
}

func TestWAVDuration(t *testing.T) {
	// 16 kHz mono 16-bit: 32000 bytes per second.
	path := writeWAV(t, 1, 16000, 16, 32000*3)

	duration, err := WAVDuration(path)
	if err != nil {
		t.Fatalf("duration: %v", err)
	}
	if math.Abs(duration-3.0) > 1e-9 {
		t.Fatalf("duration = %v, want 3.0", duration)
	}
}

func TestWAVDurationStereo(t *testing.T) {
	// 44.1 kHz stereo 16-bit: 176400 bytes per second.
	path := writeWAV(t, 2, 44100, 16, 176400/2)

	duration, err := WAVDuration(path)
	if err != nil {
		t.Fatalf("duration: %v", err)
	}
	if math.Abs(duration-0.5) > 1e-9 {
		t.Fatalf("duration = %v, want 0.5", duration)
	}
}

func TestWAVDurationRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-audio.wav")
	if err := os.WriteFile(path, []byte("this is not a wav file at all"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := WAVDuration(path); err == nil {
		t.Fatal("expected error for non-WAV input")
	}
}

func TestWAVDurationMissingFile(t *testing.T) {
	if _, err := WAVDuration(filepath.Join(t.TempDir(), "absent.wav")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWAVDurationSkipsUnknownChunks(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // size unused by parser
	buf.WriteString("WAVE")

	// LIST chunk before fmt must be skipped.
	buf.WriteString("LIST")
	binary.Write(&buf, binary.LittleEndian, uint32(4))
	buf.WriteString("INFO")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint32(16000))
	binary.Write(&buf, binary.LittleEndian, uint32(32000))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(32000))
	buf.Write(make([]byte, 32000))

	path := filepath.Join(t.TempDir(), "chunky.wav")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	duration, err := WAVDuration(path)
	if err != nil {
		t.Fatalf("duration: %v", err)
	}
	if math.Abs(duration-1.0) > 1e-9 {
		t.Fatalf("duration = %v, want 1.0", duration)
	}
}

func TestSupportedExtension(t *testing.T) {
	accepted := []string{"call.mp3", "call.wav", "call.m4a", "call.flac", "CALL.WAV", "a.b.Mp3"}
	for _, name := range accepted {
		if !SupportedExtension(name) {
			t.Errorf("%q should be accepted", name)
		}
	}

	rejected := []string{"call.ogg", "call.txt", "call", "call.wav.exe", ".mp3x"}
	for _, name := range rejected {
		if SupportedExtension(name) {
			t.Errorf("%q should be rejected", name)
		}
	}
}

func TestChecksum(t *testing.T) {
	sum1, err := Checksum(strings.NewReader("same bytes"))
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}
	sum2, err := Checksum(strings.NewReader("same bytes"))
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}
	if sum1 != sum2 {
		t.Fatal("checksum should be deterministic")
	}
	if len(sum1) != 64 {
		t.Fatalf("checksum length = %d, want 64 hex chars", len(sum1))
	}

	sum3, err := Checksum(strings.NewReader("different bytes"))
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}
	if sum3 == sum1 {
		t.Fatal("different content should hash differently")
	}
}
