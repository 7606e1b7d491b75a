package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// wavHeader holds the fmt-chunk fields needed to compute duration.
type wavHeader struct {
	channels      uint16
	sampleRate    uint32
	bitsPerSample uint16
	dataBytes     uint32
}

// WAVDuration reads the RIFF header of a PCM WAV file and returns its
// duration in seconds (sample count divided by sample rate).
func WAVDuration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	hdr, err := parseWAVHeader(f)
	if err != nil {
		return 0, err
	}

	bytesPerSample := uint32(hdr.bitsPerSample / 8)
	bytesPerSecond := hdr.sampleRate * uint32(hdr.channels) * bytesPerSample
	if bytesPerSecond == 0 {
		return 0, fmt.Errorf("wav header has zero byte rate")
	}
	return float64(hdr.dataBytes) / float64(bytesPerSecond), nil
}

// parseWAVHeader walks the RIFF chunk list until both the fmt and data
// chunks are seen. Chunks are padded to even sizes per the RIFF spec.
func parseWAVHeader(r io.ReadSeeker) (*wavHeader, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, fmt.Errorf("read riff header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE file")
	}

	hdr := &wavHeader{}
	sawFmt := false
	sawData := false

	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, fmt.Errorf("read chunk header: %w", err)
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			var fmtChunk [16]byte
			if _, err := io.ReadFull(r, fmtChunk[:]); err != nil {
				return nil, fmt.Errorf("read fmt chunk: %w", err)
			}
			hdr.channels = binary.LittleEndian.Uint16(fmtChunk[2:4])
			hdr.sampleRate = binary.LittleEndian.Uint32(fmtChunk[4:8])
			hdr.bitsPerSample = binary.LittleEndian.Uint16(fmtChunk[14:16])
			sawFmt = true
			// Skip any fmt extension bytes.
			if size > 16 {
				if _, err := r.Seek(int64(size-16), io.SeekCurrent); err != nil {
					return nil, fmt.Errorf("skip fmt extension: %w", err)
				}
			}
		case "data":
			hdr.dataBytes = size
			sawData = true
			if sawFmt {
				return hdr, nil
			}
			if _, err := r.Seek(int64(size), io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("skip data chunk: %w", err)
			}
		default:
			if _, err := r.Seek(int64(size), io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("skip chunk %q: %w", id, err)
			}
		}

		// RIFF chunks are word-aligned.
		if size%2 == 1 {
			if _, err := r.Seek(1, io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("skip chunk padding: %w", err)
			}
		}
	}

	if sawFmt && sawData {
		return hdr, nil
	}
	if !sawFmt {
		return nil, fmt.Errorf("wav file missing fmt chunk")
	}
	return nil, fmt.Errorf("wav file missing data chunk")
}
