// Package synth turns raw speaker-labeled transcript segments into the
// final diarization result: merged speaker turns, a formatted transcript,
// and per-speaker aggregate statistics.
package synth

import (
	"errors"
	"fmt"
	"strings"
)

// ErrZeroAudioDuration is returned when statistics would divide by a
// non-positive audio duration.
var ErrZeroAudioDuration = errors.New("audio duration must be positive")

// Segment is one raw transcript span. Speaker may be empty when the
// diarizer produced no label for its time range; unlabeled segments are
// skipped by the merge, never counted.
type Segment struct {
	Speaker string  `json:"speaker"`
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Turn is a maximal run of consecutive segments sharing one speaker.
type Turn struct {
	Speaker  string  `json:"speaker"`
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
}

// SpeakerStats aggregates one speaker's share of the conversation.
type SpeakerStats struct {
	TotalDuration          float64 `json:"total_duration"`
	SegmentCount           int     `json:"segment_count"`
	WordCount              int     `json:"word_count"`
	Percentage             float64 `json:"percentage"`
	AverageSegmentDuration float64 `json:"average_segment_duration"`
}

// Result is the synthesized output stored on a completed job.
type Result struct {
	JobID          string                   `json:"job_id"`
	Transcript     string                   `json:"transcript"`
	Speakers       map[string]*SpeakerStats `json:"speakers"`
	Segments       []Turn                   `json:"segments"`
	AudioDuration  float64                  `json:"audio_duration"`
	TotalSpeakers  int                      `json:"total_speakers"`
	ProcessingTime float64                  `json:"processing_time"`
}

// Synthesize merges segments into speaker turns and finalizes statistics.
// Segments must be in chronological order. audioDuration must be positive;
// a zero duration would make the percentage computation non-finite, so it
// is rejected as invalid input.
func Synthesize(segments []Segment, audioDuration float64) (*Result, error) {
	if audioDuration <= 0 {
		return nil, fmt.Errorf("%w (got %.4f)", ErrZeroAudioDuration, audioDuration)
	}

	turns := []Turn{}
	speakers := map[string]*SpeakerStats{}
	wordsBySpeaker := map[string]int{}

	var (
		open     bool
		curText  strings.Builder
		curWho   string
		curStart float64
		curEnd   float64
	)

	closeTurn := func() {
		text := strings.TrimSpace(curText.String())
		turn := Turn{
			Speaker:  curWho,
			Text:     text,
			Start:    curStart,
			End:      curEnd,
			Duration: curEnd - curStart,
		}
		turns = append(turns, turn)

		stats := speakers[curWho]
		if stats == nil {
			stats = &SpeakerStats{}
			speakers[curWho] = stats
		}
		stats.TotalDuration += turn.Duration
		stats.SegmentCount++
		wordsBySpeaker[curWho] += len(strings.Fields(text))
	}

	for _, seg := range segments {
		if seg.Speaker == "" {
			continue
		}
		text := strings.TrimSpace(seg.Text)

		if open && seg.Speaker == curWho {
			// Same speaker keeps talking: extend the open turn's end only.
			curText.WriteString(" ")
			curText.WriteString(text)
			curEnd = seg.End
			continue
		}

		if open {
			closeTurn()
		}
		curWho = seg.Speaker
		curText.Reset()
		curText.WriteString(text)
		curStart = seg.Start
		curEnd = seg.End
		open = true
	}
	// A trailing open turn must not be dropped.
	if open {
		closeTurn()
	}

	for who, stats := range speakers {
		stats.WordCount = wordsBySpeaker[who]
		stats.Percentage = stats.TotalDuration / audioDuration * 100
		stats.AverageSegmentDuration = stats.TotalDuration / float64(stats.SegmentCount)
	}

	return &Result{
		Transcript:    FormatTranscript(turns),
		Speakers:      speakers,
		Segments:      turns,
		AudioDuration: audioDuration,
		TotalSpeakers: len(speakers),
	}, nil
}

// FormatTranscript renders merged turns as
// "SPEAKER [0.00s - 1.50s]: text" blocks separated by blank lines.
func FormatTranscript(turns []Turn) string {
	var b strings.Builder
	for _, turn := range turns {
		fmt.Fprintf(&b, "%s [%.2fs - %.2fs]: %s\n\n", turn.Speaker, turn.Start, turn.End, turn.Text)
	}
	return strings.TrimSpace(b.String())
}
