package synth

import "github.com/callinsights/diarize/cmd/server/internal/engine"

// AssignSpeakers maps diarized speaker intervals onto aligned transcript
// segments. A segment gets the label of the interval that contains its
// midpoint; when overlapping intervals both contain it, the earliest
// interval wins. Segments covered by no interval stay unlabeled and are
// later skipped by Synthesize.
func AssignSpeakers(segments []engine.Segment, intervals []engine.SpeakerInterval) []Segment {
	labeled := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		mid := (seg.Start + seg.End) / 2
		var speaker string
		for _, iv := range intervals {
			if mid >= iv.Start && mid < iv.End {
				speaker = iv.Speaker
				break
			}
		}
		labeled = append(labeled, Segment{
			Speaker: speaker,
			Text:    seg.Text,
			Start:   seg.Start,
			End:     seg.End,
		})
	}
	return labeled
}
