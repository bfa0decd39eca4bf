// Package segment splits captured audio into bounded-duration submission units.
package segment

const (
	// DefaultMaxSeconds is the largest per-request audio duration the
	// transcription service accepts.
	DefaultMaxSeconds = 59.0

	defaultSampleRate = 16000
	defaultChannels   = 1
)

// Capture is one finished recording: raw PCM samples plus format metadata.
type Capture struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Normalized returns the capture with non-positive format fields replaced by
// the 16kHz mono defaults used across the pipeline.
func (c Capture) Normalized() Capture {
	if c.SampleRate <= 0 {
		c.SampleRate = defaultSampleRate
	}
	if c.Channels <= 0 {
		c.Channels = defaultChannels
	}
	return c
}

// DurationSeconds derives playback duration from the sample count.
func (c Capture) DurationSeconds() float64 {
	n := c.Normalized()
	return float64(len(n.Samples)) / (float64(n.SampleRate) * float64(n.Channels))
}

// Segment is a bounded sub-span of one capture. Index is the temporal order
// of the segment within its capture, starting at zero.
type Segment struct {
	Capture
	Index int
}

// Split cuts a capture into ordered segments of at most maxSeconds each.
// Concatenating the segments' samples in index order reproduces the input
// exactly. A capture that already fits yields exactly one segment; an empty
// capture yields one empty segment, which callers treat as "no audio".
func Split(capture Capture, maxSeconds float64) []Segment {
	capture = capture.Normalized()
	if maxSeconds <= 0 {
		maxSeconds = DefaultMaxSeconds
	}

	maxSamples := int(maxSeconds * float64(capture.SampleRate) * float64(capture.Channels))
	if maxSamples < 1 {
		maxSamples = 1
	}

	if len(capture.Samples) <= maxSamples {
		return []Segment{{Capture: capture, Index: 0}}
	}

	segments := make([]Segment, 0, (len(capture.Samples)+maxSamples-1)/maxSamples)
	for start := 0; start < len(capture.Samples); start += maxSamples {
		end := start + maxSamples
		if end > len(capture.Samples) {
			end = len(capture.Samples)
		}
		segments = append(segments, Segment{
			Capture: Capture{
				Samples:    capture.Samples[start:end],
				SampleRate: capture.SampleRate,
				Channels:   capture.Channels,
			},
			Index: len(segments),
		})
	}
	return segments
}
