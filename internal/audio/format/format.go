// Package format defines the PCM format triple shared by every audio
// element, port, and buffer in the graph.
package format

import "fmt"

// SampleType enumerates the PCM sample encodings the graph understands.
type SampleType int

const (
	Int16 SampleType = iota
	Int32
	Float32
)

func (s SampleType) String() string {
	switch s {
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Float32:
		return "float32"
	default:
		return fmt.Sprintf("SampleType(%d)", int(s))
	}
}

// BytesPerSample returns the storage width of one channel sample.
func (s SampleType) BytesPerSample() int {
	switch s {
	case Int16:
		return 2
	case Int32, Float32:
		return 4
	default:
		return 0
	}
}

// Format is the (sample_rate, channel_count, sample_type) triple. Two
// formats compare equal iff all three components are equal.
type Format struct {
	SampleRate int
	Channels   int
	SampleType SampleType
}

// IsValid reports whether the format has sane, non-zero components.
func (f Format) IsValid() bool {
	return f.SampleRate > 0 && (f.Channels == 1 || f.Channels == 2)
}

// FrameSize returns the number of bytes one interleaved frame occupies.
func (f Format) FrameSize() int {
	return f.Channels * f.SampleType.BytesPerSample()
}

// FramesForMillis returns how many frames make up the given duration at
// this format's sample rate.
func (f Format) FramesForMillis(ms int) int {
	return f.SampleRate * ms / 1000
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch/%s", f.SampleRate, f.Channels, f.SampleType)
}
