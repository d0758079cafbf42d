// Package wav wraps youpy/go-wav behind the engine's decoder.Decoder
// shape: a go-wav Reader driving a per-sample decode loop, with
// PCM-only format validation.
package wav

import (
	"fmt"
	"io"

	"github.com/youpy/go-wav"

	"github.com/drgolem/musictools/internal/audio/audioerr"
	"github.com/drgolem/musictools/internal/audio/format"
	"github.com/drgolem/musictools/internal/audio/source"
)

// Decoder decodes PCM WAV frames via go-wav. Its native sample type
// tracks the file's bits-per-sample: 16-bit files decode as Int16,
// every other integer PCM width as Int32. Non-PCM files (32-bit float
// included) are rejected by Open.
type Decoder struct {
	reader   *wav.Reader
	rate     int
	channels int
	bps      int
	native   format.SampleType
}

// Open opens stream for WAV decoding. sampleType must match the file's
// native sample type as reported after Open (see NativeSampleType);
// the decoder does not convert between sample types.
func Open(stream source.Stream, sampleType format.SampleType) (*Decoder, error) {
	r := wav.NewReader(io.Reader(source.NewReader(stream)))
	f, err := r.Format()
	if err != nil {
		return nil, fmt.Errorf("wav: read format: %w", err)
	}
	if f.AudioFormat != wav.AudioFormatPCM {
		return nil, fmt.Errorf("wav: %w: audio format %d (only PCM supported)", audioerr.ErrUnsupportedFormat, f.AudioFormat)
	}

	native := format.Int32
	if f.BitsPerSample == 16 {
		native = format.Int16
	}
	if sampleType != native {
		return nil, fmt.Errorf("wav: %w: file is %d-bit, requested %s", audioerr.ErrFormatMismatch, f.BitsPerSample, sampleType)
	}

	return &Decoder{
		reader:   r,
		rate:     int(f.SampleRate),
		channels: int(f.NumChannels),
		bps:      int(f.BitsPerSample),
		native:   native,
	}, nil
}

// SampleRate implements decoder.Decoder.
func (d *Decoder) SampleRate() int { return d.rate }

// ChannelCount implements decoder.Decoder.
func (d *Decoder) ChannelCount() int { return d.channels }

// TotalFrames implements decoder.Decoder. go-wav does not expose the
// data chunk's frame count ahead of reading it, so this reports 0.
func (d *Decoder) TotalFrames() uint64 { return 0 }

// NativeSampleType implements decoder.Decoder.
func (d *Decoder) NativeSampleType() format.SampleType { return d.native }

func (d *Decoder) readFrames(frames int) ([]wav.Sample, int, error) {
	samples, err := d.reader.ReadSamples(frames)
	if err == io.EOF {
		return samples, len(samples), nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("wav: read samples: %w", err)
	}
	return samples, len(samples), nil
}

// ReadFramesF32 implements decoder.Decoder.
func (d *Decoder) ReadFramesF32(buf []float32) (int, error) {
	return 0, audioerr.ErrFormatMismatch
}

// ReadFramesI16 implements decoder.Decoder.
func (d *Decoder) ReadFramesI16(buf []int16) (int, error) {
	if d.native != format.Int16 {
		return 0, audioerr.ErrFormatMismatch
	}
	frames := len(buf) / d.channels
	samples, n, err := d.readFrames(frames)
	if err != nil {
		return 0, err
	}
	for i := 0; i < n; i++ {
		for ch := 0; ch < d.channels && ch < len(samples[i].Values); ch++ {
			buf[i*d.channels+ch] = int16(samples[i].Values[ch])
		}
	}
	return n, nil
}

// ReadFramesI32 implements decoder.Decoder.
func (d *Decoder) ReadFramesI32(buf []int32) (int, error) {
	if d.native != format.Int32 {
		return 0, audioerr.ErrFormatMismatch
	}
	frames := len(buf) / d.channels
	samples, n, err := d.readFrames(frames)
	if err != nil {
		return 0, err
	}
	for i := 0; i < n; i++ {
		for ch := 0; ch < d.channels && ch < len(samples[i].Values); ch++ {
			buf[i*d.channels+ch] = int32(samples[i].Values[ch])
		}
	}
	return n, nil
}

// Reset implements decoder.Decoder. go-wav's Reader has no rewind, so
// callers that loop a WAV source must reopen the stream; this fails
// loudly instead of silently returning stale or garbage frames.
func (d *Decoder) Reset() error {
	return fmt.Errorf("wav: reset requires reopening the source stream")
}

// Close implements decoder.Decoder. go-wav holds no handle of its own
// beyond the io.Reader it was given; closing the underlying stream is
// the caller's responsibility.
func (d *Decoder) Close() error { return nil }
