// Package ogg wraps jfreymuth/oggvorbis behind the engine's
// decoder.Decoder shape, giving .ogg files a real, direct decoder
// rather than routing them through a generic fallback path.
package ogg

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/drgolem/musictools/internal/audio/audioerr"
	"github.com/drgolem/musictools/internal/audio/format"
	"github.com/drgolem/musictools/internal/audio/source"
)

// Decoder decodes Ogg Vorbis frames via oggvorbis, which always
// produces interleaved float32 samples.
type Decoder struct {
	r        *oggvorbis.Reader
	stream   source.Stream
	rate     int
	channels int
}

// Open opens stream for Ogg Vorbis decoding. sampleType must be
// format.Float32, the library's only output type.
func Open(stream source.Stream, sampleType format.SampleType) (*Decoder, error) {
	if sampleType != format.Float32 {
		return nil, fmt.Errorf("ogg: %w: oggvorbis backend only decodes to float32", audioerr.ErrUnsupportedFormat)
	}

	r, err := oggvorbis.NewReader(source.NewReader(stream))
	if err != nil {
		return nil, fmt.Errorf("ogg: %w: %v", audioerr.ErrDecoderOpen, err)
	}

	return &Decoder{r: r, stream: stream, rate: r.SampleRate(), channels: r.Channels()}, nil
}

// SampleRate implements decoder.Decoder.
func (d *Decoder) SampleRate() int { return d.rate }

// ChannelCount implements decoder.Decoder.
func (d *Decoder) ChannelCount() int { return d.channels }

// TotalFrames implements decoder.Decoder.
func (d *Decoder) TotalFrames() uint64 { return uint64(d.r.Length()) }

// NativeSampleType implements decoder.Decoder.
func (d *Decoder) NativeSampleType() format.SampleType { return format.Float32 }

// ReadFramesF32 implements decoder.Decoder.
func (d *Decoder) ReadFramesF32(buf []float32) (int, error) {
	n, err := d.r.Read(buf)
	frames := n / d.channels
	if err == io.EOF {
		return frames, nil
	}
	if err != nil {
		return frames, fmt.Errorf("ogg: read samples: %w", err)
	}
	return frames, nil
}

// ReadFramesI16 implements decoder.Decoder.
func (d *Decoder) ReadFramesI16(buf []int16) (int, error) {
	return 0, audioerr.ErrFormatMismatch
}

// ReadFramesI32 implements decoder.Decoder.
func (d *Decoder) ReadFramesI32(buf []int32) (int, error) {
	return 0, audioerr.ErrFormatMismatch
}

// Reset implements decoder.Decoder by seeking back to the first sample.
func (d *Decoder) Reset() error {
	if err := d.r.SetPosition(0); err != nil {
		return fmt.Errorf("ogg: reset: %w", err)
	}
	return nil
}

// Close implements decoder.Decoder. oggvorbis holds no handle of its
// own beyond the io.Reader it was given.
func (d *Decoder) Close() error { return nil }
