// Package flac wraps drgolem/go-flac behind the engine's decoder.Decoder
// shape: NewFlacFrameDecoder bit-depth selection driving an
// Open/GetFormat/DecodeSamples/Close/Delete lifecycle.
package flac

import (
	"encoding/binary"
	"fmt"

	goflac "github.com/drgolem/go-flac/flac"

	"github.com/drgolem/musictools/internal/audio/audioerr"
	"github.com/drgolem/musictools/internal/audio/format"
	"github.com/drgolem/musictools/internal/audio/source"
)

// Decoder decodes FLAC frames via go-flac. The frame decoder is built
// for a fixed output bit depth (16 or 32), so the requested sampleType
// fixes which ReadFrames* call succeeds.
type Decoder struct {
	dec      *goflac.FlacDecoder
	stream   source.Stream
	rate     int
	channels int
	bps      int
	native   format.SampleType
	scratch  []byte
}

// Open opens stream for FLAC decoding at sampleType (Int16 or Int32).
func Open(stream source.Stream, sampleType format.SampleType) (*Decoder, error) {
	bits := 16
	switch sampleType {
	case format.Int16:
		bits = 16
	case format.Int32:
		bits = 32
	default:
		return nil, fmt.Errorf("flac: %w: %s", audioerr.ErrUnsupportedFormat, sampleType)
	}

	dec, err := goflac.NewFlacFrameDecoder(bits)
	if err != nil {
		return nil, fmt.Errorf("flac: create decoder: %w", err)
	}
	if err := dec.Open(stream.Name()); err != nil {
		dec.Delete()
		return nil, fmt.Errorf("flac: %w: %v", audioerr.ErrDecoderOpen, err)
	}

	rate, channels, bps := dec.GetFormat()
	return &Decoder{dec: dec, stream: stream, rate: rate, channels: channels, bps: bps, native: sampleType}, nil
}

// SampleRate implements decoder.Decoder.
func (d *Decoder) SampleRate() int { return d.rate }

// ChannelCount implements decoder.Decoder.
func (d *Decoder) ChannelCount() int { return d.channels }

// TotalFrames implements decoder.Decoder. go-flac's frame decoder
// streams frame by frame and does not expose the stream's total sample
// count through this binding, so this reports 0.
func (d *Decoder) TotalFrames() uint64 { return 0 }

// NativeSampleType implements decoder.Decoder.
func (d *Decoder) NativeSampleType() format.SampleType { return d.native }

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
	need := frames * d.channels * 2
	if cap(d.scratch) < need {
		d.scratch = make([]byte, need)
	}
	n, err := d.dec.DecodeSamples(frames, d.scratch[:need])
	if err != nil {
		return 0, fmt.Errorf("flac: decode samples: %w", err)
	}
	samples := n * d.channels
	for i := 0; i < samples; i++ {
		buf[i] = int16(binary.LittleEndian.Uint16(d.scratch[i*2:]))
	}
	return n, nil
}

// ReadFramesI32 implements decoder.Decoder.
func (d *Decoder) ReadFramesI32(buf []int32) (int, error) {
	if d.native != format.Int32 {
		return 0, audioerr.ErrFormatMismatch
	}
	frames := len(buf) / d.channels
	need := frames * d.channels * 4
	if cap(d.scratch) < need {
		d.scratch = make([]byte, need)
	}
	n, err := d.dec.DecodeSamples(frames, d.scratch[:need])
	if err != nil {
		return 0, fmt.Errorf("flac: decode samples: %w", err)
	}
	samples := n * d.channels
	for i := 0; i < samples; i++ {
		buf[i] = int32(binary.LittleEndian.Uint32(d.scratch[i*4:]))
	}
	return n, nil
}

// Reset implements decoder.Decoder by closing and reopening the stream.
func (d *Decoder) Reset() error {
	d.dec.Close()
	d.dec.Delete()

	bits := 16
	if d.native == format.Int32 {
		bits = 32
	}
	dec, err := goflac.NewFlacFrameDecoder(bits)
	if err != nil {
		return fmt.Errorf("flac: reset: create decoder: %w", err)
	}
	if err := dec.Open(d.stream.Name()); err != nil {
		dec.Delete()
		return fmt.Errorf("flac: reset: %w: %v", audioerr.ErrDecoderOpen, err)
	}
	d.dec = dec
	return nil
}

// Close implements decoder.Decoder.
func (d *Decoder) Close() error {
	if d.dec != nil {
		d.dec.Close()
		d.dec.Delete()
		d.dec = nil
	}
	return nil
}
