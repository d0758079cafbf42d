// Package mp3 wraps go-mp3 behind the engine's decoder.Decoder shape,
// following the familiar Open/DecodeSamples/Close lifecycle used by
// the other decoder packages.
//
// github.com/imcarsen/go-mp3 is a pure-Go decoder that exposes a plain
// io.Reader over always-stereo, always-16-bit PCM, so there's no format
// negotiation step the way a cgo-based mpg123 binding would offer.
package mp3

import (
	"fmt"
	"io"

	gomp3 "github.com/imcarsen/go-mp3"

	"github.com/drgolem/musictools/internal/audio/audioerr"
	"github.com/drgolem/musictools/internal/audio/format"
	"github.com/drgolem/musictools/internal/audio/source"
)

// bytesPerFrame is go-mp3's fixed output shape: 16-bit stereo.
const bytesPerFrame = 4

// Decoder decodes MP3 frames into 16-bit stereo PCM via go-mp3. go-mp3
// always produces stereo int16 output regardless of the source file's
// channel count, so this wrapper only ever produces Int16 frames.
type Decoder struct {
	stream source.Stream
	dec    *gomp3.Decoder
	rate   int
	total  uint64 // total frames, derived from dec.Length()
	buf    []byte
}

// Open opens stream for MP3 decoding. sampleType must be format.Int16;
// go-mp3 does not decode directly to float or 32-bit PCM.
func Open(stream source.Stream, sampleType format.SampleType) (*Decoder, error) {
	if sampleType != format.Int16 {
		return nil, fmt.Errorf("mp3: %w: go-mp3 backend only decodes to int16", audioerr.ErrUnsupportedFormat)
	}

	dec, err := openStream(stream)
	if err != nil {
		return nil, err
	}

	return &Decoder{
		stream: stream,
		dec:    dec,
		rate:   dec.SampleRate(),
		total:  uint64(dec.Length()) / bytesPerFrame,
	}, nil
}

func openStream(stream source.Stream) (*gomp3.Decoder, error) {
	r := io.NewSectionReader(stream, 0, stream.Size())
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w: %v", audioerr.ErrDecoderOpen, err)
	}
	return dec, nil
}

// SampleRate implements decoder.Decoder.
func (d *Decoder) SampleRate() int { return d.rate }

// ChannelCount implements decoder.Decoder. go-mp3 always outputs stereo.
func (d *Decoder) ChannelCount() int { return 2 }

// TotalFrames implements decoder.Decoder.
func (d *Decoder) TotalFrames() uint64 { return d.total }

// NativeSampleType implements decoder.Decoder.
func (d *Decoder) NativeSampleType() format.SampleType { return format.Int16 }

// ReadFramesF32 implements decoder.Decoder.
func (d *Decoder) ReadFramesF32(buf []float32) (int, error) {
	return 0, audioerr.ErrFormatMismatch
}

// ReadFramesI32 implements decoder.Decoder.
func (d *Decoder) ReadFramesI32(buf []int32) (int, error) {
	return 0, audioerr.ErrFormatMismatch
}

// ReadFramesI16 implements decoder.Decoder.
func (d *Decoder) ReadFramesI16(buf []int16) (int, error) {
	frames := len(buf) / 2
	need := frames * bytesPerFrame
	if cap(d.buf) < need {
		d.buf = make([]byte, need)
	}
	n, err := io.ReadFull(d.dec, d.buf[:need])
	framesRead := n / bytesPerFrame
	for i := 0; i < framesRead*2; i++ {
		buf[i] = int16(d.buf[i*2]) | int16(d.buf[i*2+1])<<8
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return framesRead, nil
	}
	if err != nil {
		return framesRead, fmt.Errorf("mp3: decode samples: %w", err)
	}
	return framesRead, nil
}

// Reset implements decoder.Decoder by reopening a fresh section reader
// over the backing stream, since go-mp3 exposes no rewind call.
func (d *Decoder) Reset() error {
	dec, err := openStream(d.stream)
	if err != nil {
		return fmt.Errorf("mp3: reset: %w", err)
	}
	d.dec = dec
	return nil
}

// Close implements decoder.Decoder. go-mp3 holds no OS resources beyond
// the stream it was given, which the caller owns.
func (d *Decoder) Close() error { return nil }
