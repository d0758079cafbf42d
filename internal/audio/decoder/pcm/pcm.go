// Package pcm implements a pass-through decoder that reads frames
// straight out of an already-decoded in-memory blob instead of running
// a codec, used when a FileSource finds a complete cached PCM blob for
// its source file. Its ReadFrames calls just copy out of the shared
// buffer and advance a frame cursor.
package pcm

import (
	"encoding/binary"
	"math"

	"github.com/drgolem/musictools/internal/audio/audioerr"
	"github.com/drgolem/musictools/internal/audio/cache"
	"github.com/drgolem/musictools/internal/audio/format"
)

// Decoder reads frames out of a cache.PCMBlob. It never blocks: reading
// past the blob's currently-available bytes simply returns 0 frames
// (the blob may still be filling in from a concurrent FileSource).
type Decoder struct {
	blob  *cache.PCMBlob
	frame uint64
}

// New wraps blob for pass-through reading.
func New(blob *cache.PCMBlob) *Decoder {
	return &Decoder{blob: blob}
}

func (d *Decoder) snapshot() (data []byte, f format.Format, frames uint64) {
	_, data, f, frames = d.blob.Snapshot()
	return data, f, frames
}

// SampleRate implements decoder.Decoder.
func (d *Decoder) SampleRate() int {
	_, f, _ := d.snapshot()
	return f.SampleRate
}

// ChannelCount implements decoder.Decoder.
func (d *Decoder) ChannelCount() int {
	_, f, _ := d.snapshot()
	return f.Channels
}

// TotalFrames implements decoder.Decoder.
func (d *Decoder) TotalFrames() uint64 {
	_, _, frames := d.snapshot()
	return frames
}

// NativeSampleType implements decoder.Decoder.
func (d *Decoder) NativeSampleType() format.SampleType {
	_, f, _ := d.snapshot()
	return f.SampleType
}

func (d *Decoder) readRaw(wantFrames int, frameSize int) ([]byte, int) {
	data, f, _ := d.snapshot()
	_ = f
	byteOffset := int(d.frame) * frameSize
	if byteOffset >= len(data) {
		return nil, 0
	}
	avail := (len(data) - byteOffset) / frameSize
	n := wantFrames
	if n > avail {
		n = avail
	}
	if n <= 0 {
		return nil, 0
	}
	d.frame += uint64(n)
	return data[byteOffset : byteOffset+n*frameSize], n
}

// ReadFramesF32 implements decoder.Decoder.
func (d *Decoder) ReadFramesF32(buf []float32) (int, error) {
	_, f, _ := d.snapshot()
	if f.SampleType != format.Float32 {
		return 0, audioerr.ErrFormatMismatch
	}
	frameSize := f.Channels * 4
	raw, n := d.readRaw(len(buf)/f.Channels, frameSize)
	for i := 0; i < n*f.Channels; i++ {
		bits := binary.LittleEndian.Uint32(raw[i*4:])
		buf[i] = math.Float32frombits(bits)
	}
	return n, nil
}

// ReadFramesI16 implements decoder.Decoder.
func (d *Decoder) ReadFramesI16(buf []int16) (int, error) {
	_, f, _ := d.snapshot()
	if f.SampleType != format.Int16 {
		return 0, audioerr.ErrFormatMismatch
	}
	frameSize := f.Channels * 2
	raw, n := d.readRaw(len(buf)/f.Channels, frameSize)
	for i := 0; i < n*f.Channels; i++ {
		buf[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return n, nil
}

// ReadFramesI32 implements decoder.Decoder.
func (d *Decoder) ReadFramesI32(buf []int32) (int, error) {
	_, f, _ := d.snapshot()
	if f.SampleType != format.Int32 {
		return 0, audioerr.ErrFormatMismatch
	}
	frameSize := f.Channels * 4
	raw, n := d.readRaw(len(buf)/f.Channels, frameSize)
	for i := 0; i < n*f.Channels; i++ {
		buf[i] = int32(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return n, nil
}

// Reset implements decoder.Decoder.
func (d *Decoder) Reset() error {
	d.frame = 0
	return nil
}

// Close implements decoder.Decoder. The blob outlives this decoder in
// the shared cache, so Close is a no-op.
func (d *Decoder) Close() error { return nil }
