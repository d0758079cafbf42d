// Package decoder declares the polymorphic PCM decoding interface
// implemented by every concrete codec wrapper (mp3, wav, ogg, flac, and
// the cache pass-through pcm decoder), plus the extension-dispatching
// factory FileSource uses to pick one. Each decoder exposes three
// overloaded ReadFrames entry points (float/short/int), with one sample
// type fixed at construction time and never mixed.
package decoder

import (
	"fmt"

	"github.com/drgolem/musictools/internal/audio/audioerr"
	"github.com/drgolem/musictools/internal/audio/cache"
	"github.com/drgolem/musictools/internal/audio/decoder/flac"
	"github.com/drgolem/musictools/internal/audio/decoder/mp3"
	"github.com/drgolem/musictools/internal/audio/decoder/ogg"
	"github.com/drgolem/musictools/internal/audio/decoder/wav"
	"github.com/drgolem/musictools/internal/audio/format"
	"github.com/drgolem/musictools/internal/audio/source"
)

// Decoder streams PCM frames out of an encoded or raw audio source. A
// Decoder is constructed for exactly one format.SampleType; calling the
// ReadFrames variant for any other type returns audioerr.ErrFormatMismatch.
type Decoder interface {
	SampleRate() int
	ChannelCount() int
	// TotalFrames returns the decoder's best known frame count. It may
	// be 0 for streaming sources whose length isn't known up front.
	TotalFrames() uint64
	NativeSampleType() format.SampleType

	ReadFramesF32(buf []float32) (int, error)
	ReadFramesI16(buf []int16) (int, error)
	ReadFramesI32(buf []int32) (int, error)

	// Reset rewinds the decoder for looped playback.
	Reset() error
	Close() error
}

// Open dispatches on path's extension and opens the matching codec
// wrapper. The returned Decoder reads sampleType-typed frames.
func Open(stream source.Stream, sampleType format.SampleType) (Decoder, error) {
	return OpenExt(source.Extension(stream.Name()), stream, sampleType)
}

// OpenExt is like Open but takes an explicit extension, used when the
// stream's name does not carry one (e.g. a pre-opened memory stream).
func OpenExt(ext string, stream source.Stream, sampleType format.SampleType) (Decoder, error) {
	switch ext {
	case "mp3":
		return openMP3(stream, sampleType)
	case "wav":
		return openWAV(stream, sampleType)
	case "ogg":
		return openOGG(stream, sampleType)
	case "flac", "fla":
		return openFLAC(stream, sampleType)
	default:
		return nil, fmt.Errorf("decoder: %w: %q", audioerr.ErrUnsupportedFormat, ext)
	}
}

// ProbeFile opens path's decoder just long enough to read its format
// and frame count, then closes it. Used to pre-warm the file-info cache
// ahead of time (e.g. during a loading screen) so a later FileSource's
// Prepare can take the background decoder-open path instead of opening
// synchronously.
func ProbeFile(path string, sampleType format.SampleType) (cache.FileInfo, error) {
	stream, err := source.OpenFileStream(path)
	if err != nil {
		return cache.FileInfo{}, err
	}
	defer stream.Close()

	dec, err := Open(stream, sampleType)
	if err != nil {
		return cache.FileInfo{}, fmt.Errorf("probe %q: %w", path, err)
	}
	defer dec.Close()

	return cache.FileInfo{
		SampleRate: dec.SampleRate(),
		Channels:   dec.ChannelCount(),
		Frames:     dec.TotalFrames(),
	}, nil
}

func openMP3(stream source.Stream, sampleType format.SampleType) (Decoder, error) {
	d, err := mp3.Open(stream, sampleType)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func openWAV(stream source.Stream, sampleType format.SampleType) (Decoder, error) {
	d, err := wav.Open(stream, sampleType)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func openOGG(stream source.Stream, sampleType format.SampleType) (Decoder, error) {
	d, err := ogg.Open(stream, sampleType)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func openFLAC(stream source.Stream, sampleType format.SampleType) (Decoder, error) {
	d, err := flac.Open(stream, sampleType)
	if err != nil {
		return nil, err
	}
	return d, nil
}
