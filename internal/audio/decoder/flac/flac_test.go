package flac

import (
	"testing"

	"github.com/drgolem/musictools/internal/audio/audioerr"
	"github.com/drgolem/musictools/internal/audio/format"
	"github.com/drgolem/musictools/internal/audio/source"
)

func TestOpenRejectsUnsupportedSampleType(t *testing.T) {
	stream := source.NewMemoryStream("t.flac", []byte{0, 1, 2})
	if _, err := Open(stream, format.Float32); err == nil {
		t.Fatal("expected an error requesting Float32 output from the flac backend")
	}
}

func TestReadFramesF32AlwaysMismatch(t *testing.T) {
	d := &Decoder{native: format.Int16}
	if _, err := d.ReadFramesF32(make([]float32, 1)); err != audioerr.ErrFormatMismatch {
		t.Errorf("ReadFramesF32 err = %v, want ErrFormatMismatch", err)
	}
}

func TestReadFramesI16MismatchesInt32Native(t *testing.T) {
	d := &Decoder{native: format.Int32, channels: 2}
	if _, err := d.ReadFramesI16(make([]int16, 2)); err != audioerr.ErrFormatMismatch {
		t.Errorf("ReadFramesI16 err = %v, want ErrFormatMismatch", err)
	}
}

func TestReadFramesI32MismatchesInt16Native(t *testing.T) {
	d := &Decoder{native: format.Int16, channels: 2}
	if _, err := d.ReadFramesI32(make([]int32, 2)); err != audioerr.ErrFormatMismatch {
		t.Errorf("ReadFramesI32 err = %v, want ErrFormatMismatch", err)
	}
}

func TestChannelCountAndSampleRateReflectFields(t *testing.T) {
	d := &Decoder{rate: 44100, channels: 2}
	if d.SampleRate() != 44100 || d.ChannelCount() != 2 {
		t.Errorf("SampleRate/ChannelCount = %d/%d, want 44100/2", d.SampleRate(), d.ChannelCount())
	}
}
