package ogg

import (
	"testing"

	"github.com/drgolem/musictools/internal/audio/audioerr"
	"github.com/drgolem/musictools/internal/audio/format"
	"github.com/drgolem/musictools/internal/audio/source"
)

func TestOpenRejectsNonFloat32SampleType(t *testing.T) {
	stream := source.NewMemoryStream("t.ogg", []byte{0, 1, 2})
	if _, err := Open(stream, format.Int16); err == nil {
		t.Fatal("expected an error requesting non-Float32 output from the ogg backend")
	}
}

func TestOpenRejectsInvalidStream(t *testing.T) {
	stream := source.NewMemoryStream("t.ogg", []byte("not an ogg file"))
	if _, err := Open(stream, format.Float32); err == nil {
		t.Fatal("expected an error opening a non-ogg byte stream")
	}
}

func TestReadFramesI16AndI32AlwaysMismatch(t *testing.T) {
	d := &Decoder{}
	if _, err := d.ReadFramesI16(make([]int16, 1)); err != audioerr.ErrFormatMismatch {
		t.Errorf("ReadFramesI16 err = %v, want ErrFormatMismatch", err)
	}
	if _, err := d.ReadFramesI32(make([]int32, 1)); err != audioerr.ErrFormatMismatch {
		t.Errorf("ReadFramesI32 err = %v, want ErrFormatMismatch", err)
	}
}
