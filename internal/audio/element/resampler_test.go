package element

import (
	"testing"

	"github.com/drgolem/musictools/internal/audio/format"
)

func TestResamplerPrepareRejectsNonFloat32Input(t *testing.T) {
	r := NewResampler("resample", "resample_0", 48000)
	r.InputPorts()[0].SetFormat(format.Format{SampleRate: 44100, Channels: 2, SampleType: format.Int16})
	if r.Prepare(nil, PrepareParams{}) {
		t.Fatal("Prepare should reject a non-Float32 input format")
	}
}

func TestResamplerPrepareSetsOutputFormat(t *testing.T) {
	r := NewResampler("resample", "resample_0", 48000)
	r.InputPorts()[0].SetFormat(format.Format{SampleRate: 44100, Channels: 2, SampleType: format.Float32})
	if !r.Prepare(nil, PrepareParams{}) {
		t.Fatal("Prepare failed for a valid Float32 input")
	}
	got := r.OutputPorts()[0].Format()
	want := format.Format{SampleRate: 48000, Channels: 2, SampleType: format.Float32}
	if got != want {
		t.Errorf("output format = %+v, want %+v", got, want)
	}
}

func TestResamplerIsNeverASourceOrDone(t *testing.T) {
	r := NewResampler("resample", "resample_0", 48000)
	if r.IsSource() {
		t.Error("Resampler should not report itself as a source")
	}
	if r.IsSourceDone() {
		t.Error("Resampler should never report done")
	}
}
