package format

import "testing"

func TestSampleTypeBytesPerSample(t *testing.T) {
	cases := []struct {
		st   SampleType
		want int
	}{
		{Int16, 2},
		{Int32, 4},
		{Float32, 4},
		{SampleType(99), 0},
	}
	for _, c := range cases {
		if got := c.st.BytesPerSample(); got != c.want {
			t.Errorf("%v.BytesPerSample() = %d, want %d", c.st, got, c.want)
		}
	}
}

func TestSampleTypeString(t *testing.T) {
	if got := Int16.String(); got != "int16" {
		t.Errorf("Int16.String() = %q, want int16", got)
	}
	if got := SampleType(42).String(); got != "SampleType(42)" {
		t.Errorf("unknown SampleType.String() = %q, want fallback form", got)
	}
}

func TestFormatIsValid(t *testing.T) {
	cases := []struct {
		f    Format
		want bool
	}{
		{Format{SampleRate: 44100, Channels: 2, SampleType: Int16}, true},
		{Format{SampleRate: 44100, Channels: 1, SampleType: Int16}, true},
		{Format{SampleRate: 0, Channels: 2, SampleType: Int16}, false},
		{Format{SampleRate: 44100, Channels: 3, SampleType: Int16}, false},
		{Format{SampleRate: 44100, Channels: 0, SampleType: Int16}, false},
	}
	for _, c := range cases {
		if got := c.f.IsValid(); got != c.want {
			t.Errorf("%+v.IsValid() = %v, want %v", c.f, got, c.want)
		}
	}
}

func TestFormatFrameSize(t *testing.T) {
	f := Format{SampleRate: 44100, Channels: 2, SampleType: Int16}
	if got := f.FrameSize(); got != 4 {
		t.Errorf("FrameSize() = %d, want 4", got)
	}

	f32 := Format{SampleRate: 44100, Channels: 2, SampleType: Float32}
	if got := f32.FrameSize(); got != 8 {
		t.Errorf("FrameSize() = %d, want 8", got)
	}
}

func TestFormatFramesForMillis(t *testing.T) {
	f := Format{SampleRate: 44100, Channels: 2, SampleType: Int16}
	if got := f.FramesForMillis(20); got != 882 {
		t.Errorf("FramesForMillis(20) = %d, want 882", got)
	}
	if got := f.FramesForMillis(0); got != 0 {
		t.Errorf("FramesForMillis(0) = %d, want 0", got)
	}
}

func TestFormatEquality(t *testing.T) {
	a := Format{SampleRate: 44100, Channels: 2, SampleType: Int16}
	b := Format{SampleRate: 44100, Channels: 2, SampleType: Int16}
	c := Format{SampleRate: 48000, Channels: 2, SampleType: Int16}
	if a != b {
		t.Error("identical formats should compare equal")
	}
	if a == c {
		t.Error("formats differing in sample rate should not compare equal")
	}
}
