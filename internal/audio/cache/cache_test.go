package cache

import (
	"testing"

	"github.com/drgolem/musictools/internal/audio/format"
)

func TestRegisterPCMReturnsSameBlobForSameID(t *testing.T) {
	c := New()
	f := format.Format{SampleRate: 44100, Channels: 2, SampleType: format.Int16}

	b1 := c.RegisterPCM("track1", f)
	b2 := c.RegisterPCM("track1", format.Format{SampleRate: 48000})
	if b1 != b2 {
		t.Fatal("RegisterPCM with an existing id returned a different blob")
	}
	if b2.Format != f {
		t.Errorf("second RegisterPCM call overwrote the original format: got %+v, want %+v", b2.Format, f)
	}
}

func TestLookupPCMMissing(t *testing.T) {
	c := New()
	if _, ok := c.LookupPCM("nope"); ok {
		t.Fatal("LookupPCM found an entry that was never registered")
	}
}

func TestPCMBlobAppendAndSnapshot(t *testing.T) {
	b := &PCMBlob{Format: format.Format{SampleRate: 44100, Channels: 2, SampleType: format.Int16}}

	complete, data, _, _ := b.Snapshot()
	if complete {
		t.Fatal("fresh blob reports complete")
	}
	if len(data) != 0 {
		t.Fatalf("fresh blob has %d bytes, want 0", len(data))
	}

	b.Append([]byte{1, 2, 3, 4})
	b.Append([]byte{5, 6})
	b.Finish()

	complete, data, _, _ = b.Snapshot()
	if !complete {
		t.Fatal("blob not complete after Finish")
	}
	want := []byte{1, 2, 3, 4, 5, 6}
	if len(data) != len(want) {
		t.Fatalf("data = %v, want %v", data, want)
	}
	for i := range want {
		if data[i] != want[i] {
			t.Fatalf("data = %v, want %v", data, want)
		}
	}
}

func TestFileInfoRoundTrip(t *testing.T) {
	c := New()
	if _, ok := c.LookupFileInfo("missing.mp3"); ok {
		t.Fatal("found file info that was never stored")
	}

	info := FileInfo{SampleRate: 44100, Channels: 2, Frames: 123456}
	c.StoreFileInfo("music.mp3", info)

	got, ok := c.LookupFileInfo("music.mp3")
	if !ok {
		t.Fatal("LookupFileInfo missed a stored entry")
	}
	if got != info {
		t.Errorf("LookupFileInfo = %+v, want %+v", got, info)
	}
}

func TestClearEmptiesBothCaches(t *testing.T) {
	c := New()
	c.RegisterPCM("a", format.Format{})
	c.StoreFileInfo("a.mp3", FileInfo{SampleRate: 44100})

	c.Clear()

	if _, ok := c.LookupPCM("a"); ok {
		t.Fatal("Clear left a PCM entry behind")
	}
	if _, ok := c.LookupFileInfo("a.mp3"); ok {
		t.Fatal("Clear left a file-info entry behind")
	}
}
