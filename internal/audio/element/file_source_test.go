package element

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/drgolem/musictools/internal/audio/buffer"
	"github.com/drgolem/musictools/internal/audio/cache"
	"github.com/drgolem/musictools/internal/audio/format"
	"github.com/drgolem/musictools/internal/audio/source"
)

// buildMonoWAVBytes builds a minimal mono 16-bit PCM WAV file's bytes at
// 8000Hz for the given samples.
func buildMonoWAVBytes(samples []int16) []byte {
	dataSize := len(samples) * 2
	var buf []byte
	buf = append(buf, "RIFF"...)
	buf = append(buf, le32(uint32(36+dataSize))...)
	buf = append(buf, "WAVE"...)
	buf = append(buf, "fmt "...)
	buf = append(buf, le32(16)...)
	buf = append(buf, le16(1)...) // PCM
	buf = append(buf, le16(1)...) // mono
	buf = append(buf, le32(8000)...)
	buf = append(buf, le32(8000*2)...) // byte rate
	buf = append(buf, le16(2)...)       // block align
	buf = append(buf, le16(16)...)      // bits per sample
	buf = append(buf, "data"...)
	buf = append(buf, le32(uint32(dataSize))...)
	for _, s := range samples {
		buf = append(buf, le16(uint16(s))...)
	}
	return buf
}

// writeTestWAV writes a minimal mono 16-bit PCM WAV file with the given
// samples and returns its path.
func writeTestWAV(t *testing.T, samples []int16) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")

	if err := os.WriteFile(path, buildMonoWAVBytes(samples), 0o644); err != nil {
		t.Fatalf("write test wav: %v", err)
	}
	return path
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func le16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func TestFileSourcePrepareAndDecode(t *testing.T) {
	path := writeTestWAV(t, []int16{100, 200, 300, 400})
	c := cache.New()
	fs := NewFileSource("file", "file_0", path, format.Int16, 1, c, nil)

	if !fs.Prepare(source.DefaultLoader{}, PrepareParams{}) {
		t.Fatal("Prepare failed for a valid wav file")
	}
	if got := fs.OutputPorts()[0].Format(); got.SampleRate != 8000 || got.Channels != 1 {
		t.Errorf("format = %+v, want 8000Hz mono", got)
	}

	alloc := buffer.NewAllocator()
	events := &EventQueue{}
	fs.Process(alloc, events, 500) // plenty of ms to read all 4 frames

	if !fs.OutputPorts()[0].HasBuffer() {
		t.Fatal("FileSource produced no output for a decodable file")
	}
	got := readInt16Buffer(fs.OutputPorts()[0].PullBuffer())
	want := []int16{100, 200, 300, 400}
	for i := range want {
		if i >= len(got) || got[i] != want[i] {
			t.Errorf("sample[%d] = %v, want %d", i, got, want[i])
			break
		}
	}
}

func TestFileSourcePrepareFailsOnMissingFile(t *testing.T) {
	c := cache.New()
	fs := NewFileSource("file", "file_0", "/nonexistent/track.wav", format.Int16, 1, c, nil)
	if fs.Prepare(source.DefaultLoader{}, PrepareParams{}) {
		t.Fatal("Prepare should fail for a missing file")
	}
}

func TestFileSourceSingleLoopDoneAfterExhaustion(t *testing.T) {
	path := writeTestWAV(t, []int16{1, 2})
	c := cache.New()
	fs := NewFileSource("file", "file_0", path, format.Int16, 1, c, nil)
	if !fs.Prepare(source.DefaultLoader{}, PrepareParams{}) {
		t.Fatal("Prepare failed")
	}

	alloc := buffer.NewAllocator()
	events := &EventQueue{}
	fs.Process(alloc, events, 500)
	fs.OutputPorts()[0].PullBuffer()

	// wav.Decoder.TotalFrames always reports 0, so FileSource only
	// discovers end of stream on the Process call that reads 0 frames.
	fs.Process(alloc, events, 500)

	if !fs.IsSourceDone() {
		t.Fatal("single-loop FileSource did not report done after exhausting its only pass")
	}
}
