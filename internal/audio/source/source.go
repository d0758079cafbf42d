// Package source provides random-access handles onto encoded audio
// data (the bytes of a .mp3/.ogg/.wav/.flac file) for the decoder
// wrappers to read from, independent of where the bytes actually live:
// an immutable, shareable read-only view that decoders pull compressed
// bytes from at arbitrary offsets.
package source

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Stream is a read-only, offset-addressable view onto encoded audio
// bytes. Implementations must be safe for concurrent Read calls since
// the same Stream can back more than one in-flight decoder open.
type Stream interface {
	// ReadAt copies bytes[offset:offset+len(p)] into p.
	ReadAt(p []byte, offset int64) (int, error)
	// Size returns the total number of bytes available.
	Size() int64
	// Name returns a human-readable identifier, typically a file path.
	Name() string
}

// FileStream reads directly from an *os.File opened once at
// construction time and kept open for the stream's lifetime.
type FileStream struct {
	f    *os.File
	size int64
	name string
}

// OpenFileStream opens path and stats its size up front.
func OpenFileStream(path string) (*FileStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio source stream %q: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat audio source stream %q: %w", path, err)
	}
	return &FileStream{f: f, size: fi.Size(), name: path}, nil
}

// ReadAt implements Stream.
func (s *FileStream) ReadAt(p []byte, offset int64) (int, error) {
	return s.f.ReadAt(p, offset)
}

// Size implements Stream.
func (s *FileStream) Size() int64 { return s.size }

// Name implements Stream.
func (s *FileStream) Name() string { return s.name }

// Close releases the underlying file descriptor.
func (s *FileStream) Close() error { return s.f.Close() }

// MemoryStream serves a stream view over an in-memory byte slice,
// typically already-loaded bytes for a caching Loader's
// enable_file_caching path.
type MemoryStream struct {
	data []byte
	name string
}

// NewMemoryStream wraps data (not copied) as a Stream named name.
func NewMemoryStream(name string, data []byte) *MemoryStream {
	return &MemoryStream{data: data, name: name}
}

// ReadAt implements Stream.
func (s *MemoryStream) ReadAt(p []byte, offset int64) (int, error) {
	if offset < 0 || offset > int64(len(s.data)) {
		return 0, fmt.Errorf("memory stream %q: offset %d out of range", s.name, offset)
	}
	n := copy(p, s.data[offset:])
	return n, nil
}

// Size implements Stream.
func (s *MemoryStream) Size() int64 { return int64(len(s.data)) }

// Name implements Stream.
func (s *MemoryStream) Name() string { return s.name }

// Loader opens a Stream for a file path. The default Loader opens the
// file directly; a caching Loader (see engine.Config.EnableFileCaching)
// reads the whole file into memory first so repeated opens of the same
// path avoid redundant disk I/O.
type Loader interface {
	OpenAudioStream(path string, cacheInMemory bool) (Stream, error)
}

// DefaultLoader is the Loader used when the caller does not supply one.
type DefaultLoader struct{}

// OpenAudioStream implements Loader.
func (DefaultLoader) OpenAudioStream(path string, cacheInMemory bool) (Stream, error) {
	if !cacheInMemory {
		return OpenFileStream(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read audio source file %q: %w", path, err)
	}
	return NewMemoryStream(path, data), nil
}

// Extension returns the file's lower-cased extension without the dot,
// used to dispatch to the right decoder wrapper.
func Extension(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(path[i+1:])
}

// Reader adapts an offset-addressable Stream to the sequential
// io.ReadSeeker shape most third-party codec libraries expect.
type Reader struct {
	s   Stream
	pos int64
}

// NewReader wraps s for sequential reading starting at offset 0.
func NewReader(s Stream) *Reader { return &Reader{s: s} }

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	if r.pos >= r.s.Size() {
		return 0, io.EOF
	}
	n, err := r.s.ReadAt(p, r.pos)
	r.pos += int64(n)
	if n > 0 && err == io.EOF {
		err = nil
	}
	return n, err
}

// Seek implements io.Seeker.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = r.pos + offset
	case io.SeekEnd:
		target = r.s.Size() + offset
	default:
		return 0, fmt.Errorf("source reader: invalid whence %d", whence)
	}
	if target < 0 {
		return 0, fmt.Errorf("source reader: negative seek position")
	}
	r.pos = target
	return r.pos, nil
}
