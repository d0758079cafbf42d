// Package audioerr declares the sentinel errors surfaced at the audio
// core's boundary: file/codec open failures, format mismatches, and
// graph validation failures, each wrapped with %w so callers can match
// on them with errors.Is.
package audioerr

import "errors"

var (
	// ErrFileOpen is returned when a source file cannot be opened for decoding.
	ErrFileOpen = errors.New("audio: failed to open source file")

	// ErrUnsupportedFormat is returned for an unknown file extension or
	// an incompatible pair of port formats.
	ErrUnsupportedFormat = errors.New("audio: unsupported format")

	// ErrDecoderOpen is returned when opening the underlying codec
	// (mp3 scan, libsndfile probe) fails.
	ErrDecoderOpen = errors.New("audio: decoder open failed")

	// ErrInvalidGraph is returned by Graph.Prepare for a cyclic graph,
	// a dangling link, or a missing sink.
	ErrInvalidGraph = errors.New("audio: invalid graph")

	// ErrOutOfMemory is returned by a BufferAllocator that cannot satisfy
	// an allocation request.
	ErrOutOfMemory = errors.New("audio: allocator out of memory")

	// ErrFormatMismatch indicates a decoder was read with the wrong PCM
	// sample type overload. This is a programmer bug, not a runtime
	// condition callers should recover from.
	ErrFormatMismatch = errors.New("audio: decoder read with mismatched sample type")

	// ErrDecodeUnderrun indicates a decoder returned fewer frames than
	// requested. Non-fatal: the short buffer is still emitted.
	ErrDecodeUnderrun = errors.New("audio: decode underrun")
)
