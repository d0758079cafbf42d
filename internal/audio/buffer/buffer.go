// Package buffer implements reference-pooled PCM containers and the
// allocator that recycles their backing storage on the audio thread,
// using power-of-two bucket sizing for its free lists.
package buffer

import (
	"sync"

	"github.com/drgolem/musictools/internal/audio/audioerr"
	"github.com/drgolem/musictools/internal/audio/format"
)

// InfoTag annotates a Buffer with the element that produced (or
// contributed to) it. Tags accumulate as buffers flow downstream: a
// buffer built from N input buffers inherits the union of their tags.
type InfoTag struct {
	ElementID   string
	ElementName string
	Source      bool
	SourceDone  bool
}

// Buffer is an immutable-once-pushed blob of interleaved PCM frames plus
// format and provenance metadata. Ownership is reference counted; the
// last Release returns the backing storage to its allocator's free list.
type Buffer struct {
	format   format.Format
	byteSize int
	data     []byte
	tags     []InfoTag

	alloc  *Allocator
	bucket int // pool bucket size this block belongs to, -1 if unpooled
	refs   int32
}

// Format returns the buffer's format.
func (b *Buffer) Format() format.Format { return b.format }

// SetFormat sets the buffer's format.
func (b *Buffer) SetFormat(f format.Format) { b.format = f }

// ByteSize returns the number of valid bytes (<= capacity).
func (b *Buffer) ByteSize() int { return b.byteSize }

// SetByteSize sets the number of valid bytes. Panics if it exceeds the
// block's capacity, which would indicate a caller bug.
func (b *Buffer) SetByteSize(n int) {
	if n > cap(b.data) {
		panic("buffer: byte size exceeds capacity")
	}
	b.byteSize = n
}

// Cap returns the allocated capacity of the backing block.
func (b *Buffer) Cap() int { return cap(b.data) }

// Bytes returns the valid portion of the backing block.
func (b *Buffer) Bytes() []byte { return b.data[:b.byteSize] }

// Raw returns the full-capacity backing block for in-place writes by the
// producer before SetByteSize is called.
func (b *Buffer) Raw() []byte { return b.data[:cap(b.data)] }

// InfoTags returns the buffer's provenance tags.
func (b *Buffer) InfoTags() []InfoTag { return b.tags }

// AddTag appends an info tag to the buffer.
func (b *Buffer) AddTag(tag InfoTag) { b.tags = append(b.tags, tag) }

// Acquire increments the buffer's reference count. Used when a single
// produced buffer is pushed into more than one downstream port (e.g.
// Splitter fans a buffer's bytes out, but some elements share the handle
// directly).
func (b *Buffer) Acquire() { b.refs++ }

// Release decrements the buffer's reference count and returns the
// backing block to the allocator's free list once it reaches zero.
func (b *Buffer) Release() {
	b.refs--
	if b.refs > 0 {
		return
	}
	if b.alloc != nil {
		b.alloc.put(b)
	}
}

// CopyInfoTags appends src's tags to dst's tag list.
func CopyInfoTags(src, dst *Buffer) {
	dst.tags = append(dst.tags, src.tags...)
}

// CopyData memcopies src's valid bytes into dst and sets dst's byte size.
func CopyData(src, dst *Buffer) {
	n := copy(dst.Raw(), src.Bytes())
	dst.SetByteSize(n)
}

const (
	minBucket = 4096 // 4 KiB smallest pooled block
	maxBucket = 4 << 20 // 4 MiB largest pooled block; bigger requests fall back to direct allocation
)

// Allocator is a pool of power-of-two-sized free lists. It supplies
// capacity-sized blocks and is expected to keep allocation on the audio
// path amortised O(1). Requests larger than maxBucket still succeed via
// a direct, unpooled allocation. An optional byte budget lets callers
// exercise the OutOfMemory path deterministically in tests.
type Allocator struct {
	mu        sync.Mutex
	freeLists map[int][]*Buffer

	maxBytes     int64 // 0 == unlimited
	outstanding  int64
}

// NewAllocator creates an unbounded allocator.
func NewAllocator() *Allocator {
	return &Allocator{freeLists: make(map[int][]*Buffer)}
}

// NewBoundedAllocator creates an allocator that fails with
// audioerr.ErrOutOfMemory once outstanding (not yet released) bytes would
// exceed maxBytes.
func NewBoundedAllocator(maxBytes int64) *Allocator {
	a := NewAllocator()
	a.maxBytes = maxBytes
	return a
}

func bucketFor(size int) int {
	if size <= minBucket {
		return minBucket
	}
	b := minBucket
	for b < size {
		b <<= 1
	}
	return b
}

// Allocate returns a buffer with at least `size` bytes of capacity. The
// returned buffer's ByteSize is 0; callers must call SetByteSize once
// they know how much of the block is valid.
func (a *Allocator) Allocate(size int) (*Buffer, error) {
	if size < 0 {
		size = 0
	}

	bucket := bucketFor(size)
	direct := bucket > maxBucket

	a.mu.Lock()
	if a.maxBytes > 0 {
		want := int64(size)
		if !direct {
			want = int64(bucket)
		}
		if a.outstanding+want > a.maxBytes {
			a.mu.Unlock()
			return nil, audioerr.ErrOutOfMemory
		}
		a.outstanding += want
	}

	if direct {
		a.mu.Unlock()
		return &Buffer{data: make([]byte, size), alloc: a, bucket: -1, refs: 1}, nil
	}

	list := a.freeLists[bucket]
	if n := len(list); n > 0 {
		buf := list[n-1]
		a.freeLists[bucket] = list[:n-1]
		a.mu.Unlock()
		buf.byteSize = 0
		buf.tags = buf.tags[:0]
		buf.refs = 1
		return buf, nil
	}
	a.mu.Unlock()

	return &Buffer{data: make([]byte, bucket), alloc: a, bucket: bucket, refs: 1}, nil
}

func (a *Allocator) put(buf *Buffer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.maxBytes > 0 {
		size := int64(buf.bucket)
		if buf.bucket < 0 {
			size = int64(cap(buf.data))
		}
		a.outstanding -= size
		if a.outstanding < 0 {
			a.outstanding = 0
		}
	}
	if buf.bucket < 0 {
		return // direct allocations are not pooled
	}
	buf.tags = buf.tags[:0]
	buf.byteSize = 0
	a.freeLists[buf.bucket] = append(a.freeLists[buf.bucket], buf)
}
