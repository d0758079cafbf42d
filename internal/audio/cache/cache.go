// Package cache implements the two process-wide caches shared by every
// FileSource element: a PCM cache that lets repeated playback of the
// same source skip codec decoding entirely once fully decoded once, and
// a file-info cache that lets Prepare skip opening the codec up front
// when the format was already discovered. Both are keyed by FileSource
// id / file path and guarded by an explicit mutex, since Prepare can
// run from more than one goroutine.
package cache

import (
	"sync"

	"github.com/drgolem/musictools/internal/audio/format"
)

// PCMBlob is a fully or partially decoded raw PCM blob shared between a
// FileSource instance and any later instance constructed with the same
// id. Complete is set once no further decoding will append to Data.
type PCMBlob struct {
	mu       sync.Mutex
	Complete bool
	Format   format.Format
	Frames   uint64
	Data     []byte
}

// Append adds decoded bytes to the blob. Safe for concurrent use with
// Finish and Snapshot, though in practice only the owning FileSource
// ever appends.
func (b *PCMBlob) Append(p []byte) {
	b.mu.Lock()
	b.Data = append(b.Data, p...)
	b.mu.Unlock()
}

// Finish marks the blob complete; no further Append calls are expected.
func (b *PCMBlob) Finish() {
	b.mu.Lock()
	b.Complete = true
	b.mu.Unlock()
}

// Snapshot returns whether the blob is complete and, if so, a read-only
// view of the decoded bytes (the caller must not retain across an
// Append, hence this is only meaningful when Complete is true).
func (b *PCMBlob) Snapshot() (complete bool, data []byte, f format.Format, frames uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Complete, b.Data, b.Format, b.Frames
}

// FileInfo is the format/length information discovered by opening a
// source file's codec once.
type FileInfo struct {
	SampleRate int
	Channels   int
	Frames     uint64
}

// Cache bundles the PCM and file-info caches behind one mutex.
type Cache struct {
	mu       sync.Mutex
	pcm      map[string]*PCMBlob // keyed by FileSource id
	fileInfo map[string]FileInfo // keyed by file path
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{
		pcm:      make(map[string]*PCMBlob),
		fileInfo: make(map[string]FileInfo),
	}
}

// LookupPCM returns the PCM blob registered for id, if any.
func (c *Cache) LookupPCM(id string) (*PCMBlob, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.pcm[id]
	return b, ok
}

// RegisterPCM installs a new, empty PCM blob for id unless one already
// exists, returning whichever blob ends up registered.
func (c *Cache) RegisterPCM(id string, f format.Format) *PCMBlob {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.pcm[id]; ok {
		return b
	}
	b := &PCMBlob{Format: f}
	c.pcm[id] = b
	return b
}

// LookupFileInfo returns the previously discovered format/length for a
// file path, if known.
func (c *Cache) LookupFileInfo(path string) (FileInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	info, ok := c.fileInfo[path]
	return info, ok
}

// StoreFileInfo records the format/length discovered for a file path.
func (c *Cache) StoreFileInfo(path string, info FileInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fileInfo[path] = info
}

// Clear empties both caches.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pcm = make(map[string]*PCMBlob)
	c.fileInfo = make(map[string]FileInfo)
}
