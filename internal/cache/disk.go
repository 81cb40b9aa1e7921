package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Entry filename extensions. The extension records how the payload was
// written so entries from earlier configurations remain readable.
const (
	extPCM  = ".pcm"  // raw 16-bit little-endian PCM
	extULaw = ".ulaw" // mu-law companded payload
	extZstd = ".zst"  // zstd-compressed raw PCM
	extTemp = ".tmp"  // in-flight write, never a valid entry
)

// diskEntry is the in-memory bookkeeping for one cache file.
type diskEntry struct {
	key        Key
	ext        string
	size       int64
	lastAccess time.Time
}

// diskStore is the durable tier: one file per key under the cache root,
// sized against a byte budget and evicted least-recently-accessed
// first. All mutation happens under a single lock so the budget
// invariant holds at the return of every store call.
type diskStore struct {
	mu    sync.Mutex
	dir   string
	limit int64
	total int64

	entries map[Key]*diskEntry

	compression bool
	encoder     *zstd.Encoder
	decoder     *zstd.Decoder

	hits      int64
	evictions int64
}

// newDiskStore ensures the cache root exists and builds the index by
// scanning it: file sizes sum into the running total and modification
// times seed the access ordering. Stale temp files from an interrupted
// write are removed. Fails only on unrecoverable filesystem errors.
func newDiskStore(dir string, limit int64, compression bool) (*diskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache root: %w", err)
	}

	d := &diskStore{
		dir:         dir,
		limit:       limit,
		entries:     make(map[Key]*diskEntry),
		compression: compression,
	}

	if compression {
		var err error
		d.encoder, err = zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
	}
	// The decoder is always available: compressed entries written by an
	// earlier configuration must stay readable.
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	d.decoder = decoder

	if err := d.scan(); err != nil {
		return nil, fmt.Errorf("scan cache root: %w", err)
	}
	return d, nil
}

// scan builds the index from the directory contents.
func (d *diskStore) scan() error {
	dirents, err := os.ReadDir(d.dir)
	if err != nil {
		return err
	}

	for _, ent := range dirents {
		if ent.IsDir() {
			continue
		}
		name := ent.Name()
		if strings.HasSuffix(name, extTemp) {
			os.Remove(filepath.Join(d.dir, name))
			continue
		}
		key, ext, ok := parseEntryName(name)
		if !ok {
			continue
		}
		info, err := ent.Info()
		if err != nil {
			continue
		}
		d.entries[key] = &diskEntry{
			key:        key,
			ext:        ext,
			size:       info.Size(),
			lastAccess: info.ModTime(),
		}
		d.total += info.Size()
	}
	return nil
}

// parseEntryName splits an entry filename into its key and extension.
func parseEntryName(name string) (Key, string, bool) {
	dot := strings.IndexByte(name, '.')
	if dot != 8 {
		return 0, "", false
	}
	ext := name[dot:]
	if ext != extPCM && ext != extULaw && ext != extZstd {
		return 0, "", false
	}
	v, err := strconv.ParseUint(name[:8], 16, 32)
	if err != nil {
		return 0, "", false
	}
	return Key(v), ext, true
}

func (d *diskStore) path(key Key, ext string) string {
	return filepath.Join(d.dir, key.String()+ext)
}

// lookup reads the entry for key, returning the tier payload and its
// encoding. A read or decompression failure is treated as a miss and
// the offending file is deleted so the cache self-heals. A hit updates
// the entry's access time, on disk as well so the LRU ordering survives
// restarts.
func (d *diskStore) lookup(key Key) ([]byte, encoding, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ent, ok := d.entries[key]
	if !ok {
		return nil, encPCM, false
	}

	path := d.path(key, ent.ext)
	data, err := os.ReadFile(path)
	if err != nil || int64(len(data)) != ent.size {
		d.dropLocked(ent)
		return nil, encPCM, false
	}

	enc := encPCM
	switch ent.ext {
	case extULaw:
		enc = encULaw
	case extZstd:
		raw, err := d.decoder.DecodeAll(data, nil)
		if err != nil {
			d.dropLocked(ent)
			return nil, encPCM, false
		}
		data = raw
	}

	now := time.Now()
	ent.lastAccess = now
	os.Chtimes(path, now, now)

	d.hits++
	return data, enc, true
}

// store writes the payload for key, evicting least-recently-accessed
// entries until the budget holds, and returns the keys it evicted so
// the caller can drop their RAM copies. The file lands via a temp path
// and an atomic rename, so a crash mid-write can never leave a
// truncated entry visible to lookups. Overwriting an existing key never
// double-counts its size.
func (d *diskStore) store(key Key, payload []byte, enc encoding) ([]Key, error) {
	ext := extPCM
	data := payload
	switch {
	case enc == encULaw:
		ext = extULaw
	case d.compression && len(payload) >= compressMinSize:
		compressed := d.encoder.EncodeAll(payload, nil)
		if len(compressed) < len(payload) {
			ext = extZstd
			data = compressed
		}
	}
	size := int64(len(data))

	d.mu.Lock()
	defer d.mu.Unlock()

	if size > d.limit {
		return nil, ErrEntryTooLarge
	}

	if old, ok := d.entries[key]; ok {
		d.dropLocked(old)
	}

	var evicted []Key
	for d.total+size > d.limit {
		victim := d.oldestLocked()
		if victim == nil {
			break
		}
		d.dropLocked(victim)
		d.evictions++
		evicted = append(evicted, victim.key)
	}

	path := d.path(key, ext)
	if err := atomicWrite(path, data); err != nil {
		return evicted, fmt.Errorf("write cache entry: %w", err)
	}

	d.entries[key] = &diskEntry{
		key:        key,
		ext:        ext,
		size:       size,
		lastAccess: time.Now(),
	}
	d.total += size
	return evicted, nil
}

// oldestLocked picks the least-recently-accessed entry; ties break by
// ascending key so eviction is deterministic. Caller holds the lock.
func (d *diskStore) oldestLocked() *diskEntry {
	var victim *diskEntry
	for _, ent := range d.entries {
		if victim == nil ||
			ent.lastAccess.Before(victim.lastAccess) ||
			(ent.lastAccess.Equal(victim.lastAccess) && ent.key < victim.key) {
			victim = ent
		}
	}
	return victim
}

// dropLocked removes the entry's file and bookkeeping. Caller holds the
// lock.
func (d *diskStore) dropLocked(ent *diskEntry) {
	os.Remove(d.path(ent.key, ent.ext))
	delete(d.entries, ent.key)
	d.total -= ent.size
}

// remove deletes the entry for key, if present.
func (d *diskStore) remove(key Key) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if ent, ok := d.entries[key]; ok {
		d.dropLocked(ent)
	}
}

// clear deletes every entry and resets the total to zero.
func (d *diskStore) clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	keys := make([]Key, 0, len(d.entries))
	for key := range d.entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var firstErr error
	for _, key := range keys {
		ent := d.entries[key]
		if err := os.Remove(d.path(ent.key, ent.ext)); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	d.entries = make(map[Key]*diskEntry)
	d.total = 0
	return firstErr
}

// contains reports presence without touching access times.
func (d *diskStore) contains(key Key) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, ok := d.entries[key]
	return ok
}

func (d *diskStore) bytes() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.total
}

// fillStats copies the disk tier counters into s.
func (d *diskStore) fillStats(s *Stats) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s.DiskHits = d.hits
	s.DiskEvictions = d.evictions
	s.DiskBytes = d.total
	s.DiskEntries = int64(len(d.entries))
}

// close releases the zstd contexts.
func (d *diskStore) close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.encoder != nil {
		d.encoder.Close()
		d.encoder = nil
	}
	if d.decoder != nil {
		d.decoder.Close()
		d.decoder = nil
	}
}

// atomicWrite lands data at path through a temp file and a rename.
func atomicWrite(path string, data []byte) error {
	tmp := path + extTemp

	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	_, werr := f.Write(data)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmp)
		if werr != nil {
			return werr
		}
		return cerr
	}
	return os.Rename(tmp, path)
}
