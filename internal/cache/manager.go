package cache

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// Manager is the public entry point of the speech cache. It owns both
// tiers, implements the RAM -> Disk -> miss lookup chain with
// promotion, and runs the capture/commit protocol for misses.
//
// If the disk tier fails to initialize the Manager degrades to an
// always-miss pass-through: every probe misses, commits are discarded,
// and the host keeps speaking with caching effectively disabled.
type Manager struct {
	cfg    Config
	logger *log.Logger

	ram  *ramStore
	disk *diskStore // nil in degraded mode

	closed atomic.Bool

	promotions int64
	commits    int64
	abandons   int64
	misses     int64
}

// New builds a Manager for cfg. A disk initialization failure is
// reported once through the returned error; the Manager itself is still
// usable and behaves as an always-miss pass-through.
func New(cfg Config, logger *log.Logger) (*Manager, error) {
	if logger == nil {
		logger = log.Default()
	}

	m := &Manager{
		cfg:    cfg,
		logger: logger,
		ram:    newRAMStore(cfg.RAMLimit),
	}

	// Mu-law payloads are already 2:1; zstd on top buys nothing.
	compression := cfg.Compression && !cfg.Codec

	disk, err := newDiskStore(cfg.Dir, cfg.DiskLimit, compression)
	if err != nil {
		logger.Error("speech cache disabled", "dir", cfg.Dir, "error", err)
		return m, fmt.Errorf("init disk tier: %w", err)
	}
	m.disk = disk

	logger.Debug("speech cache ready",
		"dir", cfg.Dir,
		"disk_bytes", disk.bytes(),
		"disk_limit", cfg.DiskLimit,
		"ram_limit", cfg.RAMLimit,
		"codec", cfg.Codec)
	return m, nil
}

// degraded reports whether the Manager is in always-miss mode.
func (m *Manager) degraded() bool {
	return m.disk == nil || m.closed.Load()
}

// TryPlay probes the cache for text. On a RAM hit the samples come back
// directly; on a disk hit the payload is promoted into RAM first. A
// miss carries the key the caller needs for BeginCapture.
func (m *Manager) TryPlay(text string) PlayResult {
	key := Fingerprint(text)
	res := PlayResult{Key: key, Outcome: OutcomeMiss}

	if m.degraded() {
		return res
	}

	if payload, enc, ok := m.ram.get(key); ok {
		samples, err := decodePayload(payload, enc)
		if err == nil {
			res.Outcome = OutcomeRAMHit
			res.Samples = samples
			return res
		}
		// Never surface a corrupt payload; fall through to disk.
		m.logger.Warn("corrupt ram entry dropped", "key", key)
		m.ram.remove(key)
	}

	if payload, enc, ok := m.disk.lookup(key); ok {
		samples, err := decodePayload(payload, enc)
		if err != nil {
			m.logger.Warn("corrupt disk entry dropped", "key", key)
			m.disk.remove(key)
		} else {
			m.ram.put(key, payload, enc)
			atomic.AddInt64(&m.promotions, 1)
			res.Outcome = OutcomeDiskHit
			res.Samples = samples
			return res
		}
	}

	atomic.AddInt64(&m.misses, 1)
	return res
}

// Release returns a samples buffer obtained from TryPlay once playback
// is done with it. The buffer must not be used afterwards.
func (m *Manager) Release(samples []int16) {
	// Decoded buffers are independent allocations; nothing to reclaim
	// beyond letting the GC have them. Kept as an explicit ownership
	// boundary in the API.
	_ = samples
}

// Clear deletes every entry from both tiers.
func (m *Manager) Clear() error {
	m.ram.evictAll()
	if m.degraded() {
		return ErrDisabled
	}
	return m.disk.clear()
}

// Cleanup releases in-memory state without touching disk entries. The
// Manager is spent afterwards; probes miss and commits are discarded.
func (m *Manager) Cleanup() {
	if m.closed.Swap(true) {
		return
	}
	m.ram.evictAll()
	if m.disk != nil {
		m.disk.close()
	}
}

// Stats returns a snapshot of both tiers and the capture counters.
func (m *Manager) Stats() Stats {
	var s Stats
	m.ram.fillStats(&s)
	if m.disk != nil {
		m.disk.fillStats(&s)
	}
	s.Promotions = atomic.LoadInt64(&m.promotions)
	s.Commits = atomic.LoadInt64(&m.commits)
	s.Abandons = atomic.LoadInt64(&m.abandons)
	s.Misses += atomic.LoadInt64(&m.misses)
	s.Degraded = m.degraded()
	return s
}

// captureState tracks the single transition a capture may make.
type captureState int

const (
	captureOpen captureState = iota
	captureCommitted
	captureAbandoned
)

// Capture accumulates the PCM chunks of one synthesis attempt. The
// owner of a cache miss appends each chunk as it is forwarded to
// playback, then resolves the handle exactly once: Commit persists the
// buffer to both tiers, Abandon discards it.
type Capture struct {
	m           *Manager
	key         Key
	interrupted func() bool

	mu    sync.Mutex
	state captureState
	buf   []int16
}

// BeginCapture opens a capture handle for key. interrupted is consulted
// one final time inside Commit, so a cancellation that lands after the
// last chunk still discards the buffer; it may be nil.
func (m *Manager) BeginCapture(key Key, interrupted func() bool) *Capture {
	return &Capture{m: m, key: key, interrupted: interrupted}
}

// Append adds a chunk of synthesized samples to the capture buffer.
func (c *Capture) Append(chunk []int16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != captureOpen {
		return ErrCaptureClosed
	}
	c.buf = append(c.buf, chunk...)
	return nil
}

// Len returns the number of samples captured so far.
func (c *Capture) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buf)
}

// Commit persists the captured audio to disk and RAM. It must be called
// only after synthesis ran to completion; if the interruption signal is
// set by the time Commit runs, the buffer is discarded and
// ErrInterrupted comes back, so a partial or unconfirmed phrase never
// enters the cache. Commit is the only path that creates a cache entry.
func (c *Capture) Commit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != captureOpen {
		return ErrCaptureClosed
	}

	if c.interrupted != nil && c.interrupted() {
		c.state = captureAbandoned
		c.buf = nil
		atomic.AddInt64(&c.m.abandons, 1)
		return ErrInterrupted
	}

	c.state = captureCommitted
	buf := c.buf
	c.buf = nil

	m := c.m
	if m.degraded() {
		return ErrDisabled
	}

	enc := encPCM
	if m.cfg.Codec {
		enc = encULaw
	}
	payload := encodePayload(buf, enc)

	// Disk first, then RAM, all before Commit returns: the lock
	// hand-offs inside the tiers give any later TryPlay for this key a
	// fully visible entry.
	evicted, err := m.disk.store(c.key, payload, enc)
	for _, k := range evicted {
		m.ram.remove(k)
	}
	switch err {
	case nil:
	case ErrEntryTooLarge:
		m.logger.Debug("entry exceeds disk budget, not stored",
			"key", c.key, "bytes", len(payload))
	default:
		m.logger.Warn("disk store failed", "key", c.key, "error", err)
	}

	m.ram.put(c.key, payload, enc)
	atomic.AddInt64(&m.commits, 1)

	m.logger.Debug("capture committed",
		"key", c.key, "samples", len(buf), "bytes", len(payload))
	return nil
}

// Abandon discards the capture buffer; nothing reaches either tier. It
// always succeeds and is a no-op once the handle is resolved.
func (c *Capture) Abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != captureOpen {
		return
	}
	c.state = captureAbandoned
	c.buf = nil
	atomic.AddInt64(&c.m.abandons, 1)
}
