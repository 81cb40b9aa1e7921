package cache

import (
	"errors"
)

// Common errors for cache operations
var (
	// ErrEntryTooLarge is returned when a single entry exceeds a tier's byte budget.
	ErrEntryTooLarge = errors.New("entry too large for cache tier")

	// ErrCacheMiss is returned when an entry is not present in either tier.
	ErrCacheMiss = errors.New("cache miss")

	// ErrCorruptEntry is returned when a stored entry fails to decode.
	ErrCorruptEntry = errors.New("cache entry corrupted")

	// ErrInterrupted is returned by Commit when the playback interruption
	// signal was observed; the capture is discarded as if abandoned.
	ErrInterrupted = errors.New("synthesis interrupted")

	// ErrCaptureClosed is returned when a capture handle is used after it
	// reached a terminal state.
	ErrCaptureClosed = errors.New("capture already committed or abandoned")

	// ErrDisabled is returned by mutating operations when the cache is in
	// always-miss pass-through mode after a failed initialization.
	ErrDisabled = errors.New("cache disabled")
)

// Default byte budgets for the two tiers.
const (
	// DefaultRAMLimit is the default RAM tier budget (64MB).
	DefaultRAMLimit = 64 * 1024 * 1024

	// DefaultDiskLimit is the default disk tier budget (1GB).
	DefaultDiskLimit = 1024 * 1024 * 1024

	// compressMinSize is the smallest raw payload worth zstd-compressing
	// on disk. Below this the container overhead dominates.
	compressMinSize = 1024
)

// encoding identifies the representation of a stored payload.
type encoding uint8

const (
	// encPCM is raw 16-bit little-endian PCM.
	encPCM encoding = iota

	// encULaw is 8-bit mu-law companded PCM.
	encULaw
)

// Config holds the cache's tunable knobs. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	// Dir is the cache root directory for the disk tier.
	Dir string

	// RAMLimit and DiskLimit are the per-tier byte budgets.
	RAMLimit  int64
	DiskLimit int64

	// Codec enables mu-law 16->8 bit compaction. Both tiers then hold
	// encoded bytes and all accounting reflects the encoded size.
	Codec bool

	// Compression enables zstd for raw PCM disk entries. Ignored when
	// the codec is on; mu-law payloads are already compact.
	Compression bool
}

// DefaultConfig returns the default cache configuration. Dir is left
// empty; callers resolve it through the config package or an explicit
// override.
func DefaultConfig() Config {
	return Config{
		RAMLimit:    DefaultRAMLimit,
		DiskLimit:   DefaultDiskLimit,
		Codec:       false,
		Compression: true,
	}
}

// Stats holds counters for both tiers and the capture protocol.
type Stats struct {
	RAMHits    int64
	DiskHits   int64
	Misses     int64
	Promotions int64
	Commits    int64
	Abandons   int64

	RAMBytes   int64
	RAMEntries int64

	DiskBytes   int64
	DiskEntries int64

	RAMEvictions  int64
	DiskEvictions int64

	// Degraded reports always-miss pass-through mode.
	Degraded bool
}

// Outcome is the result category of a TryPlay probe.
type Outcome int

const (
	// OutcomeMiss means neither tier holds the phrase; the caller owns
	// the synthesis and should report it through a capture handle.
	OutcomeMiss Outcome = iota

	// OutcomeRAMHit means the phrase was served from the RAM tier.
	OutcomeRAMHit

	// OutcomeDiskHit means the phrase was read from disk and promoted
	// into the RAM tier.
	OutcomeDiskHit
)

// Hit reports whether the outcome served the phrase from a tier.
func (o Outcome) Hit() bool {
	return o != OutcomeMiss
}

// String returns the outcome name for logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeMiss:
		return "miss"
	case OutcomeRAMHit:
		return "ram-hit"
	case OutcomeDiskHit:
		return "disk-hit"
	default:
		return "unknown"
	}
}

// PlayResult is the closed variant returned by TryPlay. Samples is set
// only for hits.
type PlayResult struct {
	Key     Key
	Outcome Outcome
	Samples []int16
}

// Hit reports whether the probe found the phrase in either tier.
func (r PlayResult) Hit() bool {
	return r.Outcome.Hit()
}
