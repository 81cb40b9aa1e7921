package cache

import (
	"sync"
)

// nilSlot marks the absence of a slot index in the arena lists.
const nilSlot = int32(-1)

// ramSlot is one arena cell. The access list is threaded through
// prev/next as slot indices rather than pointers, so there is no cyclic
// pointer structure to corrupt; freed cells chain through next.
type ramSlot struct {
	key     Key
	payload []byte
	enc     encoding
	prev    int32
	next    int32
}

// ramStore is the volatile tier: a fixed byte budget with O(1)
// lookup/insert/evict via a key index plus an arena-backed access list.
// Callers must treat returned payloads as immutable.
type ramStore struct {
	mu    sync.Mutex
	limit int64
	total int64

	index map[Key]int32
	slots []ramSlot
	free  int32 // head of the free-slot chain
	head  int32 // most recently used
	tail  int32 // least recently used

	hits      int64
	evictions int64
}

func newRAMStore(limit int64) *ramStore {
	return &ramStore{
		limit: limit,
		index: make(map[Key]int32),
		free:  nilSlot,
		head:  nilSlot,
		tail:  nilSlot,
	}
}

// get returns the payload for key and promotes it to the
// most-recently-used end of the access list.
func (r *ramStore) get(key Key) ([]byte, encoding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[key]
	if !ok {
		return nil, encPCM, false
	}

	r.unlink(i)
	r.pushFront(i)
	r.hits++
	return r.slots[i].payload, r.slots[i].enc, true
}

// put inserts or replaces the entry at the most-recently-used end,
// evicting from the least-recently-used end until the budget holds. An
// entry whose size alone exceeds the budget is not inserted; it stays
// disk-only rather than flushing every resident phrase.
func (r *ramStore) put(key Key, payload []byte, enc encoding) {
	size := int64(len(payload))

	r.mu.Lock()
	defer r.mu.Unlock()

	if i, ok := r.index[key]; ok {
		r.removeSlot(i)
	}

	if size > r.limit {
		return
	}

	for r.total+size > r.limit && r.tail != nilSlot {
		r.removeSlot(r.tail)
		r.evictions++
	}

	i := r.alloc()
	r.slots[i].key = key
	r.slots[i].payload = payload
	r.slots[i].enc = enc
	r.pushFront(i)
	r.index[key] = i
	r.total += size
}

// remove drops the entry for key if resident. Used to keep the tiers
// consistent when the disk tier evicts a key.
func (r *ramStore) remove(key Key) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i, ok := r.index[key]; ok {
		r.removeSlot(i)
	}
}

// evictAll releases every resident entry.
func (r *ramStore) evictAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.index = make(map[Key]int32)
	r.slots = r.slots[:0]
	r.free = nilSlot
	r.head = nilSlot
	r.tail = nilSlot
	r.total = 0
}

// contains reports residency without touching the access order.
func (r *ramStore) contains(key Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.index[key]
	return ok
}

func (r *ramStore) bytes() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

func (r *ramStore) entries() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.index))
}

// fillStats copies the RAM tier counters into s.
func (r *ramStore) fillStats(s *Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s.RAMHits = r.hits
	s.RAMEvictions = r.evictions
	s.RAMBytes = r.total
	s.RAMEntries = int64(len(r.index))
}

// alloc takes a slot from the free chain, growing the arena only when
// the chain is empty. Caller holds the lock.
func (r *ramStore) alloc() int32 {
	if r.free != nilSlot {
		i := r.free
		r.free = r.slots[i].next
		return i
	}
	r.slots = append(r.slots, ramSlot{})
	return int32(len(r.slots) - 1)
}

// removeSlot unlinks slot i, releases its payload, and returns the cell
// to the free chain. Caller holds the lock.
func (r *ramStore) removeSlot(i int32) {
	r.unlink(i)
	delete(r.index, r.slots[i].key)
	r.total -= int64(len(r.slots[i].payload))
	r.slots[i].payload = nil
	r.slots[i].next = r.free
	r.slots[i].prev = nilSlot
	r.free = i
}

// unlink detaches slot i from the access list. Caller holds the lock.
func (r *ramStore) unlink(i int32) {
	s := &r.slots[i]
	if s.prev != nilSlot {
		r.slots[s.prev].next = s.next
	} else if r.head == i {
		r.head = s.next
	}
	if s.next != nilSlot {
		r.slots[s.next].prev = s.prev
	} else if r.tail == i {
		r.tail = s.prev
	}
	s.prev = nilSlot
	s.next = nilSlot
}

// pushFront makes slot i the most recently used. Caller holds the lock.
func (r *ramStore) pushFront(i int32) {
	r.slots[i].prev = nilSlot
	r.slots[i].next = r.head
	if r.head != nilSlot {
		r.slots[r.head].prev = i
	}
	r.head = i
	if r.tail == nilSlot {
		r.tail = i
	}
}
