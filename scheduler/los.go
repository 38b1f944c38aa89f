package scheduler

import (
	"bytes"
	"sync"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
)

// losCache remembers recent line-of-sight query results per actor pair. AI
// queries the same pairs every frame; geometry rarely changes between steps,
// so answers stay valid for a few epochs.
type losCache struct {
	mu      sync.Mutex
	entries map[uint64]losEntry
	ttl     uint64
}

type losEntry struct {
	visible bool
	epoch   uint64
}

func newLOSCache(ttl uint64) *losCache {
	if ttl == 0 {
		ttl = 1
	}
	return &losCache{entries: make(map[uint64]losEntry), ttl: ttl}
}

// losKey hashes an unordered actor pair; A-sees-B and B-sees-A share a slot.
func losKey(a, b uuid.UUID) uint64 {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	var buf [32]byte
	copy(buf[:16], a[:])
	copy(buf[16:], b[:])
	return xxh3.Hash(buf[:])
}

func (c *losCache) get(a, b uuid.UUID, epoch uint64) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[losKey(a, b)]
	if !ok || epoch-e.epoch >= c.ttl {
		return false, false
	}
	return e.visible, true
}

func (c *losCache) put(a, b uuid.UUID, epoch uint64, visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[losKey(a, b)] = losEntry{visible: visible, epoch: epoch}
}

// prune drops entries whose epoch has aged past the ttl.
func (c *losCache) prune(epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if epoch-e.epoch >= c.ttl {
			delete(c.entries, k)
		}
	}
}

func (c *losCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64]losEntry)
}
