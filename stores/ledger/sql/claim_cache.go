package sql

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/atomledger/atomengine/model"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/jellydator/ttlcache/v3"
)

// claimCache remembers spun particles known to exist. Only positive answers are cached:
// a claim can only disappear through DeleteAtom, which invalidates the whole cache.
//
// Every invalidation bumps a generation counter. A lookup captures the generation
// before it queries the database and only caches its answer if no invalidation
// happened in between, so an Exists racing a DeleteAtom cannot resurrect a claim.
// mu makes the generation check and the write one step against invalidate.
type claimCache struct {
	ttl        time.Duration
	items      *ttlcache.Cache[chainhash.Hash, struct{}]
	mu         sync.Mutex
	generation uint64
	stopped    atomic.Bool
}

func newClaimCache(ttl time.Duration) *claimCache {
	c := &claimCache{
		ttl: ttl,
		items: ttlcache.New[chainhash.Hash, struct{}](
			ttlcache.WithDisableTouchOnHit[chainhash.Hash, struct{}](),
		),
	}

	go c.items.Start()

	return c
}

func claimCacheKey(sp model.SpunParticle) chainhash.Hash {
	id := sp.ParticleID()

	buf := make([]byte, 0, chainhash.HashSize+1)
	buf = append(buf, id[:]...)
	buf = append(buf, byte(sp.Spin))

	return chainhash.HashH(buf)
}

type claimLookup struct {
	cache      *claimCache
	key        chainhash.Hash
	generation uint64
}

func (c *claimCache) begin(sp model.SpunParticle) *claimLookup {
	c.mu.Lock()
	generation := c.generation
	c.mu.Unlock()

	return &claimLookup{
		cache:      c,
		key:        claimCacheKey(sp),
		generation: generation,
	}
}

func (l *claimLookup) hit() bool {
	return l.cache.items.Get(l.key) != nil
}

// remember caches the claim unless the cache was invalidated since begin.
func (l *claimLookup) remember() bool {
	l.cache.mu.Lock()
	defer l.cache.mu.Unlock()

	if l.generation != l.cache.generation {
		return false
	}

	l.cache.items.Set(l.key, struct{}{}, l.cache.ttl)

	return true
}

func (c *claimCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.items.DeleteAll()
}

func (c *claimCache) stop() {
	if c.stopped.CompareAndSwap(false, true) {
		c.items.Stop()
	}
}
