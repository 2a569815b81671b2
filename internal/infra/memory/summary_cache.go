package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
)

// SummaryCache caches per-owner history summaries with TTL to avoid re-scoring every attempt.
type SummaryCache struct {
	loader app.SummaryLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedSummary
	// gen is bumped by Invalidate; a load only lands if gen is unchanged.
	gen map[string]uint64
}

type cachedSummary struct {
	summary   domain.Summary
	expiresAt time.Time
}

func NewSummaryCache(loader app.SummaryLoader, ttl time.Duration) *SummaryCache {
	return &SummaryCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedSummary),
		gen:    make(map[string]uint64),
	}
}

func (c *SummaryCache) GetSummary(ctx context.Context, ownerID string) (domain.Summary, error) {
	if entry, ok := c.lookup(ownerID); ok {
		return entry, nil
	}

	result, err, _ := c.sf.Do(ownerID, func() (interface{}, error) {
		if entry, ok := c.lookup(ownerID); ok {
			return entry, nil
		}

		c.mu.RLock()
		gen := c.gen[ownerID]
		c.mu.RUnlock()

		now := c.clock()
		summary, err := c.loader.LoadSummary(ctx, ownerID)
		if err != nil {
			return domain.Summary{}, err
		}

		c.mu.Lock()
		if c.gen[ownerID] == gen {
			c.cache[ownerID] = cachedSummary{
				summary:   summary,
				expiresAt: now.Add(c.ttlWithJitter()),
			}
		}
		c.mu.Unlock()
		return summary, nil
	})
	if err != nil {
		return domain.Summary{}, err
	}
	return result.(domain.Summary), nil
}

func (c *SummaryCache) Invalidate(_ context.Context, ownerID string) error {
	c.mu.Lock()
	delete(c.cache, ownerID)
	c.gen[ownerID]++
	c.mu.Unlock()
	c.sf.Forget(ownerID)
	return nil
}

func (c *SummaryCache) lookup(ownerID string) (domain.Summary, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[ownerID]
	if !ok || !entry.expiresAt.After(now) {
		return domain.Summary{}, false
	}
	return entry.summary, true
}

func (c *SummaryCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
