package redis

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
)

// SummaryCache caches owner summaries in Redis (hash per owner) and falls back to a loader on miss.
// Layout: HSET summary:{ownerID} totalAttempts .. bestPercentage
// summary:{ownerID}:version is bumped by Invalidate; a load is only written back under an unchanged version.
type SummaryCache struct {
	client *redis.Client
	loader app.SummaryLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewSummaryCache(client *redis.Client, loader app.SummaryLoader, ttl time.Duration) *SummaryCache {
	return &SummaryCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *SummaryCache) GetSummary(ctx context.Context, ownerID string) (domain.Summary, error) {
	key := c.key(ownerID)
	if fields, err := c.client.HGetAll(ctx, key).Result(); err == nil && len(fields) > 0 {
		if summary, ok := summaryFromHash(fields); ok {
			return summary, nil
		}
	}

	result, err, _ := c.sf.Do(ownerID, func() (interface{}, error) {
		// Re-check in case another instance filled it.
		if fields, err := c.client.HGetAll(ctx, key).Result(); err == nil && len(fields) > 0 {
			if summary, ok := summaryFromHash(fields); ok {
				return summary, nil
			}
		}

		version, versionErr := c.version(ctx, c.client, ownerID)
		summary, err := c.loader.LoadSummary(ctx, ownerID)
		if err != nil {
			return domain.Summary{}, err
		}
		if versionErr == nil {
			c.store(ctx, ownerID, version, summary)
		}
		return summary, nil
	})
	if err != nil {
		return domain.Summary{}, err
	}
	return result.(domain.Summary), nil
}

// store writes the summary only if no Invalidate ran since version was read.
// A lost race just skips the write; the next read reloads.
func (c *SummaryCache) store(ctx context.Context, ownerID string, version int64, summary domain.Summary) {
	key := c.key(ownerID)
	_ = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := c.version(ctx, tx, ownerID)
		if err != nil || current != version {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.HSet(ctx, key, summaryToHash(summary))
			if ttl := c.ttlWithJitter(); ttl > 0 {
				pipe.Expire(ctx, key, ttl)
			}
			return nil
		})
		return err
	}, c.versionKey(ownerID))
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (c *SummaryCache) version(ctx context.Context, g getter, ownerID string) (int64, error) {
	v, err := g.Get(ctx, c.versionKey(ownerID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

func (c *SummaryCache) Invalidate(ctx context.Context, ownerID string) error {
	c.sf.Forget(ownerID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.versionKey(ownerID))
		pipe.Del(ctx, c.key(ownerID))
		return nil
	})
	return err
}

func (c *SummaryCache) key(ownerID string) string {
	return "summary:" + ownerID
}

func (c *SummaryCache) versionKey(ownerID string) string {
	return "summary:" + ownerID + ":version"
}

func (c *SummaryCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

var summaryFields = []string{
	"totalAttempts",
	"openAttempts",
	"totalCorrect",
	"totalAttempted",
	"totalQuestions",
	"averageCorrect",
	"averagePercentage",
	"bestPercentage",
}

func summaryToHash(s domain.Summary) map[string]interface{} {
	values := summaryValues(&s)
	out := make(map[string]interface{}, len(values))
	for i, name := range summaryFields {
		out[name] = *values[i]
	}
	return out
}

// summaryFromHash treats a hash with a missing or malformed field as a miss.
func summaryFromHash(fields map[string]string) (domain.Summary, bool) {
	var s domain.Summary
	values := summaryValues(&s)
	for i, name := range summaryFields {
		raw, ok := fields[name]
		if !ok {
			return domain.Summary{}, false
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return domain.Summary{}, false
		}
		*values[i] = n
	}
	return s, true
}

func summaryValues(s *domain.Summary) []*int {
	return []*int{
		&s.TotalAttempts,
		&s.OpenAttempts,
		&s.TotalCorrect,
		&s.TotalAttempted,
		&s.TotalQuestions,
		&s.AverageCorrect,
		&s.AveragePercentage,
		&s.BestPercentage,
	}
}
