package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the claim only when the caller still holds it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SessionRegistry marks live editing sessions in Redis so a second connection,
// on any instance, cannot drive the same attempt.
type SessionRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRegistry(client *redis.Client, ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{client: client, ttl: ttl}
}

// Claim takes the attempt for holder. Re-claiming by the current holder refreshes the TTL.
func (r *SessionRegistry) Claim(ctx context.Context, attemptID, holder string) (bool, error) {
	key := r.key(attemptID)
	ok, err := r.client.SetNX(ctx, key, holder, r.ttl).Result()
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	current, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return r.client.SetNX(ctx, key, holder, r.ttl).Result()
	}
	if err != nil {
		return false, err
	}
	if current != holder {
		return false, nil
	}
	return true, r.client.Expire(ctx, key, r.ttl).Err()
}

func (r *SessionRegistry) Release(ctx context.Context, attemptID, holder string) error {
	return releaseScript.Run(ctx, r.client, []string{r.key(attemptID)}, holder).Err()
}

func (r *SessionRegistry) key(attemptID string) string {
	return "attempt:session:" + attemptID
}
