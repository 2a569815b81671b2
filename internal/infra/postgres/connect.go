package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"

	"timed-quiz-service/internal/domain"
)

// RetryPolicy bounds connection establishment: a fixed number of attempts with a
// growing wait between them.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// Connect opens and pings a pool, retrying per policy.
func Connect(ctx context.Context, url string, policy RetryPolicy, log *zap.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}

	var pool *pgxpool.Pool
	err = retry(ctx, policy, log, func(ctx context.Context) error {
		p, err := pgxpool.ConnectConfig(ctx, cfg)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

func retry(ctx context.Context, policy RetryPolicy, log *zap.Logger, op func(context.Context) error) error {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = policy.Backoff
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = 30 * time.Second
	exp.MaxElapsedTime = 0
	exp.Reset()

	tries := 0
	err := backoff.RetryNotify(
		func() error {
			tries++
			return op(ctx)
		},
		backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx),
		func(err error, wait time.Duration) {
			log.Warn("postgres connect attempt failed",
				zap.Int("attempt", tries),
				zap.Int("max_attempts", attempts),
				zap.Duration("retry_in", wait),
				zap.Error(err))
		},
	)
	if err != nil {
		return fmt.Errorf("%w: connect after %d attempts: %v", domain.ErrPersistence, tries, err)
	}
	log.Info("postgres connected", zap.Int("attempt", tries))
	return nil
}
