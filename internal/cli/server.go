package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/auth"
	"timed-quiz-service/internal/config"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/infra/events"
	"timed-quiz-service/internal/infra/memory"
	"timed-quiz-service/internal/infra/opentdb"
	"timed-quiz-service/internal/infra/postgres"
	redisinfra "timed-quiz-service/internal/infra/redis"
	"timed-quiz-service/internal/logger"
	"timed-quiz-service/internal/metrics"
	transport "timed-quiz-service/internal/transport/http"
	"timed-quiz-service/internal/trivia"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func newLogger(cfg config.Config) *zap.Logger {
	return logger.New(logger.Options{
		Debug:      cfg.Server.Mode == "debug",
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if portFlag != "" {
		cfg.Server.Port = portFlag
	}

	log := newLogger(cfg)
	defer log.Sync()
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	bus := events.NewBus(log)
	defer bus.Close()
	err = bus.SubscribeFinalized(ctx, func(_ context.Context, evt domain.AttemptFinalized) error {
		m.AttemptFinalized(evt.Percentage)
		log.Debug("attempt finalized event",
			zap.String("attempt_id", evt.AttemptID),
			zap.String("owner_id", evt.OwnerID),
			zap.Int("score", evt.Score))
		return nil
	})
	if err != nil {
		return err
	}

	attempts, closeStore, err := openAttemptStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := []app.Option{
		app.WithEvents(bus),
		app.WithRecorder(m),
		app.WithLogger(log),
	}
	history := app.NewHistoryLoader(attempts)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return err
		}
		log.Info("using redis", zap.String("addr", cfg.Redis.Addr))
		opts = append(opts,
			app.WithSessionRegistry(redisinfra.NewSessionRegistry(client, cfg.Redis.TTL)),
			app.WithSummaryCache(redisinfra.NewSummaryCache(client, history, cfg.Quiz.SummaryTTL)),
		)
	} else {
		opts = append(opts,
			app.WithSessionRegistry(memory.NewSessionRegistry()),
			app.WithSummaryCache(memory.NewSummaryCache(history, cfg.Quiz.SummaryTTL)),
		)
	}

	service := app.NewAttemptService(
		attempts,
		newSupplier(cfg),
		trivia.NewNormalizer(),
		app.Settings{
			QuestionCount: cfg.Quiz.QuestionCount,
			Duration:      cfg.Quiz.Duration,
			WarningAt:     cfg.Quiz.WarningAt,
		},
		opts...,
	)
	authn := auth.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	// live sockets renew their session claim well inside its TTL
	handler := transport.NewHandler(service, authn,
		transport.WithMetrics(m),
		transport.WithLogger(log),
		transport.WithLeaseRenewal(cfg.Redis.TTL/3))

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quiz service", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openAttemptStore picks Postgres when configured, migrating first, and memory otherwise.
func openAttemptStore(ctx context.Context, cfg config.Config, log *zap.Logger) (app.AttemptRepository, func(), error) {
	if cfg.Postgres.URL == "" {
		log.Warn("postgres not configured, attempts are kept in memory")
		return memory.NewAttemptStore(), func() {}, nil
	}
	pool, err := postgres.Connect(ctx, cfg.Postgres.URL, postgres.RetryPolicy{
		Attempts: cfg.Postgres.ConnectAttempts,
		Backoff:  cfg.Postgres.ConnectBackoff,
	}, log)
	if err != nil {
		return nil, nil, err
	}
	if err := runMigrations(ctx, cfg, log); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return postgres.NewAttemptStore(pool), pool.Close, nil
}

func newSupplier(cfg config.Config) app.TriviaSupplier {
	if cfg.Trivia.Offline {
		return memory.NewStaticSupplier(memory.SampleTrivia())
	}
	return opentdb.NewClient(opentdb.Options{
		BaseURL:     cfg.Trivia.BaseURL,
		Kind:        domain.TriviaKind(cfg.Trivia.Type),
		Timeout:     cfg.Trivia.Timeout,
		MinInterval: cfg.Trivia.MinInterval,
	})
}
