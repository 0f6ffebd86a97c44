package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
	"github.com/vladislavdragonenkov/storefront/internal/storage/redis"
)

// stateDependencies — хранилища, выбранные драйвером состояния.
type stateDependencies struct {
	state  domain.KVStore
	outbox domain.OutboxRepository
	close  func() error
}

func initStateDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*stateDependencies, error) {
	switch cfg.StateDriver {
	case "", StateDriverMemory:
		logger.Info("using in-memory client state")
		return &stateDependencies{
			state:  memory.NewKVStore(),
			outbox: memory.NewOutboxRepository(),
			close:  func() error { return nil },
		}, nil

	case StateDriverRedis:
		client, err := redis.Open(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		logger.WithField("redis_addr", cfg.RedisAddr).Info("using redis client state")
		return &stateDependencies{
			state:  redis.NewKVStore(client, "", cfg.StateTTL),
			outbox: memory.NewOutboxRepository(),
			close:  client.Close,
		}, nil

	case StateDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres dsn is required for postgres state driver")
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN, postgres.WithMaxOpenConns(cfg.PostgresMaxConns))
		if err != nil {
			return nil, err
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, err
			}
		}
		logger.Info("using postgres client state and outbox")
		return &stateDependencies{
			state:  postgres.NewKVStore(store),
			outbox: postgres.NewOutboxRepository(store),
			close:  store.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported state driver %q", cfg.StateDriver)
	}
}
