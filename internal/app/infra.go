package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/duynhne/sut-service/config"
	"github.com/duynhne/sut-service/internal/core"
	"github.com/duynhne/sut-service/internal/core/domain"
	"github.com/duynhne/sut-service/internal/core/repository"
	"github.com/duynhne/sut-service/internal/core/repository/memory"
	"github.com/rs/zerolog/log"
)

// Infra holds the session backend and the function that releases it.
type Infra struct {
	Sessions domain.SessionStore
	cleanup  func() error
}

// Close releases backend connections.
func (i *Infra) Close() error {
	if i.cleanup == nil {
		return nil
	}
	return i.cleanup()
}

func setupInfra(ctx context.Context, cfg *config.Config) (*Infra, error) {
	switch cfg.Session.Backend {
	case config.BackendMemory, "":
		log.Info().Str("backend", config.BackendMemory).Msg("Session store ready")
		return &Infra{Sessions: memory.NewSessionStore()}, nil

	case config.BackendRedis:
		client, err := core.NewRedis(ctx, cfg.Session.RedisAddr, cfg.Session.RedisPassword)
		if err != nil {
			return nil, fmt.Errorf("setup redis session store: %w", err)
		}
		log.Info().Str("backend", config.BackendRedis).Str("addr", cfg.Session.RedisAddr).Msg("Session store ready")
		return &Infra{
			Sessions: repository.NewRedisSessionStore(client, cfg.Session.RedisPrefix),
			cleanup:  client.Close,
		}, nil

	case config.BackendPostgres:
		pool, err := core.Connect(ctx, cfg.Session.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("setup postgres session store: %w", err)
		}
		store := repository.NewPgxSessionStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("setup postgres session store: %w", err)
		}
		log.Info().Str("backend", config.BackendPostgres).Msg("Session store ready")
		return &Infra{
			Sessions: store,
			cleanup: func() error {
				pool.Close()
				return nil
			},
		}, nil
	}

	return nil, errors.New("unsupported session backend: " + cfg.Session.Backend)
}
