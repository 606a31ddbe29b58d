package main

import (
	"context"
	"fmt"

	"github.com/mcdev12/turingchat/go/internal/store"
	"github.com/rs/zerolog/log"
)

// setupStore picks the persistence backend. With STORE_BACKEND=memory (the
// dev default when no DB_HOST is set) conversations live only in process.
func setupStore(ctx context.Context) (store.Store, func(), error) {
	backend := getEnv("STORE_BACKEND", "")
	if backend == "" {
		if getEnv("DB_HOST", "") == "" {
			backend = "memory"
		} else {
			backend = "postgres"
		}
	}

	switch backend {
	case "memory":
		log.Warn().Msg("using in-memory store; conversations will not survive a restart")
		return store.NewMemory(), func() {}, nil

	case "postgres":
		dbConfig := DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Database: getEnv("DB_NAME", "turingchat"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		}

		pg, err := store.NewPostgres(ctx, dbConfig.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("connected to database")
		return pg, pg.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend: %s", backend)
	}
}
