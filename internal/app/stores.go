package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"mafiamadness/internal/config"
	"mafiamadness/internal/database"
	"mafiamadness/internal/repositories"
)

// Stores is the pair of repositories selected by DB_DRIVER.
type Stores struct {
	Users  repositories.UserRepository
	Games  repositories.GameRepository
	closer func() error
}

// Close releases the backend connection, if any.
func (s *Stores) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// OpenStores connects to the configured backend. SQL schemas and Mongo indexes are
// created on open so a fresh database is usable immediately. Driver logs go to logWriter.
func OpenStores(ctx context.Context, cfg *config.Config, logWriter io.Writer) (*Stores, error) {
	switch cfg.DBDriver {
	case "memory":
		slog.Warn("using in-memory store; data is lost on restart")
		return &Stores{
			Users: repositories.NewMockUserRepository(),
			Games: repositories.NewMockGameRepository(),
		}, nil

	case "sqlite", "postgres":
		db, err := database.OpenGORM(cfg.DBDriver, cfg.DatabaseDSN, logWriter)
		if err != nil {
			return nil, err
		}
		if err := repositories.AutoMigrate(db); err != nil {
			_ = database.CloseGORM(db)
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return &Stores{
			Users:  repositories.NewGORMUserRepository(db),
			Games:  repositories.NewGORMGameRepository(db),
			closer: func() error { return database.CloseGORM(db) },
		}, nil

	case "redis":
		client, err := database.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Users:  repositories.NewRedisUserRepository(client),
			Games:  repositories.NewRedisGameRepository(client),
			closer: client.Close,
		}, nil

	case "mongo":
		client, db, err := database.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		users := repositories.NewMongoUserRepository(db)
		if err := users.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("failed to create mongo indexes: %w", err)
		}
		return &Stores{
			Users:  users,
			Games:  repositories.NewMongoGameRepository(db),
			closer: func() error { return client.Disconnect(context.Background()) },
		}, nil
	}
	return nil, errors.New("unknown DB_DRIVER " + cfg.DBDriver)
}
