package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rxpad/rxpad/internal/config"
	"github.com/rxpad/rxpad/internal/domain/catalog"
	"github.com/rxpad/rxpad/internal/domain/identity"
	"github.com/rxpad/rxpad/internal/domain/prescription"
	"github.com/rxpad/rxpad/internal/platform/auth"
	"github.com/rxpad/rxpad/internal/platform/db"
	"github.com/rxpad/rxpad/internal/platform/mongostore"
)

// store bundles the repositories of whichever backend STORE_DRIVER selects.
type store struct {
	driver        string
	pinger        db.Pinger
	catalog       catalog.Repositories
	prescriptions prescription.Repository
	users         identity.UserRepository
	close         func()
}

func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*store, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, poolOptions(cfg))
		if err != nil {
			return nil, err
		}
		logger.Info().Str("driver", cfg.StoreDriver).Msg("connected to database")
		return &store{
			driver:        cfg.StoreDriver,
			pinger:        pool,
			catalog:       catalog.NewRepositoriesPG(pool),
			prescriptions: prescription.NewRepoPG(pool),
			users:         identity.NewUserRepoPG(pool),
			close:         pool.Close,
		}, nil

	case config.StoreMongo:
		ms, err := mongostore.Connect(ctx, cfg.MongoURL, cfg.MongoDBName)
		if err != nil {
			return nil, err
		}

		var specs []mongostore.IndexSpec
		specs = append(specs, identity.MongoIndexes()...)
		specs = append(specs, prescription.MongoIndexes()...)
		specs = append(specs, catalog.MongoIndexes()...)
		if err := ms.EnsureIndexes(ctx, specs); err != nil {
			_ = ms.Close(context.Background())
			return nil, err
		}
		logger.Info().Str("driver", cfg.StoreDriver).Str("database", cfg.MongoDBName).Msg("connected to database")

		database := ms.Database()
		return &store{
			driver:        cfg.StoreDriver,
			pinger:        ms,
			catalog:       catalog.NewRepositoriesMongo(database),
			prescriptions: prescription.NewRepoMongo(database),
			users:         identity.NewUserRepoMongo(database),
			close: func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := ms.Close(ctx); err != nil {
					logger.Warn().Err(err).Msg("mongo disconnect failed")
				}
			},
		}, nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}

func seedOperator(ctx context.Context, cfg *config.Config, st *store, logger zerolog.Logger) (bool, error) {
	svc := identity.NewService(st.users, auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL), logger)
	created, err := svc.EnsureUser(ctx, cfg.SeedUsername, cfg.SeedPassword, cfg.SeedDisplayName)
	if err != nil {
		return false, fmt.Errorf("seed operator: %w", err)
	}
	return created, nil
}

func poolOptions(cfg *config.Config) db.PoolOptions {
	return db.PoolOptions{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns}
}
