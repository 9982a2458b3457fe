// Command accountcore bootstraps the account store: it connects to the
// configured backend, ensures the indexes behind identifier uniqueness, and
// seeds the initial demo, admin, and employee accounts. Admin and employee
// passwords must arrive through the environment; missing secrets abort the
// run before anything is written.
package main

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/plateshare/accountcore/internal/core/domain"
	"github.com/plateshare/accountcore/internal/core/ports"
	"github.com/plateshare/accountcore/internal/core/service"
	"github.com/plateshare/accountcore/internal/infrastructure/config"
	mongodb "github.com/plateshare/accountcore/internal/infrastructure/db/mongo"
	redisdb "github.com/plateshare/accountcore/internal/infrastructure/db/redis"
	"github.com/plateshare/accountcore/pkg/logger"
)

const connectTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	if cfg.Bootstrap.AdminPassword == "" {
		log.Fatal().Msg("ADMIN_PASSWORD is not set; refusing to bootstrap")
	}
	if cfg.Bootstrap.EmployeePassword == "" {
		log.Fatal().Msg("EMPLOYEE_PASSWORD is not set; refusing to bootstrap")
	}

	ctx := context.Background()

	var repo ports.IdentityRepository
	switch cfg.StoreBackend {
	case "mongo":
		client, db, err := mongodb.Connect(ctx, mongodb.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Timeout:  connectTimeout,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("mongo connection failed")
		}
		defer func() {
			if err := client.Disconnect(ctx); err != nil {
				log.Error().Err(err).Msg("mongo disconnect failed")
			}
		}()

		mongoRepo := mongodb.NewIdentityRepository(db)
		if err := mongoRepo.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("index creation failed")
		}
		repo = mongoRepo

	case "redis":
		client, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:    cfg.Redis.Addr,
			DB:      cfg.Redis.DB,
			Timeout: connectTimeout,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		defer client.Close()
		repo = redisdb.NewIdentityStore(client)

	default:
		log.Fatal().Str("backend", cfg.StoreBackend).Msg("unknown store backend")
	}

	hasher := service.NewArgon2Hasher(service.DefaultArgon2Params(), cfg.MinPasswordLength)

	seeds := []struct {
		username string
		email    string
		password string
		role     domain.Role
	}{
		{"demo", "demo@example.com", "demo1234", domain.RoleUser},
		{"admin", "admin@example.com", cfg.Bootstrap.AdminPassword, domain.RoleAdmin},
		{"employee", "employee@example.com", cfg.Bootstrap.EmployeePassword, domain.RoleEmployee},
	}

	now := time.Now().UTC()
	for _, seed := range seeds {
		if _, err := repo.FindByUsername(ctx, seed.username); err == nil {
			log.Info().Str("username", seed.username).Msg("identity already present, skipping")
			continue
		} else if !errors.Is(err, domain.ErrIdentityNotFound) {
			log.Fatal().Err(err).Str("username", seed.username).Msg("identity lookup failed")
		}

		digest, err := hasher.Hash(seed.password)
		if err != nil {
			log.Fatal().Err(err).Str("username", seed.username).Msg("seed password rejected by policy")
		}

		if _, err := repo.Create(ctx, &domain.Identity{
			ID:             uuid.NewString(),
			Username:       seed.username,
			Email:          seed.email,
			PasswordDigest: digest,
			Role:           seed.role,
			CreatedAt:      now,
			UpdatedAt:      now,
		}); err != nil {
			log.Fatal().Err(err).Str("username", seed.username).Msg("seed insert failed")
		}
		log.Info().Str("username", seed.username).Str("role", string(seed.role)).Msg("identity seeded")
	}

	log.Info().Msg("bootstrap complete")
}
