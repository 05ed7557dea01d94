package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/99minutos/product-catalog/internal/api"
	"github.com/99minutos/product-catalog/internal/api/handler"
	"github.com/99minutos/product-catalog/internal/core/ports"
	"github.com/99minutos/product-catalog/internal/core/service"
	"github.com/99minutos/product-catalog/internal/infrastructure/config"
	"github.com/99minutos/product-catalog/internal/infrastructure/db/redis"
	"github.com/99minutos/product-catalog/internal/infrastructure/http/handlers"
	"github.com/99minutos/product-catalog/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "migrate, seed and serve the site",
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, log, err := bootstrap(c)
			if err != nil {
				return err
			}

			st, err := openStores(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStores(st)

			health := map[string]handlers.Pinger{"store": st.pinger}

			var revocations ports.TokenRevocations
			if cfg.Redis.Addr != "" {
				client, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
				if err != nil {
					return err
				}
				defer func(client *goredis.Client) { _ = client.Close() }(client)
				revocations = redis.NewRevocationStore(client)
				health["redis"] = redis.Pinger{Client: client}
			} else {
				log.Warn().Msg("REDIS_ADDR not set, signed-out tokens stay valid until they expire")
			}

			hasher := service.BcryptHasher{}
			authService := service.NewAuthService(st.users, hasher, revocations, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, log)
			catalogService := service.NewCatalogService(st.categories, st.products, service.SystemClock{}, log)

			if err := newSeeder(st, cfg, log).Seed(ctx); err != nil {
				log.Error().Err(err).Msg("seeding failed, continuing with the existing data")
			}

			e, err := api.NewRouter(api.Options{
				Catalog: catalogService,
				Auth:    authService,
				Cookie: handler.CookieOptions{
					Name:   cfg.Auth.CookieName,
					TTL:    cfg.Auth.TokenTTL,
					Secure: !cfg.IsDevelopment(),
				},
				Logger: log,
				Health: health,
			})
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("port", cfg.Port).Str("store", cfg.Store.Driver).Msg("listening")
				if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "bring the store schema and indexes up to date",
		Action: func(c *cli.Context) error {
			cfg, log, err := bootstrap(c)
			if err != nil {
				return err
			}
			st, err := openStores(c.Context, cfg)
			if err != nil {
				return err
			}
			defer closeStores(st)

			log.Info().Str("store", cfg.Store.Driver).Msg("schema up to date")
			return nil
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "create roles, the admin account and sample data",
		Action: func(c *cli.Context) error {
			cfg, log, err := bootstrap(c)
			if err != nil {
				return err
			}
			st, err := openStores(c.Context, cfg)
			if err != nil {
				return err
			}
			defer closeStores(st)

			if err := newSeeder(st, cfg, log).Seed(c.Context); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			log.Info().Msg("seed complete")
			return nil
		},
	}
}

func bootstrap(c *cli.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(c.Context, c.String("env-file"))
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "product-catalog",
		Env:     cfg.Env,
	})
	return cfg, log, nil
}

func newSeeder(st *stores, cfg *config.Config, log zerolog.Logger) *service.Seeder {
	return service.NewSeeder(st.users, st.categories, st.products, service.BcryptHasher{}, service.SystemClock{},
		service.SeedOptions{
			AdminEmail:    cfg.Seed.AdminEmail,
			AdminPassword: cfg.Seed.AdminPassword,
			SampleData:    cfg.Seed.SampleData,
		}, log)
}
