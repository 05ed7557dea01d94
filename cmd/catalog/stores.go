package main

import (
	"context"
	"fmt"

	"github.com/99minutos/product-catalog/internal/core/ports"
	"github.com/99minutos/product-catalog/internal/infrastructure/config"
	mongodb "github.com/99minutos/product-catalog/internal/infrastructure/db/mongo"
	"github.com/99minutos/product-catalog/internal/infrastructure/db/sqlite"
	"github.com/99minutos/product-catalog/internal/infrastructure/http/handlers"
	"github.com/99minutos/product-catalog/pkg/logger"
)

// stores bundles the repositories of the configured store driver.
type stores struct {
	users      ports.UserRepository
	categories ports.CategoryRepository
	products   ports.ProductRepository
	pinger     handlers.Pinger
	close      func(context.Context) error
}

// openStores connects to the configured store and brings its schema up to
// date: migrations for sqlite, indexes for mongo.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.Store.Driver {
	case config.StoreMongo:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return &stores{
			users:      mongodb.NewUserRepository(db),
			categories: mongodb.NewCategoryRepository(db),
			products:   mongodb.NewProductRepository(db),
			pinger:     mongodb.Pinger{Client: client},
			close:      client.Disconnect,
		}, nil

	case config.StoreSQLite:
		db, err := sqlite.Open(ctx, cfg.Store.ConnectionString)
		if err != nil {
			return nil, err
		}
		if err := sqlite.Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &stores{
			users:      sqlite.NewUserRepository(db),
			categories: sqlite.NewCategoryRepository(db),
			products:   sqlite.NewProductRepository(db),
			pinger:     sqlite.Pinger{DB: db},
			close:      func(context.Context) error { return db.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func closeStores(st *stores) {
	if err := st.close(context.Background()); err != nil {
		log := logger.Get()
		log.Error().Err(err).Msg("closing store")
	}
}
