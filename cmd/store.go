package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/foodpipe/foodpipe/internal/store"
)

// openStore opens the staging store backend selected by config.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.Path)
	case "postgres", "":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store database URL is required (FOODPIPE_STORE_DATABASE_URL)")
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
