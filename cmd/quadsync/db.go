package main

import (
	"context"
	"fmt"
	"strings"

	"quadsync/internal/config"
	"quadsync/internal/store"
	"quadsync/internal/store/postgres"
	"quadsync/internal/store/sqlite"
)

// openStore picks the reference store backend from the DSN scheme and
// makes sure its schema exists.
func openStore(ctx context.Context, cfg *config.ProjectConfig) (store.Store, error) {
	dsn := cfg.Store.DSN
	var (
		db  store.Store
		err error
	)
	switch {
	case dsn == "":
		return nil, fmt.Errorf("store.dsn is not configured")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		db, err = postgres.New(ctx, dsn)
	default:
		db, err = sqlite.New(ctx, dsn)
	}
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close(ctx)
		return nil, err
	}
	return db, nil
}
