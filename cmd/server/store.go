package main

import (
	"context"
	"fmt"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/warden/internal/postgres"
	"github.com/linnemanlabs/warden/internal/seed"
	"github.com/linnemanlabs/warden/internal/vuln"
	"github.com/linnemanlabs/warden/internal/vuln/memstore"
	"github.com/linnemanlabs/warden/internal/vuln/pgstore"
)

// openStore returns the Postgres store when databaseURL is set and the
// in-memory store otherwise. closeFn releases the pool and is never nil.
func openStore(ctx context.Context, L log.Logger, databaseURL string) (store vuln.Store, closeFn func(), err error) {
	if databaseURL == "" {
		L.Info(ctx, "using in-memory store (no database-url configured)")
		return memstore.New(), func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres pool: %w", err)
	}
	pgStore, err := pgstore.New(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pgstore init: %w", err)
	}
	L.Info(ctx, "using postgres store")
	return pgStore, pool.Close, nil
}

// importSeed loads path and imports it into an empty store. An empty path
// disables seeding.
func importSeed(ctx context.Context, L log.Logger, path string, target seed.Target) error {
	if path == "" {
		return nil
	}
	entries, err := seed.Load(path)
	if err != nil {
		return fmt.Errorf("seed file: %w", err)
	}
	n, skipped, err := seed.Import(ctx, target, entries)
	if err != nil {
		return fmt.Errorf("seed import: %w", err)
	}
	if skipped {
		L.Info(ctx, "store already populated, skipping seed import", "file", path)
		return nil
	}
	L.Info(ctx, "imported seed records", "file", path, "count", n)
	return nil
}
