package cmd

import (
	"context"
	"fmt"

	"github.com/roamsim/roamsim/internal/config"
	"github.com/roamsim/roamsim/internal/store"
)

// openStore opens the configured store and brings its schema up to date.
// Every CLI command that touches local data goes through here, so a fresh
// install works without a separate migrate step.
func openStore(ctx context.Context) (*store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	db, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
