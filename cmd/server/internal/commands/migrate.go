package commands

import (
	"context"
	"fmt"

	postgresstore "github.com/wolfeidau/staffdesk/internal/store/postgres"
)

// MigrateCmd applies pending PostgreSQL migrations and exits.
type MigrateCmd struct {
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

func (c *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	log := setupLogging(globals.Debug)

	flags := StoreFlags{StoreType: "postgres", PostgresStore: c.PostgresStore}
	pool, err := flags.openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgresstore.RunMigrations(ctx, pool); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info().Msg("Database migrations completed")
	return nil
}
