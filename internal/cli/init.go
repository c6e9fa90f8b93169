//-------------------------------------------------------------------------
//
// pgEdge Lottery Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-lottery-warehouse/internal/db"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/logging"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/warehouse"
)

var initDropExisting bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the warehouse schema and seed reference dimensions",
	Long: `Create the warehouse tables if they do not exist and seed the station
and prize category dimensions. Running init against an initialized
warehouse changes nothing.

With --drop-existing every warehouse table is dropped first. All loaded
data is lost.

Example:
  lottery-warehouse init --connection "postgres://..."`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initDropExisting, "drop-existing", false,
		"drop all warehouse tables before initialization")
}

func runInit(cmd *cobra.Command, args []string) error {
	if initDropExisting {
		cfg.Load.DropExisting = true
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	return initWarehouse(ctx)
}

// initWarehouse migrates and seeds the configured warehouse.
func initWarehouse(ctx context.Context) error {
	if cfg.Load.DropExisting {
		logging.Warn().Msg("Dropping existing warehouse")
		if err := warehouse.Reset(cfg.Connection); err != nil {
			return err
		}
	} else if err := warehouse.Migrate(cfg.Connection); err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if cfg.Load.DropExisting {
		if err := db.DropMetadata(ctx, pool); err != nil {
			logging.Debug().Err(err).Msg("No metadata table to drop")
		}
	}

	seeded, err := warehouse.NewStore(pool).SeedReference(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed reference dimensions: %w", err)
	}

	exists, err := db.MetadataExists(ctx, pool)
	if err != nil {
		return err
	}
	if !exists {
		if err := db.MarkInitialized(ctx, pool); err != nil {
			return fmt.Errorf("failed to save metadata: %w", err)
		}
	}

	logging.Info().
		Int64("stations_seeded", seeded.Stations).
		Int64("prizes_seeded", seeded.Prizes).
		Msg("Warehouse initialization complete")

	return nil
}
