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
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-lottery-warehouse/internal/datagen"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/logging"
)

var etlSkipGenerate bool

var etlCmd = &cobra.Command{
	Use:   "etl",
	Short: "Generate sources, initialize the warehouse and load it",
	Long: `Run the whole flow in one go: generate synthetic sources for the date
range, create and seed the warehouse schema if needed, and load the
generated sources.

With --skip-generate the existing source files are loaded as they are.

Example:
  lottery-warehouse etl --connection "postgres://..." \
    --start 2024-01-01 --end 2024-12-31 --seed 7`,
	RunE: runETL,
}

func init() {
	addGenerateFlags(etlCmd)
	addLoadFlags(etlCmd)
	etlCmd.Flags().BoolVar(&etlSkipGenerate, "skip-generate", false,
		"load existing source files instead of generating them")
	etlCmd.Flags().BoolVar(&initDropExisting, "drop-existing", false,
		"drop all warehouse tables before loading")
}

func runETL(cmd *cobra.Command, args []string) error {
	applyGenerateFlags()
	applyLoadFlags()
	if initDropExisting {
		cfg.Load.DropExisting = true
	}

	if err := cfg.ValidateLoad(); err != nil {
		return err
	}
	if !etlSkipGenerate {
		if err := cfg.ValidateGenerate(); err != nil {
			return err
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	if !etlSkipGenerate {
		stats, err := generateSources(ctx)
		if err != nil {
			return err
		}
		logging.Info().
			Int("lottery_records", stats.LotteryRecords).
			Int("sales_records", stats.SalesRecords).
			Str("size", datagen.FormatSize(stats.LotteryBytes+stats.SalesBytes)).
			Msg("Sources generated")
	}

	if err := initWarehouse(ctx); err != nil {
		return err
	}

	return loadWarehouse(ctx, cmd.OutOrStdout())
}
