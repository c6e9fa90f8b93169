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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-lottery-warehouse/internal/db"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/logging"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/pipeline"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/warehouse"
)

var (
	loadLottery  string
	loadSales    string
	loadNoLock   bool
	loadNoRecord bool
	loadJSON     bool
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Extract, transform and load the sources into the warehouse",
	Long: `Read the lottery results and ticket sales sources, validate them,
derive the calendar and agency dimensions and both fact tables, and load
the new rows into the warehouse.

If validation fails nothing is written and the command exits with an
error after printing the validation report. Dimension rows already in
the warehouse are skipped. Fact rows are appended on every run.

The warehouse must have been initialized with 'lottery-warehouse init'.

Example:
  lottery-warehouse load --lottery data/raw/lottery_results.csv \
    --sales data/raw/revenue_data.csv`,
	RunE: runLoad,
}

func init() {
	addSourceFlags(loadCmd, &loadLottery, &loadSales)
	addLoadFlags(loadCmd)
}

func addSourceFlags(cmd *cobra.Command, lottery, sales *string) {
	cmd.Flags().StringVar(lottery, "lottery", "",
		"lottery draw results CSV path")
	cmd.Flags().StringVar(sales, "sales", "",
		"ticket sales CSV path")
}

func addLoadFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&loadNoLock, "no-lock", false,
		"do not take the warehouse writer lock")
	cmd.Flags().BoolVar(&loadNoRecord, "no-record", false,
		"do not record the run in etl_run_log")
	cmd.Flags().BoolVar(&loadJSON, "json", false,
		"print the run summary as JSON")
}

func applyLoadFlags() {
	if loadLottery != "" {
		cfg.Sources.Lottery = loadLottery
	}
	if loadSales != "" {
		cfg.Sources.Sales = loadSales
	}
	if loadNoLock {
		cfg.Load.WriterLock = false
	}
	if loadNoRecord {
		cfg.Load.RecordRuns = false
	}
}

func runLoad(cmd *cobra.Command, args []string) error {
	applyLoadFlags()
	if err := cfg.ValidateLoad(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	return loadWarehouse(ctx, cmd.OutOrStdout())
}

// loadWarehouse runs one pipeline pass against the configured warehouse
// and reports the summary to out.
func loadWarehouse(ctx context.Context, out io.Writer) error {
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	store := warehouse.NewStore(pool)
	var opts []pipeline.Option
	if cfg.Load.WriterLock {
		opts = append(opts, pipeline.WithLocker(store))
	}
	if cfg.Load.RecordRuns {
		opts = append(opts, pipeline.WithRecorder(warehouse.NewRunLog(pool)))
	}

	summary, runErr := pipeline.New(store, opts...).Run(ctx, pipeline.Sources{
		Lottery: cfg.Sources.Lottery,
		Sales:   cfg.Sources.Sales,
	})
	if summary != nil {
		if err := printSummary(out, summary); err != nil {
			return err
		}
	}
	if runErr != nil {
		if errors.Is(runErr, warehouse.ErrLocked) {
			return fmt.Errorf("%w: another load is in progress", runErr)
		}
		return runErr
	}

	err = db.SaveMetadata(ctx, pool, map[string]string{
		db.MetaLastLoadAt: summary.FinishedAt.Format(time.RFC3339),
		db.MetaLastRunID:  summary.RunID.String(),
	})
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to save load metadata")
	}

	return nil
}

func printSummary(out io.Writer, summary *pipeline.Summary) error {
	if !loadJSON {
		summary.Print(out)
		return nil
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
