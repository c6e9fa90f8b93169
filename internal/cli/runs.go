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
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-lottery-warehouse/internal/db"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/warehouse"
)

var (
	runsLimit int
	runsShow  string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent ETL runs",
	Long: `List the most recent runs recorded in etl_run_log, newest first.

With --show the stored JSON summary of one run is printed instead.

Examples:
  lottery-warehouse runs --limit 5
  lottery-warehouse runs --show 0f8fad5b-d9cb-469f-a165-70867728950e`,
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 10,
		"maximum number of runs to list")
	runsCmd.Flags().StringVar(&runsShow, "show", "",
		"print the summary of the run with this id")
}

func runRuns(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if runsLimit < 1 {
		return fmt.Errorf("--limit must be at least 1")
	}

	ctx, cancel := signalContext()
	defer cancel()

	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	log := warehouse.NewRunLog(pool)
	out := cmd.OutOrStdout()

	if runsShow != "" {
		id, err := uuid.Parse(runsShow)
		if err != nil {
			return fmt.Errorf("invalid run id %q: %w", runsShow, err)
		}
		summary, err := log.Summary(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to read run %s: %w", id, err)
		}
		if summary == nil {
			fmt.Fprintln(out, "run has no summary")
			return nil
		}
		fmt.Fprintln(out, string(summary))
		return nil
	}

	runs, err := log.Recent(ctx, runsLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tSTARTED\tSTATUS\tROWS\tDURATION\tERROR")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Status,
			r.RowsInserted,
			r.Duration().Round(time.Millisecond),
			r.Error)
	}
	return w.Flush()
}
