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
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-lottery-warehouse/internal/config"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/db"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/warehouse"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show warehouse row counts and referential checks",
	Long: `Show the schema version, the row count of every warehouse table, the
calendar span, orphaned fact rows and the stored warehouse metadata.`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	version, dirty, err := warehouse.SchemaVersion(cfg.Connection)
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	store := warehouse.NewStore(pool)
	counts, err := store.TableCounts(ctx)
	if err != nil {
		return err
	}
	orphans, err := store.Orphans(ctx)
	if err != nil {
		return err
	}
	first, last, err := store.DateSpan(ctx)
	if err != nil {
		return err
	}
	metadata, err := db.GetAllMetadata(ctx, pool)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Schema version: %d", version)
	if dirty {
		fmt.Fprint(out, " (dirty)")
	}
	fmt.Fprintln(out)

	if first.Valid && last.Valid {
		fmt.Fprintf(out, "Calendar:       %s to %s\n",
			first.Time.Format(config.DateLayout), last.Time.Format(config.DateLayout))
	} else {
		fmt.Fprintln(out, "Calendar:       empty")
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tROWS")
	for _, c := range counts {
		fmt.Fprintf(w, "%s\t%d\n", c.Table, c.Rows)
	}
	_ = w.Flush()

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Orphaned fact rows: fact_lottery_result=%d fact_revenue=%d\n",
		orphans.DrawResults, orphans.Revenue)

	if len(metadata) > 0 {
		keys := make([]string, 0, len(metadata))
		for k := range metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintln(out)
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, k := range keys {
			fmt.Fprintf(w, "%s\t%s\n", k, metadata[k])
		}
		_ = w.Flush()
	}

	if orphans.DrawResults+orphans.Revenue > 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: warehouse has orphaned fact rows")
	}
	return nil
}
