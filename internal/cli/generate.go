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

	"github.com/pgEdge/pgedge-lottery-warehouse/internal/datagen"
	"github.com/pgEdge/pgedge-lottery-warehouse/internal/logging"
)

var (
	genStart   string
	genEnd     string
	genSeed    uint64
	genLottery string
	genSales   string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write synthetic lottery and sales source files",
	Long: `Generate synthetic draw results and ticket sales for a date range and
write them as the two CSV sources the load command reads.

Draws follow each station's weekly schedule with the southern prize
structure. Sales volume follows weekends, draw days and a slow upward
trend.

Example:
  lottery-warehouse generate --start 2024-01-01 --end 2024-03-31 --seed 42`,
	RunE: runGenerate,
}

func init() {
	addGenerateFlags(generateCmd)
}

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&genStart, "start", "",
		"first day to generate (YYYY-MM-DD)")
	cmd.Flags().StringVar(&genEnd, "end", "",
		"last day to generate, inclusive (YYYY-MM-DD)")
	cmd.Flags().Uint64Var(&genSeed, "seed", 0,
		"random seed for reproducible output (0 = random)")
	cmd.Flags().StringVar(&genLottery, "lottery", "",
		"lottery draw results CSV path")
	cmd.Flags().StringVar(&genSales, "sales", "",
		"ticket sales CSV path")
}

func applyGenerateFlags() {
	if genStart != "" {
		cfg.Generate.StartDate = genStart
	}
	if genEnd != "" {
		cfg.Generate.EndDate = genEnd
	}
	if genSeed != 0 {
		cfg.Generate.Seed = genSeed
	}
	if genLottery != "" {
		cfg.Sources.Lottery = genLottery
	}
	if genSales != "" {
		cfg.Sources.Sales = genSales
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	applyGenerateFlags()
	if err := cfg.ValidateGenerate(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	stats, err := generateSources(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Lottery results: %d rows (%s) -> %s\n",
		stats.LotteryRecords, datagen.FormatSize(stats.LotteryBytes), cfg.Sources.Lottery)
	fmt.Fprintf(out, "Ticket sales:    %d rows (%s) -> %s\n",
		stats.SalesRecords, datagen.FormatSize(stats.SalesBytes), cfg.Sources.Sales)
	fmt.Fprintf(out, "Tickets sold:    %d\n", stats.TotalTickets)
	fmt.Fprintf(out, "Total revenue:   %s\n", stats.TotalRevenue.StringFixed(2))
	return nil
}

func generateSources(ctx context.Context) (datagen.Stats, error) {
	start, end, err := cfg.Generate.Range()
	if err != nil {
		return datagen.Stats{}, err
	}

	logging.Info().
		Str("start", cfg.Generate.StartDate).
		Str("end", cfg.Generate.EndDate).
		Uint64("seed", cfg.Generate.Seed).
		Msg("Generating sources")

	return datagen.NewGenerator(cfg.Generate.Seed).
		WriteSources(ctx, start, end, cfg.Sources.Lottery, cfg.Sources.Sales)
}
