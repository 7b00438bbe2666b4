package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dealforge/deal-engine/distress"
	"github.com/dealforge/deal-engine/store/sqlite"
)

const dateLayout = "2006-01-02"

func scoreCmd() *cobra.Command {
	var agg distress.LienAggregate
	var lastLien, asOf string

	c := &cobra.Command{
		Use:   "score",
		Short: "Score one park's lien aggregate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now()
			if asOf != "" {
				t, err := time.Parse(dateLayout, asOf)
				if err != nil {
					return fmt.Errorf("--as-of: %w", err)
				}
				now = t
			}
			if lastLien != "" {
				t, err := time.Parse(dateLayout, lastLien)
				if err != nil {
					return fmt.Errorf("--last-lien: %w", err)
				}
				agg.MostRecentLienDate = &t
			}
			if agg.ActiveLienCount < 0 || agg.LotCount < 0 || agg.TotalTaxOwed < 0 || agg.DistinctTaxYearsWithLiens < 0 {
				return fmt.Errorf("counts and amounts must not be negative")
			}
			return printJSON(cmd.OutOrStdout(), distress.Evaluate(agg, now))
		},
	}

	c.Flags().IntVar(&agg.ActiveLienCount, "liens", 0, "active lien count")
	c.Flags().Float64Var(&agg.TotalTaxOwed, "tax-owed", 0, "total unpaid tax")
	c.Flags().IntVar(&agg.LotCount, "lots", 0, "lot count")
	c.Flags().IntVar(&agg.DistinctTaxYearsWithLiens, "years", 0, "distinct tax years with liens")
	c.Flags().StringVar(&lastLien, "last-lien", "", "newest lien date (YYYY-MM-DD)")
	c.Flags().StringVar(&asOf, "as-of", "", "scoring date (YYYY-MM-DD, default today)")
	return c
}

func distressCmd() *cobra.Command {
	var dbPath, county string
	var dryRun bool
	var workers int

	c := &cobra.Command{
		Use:   "distress",
		Short: "Rescore every park in a SQLite database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := sqlite.New(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			runner := &distress.Runner{Source: store, Sink: store, Workers: workers, DryRun: dryRun}
			logger.Info("distress.start", "db", dbPath, "county", county, "dry_run", dryRun)

			summary, err := runner.Run(cmd.Context(), county)
			if err != nil {
				logger.Error("distress.failed", "error", err)
				return err
			}
			if err := store.SaveRun(cmd.Context(), summary); err != nil {
				return err
			}
			for _, top := range summary.Top {
				logger.Debug("distress.top", "park", top.ParkID, "name", top.Name, "score", top.Score)
			}
			logger.Info("distress.done",
				"run", summary.ID, "parks", summary.Parks, "scored", summary.Scored, "zeroed", summary.Zeroed,
				"elapsed", summary.FinishedAt.Sub(summary.StartedAt).String())

			return printJSON(cmd.OutOrStdout(), summary)
		},
	}

	c.Flags().StringVar(&dbPath, "db", "deals.db", "SQLite database path")
	c.Flags().StringVar(&county, "county", "", "only score parks in this county")
	c.Flags().BoolVar(&dryRun, "dry-run", false, "compute scores without writing them")
	c.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 = GOMAXPROCS)")
	return c
}
