package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/gnis-cli/internal/db"
	"github.com/sells-group/gnis-cli/internal/table"
	"github.com/sells-group/gnis-cli/pkg/elevation"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Run the enrichment pipeline and bulk-load the result into Postgres",
	Long: `Runs the same join/filter/enrich pass as export, then COPYs the rows into a
Postgres table (created on first load). With --conflict-keys the load becomes
an upsert keyed on those columns instead of an append.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if url, _ := cmd.Flags().GetString("database-url"); url != "" {
			cfg.Database.URL = url
		}
		if target, _ := cmd.Flags().GetString("table"); target != "" {
			cfg.Database.Table = target
		}
		if err := cfg.Validate("load"); err != nil {
			return err
		}

		req, unitsStr, err := exportRequest(cmd)
		if err != nil {
			return err
		}
		req.OutputPath = "" // rows go to Postgres, not a file

		units, err := elevation.ParseUnits(unitsStr)
		if err != nil {
			return err
		}

		p, _ := newPipeline(units)
		tbl, sum, err := p.Run(ctx, req)
		if err != nil {
			return err
		}

		pool, err := db.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		var n int64
		keysStr, _ := cmd.Flags().GetString("conflict-keys")
		if keys := splitAndTrim(keysStr); len(keys) > 0 {
			n, err = db.BulkUpsert(ctx, pool, db.UpsertConfig{
				Table:        cfg.Database.Table,
				Columns:      tbl.Columns(),
				ConflictKeys: keys,
			}, copyRows(tbl))
		} else {
			replace, _ := cmd.Flags().GetBool("replace")
			n, err = db.LoadTable(ctx, pool, cfg.Database.Table, tbl, db.LoadOptions{Replace: replace})
		}
		if err != nil {
			return err
		}

		zap.L().Info("load complete",
			zap.String("command", "load"),
			zap.String("table", cfg.Database.Table),
			zap.Int64("rows", n),
		)
		fmt.Printf("loaded %d rows for %s into %s\n", n, sum.Location, cfg.Database.Table)
		return nil
	},
}

// copyRows materializes table rows for the upsert path, mapping absent
// markers to NULL the same way the COPY loader does.
func copyRows(tbl *table.Table) [][]any {
	rows := make([][]any, tbl.NumRows())
	for i := range rows {
		src := tbl.Row(i)
		row := make([]any, len(src))
		for j, v := range src {
			if table.IsAbsent(v) {
				row[j] = nil
			} else {
				row[j] = v
			}
		}
		rows[i] = row
	}
	return rows
}

func init() {
	loadCmd.Flags().String("location", "", "state/territory code or National")
	loadCmd.Flags().String("classes", "", "comma-separated feature classes to keep")
	loadCmd.Flags().Bool("elevation", false, "look up elevations for budgeted rows")
	loadCmd.Flags().Int("max-elevation-requests", 100, "elevation lookup budget per run (-1 for no cap)")
	loadCmd.Flags().String("units", "", "elevation units: Feet or Meters")
	loadCmd.Flags().String("primary-layer", "", "primary layer name")
	loadCmd.Flags().String("secondary-layer", "", "secondary layer name")
	loadCmd.Flags().String("join-column", "", "join column shared by both layers")
	loadCmd.Flags().Bool("no-cache", false, "bypass the archive cache")
	loadCmd.Flags().Bool("refresh", false, "evict any cached archive before fetching")
	loadCmd.Flags().Bool("clear-cache-after", false, "evict the archive once the run completes")
	loadCmd.Flags().String("profile", "", "named profile from the profiles file")
	loadCmd.Flags().String("profiles-file", "profiles.yaml", "path to the export profiles file")
	loadCmd.Flags().String("database-url", "", "Postgres connection URL (overrides config)")
	loadCmd.Flags().String("table", "", "target table (overrides config)")
	loadCmd.Flags().Bool("replace", false, "delete existing rows before loading")
	loadCmd.Flags().String("conflict-keys", "", "comma-separated unique-key columns; switches the load to an upsert")
	rootCmd.AddCommand(loadCmd)
}
