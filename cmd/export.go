package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/gnis-cli/internal/pipeline"
	"github.com/sells-group/gnis-cli/internal/profile"
	"github.com/sells-group/gnis-cli/pkg/elevation"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Join, filter, and optionally enrich gazetteer layers",
	Long: `Resolves the archive for a location (from cache when possible), joins the
primary and secondary layers, filters by feature class, optionally looks up
elevations for a budgeted number of rows, and writes the result to a file
chosen by extension (.csv, .jsonl, .xlsx, .shp).`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("export"); err != nil {
			return err
		}

		req, unitsStr, err := exportRequest(cmd)
		if err != nil {
			return err
		}

		units, err := elevation.ParseUnits(unitsStr)
		if err != nil {
			return err
		}

		p, _ := newPipeline(units)
		tbl, sum, err := p.Run(ctx, req)
		if err != nil && tbl == nil {
			return err
		}

		fmt.Printf("%d rows for %s", sum.Rows, sum.Location)
		if req.AddElevation {
			fmt.Printf(" (%d elevations looked up, %d failed)",
				sum.ElevationAttempted-sum.ElevationFailed, sum.ElevationFailed)
		}
		if req.OutputPath != "" && err == nil {
			fmt.Printf(" -> %s", req.OutputPath)
		}
		fmt.Println()

		// A sink failure still printed the summary above; surface it now.
		return err
	},
}

// exportRequest builds the pipeline request from flags, with an optional
// profile supplying the base values.
func exportRequest(cmd *cobra.Command) (pipeline.Request, string, error) {
	flags := cmd.Flags()

	req := pipeline.Request{
		PrimaryLayer:   cfg.Gazetteer.PrimaryLayer,
		SecondaryLayer: cfg.Gazetteer.SecondaryLayer,
	}
	unitsStr := cfg.Elevation.Units

	if name, _ := flags.GetString("profile"); name != "" {
		path, _ := flags.GetString("profiles-file")
		set, err := profile.Load(path)
		if err != nil {
			return req, "", err
		}
		prof, err := set.Get(name)
		if err != nil {
			return req, "", err
		}
		req.Location = prof.Location
		req.FeatureClasses = prof.FeatureClasses
		req.AddElevation = prof.AddElevation
		req.MaxElevationRequests = prof.MaxElevationRequests
		req.OutputPath = prof.Output
		req.ClearCacheAfter = prof.ClearCacheAfter
		if prof.PrimaryLayer != "" {
			req.PrimaryLayer = prof.PrimaryLayer
		}
		if prof.SecondaryLayer != "" {
			req.SecondaryLayer = prof.SecondaryLayer
		}
		if prof.JoinColumn != "" {
			req.JoinColumn = prof.JoinColumn
		}
		if prof.Units != "" {
			unitsStr = prof.Units
		}
	}

	if flags.Changed("location") {
		req.Location, _ = flags.GetString("location")
	}
	if flags.Changed("classes") {
		classesStr, _ := flags.GetString("classes")
		req.FeatureClasses = splitAndTrim(classesStr)
	}
	if flags.Changed("elevation") {
		req.AddElevation, _ = flags.GetBool("elevation")
	}
	if flags.Changed("max-elevation-requests") {
		req.MaxElevationRequests, _ = flags.GetInt("max-elevation-requests")
	}
	if flags.Changed("output") {
		req.OutputPath, _ = flags.GetString("output")
	}
	if flags.Changed("units") {
		unitsStr, _ = flags.GetString("units")
	}
	if flags.Changed("primary-layer") {
		req.PrimaryLayer, _ = flags.GetString("primary-layer")
	}
	if flags.Changed("secondary-layer") {
		req.SecondaryLayer, _ = flags.GetString("secondary-layer")
	}
	if flags.Changed("join-column") {
		req.JoinColumn, _ = flags.GetString("join-column")
	}

	noCache, _ := flags.GetBool("no-cache")
	req.UseCache = !noCache
	req.Refresh, _ = flags.GetBool("refresh")
	if flags.Changed("clear-cache-after") {
		req.ClearCacheAfter, _ = flags.GetBool("clear-cache-after")
	}

	if req.Location == "" {
		return req, "", eris.New("export: --location is required (or a --profile that sets one)")
	}
	return req, unitsStr, nil
}

// splitAndTrim splits a comma-separated flag value, dropping empty parts.
func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func init() {
	exportCmd.Flags().String("location", "", "state/territory code or National")
	exportCmd.Flags().String("classes", "", "comma-separated feature classes to keep (e.g. Summit,Ridge)")
	exportCmd.Flags().Bool("elevation", false, "look up elevations for budgeted rows")
	exportCmd.Flags().Int("max-elevation-requests", 100, "elevation lookup budget per run (-1 for no cap)")
	exportCmd.Flags().String("units", "", "elevation units: Feet or Meters")
	exportCmd.Flags().String("output", "", "output file (.csv, .jsonl, .xlsx, .shp)")
	exportCmd.Flags().String("primary-layer", "", "primary layer name")
	exportCmd.Flags().String("secondary-layer", "", "secondary layer name")
	exportCmd.Flags().String("join-column", "", "join column shared by both layers")
	exportCmd.Flags().Bool("no-cache", false, "bypass the archive cache")
	exportCmd.Flags().Bool("refresh", false, "evict any cached archive before fetching")
	exportCmd.Flags().Bool("clear-cache-after", false, "evict the archive once the run completes")
	exportCmd.Flags().String("profile", "", "named profile from the profiles file")
	exportCmd.Flags().String("profiles-file", "profiles.yaml", "path to the export profiles file")
	rootCmd.AddCommand(exportCmd)
}
