package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/gnis-cli/pkg/elevation"
)

var elevationCmd = &cobra.Command{
	Use:   "elevation",
	Short: "Look up the elevation of a single coordinate",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("elevation"); err != nil {
			return err
		}

		unitsStr, _ := cmd.Flags().GetString("units")
		if unitsStr == "" {
			unitsStr = cfg.Elevation.Units
		}
		units, err := elevation.ParseUnits(unitsStr)
		if err != nil {
			return err
		}

		lat, _ := cmd.Flags().GetFloat64("lat")
		lon, _ := cmd.Flags().GetFloat64("lon")

		client := newElevationClient(units)
		elev, err := client.Lookup(ctx, lat, lon)
		if err != nil {
			return err
		}
		if !elev.Valid {
			return fmt.Errorf("no elevation coverage at (%f, %f)", lat, lon)
		}

		fmt.Printf("%d %s\n", elev.Rounded(), strings.ToLower(string(units)))
		return nil
	},
}

func init() {
	elevationCmd.Flags().Float64("lat", 0, "latitude in decimal degrees")
	elevationCmd.Flags().Float64("lon", 0, "longitude in decimal degrees")
	elevationCmd.Flags().String("units", "", "Feet or Meters")
	_ = elevationCmd.MarkFlagRequired("lat")
	_ = elevationCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(elevationCmd)
}
