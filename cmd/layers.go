package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/gnis-cli/internal/gpkg"
)

var layersCmd = &cobra.Command{
	Use:   "layers",
	Short: "List the layers inside a location's GeoPackage",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		location, _ := cmd.Flags().GetString("location")
		store := newCacheStore()
		path, err := newResolver(store).Fetch(ctx, location, true)
		if err != nil {
			return err
		}

		f, err := gpkg.Open(path)
		if err != nil {
			return err
		}
		defer f.Close() //nolint:errcheck

		layers, err := f.Layers(ctx)
		if err != nil {
			return err
		}
		for _, layer := range layers {
			fmt.Println(layer)
		}
		return nil
	},
}

func init() {
	layersCmd.Flags().String("location", "", "state/territory code or National")
	_ = layersCmd.MarkFlagRequired("location")
	rootCmd.AddCommand(layersCmd)
}
