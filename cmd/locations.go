package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/gnis-cli/internal/gazetteer"
)

var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "List valid location identifiers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, code := range gazetteer.AvailableLocations() {
			fmt.Fprintf(w, "%s\t%s\n", code, gazetteer.LocationName(code))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(locationsCmd)
}
