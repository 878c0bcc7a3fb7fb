package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/gnis-cli/internal/gazetteer"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clear the archive cache",
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show cached archives and their sizes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		info, err := newCacheStore().Info()
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}

		fmt.Printf("cache directory: %s\n", info.Dir)
		if len(info.Entries) == 0 {
			fmt.Println("no cached archives")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tSIZE\tMODIFIED")
		for _, e := range info.Entries {
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				e.Key, formatBytes(e.SizeBytes), e.ModifiedAt.Format("2006-01-02 15:04:05"))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("total: %s in %d archive(s)\n", formatBytes(info.TotalSizeBytes), len(info.Entries))
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [location]",
	Short: "Evict one cached archive, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := newCacheStore()

		if len(args) == 0 {
			if err := store.EvictAll(); err != nil {
				return err
			}
			fmt.Println("cache cleared")
			return nil
		}

		loc, err := gazetteer.NormalizeLocation(args[0])
		if err != nil {
			return err
		}
		if err := store.Evict(loc); err != nil {
			return err
		}
		fmt.Printf("evicted %s\n", loc)
		return nil
	},
}

// formatBytes renders a byte count with a binary unit suffix.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func init() {
	cacheInfoCmd.Flags().Bool("json", false, "emit the cache info payload as JSON")
	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
