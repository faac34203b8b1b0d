package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the commit-graph index from the current view",
	Long: `The index is derived data: an adjacency table of every commit reachable
from the current view, used for fast ancestry queries. Rebuilding is always
safe and repairs a stale or corrupted index file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, v, err := headView(ctx)
		if err != nil {
			return err
		}

		n, err := OV.RebuildIndex(ctx, v)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Indexed %d commit(s)\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
