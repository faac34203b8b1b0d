package commands

import (
	"fmt"

	"opvault/pkg/view"

	"github.com/spf13/cobra"
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Manage tags",
}

var tagListCmd = &cobra.Command{
	Use:   "list [pattern]",
	Short: "List tags, optionally filtered by a glob pattern",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, v, err := headView(cmd.Context())
		if err != nil {
			return err
		}

		pattern := view.AllPattern()
		if len(args) > 0 {
			pattern = view.NewPattern(args[0])
		}

		count := 0
		for name, target := range v.TagsMatching(pattern) {
			count++
			printTarget(name, target)
		}
		if count == 0 {
			fmt.Println("No tags.")
		}
		return nil
	},
}

func init() {
	tagCmd.AddCommand(tagListCmd)
	rootCmd.AddCommand(tagCmd)
}
