package commands

import (
	"fmt"

	"opvault/pkg/commit"

	"github.com/spf13/cobra"
)

var headsCmd = &cobra.Command{
	Use:   "heads",
	Short: "List the leaves of visible history",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, v, err := headView(ctx)
		if err != nil {
			return err
		}

		heads := v.HeadIds()
		if len(heads) == 0 {
			fmt.Println("No heads.")
			return nil
		}
		for _, id := range heads {
			c, err := commit.Get(ctx, OV.Store, id)
			if err != nil {
				return fmt.Errorf("failed to load head %s: %w", shortId(string(id)), err)
			}
			conflicted, err := c.HasConflict(ctx)
			if err != nil {
				return err
			}
			discardable, err := c.IsDiscardable(ctx)
			if err != nil {
				return err
			}
			fmt.Println(headLine(string(id), c.Description(), v.IsWcCommitId(id), conflicted, discardable))
		}
		return nil
	},
}

// headLine 渲染一个头提交：短 id + 描述 + 状态标记
func headLine(id, desc string, wc, conflicted, discardable bool) string {
	if desc == "" {
		desc = "(no description)"
	}
	line := fmt.Sprintf("%s  %s", shortId(id), desc)
	if conflicted {
		line += "  ⚠️ (conflict)"
	}
	if discardable {
		line += "  (discardable)"
	}
	if wc {
		line += "  (working copy)"
	}
	return line
}

func init() {
	rootCmd.AddCommand(headsCmd)
}
