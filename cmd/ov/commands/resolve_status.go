package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resolveStatusCmd = &cobra.Command{
	Use:   "resolve-status",
	Short: "List references that are in a conflicted state",
	Long: `Concurrent operations that move the same reference leave it in a
conflicted state: the reference carries every contributed position instead of
silently keeping one side. This command lists what still needs a decision.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, v, err := headView(ctx)
		if err != nil {
			return err
		}

		conflicted := 0
		// 有投影数据库时冲突书签直接查 conflicted 列，不必扫视图
		if OV.Meta != nil {
			rows, err := OV.Meta.ListConflictedBookmarks(ctx)
			if err != nil {
				return err
			}
			for _, row := range rows {
				target, err := row.UnmarshalTarget()
				if err != nil {
					return err
				}
				conflicted++
				printTarget(row.Name, target)
			}
		} else {
			for name, target := range v.LocalBookmarks() {
				if target.HasConflict() {
					conflicted++
					printTarget(name, target)
				}
			}
		}
		for name, target := range v.Tags() {
			if target.HasConflict() {
				conflicted++
				printTarget("tag:"+name, target)
			}
		}
		if v.GitHead().HasConflict() {
			conflicted++
			printTarget("HEAD", v.GitHead())
		}

		if conflicted == 0 {
			fmt.Println("No conflicted references.")
		} else {
			fmt.Printf("\n%d reference(s) need resolution. Use 'ov bookmark set' to pick a side.\n", conflicted)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveStatusCmd)
}
