package commands

import (
	"context"
	"fmt"
	"time"

	"opvault/pkg/core"
	"opvault/pkg/op"
	"opvault/pkg/refs"
	"opvault/pkg/types"
	"opvault/pkg/view"

	"github.com/spf13/cobra"
)

var bookmarkCmd = &cobra.Command{
	Use:   "bookmark",
	Short: "Manage bookmarks (named pointers to commits)",
}

var bookmarkListCmd = &cobra.Command{
	Use:   "list [pattern]",
	Short: "List bookmarks, optionally filtered by a glob pattern",
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
		for name, target := range v.LocalBookmarksMatching(pattern) {
			count++
			printTarget(name, target)
		}
		if count == 0 {
			fmt.Println("No bookmarks.")
		}
		return nil
	},
}

var bookmarkSetCmd = &cobra.Command{
	Use:   "set <name> <commit>",
	Short: "Point a bookmark at a commit (short hashes allowed)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name := args[0]

		full, err := OV.Store.CAS().ExpandHash(ctx, types.HashPrefix(args[1]))
		if err != nil {
			return fmt.Errorf("invalid commit argument '%s': %w", args[1], err)
		}

		head, v, err := headView(ctx)
		if err != nil {
			return err
		}
		v.SetLocalBookmarkTarget(name, refs.NormalTarget(types.CommitId(full)))

		if _, err := recordChange(ctx, head, v, fmt.Sprintf("set bookmark %s", name)); err != nil {
			return err
		}
		fmt.Printf("✅ %s -> %s\n", name, shortId(full))
		return nil
	},
}

var bookmarkDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a bookmark",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name := args[0]

		head, v, err := headView(ctx)
		if err != nil {
			return err
		}
		if v.GetLocalBookmark(name).IsAbsent() {
			return fmt.Errorf("bookmark %q does not exist", name)
		}

		// absent 目标就是删除
		v.SetLocalBookmarkTarget(name, refs.AbsentTarget())

		if _, err := recordChange(ctx, head, v, fmt.Sprintf("delete bookmark %s", name)); err != nil {
			return err
		}
		fmt.Printf("✅ Deleted bookmark %s\n", name)
		return nil
	},
}

// recordChange 把修改后的视图落成新操作
func recordChange(ctx context.Context, parent *op.Operation, v *view.View, desc string) (*op.Operation, error) {
	now := time.Now().Unix()
	return OV.Log.Record(ctx, v, []*op.Operation{parent}, core.OpMetadata{
		StartTime:   now,
		EndTime:     now,
		Description: desc,
		User:        OV.User,
	})
}

// printTarget 冲突感知的目标展示：conflicted 绝不截断成单个 id
func printTarget(name string, target refs.RefTarget) {
	if id, ok := target.AsNormal(); ok {
		fmt.Printf("%-24s %s\n", name, shortId(string(id)))
		return
	}
	fmt.Printf("%-24s (conflicted)\n", name)
	for _, id := range target.AddedIds() {
		fmt.Printf("  + %s\n", shortId(string(id)))
	}
	for _, id := range target.RemovedIds() {
		fmt.Printf("  - %s\n", shortId(string(id)))
	}
}

func init() {
	bookmarkCmd.AddCommand(bookmarkListCmd, bookmarkSetCmd, bookmarkDeleteCmd)
	rootCmd.AddCommand(bookmarkCmd)
}
