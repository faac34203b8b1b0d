package commands

import (
	"errors"
	"fmt"
	"sort"

	"opvault/pkg/types"
	"opvault/pkg/view"

	"github.com/spf13/cobra"
)

var workspaceCmd = &cobra.Command{
	Use:   "workspace",
	Short: "Manage working-copy bindings",
}

var workspaceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspaces and their working-copy commits",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, v, err := headView(cmd.Context())
		if err != nil {
			return err
		}

		bindings := v.WcCommitIds()
		if len(bindings) == 0 {
			fmt.Println("No workspaces.")
			return nil
		}
		for _, ws := range sortedWorkspaces(bindings) {
			fmt.Printf("%-16s %s\n", ws, shortId(string(bindings[ws])))
		}
		return nil
	},
}

var workspaceRenameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename a workspace, moving its working-copy binding",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		oldName := types.WorkspaceId(args[0])
		newName := types.WorkspaceId(args[1])

		head, v, err := headView(ctx)
		if err != nil {
			return err
		}

		if err := v.RenameWorkspace(oldName, newName); err != nil {
			// 前置条件错误是用户可恢复的：换个名字再来
			if errors.Is(err, view.ErrWorkspaceDoesNotExist) {
				return fmt.Errorf("workspace %q does not exist", oldName)
			}
			if errors.Is(err, view.ErrWorkspaceAlreadyExists) {
				return fmt.Errorf("workspace %q already exists", newName)
			}
			return err
		}

		if _, err := recordChange(ctx, head, v, fmt.Sprintf("rename workspace %s to %s", oldName, newName)); err != nil {
			return err
		}
		fmt.Printf("✅ Renamed workspace %s -> %s\n", oldName, newName)
		return nil
	},
}

func sortedWorkspaces(bindings map[types.WorkspaceId]types.CommitId) []types.WorkspaceId {
	out := make([]types.WorkspaceId, 0, len(bindings))
	for ws := range bindings {
		out = append(out, ws)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func init() {
	workspaceCmd.AddCommand(workspaceListCmd, workspaceRenameCmd)
	rootCmd.AddCommand(workspaceCmd)
}
