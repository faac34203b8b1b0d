package commands

import (
	"context"
	"fmt"
	"time"

	"opvault/pkg/op"

	"github.com/spf13/cobra"
)

var opCmd = &cobra.Command{
	Use:   "op",
	Short: "Operate on the operation log",
}

var opLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the operation log",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		head, _, err := headView(ctx)
		if err != nil {
			return err
		}

		// 有投影数据库就走 SQL (快)，否则沿父指针遍历 CAS
		if OV.Meta != nil {
			models, err := OV.Meta.ListOperations(ctx, opLogLimit)
			if err != nil {
				return err
			}
			for _, m := range models {
				printOpLine(m.Id, m.Description, m.User, m.EndTime)
			}
			return nil
		}
		return walkOpLog(ctx, head, opLogLimit)
	},
}

var opLogLimit int

// walkOpLog 沿第一父指针线性回溯 (合并操作的其余父分支被略过，
// 与 git log 的默认行为一致)
func walkOpLog(ctx context.Context, cur *op.Operation, limit int) error {
	for i := 0; cur != nil && i < limit; i++ {
		m := cur.Metadata()
		printOpLine(string(cur.ID()), m.Description, m.User, m.EndTime)

		parents := cur.ParentIds()
		if len(parents) == 0 {
			return nil
		}
		next, err := op.Get(ctx, OV.Store, parents[0])
		if err != nil {
			return fmt.Errorf("failed to load parent operation: %w", err)
		}
		cur = next
	}
	return nil
}

func printOpLine(id, desc, user string, endTime int64) {
	ts := time.Unix(endTime, 0).Format("2006-01-02 15:04:05")
	fmt.Printf("%s  %s  %-20s %s\n", shortId(id), ts, user, desc)
}

func init() {
	opLogCmd.Flags().IntVarP(&opLogLimit, "limit", "n", 20, "Maximum number of operations to show")
	opCmd.AddCommand(opLogCmd)
	rootCmd.AddCommand(opCmd)
}
