package app

import (
	"context"
	"fmt"

	"opvault/pkg/op"
	"opvault/pkg/refs"
	"opvault/pkg/view"
)

// projectOperation 是 op.Log 的落盘回调：新操作连同其视图被同步进
// SQL 投影。投影是派生数据，失败由 Log 记日志，不影响操作本身。
func (a *App) projectOperation(ctx context.Context, o *op.Operation, v *view.View) error {
	if err := a.Meta.IndexOperation(ctx, o); err != nil {
		return err
	}
	return a.syncBookmarks(ctx, v)
}

// syncBookmarks 让书签投影表向视图收敛：视图里的书签逐个 CAS 写入，
// 表里多出来的行 (书签已在视图中删除) 用 absent 目标删掉
func (a *App) syncBookmarks(ctx context.Context, v *view.View) error {
	rows, err := a.Meta.ListBookmarks(ctx)
	if err != nil {
		return err
	}
	versions := make(map[string]int64, len(rows))
	for _, row := range rows {
		versions[row.Name] = row.Version
	}

	for name, target := range v.LocalBookmarks() {
		if err := a.Meta.UpsertBookmark(ctx, name, target, versions[name]); err != nil {
			return fmt.Errorf("failed to project bookmark %s: %w", name, err)
		}
		delete(versions, name)
	}
	for name, version := range versions {
		if err := a.Meta.UpsertBookmark(ctx, name, refs.AbsentTarget(), version); err != nil {
			return fmt.Errorf("failed to drop bookmark %s: %w", name, err)
		}
	}
	return nil
}
