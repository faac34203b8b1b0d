package op

import (
	"context"
	"fmt"
	"log/slog"

	"opvault/pkg/core"
	"opvault/pkg/store"
	"opvault/pkg/types"
	"opvault/pkg/view"
)

// Recorded 在一个操作成功落盘后被调用，用于增量维护派生数据
// (SQL 投影、提交图索引)。派生数据永远可以全量重建，所以回调失败
// 只记日志，不回滚操作。
type Recorded func(ctx context.Context, o *Operation, v *view.View) error

// Log 把 CAS 与 op-heads 目录组合成操作日志
type Log struct {
	store    *store.Store
	heads    *HeadsDir
	recorded Recorded
}

func NewLog(s *store.Store, heads *HeadsDir) *Log {
	return &Log{store: s, heads: heads}
}

// SetRecorded 注册落盘通知回调；Reconcile 产生的合并操作同样会通知
func (l *Log) SetRecorded(fn Recorded) { l.recorded = fn }

// Heads 加载当前全部头操作
func (l *Log) Heads(ctx context.Context) ([]*Operation, error) {
	ids, err := l.heads.Heads()
	if err != nil {
		return nil, err
	}
	ops := make([]*Operation, 0, len(ids))
	for _, id := range ids {
		o, err := Get(ctx, l.store, id)
		if err != nil {
			return nil, err
		}
		ops = append(ops, o)
	}
	return ops, nil
}

// Record 把一个视图落成新的操作：写入视图快照与操作记录，
// 登记新头并摘掉被取代的父头。
func (l *Log) Record(ctx context.Context, v *view.View, parents []*Operation, meta core.OpMetadata) (*Operation, error) {
	viewRec, err := v.ToRecord()
	if err != nil {
		return nil, fmt.Errorf("failed to seal view: %w", err)
	}
	if err := l.store.Put(ctx, viewRec); err != nil {
		return nil, fmt.Errorf("failed to store view: %w", err)
	}

	parentIds := make([]types.OperationId, len(parents))
	for i, p := range parents {
		parentIds[i] = p.ID()
	}

	opRec, err := core.NewOperationRecord(core.OperationRecord{
		Parents:  core.LinksOf(parentIds),
		ViewHash: core.NewLink(viewRec.ID()),
		Meta:     meta,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to seal operation: %w", err)
	}
	if err := l.store.Put(ctx, opRec); err != nil {
		return nil, fmt.Errorf("failed to store operation: %w", err)
	}

	o := wrap(l.store, opRec)
	if err := l.heads.Update(o.ID(), parentIds); err != nil {
		return nil, err
	}

	if l.recorded != nil {
		if err := l.recorded(ctx, o, v); err != nil {
			slog.Warn("post-record hook failed, derived data may lag", "op", o.ID(), "err", err)
		}
	}
	return o, nil
}

// MergeBase 返回两个操作在 op-log DAG 上最近的共同祖先。
// 做法：先收集 a 的全部祖先，再从 b 按 BFS 向上走，第一个命中即最近。
func (l *Log) MergeBase(ctx context.Context, a, b *Operation) (*Operation, error) {
	ancestors := make(map[types.OperationId]struct{})
	queue := []*Operation{a}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if _, seen := ancestors[cur.ID()]; seen {
			continue
		}
		ancestors[cur.ID()] = struct{}{}
		for parent, err := range cur.Parents(ctx) {
			if err != nil {
				return nil, err
			}
			queue = append(queue, parent)
		}
	}

	visited := make(map[types.OperationId]struct{})
	queue = []*Operation{b}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if _, seen := visited[cur.ID()]; seen {
			continue
		}
		visited[cur.ID()] = struct{}{}
		if _, hit := ancestors[cur.ID()]; hit {
			return cur, nil
		}
		for parent, err := range cur.Parents(ctx) {
			if err != nil {
				return nil, err
			}
			queue = append(queue, parent)
		}
	}
	return nil, fmt.Errorf("operations %s and %s share no ancestor", a.ID(), b.ID())
}

// Reconcile 收敛分叉的日志头。
//
// 头按操作新近度排序后逐个折叠：每一步找出累积操作与下一个头的
// 共同祖先视图，做三方视图合并 (较新的头作为 side2，工作副本绑定的
// last-writer 策略由此生效)，合并结果落成一个双亲操作再参与下一步。
// 单头时直接返回，不产生新操作。
func (l *Log) Reconcile(ctx context.Context, user string) (*Operation, error) {
	heads, err := l.Heads(ctx)
	if err != nil {
		return nil, err
	}
	switch len(heads) {
	case 0:
		return nil, ErrNoHeads
	case 1:
		return heads[0], nil
	}

	sortByRecency(heads)
	slog.Info("reconciling divergent operations", "heads", len(heads))

	acc := heads[0]
	accView, err := acc.View(ctx)
	if err != nil {
		return nil, err
	}

	for _, head := range heads[1:] {
		base, err := l.MergeBase(ctx, acc, head)
		if err != nil {
			return nil, err
		}
		baseView, err := base.View(ctx)
		if err != nil {
			return nil, err
		}
		headView, err := head.View(ctx)
		if err != nil {
			return nil, err
		}

		merged := view.MergeViews(baseView, accView, headView)

		ts := head.Metadata().EndTime
		if acc.Metadata().EndTime > ts {
			ts = acc.Metadata().EndTime
		}
		acc, err = l.Record(ctx, merged, []*Operation{acc, head}, core.OpMetadata{
			StartTime:   ts,
			EndTime:     ts,
			Description: "reconcile divergent operations",
			User:        user,
		})
		if err != nil {
			return nil, err
		}
		accView = merged
	}
	return acc, nil
}
