// Package op 实现操作日志：仓库命名状态的每次变更都落成一条不可变的
// OperationRecord (payload 是一个 View 快照)，父指针构成 op-log DAG。
//
// 并发是外部的：多个进程各自基于同一个头追加操作，观察到分叉时通过
// Reconcile 做确定性的视图合并。日志只追加，核心没有锁。
package op

import (
	"context"
	"fmt"
	"iter"
	"sort"

	"opvault/pkg/core"
	"opvault/pkg/store"
	"opvault/pkg/types"
	"opvault/pkg/view"
)

// Operation 是操作日志条目的实体包装
type Operation struct {
	store *store.Store
	id    types.OperationId
	rec   *core.OperationRecord
}

// Get 按 Id 加载操作
func Get(ctx context.Context, s *store.Store, id types.OperationId) (*Operation, error) {
	rec, err := s.GetOperation(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Operation{store: s, id: id, rec: rec}, nil
}

func wrap(s *store.Store, rec *core.OperationRecord) *Operation {
	return &Operation{store: s, id: rec.OperationId(), rec: rec}
}

func (o *Operation) ID() types.OperationId          { return o.id }
func (o *Operation) Metadata() core.OpMetadata      { return o.rec.Meta }
func (o *Operation) ParentIds() []types.OperationId { return o.rec.ParentIds() }
func (o *Operation) ViewHash() string               { return o.rec.ViewHash.Hash }

// View 加载本操作记录的视图快照 (工作副本形态)
func (o *Operation) View(ctx context.Context) (*view.View, error) {
	rec, err := o.store.GetView(ctx, o.rec.ViewHash.Hash)
	if err != nil {
		return nil, fmt.Errorf("view of operation %s: %w", o.id, err)
	}
	return view.FromRecord(rec), nil
}

// Parents 惰性遍历父操作；缺失的 id 把 not-found 交给消费方
func (o *Operation) Parents(ctx context.Context) iter.Seq2[*Operation, error] {
	return func(yield func(*Operation, error) bool) {
		for _, id := range o.rec.ParentIds() {
			parent, err := Get(ctx, o.store, id)
			if !yield(parent, err) {
				return
			}
		}
	}
}

// Compare 全序：只看 OperationId
func Compare(a, b *Operation) int {
	switch {
	case a.id < b.id:
		return -1
	case a.id > b.id:
		return 1
	default:
		return 0
	}
}

// sortByRecency 按结束时间升序排序，时间相同按 Id 决胜。
// Reconcile 依赖它确定“较新的操作”(last-writer 策略的 side2)。
func sortByRecency(ops []*Operation) {
	sort.SliceStable(ops, func(i, j int) bool {
		ti, tj := ops[i].rec.Meta.EndTime, ops[j].rec.Meta.EndTime
		if ti != tj {
			return ti < tj
		}
		return ops[i].id < ops[j].id
	})
}
