// Package index 维护提交图索引：从一个视图快照可达的全部提交的
// 邻接表，持久化为单个 JSON 文件 (.ov/index)。
//
// 索引是纯派生数据：种子集合来自 View.AllReferencedCommitIds()
// (含冲突目标的 removes 一侧——被取代状态的历史仍需可达)，
// 任意快照都能全量重建。
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"sync"

	"opvault/pkg/core"
	"opvault/pkg/types"
	"opvault/pkg/view"

	"golang.org/x/sync/errgroup"
)

// rebuildWorkers 限制重建时并发拉取提交记录的协程数
const rebuildWorkers = 8

// RecordSource 是重建索引所需的最小后端能力 (*store.Store 实现了它)
type RecordSource interface {
	GetCommitRecord(ctx context.Context, id types.CommitId) (*core.CommitRecord, error)
}

// Entry 是索引里的一个提交节点
type Entry struct {
	Id        types.CommitId   `json:"id"`
	Parents   []types.CommitId `json:"parents,omitempty"`
	ChangeId  types.ChangeId   `json:"change_id"`
	Timestamp int64            `json:"timestamp"` // 提交者时间，Unix 秒
}

// Index 管理提交图索引状态
type Index struct {
	path    string                   // 物理文件路径 (.ov/index)
	Entries map[types.CommitId]Entry `json:"entries"`
	mu      sync.RWMutex
}

// NewIndex 加载或创建索引
func NewIndex(indexPath string) (*Index, error) {
	idx := &Index{
		path:    indexPath,
		Entries: make(map[types.CommitId]Entry),
	}

	if _, err := os.Stat(indexPath); err == nil {
		data, err := os.ReadFile(indexPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read index: %w", err)
		}
		if err := json.Unmarshal(data, idx); err != nil {
			return nil, fmt.Errorf("corrupted index file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	return idx, nil
}

// Rebuild 从视图快照全量重建索引。
//
// 按层 BFS：每一层的提交记录用 errgroup 并发拉取 (上限
// rebuildWorkers)，父指针构成下一层。任何一个 id 在后端缺失都让
// 整次重建失败——悄悄跳过会留下残缺的图。
func (i *Index) Rebuild(ctx context.Context, src RecordSource, v *view.View) error {
	entries := make(map[types.CommitId]Entry)

	var frontier []types.CommitId
	seen := make(map[types.CommitId]struct{})
	for id := range v.AllReferencedCommitIds {
		if id.IsZero() {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		frontier = append(frontier, id)
	}

	for len(frontier) > 0 {
		level := make([]Entry, len(frontier))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(rebuildWorkers)
		for slot, id := range frontier {
			g.Go(func() error {
				rec, err := src.GetCommitRecord(gctx, id)
				if err != nil {
					return fmt.Errorf("indexing %s: %w", id, err)
				}
				level[slot] = Entry{
					Id:        id,
					Parents:   rec.ParentIds(),
					ChangeId:  types.ChangeId(rec.ChangeId),
					Timestamp: rec.Committer.Timestamp,
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		var next []types.CommitId
		for _, e := range level {
			entries[e.Id] = e
			for _, p := range e.Parents {
				if _, ok := seen[p]; ok {
					continue
				}
				seen[p] = struct{}{}
				next = append(next, p)
			}
		}
		frontier = next
	}

	i.mu.Lock()
	i.Entries = entries
	i.mu.Unlock()
	return nil
}

// Save 将索引持久化到磁盘
func (i *Index) Save() error {
	i.mu.RLock()
	defer i.mu.RUnlock()

	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(i.path, data, 0o644)
}

// Has 判断提交是否在索引里
func (i *Index) Has(id types.CommitId) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.Entries[id]
	return ok
}

// Get 返回一个提交节点
func (i *Index) Get(id types.CommitId) (Entry, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	e, ok := i.Entries[id]
	return e, ok
}

// Len 返回索引里的提交数量
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.Entries)
}

// Snapshot 返回当前节点表的副本，用于并发安全的读取
func (i *Index) Snapshot() map[types.CommitId]Entry {
	i.mu.RLock()
	defer i.mu.RUnlock()

	snap := make(map[types.CommitId]Entry, len(i.Entries))
	maps.Copy(snap, i.Entries)
	return snap
}

// IsAncestor 判断 ancestor 是否为 descendant 的祖先 (含自身)。
// 只依赖索引内的邻接表，不触发后端查找。
func (i *Index) IsAncestor(ancestor, descendant types.CommitId) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()

	seen := make(map[types.CommitId]struct{})
	stack := []types.CommitId{descendant}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == ancestor {
			return true
		}
		if _, ok := seen[cur]; ok {
			continue
		}
		seen[cur] = struct{}{}
		if e, ok := i.Entries[cur]; ok {
			stack = append(stack, e.Parents...)
		}
	}
	return false
}
