// Package commit 定义带身份的 Commit 实体：不可变内容记录的包装，
// 外加一批依赖周边仓库状态的派生查询 (空提交、冲突、可丢弃)。
//
// 身份相等与排序完全由 CommitId 决定：两个独立加载、id 相同的
// Commit 实例可以互换使用。
package commit

import (
	"context"
	"iter"
	"sort"
	"sync"

	"opvault/pkg/core"
	"opvault/pkg/signing"
	"opvault/pkg/types"
)

// Backend 是 Commit 解析自身依赖所需的最小后端能力
// (*store.Store 实现了它；测试里可以用轻量 fake)
type Backend interface {
	GetCommitRecord(ctx context.Context, id types.CommitId) (*core.CommitRecord, error)
	GetTree(ctx context.Context, id types.TreeId) (*core.TreeRecord, error)
	GetRootTree(ctx context.Context, ref core.TreeRef) (*core.TreeRecord, error)
	MergeTrees(ctx context.Context, ids []types.TreeId) (*core.TreeRecord, error)
	Signer() signing.Signer
}

// Commit 是不可变提交记录的实体包装
// backend 句柄被所有实例共享 (最长持有者语义)，Commit 的有效性
// 不依赖任何曾指向它的 View
type Commit struct {
	backend Backend
	id      types.CommitId
	rec     *core.CommitRecord

	// 签名校验结果缓存 (校验慢，只做一次)
	verifyOnce sync.Once
	verifyRes  *signing.Verification
	verifyErr  error
}

// New 包装一条已密封的记录
func New(backend Backend, rec *core.CommitRecord) *Commit {
	return &Commit{backend: backend, id: rec.CommitId(), rec: rec}
}

// Get 按 Id 从后端加载 Commit；后端缺失该 id 时返回 not-found 错误
func Get(ctx context.Context, backend Backend, id types.CommitId) (*Commit, error) {
	rec, err := backend.GetCommitRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Commit{backend: backend, id: id, rec: rec}, nil
}

func (c *Commit) ID() types.CommitId       { return c.id }
func (c *Commit) ChangeId() types.ChangeId { return types.ChangeId(c.rec.ChangeId) }
func (c *Commit) Description() string      { return c.rec.Description }
func (c *Commit) Author() core.Signature   { return c.rec.Author }
func (c *Commit) Committer() core.Signature {
	return c.rec.Committer
}
func (c *Commit) TreeRef() core.TreeRef { return c.rec.RootTree }

// Record 暴露底层内容记录 (只读)
func (c *Commit) Record() *core.CommitRecord { return c.rec }

func (c *Commit) ParentIds() []types.CommitId      { return c.rec.ParentIds() }
func (c *Commit) PredecessorIds() []types.CommitId { return c.rec.PredecessorIds() }

// Parents 惰性遍历父提交。序列有限、可重启 (每次 range 重新查询)；
// 任何一个 id 在后端缺失都会把 not-found 错误交给消费方，绝不跳过。
func (c *Commit) Parents(ctx context.Context) iter.Seq2[*Commit, error] {
	return c.lookupSeq(ctx, c.rec.ParentIds())
}

// Predecessors 惰性遍历被本提交取代的旧提交
func (c *Commit) Predecessors(ctx context.Context) iter.Seq2[*Commit, error] {
	return c.lookupSeq(ctx, c.rec.PredecessorIds())
}

func (c *Commit) lookupSeq(ctx context.Context, ids []types.CommitId) iter.Seq2[*Commit, error] {
	return func(yield func(*Commit, error) bool) {
		for _, id := range ids {
			parent, err := Get(ctx, c.backend, id)
			if !yield(parent, err) {
				return
			}
		}
	}
}

// collectParents 收集全部父提交，遇错立即向上传播
func (c *Commit) collectParents(ctx context.Context) ([]*Commit, error) {
	var parents []*Commit
	for parent, err := range c.Parents(ctx) {
		if err != nil {
			return nil, err
		}
		parents = append(parents, parent)
	}
	return parents, nil
}

// Tree 解析根树 (多值引用会被合并)
func (c *Commit) Tree(ctx context.Context) (*core.TreeRecord, error) {
	return c.backend.GetRootTree(ctx, c.rec.RootTree)
}

// ParentTree 返回单个父提交的树；多父提交时返回各父树的 n 路合并
func (c *Commit) ParentTree(ctx context.Context) (*core.TreeRecord, error) {
	parents, err := c.collectParents(ctx)
	if err != nil {
		return nil, err
	}
	if len(parents) == 1 {
		return parents[0].Tree(ctx)
	}
	return mergeParentTrees(ctx, c.backend, parents)
}

func mergeParentTrees(ctx context.Context, backend Backend, parents []*Commit) (*core.TreeRecord, error) {
	ids := make([]types.TreeId, 0, len(parents))
	for _, p := range parents {
		tree, err := p.Tree(ctx)
		if err != nil {
			return nil, err
		}
		ids = append(ids, tree.TreeId())
	}
	return backend.MergeTrees(ctx, ids)
}

// IsEmpty 判断提交内容是否为空：树与 (单个或合并后的) 父树一致。
// 描述不参与判断。父提交查找失败会向上传播：把缺失的父当成
// “没有父”会破坏空提交语义。
func (c *Commit) IsEmpty(ctx context.Context) (bool, error) {
	parents, err := c.collectParents(ctx)
	if err != nil {
		return false, err
	}
	if len(parents) == 1 {
		return c.rec.RootTree.Equal(parents[0].rec.RootTree), nil
	}

	parentTree, err := mergeParentTrees(ctx, c.backend, parents)
	if err != nil {
		return false, err
	}
	own, err := c.Tree(ctx)
	if err != nil {
		return false, err
	}
	return own.TreeId() == parentTree.TreeId(), nil
}

// HasConflict 判断提交是否携带未解决冲突：
// 根树引用本身是多值合并，或 (resolved 时) 树内容带冲突条目
func (c *Commit) HasConflict(ctx context.Context) (bool, error) {
	if !c.rec.RootTree.IsResolved() {
		return true, nil
	}
	tree, err := c.Tree(ctx)
	if err != nil {
		return false, err
	}
	return tree.HasConflict(), nil
}

// IsDiscardable 可丢弃：描述为空 + 恰好一个父 + 树与父树一致。
// 调用方据此决定空编辑能否被静默丢掉。
func (c *Commit) IsDiscardable(ctx context.Context) (bool, error) {
	if c.rec.Description != "" {
		return false, nil
	}
	parents, err := c.collectParents(ctx)
	if err != nil {
		return false, err
	}
	if len(parents) != 1 {
		return false, nil
	}
	return c.rec.RootTree.Equal(parents[0].rec.RootTree), nil
}

// IsSigned 快速判断签名是否存在 (不触发校验)
func (c *Commit) IsSigned() bool {
	return c.rec.SecureSig != nil
}

// Verification 惰性校验附加签名并缓存结果。
// 未签名返回 (nil, nil)；校验本身无法执行时返回 SigningError。
func (c *Commit) Verification() (*signing.Verification, error) {
	if c.rec.SecureSig == nil {
		return nil, nil
	}
	c.verifyOnce.Do(func() {
		v, err := c.backend.Signer().Verify(c.id, c.rec.SecureSig.Data, c.rec.SecureSig.Sig)
		if err != nil {
			c.verifyErr = err
			return
		}
		c.verifyRes = &v
	})
	return c.verifyRes, c.verifyErr
}

// Compare 全序：只看 CommitId，与内容无关
func Compare(a, b *Commit) int {
	switch {
	case a.id < b.id:
		return -1
	case a.id > b.id:
		return 1
	default:
		return 0
	}
}

// SortByCommitterTimestamp 按提交者时间排序，时间相同时按 Id 决胜，
// 得到与到达顺序无关的稳定遍历序
func SortByCommitterTimestamp(commits []*Commit) {
	sort.SliceStable(commits, func(i, j int) bool {
		ti := commits[i].rec.Committer.Timestamp
		tj := commits[j].rec.Committer.Timestamp
		if ti != tj {
			return ti < tj
		}
		return commits[i].id < commits[j].id
	})
}

// Ids 辅助函数：实体列表转 Id 列表
func Ids(commits []*Commit) []types.CommitId {
	ids := make([]types.CommitId, len(commits))
	for i, c := range commits {
		ids[i] = c.id
	}
	return ids
}
