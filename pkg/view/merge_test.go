package view

import (
	"testing"

	"opvault/pkg/refs"
	"opvault/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clone(v *View) *View {
	rec, err := v.ToRecord()
	if err != nil {
		panic(err)
	}
	return FromRecord(rec)
}

// 核心场景：两个进程基于 main -> C1 并发把 main 改到 C2 / C3，
// 和解结果是 adds={C2,C3} removes={C1} 的冲突，而不是后写覆盖
func TestMergeViews_DivergentBookmark(t *testing.T) {
	base := NewView()
	base.SetLocalBookmarkTarget("main", refs.NormalTarget(cid("c1")))

	side1 := clone(base)
	side1.SetLocalBookmarkTarget("main", refs.NormalTarget(cid("c2")))

	side2 := clone(base)
	side2.SetLocalBookmarkTarget("main", refs.NormalTarget(cid("c3")))

	merged := MergeViews(base, side1, side2)

	got := merged.GetLocalBookmark("main")
	require.True(t, got.HasConflict())
	want := refs.ConflictTarget(
		[]types.CommitId{cid("c2"), cid("c3")},
		[]types.CommitId{cid("c1")},
	)
	assert.True(t, want.Equal(got))

	// 对两个非 base 参数可交换
	swapped := MergeViews(base, side2, side1)
	assert.True(t, got.Equal(swapped.GetLocalBookmark("main")))
}

func TestMergeViews_SingleSideChangeWins(t *testing.T) {
	base := NewView()
	base.SetLocalBookmarkTarget("main", refs.NormalTarget(cid("c1")))
	base.SetTagTarget("v1", refs.NormalTarget(cid("c1")))

	// side1 没动，side2 移动了 main 并删除了 v1
	side1 := clone(base)
	side2 := clone(base)
	side2.SetLocalBookmarkTarget("main", refs.NormalTarget(cid("c2")))
	side2.SetTagTarget("v1", refs.AbsentTarget())

	merged := MergeViews(base, side1, side2)

	id, ok := merged.GetLocalBookmark("main").AsNormal()
	require.True(t, ok)
	assert.Equal(t, cid("c2"), id)

	// 合并回 absent 的条目不出现在枚举里
	assert.True(t, merged.GetTag("v1").IsAbsent())
	var tags []string
	for name := range merged.Tags() {
		tags = append(tags, name)
	}
	assert.Empty(t, tags)
}

func TestMergeViews_Heads_UnionWithRemoval(t *testing.T) {
	base := NewView()
	base.AddHead(cid("kept"))
	base.AddHead(cid("removed-by-1"))
	base.AddHead(cid("removed-by-both"))

	side1 := clone(base)
	side1.RemoveHead(cid("removed-by-1"))
	side1.RemoveHead(cid("removed-by-both"))
	side1.AddHead(cid("added-by-1"))

	side2 := clone(base)
	side2.RemoveHead(cid("removed-by-both"))
	side2.AddHead(cid("added-by-2"))

	merged := MergeViews(base, side1, side2)

	assert.True(t, merged.IsHead(cid("kept")))
	assert.True(t, merged.IsHead(cid("added-by-1")))
	assert.True(t, merged.IsHead(cid("added-by-2")))
	assert.False(t, merged.IsHead(cid("removed-by-1")))
	assert.False(t, merged.IsHead(cid("removed-by-both")))
}

// 工作副本绑定不做冲突表示：一个工作区只有一个活主人，按操作新近度
// 取后写方 (side2 约定为较新的一侧)
func TestMergeViews_WcBindings_LastWriter(t *testing.T) {
	base := NewView()
	base.SetWcCommit("both-changed", cid("c1"))
	base.SetWcCommit("only-1", cid("c1"))
	base.SetWcCommit("removed-by-2", cid("c1"))

	side1 := clone(base)
	side1.SetWcCommit("both-changed", cid("c2"))
	side1.SetWcCommit("only-1", cid("c4"))

	side2 := clone(base)
	side2.SetWcCommit("both-changed", cid("c3"))
	side2.RemoveWcCommit("removed-by-2")
	side2.SetWcCommit("added-by-2", cid("c5"))

	merged := MergeViews(base, side1, side2)

	// 双方都改 → 较新一侧胜出
	id, _ := merged.WcCommitId("both-changed")
	assert.Equal(t, cid("c3"), id)

	// 只有旧侧改 → 保留旧侧的改动
	id, _ = merged.WcCommitId("only-1")
	assert.Equal(t, cid("c4"), id)

	// 新侧的删除与新增都生效
	_, ok := merged.WcCommitId("removed-by-2")
	assert.False(t, ok)
	id, _ = merged.WcCommitId("added-by-2")
	assert.Equal(t, cid("c5"), id)
}

func TestMergeViews_RemoteBookmarks(t *testing.T) {
	base := NewView()
	base.SetRemoteBookmark("origin", "main", refs.RemoteRef{
		Target: refs.NormalTarget(cid("c1")),
		State:  refs.RemoteRefNew,
	})

	// side1 开始跟踪，side2 观察到远端前进
	side1 := clone(base)
	side1.SetRemoteBookmark("origin", "main", refs.RemoteRef{
		Target: refs.NormalTarget(cid("c1")),
		State:  refs.RemoteRefTracked,
	})

	side2 := clone(base)
	side2.SetRemoteBookmark("origin", "main", refs.RemoteRef{
		Target: refs.NormalTarget(cid("c2")),
		State:  refs.RemoteRefNew,
	})

	merged := MergeViews(base, side1, side2)
	got := merged.GetRemoteBookmark("origin", "main")

	// 两类改动互不冲突：跟踪标志取被改的一侧，目标取被改的一侧
	assert.True(t, got.IsTracked())
	id, ok := got.Target.AsNormal()
	require.True(t, ok)
	assert.Equal(t, cid("c2"), id)
}

func TestMergeViews_GitHead(t *testing.T) {
	base := NewView()
	base.SetGitHeadTarget(refs.NormalTarget(cid("c1")))

	side1 := clone(base)
	side2 := clone(base)
	side2.SetGitHeadTarget(refs.NormalTarget(cid("c2")))

	merged := MergeViews(base, side1, side2)
	id, ok := merged.GitHead().AsNormal()
	require.True(t, ok)
	assert.Equal(t, cid("c2"), id)
}

// 三路同值恒等：没人改动时合并就是恒等变换
func TestMergeViews_Idempotent(t *testing.T) {
	base := NewView()
	base.AddHead(cid("h"))
	base.SetWcCommit(types.DefaultWorkspaceId, cid("wc"))
	base.SetLocalBookmarkTarget("main", refs.NormalTarget(cid("c1")))
	base.SetRemoteBookmark("origin", "main", refs.RemoteRef{
		Target: refs.NormalTarget(cid("c1")),
		State:  refs.RemoteRefTracked,
	})

	merged := MergeViews(base, clone(base), clone(base))

	recA, err := base.ToRecord()
	require.NoError(t, err)
	recB, err := merged.ToRecord()
	require.NoError(t, err)
	assert.Equal(t, recA.ID(), recB.ID())
}
