package refs

import (
	"testing"

	"opvault/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefTarget_States(t *testing.T) {
	c1 := mockId("c1")
	c2 := mockId("c2")

	absent := AbsentTarget()
	assert.True(t, absent.IsAbsent())
	assert.False(t, absent.IsPresent())
	assert.False(t, absent.HasConflict())
	_, ok := absent.AsNormal()
	assert.False(t, ok)

	normal := NormalTarget(c1)
	assert.True(t, normal.IsPresent())
	assert.False(t, normal.HasConflict())
	id, ok := normal.AsNormal()
	require.True(t, ok)
	assert.Equal(t, c1, id)

	conflict := ConflictTarget([]types.CommitId{c1, c2}, nil)
	assert.True(t, conflict.IsPresent())
	assert.True(t, conflict.HasConflict())
	_, ok = conflict.AsNormal()
	assert.False(t, ok, "conflicted 目标绝不能被当作单个 Id 读取")
}

func TestRefTarget_Normalization(t *testing.T) {
	c1 := mockId("c1")
	c2 := mockId("c2")

	// 单 add 坍缩成 resolved
	assert.True(t, ConflictTarget([]types.CommitId{c1}, nil).Equal(NormalTarget(c1)))

	// 零值 Id 坍缩成 absent
	assert.True(t, NormalTarget("").IsAbsent())

	// add/remove 成对抵消
	collapsed := ConflictTarget([]types.CommitId{c1, c2}, []types.CommitId{c2})
	assert.True(t, collapsed.Equal(NormalTarget(c1)))

	// 全部抵消则 absent
	gone := ConflictTarget([]types.CommitId{c1}, []types.CommitId{c1})
	assert.True(t, gone.IsAbsent())
}

func TestRefTarget_AllIds_IncludesRemoves(t *testing.T) {
	x := mockId("x")
	y := mockId("y")
	z := mockId("z")

	target := ConflictTarget([]types.CommitId{x, y}, []types.CommitId{z})
	all := target.AllIds()
	assert.Contains(t, all, x)
	assert.Contains(t, all, y)
	assert.Contains(t, all, z, "removes 一侧的 Id 也必须可达")
}

func TestRefTarget_Equal_OrderInsensitive(t *testing.T) {
	x := mockId("x")
	y := mockId("y")

	a := ConflictTarget([]types.CommitId{x, y}, nil)
	b := ConflictTarget([]types.CommitId{y, x}, nil)
	assert.True(t, a.Equal(b), "规范化排序后顺序不应影响相等性")
}
