package refs

import (
	"opvault/pkg/types"
)

// MergeRefTargets 对同名引用做三方合并：base 是共同祖先的目标，
// side1/side2 是两个并发操作各自的目标。
//
// 语义是对 adds 多重集的对称差式合并：只被一侧加入的值被加入，
// 只被一侧移除的值被移除，双方都没碰的值保持不变。两侧不相容时
// (各自 resolve 到不同提交，或一侧删除另一侧移动)，结果是携带
// 全部参与者的 conflicted 目标，绝不擅自挑选一侧。
//
// 结果只取决于 (base, side1, side2) 三元组的值，对 side1/side2 可交换。
// 合并在 RefTarget 域上是全函数：不会失败。
func MergeRefTargets(base, side1, side2 RefTarget) RefTarget {
	// 平凡情形短路：没动的一侧被湮灭，两侧一致则采纳
	if side1.Equal(base) || side1.Equal(side2) {
		return side2
	}
	if side2.Equal(base) {
		return side1
	}

	// 合并代数：merged = side1 + side2 - base
	// base 取反后并入 (adds 变 removes，removes 变 adds)，
	// 再由 newFromMultiset 做成对抵消与规范化
	var adds, removes []types.CommitId

	a1, r1 := side1.asMergeTerms()
	a2, r2 := side2.asMergeTerms()
	ab, rb := base.asMergeTerms()

	adds = append(adds, a1...)
	adds = append(adds, a2...)
	adds = append(adds, rb...)

	removes = append(removes, r1...)
	removes = append(removes, r2...)
	removes = append(removes, ab...)

	return newFromMultiset(adds, removes)
}

// asMergeTerms 把目标展开成参与合并代数的 adds/removes 项。
// absent 展开成一个占位符 add：这样“删除”能和另一侧的
// “删除”或“移动”在抵消阶段正确配对。
func (t RefTarget) asMergeTerms() (adds, removes []types.CommitId) {
	if t.conflict != nil {
		return t.conflict.adds, t.conflict.removes
	}
	// resolved 或 absent 都是单项：absent 的 id 是零值占位符
	return []types.CommitId{t.id}, nil
}
