// Package refs 定义命名引用的目标值 (RefTarget) 及其三方合并算法。
//
// RefTarget 是整个冲突表示的原子单元：一个引用要么缺位 (absent)，要么
// 指向单个提交 (resolved)，要么是一次未解决合并的 adds/removes 多重集
// (conflicted)。所有消费方都必须区分 resolved 与 conflicted，禁止
// 把 conflicted 悄悄截断成某一个 add。
package refs

import (
	"sort"

	"opvault/pkg/types"
)

// RefTarget 是命名引用 (书签/标签/git ref/HEAD) 的目标值。
// 零值即 absent。为了让占绝对多数的 resolved 情形零分配，
// 内部用小 tagged variant 而不是通用的多值结构。
type RefTarget struct {
	// resolved 时的目标；conflict 非 nil 时无意义
	id types.CommitId

	conflict *refConflict
}

// refConflict 记录一次未解决合并的参与者
// adds 里允许出现零值 CommitId：它是“某一侧是 absent”的占位符
// (例如一侧删除、另一侧移动书签时)。两个列表都保持排序。
type refConflict struct {
	adds    []types.CommitId
	removes []types.CommitId
}

// AbsentTarget 返回缺位目标 (即零值)
func AbsentTarget() RefTarget {
	return RefTarget{}
}

// NormalTarget 返回指向单个提交的目标；零值 Id 等价于 absent
func NormalTarget(id types.CommitId) RefTarget {
	return RefTarget{id: id}
}

// ConflictTarget 从 adds/removes 多重集构造目标，并做规范化：
// 成对抵消相同的 add/remove，排序，能坍缩成 resolved/absent 则坍缩。
func ConflictTarget(adds, removes []types.CommitId) RefTarget {
	return newFromMultiset(adds, removes)
}

// IsAbsent 判断目标是否缺位
func (t RefTarget) IsAbsent() bool {
	return t.conflict == nil && t.id.IsZero()
}

// IsPresent 与 IsAbsent 互补；sparse-map 不变式依赖它：
// absent 的目标从不作为 map entry 存储
func (t RefTarget) IsPresent() bool {
	return !t.IsAbsent()
}

// HasConflict 判断目标是否处于未解决合并状态
func (t RefTarget) HasConflict() bool {
	return t.conflict != nil
}

// AsNormal 返回 resolved 状态下的单一提交 Id。
// 这是“resolved id or none”的唯一入口：conflicted 目标返回 ok=false，
// 调用方不允许自行挑选某个 add。
func (t RefTarget) AsNormal() (types.CommitId, bool) {
	if t.conflict != nil || t.id.IsZero() {
		return "", false
	}
	return t.id, true
}

// AddedIds 返回目标的 add 一侧 (跳过 absent 占位符)
// resolved 目标返回单元素列表
func (t RefTarget) AddedIds() []types.CommitId {
	if t.conflict == nil {
		if t.id.IsZero() {
			return nil
		}
		return []types.CommitId{t.id}
	}
	ids := make([]types.CommitId, 0, len(t.conflict.adds))
	for _, id := range t.conflict.adds {
		if !id.IsZero() {
			ids = append(ids, id)
		}
	}
	return ids
}

// RemovedIds 返回目标的 remove 一侧
func (t RefTarget) RemovedIds() []types.CommitId {
	if t.conflict == nil {
		return nil
	}
	ids := make([]types.CommitId, 0, len(t.conflict.removes))
	for _, id := range t.conflict.removes {
		if !id.IsZero() {
			ids = append(ids, id)
		}
	}
	return ids
}

// Multiset 返回目标的原始 adds/removes 多重集，含 absent 占位符
// (零值 Id)。这是存储层序列化的入口：AddedIds/RemovedIds 会丢掉
// 占位符，不能用于落盘。返回的切片只读。
func (t RefTarget) Multiset() (adds, removes []types.CommitId) {
	if t.conflict != nil {
		return t.conflict.adds, t.conflict.removes
	}
	if t.id.IsZero() {
		return nil, nil
	}
	return []types.CommitId{t.id}, nil
}

// AllIds 返回目标引用到的全部提交 Id (adds 和 removes 两侧)。
// 重建索引时必须包含 removes：被取代的冲突状态的历史仍需可达。
func (t RefTarget) AllIds() []types.CommitId {
	ids := t.AddedIds()
	return append(ids, t.RemovedIds()...)
}

// Equal 深比较两个目标
func (t RefTarget) Equal(other RefTarget) bool {
	if (t.conflict == nil) != (other.conflict == nil) {
		return false
	}
	if t.conflict == nil {
		return t.id == other.id
	}
	return equalIds(t.conflict.adds, other.conflict.adds) &&
		equalIds(t.conflict.removes, other.conflict.removes)
}

func equalIds(a, b []types.CommitId) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// String 供日志/调试输出
func (t RefTarget) String() string {
	switch {
	case t.IsAbsent():
		return "(absent)"
	case t.conflict == nil:
		return t.id.String()
	default:
		s := "(conflict +["
		for i, id := range t.conflict.adds {
			if i > 0 {
				s += " "
			}
			s += shortId(id)
		}
		s += "] -["
		for i, id := range t.conflict.removes {
			if i > 0 {
				s += " "
			}
			s += shortId(id)
		}
		return s + "])"
	}
}

func shortId(id types.CommitId) string {
	if id.IsZero() {
		return "absent"
	}
	if len(id) > 12 {
		return string(id[:12])
	}
	return string(id)
}

// newFromMultiset 规范化 adds/removes 多重集
func newFromMultiset(adds, removes []types.CommitId) RefTarget {
	adds, removes = cancelPairs(adds, removes)

	switch {
	case len(adds) == 0 && len(removes) == 0:
		return AbsentTarget()
	case len(adds) == 1 && len(removes) == 0:
		return NormalTarget(adds[0]) // 占位符 add 在 NormalTarget 里坍缩成 absent
	default:
		sort.Slice(adds, func(i, j int) bool { return adds[i] < adds[j] })
		sort.Slice(removes, func(i, j int) bool { return removes[i] < removes[j] })
		return RefTarget{conflict: &refConflict{adds: adds, removes: removes}}
	}
}

// cancelPairs 按值成对抵消 add/remove
// 每个值抵消 min(add次数, remove次数) 次，剩余的保留
func cancelPairs(adds, removes []types.CommitId) ([]types.CommitId, []types.CommitId) {
	removeCount := make(map[types.CommitId]int, len(removes))
	for _, id := range removes {
		removeCount[id]++
	}

	keptAdds := make([]types.CommitId, 0, len(adds))
	for _, id := range adds {
		if removeCount[id] > 0 {
			removeCount[id]--
			continue
		}
		keptAdds = append(keptAdds, id)
	}

	keptRemoves := make([]types.CommitId, 0, len(removes))
	for _, id := range removes {
		if c := removeCount[id]; c > 0 {
			removeCount[id] = c - 1
			keptRemoves = append(keptRemoves, id)
		}
	}
	return keptAdds, keptRemoves
}
