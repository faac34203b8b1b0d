package view

import (
	"opvault/pkg/refs"
	"opvault/pkg/types"
)

// MergeViews 是视图和解算法：对 (base, side1, side2) 做逐字段三方合并。
//
// 每个字段用自己的合并规则——头集合是带删除的并集，每个命名引用走
// RefTarget 三方合并，工作副本绑定按操作新近度取后写方 (side2 约定为
// 较新的操作：一个工作区概念上只有一个活主人)。
//
// 合并在良构输入上不会失败：没有字段被丢弃，冲突被表示而不是被拒绝。
// 悬空 Id 是后端层的问题，不在这里校验。
func MergeViews(base, side1, side2 *View) *View {
	out := NewView()

	mergeHeads(out, base, side1, side2)
	mergeWcBindings(out, base, side1, side2)

	mergeTargetMaps(out.localBookmarks, base.localBookmarks, side1.localBookmarks, side2.localBookmarks)
	mergeTargetMaps(out.tags, base.tags, side1.tags, side2.tags)
	mergeTargetMaps(out.gitRefs, base.gitRefs, side1.gitRefs, side2.gitRefs)
	out.gitHead = refs.MergeRefTargets(base.gitHead, side1.gitHead, side2.gitHead)

	mergeRemoteViews(out, base, side1, side2)
	return out
}

// mergeHeads 带删除的集合并：一个头在结果里，当且仅当它被任何一侧
// 新增，或双方都保留了它。只被一侧移除的头就此消失。
func mergeHeads(out, base, side1, side2 *View) {
	union := make(map[types.CommitId]struct{}, len(side1.headIds)+len(side2.headIds))
	for id := range side1.headIds {
		union[id] = struct{}{}
	}
	for id := range side2.headIds {
		union[id] = struct{}{}
	}

	for id := range union {
		_, inBase := base.headIds[id]
		_, in1 := side1.headIds[id]
		_, in2 := side2.headIds[id]

		added := !inBase && (in1 || in2)
		kept := inBase && in1 && in2
		if added || kept {
			out.headIds[id] = struct{}{}
		}
	}
}

// mergeWcBindings 工作副本绑定按 last-writer 策略：side2 相对 base
// 改动过的工作区采纳 side2，否则采纳 side1 (包括删除)。
func mergeWcBindings(out, base, side1, side2 *View) {
	union := make(map[types.WorkspaceId]struct{}, len(side1.wcCommitIds)+len(side2.wcCommitIds))
	for ws := range base.wcCommitIds {
		union[ws] = struct{}{}
	}
	for ws := range side1.wcCommitIds {
		union[ws] = struct{}{}
	}
	for ws := range side2.wcCommitIds {
		union[ws] = struct{}{}
	}

	for ws := range union {
		baseId, inBase := base.wcCommitIds[ws]
		id2, in2 := side2.wcCommitIds[ws]

		changed2 := in2 != inBase || (in2 && id2 != baseId)
		if changed2 {
			if in2 {
				out.wcCommitIds[ws] = id2
			}
			continue
		}
		if id1, in1 := side1.wcCommitIds[ws]; in1 {
			out.wcCommitIds[ws] = id1
		}
	}
}

// mergeTargetMaps 对三个稀疏 map 的名字并集逐名做 RefTarget 合并，
// 结果经 setSparse 写入 (合并回 absent 时条目消失)
func mergeTargetMaps(out, base, side1, side2 map[string]refs.RefTarget) {
	for name := range nameUnion(base, side1, side2) {
		merged := refs.MergeRefTargets(
			getOrAbsent(base, name),
			getOrAbsent(side1, name),
			getOrAbsent(side2, name),
		)
		setSparse(out, name, merged)
	}
}

func nameUnion[V any](base, side1, side2 map[string]V) map[string]struct{} {
	union := make(map[string]struct{}, len(side1)+len(side2))
	for name := range base {
		union[name] = struct{}{}
	}
	for name := range side1 {
		union[name] = struct{}{}
	}
	for name := range side2 {
		union[name] = struct{}{}
	}
	return union
}

// mergeRemoteViews 远端书签逐 (远端, 名) 做 RemoteRef 三方合并
func mergeRemoteViews(out, base, side1, side2 *View) {
	remotes := make(map[types.RemoteName]struct{})
	for remote := range base.remoteViews {
		remotes[remote] = struct{}{}
	}
	for remote := range side1.remoteViews {
		remotes[remote] = struct{}{}
	}
	for remote := range side2.remoteViews {
		remotes[remote] = struct{}{}
	}

	for remote := range remotes {
		b := base.remoteViews[remote]
		s1 := side1.remoteViews[remote]
		s2 := side2.remoteViews[remote]

		for name := range nameUnion(b, s1, s2) {
			merged := refs.MergeRemoteRefs(
				getOrAbsent(b, name),
				getOrAbsent(s1, name),
				getOrAbsent(s2, name),
			)
			out.SetRemoteBookmark(remote, name, merged)
		}
	}
}
