// Package view 实现仓库命名状态的聚合根：每个工作区的工作副本绑定、
// 头集合、本地/远端书签、标签、git ref 与 git HEAD。
//
// View 是操作日志条目的 payload：记录后不可变。这里的修改方法都作用在
// 一个尚未落盘的工作副本上，落盘 (ToRecord) 之后就是新的不可变快照。
//
// 表示不变式：absent 的 RefTarget 从不作为 map entry 存储——“设置为
// absent”等价于删除条目。所有 setter 都经过 setSparse，保证未来新增
// 字段也不会破坏这条稀疏规则。
package view

import (
	"errors"
	"sort"

	"opvault/pkg/refs"
	"opvault/pkg/types"
)

var (
	// ErrWorkspaceDoesNotExist 重命名的源工作区不存在
	ErrWorkspaceDoesNotExist = errors.New("workspace does not exist")
	// ErrWorkspaceAlreadyExists 重命名的目标工作区已有绑定
	ErrWorkspaceAlreadyExists = errors.New("workspace already exists")
)

// View 是命名状态快照的内存形态
// map 的 key 唯一；heads 是集合 (无重复、无序)
type View struct {
	wcCommitIds    map[types.WorkspaceId]types.CommitId
	headIds        map[types.CommitId]struct{}
	localBookmarks map[string]refs.RefTarget
	tags           map[string]refs.RefTarget
	remoteViews    map[types.RemoteName]map[string]refs.RemoteRef
	gitRefs        map[string]refs.RefTarget
	gitHead        refs.RefTarget
}

// NewView 返回一个空视图
func NewView() *View {
	return &View{
		wcCommitIds:    make(map[types.WorkspaceId]types.CommitId),
		headIds:        make(map[types.CommitId]struct{}),
		localBookmarks: make(map[string]refs.RefTarget),
		tags:           make(map[string]refs.RefTarget),
		remoteViews:    make(map[types.RemoteName]map[string]refs.RemoteRef),
		gitRefs:        make(map[string]refs.RefTarget),
	}
}

// isPresent 是稀疏 map 的在位谓词
type isPresent interface {
	IsPresent() bool
}

// setSparse 统一的 upsert-or-delete：在位则写入，缺位则删除条目。
// 稀疏规则只在这一个地方实现。
func setSparse[K comparable, V isPresent](m map[K]V, key K, v V) {
	if v.IsPresent() {
		m[key] = v
	} else {
		delete(m, key)
	}
}

// getOrAbsent 读取稀疏 map，条目缺失即 absent (由 V 的零值表达)
func getOrAbsent[K comparable, V any](m map[K]V, key K) V {
	return m[key]
}

// -----------------------------------------------------------------------------
// 工作副本绑定
// -----------------------------------------------------------------------------

// WcCommitId 返回工作区当前绑定的提交
func (v *View) WcCommitId(ws types.WorkspaceId) (types.CommitId, bool) {
	id, ok := v.wcCommitIds[ws]
	return id, ok
}

// SetWcCommit 绑定工作区到某个提交 (简单 upsert)
func (v *View) SetWcCommit(ws types.WorkspaceId, id types.CommitId) {
	v.wcCommitIds[ws] = id
}

// RemoveWcCommit 解除工作区绑定
func (v *View) RemoveWcCommit(ws types.WorkspaceId) {
	delete(v.wcCommitIds, ws)
}

// WcCommitIds 返回全部绑定的浅拷贝
func (v *View) WcCommitIds() map[types.WorkspaceId]types.CommitId {
	out := make(map[types.WorkspaceId]types.CommitId, len(v.wcCommitIds))
	for ws, id := range v.wcCommitIds {
		out[ws] = id
	}
	return out
}

// WorkspacesForWcCommitId 线性扫描返回绑定到该提交的全部工作区 (有序)。
// 绑定数量与工作区数同阶，不值得维护反向索引。
func (v *View) WorkspacesForWcCommitId(id types.CommitId) []types.WorkspaceId {
	var out []types.WorkspaceId
	for ws, bound := range v.wcCommitIds {
		if bound == id {
			out = append(out, ws)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsWcCommitId 判断提交是否被任何工作区绑定
func (v *View) IsWcCommitId(id types.CommitId) bool {
	for _, bound := range v.wcCommitIds {
		if bound == id {
			return true
		}
	}
	return false
}

// RenameWorkspace 原子地把绑定从 old 移到 new。
// 失败时 (源不存在 / 目标已占用) 视图保持原样，不留下半成品状态。
func (v *View) RenameWorkspace(old, new types.WorkspaceId) error {
	id, ok := v.wcCommitIds[old]
	if !ok {
		return ErrWorkspaceDoesNotExist
	}
	if _, taken := v.wcCommitIds[new]; taken {
		return ErrWorkspaceAlreadyExists
	}
	delete(v.wcCommitIds, old)
	v.wcCommitIds[new] = id
	return nil
}

// -----------------------------------------------------------------------------
// 头集合
// -----------------------------------------------------------------------------

// HeadIds 返回头集合的有序副本
func (v *View) HeadIds() []types.CommitId {
	out := make([]types.CommitId, 0, len(v.headIds))
	for id := range v.headIds {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (v *View) IsHead(id types.CommitId) bool {
	_, ok := v.headIds[id]
	return ok
}

func (v *View) AddHead(id types.CommitId) {
	v.headIds[id] = struct{}{}
}

func (v *View) RemoveHead(id types.CommitId) {
	delete(v.headIds, id)
}

// -----------------------------------------------------------------------------
// 本地书签 / 标签 / git refs
// -----------------------------------------------------------------------------

// GetLocalBookmark 返回书签目标；条目不存在即 absent
func (v *View) GetLocalBookmark(name string) refs.RefTarget {
	return getOrAbsent(v.localBookmarks, name)
}

// SetLocalBookmarkTarget 写入书签目标；absent 目标删除条目
func (v *View) SetLocalBookmarkTarget(name string, target refs.RefTarget) {
	setSparse(v.localBookmarks, name, target)
}

func (v *View) GetTag(name string) refs.RefTarget {
	return getOrAbsent(v.tags, name)
}

func (v *View) SetTagTarget(name string, target refs.RefTarget) {
	setSparse(v.tags, name, target)
}

func (v *View) GetGitRef(name string) refs.RefTarget {
	return getOrAbsent(v.gitRefs, name)
}

func (v *View) SetGitRefTarget(name string, target refs.RefTarget) {
	setSparse(v.gitRefs, name, target)
}

func (v *View) GitHead() refs.RefTarget {
	return v.gitHead
}

// SetGitHeadTarget HEAD 是单值字段，不走 map，但 absent 语义一致 (零值)
func (v *View) SetGitHeadTarget(target refs.RefTarget) {
	v.gitHead = target
}

// -----------------------------------------------------------------------------
// 远端书签
// -----------------------------------------------------------------------------

// GetRemoteBookmark 返回远端书签；远端或条目不存在都返回 absent
func (v *View) GetRemoteBookmark(remote types.RemoteName, name string) refs.RemoteRef {
	return getOrAbsent(v.remoteViews[remote], name)
}

// SetRemoteBookmark 写入远端书签；absent 删除条目，远端空了就连远端一起删
func (v *View) SetRemoteBookmark(remote types.RemoteName, name string, ref refs.RemoteRef) {
	bookmarks, ok := v.remoteViews[remote]
	if !ok {
		if ref.IsAbsent() {
			return
		}
		bookmarks = make(map[string]refs.RemoteRef)
		v.remoteViews[remote] = bookmarks
	}
	setSparse(bookmarks, name, ref)
	if len(bookmarks) == 0 {
		delete(v.remoteViews, remote)
	}
}

// RemoteNames 返回已知远端名列表 (有序)
func (v *View) RemoteNames() []types.RemoteName {
	out := make([]types.RemoteName, 0, len(v.remoteViews))
	for name := range v.remoteViews {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RemoveRemote 丢弃整个远端视图
func (v *View) RemoveRemote(remote types.RemoteName) {
	delete(v.remoteViews, remote)
}

// RenameRemote 整体搬移一个远端的书签集合
func (v *View) RenameRemote(old, new types.RemoteName) {
	bookmarks, ok := v.remoteViews[old]
	if !ok {
		return
	}
	delete(v.remoteViews, old)
	v.remoteViews[new] = bookmarks
}

// -----------------------------------------------------------------------------
// 全量提交引用
// -----------------------------------------------------------------------------

// AllReferencedCommitIds 枚举视图任何字段可达的全部 CommitId：
// 头集合、工作副本绑定、每个 RefTarget 的 adds 和 removes 两侧。
// 无序、允许重复、有限。removes 一侧必须包含——重建提交图索引时，
// 被取代的冲突状态的历史仍需可达。
func (v *View) AllReferencedCommitIds(yield func(types.CommitId) bool) {
	for id := range v.headIds {
		if !yield(id) {
			return
		}
	}
	for _, id := range v.wcCommitIds {
		if !yield(id) {
			return
		}
	}
	emitTargets := func(m map[string]refs.RefTarget) bool {
		for _, t := range m {
			for _, id := range t.AllIds() {
				if !yield(id) {
					return false
				}
			}
		}
		return true
	}
	if !emitTargets(v.localBookmarks) || !emitTargets(v.tags) || !emitTargets(v.gitRefs) {
		return
	}
	for _, id := range v.gitHead.AllIds() {
		if !yield(id) {
			return
		}
	}
	for _, bookmarks := range v.remoteViews {
		for _, ref := range bookmarks {
			for _, id := range ref.Target.AllIds() {
				if !yield(id) {
					return
				}
			}
		}
	}
}
