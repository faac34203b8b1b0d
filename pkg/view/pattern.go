package view

import (
	"iter"
	"sort"

	"opvault/pkg/refs"
	"opvault/pkg/types"

	"github.com/tidwall/match"
)

// StringPattern 是引用名的文本匹配模式：支持 glob (* 和 ?)，
// 不含通配符时退化为精确匹配
type StringPattern struct {
	pattern string
}

// NewPattern 解析模式字符串
func NewPattern(pattern string) StringPattern {
	return StringPattern{pattern: pattern}
}

// AllPattern 匹配一切
func AllPattern() StringPattern {
	return StringPattern{pattern: "*"}
}

func (p StringPattern) Matches(name string) bool {
	return match.Match(name, p.pattern)
}

func (p StringPattern) String() string { return p.pattern }

// sortedKeys 返回 map 的有序 key 列表——所有枚举组合子的遍历序
// 都以它为准 (字典序、确定性)
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// filterSorted 惰性产出匹配模式的条目，按名字典序。
// 序列有限、可重启 (每次 range 重新扫描)。
func filterSorted(m map[string]refs.RefTarget, p StringPattern) iter.Seq2[string, refs.RefTarget] {
	return func(yield func(string, refs.RefTarget) bool) {
		for _, name := range sortedKeys(m) {
			if !p.Matches(name) {
				continue
			}
			if !yield(name, m[name]) {
				return
			}
		}
	}
}

// LocalBookmarks 按名有序枚举全部本地书签
func (v *View) LocalBookmarks() iter.Seq2[string, refs.RefTarget] {
	return filterSorted(v.localBookmarks, AllPattern())
}

// LocalBookmarksMatching 枚举名字匹配模式的本地书签
func (v *View) LocalBookmarksMatching(p StringPattern) iter.Seq2[string, refs.RefTarget] {
	return filterSorted(v.localBookmarks, p)
}

// Tags 按名有序枚举全部标签
func (v *View) Tags() iter.Seq2[string, refs.RefTarget] {
	return filterSorted(v.tags, AllPattern())
}

// TagsMatching 枚举名字匹配模式的标签
func (v *View) TagsMatching(p StringPattern) iter.Seq2[string, refs.RefTarget] {
	return filterSorted(v.tags, p)
}

// GitRefs 按名有序枚举全部 git ref
func (v *View) GitRefs() iter.Seq2[string, refs.RefTarget] {
	return filterSorted(v.gitRefs, AllPattern())
}

// LocalBookmarksForCommit 枚举指向该提交的本地书签名 (有序)。
// “指向”以 resolved 语义判断：conflicted 书签看 adds 一侧。
func (v *View) LocalBookmarksForCommit(id types.CommitId) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, name := range sortedKeys(v.localBookmarks) {
			t := v.localBookmarks[name]
			for _, added := range t.AddedIds() {
				if added == id {
					if !yield(name) {
						return
					}
					break
				}
			}
		}
	}
}

// RemoteBookmarkKey 标识某个远端上的一个书签
type RemoteBookmarkKey struct {
	Remote types.RemoteName
	Name   string
}

// RemoteBookmarksMatching 枚举 (远端, 书签名) 都匹配各自模式的远端书签。
// 遍历序：先按远端名、再按书签名，字典序。
func (v *View) RemoteBookmarksMatching(namePattern, remotePattern StringPattern) iter.Seq2[RemoteBookmarkKey, refs.RemoteRef] {
	return func(yield func(RemoteBookmarkKey, refs.RemoteRef) bool) {
		for _, remote := range v.RemoteNames() {
			if !remotePattern.Matches(string(remote)) {
				continue
			}
			bookmarks := v.remoteViews[remote]
			for _, name := range sortedKeys(bookmarks) {
				if !namePattern.Matches(name) {
					continue
				}
				if !yield(RemoteBookmarkKey{Remote: remote, Name: name}, bookmarks[name]) {
					return
				}
			}
		}
	}
}

// LocalRemoteBookmarks 对单个远端做本地/远端书签的外连接：
// 每个在任意一侧出现的名字产出一个并置对 (只在本地、只在远端、或两边都有)。
// 跟踪与否不在这里判定，由 RemoteRef.State 表达。
func (v *View) LocalRemoteBookmarks(remote types.RemoteName) iter.Seq2[string, refs.LocalAndRemoteRef] {
	return v.LocalRemoteBookmarksMatching(AllPattern(), remote)
}

// LocalRemoteBookmarksMatching 同上，但只产出名字匹配模式的条目
func (v *View) LocalRemoteBookmarksMatching(p StringPattern, remote types.RemoteName) iter.Seq2[string, refs.LocalAndRemoteRef] {
	return func(yield func(string, refs.LocalAndRemoteRef) bool) {
		remoteBookmarks := v.remoteViews[remote]

		names := make(map[string]struct{}, len(v.localBookmarks)+len(remoteBookmarks))
		for name := range v.localBookmarks {
			names[name] = struct{}{}
		}
		for name := range remoteBookmarks {
			names[name] = struct{}{}
		}

		for _, name := range sortedKeys(names) {
			if !p.Matches(name) {
				continue
			}
			pair := refs.LocalAndRemoteRef{
				LocalTarget: getOrAbsent(v.localBookmarks, name),
				RemoteRef:   getOrAbsent(remoteBookmarks, name),
			}
			if !yield(name, pair) {
				return
			}
		}
	}
}
