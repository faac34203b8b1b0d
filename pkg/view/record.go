package view

import (
	"opvault/pkg/core"
	"opvault/pkg/refs"
	"opvault/pkg/types"
)

// 本文件负责 View <-> core.ViewRecord 的双向转换。
// 存储形态里 conflicted 目标的 absent 占位符用空 Link 表达，
// 往返转换必须保真 (Multiset 保留占位符，AddedIds 不行)。

func targetToRecord(t refs.RefTarget) core.RefTargetRecord {
	adds, removes := t.Multiset()
	return core.RefTargetRecord{
		Adds:    linksOfIds(adds),
		Removes: linksOfIds(removes),
	}
}

func targetFromRecord(rec core.RefTargetRecord) refs.RefTarget {
	return refs.ConflictTarget(idsOfLinks(rec.Adds), idsOfLinks(rec.Removes))
}

// linksOfIds 零值 Id 映射为空 Link (占位符)
func linksOfIds(ids []types.CommitId) []core.Link {
	if len(ids) == 0 {
		return nil
	}
	links := make([]core.Link, len(ids))
	for i, id := range ids {
		links[i] = core.NewLink(string(id))
	}
	return links
}

func idsOfLinks(links []core.Link) []types.CommitId {
	if len(links) == 0 {
		return nil
	}
	ids := make([]types.CommitId, len(links))
	for i, l := range links {
		ids[i] = types.CommitId(l.Hash)
	}
	return ids
}

func remoteRefToRecord(r refs.RemoteRef) core.RemoteRefRecord {
	return core.RemoteRefRecord{
		Target:  targetToRecord(r.Target),
		Tracked: r.IsTracked(),
	}
}

func remoteRefFromRecord(rec core.RemoteRefRecord) refs.RemoteRef {
	state := refs.RemoteRefNew
	if rec.Tracked {
		state = refs.RemoteRefTracked
	}
	return refs.RemoteRef{Target: targetFromRecord(rec.Target), State: state}
}

func targetsToRecords(m map[string]refs.RefTarget) map[string]core.RefTargetRecord {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]core.RefTargetRecord, len(m))
	for name, t := range m {
		out[name] = targetToRecord(t)
	}
	return out
}

func targetsFromRecords(m map[string]core.RefTargetRecord) map[string]refs.RefTarget {
	out := make(map[string]refs.RefTarget, len(m))
	for name, rec := range m {
		t := targetFromRecord(rec)
		// 防御损坏数据：存储形态里不应出现 absent，但出现了也别放进 map
		setSparse(out, name, t)
	}
	return out
}

// ToRecord 把工作副本落成不可变快照 (密封并可直接 Put 进 CAS)
func (v *View) ToRecord() (*core.ViewRecord, error) {
	rec := core.ViewRecord{
		LocalBookmarks: targetsToRecords(v.localBookmarks),
		Tags:           targetsToRecords(v.tags),
		GitRefs:        targetsToRecords(v.gitRefs),
	}

	if len(v.wcCommitIds) > 0 {
		rec.WcCommitIds = make(map[string]core.Link, len(v.wcCommitIds))
		for ws, id := range v.wcCommitIds {
			rec.WcCommitIds[string(ws)] = core.NewLink(string(id))
		}
	}

	for id := range v.headIds {
		rec.HeadIds = append(rec.HeadIds, core.NewLink(string(id)))
	}

	if len(v.remoteViews) > 0 {
		rec.RemoteViews = make(map[string]core.RemoteViewRecord, len(v.remoteViews))
		for remote, bookmarks := range v.remoteViews {
			rv := core.RemoteViewRecord{Bookmarks: make(map[string]core.RemoteRefRecord, len(bookmarks))}
			for name, ref := range bookmarks {
				rv.Bookmarks[name] = remoteRefToRecord(ref)
			}
			rec.RemoteViews[string(remote)] = rv
		}
	}

	if v.gitHead.IsPresent() {
		rec.GitHead = targetToRecord(v.gitHead)
	}

	return core.NewViewRecord(rec)
}

// FromRecord 从存储形态重建工作副本
func FromRecord(rec *core.ViewRecord) *View {
	v := NewView()

	for ws, l := range rec.WcCommitIds {
		v.wcCommitIds[types.WorkspaceId(ws)] = types.CommitId(l.Hash)
	}
	for _, l := range rec.HeadIds {
		v.headIds[types.CommitId(l.Hash)] = struct{}{}
	}

	v.localBookmarks = targetsFromRecords(rec.LocalBookmarks)
	v.tags = targetsFromRecords(rec.Tags)
	v.gitRefs = targetsFromRecords(rec.GitRefs)

	for remote, rv := range rec.RemoteViews {
		bookmarks := make(map[string]refs.RemoteRef, len(rv.Bookmarks))
		for name, r := range rv.Bookmarks {
			ref := remoteRefFromRecord(r)
			setSparse(bookmarks, name, ref)
		}
		if len(bookmarks) > 0 {
			v.remoteViews[types.RemoteName(remote)] = bookmarks
		}
	}

	v.gitHead = targetFromRecord(rec.GitHead)
	return v
}
