package core

import (
	"sort"

	"opvault/pkg/types"
)

// RefTargetRecord 是 RefTarget 的存储形态
// 不变式：absent 的目标从不落盘 (上层的 sparse-map 规则保证)；
// 因此这里 Adds 至少有一个元素。冲突里 absent 的一侧用空 Link 表示。
type RefTargetRecord struct {
	Adds    []Link `cbor:"a"`
	Removes []Link `cbor:"r,omitempty"`
}

// RemoteRefRecord 是远端引用的存储形态：目标 + 跟踪标志
type RemoteRefRecord struct {
	Target  RefTargetRecord `cbor:"t"`
	Tracked bool            `cbor:"tr"`
}

// RemoteViewRecord 是单个远端的全部书签
type RemoteViewRecord struct {
	Bookmarks map[string]RemoteRefRecord `cbor:"b,omitempty"`
}

// ViewRecord 是仓库命名状态快照的存储形态
// 它是操作日志条目的 payload，记录之后永不修改
type ViewRecord struct {
	hash     string `cbor:"-"`
	rawBytes []byte `cbor:"-"`

	TypeVal ObjectType `cbor:"t"`

	WcCommitIds    map[string]Link             `cbor:"wc,omitempty"` // WorkspaceId -> CommitId
	HeadIds        []Link                      `cbor:"h,omitempty"`  // 可见历史的叶子集合 (密封前排序)
	LocalBookmarks map[string]RefTargetRecord  `cbor:"b,omitempty"`
	Tags           map[string]RefTargetRecord  `cbor:"tg,omitempty"`
	RemoteViews    map[string]RemoteViewRecord `cbor:"rv,omitempty"` // RemoteName -> bookmarks
	GitRefs        map[string]RefTargetRecord  `cbor:"gr,omitempty"`
	GitHead        RefTargetRecord             `cbor:"gh,omitempty"`
}

// NewViewRecord 密封一个视图快照
// HeadIds 会先被排序去重：集合语义，序列化必须规范化才能保证哈希确定性
func NewViewRecord(rec ViewRecord) (*ViewRecord, error) {
	rec.TypeVal = TypeView
	rec.HeadIds = normalizeHeads(rec.HeadIds)

	h, b, err := CalculateHash(&rec)
	if err != nil {
		return nil, err
	}
	rec.hash = h
	rec.rawBytes = b
	return &rec, nil
}

func normalizeHeads(heads []Link) []Link {
	if len(heads) == 0 {
		return nil
	}
	sorted := make([]Link, len(heads))
	copy(sorted, heads)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Hash < sorted[j].Hash })

	out := sorted[:1]
	for _, l := range sorted[1:] {
		if l.Hash != out[len(out)-1].Hash {
			out = append(out, l)
		}
	}
	return out
}

// SealDecoded 为反序列化得到的记录补上哈希与原始字节
func (v *ViewRecord) SealDecoded(id string, raw []byte) {
	v.hash = id
	v.rawBytes = raw
}

func (v *ViewRecord) Type() ObjectType { return TypeView }
func (v *ViewRecord) ID() string       { return v.hash }
func (v *ViewRecord) Bytes() []byte    { return v.rawBytes }

// HeadCommitIds 返回头集合的 Id 形式
func (v *ViewRecord) HeadCommitIds() []types.CommitId {
	ids := make([]types.CommitId, len(v.HeadIds))
	for i, l := range v.HeadIds {
		ids[i] = types.CommitId(l.Hash)
	}
	return ids
}
