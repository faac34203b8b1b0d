package core

import (
	"opvault/pkg/types"
)

type EntryType string

const (
	EntryFile EntryType = "file"
	EntryDir  EntryType = "dir"

	// EntryConflict 表示该路径上存在未解决的内容冲突
	// 由树合并 (后端协作方) 写入；HasConflict 依赖它
	EntryConflict EntryType = "conflict"
)

type TreeEntry struct {
	Name string    `cbor:"n"`
	Type EntryType `cbor:"t"`
	Hash Link      `cbor:"h"`
	Size int64     `cbor:"s"`
}

// TreeRecord 是一个目录树节点
type TreeRecord struct {
	hash     string `cbor:"-"`
	rawBytes []byte `cbor:"-"`

	TypeVal ObjectType  `cbor:"t"`
	Entries []TreeEntry `cbor:"e"`
}

// NewTreeRecord 创建并密封一个目录树节点
func NewTreeRecord(entries []TreeEntry) (*TreeRecord, error) {
	t := &TreeRecord{
		TypeVal: TypeTree,
		Entries: entries,
	}
	h, b, err := CalculateHash(t)
	if err != nil {
		return nil, err
	}
	t.hash = h
	t.rawBytes = b
	return t, nil
}

// SealDecoded 为反序列化得到的记录补上哈希与原始字节
func (t *TreeRecord) SealDecoded(id types.TreeId, raw []byte) {
	t.hash = string(id)
	t.rawBytes = raw
}

func (t *TreeRecord) Type() ObjectType { return TypeTree }
func (t *TreeRecord) ID() string       { return t.hash }
func (t *TreeRecord) Bytes() []byte    { return t.rawBytes }

func (t *TreeRecord) TreeId() types.TreeId { return types.TreeId(t.hash) }

// HasConflict 判断树内容是否带有未解决的冲突条目
func (t *TreeRecord) HasConflict() bool {
	for _, e := range t.Entries {
		if e.Type == EntryConflict {
			return true
		}
	}
	return false
}
