package core

import (
	"opvault/pkg/types"
)

// Signature 是作者/提交者签名 (非加密含义，指 name/email/时间戳三元组)
type Signature struct {
	Name  string `cbor:"n"`
	Email string `cbor:"e"`

	// Timestamp 使用 Unix 秒，TzOffset 是相对 UTC 的分钟偏移
	Timestamp int64 `cbor:"ts"`
	TzOffset  int   `cbor:"tz"`
}

// SecureSig 是附加在 Commit 上的加密签名
// Data 是被签名的 payload，Sig 是签名本身；校验由 signing 包完成
type SecureSig struct {
	Data []byte `cbor:"d"`
	Sig  []byte `cbor:"s"`
}

// TreeRef 是 Commit 根树引用
// 正常情况下 Adds 只有一个元素 (resolved)；当 Commit 本身携带未解决的
// 树级合并时，Adds/Removes 记录参与合并的各棵树
type TreeRef struct {
	Adds    []Link `cbor:"a"`
	Removes []Link `cbor:"r,omitempty"`
}

// ResolvedTree 构造指向单棵树的引用
func ResolvedTree(id types.TreeId) TreeRef {
	return TreeRef{Adds: []Link{NewLink(string(id))}}
}

// IsResolved 判断引用是否只指向一棵树
func (r TreeRef) IsResolved() bool {
	return len(r.Adds) == 1 && len(r.Removes) == 0
}

// SingleTree 返回 resolved 状态下的树 Id
func (r TreeRef) SingleTree() (types.TreeId, bool) {
	if !r.IsResolved() {
		return "", false
	}
	return types.TreeId(r.Adds[0].Hash), true
}

// Equal 逐项比较两个树引用
func (r TreeRef) Equal(other TreeRef) bool {
	if len(r.Adds) != len(other.Adds) || len(r.Removes) != len(other.Removes) {
		return false
	}
	for i := range r.Adds {
		if r.Adds[i].Hash != other.Adds[i].Hash {
			return false
		}
	}
	for i := range r.Removes {
		if r.Removes[i].Hash != other.Removes[i].Hash {
			return false
		}
	}
	return true
}

// TreeIds 返回引用涉及的全部树 Id (含 Removes 一侧)
func (r TreeRef) TreeIds() []types.TreeId {
	ids := make([]types.TreeId, 0, len(r.Adds)+len(r.Removes))
	for _, l := range r.Adds {
		ids = append(ids, types.TreeId(l.Hash))
	}
	for _, l := range r.Removes {
		ids = append(ids, types.TreeId(l.Hash))
	}
	return ids
}

// CommitRecord 是 Commit 的不可变内容记录 (后端存储的形态)
// 一旦密封便不再修改；“修改提交”意味着写一条新记录并更新引用
type CommitRecord struct {
	hash     string `cbor:"-"`
	rawBytes []byte `cbor:"-"`

	TypeVal ObjectType `cbor:"t"`

	Parents      []Link `cbor:"p"`
	Predecessors []Link `cbor:"pr,omitempty"` // 被本提交取代的旧提交

	RootTree TreeRef `cbor:"th"`
	ChangeId string  `cbor:"c"`

	Author    Signature `cbor:"a"`
	Committer Signature `cbor:"cm"`

	Description string `cbor:"m"`

	SecureSig *SecureSig `cbor:"sig,omitempty"`
}

// NewCommitRecord 密封一条提交记录并计算其 CommitId
func NewCommitRecord(rec CommitRecord) (*CommitRecord, error) {
	rec.TypeVal = TypeCommit
	h, b, err := CalculateHash(&rec)
	if err != nil {
		return nil, err
	}
	rec.hash = h
	rec.rawBytes = b
	return &rec, nil
}

// SealDecoded 为反序列化得到的记录补上哈希与原始字节
// id 由调用方从存储层得知 (CAS 的 key 就是内容哈希)
func (c *CommitRecord) SealDecoded(id types.CommitId, raw []byte) {
	c.hash = string(id)
	c.rawBytes = raw
}

func (c *CommitRecord) Type() ObjectType { return TypeCommit }
func (c *CommitRecord) ID() string       { return c.hash }
func (c *CommitRecord) Bytes() []byte    { return c.rawBytes }

func (c *CommitRecord) CommitId() types.CommitId { return types.CommitId(c.hash) }

// ParentIds 返回有序的父提交 Id 列表
func (c *CommitRecord) ParentIds() []types.CommitId {
	ids := make([]types.CommitId, len(c.Parents))
	for i, p := range c.Parents {
		ids[i] = types.CommitId(p.Hash)
	}
	return ids
}

// PredecessorIds 返回有序的前任提交 Id 列表
func (c *CommitRecord) PredecessorIds() []types.CommitId {
	ids := make([]types.CommitId, len(c.Predecessors))
	for i, p := range c.Predecessors {
		ids[i] = types.CommitId(p.Hash)
	}
	return ids
}

// LinksOf 辅助函数：把 Id 列表转换为 Link 列表
func LinksOf[T ~string](ids []T) []Link {
	links := make([]Link, len(ids))
	for i, id := range ids {
		links[i] = NewLink(string(id))
	}
	return links
}
