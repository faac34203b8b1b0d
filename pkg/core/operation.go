package core

import (
	"opvault/pkg/types"
)

// OpMetadata 记录一次操作的元信息
type OpMetadata struct {
	// Unix 秒
	StartTime int64 `cbor:"st"`
	EndTime   int64 `cbor:"et"`

	// 人类可读的描述，例如 "set bookmark main"
	Description string `cbor:"d"`

	// username@hostname
	User string `cbor:"u"`
}

// OperationRecord 是操作日志中的一条记录
// Parents 指向它所基于的操作 (op-log 意义上的父节点，不是提交图)；
// 并发操作合并后，合并操作会有多个 Parent
type OperationRecord struct {
	hash     string `cbor:"-"`
	rawBytes []byte `cbor:"-"`

	TypeVal ObjectType `cbor:"t"`

	Parents  []Link     `cbor:"p"`
	ViewHash Link       `cbor:"v"` // 本操作记录的 View 快照
	Meta     OpMetadata `cbor:"m"`
}

// NewOperationRecord 密封一条操作记录
func NewOperationRecord(rec OperationRecord) (*OperationRecord, error) {
	rec.TypeVal = TypeOperation
	h, b, err := CalculateHash(&rec)
	if err != nil {
		return nil, err
	}
	rec.hash = h
	rec.rawBytes = b
	return &rec, nil
}

// SealDecoded 为反序列化得到的记录补上哈希与原始字节
func (o *OperationRecord) SealDecoded(id types.OperationId, raw []byte) {
	o.hash = string(id)
	o.rawBytes = raw
}

func (o *OperationRecord) Type() ObjectType { return TypeOperation }
func (o *OperationRecord) ID() string       { return o.hash }
func (o *OperationRecord) Bytes() []byte    { return o.rawBytes }

func (o *OperationRecord) OperationId() types.OperationId { return types.OperationId(o.hash) }

// ParentIds 返回 op-log 意义上的父操作列表
func (o *OperationRecord) ParentIds() []types.OperationId {
	ids := make([]types.OperationId, len(o.Parents))
	for i, p := range o.Parents {
		ids[i] = types.OperationId(p.Hash)
	}
	return ids
}
