package storage

import (
	"context"
	"errors"
	"io"

	"opvault/pkg/core"
	"opvault/pkg/types"
)

var (
	ErrNotFound      = errors.New("object not found")
	ErrAmbiguousHash = errors.New("ambiguous hash prefix")
)

// Store defines the interface for a content-addressed storage backend.
// Implementations can be local disk, cloud storage, or in-memory storage.
//
// 提交记录、树、View 快照和操作记录都走同一个 CAS：
// key 就是记录的内容哈希，天然去重、只增不改。
type Store interface {
	// Put 将一条已密封的记录持久化 (key 来自 obj.ID())
	Put(ctx context.Context, obj core.Object) error

	// Get 根据 Hash 读取原始数据
	// 返回 io.ReadCloser 以支持大记录的流式读取
	Get(ctx context.Context, hash string) (io.ReadCloser, error)

	// Has 检查记录是否存在 (用于去重逻辑)
	Has(ctx context.Context, hash string) (bool, error)

	// ExpandHash 把短哈希前缀展开成唯一的完整哈希
	// 0 个匹配返回 ErrNotFound，多个匹配返回 ErrAmbiguousHash
	ExpandHash(ctx context.Context, prefix types.HashPrefix) (string, error)
}
