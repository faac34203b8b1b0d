// Package store 是 CAS 之上的类型化门面 (对象后端)。
//
// 一个 *Store 句柄被所有 Commit 实体共享：任何 Commit 都能独立解析
// 自己的父提交，而不需要把仓库句柄穿透到每个调用点。共享是
// “最长持有者”语义，从不独占。
package store

import (
	"context"
	"fmt"
	"io"
	"sort"

	"opvault/pkg/core"
	"opvault/pkg/signing"
	"opvault/pkg/storage"
	"opvault/pkg/types"
)

type Store struct {
	cas    storage.Store
	signer signing.Signer
}

func New(cas storage.Store, signer signing.Signer) *Store {
	return &Store{cas: cas, signer: signer}
}

// CAS 暴露底层存储 (供 op log 等直接存取)
func (s *Store) CAS() storage.Store { return s.cas }

func (s *Store) Signer() signing.Signer { return s.signer }

// Put 透传到 CAS
func (s *Store) Put(ctx context.Context, obj core.Object) error {
	return s.cas.Put(ctx, obj)
}

// readObject 读出原始字节；NotFound 原样向上传播，绝不吞掉
func (s *Store) readObject(ctx context.Context, hash string) ([]byte, error) {
	reader, err := s.cas.Get(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", hash, err)
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

// GetCommitRecord 读取并密封一条提交记录
func (s *Store) GetCommitRecord(ctx context.Context, id types.CommitId) (*core.CommitRecord, error) {
	data, err := s.readObject(ctx, string(id))
	if err != nil {
		return nil, err
	}

	var rec core.CommitRecord
	if err := core.DecodeObject(data, &rec); err != nil {
		return nil, fmt.Errorf("object %s is corrupted or not a commit: %w", id, err)
	}
	rec.SealDecoded(id, data)
	return &rec, nil
}

// GetTree 读取并密封一棵目录树
func (s *Store) GetTree(ctx context.Context, id types.TreeId) (*core.TreeRecord, error) {
	data, err := s.readObject(ctx, string(id))
	if err != nil {
		return nil, err
	}

	var rec core.TreeRecord
	if err := core.DecodeObject(data, &rec); err != nil {
		return nil, fmt.Errorf("object %s is corrupted or not a tree: %w", id, err)
	}
	rec.SealDecoded(id, data)
	return &rec, nil
}

// GetView 读取并密封一个视图快照
func (s *Store) GetView(ctx context.Context, hash string) (*core.ViewRecord, error) {
	data, err := s.readObject(ctx, hash)
	if err != nil {
		return nil, err
	}

	var rec core.ViewRecord
	if err := core.DecodeObject(data, &rec); err != nil {
		return nil, fmt.Errorf("object %s is corrupted or not a view: %w", hash, err)
	}
	rec.SealDecoded(hash, data)
	return &rec, nil
}

// GetOperation 读取并密封一条操作记录
func (s *Store) GetOperation(ctx context.Context, id types.OperationId) (*core.OperationRecord, error) {
	data, err := s.readObject(ctx, string(id))
	if err != nil {
		return nil, err
	}

	var rec core.OperationRecord
	if err := core.DecodeObject(data, &rec); err != nil {
		return nil, fmt.Errorf("object %s is corrupted or not an operation: %w", id, err)
	}
	rec.SealDecoded(id, data)
	return &rec, nil
}

// MergeTrees 对多棵树做 n 路合并：
// 同名同哈希的条目去重；同名不同哈希的条目降级为冲突条目。
// 产出的树只密封不落盘，由调用方决定是否 Put。
func (s *Store) MergeTrees(ctx context.Context, ids []types.TreeId) (*core.TreeRecord, error) {
	type slot struct {
		entry    core.TreeEntry
		conflict bool
	}
	merged := make(map[string]*slot)

	for _, id := range ids {
		tree, err := s.GetTree(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, e := range tree.Entries {
			prev, ok := merged[e.Name]
			if !ok {
				merged[e.Name] = &slot{entry: e}
				continue
			}
			if prev.entry.Hash.Hash != e.Hash.Hash || prev.entry.Type != e.Type {
				prev.conflict = true
				// 代表条目取哈希较小的一侧，合并结果与输入顺序无关
				if e.Hash.Hash < prev.entry.Hash.Hash {
					prev.entry = e
				}
			}
		}
	}

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]core.TreeEntry, 0, len(names))
	for _, name := range names {
		sl := merged[name]
		e := sl.entry
		if sl.conflict {
			e.Type = core.EntryConflict
		}
		entries = append(entries, e)
	}
	return core.NewTreeRecord(entries)
}

// GetRootTree 解析根树引用：resolved 直接读取，多值引用合并 Adds 各棵树
func (s *Store) GetRootTree(ctx context.Context, ref core.TreeRef) (*core.TreeRecord, error) {
	if id, ok := ref.SingleTree(); ok {
		return s.GetTree(ctx, id)
	}
	ids := make([]types.TreeId, 0, len(ref.Adds))
	for _, l := range ref.Adds {
		ids = append(ids, types.TreeId(l.Hash))
	}
	return s.MergeTrees(ctx, ids)
}
