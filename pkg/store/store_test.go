package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"opvault/pkg/core"
	"opvault/pkg/signing"
	"opvault/pkg/storage"
	"opvault/pkg/storage/disk"
	"opvault/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	cas, err := disk.NewAdapter(t.TempDir())
	require.NoError(t, err)
	return New(cas, signing.NewEd25519Signer())
}

func blobLink(content string) core.Link {
	sum := sha256.Sum256([]byte(content))
	return core.NewLink(hex.EncodeToString(sum[:]))
}

func putTree(t *testing.T, s *Store, entries ...core.TreeEntry) types.TreeId {
	t.Helper()
	tree, err := core.NewTreeRecord(entries)
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), tree))
	return tree.TreeId()
}

func TestStore_CommitRoundtrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	tree := putTree(t, s, core.TreeEntry{Name: "a", Type: core.EntryFile, Hash: blobLink("a"), Size: 1})
	rec, err := core.NewCommitRecord(core.CommitRecord{
		RootTree:    core.ResolvedTree(tree),
		ChangeId:    "0123456789abcdef0123456789abcdef",
		Author:      core.Signature{Name: "alice", Email: "a@example.com", Timestamp: 1700000000, TzOffset: 480},
		Committer:   core.Signature{Name: "alice", Email: "a@example.com", Timestamp: 1700000100, TzOffset: 480},
		Description: "add a",
	})
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, rec))

	got, err := s.GetCommitRecord(ctx, rec.CommitId())
	require.NoError(t, err)

	// 解码后的记录必须已密封：id 可读、重新序列化稳定
	assert.Equal(t, rec.CommitId(), got.CommitId())
	assert.Equal(t, rec.Bytes(), got.Bytes())
	assert.Equal(t, "add a", got.Description)
	assert.Equal(t, rec.RootTree, got.RootTree)
}

func TestStore_NotFoundPropagates(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	missing := types.CommitId("deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
	_, err := s.GetCommitRecord(ctx, missing)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.GetTree(ctx, types.TreeId(missing))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.GetView(ctx, string(missing))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_MergeTrees(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	// 两棵树：shared 同哈希，clash 不同哈希，各带一个私有条目
	a := putTree(t, s,
		core.TreeEntry{Name: "clash.txt", Type: core.EntryFile, Hash: blobLink("left"), Size: 4},
		core.TreeEntry{Name: "only-a.txt", Type: core.EntryFile, Hash: blobLink("a"), Size: 1},
		core.TreeEntry{Name: "shared.txt", Type: core.EntryFile, Hash: blobLink("s"), Size: 1},
	)
	b := putTree(t, s,
		core.TreeEntry{Name: "clash.txt", Type: core.EntryFile, Hash: blobLink("right"), Size: 5},
		core.TreeEntry{Name: "only-b.txt", Type: core.EntryFile, Hash: blobLink("b"), Size: 1},
		core.TreeEntry{Name: "shared.txt", Type: core.EntryFile, Hash: blobLink("s"), Size: 1},
	)

	merged, err := s.MergeTrees(ctx, []types.TreeId{a, b})
	require.NoError(t, err)

	byName := make(map[string]core.TreeEntry)
	for _, e := range merged.Entries {
		byName[e.Name] = e
	}
	require.Len(t, byName, 4)

	// 同名不同内容 → 冲突条目
	assert.Equal(t, core.EntryConflict, byName["clash.txt"].Type)
	// 其余保持原样
	assert.Equal(t, core.EntryFile, byName["shared.txt"].Type)
	assert.Equal(t, core.EntryFile, byName["only-a.txt"].Type)
	assert.True(t, merged.HasConflict())

	// 条目按名称有序，结果与输入顺序无关
	swapped, err := s.MergeTrees(ctx, []types.TreeId{b, a})
	require.NoError(t, err)
	assert.Equal(t, merged.TreeId(), swapped.TreeId())
}

func TestStore_GetRootTree(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	a := putTree(t, s, core.TreeEntry{Name: "a", Type: core.EntryFile, Hash: blobLink("a"), Size: 1})
	b := putTree(t, s, core.TreeEntry{Name: "b", Type: core.EntryFile, Hash: blobLink("b"), Size: 1})

	// resolved 直接读取
	got, err := s.GetRootTree(ctx, core.ResolvedTree(a))
	require.NoError(t, err)
	assert.Equal(t, a, got.TreeId())

	// 多值引用触发合并
	got, err = s.GetRootTree(ctx, core.TreeRef{Adds: []core.Link{
		core.NewLink(string(a)),
		core.NewLink(string(b)),
	}})
	require.NoError(t, err)
	require.Len(t, got.Entries, 2)
	assert.False(t, got.HasConflict())
}
