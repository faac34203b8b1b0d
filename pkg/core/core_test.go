package core

import (
	"encoding/hex"
	"testing"

	"opvault/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// 1. Link 测试
// -----------------------------------------------------------------------------

func TestLink_Marshal_Compliance(t *testing.T) {
	// 使用合法的 Hex 字符串
	validHash := mockHash("test-content")
	link := NewLink(validHash)

	// 1. 序列化
	data, err := link.MarshalCBOR()
	require.NoError(t, err)

	// 2. 验证 Hex 前缀
	// Tag 42 (0xd82a) + ByteString 33 bytes (0x5821) + Prefix (0x00)
	expectedPrefix := "d82a582100"
	encodedHex := hex.EncodeToString(data)

	assert.Equal(t, expectedPrefix, encodedHex[:10], "Link 序列化必须包含 Tag 42 和 0x00 前缀")
}

func TestLink_Unmarshal_RoundTrip(t *testing.T) {
	originalHash := mockHash("round-trip-test")
	link := NewLink(originalHash)

	data, err := link.MarshalCBOR()
	require.NoError(t, err)

	var l2 Link
	err = l2.UnmarshalCBOR(data)
	require.NoError(t, err)

	assert.Equal(t, originalHash, l2.Hash)
}

func TestLink_Zero_RoundTrip(t *testing.T) {
	// 空 Link 表示冲突里的 absent 一侧，必须能无损往返
	link := Link{}
	require.True(t, link.IsZero())

	data, err := link.MarshalCBOR()
	require.NoError(t, err)

	var l2 Link
	require.NoError(t, l2.UnmarshalCBOR(data))
	assert.True(t, l2.IsZero())
}

func TestLink_Unmarshal_Strictness(t *testing.T) {
	// Case A: 缺少 0x00 前缀
	badPrefixHex := "d82a5820" + mockHash("bad")
	badPrefixBytes, _ := hex.DecodeString(badPrefixHex)

	var l Link
	err := l.UnmarshalCBOR(badPrefixBytes)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing 0x00 multibase prefix")

	// Case B: 错误的 Tag (不是 42)
	wrongTagHex := "d82b582100" + mockHash("wrong")
	wrongTagBytes, _ := hex.DecodeString(wrongTagHex)
	err = l.UnmarshalCBOR(wrongTagBytes)
	// 这里只要报错就行，错误信息取决于 cbor 库的具体实现
	assert.Error(t, err)
}

// -----------------------------------------------------------------------------
// 2. 确定性哈希测试 (Canonical Encoding)
// -----------------------------------------------------------------------------

func TestCommitRecord_Canonical(t *testing.T) {
	rec, err := NewCommitRecord(CommitRecord{
		Parents:  []Link{NewLink(mockHash("parent1")), NewLink(mockHash("parent2"))},
		RootTree: ResolvedTree(types.TreeId(mockHash("tree_root"))),
		ChangeId: mockHash("change")[:32],
		Author: Signature{
			Name: "author_test", Email: "a@test", Timestamp: 1700000000,
		},
		Committer: Signature{
			Name: "committer_test", Email: "c@test", Timestamp: 1700000001,
		},
		Description: "message_test",
	})
	require.NoError(t, err)

	// 反序列化回来再算一次，哈希必须一致
	var rec2 CommitRecord
	require.NoError(t, DecodeObject(rec.Bytes(), &rec2))

	hash2, _, err := CalculateHash(&rec2)
	require.NoError(t, err)
	assert.Equal(t, rec.ID(), hash2, "同一条记录的哈希必须永远一致")
}

func TestViewRecord_HeadNormalization(t *testing.T) {
	h1 := NewLink(mockHash("head1"))
	h2 := NewLink(mockHash("head2"))

	// 顺序不同、带重复的头集合必须密封出同一个哈希
	v1, err := NewViewRecord(ViewRecord{HeadIds: []Link{h2, h1, h2}})
	require.NoError(t, err)
	v2, err := NewViewRecord(ViewRecord{HeadIds: []Link{h1, h2}})
	require.NoError(t, err)

	assert.Equal(t, v1.ID(), v2.ID())
	assert.Len(t, v1.HeadIds, 2)
}

// -----------------------------------------------------------------------------
// 3. 完整记录 Round-Trip 测试
// -----------------------------------------------------------------------------

func TestViewRecord_RoundTrip(t *testing.T) {
	rec, err := NewViewRecord(ViewRecord{
		WcCommitIds: map[string]Link{
			"default": NewLink(mockHash("wc")),
		},
		HeadIds: []Link{NewLink(mockHash("head"))},
		LocalBookmarks: map[string]RefTargetRecord{
			"main": {
				Adds:    []Link{NewLink(mockHash("c2")), NewLink(mockHash("c3"))},
				Removes: []Link{NewLink(mockHash("c1"))},
			},
		},
		RemoteViews: map[string]RemoteViewRecord{
			"origin": {
				Bookmarks: map[string]RemoteRefRecord{
					"main": {
						Target:  RefTargetRecord{Adds: []Link{NewLink(mockHash("c1"))}},
						Tracked: true,
					},
				},
			},
		},
		GitHead: RefTargetRecord{Adds: []Link{NewLink(mockHash("c1"))}},
	})
	require.NoError(t, err)

	var v2 ViewRecord
	require.NoError(t, DecodeObject(rec.Bytes(), &v2))

	assert.Equal(t, rec.WcCommitIds, v2.WcCommitIds)
	assert.Equal(t, rec.LocalBookmarks, v2.LocalBookmarks)
	assert.True(t, v2.RemoteViews["origin"].Bookmarks["main"].Tracked)

	// 冲突两侧的 Id 都要保留
	bm := v2.LocalBookmarks["main"]
	assert.Len(t, bm.Adds, 2)
	assert.Len(t, bm.Removes, 1)
}

func TestOperationRecord_RoundTrip(t *testing.T) {
	rec, err := NewOperationRecord(OperationRecord{
		Parents:  []Link{NewLink(mockHash("op_parent"))},
		ViewHash: NewLink(mockHash("view")),
		Meta: OpMetadata{
			StartTime:   1700000000,
			EndTime:     1700000001,
			Description: "set bookmark main",
			User:        "alice@host",
		},
	})
	require.NoError(t, err)

	var o2 OperationRecord
	require.NoError(t, DecodeObject(rec.Bytes(), &o2))

	assert.Equal(t, rec.Meta, o2.Meta)
	assert.Equal(t, []types.OperationId{types.OperationId(mockHash("op_parent"))}, o2.ParentIds())
}

func TestTreeRecord_Conflict(t *testing.T) {
	tr, err := NewTreeRecord([]TreeEntry{
		{Name: "a.txt", Type: EntryFile, Hash: NewLink(mockHash("a")), Size: 3},
		{Name: "b.txt", Type: EntryConflict, Hash: NewLink(mockHash("b")), Size: 7},
	})
	require.NoError(t, err)
	assert.True(t, tr.HasConflict())

	clean, err := NewTreeRecord([]TreeEntry{
		{Name: "a.txt", Type: EntryFile, Hash: NewLink(mockHash("a")), Size: 3},
	})
	require.NoError(t, err)
	assert.False(t, clean.HasConflict())
}
