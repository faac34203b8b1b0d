package meta

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"testing"

	"opvault/pkg/core"
	"opvault/pkg/op"
	"opvault/pkg/refs"
	"opvault/pkg/signing"
	"opvault/pkg/storage/disk"
	"opvault/pkg/store"
	"opvault/pkg/types"
	"opvault/pkg/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestRepo 构建隔离的测试环境 (sqlite in-memory)
func setupTestRepo(t *testing.T) *Repository {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	metaDB := NewWithConn(db)
	require.NoError(t, metaDB.AutoMigrate(&OperationModel{}, &BookmarkRow{}))

	return NewRepository(metaDB)
}

func mockCid(input string) types.CommitId {
	sum := sha256.Sum256([]byte(input))
	return types.CommitId(hex.EncodeToString(sum[:]))
}

// mustRecordOp 在临时 op log 里落一条操作，返回实体
func mustRecordOp(t *testing.T, desc string, ts int64) *op.Operation {
	t.Helper()
	root := t.TempDir()
	cas, err := disk.NewAdapter(filepath.Join(root, "objects"))
	require.NoError(t, err)
	heads, err := op.NewHeadsDir(filepath.Join(root, "op-heads"))
	require.NoError(t, err)
	l := op.NewLog(store.New(cas, signing.NewEd25519Signer()), heads)

	o, err := l.Record(context.Background(), view.NewView(), nil, core.OpMetadata{
		StartTime: ts, EndTime: ts, Description: desc, User: "alice@host",
	})
	require.NoError(t, err)
	return o
}

// -----------------------------------------------------------------------------
// 1. 书签投影与乐观锁
// -----------------------------------------------------------------------------

func TestRepository_BookmarkCAS(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	// 首次创建 (oldVersion = 0)
	require.NoError(t, repo.UpsertBookmark(ctx, "main", refs.NormalTarget(mockCid("c1")), 0))

	row, err := repo.GetBookmark(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, int64(1), row.Version)
	assert.False(t, row.Conflicted)

	target, err := row.UnmarshalTarget()
	require.NoError(t, err)
	id, ok := target.AsNormal()
	require.True(t, ok)
	assert.Equal(t, mockCid("c1"), id)

	// 带正确版本号更新
	require.NoError(t, repo.UpsertBookmark(ctx, "main", refs.NormalTarget(mockCid("c2")), row.Version))

	// 拿着过期版本号更新 → CAS 失败
	err = repo.UpsertBookmark(ctx, "main", refs.NormalTarget(mockCid("c3")), row.Version)
	assert.ErrorIs(t, err, ErrConcurrentUpdate)

	// 重复创建同名书签 → CAS 失败
	err = repo.UpsertBookmark(ctx, "main", refs.NormalTarget(mockCid("c4")), 0)
	assert.ErrorIs(t, err, ErrConcurrentUpdate)
}

func TestRepository_BookmarkAbsentDeletesRow(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertBookmark(ctx, "gone", refs.NormalTarget(mockCid("c1")), 0))
	require.NoError(t, repo.UpsertBookmark(ctx, "gone", refs.AbsentTarget(), 1))

	_, err := repo.GetBookmark(ctx, "gone")
	assert.ErrorIs(t, err, ErrBookmarkNotFound)
}

func TestRepository_ConflictedBookmarkRoundtrip(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	conflicted := refs.ConflictTarget(
		[]types.CommitId{mockCid("c2"), mockCid("c3")},
		[]types.CommitId{mockCid("c1")},
	)
	require.NoError(t, repo.UpsertBookmark(ctx, "contested", conflicted, 0))
	require.NoError(t, repo.UpsertBookmark(ctx, "clean", refs.NormalTarget(mockCid("c9")), 0))

	rows, err := repo.ListConflictedBookmarks(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "contested", rows[0].Name)

	// JSON 往返保真：adds/removes 两侧完整还原
	got, err := rows[0].UnmarshalTarget()
	require.NoError(t, err)
	assert.True(t, conflicted.Equal(got))
}

// -----------------------------------------------------------------------------
// 2. 操作索引
// -----------------------------------------------------------------------------

func TestRepository_OperationLifecycle(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	o := mustRecordOp(t, "initialize repo", 1700000000)

	require.NoError(t, repo.IndexOperation(ctx, o))

	stored, err := repo.GetOperation(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, string(o.ID()), stored.Id)
	assert.Equal(t, "initialize repo", stored.Description)
	assert.Equal(t, "alice@host", stored.User)
	assert.Equal(t, o.ViewHash(), stored.ViewHash)
	assert.JSONEq(t, "[]", string(stored.Parents))

	_, err = repo.GetOperation(ctx, types.OperationId(mockCid("missing")))
	assert.ErrorIs(t, err, ErrOperationNotFound)
}

func TestRepository_IndexOperation_Idempotency(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	o := mustRecordOp(t, "op", 1700000000)

	// 写入两次，数据库中只有一条记录 (副作用检查)
	require.NoError(t, repo.IndexOperation(ctx, o))
	require.NoError(t, repo.IndexOperation(ctx, o))

	var count int64
	err := repo.db.GetConn().Model(&OperationModel{}).Where("id = ?", string(o.ID())).Count(&count).Error
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_ListOperations(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	// 手动控制时间戳以保证排序确定性
	for i, ts := range []int64{100, 300, 200} {
		o := mustRecordOp(t, fmt.Sprintf("op-%d", i), ts)
		require.NoError(t, repo.IndexOperation(ctx, o))
	}

	models, err := repo.ListOperations(ctx, 2)
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, int64(300), models[0].EndTime)
	assert.Equal(t, int64(200), models[1].EndTime)

	byUser, err := repo.FindOperationsByUser(ctx, "alice@host", 10)
	require.NoError(t, err)
	assert.Len(t, byUser, 3)
}

func TestRepository_ListBookmarks(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertBookmark(ctx, "zoo", refs.NormalTarget(mockCid("c1")), 0))
	require.NoError(t, repo.UpsertBookmark(ctx, "alpha", refs.NormalTarget(mockCid("c2")), 0))

	rows, err := repo.ListBookmarks(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// 按名字排序，版本号随行返回 (投影对账要用)
	assert.Equal(t, "alpha", rows[0].Name)
	assert.Equal(t, "zoo", rows[1].Name)
	assert.Equal(t, int64(1), rows[0].Version)
}
