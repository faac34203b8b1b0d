package meta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"opvault/pkg/op"
	"opvault/pkg/refs"
	"opvault/pkg/types"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrBookmarkNotFound  = errors.New("bookmark not found")
	ErrConcurrentUpdate  = errors.New("concurrent update detected (CAS failed)")
	ErrOperationNotFound = errors.New("operation not found in metadata")
)

// Repository 封装所有对 SQL 数据库的操作
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// -----------------------------------------------------------------------------
// 1. 书签投影 (乐观锁 CAS)
// -----------------------------------------------------------------------------

// targetJSON 是 RefTarget 的 JSON 存储形态
type targetJSON struct {
	Adds    []types.CommitId `json:"adds"`
	Removes []types.CommitId `json:"removes,omitempty"`
}

func marshalTarget(t refs.RefTarget) (datatypes.JSON, error) {
	adds, removes := t.Multiset()
	raw, err := json.Marshal(targetJSON{Adds: adds, Removes: removes})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ref target: %w", err)
	}
	return datatypes.JSON(raw), nil
}

// UnmarshalTarget 从行数据还原 RefTarget
func (b *BookmarkRow) UnmarshalTarget() (refs.RefTarget, error) {
	var tj targetJSON
	if err := json.Unmarshal(b.Target, &tj); err != nil {
		return refs.AbsentTarget(), fmt.Errorf("corrupted target of bookmark %s: %w", b.Name, err)
	}
	return refs.ConflictTarget(tj.Adds, tj.Removes), nil
}

// GetBookmark 读取书签行 (含版本号，供后续 CAS)
func (r *Repository) GetBookmark(ctx context.Context, name string) (*BookmarkRow, error) {
	var row BookmarkRow
	err := r.db.GetConn().WithContext(ctx).
		Where("name = ?", name).
		First(&row).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookmarkNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// UpsertBookmark 原子更新书签投影 (CAS - Compare And Swap)
// oldVersion: 之前读到的版本号。数据库里的版本号不等于它说明有人抢先
// 改了，返回 ErrConcurrentUpdate；oldVersion == 0 表示首次创建。
// absent 目标删除整行 (投影与视图的稀疏规则保持一致)。
func (r *Repository) UpsertBookmark(ctx context.Context, name string, target refs.RefTarget, oldVersion int64) error {
	return r.db.GetConn().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// absent → 删行；RowsAffected 为 0 不算错 (别人可能已删)
		if target.IsAbsent() {
			if oldVersion == 0 {
				return nil
			}
			result := tx.Where("name = ? AND version = ?", name, oldVersion).Delete(&BookmarkRow{})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrConcurrentUpdate
			}
			return nil
		}

		raw, err := marshalTarget(target)
		if err != nil {
			return err
		}

		// 场景 A: 第一次创建 (Create)
		if oldVersion == 0 {
			row := BookmarkRow{
				Name:       name,
				Target:     raw,
				Conflicted: target.HasConflict(),
				Version:    1,
			}
			if err := tx.Create(&row).Error; err != nil {
				// 兼容性: 处理不同数据库 (PG 与 SQLite) 的唯一约束错误
				if errors.Is(err, gorm.ErrDuplicatedKey) ||
					strings.Contains(err.Error(), "UNIQUE constraint failed") {
					return ErrConcurrentUpdate
				}
				return fmt.Errorf("failed to create bookmark row: %w", err)
			}
			return nil
		}

		// 场景 B: 更新现有行 (Update with CAS)
		result := tx.Model(&BookmarkRow{}).
			Where("name = ? AND version = ?", name, oldVersion).
			Updates(map[string]any{
				"target":     raw,
				"conflicted": target.HasConflict(),
				"version":    gorm.Expr("version + 1"),
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		// 影响行数为 0 说明 version 不匹配 (被人抢先改了)
		if result.RowsAffected == 0 {
			return ErrConcurrentUpdate
		}
		return nil
	})
}

// ListBookmarks 列出全部书签投影行 (投影同步时用来对账)
func (r *Repository) ListBookmarks(ctx context.Context) ([]BookmarkRow, error) {
	var rows []BookmarkRow
	err := r.db.GetConn().WithContext(ctx).
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}

// ListConflictedBookmarks 列出所有处于冲突状态的书签 (ov resolve-status)
func (r *Repository) ListConflictedBookmarks(ctx context.Context) ([]BookmarkRow, error) {
	var rows []BookmarkRow
	err := r.db.GetConn().WithContext(ctx).
		Where("conflicted = ?", true).
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}

// -----------------------------------------------------------------------------
// 2. 操作索引 (Operation Indexing)
// -----------------------------------------------------------------------------

// IndexOperation 把一条操作记录投影到 SQL
// 幂等写入：Id 已存在则什么都不做
func (r *Repository) IndexOperation(ctx context.Context, o *op.Operation) error {
	parentsJSON, err := json.Marshal(o.ParentIds())
	if err != nil {
		return fmt.Errorf("failed to marshal parents: %w", err)
	}

	m := o.Metadata()
	model := OperationModel{
		Id:          string(o.ID()),
		Parents:     datatypes.JSON(parentsJSON),
		ViewHash:    o.ViewHash(),
		Description: m.Description,
		User:        m.User,
		StartTime:   m.StartTime,
		EndTime:     m.EndTime,
		CreatedAt:   time.Unix(m.EndTime, 0),
	}

	err = r.db.GetConn().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to index operation: %w", err)
	}
	return nil
}

func (r *Repository) GetOperation(ctx context.Context, id types.OperationId) (*OperationModel, error) {
	var model OperationModel
	err := r.db.GetConn().WithContext(ctx).
		Where("id = ?", string(id)).
		First(&model).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOperationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &model, nil
}

// ListOperations 按时间倒序列出最近的操作 (ov op log)
func (r *Repository) ListOperations(ctx context.Context, limit int) ([]OperationModel, error) {
	var models []OperationModel
	err := r.db.GetConn().WithContext(ctx).
		Order("end_time DESC, id ASC").
		Limit(limit).
		Find(&models).Error
	return models, err
}

// FindOperationsByUser 利用 SQL 能力按用户过滤
func (r *Repository) FindOperationsByUser(ctx context.Context, user string, limit int) ([]OperationModel, error) {
	var models []OperationModel
	err := r.db.GetConn().WithContext(ctx).
		Where("op_user = ?", user).
		Order("end_time DESC").
		Limit(limit).
		Find(&models).Error
	return models, err
}
