package meta

import (
	"time"

	"gorm.io/datatypes"
)

// OperationModel 是 core.OperationRecord 在关系型数据库中的投影
// 用于快速查询操作历史 (ov op log)，支持按用户、时间范围搜索
type OperationModel struct {
	// Id 是主键 (操作记录的内容哈希)
	Id string `gorm:"primaryKey;type:char(64);column:id"`

	// Parents: JSON 存储父操作列表 (合并操作有多个父)
	// 形如 ["hash1", "hash2"]
	Parents datatypes.JSON

	// ViewHash 指向本操作记录的视图快照
	ViewHash string `gorm:"type:char(64);not null"`

	// 操作元信息 (B-Tree 索引，适合排序和精确查找)
	Description string `gorm:"type:text"`
	// 列名避开 SQL 保留字 user
	User      string `gorm:"index;type:varchar(100);column:op_user"`
	StartTime int64  `gorm:"index"`
	EndTime   int64  `gorm:"index"`

	CreatedAt time.Time
}

// TableName 强制指定表名
func (OperationModel) TableName() string {
	return "operations"
}

// BookmarkRow 是本地书签在最新视图里的投影
// 对冲突书签 Target 存完整的 adds/removes，Conflicted 标记可索引，
// 让 "列出所有冲突书签" 不用解包 JSON
type BookmarkRow struct {
	// Name 是主键，例如 "main"
	Name string `gorm:"primaryKey;type:varchar(255)"`

	// Target 是 RefTarget 的 JSON 形态: {"adds": [...], "removes": [...]}
	Target datatypes.JSON

	Conflicted bool `gorm:"index"`

	// Version 用于乐观锁并发控制 (CAS)
	// 每次更新时 +1，防止并发覆盖
	Version int64 `gorm:"default:1"`

	UpdatedAt time.Time
}

func (BookmarkRow) TableName() string {
	return "bookmarks"
}
