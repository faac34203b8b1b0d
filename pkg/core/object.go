package core

// ObjectType 定义了 opvault 中内容寻址记录的类型
type ObjectType string

const (
	TypeCommit    ObjectType = "commit"    // 不可变提交记录
	TypeTree      ObjectType = "tree"      // 目录树记录
	TypeView      ObjectType = "view"      // 仓库命名状态快照
	TypeOperation ObjectType = "operation" // 操作日志条目
)

// Object 是所有内容寻址记录的通用接口
type Object interface {
	// Type 返回记录类型
	Type() ObjectType

	// ID 返回记录的哈希值 (Hex)
	// 注意：在记录被密封(Seal)之前，这可能为空
	ID() string

	// Bytes 返回记录的序列化数据 (用于存储)
	Bytes() []byte
}
