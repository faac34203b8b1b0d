// pkg/types/common.go
package types

// CommitId 是 Commit 内容记录的唯一标识符 (SHA256 Hex String)
// 这是一个“值对象”，应当是不可变的。
// 排序规则：对 Hex 字符串做字典序比较，等价于底层字节的字节序
type CommitId string

func (id CommitId) String() string { return string(id) }

// 验证 CommitId 合法性
func (id CommitId) IsZero() bool  { return id == "" }
func (id CommitId) IsValid() bool { return len(id) == 64 } // 简单的长度检查

// ChangeId 标识一个“逻辑变更”
// 同一个 Change 被 amend/rewrite 之后 CommitId 会变，但 ChangeId 不变
type ChangeId string

func (id ChangeId) String() string { return string(id) }
func (id ChangeId) IsZero() bool   { return id == "" }
func (id ChangeId) IsValid() bool  { return len(id) == 32 }

// TreeId 标识一棵目录树记录
type TreeId string

func (id TreeId) String() string { return string(id) }
func (id TreeId) IsZero() bool   { return id == "" }
func (id TreeId) IsValid() bool  { return len(id) == 64 }

// OperationId 标识操作日志 (Operation Log) 中的一条操作
type OperationId string

func (id OperationId) String() string { return string(id) }
func (id OperationId) IsZero() bool   { return id == "" }
func (id OperationId) IsValid() bool  { return len(id) == 64 }

// WorkspaceId 命名一个工作副本 (Working Copy)
// 注意：不是哈希，是用户可读的名字，例如 "default"
type WorkspaceId string

func (id WorkspaceId) String() string { return string(id) }
func (id WorkspaceId) IsZero() bool   { return id == "" }

// DefaultWorkspaceId 是单工作区仓库的默认工作区名
const DefaultWorkspaceId WorkspaceId = "default"

// RemoteName 命名一个远端仓库，例如 "origin"
type RemoteName string

func (n RemoteName) String() string { return string(n) }
func (n RemoteName) IsZero() bool   { return n == "" }

// HashPrefix 是短哈希前缀 (用户输入，例如 "a8fd")
type HashPrefix string

func (p HashPrefix) String() string { return string(p) }
