// Package track 回答“这个文件应不应该被纳入版本管理”：
// 对照忽略规则 (.ovignore) 与稀疏工作副本的路径集合给出可诊断的结论。
//
// 被稀疏模式排除的文件显式返回 OutcomeExcluded，而不是无声地什么都
// 不做——调用方 (CLI) 能据此给出明确提示。
package track

import (
	"os"
	"path/filepath"

	gitignore "github.com/sabhiram/go-gitignore"
)

// Outcome 是一次 track 决策的结论
type Outcome int

const (
	// OutcomeTracked 文件应被纳入
	OutcomeTracked Outcome = iota
	// OutcomeIgnored 文件命中忽略规则
	OutcomeIgnored
	// OutcomeExcluded 文件在稀疏工作副本的路径集合之外
	OutcomeExcluded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeTracked:
		return "tracked"
	case OutcomeIgnored:
		return "ignored"
	default:
		return "excluded by sparse patterns"
	}
}

// Decider 组合忽略规则与稀疏路径集合
type Decider struct {
	ignorer *gitignore.GitIgnore
	sparse  *gitignore.GitIgnore // nil 表示全量工作副本
}

// 系统级默认忽略规则，强制生效
var defaultRules = []string{
	".ov", // 绝对禁止索引仓库元数据目录，否则会无限递归！
	".git",
	".env", // 防止环境变量文件泄露
	".DS_Store",
	"Thumbs.db",
}

// NewDecider 初始化决策器
// rootPath: 仓库根目录 (用于查找 .ovignore)
// sparsePatterns: 稀疏工作副本包含的路径模式；空表示全量
func NewDecider(rootPath string, sparsePatterns []string) (*Decider, error) {
	var ignorer *gitignore.GitIgnore
	var err error

	ignoreFilePath := filepath.Join(rootPath, ".ovignore")
	if _, errStat := os.Stat(ignoreFilePath); errStat == nil {
		// 用户规则与默认规则合并编译
		ignorer, err = gitignore.CompileIgnoreFileAndLines(ignoreFilePath, defaultRules...)
		if err != nil {
			return nil, err
		}
	} else {
		ignorer = gitignore.CompileIgnoreLines(defaultRules...)
	}

	d := &Decider{ignorer: ignorer}
	if len(sparsePatterns) > 0 {
		// 稀疏集合用同一套 gitignore 语法：匹配 = 包含在工作副本里
		d.sparse = gitignore.CompileIgnoreLines(sparsePatterns...)
	}
	return d, nil
}

// Decide 给出路径的 track 结论
// path: 相对仓库根目录的相对路径 (例如 "data/model.bin")
// 稀疏排除优先于忽略规则：不在工作副本里的文件谈不上忽略
func (d *Decider) Decide(path string) Outcome {
	path = filepath.ToSlash(filepath.Clean(path))

	if d.sparse != nil && !d.sparse.MatchesPath(path) {
		return OutcomeExcluded
	}
	if d.ignorer.MatchesPath(path) {
		return OutcomeIgnored
	}
	return OutcomeTracked
}

// ShouldTrack 便捷入口：只关心是与否的调用方用它
func (d *Decider) ShouldTrack(path string) bool {
	return d.Decide(path) == OutcomeTracked
}
