package op

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"opvault/pkg/types"
)

// ErrNoHeads 操作日志为空 (仓库未初始化或 heads 目录损坏)
var ErrNoHeads = errors.New("operation log has no heads")

// HeadsDir 是 op-heads 目录：当前日志头集合，每个头一个空文件，
// 文件名就是 OperationId。
//
// 这是多进程协调的关键结构：新增头是单个 create，移除头是单个
// unlink，两者都是文件系统原子操作。两个并发进程各自追加会留下
// 两个头文件——分叉由 Reconcile 收敛，这里从不加锁。
type HeadsDir struct {
	dir string
}

func NewHeadsDir(dir string) (*HeadsDir, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create op-heads dir: %w", err)
	}
	return &HeadsDir{dir: dir}, nil
}

// Heads 返回当前头集合 (有序)
func (h *HeadsDir) Heads() ([]types.OperationId, error) {
	entries, err := os.ReadDir(h.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read op-heads dir: %w", err)
	}

	var heads []types.OperationId
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id := types.OperationId(e.Name())
		if !id.IsValid() {
			// 目录里的杂物 (编辑器临时文件等) 直接跳过
			continue
		}
		heads = append(heads, id)
	}
	sort.Slice(heads, func(i, j int) bool { return heads[i] < heads[j] })
	return heads, nil
}

// Add 登记一个新头 (已存在则幂等)
func (h *HeadsDir) Add(id types.OperationId) error {
	if !id.IsValid() {
		return fmt.Errorf("invalid operation id %q", id)
	}
	f, err := os.OpenFile(filepath.Join(h.dir, string(id)), os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to add op head %s: %w", id, err)
	}
	return f.Close()
}

// Remove 注销一个头 (不存在则幂等：另一个进程可能已经收敛过了)
func (h *HeadsDir) Remove(id types.OperationId) error {
	err := os.Remove(filepath.Join(h.dir, string(id)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove op head %s: %w", id, err)
	}
	return nil
}

// Update 先加新头再摘旧头：任何时刻观察者至少能看到一个头，
// 顺序颠倒会出现短暂的空头窗口
func (h *HeadsDir) Update(add types.OperationId, remove []types.OperationId) error {
	if err := h.Add(add); err != nil {
		return err
	}
	for _, id := range remove {
		if id == add {
			continue
		}
		if err := h.Remove(id); err != nil {
			return err
		}
	}
	return nil
}
