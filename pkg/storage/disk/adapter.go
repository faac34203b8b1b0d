package disk

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"opvault/pkg/core"
	"opvault/pkg/storage"
	"opvault/pkg/types"
)

// Adapter 实现了 storage.Store 接口
type Adapter struct {
	rootPath string // 比如: /repo/.ov/objects
}

// NewAdapter 创建一个新的磁盘存储适配器
func NewAdapter(root string) (*Adapter, error) {
	// 确保根目录存在
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root storage dir: %w", err)
	}
	return &Adapter{rootPath: root}, nil
}

// layout 返回哈希对应的物理路径
// 策略：使用前 2 个字符作为子目录 (Sharding)
// Example: hash "aabbcc..." -> root/aa/bbcc...
func (s *Adapter) layout(hash string) string {
	if len(hash) < 2 {
		return filepath.Join(s.rootPath, hash)
	}
	return filepath.Join(s.rootPath, hash[:2], hash[2:])
}

func (s *Adapter) Put(ctx context.Context, obj core.Object) error {
	hash := obj.ID()
	if hash == "" {
		return fmt.Errorf("refusing to store unsealed object")
	}
	targetPath := s.layout(hash)

	// 1. 检查是否存在 (幂等性，CAS 只增不改)
	if _, err := os.Stat(targetPath); err == nil {
		return nil
	}

	// 2. 准备目录
	dir := filepath.Dir(targetPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// 3. 原子写入：先写临时文件再 Rename
	// 保证要么文件不存在，要么文件是完整的
	tempFile, err := os.CreateTemp(dir, "temp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tempFile.Name())

	if _, err := tempFile.Write(obj.Bytes()); err != nil {
		tempFile.Close()
		return err
	}
	tempFile.Close() // 必须先关闭才能 Rename

	if err := os.Rename(tempFile.Name(), targetPath); err != nil {
		return err
	}

	return nil
}

func (s *Adapter) Get(ctx context.Context, hash string) (io.ReadCloser, error) {
	f, err := os.Open(s.layout(hash))
	if os.IsNotExist(err) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Adapter) Has(ctx context.Context, hash string) (bool, error) {
	_, err := os.Stat(s.layout(hash))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// ExpandHash 扫描分片目录展开短哈希
func (s *Adapter) ExpandHash(ctx context.Context, prefix types.HashPrefix) (string, error) {
	p := string(prefix)
	if len(p) < 4 {
		return "", fmt.Errorf("hash prefix too short: %q", p)
	}

	shard := filepath.Join(s.rootPath, p[:2])
	entries, err := os.ReadDir(shard)
	if os.IsNotExist(err) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", err
	}

	rest := p[2:]
	var found string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), rest) {
			continue
		}
		if found != "" {
			return "", storage.ErrAmbiguousHash
		}
		found = p[:2] + e.Name()
	}
	if found == "" {
		return "", storage.ErrNotFound
	}
	return found, nil
}
