package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// mockHash 生成一个合法的 32 字节 Hex 字符串 (64字符长度)
// 用于满足 Link 对 Hex 格式的要求
func mockHash(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
