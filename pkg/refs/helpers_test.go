package refs

import (
	"crypto/sha256"
	"encoding/hex"

	"opvault/pkg/types"
)

// mockId 生成合法的测试用 CommitId
func mockId(input string) types.CommitId {
	sum := sha256.Sum256([]byte(input))
	return types.CommitId(hex.EncodeToString(sum[:]))
}
