// Package signing 定义提交签名的校验接口。
//
// “未签名”不是错误；SigningError 只表示校验这件事本身没能完成
// (后端不可用、密钥格式损坏等)。校验结果 (好/坏) 用 Verification 表达。
package signing

import (
	"errors"
	"fmt"

	"opvault/pkg/types"
)

// ErrSigningBackend 校验无法执行时的哨兵错误
var ErrSigningBackend = errors.New("signing backend failure")

// SigStatus 是一次校验的结论
type SigStatus string

const (
	SigStatusGood SigStatus = "good"
	SigStatusBad  SigStatus = "bad"
	// SigStatusUnknown 签名格式能读但无法定位密钥
	SigStatusUnknown SigStatus = "unknown"
)

// Verification 是一次签名校验的结果
type Verification struct {
	Status SigStatus
	// Key 是签名使用的密钥指纹 (能识别时)
	Key string
	// Display 供 UI 展示的签名者信息
	Display string
}

func (v Verification) IsGood() bool { return v.Status == SigStatusGood }

// Signer 是签名后端的协作接口 (外部依赖，核心只消费)
type Signer interface {
	// Verify 校验 payload 上的签名
	// 返回错误表示“校验没能执行”，与“签名是坏的”严格区分
	Verify(id types.CommitId, payload, sig []byte) (Verification, error)
}

// SigningError 包装校验执行失败，保留底层原因
func SigningError(err error) error {
	return fmt.Errorf("%w: %v", ErrSigningBackend, err)
}
