package signing

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"opvault/pkg/types"
)

// Ed25519Signer 是内置的 ed25519 校验后端
// 密钥环是 指纹 -> 公钥 的静态映射；签名格式: 32 字节指纹 || 64 字节签名
type Ed25519Signer struct {
	keys map[string]ed25519.PublicKey
}

func NewEd25519Signer() *Ed25519Signer {
	return &Ed25519Signer{keys: make(map[string]ed25519.PublicKey)}
}

// AddKey 注册一把公钥，返回指纹 (公钥本身的 Hex)
func (s *Ed25519Signer) AddKey(pub ed25519.PublicKey) string {
	fp := hex.EncodeToString(pub)
	s.keys[fp] = pub
	return fp
}

// Sign 用私钥产出 opvault 签名格式 (指纹 || 签名)
// 方便测试和本地签名；校验方只需要公钥
func Sign(priv ed25519.PrivateKey, payload []byte) []byte {
	pub := priv.Public().(ed25519.PublicKey)
	out := make([]byte, 0, len(pub)+ed25519.SignatureSize)
	out = append(out, pub...)
	return append(out, ed25519.Sign(priv, payload)...)
}

// Verify 实现 Signer
func (s *Ed25519Signer) Verify(id types.CommitId, payload, sig []byte) (Verification, error) {
	if len(sig) != ed25519.PublicKeySize+ed25519.SignatureSize {
		// 格式都不对：属于“校验无法执行”，不是 bad signature
		return Verification{}, SigningError(fmt.Errorf("malformed signature on %s: %d bytes", id, len(sig)))
	}

	fp := hex.EncodeToString(sig[:ed25519.PublicKeySize])
	pub, ok := s.keys[fp]
	if !ok {
		// 读得懂格式但不认识密钥
		return Verification{Status: SigStatusUnknown, Key: fp}, nil
	}

	if !ed25519.Verify(pub, payload, sig[ed25519.PublicKeySize:]) {
		return Verification{Status: SigStatusBad, Key: fp}, nil
	}
	return Verification{Status: SigStatusGood, Key: fp, Display: fp[:16]}, nil
}
