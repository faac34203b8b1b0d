package core

import (
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Link 代表记录之间的一条边 (指向另一条记录的哈希引用)
// 在 Go 层面，它只是一个包装了 Hash 字符串的结构体
// 在 CBOR 层面，它会被序列化为 Tag 42(0x00 + HashBytes)
//
// 特例：空 Link (Hash == "") 表示“缺位”，序列化为只含 0x00 前缀的内容。
// RefTarget 冲突里的 absent 一侧会用到它。
type Link struct {
	Hash string
}

const (
	linkTagNumber = 42
)

// NewLink 辅助函数
func NewLink(hash string) Link {
	return Link{Hash: hash}
}

func (l Link) IsZero() bool { return l.Hash == "" }

// MarshalCBOR 实现自定义序列化逻辑
// 规范：Tag 42, Content = [0x00, byte1, byte2...]
func (l Link) MarshalCBOR() ([]byte, error) {
	// 1. 解码 Hex 字符串 (空串解码为空字节，代表缺位)
	hashBytes, err := hex.DecodeString(l.Hash)
	if err != nil {
		return nil, fmt.Errorf("invalid hash format in link: %w", err)
	}

	// 2. 添加 Multibase Identity 前缀 (0x00)
	cidBytes := append([]byte{0x00}, hashBytes...)

	// 3. 包装为 Tag 42
	return em.Marshal(cbor.Tag{
		Number:  linkTagNumber,
		Content: cidBytes,
	})
}

// UnmarshalCBOR 实现自定义反序列化逻辑
func (l *Link) UnmarshalCBOR(data []byte) error {
	var tag cbor.Tag
	if err := dm.Unmarshal(data, &tag); err != nil {
		return err
	}

	// 1. 校验 Tag Number
	if tag.Number != linkTagNumber {
		return fmt.Errorf("expected tag 42 for Link, got %d", tag.Number)
	}

	// 2. 获取内容字节
	bytes, ok := tag.Content.([]byte)
	if !ok {
		return fmt.Errorf("link content must be byte string")
	}

	// 3. 严格校验 Multibase 前缀
	if len(bytes) < 1 {
		return fmt.Errorf("invalid link: empty content")
	}
	if bytes[0] != 0x00 {
		return fmt.Errorf("invalid link: missing 0x00 multibase prefix")
	}

	// 4. 还原 Hash (去掉前缀)
	l.Hash = hex.EncodeToString(bytes[1:])
	return nil
}
