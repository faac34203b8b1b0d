package signing

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"opvault/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEd25519Signer_Verify(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	signer := NewEd25519Signer()
	fp := signer.AddKey(pub)

	payload := []byte("commit payload")
	sig := Sign(priv, payload)
	id := types.CommitId("deadbeef")

	// 1. 正常校验
	v, err := signer.Verify(id, payload, sig)
	require.NoError(t, err)
	assert.True(t, v.IsGood())
	assert.Equal(t, fp, v.Key)

	// 2. 被篡改的 payload → bad，但不是错误
	v, err = signer.Verify(id, []byte("tampered"), sig)
	require.NoError(t, err)
	assert.Equal(t, SigStatusBad, v.Status)

	// 3. 不认识的密钥 → unknown，同样不是错误
	otherPub, otherPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	_ = otherPub
	v, err = signer.Verify(id, payload, Sign(otherPriv, payload))
	require.NoError(t, err)
	assert.Equal(t, SigStatusUnknown, v.Status)

	// 4. 格式损坏 → SigningError (校验没能执行)
	_, err = signer.Verify(id, payload, []byte("short"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSigningBackend)
}
