package certify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine(t *testing.T) *SignatureEngine {
	t.Helper()
	km, err := LoadOrCreateKeys(t.TempDir())
	require.NoError(t, err)
	return NewSignatureEngine(km)
}

func TestSignVerifyRoundtrip(t *testing.T) {
	e := testEngine(t)
	data := []byte(`{"certificate":{"id":"ABCDEF0123456789"}}`)

	sig, err := e.Sign(data)
	require.NoError(t, err)
	require.NotEmpty(t, sig)

	assert.NoError(t, e.Verify(data, sig))
}

func TestVerifyFailsOnSingleByteFlip(t *testing.T) {
	e := testEngine(t)
	data := []byte(`{"device":{"path":"/dev/sdb"}}`)

	sig, err := e.Sign(data)
	require.NoError(t, err)

	tampered := append([]byte(nil), data...)
	tampered[10] ^= 0x01
	assert.Error(t, e.Verify(tampered, sig))

	badSig := append([]byte(nil), sig...)
	badSig[0] ^= 0x01
	assert.Error(t, e.Verify(data, badSig))
}

func TestVerifyFailsWithForeignKey(t *testing.T) {
	signer := testEngine(t)
	other := testEngine(t)

	data := []byte("payload")
	sig, err := signer.Sign(data)
	require.NoError(t, err)

	assert.Error(t, other.Verify(data, sig))
}

func TestCanonicalBytesNormalizesFormatting(t *testing.T) {
	compact := []byte(`{"b":1,"a":{"y":true,"x":"v"}}`)
	pretty := []byte("{\n  \"a\": {\n    \"x\": \"v\",\n    \"y\": true\n  },\n  \"b\": 1\n}")

	c1, err := CanonicalBytes(compact)
	require.NoError(t, err)
	c2, err := CanonicalBytes(pretty)
	require.NoError(t, err)

	assert.Equal(t, c1, c2, "порядок ключей и отступы не влияют на канонические байты")
}

func TestCanonicalBytesDetectsValueChange(t *testing.T) {
	c1, err := CanonicalBytes([]byte(`{"status":"completed"}`))
	require.NoError(t, err)
	c2, err := CanonicalBytes([]byte(`{"status":"failed"}`))
	require.NoError(t, err)

	assert.NotEqual(t, c1, c2)
}

func TestVerifyCertificateCanonicalizesInput(t *testing.T) {
	e := testEngine(t)

	canonical, err := CanonicalBytes([]byte(`{"z":2,"a":1}`))
	require.NoError(t, err)
	sig, err := e.Sign(canonical)
	require.NoError(t, err)

	key, err := ParsePublicKey(e.keys.PublicPEM())
	require.NoError(t, err)

	// Переформатированный файл верифицируется против той же подписи
	reformatted := []byte("{\n  \"a\": 1,\n  \"z\": 2\n}")
	assert.NoError(t, VerifyCertificate(key, reformatted, sig))

	// Изменение значения ломает подпись
	changed := []byte(`{"a":1,"z":3}`)
	assert.Error(t, VerifyCertificate(key, changed, sig))
}
