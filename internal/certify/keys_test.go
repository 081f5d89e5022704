package certify

import (
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreateKeysGeneratesIdentity(t *testing.T) {
	dir := t.TempDir()

	km, err := LoadOrCreateKeys(dir)
	require.NoError(t, err)

	for _, name := range []string{"private.pem", "public.pem", "certificate.pem"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "файл %s должен существовать", name)
	}

	st, err := os.Stat(filepath.Join(dir, "private.pem"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), st.Mode().Perm(), "приватный ключ доступен только владельцу")

	assert.Equal(t, 2048, km.PrivateKey().N.BitLen())
}

func TestFingerprintFormat(t *testing.T) {
	km, err := LoadOrCreateKeys(t.TempDir())
	require.NoError(t, err)

	fp := km.Fingerprint()
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{16}$`), fp)
}

func TestKeysReloadKeepsIdentity(t *testing.T) {
	dir := t.TempDir()

	first, err := LoadOrCreateKeys(dir)
	require.NoError(t, err)

	second, err := LoadOrCreateKeys(dir)
	require.NoError(t, err)

	assert.Equal(t, first.Fingerprint(), second.Fingerprint(), "повторная загрузка не меняет идентичность")
	assert.Equal(t, first.PrivateKey().N, second.PrivateKey().N)
}

func TestCACertificateSubject(t *testing.T) {
	km, err := LoadOrCreateKeys(t.TempDir())
	require.NoError(t, err)

	block, _ := pem.Decode(km.CACertPEM())
	require.NotNil(t, block)

	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)

	assert.Equal(t, "ZeroTrace Certificate Authority", cert.Subject.CommonName)
	assert.Equal(t, []string{"ZeroTrace"}, cert.Subject.Organization)
	assert.Equal(t, cert.Subject.String(), cert.Issuer.String(), "сертификат самоподписанный")
	assert.True(t, cert.IsCA)

	validity := cert.NotAfter.Sub(cert.NotBefore)
	assert.Equal(t, caValidity, validity)
}

func TestCACertRestoredOnReloadWhenMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadOrCreateKeys(dir)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "certificate.pem")))

	km, err := LoadOrCreateKeys(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, km.CACertPEM())

	_, err = os.Stat(filepath.Join(dir, "certificate.pem"))
	assert.NoError(t, err)
}

func TestParsePublicKeyRejectsGarbage(t *testing.T) {
	_, err := ParsePublicKey([]byte("not a pem"))
	assert.Error(t, err)
}
