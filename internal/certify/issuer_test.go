package certify

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zerotrace/internal/logging"
)

func testIssuer(t *testing.T, pdf bool) (*Issuer, string) {
	t.Helper()

	keys, err := LoadOrCreateKeys(t.TempDir())
	require.NoError(t, err)

	logger, err := logging.NewEnterpriseLogger(logging.Options{Level: "FATAL"})
	require.NoError(t, err)

	dir := t.TempDir()
	return NewIssuer(keys, dir, pdf, logger), dir
}

func TestIssueWritesSignedCertificate(t *testing.T) {
	issuer, _ := testIssuer(t, false)

	result, err := issuer.Issue(fixtureSession(), fixtureInfo())
	require.NoError(t, err)

	assert.True(t, result.Record.DigitalSignature.Signed)
	assert.FileExists(t, result.JSONPath)
	assert.FileExists(t, result.SigPath)
	assert.Empty(t, result.PDFPath)

	// JSON на диске согласован со структурой в памяти
	data, err := os.ReadFile(result.JSONPath)
	require.NoError(t, err)
	var onDisk Record
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, result.Record.Certificate.ID, onDisk.Certificate.ID)
	assert.True(t, onDisk.DigitalSignature.Signed)
}

func TestIssuedCertificateVerifies(t *testing.T) {
	issuer, _ := testIssuer(t, false)

	result, err := issuer.Issue(fixtureSession(), fixtureInfo())
	require.NoError(t, err)

	publicKeyPath := issuer.keys.Dir() + "/public.pem"
	record, err := VerifyFiles(publicKeyPath, result.JSONPath, result.SigPath)
	require.NoError(t, err)
	assert.Equal(t, result.Record.Certificate.ID, record.Certificate.ID)
}

func TestTamperedCertificateRejected(t *testing.T) {
	issuer, _ := testIssuer(t, false)

	result, err := issuer.Issue(fixtureSession(), fixtureInfo())
	require.NoError(t, err)

	data, err := os.ReadFile(result.JSONPath)
	require.NoError(t, err)
	tampered := bytes.Replace(data, []byte(`"completed"`), []byte(`"failed"`), 1)
	require.NotEqual(t, data, tampered)
	require.NoError(t, os.WriteFile(result.JSONPath, tampered, 0644))

	publicKeyPath := issuer.keys.Dir() + "/public.pem"
	_, err = VerifyFiles(publicKeyPath, result.JSONPath, result.SigPath)
	assert.Error(t, err)
}

func TestIssueWithPDF(t *testing.T) {
	issuer, _ := testIssuer(t, true)

	result, err := issuer.Issue(fixtureSession(), fixtureInfo())
	require.NoError(t, err)

	assert.FileExists(t, result.PDFPath)
	assert.FileExists(t, result.P7SPath)

	pdfBytes, err := os.ReadFile(result.PDFPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdfBytes, []byte("%PDF")))

	// .p7s покрывает итоговые PDF байты
	sig, err := os.ReadFile(result.P7SPath)
	require.NoError(t, err)
	assert.NoError(t, issuer.engine.Verify(pdfBytes, sig))
}
