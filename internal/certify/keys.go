package certify

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/awnumar/memguard"
)

const (
	keyBits       = 2048
	caCommonName  = "ZeroTrace Certificate Authority"
	caOrg         = "ZeroTrace"
	caValidity    = 365 * 24 * time.Hour
	privateKeyPem = "private.pem"
	publicKeyPem  = "public.pem"
	caCertPem     = "certificate.pem"
)

// KeyManager владеет идентичностью подписи: парой RSA ключей и
// самоподписанным CA сертификатом. Идентичность стабильна между
// запусками: существующий private.pem перезагружается, а не заменяется.
type KeyManager struct {
	dir        string
	privateKey *rsa.PrivateKey
	publicPEM  []byte
	caCertPEM  []byte
}

// LoadOrCreateKeys загружает ключи из каталога или генерирует новую пару.
// Промежуточные буферы приватного материала затираются через memguard.
func LoadOrCreateKeys(dir string) (*KeyManager, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога ключей %s: %w", dir, err)
	}

	km := &KeyManager{dir: dir}

	privatePath := filepath.Join(dir, privateKeyPem)
	if _, err := os.Stat(privatePath); err == nil {
		if err := km.load(); err != nil {
			return nil, err
		}
		return km, nil
	}

	if err := km.generate(); err != nil {
		return nil, err
	}
	return km, nil
}

// load восстанавливает существующую идентичность из PEM файлов
func (km *KeyManager) load() error {
	privateData, err := os.ReadFile(filepath.Join(km.dir, privateKeyPem))
	if err != nil {
		return fmt.Errorf("ошибка чтения приватного ключа: %w", err)
	}
	defer memguard.WipeBytes(privateData)

	block, _ := pem.Decode(privateData)
	if block == nil {
		return fmt.Errorf("приватный ключ не в формате PEM")
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return fmt.Errorf("ошибка парсинга приватного ключа: %w", err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return fmt.Errorf("приватный ключ не RSA")
	}
	km.privateKey = rsaKey

	km.publicPEM, err = os.ReadFile(filepath.Join(km.dir, publicKeyPem))
	if err != nil {
		return fmt.Errorf("ошибка чтения публичного ключа: %w", err)
	}

	// Сертификат опционален при загрузке: восстанавливается при отсутствии
	km.caCertPEM, err = os.ReadFile(filepath.Join(km.dir, caCertPem))
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("ошибка чтения CA сертификата: %w", err)
		}
		if err := km.issueCACert(); err != nil {
			return err
		}
	}

	return nil
}

// generate создает новую пару ключей и CA сертификат
func (km *KeyManager) generate() error {
	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return fmt.Errorf("ошибка генерации RSA ключа: %w", err)
	}
	km.privateKey = key

	privateDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return fmt.Errorf("ошибка сериализации приватного ключа: %w", err)
	}

	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: privateDER,
	})
	memguard.WipeBytes(privateDER)

	err = os.WriteFile(filepath.Join(km.dir, privateKeyPem), privatePEM, 0600)
	memguard.WipeBytes(privatePEM)
	if err != nil {
		return fmt.Errorf("ошибка записи приватного ключа: %w", err)
	}

	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return fmt.Errorf("ошибка сериализации публичного ключа: %w", err)
	}
	km.publicPEM = pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicDER,
	})
	if err := os.WriteFile(filepath.Join(km.dir, publicKeyPem), km.publicPEM, 0644); err != nil {
		return fmt.Errorf("ошибка записи публичного ключа: %w", err)
	}

	return km.issueCACert()
}

// issueCACert выпускает самоподписанный CA сертификат поверх текущей пары
func (km *KeyManager) issueCACert() error {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return fmt.Errorf("ошибка генерации серийного номера: %w", err)
	}

	now := time.Now()
	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   caCommonName,
			Organization: []string{caOrg},
		},
		NotBefore:             now,
		NotAfter:              now.Add(caValidity),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &km.privateKey.PublicKey, km.privateKey)
	if err != nil {
		return fmt.Errorf("ошибка выпуска CA сертификата: %w", err)
	}

	km.caCertPEM = pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: der,
	})
	if err := os.WriteFile(filepath.Join(km.dir, caCertPem), km.caCertPEM, 0644); err != nil {
		return fmt.Errorf("ошибка записи CA сертификата: %w", err)
	}

	return nil
}

// Fingerprint возвращает отпечаток ключа: первые 16 hex символов
// SHA-256 от PEM публичного ключа, в верхнем регистре
func (km *KeyManager) Fingerprint() string {
	sum := sha256.Sum256(km.publicPEM)
	return strings.ToUpper(hex.EncodeToString(sum[:]))[:16]
}

// PrivateKey возвращает приватный ключ подписи
func (km *KeyManager) PrivateKey() *rsa.PrivateKey {
	return km.privateKey
}

// PublicPEM возвращает публичный ключ в PEM
func (km *KeyManager) PublicPEM() []byte {
	return km.publicPEM
}

// CACertPEM возвращает CA сертификат в PEM
func (km *KeyManager) CACertPEM() []byte {
	return km.caCertPEM
}

// Dir возвращает каталог хранения ключей
func (km *KeyManager) Dir() string {
	return km.dir
}

// ParsePublicKey разбирает публичный RSA ключ из PEM.
// Используется при автономной верификации сертификатов.
func ParsePublicKey(pemData []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, fmt.Errorf("публичный ключ не в формате PEM")
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга публичного ключа: %w", err)
	}
	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("публичный ключ не RSA")
	}
	return rsaKey, nil
}
