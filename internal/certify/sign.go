package certify

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// pssOptions единые параметры подписи и верификации.
// Максимальная длина соли, SHA-256.
var pssOptions = &rsa.PSSOptions{
	SaltLength: rsa.PSSSaltLengthAuto,
	Hash:       crypto.SHA256,
}

// SignatureEngine подписывает и верифицирует сертификаты.
// Верификация fail-closed: любая ошибка разбора или несовпадение
// подписи означает невалидный сертификат.
type SignatureEngine struct {
	keys *KeyManager
}

// NewSignatureEngine создает движок подписи поверх менеджера ключей
func NewSignatureEngine(keys *KeyManager) *SignatureEngine {
	return &SignatureEngine{keys: keys}
}

// CanonicalBytes строит канонические байты сертификата: структура
// маршалится в JSON, разбирается в map и маршалится снова. Повторный
// маршалинг map даёт отсортированные ключи и компактную форму, поэтому
// байты детерминированы для любого источника (структура или файл).
func CanonicalBytes(data []byte) ([]byte, error) {
	var generic map[string]interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("ошибка канонизации сертификата: %w", err)
	}

	canonical, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("ошибка канонизации сертификата: %w", err)
	}
	return canonical, nil
}

// CanonicalRecordBytes канонизирует сертификат из структуры
func CanonicalRecordBytes(record *Record) ([]byte, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации сертификата: %w", err)
	}
	return CanonicalBytes(raw)
}

// Sign подписывает данные RSA-PSS/SHA-256 и возвращает подпись
func (e *SignatureEngine) Sign(data []byte) ([]byte, error) {
	digest := sha256.Sum256(data)

	signature, err := rsa.SignPSS(rand.Reader, e.keys.PrivateKey(), crypto.SHA256, digest[:], pssOptions)
	if err != nil {
		return nil, fmt.Errorf("ошибка подписи сертификата: %w", err)
	}
	return signature, nil
}

// Verify проверяет подпись данных публичным ключом движка
func (e *SignatureEngine) Verify(data, signature []byte) error {
	key, err := ParsePublicKey(e.keys.PublicPEM())
	if err != nil {
		return err
	}
	return VerifyWithKey(key, data, signature)
}

// VerifyWithKey проверяет подпись данных произвольным публичным ключом
func VerifyWithKey(key *rsa.PublicKey, data, signature []byte) error {
	digest := sha256.Sum256(data)

	if err := rsa.VerifyPSS(key, crypto.SHA256, digest[:], signature, pssOptions); err != nil {
		return fmt.Errorf("подпись сертификата невалидна: %w", err)
	}
	return nil
}

// VerifyCertificate верифицирует JSON сертификат против отделённой
// подписи. Байты сертификата канонизируются перед проверкой, поэтому
// переформатирование файла (отступы, порядок ключей) не ломает подпись,
// а изменение любого значения - ломает.
func VerifyCertificate(key *rsa.PublicKey, certJSON, signature []byte) error {
	canonical, err := CanonicalBytes(certJSON)
	if err != nil {
		return err
	}
	return VerifyWithKey(key, canonical, signature)
}
