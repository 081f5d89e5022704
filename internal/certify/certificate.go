package certify

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"zerotrace/internal/device"
	"zerotrace/internal/wipe"
)

const (
	// Version версия формата сертификата
	Version = "1.0"
	// ToolName имя инструмента в метаданных
	ToolName = "ZeroTrace"
	// ToolVersion версия инструмента
	ToolVersion = "2.1.0"

	certificateType = "Data Destruction Certificate"

	// Метка алгоритма в теле сертификата. Отделённый .sig файл содержит
	// сырые байты RSA-PSS подписи над каноническим JSON.
	signatureAlgorithm = "RSA-SHA256"
)

// Record - сертификат уничтожения данных. Сериализуется в JSON;
// канонические байты для подписи строит SignatureEngine.
type Record struct {
	Certificate      CertificateInfo  `json:"certificate"`
	Device           DeviceInfo       `json:"device"`
	WipeOperation    WipeOperation    `json:"wipe_operation"`
	Verification     Verification     `json:"verification"`
	DigitalSignature DigitalSignature `json:"digital_signature"`
	Compliance       Compliance       `json:"compliance"`
	Metadata         Metadata         `json:"metadata"`
}

// CertificateInfo идентификация сертификата
type CertificateInfo struct {
	ID       string `json:"id"`
	Version  string `json:"version"`
	Type     string `json:"type"`
	Issuer   string `json:"issuer"`
	IssuedAt string `json:"issued_at"`
	Status   string `json:"status"`
}

// DeviceInfo описание уничтоженного носителя
type DeviceInfo struct {
	Path          string `json:"path"`
	Type          string `json:"type"`
	Model         string `json:"model,omitempty"`
	Serial        string `json:"serial,omitempty"`
	SizeBytes     uint64 `json:"size_bytes"`
	SizeFormatted string `json:"size_formatted"`
}

// WipeOperation параметры и результат операции
type WipeOperation struct {
	SessionID         string  `json:"session_id"`
	Method            string  `json:"method"`
	MethodDisplay     string  `json:"method_display"`
	MethodUsed        string  `json:"method_used"`
	Passes            int     `json:"passes"`
	StartedAt         string  `json:"started_at"`
	CompletedAt       string  `json:"completed_at,omitempty"`
	DurationSeconds   float64 `json:"duration_seconds"`
	DurationFormatted string  `json:"duration_formatted"`
	Status            string  `json:"status"`
	Success           bool    `json:"success"`
	BytesWritten      uint64  `json:"bytes_written"`
	FallbackUsed      bool    `json:"fallback_used"`
	TargetDeleted     bool    `json:"target_deleted"`
	Warning           string  `json:"warning,omitempty"`
}

// Verification контрольные суммы до и после операции
type Verification struct {
	SHA256Before          string `json:"sha256_before"`
	SHA256After           string `json:"sha256_after,omitempty"`
	Sampling              string `json:"sampling"`
	DataDestroyed         bool   `json:"data_destroyed"`
	VerificationTimestamp string `json:"verification_timestamp"`
}

// DigitalSignature параметры подписи сертификата. Сама подпись
// хранится отдельным .sig файлом рядом с сертификатом.
type DigitalSignature struct {
	Algorithm            string `json:"algorithm"`
	SignatureHash        string `json:"signature_hash"`
	PublicKeyFingerprint string `json:"public_key_fingerprint"`
	SignatureTimestamp   string `json:"signature_timestamp"`
	TamperProof          bool   `json:"tamper_proof"`
	Signed               bool   `json:"signed"`
	SignatureFile        string `json:"signature_file,omitempty"`
}

// Compliance соответствие стандартам уничтожения данных
type Compliance struct {
	NIST80088          bool     `json:"nist_800_88"`
	DoD522022M         bool     `json:"dod_5220_22_m"`
	CryptographicErase bool     `json:"cryptographic_erasure"`
	StandardsMet       []string `json:"standards_met"`
}

// Metadata сведения об инструменте и окружении
type Metadata struct {
	Generator         string `json:"generator"`
	GeneratedAt       string `json:"generated_at"`
	CertificateFormat string `json:"certificate_format"`
	Hostname          string `json:"hostname"`
	TamperProof       bool   `json:"tamper_proof"`
}

// NewCertificateID генерирует идентификатор сертификата:
// 16 hex символов в верхнем регистре
func NewCertificateID() (string, error) {
	raw := make([]byte, 8)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("ошибка генерации идентификатора сертификата: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(raw)), nil
}

// BuildRecord строит сертификат по завершённой сессии. Статус сессии
// записывается в нижнем регистре, как требует формат сертификата.
func BuildRecord(session *wipe.Session, info device.Info, fingerprint string) (*Record, error) {
	id, err := NewCertificateID()
	if err != nil {
		return nil, err
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	now := time.Now().UTC().Format(time.RFC3339)
	status := strings.ToLower(string(session.Status))
	success := session.Status == wipe.StatusCompleted

	// Предупреждение сессии означает непройденную верификацию:
	// уничтожение данных не подтверждено
	destroyed := success && session.Warning == ""

	record := &Record{
		Certificate: CertificateInfo{
			ID:       id,
			Version:  Version,
			Type:     certificateType,
			Issuer:   caCommonName,
			IssuedAt: now,
			Status:   "valid",
		},
		Device: DeviceInfo{
			Path:          info.Path,
			Type:          info.MediaKind,
			Model:         info.Model,
			Serial:        info.Serial,
			SizeBytes:     info.SizeBytes,
			SizeFormatted: formatSize(info.SizeBytes),
		},
		WipeOperation: WipeOperation{
			SessionID:         session.ID,
			Method:            string(session.Method),
			MethodDisplay:     methodDisplay(session.Method),
			MethodUsed:        string(session.MethodUsed),
			Passes:            session.Passes,
			StartedAt:         session.StartedAt.UTC().Format(time.RFC3339),
			DurationSeconds:   session.Duration().Seconds(),
			DurationFormatted: formatDuration(session.Duration().Seconds()),
			Status:            status,
			Success:           success,
			BytesWritten:      session.BytesWritten,
			FallbackUsed:      session.FallbackUsed,
			TargetDeleted:     session.TargetDeleted,
			Warning:           session.Warning,
		},
		Verification: Verification{
			SHA256Before:          session.SHABefore,
			SHA256After:           session.SHAAfter,
			Sampling:              "head_middle_tail_1mib",
			DataDestroyed:         destroyed,
			VerificationTimestamp: now,
		},
		DigitalSignature: DigitalSignature{
			Algorithm:            signatureAlgorithm,
			SignatureHash:        signatureHash(info.Path, string(session.Method), session.SHAAfter),
			PublicKeyFingerprint: fingerprint,
			SignatureTimestamp:   now,
			TamperProof:          true,
			Signed:               false,
		},
		Compliance: complianceFor(session.Method),
		Metadata: Metadata{
			Generator:         fmt.Sprintf("%s v%s", ToolName, ToolVersion),
			GeneratedAt:       now,
			CertificateFormat: "JSON",
			Hostname:          hostname,
			TamperProof:       true,
		},
	}

	if session.CompletedAt != nil {
		record.WipeOperation.CompletedAt = session.CompletedAt.UTC().Format(time.RFC3339)
	}

	return record, nil
}

// signatureHash сводный хеш содержимого: SHA-256 от пути цели, метода и
// контрольной суммы после затирания
func signatureHash(path, method, shaAfter string) string {
	sum := sha256.Sum256([]byte(path + method + shaAfter))
	return hex.EncodeToString(sum[:])
}

// complianceFor сопоставляет методу стандарты соответствия.
// Чистая функция метода: одинаковый метод всегда даёт одинаковые теги.
func complianceFor(method wipe.Method) Compliance {
	standards := []string{"NIST 800-88"}

	switch method {
	case wipe.MethodDoD522022M:
		standards = append(standards, "DoD 5220.22-M")
	case wipe.MethodCryptoErase:
		standards = append(standards, "Cryptographic Erasure")
	case wipe.MethodGutmann:
		standards = append(standards, "Gutmann Method")
	case wipe.MethodAtaSanitize:
		standards = append(standards, "ATA Sanitize")
	case wipe.MethodNvmeFormat:
		standards = append(standards, "NVMe Format")
	}

	return Compliance{
		NIST80088:          true,
		DoD522022M:         method == wipe.MethodDoD522022M,
		CryptographicErase: method == wipe.MethodCryptoErase,
		StandardsMet:       standards,
	}
}

// methodDisplay форматирует метод для человекочитаемого вывода:
// "dod_5220_22_m" -> "Dod 5220 22 M"
func methodDisplay(method wipe.Method) string {
	words := strings.Split(strings.ReplaceAll(string(method), "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// formatDuration форматирует длительность в человекочитаемый вид
func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "Unknown"
	}

	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := int(seconds) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, secs)
	}
	return fmt.Sprintf("%ds", secs)
}

// formatSize форматирует размер в человекочитаемый вид
func formatSize(size uint64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := uint64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
