package certify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"zerotrace/internal/device"
	"zerotrace/internal/logging"
	"zerotrace/internal/wipe"
)

// Issuer выпускает сертификаты уничтожения данных: JSON с отделённой
// подписью и, опционально, PDF форму с отделённой подписью PDF байтов.
type Issuer struct {
	keys   *KeyManager
	engine *SignatureEngine
	dir    string
	pdf    bool
	logger *logging.EnterpriseLogger
}

// NewIssuer создает эмитент сертификатов
func NewIssuer(keys *KeyManager, dir string, pdf bool, logger *logging.EnterpriseLogger) *Issuer {
	return &Issuer{
		keys:   keys,
		engine: NewSignatureEngine(keys),
		dir:    dir,
		pdf:    pdf,
		logger: logger,
	}
}

// IssueResult пути выпущенных артефактов
type IssueResult struct {
	Record   *Record
	JSONPath string
	SigPath  string
	PDFPath  string
	P7SPath  string
}

// Issue выпускает сертификат по завершённой сессии.
//
// Отказ подписи не фатален: сертификат выпускается с signed=false и
// без .sig файла, факт фиксируется в логе. Ошибка записи файлов фатальна.
func (i *Issuer) Issue(session *wipe.Session, info device.Info) (*IssueResult, error) {
	if err := os.MkdirAll(i.dir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога сертификатов %s: %w", i.dir, err)
	}

	record, err := BuildRecord(session, info, i.keys.Fingerprint())
	if err != nil {
		return nil, err
	}

	base := fmt.Sprintf("zerotrace_certificate_%s", record.Certificate.ID)
	result := &IssueResult{
		Record:   record,
		JSONPath: filepath.Join(i.dir, base+".json"),
	}

	// Подпись покрывает канонические байты итогового JSON, поэтому
	// signed и signature_file выставляются до подписи
	record.DigitalSignature.Signed = true
	record.DigitalSignature.SignatureFile = base + ".sig"

	var signature []byte
	canonical, err := CanonicalRecordBytes(record)
	if err == nil {
		signature, err = i.engine.Sign(canonical)
	}
	if err != nil {
		i.logger.Log("WARN", "Подпись сертификата не удалась, сертификат выпускается без подписи",
			"certificate", record.Certificate.ID, "error", err.Error())
		record.DigitalSignature.Signed = false
		record.DigitalSignature.SignatureFile = ""
		signature = nil
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации сертификата: %w", err)
	}
	if err := os.WriteFile(result.JSONPath, data, 0644); err != nil {
		return nil, fmt.Errorf("ошибка записи сертификата: %w", err)
	}

	if signature != nil {
		result.SigPath = filepath.Join(i.dir, base+".sig")
		if err := os.WriteFile(result.SigPath, signature, 0644); err != nil {
			return nil, fmt.Errorf("ошибка записи подписи сертификата: %w", err)
		}
	}

	if i.pdf {
		if err := i.issuePDF(record, signature, base, result); err != nil {
			// PDF - дополнительная форма, её отказ не отменяет JSON сертификат
			i.logger.Log("WARN", "Ошибка формирования PDF сертификата",
				"certificate", record.Certificate.ID, "error", err.Error())
		}
	}

	i.logger.Log("INFO", "Сертификат выпущен",
		"certificate", record.Certificate.ID, "path", result.JSONPath,
		"signed", record.DigitalSignature.Signed)

	return result, nil
}

func (i *Issuer) issuePDF(record *Record, jsonSignature []byte, base string, result *IssueResult) error {
	pdfBytes, err := RenderPDF(record, jsonSignature)
	if err != nil {
		return err
	}

	result.PDFPath = filepath.Join(i.dir, base+".pdf")
	if err := os.WriteFile(result.PDFPath, pdfBytes, 0644); err != nil {
		return fmt.Errorf("ошибка записи PDF: %w", err)
	}

	// Отделённая подпись покрывает итоговые PDF байты
	pdfSignature, err := i.engine.Sign(pdfBytes)
	if err != nil {
		return fmt.Errorf("ошибка подписи PDF: %w", err)
	}
	result.P7SPath = filepath.Join(i.dir, base+".p7s")
	if err := os.WriteFile(result.P7SPath, pdfSignature, 0644); err != nil {
		return fmt.Errorf("ошибка записи подписи PDF: %w", err)
	}

	return nil
}

// VerifyFiles верифицирует JSON сертификат против .sig файла публичным
// ключом из publicKeyPath. Возвращает разобранный сертификат при успехе.
func VerifyFiles(publicKeyPath, certPath, sigPath string) (*Record, error) {
	keyPEM, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения публичного ключа: %w", err)
	}
	key, err := ParsePublicKey(keyPEM)
	if err != nil {
		return nil, err
	}

	certJSON, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения сертификата: %w", err)
	}
	signature, err := os.ReadFile(sigPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения подписи: %w", err)
	}

	if err := VerifyCertificate(key, certJSON, signature); err != nil {
		return nil, err
	}

	var record Record
	if err := json.Unmarshal(certJSON, &record); err != nil {
		return nil, fmt.Errorf("подпись валидна, но сертификат не разбирается: %w", err)
	}
	return &record, nil
}
