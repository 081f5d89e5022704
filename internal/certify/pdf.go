package certify

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

// pdfSignatureField имя поля встроенной подписи в PDF
const pdfSignatureField = "ZeroTraceSignature"

// RenderPDF формирует печатную форму сертификата. Подпись JSON
// сертификата встраивается в документ как поле ZeroTraceSignature
// в base64; подпись самих PDF байтов выпускается отдельно (.p7s).
func RenderPDF(record *Record, jsonSignature []byte) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("ZeroTrace Data Destruction Certificate", false)
	pdf.SetAuthor(caCommonName, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "CERTIFICATE OF DATA DESTRUCTION", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Certificate ID: %s", record.Certificate.ID), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Issued: %s by %s", record.Certificate.IssuedAt, record.Certificate.Issuer), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	section(pdf, "Device")
	row(pdf, "Path", record.Device.Path)
	row(pdf, "Type", record.Device.Type)
	row(pdf, "Size", fmt.Sprintf("%s (%d bytes)", record.Device.SizeFormatted, record.Device.SizeBytes))
	if record.Device.Model != "" {
		row(pdf, "Model", record.Device.Model)
	}
	if record.Device.Serial != "" {
		row(pdf, "Serial", record.Device.Serial)
	}

	section(pdf, "Wipe Operation")
	row(pdf, "Session", record.WipeOperation.SessionID)
	row(pdf, "Method", record.WipeOperation.MethodDisplay)
	if record.WipeOperation.MethodUsed != record.WipeOperation.Method {
		row(pdf, "Method used", record.WipeOperation.MethodUsed+" (fallback)")
	}
	row(pdf, "Passes", fmt.Sprintf("%d", record.WipeOperation.Passes))
	row(pdf, "Status", strings.ToUpper(record.WipeOperation.Status))
	row(pdf, "Started", record.WipeOperation.StartedAt)
	if record.WipeOperation.CompletedAt != "" {
		row(pdf, "Completed", record.WipeOperation.CompletedAt)
	}
	row(pdf, "Duration", record.WipeOperation.DurationFormatted)
	row(pdf, "Bytes written", fmt.Sprintf("%d", record.WipeOperation.BytesWritten))
	if record.WipeOperation.Warning != "" {
		row(pdf, "Warning", record.WipeOperation.Warning)
	}

	section(pdf, "Verification")
	row(pdf, "SHA-256 before", record.Verification.SHA256Before)
	if record.Verification.SHA256After != "" {
		row(pdf, "SHA-256 after", record.Verification.SHA256After)
	}
	row(pdf, "Sampling", record.Verification.Sampling)
	row(pdf, "Data destroyed", fmt.Sprintf("%t", record.Verification.DataDestroyed))

	section(pdf, "Compliance")
	for _, std := range record.Compliance.StandardsMet {
		row(pdf, "Standard", std)
	}

	section(pdf, "Digital Signature")
	row(pdf, "Algorithm", record.DigitalSignature.Algorithm)
	row(pdf, "Key fingerprint", record.DigitalSignature.PublicKeyFingerprint)
	row(pdf, "Signature hash", record.DigitalSignature.SignatureHash)

	if len(jsonSignature) > 0 {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(0, 5, pdfSignatureField+":", "", 1, "L", false, 0, "")
		pdf.SetFont("Courier", "", 7)
		pdf.MultiCell(0, 3.5, wrapBase64(base64.StdEncoding.EncodeToString(jsonSignature), 96), "", "L", false)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 8)
	pdf.MultiCell(0, 4, fmt.Sprintf("Generated by %s on %s", record.Metadata.Generator, record.Metadata.Hostname), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("ошибка формирования PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func section(pdf *fpdf.Fpdf, title string) {
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "B", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func row(pdf *fpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(40, 5, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(0, 5, value, "", "L", false)
}

func wrapBase64(s string, width int) string {
	var b strings.Builder
	for len(s) > width {
		b.WriteString(s[:width])
		b.WriteByte('\n')
		s = s[width:]
	}
	b.WriteString(s)
	return b.String()
}
