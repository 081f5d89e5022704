package wipe

import (
	"fmt"
	"time"

	"zerotrace/internal/device"
)

// Method определяет метод уничтожения данных
type Method string

const (
	MethodSinglePass  Method = "single_pass"
	MethodThreePass   Method = "three_pass"
	MethodDoD522022M  Method = "dod_5220_22_m"
	MethodNIST80088   Method = "nist_800_88"
	MethodGutmann     Method = "gutmann"
	MethodCryptoErase Method = "crypto_erase"
	MethodAtaSanitize Method = "ata_sanitize"
	MethodNvmeFormat  Method = "nvme_format"
)

// Methods перечисляет все поддерживаемые методы
func Methods() []Method {
	return []Method{
		MethodSinglePass,
		MethodThreePass,
		MethodDoD522022M,
		MethodNIST80088,
		MethodGutmann,
		MethodCryptoErase,
		MethodAtaSanitize,
		MethodNvmeFormat,
	}
}

// ParseMethod проверяет корректность метода
func ParseMethod(s string) (Method, error) {
	m := Method(s)
	for _, known := range Methods() {
		if m == known {
			return m, nil
		}
	}
	// Legacy aliases
	switch s {
	case "shred":
		return MethodThreePass, nil
	case "dd_zero":
		return MethodSinglePass, nil
	case "hdparm_secure_erase":
		return MethodAtaSanitize, nil
	}
	return "", fmt.Errorf("неподдерживаемый метод затирания: %s", s)
}

// Status состояния сессии. Терминальные состояния не покидаются.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusCancelled  Status = "CANCELLED"
)

// IsTerminal сообщает, является ли состояние конечным
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Target описывает цель затирания. Identity используется для всего I/O
// и как ключ блокировки в реестре активных сессий.
type Target struct {
	Identity  string
	Kind      device.Kind
	SizeBytes uint64
}

// TargetFromInfo строит цель из результата пробы устройства
func TargetFromInfo(info device.Info) Target {
	return Target{
		Identity:  info.Path,
		Kind:      info.Kind,
		SizeBytes: info.SizeBytes,
	}
}

// Session управляет состоянием одной операции уничтожения данных
type Session struct {
	ID            string
	Target        Target
	Method        Method
	MethodUsed    Method
	Passes        int
	Status        Status
	StartedAt     time.Time
	CompletedAt   *time.Time
	SHABefore     string
	SHAAfter      string
	BytesWritten  uint64
	FallbackUsed  bool
	TargetDeleted bool
	Warning       string
	ErrorMessage  string
}

// Duration возвращает длительность сессии
func (s *Session) Duration() time.Duration {
	if s.CompletedAt == nil {
		return 0
	}
	return s.CompletedAt.Sub(s.StartedAt)
}

// transition переводит сессию в новое состояние. Переходы из терминальных
// состояний игнорируются.
func (s *Session) transition(next Status) {
	if s.Status.IsTerminal() {
		return
	}
	s.Status = next
}

// ProgressEvent информация о прогрессе затирания (append-only)
type ProgressEvent struct {
	SessionID string    `json:"session_id"`
	Percent   float64   `json:"percent"`
	Stage     string    `json:"stage"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ProgressFunc типизированный callback прогресса для потребителей (CLI, отчёты)
type ProgressFunc func(percent float64, stage, message string)

// Recorder - внешний слой персистентности. Ядро только вызывает его,
// технология хранения не предполагается.
type Recorder interface {
	RecordProgress(sessionID string, event ProgressEvent)
	Finalize(sessionID string, session *Session)
}

// WriteResult результат одного прохода перезаписи
type WriteResult struct {
	BytesWritten uint64
	EndOfExtent  bool
}
