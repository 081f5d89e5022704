package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"zerotrace/internal/logging"
	"zerotrace/internal/wipe"
)

// FileRecorder - файловый слой персистентности сессий: append-only
// журнал прогресса (JSONL) и итоговый отчёт сессии. Отказ записи не
// прерывает затирание, только фиксируется в логе.
type FileRecorder struct {
	dir     string
	enabled bool
	logger  *logging.EnterpriseLogger

	mu    sync.Mutex
	files map[string]*os.File // session id -> журнал прогресса
}

// NewFileRecorder создает рекордер в каталоге отчётов
func NewFileRecorder(dir string, enabled bool, logger *logging.EnterpriseLogger) *FileRecorder {
	return &FileRecorder{
		dir:     dir,
		enabled: enabled,
		logger:  logger,
		files:   make(map[string]*os.File),
	}
}

// RecordProgress дописывает событие прогресса в журнал сессии
func (r *FileRecorder) RecordProgress(sessionID string, event wipe.ProgressEvent) {
	if !r.enabled {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := r.progressFile(sessionID)
	if err != nil {
		r.logger.Log("WARN", "Ошибка открытия журнала прогресса", "session", sessionID, "error", err.Error())
		return
	}

	line, err := json.Marshal(event)
	if err != nil {
		return
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		r.logger.Log("WARN", "Ошибка записи журнала прогресса", "session", sessionID, "error", err.Error())
	}
}

// SessionReport итоговый отчёт сессии
type SessionReport struct {
	SessionID       string     `json:"session_id"`
	Target          string     `json:"target"`
	TargetKind      string     `json:"target_kind"`
	SizeBytes       uint64     `json:"size_bytes"`
	Method          string     `json:"method"`
	MethodUsed      string     `json:"method_used"`
	Passes          int        `json:"passes"`
	Status          string     `json:"status"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	Duration        string     `json:"duration"`
	BytesWritten    uint64     `json:"bytes_written"`
	SpeedMBps       float64    `json:"speed_mbps"`
	SHA256Before    string     `json:"sha256_before"`
	SHA256After     string     `json:"sha256_after,omitempty"`
	FallbackUsed    bool       `json:"fallback_used"`
	TargetDeleted   bool       `json:"target_deleted"`
	Warning         string     `json:"warning,omitempty"`
	Error           string     `json:"error,omitempty"`
}

// Finalize закрывает журнал прогресса и пишет итоговый отчёт сессии
func (r *FileRecorder) Finalize(sessionID string, session *wipe.Session) {
	r.mu.Lock()
	if f, ok := r.files[sessionID]; ok {
		f.Close()
		delete(r.files, sessionID)
	}
	r.mu.Unlock()

	if !r.enabled {
		return
	}

	report := SessionReport{
		SessionID:     session.ID,
		Target:        session.Target.Identity,
		TargetKind:    string(session.Target.Kind),
		SizeBytes:     session.Target.SizeBytes,
		Method:        string(session.Method),
		MethodUsed:    string(session.MethodUsed),
		Passes:        session.Passes,
		Status:        string(session.Status),
		StartedAt:     session.StartedAt,
		CompletedAt:   session.CompletedAt,
		Duration:      session.Duration().String(),
		BytesWritten:  session.BytesWritten,
		SpeedMBps:     speedMBps(session),
		SHA256Before:  session.SHABefore,
		SHA256After:   session.SHAAfter,
		FallbackUsed:  session.FallbackUsed,
		TargetDeleted: session.TargetDeleted,
		Warning:       session.Warning,
		Error:         session.ErrorMessage,
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		r.logger.Log("WARN", "Ошибка сериализации отчёта", "session", sessionID, "error", err.Error())
		return
	}

	filename := fmt.Sprintf("zerotrace_report_%s_%s.json", session.StartedAt.Format("20060102_150405"), shortID(sessionID))
	path := filepath.Join(r.dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		r.logger.Log("WARN", "Ошибка записи отчёта", "session", sessionID, "error", err.Error())
		return
	}

	r.logger.Log("INFO", "Отчёт сессии сохранён", "session", sessionID, "path", path)
}

func (r *FileRecorder) progressFile(sessionID string) (*os.File, error) {
	if f, ok := r.files[sessionID]; ok {
		return f, nil
	}

	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории для отчётов: %w", err)
	}

	path := filepath.Join(r.dir, fmt.Sprintf("zerotrace_progress_%s.jsonl", shortID(sessionID)))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	r.files[sessionID] = f
	return f, nil
}

func speedMBps(session *wipe.Session) float64 {
	d := session.Duration().Seconds()
	if d <= 0 {
		return 0
	}
	return float64(session.BytesWritten) / (1024 * 1024) / d
}

func shortID(sessionID string) string {
	if len(sessionID) > 8 {
		return sessionID[:8]
	}
	return sessionID
}
