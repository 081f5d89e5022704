package wipe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"zerotrace/internal/logging"
)

// Orchestrator последовательно выполняет этапы метода: проходы перезаписи,
// верификацию и аппаратный purge. Владеет политикой fallback.
//
// Сессия выполняется синхронно в горутине вызывающего; сессии против
// разных целей независимы и могут идти параллельно.
type Orchestrator struct {
	executor *Executor
	sanitize SanitizeProvider
	registry *Registry
	recorder Recorder
	logger   *logging.EnterpriseLogger
}

// NewOrchestrator создает оркестратор. Все зависимости - явные сервисы
// процесса, без глобального состояния.
func NewOrchestrator(executor *Executor, sanitize SanitizeProvider, recorder Recorder, logger *logging.EnterpriseLogger) *Orchestrator {
	return &Orchestrator{
		executor: executor,
		sanitize: sanitize,
		registry: NewRegistry(),
		recorder: recorder,
		logger:   logger,
	}
}

// Registry возвращает реестр активных сессий
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// Request параметры запуска сессии
type Request struct {
	Target     Target
	Method     Method
	Passes     int // 0 = полный план метода
	Force      bool
	OnProgress ProgressFunc
}

// Run выполняет полный цикл уничтожения данных на цели.
//
// Pre-flight проверки (force, существование, права) выполняются до
// единственной записи и завершаются без побочных эффектов. Отмена
// кооперативная: проверяется между буферами и этапами; частичная
// перезапись отменённой сессии не откатывается - операция по определению
// необратима.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Session, error) {
	if err := o.preflight(req); err != nil {
		return nil, err
	}

	session := &Session{
		ID:         uuid.NewString(),
		Target:     req.Target,
		Method:     req.Method,
		MethodUsed: req.Method,
		Status:     StatusPending,
	}

	if err := o.registry.acquire(req.Target.Identity, session.ID); err != nil {
		return nil, err
	}
	defer o.registry.release(req.Target.Identity)

	plan := stagePlanFor(req.Method, req.Target.Kind, req.Passes)
	if len(plan) == 0 {
		return nil, fmt.Errorf("метод %s не имеет плана этапов", req.Method)
	}
	session.Passes = overwritePassCount(plan)

	// sha_before снимается строго до первой записи
	shaBefore, err := HashHead(req.Target.Identity)
	if err != nil {
		return nil, fmt.Errorf("ошибка снятия sha_before: %w", err)
	}
	session.SHABefore = shaBefore

	session.transition(StatusInProgress)
	session.StartedAt = time.Now()

	o.logger.Log("INFO", "Начало уничтожения данных",
		"session", session.ID, "target", req.Target.Identity,
		"method", req.Method, "passes", session.Passes)
	o.emit(session, 0, "start", fmt.Sprintf("Starting %s wipe...", req.Method), req.OnProgress)

	var fatal error

	for _, st := range plan {
		if err := ctx.Err(); err != nil {
			session.transition(StatusCancelled)
			session.Warning = "операция отменена пользователем"
			break
		}

		if err := o.runStage(ctx, session, st, req.OnProgress); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				session.transition(StatusCancelled)
				session.Warning = "операция отменена пользователем"
			} else {
				fatal = err
				session.ErrorMessage = err.Error()
				session.transition(StatusFailed)
			}
			break
		}
	}

	// sha_after не снимается, если метод удалил цель
	if fatal == nil && !session.Status.IsTerminal() && !session.TargetDeleted {
		if shaAfter, err := HashHead(req.Target.Identity); err == nil {
			session.SHAAfter = shaAfter
		} else {
			o.logger.Log("WARN", "Ошибка снятия sha_after", "session", session.ID, "error", err.Error())
		}
	}

	now := time.Now()
	session.CompletedAt = &now
	session.transition(StatusCompleted)

	if session.Status == StatusCompleted {
		o.emit(session, 100, "done", "Wipe completed", req.OnProgress)
	}

	o.logger.Log("INFO", "Сессия завершена",
		"session", session.ID, "status", session.Status,
		"bytes", session.BytesWritten, "fallback", session.FallbackUsed)

	if o.recorder != nil {
		o.recorder.Finalize(session.ID, session)
	}

	return session, fatal
}

// preflight выполняет проверки до каких-либо записей
func (o *Orchestrator) preflight(req Request) error {
	if !req.Force {
		return ErrMissingForceConfirmation
	}

	if _, err := os.Stat(req.Target.Identity); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrDeviceNotFound, req.Target.Identity)
		}
		if os.IsPermission(err) {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, req.Target.Identity)
		}
		return fmt.Errorf("ошибка проверки цели %s: %w", req.Target.Identity, err)
	}

	// Проба записи без мутации: только открытие дескриптора
	f, err := os.OpenFile(req.Target.Identity, os.O_WRONLY, 0)
	if err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, req.Target.Identity)
		}
		return fmt.Errorf("цель недоступна для записи %s: %w", req.Target.Identity, err)
	}
	f.Close()

	return nil
}

// runStage выполняет один этап плана
func (o *Orchestrator) runStage(ctx context.Context, session *Session, st stage, onProgress ProgressFunc) error {
	o.emit(session, st.from, st.name, st.message, onProgress)

	switch st.kind {
	case stageOverwrite:
		return o.runOverwrite(ctx, session, st, onProgress)

	case stageVerify:
		zeroed, err := IsZeroed(session.Target.Identity, session.Target.SizeBytes)
		if err != nil {
			return fmt.Errorf("ошибка верификации: %w", err)
		}
		if !zeroed {
			if st.fatalOnFail {
				return ErrVerificationFailed
			}
			// Необязательная верификация: предупреждение, не прерывание
			session.Warning = "верификация обнуления не пройдена"
			o.logger.Log("WARN", "Верификация не пройдена", "session", session.ID, "target", session.Target.Identity)
		}
		o.emit(session, st.to, st.name, "Verification passed", onProgress)
		return nil

	case stagePurge:
		return o.runPurge(ctx, session, st, onProgress)

	case stageDelete:
		if err := deleteTarget(session.Target.Identity); err != nil {
			return err
		}
		session.TargetDeleted = true
		o.emit(session, st.to, st.name, "File deleted", onProgress)
		return nil

	default:
		return fmt.Errorf("неизвестный этап плана: %d", st.kind)
	}
}

// runOverwrite выполняет проход перезаписи, масштабируя прогресс в полосу
// этапа
func (o *Orchestrator) runOverwrite(ctx context.Context, session *Session, st stage, onProgress ProgressFunc) error {
	result, err := o.executor.Overwrite(ctx, session.Target, st.pattern, func(written, total uint64) {
		percent := st.to
		if total > 0 {
			percent = st.from + (st.to-st.from)*float64(written)/float64(total)
		}
		o.emit(session, percent, st.name, st.message, onProgress)
	})
	if result != nil {
		session.BytesWritten += result.BytesWritten
	}
	return err
}

// runPurge делегирует SanitizeProvider; отказ или неподдержка провайдера
// не фатальны - выполняется детерминированный overwrite fallback, и это
// фиксируется в результате (MethodUsed может отличаться от Method).
func (o *Orchestrator) runPurge(ctx context.Context, session *Session, st stage, onProgress ProgressFunc) error {
	result := o.sanitize.Purge(ctx, session.Target, session.Method)

	switch result.Outcome {
	case PurgeSuccess:
		o.logger.Log("INFO", "Аппаратный purge выполнен",
			"session", session.ID, "tool", result.Tool)
		o.emit(session, st.to, st.name, "Hardware purge completed", onProgress)
		return nil

	case PurgeUnsupported, PurgeFailure:
		o.logger.Log("WARN", "Purge недоступен, выполняется overwrite fallback",
			"session", session.ID, "outcome", result.Outcome.String(), "tool", result.Tool)

		session.FallbackUsed = true
		session.MethodUsed = MethodSinglePass
		if session.Warning == "" {
			session.Warning = fmt.Sprintf("%v (%s), выполнена перезапись нулями", ErrPurgeUnavailable, result.Outcome)
		}

		fallback := stage{
			kind:    stageOverwrite,
			pattern: patternZero,
			name:    st.name + "_fallback",
			message: "Purge unavailable, falling back to overwrite...",
			from:    st.from,
			to:      st.to,
		}
		return o.runOverwrite(ctx, session, fallback, onProgress)

	default:
		return fmt.Errorf("неизвестный результат purge: %d", result.Outcome)
	}
}

// emit публикует событие прогресса (append-only журнал + callback)
func (o *Orchestrator) emit(session *Session, percent float64, stage, message string, onProgress ProgressFunc) {
	if percent > 100 {
		percent = 100
	}

	event := ProgressEvent{
		SessionID: session.ID,
		Percent:   percent,
		Stage:     stage,
		Message:   message,
		Timestamp: time.Now(),
	}

	if o.recorder != nil {
		o.recorder.RecordProgress(session.ID, event)
	}
	if onProgress != nil {
		onProgress(percent, stage, message)
	}
}

// deleteTarget обрезает файл до нуля, синхронизирует и удаляет.
// Truncate перед удалением не оставляет длину исходных данных в метаданных.
func deleteTarget(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("ошибка открытия файла для удаления: %w", err)
	}

	if err := f.Truncate(0); err != nil {
		f.Close()
		return fmt.Errorf("ошибка усечения файла: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("ошибка синхронизации файла: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("ошибка удаления файла: %w", err)
	}

	return nil
}
