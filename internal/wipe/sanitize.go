package wipe

import "context"

// PurgeOutcome результат обращения к аппаратной санитизации
type PurgeOutcome int

const (
	PurgeSuccess PurgeOutcome = iota
	PurgeUnsupported
	PurgeFailure
)

func (o PurgeOutcome) String() string {
	switch o {
	case PurgeSuccess:
		return "success"
	case PurgeUnsupported:
		return "unsupported"
	case PurgeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// PurgeResult - явный вариантный результат вместо исключений: оркестратор
// детерминированно потребляет его в ветке fallback.
type PurgeResult struct {
	Outcome PurgeOutcome
	Tool    string
	Err     error
}

// SanitizeProvider - непрозрачный примитив аппаратного purge/crypto-erase.
// Платформенные варианты выбираются при старте; оркестратор не содержит
// OS-условной логики.
type SanitizeProvider interface {
	Purge(ctx context.Context, target Target, method Method) PurgeResult
}

// unsupportedProvider используется на платформах без аппаратной санитизации
type unsupportedProvider struct{}

func (unsupportedProvider) Purge(ctx context.Context, target Target, method Method) PurgeResult {
	return PurgeResult{Outcome: PurgeUnsupported, Tool: "none"}
}

// NewUnsupportedSanitizeProvider возвращает провайдер, который всегда
// сообщает unsupported (файловые цели, тесты)
func NewUnsupportedSanitizeProvider() SanitizeProvider {
	return unsupportedProvider{}
}
