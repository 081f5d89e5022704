package wipe

import "errors"

// Классификация ошибок. Pre-flight ошибки возвращаются до единственной
// записи на носитель.
var (
	ErrDeviceNotFound           = errors.New("device not found")
	ErrPermissionDenied         = errors.New("permission denied for destructive operation")
	ErrMissingForceConfirmation = errors.New("force=true required for destructive operations")
	ErrVerificationFailed       = errors.New("clear verification failed")
	ErrPurgeUnavailable         = errors.New("hardware purge unavailable")
	ErrTargetBusy               = errors.New("target already has an active wipe session")
)
