//go:build !linux && !darwin && !windows

package wipe

import "zerotrace/internal/logging"

// NewPlatformSanitizeProvider возвращает провайдер аппаратной санитизации
// для текущей платформы
func NewPlatformSanitizeProvider(logger *logging.EnterpriseLogger) SanitizeProvider {
	return unsupportedProvider{}
}
