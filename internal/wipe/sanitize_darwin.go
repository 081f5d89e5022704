//go:build darwin

package wipe

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"zerotrace/internal/device"
	"zerotrace/internal/logging"
)

type darwinSanitizeProvider struct {
	logger *logging.EnterpriseLogger
}

// NewPlatformSanitizeProvider возвращает провайдер аппаратной санитизации
// для текущей платформы
func NewPlatformSanitizeProvider(logger *logging.EnterpriseLogger) SanitizeProvider {
	return &darwinSanitizeProvider{logger: logger}
}

func (p *darwinSanitizeProvider) Purge(ctx context.Context, target Target, method Method) PurgeResult {
	if target.Kind == device.KindFile {
		return PurgeResult{Outcome: PurgeUnsupported, Tool: "none"}
	}

	if _, err := exec.LookPath("diskutil"); err != nil {
		return PurgeResult{Outcome: PurgeUnsupported, Tool: "diskutil"}
	}

	cmd := exec.CommandContext(ctx, "diskutil", "secureErase", "0", target.Identity)
	if out, err := cmd.CombinedOutput(); err != nil {
		if p.logger != nil {
			p.logger.Log("WARN", "diskutil secureErase failed", "device", target.Identity, "output", strings.TrimSpace(string(out)))
		}
		return PurgeResult{Outcome: PurgeFailure, Tool: "diskutil", Err: fmt.Errorf("diskutil secureErase failed: %w", err)}
	}

	return PurgeResult{Outcome: PurgeSuccess, Tool: "diskutil"}
}
