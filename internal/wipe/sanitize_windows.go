//go:build windows

package wipe

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"zerotrace/internal/device"
	"zerotrace/internal/logging"
)

var physicalDriveRe = regexp.MustCompile(`(?i)PhysicalDrive(\d+)`)

type windowsSanitizeProvider struct {
	logger *logging.EnterpriseLogger
}

// NewPlatformSanitizeProvider возвращает провайдер аппаратной санитизации
// для текущей платформы
func NewPlatformSanitizeProvider(logger *logging.EnterpriseLogger) SanitizeProvider {
	return &windowsSanitizeProvider{logger: logger}
}

func (p *windowsSanitizeProvider) Purge(ctx context.Context, target Target, method Method) PurgeResult {
	if target.Kind == device.KindFile {
		return PurgeResult{Outcome: PurgeUnsupported, Tool: "none"}
	}

	m := physicalDriveRe.FindStringSubmatch(target.Identity)
	if m == nil {
		return PurgeResult{Outcome: PurgeUnsupported, Tool: "powershell"}
	}

	ps := fmt.Sprintf("Clear-Disk -Number %s -RemoveData -Confirm:$false -ErrorAction Stop", m[1])
	cmd := exec.CommandContext(ctx, "powershell", "-NoProfile", "-Command", ps)
	if out, err := cmd.CombinedOutput(); err != nil {
		if p.logger != nil {
			p.logger.Log("WARN", "Clear-Disk failed", "device", target.Identity, "output", strings.TrimSpace(string(out)))
		}
		return PurgeResult{Outcome: PurgeFailure, Tool: "powershell", Err: fmt.Errorf("Clear-Disk failed: %w", err)}
	}

	return PurgeResult{Outcome: PurgeSuccess, Tool: "powershell"}
}
