//go:build linux

package wipe

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os/exec"
	"strings"

	"zerotrace/internal/device"
	"zerotrace/internal/logging"
)

// linuxSanitizeProvider shells out to nvme-cli and hdparm, matching the
// tooling an operator would use by hand.
type linuxSanitizeProvider struct {
	logger *logging.EnterpriseLogger
}

// NewPlatformSanitizeProvider возвращает провайдер аппаратной санитизации
// для текущей платформы
func NewPlatformSanitizeProvider(logger *logging.EnterpriseLogger) SanitizeProvider {
	return &linuxSanitizeProvider{logger: logger}
}

func (p *linuxSanitizeProvider) Purge(ctx context.Context, target Target, method Method) PurgeResult {
	// Файлы не имеют аппаратного purge
	if target.Kind == device.KindFile {
		return PurgeResult{Outcome: PurgeUnsupported, Tool: "none"}
	}

	isNvme := strings.Contains(strings.ToLower(target.Identity), "nvme")

	switch method {
	case MethodNvmeFormat:
		return p.nvmeFormat(ctx, target)
	case MethodAtaSanitize:
		return p.ataSecureErase(ctx, target)
	case MethodCryptoErase, MethodNIST80088:
		// Предпочитаем crypto-erase пути по типу носителя
		if isNvme {
			return p.nvmeFormat(ctx, target)
		}
		return p.ataSecureErase(ctx, target)
	default:
		return PurgeResult{Outcome: PurgeUnsupported, Tool: "none"}
	}
}

// nvmeFormat выполняет NVMe format с secure erase (user data erase)
func (p *linuxSanitizeProvider) nvmeFormat(ctx context.Context, target Target) PurgeResult {
	if _, err := exec.LookPath("nvme"); err != nil {
		return PurgeResult{Outcome: PurgeUnsupported, Tool: "nvme"}
	}

	cmd := exec.CommandContext(ctx, "nvme", "format", target.Identity, "--ses=1", "--pi=0")
	if out, err := cmd.CombinedOutput(); err != nil {
		if p.logger != nil {
			p.logger.Log("WARN", "NVMe format failed", "device", target.Identity, "output", strings.TrimSpace(string(out)))
		}
		return PurgeResult{Outcome: PurgeFailure, Tool: "nvme", Err: fmt.Errorf("nvme format failed: %w", err)}
	}

	return PurgeResult{Outcome: PurgeSuccess, Tool: "nvme"}
}

// ataSecureErase выполняет ATA security erase через hdparm: устанавливает
// одноразовый случайный пароль и запускает стирание
func (p *linuxSanitizeProvider) ataSecureErase(ctx context.Context, target Target) PurgeResult {
	if _, err := exec.LookPath("hdparm"); err != nil {
		return PurgeResult{Outcome: PurgeUnsupported, Tool: "hdparm"}
	}

	password, err := oneTimePassword()
	if err != nil {
		return PurgeResult{Outcome: PurgeFailure, Tool: "hdparm", Err: err}
	}

	setPass := exec.CommandContext(ctx, "hdparm", "--user-master", "u", "--security-set-pass", password, target.Identity)
	if out, err := setPass.CombinedOutput(); err != nil {
		if p.logger != nil {
			p.logger.Log("WARN", "ATA security-set-pass failed", "device", target.Identity, "output", strings.TrimSpace(string(out)))
		}
		return PurgeResult{Outcome: PurgeFailure, Tool: "hdparm", Err: fmt.Errorf("hdparm security-set-pass failed: %w", err)}
	}

	erase := exec.CommandContext(ctx, "hdparm", "--security-erase", password, target.Identity)
	if out, err := erase.CombinedOutput(); err != nil {
		if p.logger != nil {
			p.logger.Log("WARN", "ATA security-erase failed", "device", target.Identity, "output", strings.TrimSpace(string(out)))
		}
		return PurgeResult{Outcome: PurgeFailure, Tool: "hdparm", Err: fmt.Errorf("hdparm security-erase failed: %w", err)}
	}

	return PurgeResult{Outcome: PurgeSuccess, Tool: "hdparm"}
}

func oneTimePassword() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("ошибка генерации пароля безопасности: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
