package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"zerotrace/internal/certify"
	"zerotrace/internal/config"
	"zerotrace/internal/device"
	"zerotrace/internal/logging"
	"zerotrace/internal/reporting"
	"zerotrace/internal/wipe"
)

const (
	Version = certify.ToolVersion
	AppName = "ZeroTrace"

	// Exit codes
	EXIT_SUCCESS = 0
	EXIT_ERROR   = 1
	EXIT_WARNING = 2
)

var (
	cfg        *config.Config
	logger     *logging.EnterpriseLogger
	verbose    bool
	configPath string
)

// CLI команды
var rootCmd = &cobra.Command{
	Use:     "zerotrace",
	Short:   "ZeroTrace - верифицируемое уничтожение данных",
	Long:    "Утилита безвозвратного уничтожения данных с выпуском криптографически подписанных сертификатов",
	Version: Version,
}

var wipeCmd = &cobra.Command{
	Use:   "wipe [цель]",
	Short: "Уничтожить данные на устройстве или в файле",
	Args:  cobra.ExactArgs(1),
	RunE:  runWipe,
}

var infoCmd = &cobra.Command{
	Use:   "info [цель]",
	Short: "Показать информацию о цели",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

var methodsCmd = &cobra.Command{
	Use:   "methods",
	Short: "Показать поддерживаемые методы затирания",
	RunE:  runMethods,
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Управление ключами подписи сертификатов",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Создать или загрузить ключи подписи",
	RunE:  runKeysInit,
}

var keysShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Показать отпечаток ключа подписи",
	RunE:  runKeysShow,
}

var verifyCertCmd = &cobra.Command{
	Use:   "verify-cert [сертификат.json]",
	Short: "Проверить подпись сертификата",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerifyCert,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Подробный вывод")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Путь к конфигурации")

	wipeCmd.Flags().StringP("method", "m", "", "Метод затирания")
	wipeCmd.Flags().IntP("passes", "p", 0, "Ограничение числа проходов")
	wipeCmd.Flags().BoolP("force", "f", false, "Подтвердить безвозвратное уничтожение")
	wipeCmd.Flags().Bool("no-certificate", false, "Не выпускать сертификат")

	verifyCertCmd.Flags().String("key", "", "Путь к публичному ключу (по умолчанию из каталога ключей)")
	verifyCertCmd.Flags().String("sig", "", "Путь к файлу подписи (по умолчанию рядом с сертификатом)")

	keysCmd.AddCommand(keysInitCmd, keysShowCmd)
	rootCmd.AddCommand(wipeCmd, infoCmd, methodsCmd, keysCmd, verifyCertCmd)
}

// setup загружает конфигурацию и инициализирует логгер
func setup() error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	logger, err = logging.NewEnterpriseLogger(logging.Options{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Verbose: verbose,
	})
	if err != nil {
		return fmt.Errorf("ошибка инициализации логгера: %w", err)
	}

	return nil
}

func runWipe(cmd *cobra.Command, args []string) error {
	if err := setup(); err != nil {
		return err
	}
	defer logger.Close()

	target := args[0]
	force, _ := cmd.Flags().GetBool("force")
	passes, _ := cmd.Flags().GetInt("passes")
	noCert, _ := cmd.Flags().GetBool("no-certificate")

	methodStr, _ := cmd.Flags().GetString("method")
	if methodStr == "" {
		methodStr = cfg.Wipe.DefaultMethod
	}
	method, err := wipe.ParseMethod(methodStr)
	if err != nil {
		return err
	}

	if cfg.IsProtectedPath(target) {
		return fmt.Errorf("цель %s входит в список защищённых путей", target)
	}

	// Подтверждение: флаг --force обязателен при require_force,
	// иначе интерактивный запрос
	if !force {
		if cfg.Security.RequireForce {
			return fmt.Errorf("операция безвозвратна: требуется флаг --force")
		}
		fmt.Printf("ВНИМАНИЕ: данные на %s будут безвозвратно уничтожены методом %s.\n", target, method)
		fmt.Print("Продолжить? (y/N): ")
		var response string
		fmt.Scanln(&response)
		if strings.ToLower(response) != "y" {
			logger.Log("INFO", "Операция отменена пользователем")
			return nil
		}
		force = true
	}

	info, err := device.Probe(target)
	if err != nil {
		return fmt.Errorf("%w: %s", wipe.ErrDeviceNotFound, target)
	}

	logger.Log("INFO", "Запуск ZeroTrace", "version", Version, "target", target, "method", method)

	executor := wipe.NewExecutor(logger)
	executor.ChunkSize = int(cfg.Wipe.ChunkSize)
	executor.MaxSpeedMBps = cfg.Wipe.MaxSpeedMBps
	sanitize := wipe.NewPlatformSanitizeProvider(logger)
	recorder := reporting.NewFileRecorder(cfg.Reporting.LocalPath, cfg.Reporting.Enabled, logger)
	orchestrator := wipe.NewOrchestrator(executor, sanitize, recorder, logger)
	progress := reporting.NewConsoleProgress(os.Stdout)

	// Контекст с лимитом длительности и обработкой сигналов
	baseCtx := context.Background()
	var ctx context.Context
	var cancel context.CancelFunc
	if maxDuration := cfg.GetMaxDuration(); maxDuration > 0 {
		ctx, cancel = context.WithTimeout(baseCtx, maxDuration)
	} else {
		ctx, cancel = context.WithCancel(baseCtx)
	}
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		sig, ok := <-sigChan
		if !ok {
			return
		}
		logger.Log("WARN", "Получен сигнал, graceful shutdown", "signal", sig.String())
		fmt.Printf("\n[INFO] Получен сигнал %s, завершаем работу...\n", sig.String())
		cancel()
	}()

	session, err := orchestrator.Run(ctx, wipe.Request{
		Target:     wipe.TargetFromInfo(info),
		Method:     method,
		Passes:     passes,
		Force:      force,
		OnProgress: progress.Update,
	})
	if err != nil && session == nil {
		return err
	}

	printSessionSummary(session)

	// Сертификат выпускается по успешно завершённой сессии
	if session.Status == wipe.StatusCompleted && cfg.Certificates.Enabled && !noCert {
		keys, kerr := certify.LoadOrCreateKeys(cfg.Keys.Dir)
		if kerr != nil {
			logger.Log("ERROR", "Ошибка загрузки ключей подписи", "error", kerr.Error())
			fmt.Printf("[WARN] Сертификат не выпущен: %v\n", kerr)
		} else {
			issuer := certify.NewIssuer(keys, cfg.Certificates.Dir, cfg.Certificates.PDF, logger)
			result, ierr := issuer.Issue(session, info)
			if ierr != nil {
				logger.Log("ERROR", "Ошибка выпуска сертификата", "error", ierr.Error())
				fmt.Printf("[WARN] Сертификат не выпущен: %v\n", ierr)
			} else {
				fmt.Printf("Сертификат: %s (подписан: %t)\n", result.JSONPath, result.Record.DigitalSignature.Signed)
			}
		}
	}

	switch session.Status {
	case wipe.StatusCompleted:
		if session.Warning != "" {
			os.Exit(EXIT_WARNING)
		}
		return nil
	case wipe.StatusCancelled:
		os.Exit(EXIT_WARNING)
	default:
		if err != nil {
			return err
		}
		return fmt.Errorf("сессия завершилась со статусом %s", session.Status)
	}
	return nil
}

func printSessionSummary(session *wipe.Session) {
	fmt.Println()
	fmt.Printf("Сессия:    %s\n", session.ID)
	fmt.Printf("Статус:    %s\n", session.Status)
	fmt.Printf("Метод:     %s", session.Method)
	if session.FallbackUsed {
		fmt.Printf(" (fallback: %s)", session.MethodUsed)
	}
	fmt.Println()
	fmt.Printf("Проходов:  %d\n", session.Passes)
	fmt.Printf("Записано:  %d байт\n", session.BytesWritten)
	fmt.Printf("Время:     %s\n", session.Duration())
	if session.Warning != "" {
		fmt.Printf("Внимание:  %s\n", session.Warning)
	}
	if session.ErrorMessage != "" {
		fmt.Printf("Ошибка:    %s\n", session.ErrorMessage)
	}
}

func runInfo(cmd *cobra.Command, args []string) error {
	if err := setup(); err != nil {
		return err
	}
	defer logger.Close()

	info, err := device.Probe(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Путь:      %s\n", info.Path)
	fmt.Printf("Тип цели:  %s\n", info.Kind)
	fmt.Printf("Носитель:  %s\n", info.MediaKind)
	fmt.Printf("Размер:    %d байт\n", info.SizeBytes)
	if info.Kind == device.KindDevice {
		fmt.Printf("Rotational: %t\n", info.Rotational)
	}
	if info.Model != "" {
		fmt.Printf("Модель:    %s\n", info.Model)
	}
	if info.Serial != "" {
		fmt.Printf("Серийный:  %s\n", info.Serial)
	}
	return nil
}

func runMethods(cmd *cobra.Command, args []string) error {
	fmt.Println("Поддерживаемые методы затирания:")
	for _, m := range wipe.Methods() {
		fmt.Printf("  %-15s %s\n", m, methodDescription(m))
	}
	return nil
}

func methodDescription(m wipe.Method) string {
	switch m {
	case wipe.MethodSinglePass:
		return "1 проход нулями"
	case wipe.MethodThreePass:
		return "3 прохода: нули, 0xFF, случайные данные"
	case wipe.MethodDoD522022M:
		return "DoD 5220.22-M, 3 прохода"
	case wipe.MethodNIST80088:
		return "NIST SP 800-88: clear + verify + purge"
	case wipe.MethodGutmann:
		return "Gutmann, 35 проходов"
	case wipe.MethodCryptoErase:
		return "аппаратное криптостирание"
	case wipe.MethodAtaSanitize:
		return "ATA secure erase (hdparm)"
	case wipe.MethodNvmeFormat:
		return "NVMe format с secure erase (nvme-cli)"
	}
	return ""
}

func runKeysInit(cmd *cobra.Command, args []string) error {
	if err := setup(); err != nil {
		return err
	}
	defer logger.Close()

	keys, err := certify.LoadOrCreateKeys(cfg.Keys.Dir)
	if err != nil {
		return err
	}

	logger.Log("INFO", "Ключи подписи готовы", "dir", keys.Dir(), "fingerprint", keys.Fingerprint())
	fmt.Printf("Каталог ключей: %s\n", keys.Dir())
	fmt.Printf("Отпечаток:      %s\n", keys.Fingerprint())
	return nil
}

func runKeysShow(cmd *cobra.Command, args []string) error {
	if err := setup(); err != nil {
		return err
	}
	defer logger.Close()

	if _, err := os.Stat(filepath.Join(cfg.Keys.Dir, "private.pem")); err != nil {
		return fmt.Errorf("ключи не инициализированы, выполните: zerotrace keys init")
	}

	keys, err := certify.LoadOrCreateKeys(cfg.Keys.Dir)
	if err != nil {
		return err
	}

	fmt.Printf("Каталог ключей: %s\n", keys.Dir())
	fmt.Printf("Отпечаток:      %s\n", keys.Fingerprint())
	fmt.Printf("CA:             %s\n", filepath.Join(keys.Dir(), "certificate.pem"))
	return nil
}

func runVerifyCert(cmd *cobra.Command, args []string) error {
	if err := setup(); err != nil {
		return err
	}
	defer logger.Close()

	certPath := args[0]

	keyPath, _ := cmd.Flags().GetString("key")
	if keyPath == "" {
		keyPath = filepath.Join(cfg.Keys.Dir, "public.pem")
	}

	sigPath, _ := cmd.Flags().GetString("sig")
	if sigPath == "" {
		sigPath = strings.TrimSuffix(certPath, filepath.Ext(certPath)) + ".sig"
	}

	record, err := certify.VerifyFiles(keyPath, certPath, sigPath)
	if err != nil {
		fmt.Printf("НЕВАЛИДНО: %v\n", err)
		os.Exit(EXIT_ERROR)
	}

	fmt.Println("ВАЛИДНО: подпись сертификата подтверждена")
	fmt.Printf("Сертификат: %s\n", record.Certificate.ID)
	fmt.Printf("Цель:       %s\n", record.Device.Path)
	fmt.Printf("Метод:      %s\n", record.WipeOperation.MethodUsed)
	fmt.Printf("Статус:     %s\n", record.WipeOperation.Status)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, wipe.ErrMissingForceConfirmation) {
			fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
			os.Exit(EXIT_ERROR)
		}
		os.Exit(EXIT_ERROR)
	}
}
