package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Enterprise конфигурация ZeroTrace
type Config struct {
	Security struct {
		RequireForce   bool     `yaml:"require_force"`
		ProtectedPaths []string `yaml:"protected_paths"`
	} `yaml:"security"`

	Wipe struct {
		DefaultMethod string  `yaml:"default_method"`
		ChunkSize     int64   `yaml:"chunk_size"`
		MaxSpeedMBps  float64 `yaml:"max_speed_mbps"`
		MaxConcurrent int     `yaml:"max_concurrent"`
		MaxDuration   string  `yaml:"max_duration"`
	} `yaml:"wipe"`

	Keys struct {
		Dir string `yaml:"dir"`
	} `yaml:"keys"`

	Certificates struct {
		Enabled bool   `yaml:"enabled"`
		Dir     string `yaml:"dir"`
		PDF     bool   `yaml:"pdf"`
	} `yaml:"certificates"`

	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`

	Reporting struct {
		Enabled   bool   `yaml:"enabled"`
		LocalPath string `yaml:"local_path"`
	} `yaml:"reporting"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	cfg := &Config{}

	cfg.Security.RequireForce = true
	cfg.Security.ProtectedPaths = []string{"/", "/boot", "/etc", "/usr"}

	cfg.Wipe.DefaultMethod = "single_pass"
	cfg.Wipe.ChunkSize = 16 * 1024 * 1024 // 16MB
	cfg.Wipe.MaxSpeedMBps = 0             // без ограничения
	cfg.Wipe.MaxConcurrent = 2
	cfg.Wipe.MaxDuration = ""

	cfg.Keys.Dir = "./keys"

	cfg.Certificates.Enabled = true
	cfg.Certificates.Dir = "./reports"
	cfg.Certificates.PDF = true

	cfg.Logging.Level = "INFO"
	cfg.Logging.File = ""

	cfg.Reporting.Enabled = true
	cfg.Reporting.LocalPath = "./reports"

	return cfg
}

// Load загружает конфигурацию из файла
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// Валидация конфигурации
	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate проверяет конфигурацию на валидность
func Validate(config *Config) error {
	// Проверяем chunk size
	if config.Wipe.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", config.Wipe.ChunkSize)
	}
	if config.Wipe.ChunkSize > 100*1024*1024 { // 100MB max
		return fmt.Errorf("chunk size too large (max 100MB), got %d", config.Wipe.ChunkSize)
	}

	// Проверяем concurrent operations
	if config.Wipe.MaxConcurrent <= 0 || config.Wipe.MaxConcurrent > 10 {
		return fmt.Errorf("max concurrent must be between 1 and 10, got %d", config.Wipe.MaxConcurrent)
	}

	// Проверяем speed
	if config.Wipe.MaxSpeedMBps < 0 {
		return fmt.Errorf("max speed cannot be negative, got %f", config.Wipe.MaxSpeedMBps)
	}
	if config.Wipe.MaxSpeedMBps > 10000 {
		return fmt.Errorf("max speed too high (max 10000MB/s), got %f", config.Wipe.MaxSpeedMBps)
	}

	// Проверяем duration
	if config.Wipe.MaxDuration != "" {
		if _, err := time.ParseDuration(config.Wipe.MaxDuration); err != nil {
			return fmt.Errorf("invalid max duration format: %s", config.Wipe.MaxDuration)
		}
	}

	// Валидация logging секции
	validLevels := map[string]bool{
		"DEBUG": true,
		"INFO":  true,
		"WARN":  true,
		"ERROR": true,
		"FATAL": true,
	}
	if !validLevels[config.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	if config.Keys.Dir == "" {
		return fmt.Errorf("keys dir cannot be empty")
	}

	// Валидация путей
	for _, path := range config.Security.ProtectedPaths {
		if path == "" {
			return fmt.Errorf("empty protected path")
		}
	}

	return nil
}

// Save сохраняет конфигурацию в файл
func Save(config *Config, path string) error {
	// Валидация перед сохранением
	if err := Validate(config); err != nil {
		return fmt.Errorf("cannot save invalid config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetMaxDuration возвращает максимальную длительность операции
func (config *Config) GetMaxDuration() time.Duration {
	if config.Wipe.MaxDuration == "" {
		return 0 // Без лимита
	}

	duration, err := time.ParseDuration(config.Wipe.MaxDuration)
	if err != nil {
		return 2 * time.Hour // Fallback
	}

	return duration
}

// IsProtectedPath проверяет, входит ли путь в список защищённых
func (config *Config) IsProtectedPath(path string) bool {
	clean := filepath.Clean(path)
	for _, protected := range config.Security.ProtectedPaths {
		if clean == filepath.Clean(protected) {
			return true
		}
	}
	return false
}
