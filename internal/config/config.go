package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Raster   RasterConfig   `yaml:"raster"`
	Fallback FallbackConfig `yaml:"fallback"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type AuthConfig struct {
	// Bcrypt hash of the operator password. Empty disables auth entirely,
	// which is only sensible when the agent listens on loopback.
	PasswordHash string `yaml:"password_hash"`
	JWTSecret    string `yaml:"jwt_secret"`
}

type DatabaseConfig struct {
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

type RasterConfig struct {
	// Target box in pixels for page rasterization. The defaults are A4 at
	// 300 DPI; label-sized pages scale down to fit.
	TargetWidth  int `yaml:"target_width"`
	TargetHeight int `yaml:"target_height"`

	// Path to the pdftoppm executable. Empty means look it up on PATH.
	BackendPath string `yaml:"backend_path"`
}

type FallbackConfig struct {
	Candidates []FallbackCandidate `yaml:"candidates"`
}

// FallbackCandidate describes one external viewer that can hand a PDF to a
// printer when no rasterization backend is available. Args supports the
// placeholders {{printer}} and {{file}}.
type FallbackCandidate struct {
	Path         string        `yaml:"path"`
	Args         []string      `yaml:"args"`
	WaitForSpool time.Duration `yaml:"wait_for_spool"`
}

type WebhookConfig struct {
	URL        string        `yaml:"url"`
	Secret     string        `yaml:"secret"`
	Timeout    time.Duration `yaml:"timeout"`
	RetryCount int           `yaml:"retry_count"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8631,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
		Database: DatabaseConfig{
			Path:          "./data/agent.db",
			RetentionDays: 30,
		},
		Raster: RasterConfig{
			TargetWidth:  2480,
			TargetHeight: 3508,
		},
		Fallback: FallbackConfig{
			Candidates: defaultFallbackCandidates(),
		},
		Webhook: WebhookConfig{
			Timeout:    10 * time.Second,
			RetryCount: 3,
			RetryDelay: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// defaultFallbackCandidates lists the well-known viewer installations tried
// when the rasterization backend is missing. Silent-capable viewers come
// first; interactive viewers that need a spool wait come last.
func defaultFallbackCandidates() []FallbackCandidate {
	var candidates []FallbackCandidate

	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, FallbackCandidate{
			Path: filepath.Join(filepath.Dir(exe), "SumatraPDF.exe"),
			Args: []string{"-print-to", "{{printer}}", "-silent", "{{file}}"},
		})
	}

	if local := os.Getenv("LOCALAPPDATA"); local != "" {
		candidates = append(candidates, FallbackCandidate{
			Path: filepath.Join(local, "SumatraPDF", "SumatraPDF.exe"),
			Args: []string{"-print-to", "{{printer}}", "-silent", "{{file}}"},
		})
	}

	candidates = append(candidates,
		FallbackCandidate{
			Path:         `C:\Program Files\Adobe\Acrobat DC\Acrobat\Acrobat.exe`,
			Args:         []string{"/t", "{{file}}", "{{printer}}"},
			WaitForSpool: 15 * time.Second,
		},
		FallbackCandidate{
			Path:         `C:\Program Files (x86)\Adobe\Acrobat Reader DC\Reader\AcroRd32.exe`,
			Args:         []string{"/t", "{{file}}", "{{printer}}"},
			WaitForSpool: 15 * time.Second,
		},
	)

	return candidates
}

func Load(configPath string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

func (c *Config) ApplyEnv() {
	if v := os.Getenv("AGENT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}

	if v := os.Getenv("AGENT_DB_PATH"); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv("AGENT_RASTER_BACKEND"); v != "" {
		c.Raster.BackendPath = v
	}

	if v := os.Getenv("AGENT_WEBHOOK_URL"); v != "" {
		c.Webhook.URL = v
	}

	if v := os.Getenv("AGENT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server read timeout must be non-negative")
	}

	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server write timeout must be non-negative")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Database.RetentionDays < 0 {
		return fmt.Errorf("retention days must be non-negative")
	}

	if c.Raster.TargetWidth < 1 || c.Raster.TargetHeight < 1 {
		return fmt.Errorf("raster target box must be at least 1x1, got %dx%d",
			c.Raster.TargetWidth, c.Raster.TargetHeight)
	}

	for i, cand := range c.Fallback.Candidates {
		if cand.Path == "" {
			return fmt.Errorf("fallback candidate %d has no path", i)
		}
		if cand.WaitForSpool < 0 {
			return fmt.Errorf("fallback candidate %d has a negative spool wait", i)
		}
	}

	if c.Webhook.URL != "" && c.Webhook.Secret == "" {
		return fmt.Errorf("webhook secret is required when a webhook URL is set")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (valid: json, console)", c.Logging.Format)
	}

	return nil
}
