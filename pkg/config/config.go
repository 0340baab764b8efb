package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	envConfigPath        = "PHOTOSCRIBE_CONFIG"
	envTelegramBotToken  = "TELEGRAM_BOT_TOKEN"
	envTelegramAllowFrom = "TELEGRAM_ALLOW_FROM"
	envSambaNovaAPIKey   = "SAMBANOVA_API_KEY"
	envSambaNovaBaseURL  = "SAMBANOVA_BASE_URL"
	envSambaNovaModel    = "SAMBANOVA_MODEL"
	envStagingDir        = "PHOTOSCRIBE_STAGING_DIR"
)

const (
	DefaultInferenceBaseURL = "https://api.sambanova.ai/v1"
	DefaultInferenceModel   = "Llama-4-Maverick-17B-128E-Instruct"
	defaultStagingDirName   = "photoscribe"
)

// Config is the root runtime configuration.
type Config struct {
	Telegram  TelegramConfig  `json:"telegram" yaml:"telegram"`
	Inference InferenceConfig `json:"inference" yaml:"inference"`
	Staging   StagingConfig   `json:"staging" yaml:"staging"`
	Logging   LoggingConfig   `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty" yaml:"format,omitempty"`
	Level     string `json:"level,omitempty" yaml:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty" yaml:"add_source,omitempty"`
}

// TelegramConfig configures the Telegram bot connection.
type TelegramConfig struct {
	Token     string   `json:"token" yaml:"token"`
	AllowFrom []string `json:"allow_from" yaml:"allow_from"`
}

// InferenceConfig configures the hosted multimodal model endpoint.
type InferenceConfig struct {
	APIKey                string  `json:"api_key" yaml:"api_key"`
	BaseURL               string  `json:"base_url" yaml:"base_url"`
	Model                 string  `json:"model" yaml:"model"`
	MaxTokens             int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	Temperature           float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	RequestTimeoutSeconds int     `json:"request_timeout_seconds,omitempty" yaml:"request_timeout_seconds,omitempty"`
}

// StagingConfig controls where inbound photos are written while they are described.
type StagingConfig struct {
	Dir string `json:"dir" yaml:"dir"`
}

// LoadConfig resolves the config file (if any), applies .env and environment
// overrides, and fills defaults. It does not validate credentials.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("")
}

// LoadConfigFrom behaves like LoadConfig but prefers an explicit path.
func LoadConfigFrom(path string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load(".env")

	configPath, err := findConfigPath(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if configPath != "" {
		if err := decodeFile(configPath, &cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

// Validate reports the first missing required setting.
func (c *Config) Validate() error {
	if c == nil {
		return NewConfigError("config", "is required")
	}
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return NewConfigError(envTelegramBotToken, "telegram bot token is required")
	}
	if strings.TrimSpace(c.Inference.APIKey) == "" {
		return NewConfigError(envSambaNovaAPIKey, "inference api key is required")
	}
	if c.Inference.RequestTimeoutSeconds < 0 {
		return NewConfigError("inference.request_timeout_seconds", "must not be negative")
	}

	return nil
}

func decodeFile(path string, cfg *Config) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return fmt.Errorf("parse config file: %w", err)
		}
	default:
		if err := json.Unmarshal(content, cfg); err != nil {
			return fmt.Errorf("parse config file: %w", err)
		}
	}

	return nil
}

// applyEnvOverrides injects selected env-driven settings on top of file config.
func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if token := strings.TrimSpace(os.Getenv(envTelegramBotToken)); token != "" {
		cfg.Telegram.Token = token
	}
	if rawAllowFrom := strings.TrimSpace(os.Getenv(envTelegramAllowFrom)); rawAllowFrom != "" {
		cfg.Telegram.AllowFrom = parseCSV(rawAllowFrom)
	}
	if apiKey := strings.TrimSpace(os.Getenv(envSambaNovaAPIKey)); apiKey != "" {
		cfg.Inference.APIKey = apiKey
	}
	if baseURL := strings.TrimSpace(os.Getenv(envSambaNovaBaseURL)); baseURL != "" {
		cfg.Inference.BaseURL = baseURL
	}
	if model := strings.TrimSpace(os.Getenv(envSambaNovaModel)); model != "" {
		cfg.Inference.Model = model
	}
	if dir := strings.TrimSpace(os.Getenv(envStagingDir)); dir != "" {
		cfg.Staging.Dir = dir
	}
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Inference.BaseURL) == "" {
		cfg.Inference.BaseURL = DefaultInferenceBaseURL
	}
	if strings.TrimSpace(cfg.Inference.Model) == "" {
		cfg.Inference.Model = DefaultInferenceModel
	}
	if strings.TrimSpace(cfg.Staging.Dir) == "" {
		cfg.Staging.Dir = filepath.Join(os.TempDir(), defaultStagingDirName)
	}
}

// parseCSV splits comma-separated values and returns a trimmed compact slice.
func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}

	return slices.Clip(clean)
}

// findConfigPath resolves the active config file location.
//
// Precedence is the explicit path, then PHOTOSCRIBE_CONFIG, then cwd-local
// fallback paths. An empty result with no error means no file is in use.
func findConfigPath(explicit string) (string, error) {
	if value := strings.TrimSpace(explicit); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("config path does not point to a file: %s", value)
	}

	if value := strings.TrimSpace(os.Getenv(envConfigPath)); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("%s does not point to a file: %s", envConfigPath, value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "config.json"),
		filepath.Join(cwd, "config.yaml"),
		filepath.Join(cwd, "config", "config.json"),
		filepath.Join(cwd, "config", "config.yaml"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", nil
}
