package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultCredentialEnv is the environment variable the API key is read from.
	DefaultCredentialEnv = "GOOGLE_CLOUD_API_KEY"

	configPathEnv = "STUDIO_CONFIG"
)

// Config represents the application configuration
type Config struct {
	Backend             string `json:"backend" validate:"oneof=vertex gemini"`
	Model               string `json:"model" validate:"required"`
	CredentialEnv       string `json:"credential_env" validate:"required"`
	LogLevel            string `json:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	LogFile             string `json:"log_file"`
	LogFormat           string `json:"log_format" validate:"omitempty,oneof=auto json text"`
	PingIntervalSeconds int    `json:"ping_interval_seconds" validate:"gte=0"`
}

// Default returns a configuration with default values
func Default() Config {
	return Config{
		Backend:             "vertex",
		Model:               "gemini-3-pro-preview",
		CredentialEnv:       DefaultCredentialEnv,
		LogLevel:            "warn",
		LogFile:             "",
		LogFormat:           "auto",
		PingIntervalSeconds: 15,
	}
}

// Load reads configuration from configPath and applies environment overrides.
// A missing file yields the defaults; the file is never created.
func Load(configPath string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg = applyEnvironmentOverrides(cfg)
	return cfg, nil
}

func applyEnvironmentOverrides(cfg Config) Config {
	if backend := strings.TrimSpace(os.Getenv("STUDIO_BACKEND")); backend != "" {
		cfg.Backend = strings.ToLower(backend)
	}
	if model := strings.TrimSpace(os.Getenv("STUDIO_MODEL")); model != "" {
		cfg.Model = model
	}
	if name := strings.TrimSpace(os.Getenv("STUDIO_CREDENTIAL_ENV")); name != "" {
		cfg.CredentialEnv = name
	}
	if level := strings.TrimSpace(os.Getenv("STUDIO_LOG_LEVEL")); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}
	if file := strings.TrimSpace(os.Getenv("STUDIO_LOG_FILE")); file != "" {
		cfg.LogFile = file
	}
	if format := strings.TrimSpace(os.Getenv("STUDIO_LOG_FORMAT")); format != "" {
		cfg.LogFormat = strings.ToLower(format)
	}
	// Unparseable or negative values are ignored.
	if interval := os.Getenv("STUDIO_PING_INTERVAL"); interval != "" {
		if seconds, err := strconv.Atoi(interval); err == nil && seconds >= 0 {
			cfg.PingIntervalSeconds = seconds
		}
	}
	return cfg
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s: %q fails %q", fe.Field(), fmt.Sprint(fe.Value()), fe.ActualTag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// GetConfigPath returns the configuration file path, honouring STUDIO_CONFIG.
func GetConfigPath() string {
	if p := strings.TrimSpace(os.Getenv(configPathEnv)); p != "" {
		return p
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".studio", "config.json")
	}
	return filepath.Join(homeDir, ".studio", "config.json")
}
