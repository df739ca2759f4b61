package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/bnema/bilibackup/internal/domain"
)

const (
	DirEnv   = "BBK_CONFIG_DIR"
	fileName = "config"
	fileType = "toml"

	keyBaseURL       = "api.base_url"
	keyConcurrency   = "transport.concurrency"
	keyMaxAttempts   = "transport.max_attempts"
	keyRetryInterval = "transport.retry_interval"
	keyDelayMin      = "transport.delay_min"
	keyDelayMax      = "transport.delay_max"
	keyTimeout       = "transport.timeout"

	keySecretsBackend = "secrets.backend"

	SecretsFile = "file"
	SecretsPass = "pass"
)

// Transport is the resolved API client configuration: config.toml values
// first, then BBK_* environment variables on top.
type Transport struct {
	BaseURL       string        `env:"BBK_API_BASE_URL"`
	Concurrency   int           `env:"BBK_CONCURRENCY"`
	MaxAttempts   int           `env:"BBK_MAX_ATTEMPTS"`
	RetryInterval time.Duration `env:"BBK_RETRY_INTERVAL"`
	DelayMin      time.Duration `env:"BBK_DELAY_MIN"`
	DelayMax      time.Duration `env:"BBK_DELAY_MAX"`
	Timeout       time.Duration `env:"BBK_TIMEOUT"`
}

func (t Transport) Delay() domain.DelayRange {
	return domain.DelayRange{Min: t.DelayMin, Max: t.DelayMax}
}

func (t Transport) Validate() error {
	if t.Concurrency < 1 {
		return domain.ParamError("concurrency must be at least 1, got %d", t.Concurrency)
	}
	if t.MaxAttempts < 1 {
		return domain.ParamError("max attempts must be at least 1, got %d", t.MaxAttempts)
	}
	if t.RetryInterval < 0 || t.Timeout < 0 {
		return domain.ParamError("retry interval and timeout must not be negative")
	}
	return t.Delay().Validate()
}

// Dir returns $BBK_CONFIG_DIR or ~/.config/bbk.
func Dir() (string, error) {
	if dir := os.Getenv(DirEnv); dir != "" {
		return filepath.Clean(dir), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "bbk"), nil
}

// Load reads <dir>/config.toml into v when present and resolves the transport
// settings. A missing config file is not an error.
func Load(v *viper.Viper, dir string, defaults Transport) (Transport, error) {
	v.SetConfigName(fileName)
	v.SetConfigType(fileType)
	v.AddConfigPath(dir)

	v.SetDefault(keyBaseURL, defaults.BaseURL)
	v.SetDefault(keyConcurrency, defaults.Concurrency)
	v.SetDefault(keyMaxAttempts, defaults.MaxAttempts)
	v.SetDefault(keyRetryInterval, defaults.RetryInterval)
	v.SetDefault(keyDelayMin, defaults.DelayMin)
	v.SetDefault(keyDelayMax, defaults.DelayMax)
	v.SetDefault(keyTimeout, defaults.Timeout)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Transport{}, fmt.Errorf("read config file: %w", err)
		}
	}

	settings := Transport{
		BaseURL:       v.GetString(keyBaseURL),
		Concurrency:   v.GetInt(keyConcurrency),
		MaxAttempts:   v.GetInt(keyMaxAttempts),
		RetryInterval: v.GetDuration(keyRetryInterval),
		DelayMin:      v.GetDuration(keyDelayMin),
		DelayMax:      v.GetDuration(keyDelayMax),
		Timeout:       v.GetDuration(keyTimeout),
	}
	if err := ParseEnv(&settings); err != nil {
		return Transport{}, err
	}
	if err := settings.Validate(); err != nil {
		return Transport{}, fmt.Errorf("invalid transport config: %w", err)
	}

	return settings, nil
}

// Secrets selects where session cookies are stored: "file" keeps them under
// the config directory, "pass" uses pass(1) with the file store as fallback.
type Secrets struct {
	Backend string `env:"BBK_SECRETS_BACKEND"`
}

// LoadSecrets resolves the secret backend from v, which Load must have read.
func LoadSecrets(v *viper.Viper) (Secrets, error) {
	v.SetDefault(keySecretsBackend, SecretsFile)

	settings := Secrets{Backend: v.GetString(keySecretsBackend)}
	if err := ParseEnv(&settings); err != nil {
		return Secrets{}, err
	}
	switch settings.Backend {
	case SecretsFile, SecretsPass:
		return settings, nil
	default:
		return Secrets{}, domain.ParamError("unknown secrets backend %q (want %s or %s)", settings.Backend, SecretsFile, SecretsPass)
	}
}
