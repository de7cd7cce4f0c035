// Package config loads the service configuration from file and environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"medtech_outlook_agent/generator"
)

// EnvPrefix namespaces environment overrides, e.g. OUTLOOK_GEMINI_API_KEY.
const EnvPrefix = "OUTLOOK"

type Config struct {
	ServerAddr     string         `mapstructure:"server_addr"`
	DefaultModel   string         `mapstructure:"default_model"`
	KeywordModel   string         `mapstructure:"keyword_model"`
	RequestTimeout time.Duration  `mapstructure:"request_timeout"`
	Mock           bool           `mapstructure:"mock"` // offline MockLLM instead of real providers
	Document       DocumentConfig `mapstructure:"document"`
	Gemini         ProviderConfig `mapstructure:"gemini"`
	OpenAI         ProviderConfig `mapstructure:"openai"`
	Log            LogConfig      `mapstructure:"log"`
}

type DocumentConfig struct {
	Path  string `mapstructure:"path"`  // empty: built-in outlook article
	Watch bool   `mapstructure:"watch"` // reload on file change
}

// ProviderConfig holds one model provider's credentials. APIKey wins over
// APIKeyEnv when both are set.
type ProviderConfig struct {
	APIKey    string `mapstructure:"api_key"`
	APIKeyEnv string `mapstructure:"api_key_env"`
	BaseURL   string `mapstructure:"base_url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// ResolveAPIKey returns the configured key, falling back to the variable
// named by APIKeyEnv. An empty result means the provider is not configured.
func (p ProviderConfig) ResolveAPIKey(getenv func(string) string) string {
	if key := strings.TrimSpace(p.APIKey); key != "" {
		return key
	}
	if p.APIKeyEnv == "" || getenv == nil {
		return ""
	}
	return strings.TrimSpace(getenv(p.APIKeyEnv))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("default_model", string(generator.DefaultModel))
	v.SetDefault("keyword_model", string(generator.DefaultModel))
	v.SetDefault("request_timeout", "60s")
	v.SetDefault("mock", false)

	v.SetDefault("document.path", "")
	v.SetDefault("document.watch", false)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.api_key_env", "API_KEY")
	v.SetDefault("gemini.base_url", "")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.api_key_env", "OPENAI_API_KEY")
	v.SetDefault("openai.base_url", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// LoadConfig reads path (JSON, YAML or TOML by extension) over the defaults.
// A missing file is not an error; the defaults and environment apply.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := generator.ParseModel(c.DefaultModel); err != nil {
		return fmt.Errorf("default_model: %w", err)
	}
	if _, err := generator.ParseModel(c.KeywordModel); err != nil {
		return fmt.Errorf("keyword_model: %w", err)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}
