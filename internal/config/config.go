// Package config loads langly's settings from defaults, an optional config
// file, a .env file and LANGLY_* environment variables, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/langlyai/langly/internal/lessons"
	"github.com/langlyai/langly/internal/llm"
	"github.com/langlyai/langly/internal/logger"
)

// EnvPrefix prefixes every environment variable langly reads.
const EnvPrefix = "LANGLY"

// Config holds all configuration for the application.
type Config struct {
	// DB is the SQLite database path. Empty means the default data dir.
	DB      string        `mapstructure:"db"`
	Log     LogConfig     `mapstructure:"log"`
	LLM     llm.Config    `mapstructure:"llm"`
	Lessons LessonsConfig `mapstructure:"lessons"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Mode     string `mapstructure:"mode"`
	Level    string `mapstructure:"level"`
	Redact   bool   `mapstructure:"redact"`
	HashSalt string `mapstructure:"hash_salt"`
}

// LessonsConfig holds lesson generation configuration.
type LessonsConfig struct {
	PromptVersion          int     `mapstructure:"prompt_version"`
	MaxTokens              int     `mapstructure:"max_tokens"`
	Temperature            float64 `mapstructure:"temperature"`
	AllowPlaceholderTitles bool    `mapstructure:"allow_placeholder_titles"`

	// CatalogFile replaces the built-in lesson catalog when set.
	CatalogFile string `mapstructure:"catalog_file"`
}

// Options converts the log settings for logger.New.
func (c LogConfig) Options() logger.Options {
	return logger.Options{Mode: c.Mode, Level: c.Level, Redact: c.Redact, HashSalt: c.HashSalt}
}

// Service converts the lesson settings for lessons.NewService.
func (c LessonsConfig) Service() lessons.Config {
	return lessons.Config{
		PromptVersion:          c.PromptVersion,
		MaxTokens:              c.MaxTokens,
		Temperature:            c.Temperature,
		AllowPlaceholderTitles: c.AllowPlaceholderTitles,
	}
}

// providerKeys lists the API key settings with the vendor env var accepted
// as a fallback, in discovery order.
var providerKeys = []struct {
	provider string
	env      string
}{
	{"openai", "OPENAI_API_KEY"},
	{"gemini", "GEMINI_API_KEY"},
	{"anthropic", "ANTHROPIC_API_KEY"},
	{"openrouter", "OPENROUTER_API_KEY"},
}

// Load reads configuration. path names a config file (yaml, toml or json);
// when empty, langly.yaml is looked up in the working directory and in
// $XDG_CONFIG_HOME/langly, and a missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("langly")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "langly"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = discoverProvider(cfg.LLM)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db", "")

	v.SetDefault("log.mode", "dev")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.redact", true)
	v.SetDefault("log.hash_salt", "")

	d := llm.DefaultConfig()
	v.SetDefault("llm.anthropic.model", d.Anthropic.Model)
	v.SetDefault("llm.openai.model", d.OpenAI.Model)
	v.SetDefault("llm.openai.base_url", d.OpenAI.BaseURL)
	v.SetDefault("llm.gemini.model", d.Gemini.Model)
	v.SetDefault("llm.openrouter.model", d.OpenRouter.Model)
	v.SetDefault("llm.openrouter.base_url", d.OpenRouter.BaseURL)
	v.SetDefault("llm.retry.max_attempts", d.Retry.MaxAttempts)
	v.SetDefault("llm.retry.initial_wait", d.Retry.InitialWait)
	v.SetDefault("llm.retry.max_wait", d.Retry.MaxWait)
	v.SetDefault("llm.retry.multiplier", d.Retry.Multiplier)
	v.SetDefault("llm.timeout", d.Timeout)

	l := lessons.DefaultConfig()
	v.SetDefault("lessons.prompt_version", l.PromptVersion)
	v.SetDefault("lessons.max_tokens", l.MaxTokens)
	v.SetDefault("lessons.temperature", l.Temperature)
	v.SetDefault("lessons.allow_placeholder_titles", l.AllowPlaceholderTitles)
	v.SetDefault("lessons.catalog_file", "")
}

// bindEnv registers keys that have no default, plus short aliases and the
// vendors' own API key variables.
func bindEnv(v *viper.Viper) error {
	binds := [][]string{
		{"db", EnvPrefix + "_DB"},
		{"llm.provider", EnvPrefix + "_LLM_PROVIDER", EnvPrefix + "_PROVIDER"},
	}
	for _, pk := range providerKeys {
		key := "llm." + pk.provider + ".api_key"
		binds = append(binds, []string{key, EnvPrefix + "_" + pk.env, pk.env})
	}
	for _, b := range binds {
		if err := v.BindEnv(b...); err != nil {
			return fmt.Errorf("bind env %s: %w", b[0], err)
		}
	}
	return nil
}

// discoverProvider picks the first provider with an API key, or the
// default provider when none has one.
func discoverProvider(c llm.Config) string {
	keys := map[string]string{
		"openai":     c.OpenAI.APIKey,
		"gemini":     c.Gemini.APIKey,
		"anthropic":  c.Anthropic.APIKey,
		"openrouter": c.OpenRouter.APIKey,
	}
	for _, pk := range providerKeys {
		if keys[pk.provider] != "" {
			return pk.provider
		}
	}
	return llm.DefaultConfig().Provider
}
