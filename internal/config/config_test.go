package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty directory with no langly variables set.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	for _, k := range []string{
		"LANGLY_DB", "LANGLY_PROVIDER", "LANGLY_LLM_PROVIDER", "LANGLY_LOG_LEVEL",
		"LANGLY_LESSONS_PROMPT_VERSION", "LANGLY_LLM_TIMEOUT",
		"LANGLY_OPENAI_API_KEY", "OPENAI_API_KEY",
		"LANGLY_GEMINI_API_KEY", "GEMINI_API_KEY",
		"LANGLY_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY",
		"LANGLY_OPENROUTER_API_KEY", "OPENROUTER_API_KEY",
	} {
		t.Setenv(k, "")
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "", cfg.DB)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.OpenAI.Model)
	assert.Equal(t, "claude-sonnet", cfg.LLM.Anthropic.Model)
	assert.Equal(t, 1, cfg.LLM.Retry.MaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.LLM.Timeout)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Log.Redact)

	svc := cfg.Lessons.Service()
	assert.Equal(t, 2, svc.PromptVersion)
	assert.Equal(t, 3500, svc.MaxTokens)
	assert.InDelta(t, 0.25, svc.Temperature, 1e-9)
	assert.True(t, svc.AllowPlaceholderTitles)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("LANGLY_DB", "/tmp/langly-test.db")
	t.Setenv("LANGLY_LLM_PROVIDER", "gemini")
	t.Setenv("LANGLY_GEMINI_API_KEY", "g-key")
	t.Setenv("LANGLY_LESSONS_PROMPT_VERSION", "3")
	t.Setenv("LANGLY_LLM_TIMEOUT", "30s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/langly-test.db", cfg.DB)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "g-key", cfg.LLM.Gemini.APIKey)
	assert.Equal(t, 3, cfg.Lessons.PromptVersion)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	require.NoError(t, cfg.LLM.Validate())
}

func TestLoad_DiscoversProviderFromVendorKey(t *testing.T) {
	isolate(t)
	t.Setenv("ANTHROPIC_API_KEY", "a-key")
	t.Setenv("OPENROUTER_API_KEY", "or-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "a-key", cfg.LLM.Anthropic.APIKey)
	assert.Equal(t, "or-key", cfg.LLM.OpenRouter.APIKey)
}

func TestLoad_PrefixedKeyWins(t *testing.T) {
	isolate(t)
	t.Setenv("LANGLY_OPENAI_API_KEY", "mine")
	t.Setenv("OPENAI_API_KEY", "shared")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "mine", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, "openai", cfg.LLM.Provider)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: mock
  retry:
    max_attempts: 3
    initial_wait: 250ms
log:
  level: debug
lessons:
  allow_placeholder_titles: false
  catalog_file: ./catalog.yaml
`), 0o644))
	t.Setenv("LANGLY_LOG_LEVEL", "error")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, 3, cfg.LLM.Retry.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.LLM.Retry.InitialWait)
	assert.Equal(t, 10*time.Second, cfg.LLM.Retry.MaxWait)
	assert.False(t, cfg.Lessons.AllowPlaceholderTitles)
	assert.Equal(t, "./catalog.yaml", cfg.Lessons.CatalogFile)
	assert.Equal(t, "error", cfg.Log.Level, "env should override the file")
}

func TestLoad_DiscoveredConfigFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "langly.yaml"), []byte("llm:\n  provider: mock\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.LLM.Provider)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	const key = "LANGLY_LESSONS_MAX_TOKENS"
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() { os.Unsetenv(key) })
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(key+"=4096\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4096, cfg.Lessons.MaxTokens)
}

func TestLogConfig_Options(t *testing.T) {
	opts := LogConfig{Mode: "prod", Level: "info", Redact: true, HashSalt: "s"}.Options()
	assert.Equal(t, "prod", opts.Mode)
	assert.Equal(t, "info", opts.Level)
	assert.True(t, opts.Redact)
	assert.Equal(t, "s", opts.HashSalt)
}
