package logger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize_RedactsSecrets(t *testing.T) {
	l := &Logger{redact: true, salt: "pepper"}

	out := l.sanitize([]any{"api_key", "sk-live-123", "level", "A1", "user_id", "u-42"})
	require.Len(t, out, 6)

	assert.Equal(t, "[REDACTED]", out[1])
	assert.Equal(t, "A1", out[3])

	hashed, ok := out[5].(string)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(hashed, "hash:"))
	assert.NotContains(t, hashed, "u-42")
}

func TestSanitize_Disabled(t *testing.T) {
	l := &Logger{}
	in := []any{"api_key", "sk-live-123"}
	assert.Equal(t, in, l.sanitize(in))
}

func TestSanitize_OddPairs(t *testing.T) {
	l := &Logger{redact: true}
	out := l.sanitize([]any{"token", "abc", "dangling"})
	assert.Equal(t, []any{"token", "[REDACTED]", "dangling"}, out)
}

func TestSanitize_NestedMap(t *testing.T) {
	l := &Logger{redact: true}
	out := l.sanitize([]any{"headers", map[string]any{"Authorization": "Bearer x", "Accept": "json"}})
	m := out[1].(map[string]any)
	assert.Equal(t, "[REDACTED]", m["Authorization"])
	assert.Equal(t, "json", m["Accept"])
}

func TestHashValue_Stable(t *testing.T) {
	a := hashValue("s", "learner-1")
	b := hashValue("s", "learner-1")
	c := hashValue("t", "learner-1")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "", hashValue("s", ""))
}

func TestNew_Levels(t *testing.T) {
	l, err := New(Options{Mode: "prod", Level: "debug"})
	require.NoError(t, err)
	l.Debug("ok", "k", "v")

	_, err = New(Options{Level: "loud"})
	require.Error(t, err)
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info("discarded", "k", 1)
	l.With("a", "b").Warn("also discarded")
}

func TestSanitize_TokenCountsStayVisible(t *testing.T) {
	l := &Logger{redact: true}
	out := l.sanitize([]any{"input_tokens", 120, "refresh_token", "r-1"})
	assert.Equal(t, 120, out[1])
	assert.Equal(t, "[REDACTED]", out[3])
}
