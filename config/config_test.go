package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"PORT", "DB_PATH", "LOG_LEVEL", "LOG_FORMAT", "LLM_API_KEY", "LLM_ENDPOINT", "LLM_MODEL",
	"LLM_TEMPERATURE", "EMB_MODEL", "EMB_DIMENSION", "GENERATION_TIMEOUT", "CONTEXT_NOTE_LIMIT",
	"CONTEXT_MAX_TOKENS", "QUIZ_QUESTION_COUNT", "EMBED_ASYNC", "ENABLE_DEV_LOGIN",
	"CHAT_ALLOW_ANONYMOUS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		// registers a restore, then makes the key truly absent so the env file can set it
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "notes.db", cfg.DBPath)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 0.7, cfg.LLM.Temperature)
	assert.Equal(t, 30*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, 5, cfg.ContextNoteLimit)
	assert.Equal(t, 6000, cfg.ContextMaxTokens)
	assert.Equal(t, 3, cfg.QuizQuestionCount)
	assert.True(t, cfg.EmbedAsync)
	assert.False(t, cfg.EnableDevLogin)
	assert.False(t, cfg.AnonymousChat)
	assert.False(t, cfg.HasLLM())
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("LLM_API_KEY=sk-test\nQUIZ_QUESTION_COUNT=4\n"), 0o600))
	t.Setenv("GENERATION_TIMEOUT", "45s")
	t.Setenv("EMBED_ASYNC", "false")
	t.Setenv("CONTEXT_NOTE_LIMIT", "not-a-number")

	cfg := Load(path)
	assert.True(t, cfg.HasLLM())
	assert.Equal(t, 4, cfg.QuizQuestionCount)
	assert.Equal(t, 45*time.Second, cfg.GenerationTimeout)
	assert.False(t, cfg.EmbedAsync)
	assert.Equal(t, 5, cfg.ContextNoteLimit)
}

func TestLoad_ZeroTemperature(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_TEMPERATURE", "0")

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Equal(t, 0.0, cfg.LLM.Temperature)
}
