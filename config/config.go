package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type AppConfig struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string

	LLM LLMConfig

	GenerationTimeout time.Duration
	ContextNoteLimit  int
	ContextMaxTokens  int
	QuizQuestionCount int
	EmbedAsync        bool
	EnableDevLogin    bool
	AnonymousChat     bool
}

// LLMConfig is the OpenAI-compatible provider used for chat, quizzes and embeddings.
type LLMConfig struct {
	APIKey             string
	Endpoint           string
	Model              string
	Temperature        float64
	EmbeddingModel     string
	EmbeddingDimension int
}

// Load reads envFile (default ".env") if present, then the environment.
// Malformed numbers and durations fall back to their defaults with a warning.
func Load(envFile string) AppConfig {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logrus.WithField("file", envFile).Debug("[cfg] no env file, using environment only")
		} else {
			logrus.WithError(err).WithField("file", envFile).Warn("[cfg] could not load env file")
		}
	}

	cfg := AppConfig{
		Port:      get("PORT", "8080"),
		DBPath:    get("DB_PATH", "notes.db"),
		LogLevel:  get("LOG_LEVEL", "info"),
		LogFormat: get("LOG_FORMAT", "json"),
		LLM: LLMConfig{
			APIKey:             get("LLM_API_KEY", ""),
			Endpoint:           get("LLM_ENDPOINT", ""),
			Model:              get("LLM_MODEL", "gpt-4o-mini"),
			Temperature:        getFloat("LLM_TEMPERATURE", 0.7),
			EmbeddingModel:     get("EMB_MODEL", "text-embedding-3-small"),
			EmbeddingDimension: getInt("EMB_DIMENSION", 0),
		},
		GenerationTimeout: getDuration("GENERATION_TIMEOUT", 30*time.Second),
		ContextNoteLimit:  getInt("CONTEXT_NOTE_LIMIT", 5),
		ContextMaxTokens:  getInt("CONTEXT_MAX_TOKENS", 6000),
		QuizQuestionCount: getInt("QUIZ_QUESTION_COUNT", 3),
		EmbedAsync:        getBool("EMBED_ASYNC", true),
		EnableDevLogin:    getBool("ENABLE_DEV_LOGIN", false),
		AnonymousChat:     getBool("CHAT_ALLOW_ANONYMOUS", false),
	}
	logrus.WithFields(logrus.Fields{
		"port":         cfg.Port,
		"db_path":      cfg.DBPath,
		"llm_model":    cfg.LLM.Model,
		"llm_endpoint": cfg.LLM.Endpoint,
		"llm_key_set":  cfg.LLM.APIKey != "",
		"dev_login":    cfg.EnableDevLogin,
	}).Debug("[cfg] loaded")
	return cfg
}

// HasLLM reports whether a real provider is configured; otherwise the offline mock is used.
func (c AppConfig) HasLLM() bool { return c.LLM.APIKey != "" }

func get(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	v := get(k, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		logrus.WithField("key", k).Warnf("[cfg] invalid integer %q, using %d", v, def)
		return def
	}
	return n
}

func getFloat(k string, def float64) float64 {
	v := get(k, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		logrus.WithField("key", k).Warnf("[cfg] invalid number %q, using %v", v, def)
		return def
	}
	return f
}

func getDuration(k string, def time.Duration) time.Duration {
	v := get(k, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		logrus.WithField("key", k).Warnf("[cfg] invalid duration %q, using %s", v, def)
		return def
	}
	return d
}

func getBool(k string, def bool) bool {
	v := get(k, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logrus.WithField("key", k).Warnf("[cfg] invalid boolean %q, using %t", v, def)
		return def
	}
	return b
}
