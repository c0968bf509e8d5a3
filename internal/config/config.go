// Package config loads service settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderFake   = "fake"

	DefaultModel = "gemini-2.0-flash"
)

type Config struct {
	Port string
	Env  string

	LLM      LLMConfig
	Run      RunConfig
	Database DatabaseConfig
	Archive  ArchiveConfig
}

type LLMConfig struct {
	Provider string
	APIKey   string

	WriterModel     string
	ValidatorModel  string
	SummarizerModel string
	ClassifierModel string

	// RPS <= 0 disables client side rate limiting.
	RPS          float64
	Burst        int
	MaxRetries   int
	RetryBaseDur time.Duration
}

type RunConfig struct {
	MaxAttempts    int
	MinScore       float64
	Timeout        time.Duration
	LogInputLimit  int
	WorkerPoolSize int
}

type DatabaseConfig struct {
	URL              string
	PatternCacheSize int
}

type ArchiveConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether an archive endpoint is configured.
func (a ArchiveConfig) Enabled() bool {
	return a.Endpoint != ""
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv without touching .env files.
func FromEnv(getenv func(string) string) (*Config, error) {
	r := reader{getenv: getenv}

	port := firstNonEmpty(r.str("PORT"), "8080")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	env := firstNonEmpty(r.str("APP_ENV"), "local")

	cfg := &Config{
		Port: port,
		Env:  env,
		LLM: LLMConfig{
			Provider:        strings.ToLower(firstNonEmpty(r.str("LLM_PROVIDER"), ProviderGemini)),
			APIKey:          firstNonEmpty(r.str("GEMINI_API_KEY"), r.str("GOOGLE_API_KEY")),
			WriterModel:     firstNonEmpty(r.str("WRITER_MODEL"), DefaultModel),
			ValidatorModel:  firstNonEmpty(r.str("VALIDATOR_MODEL"), DefaultModel),
			SummarizerModel: firstNonEmpty(r.str("SUMMARIZER_MODEL"), DefaultModel),
			ClassifierModel: firstNonEmpty(r.str("CLASSIFIER_MODEL"), DefaultModel),
			RPS:             r.float("LLM_RPS", 0),
			Burst:           r.int("LLM_BURST", 1),
			MaxRetries:      r.int("LLM_MAX_RETRIES", 3),
			RetryBaseDur:    time.Duration(r.int("LLM_RETRY_BASE_MS", 1000)) * time.Millisecond,
		},
		Run: RunConfig{
			MaxAttempts:    r.int("MAX_ATTEMPTS", 5),
			MinScore:       r.float("MIN_SCORE", 8),
			Timeout:        r.duration("RUN_TIMEOUT", 5*time.Minute),
			LogInputLimit:  r.int("LOG_INPUT_LIMIT", 4000),
			WorkerPoolSize: r.int("RUN_CONCURRENCY", 4),
		},
		Database: DatabaseConfig{
			URL:              r.str("DATABASE_URL"),
			PatternCacheSize: r.int("PATTERN_CACHE_SIZE", 64),
		},
		Archive: ArchiveConfig{
			Endpoint:  r.str("ARCHIVE_S3_ENDPOINT"),
			Region:    firstNonEmpty(r.str("ARCHIVE_S3_REGION"), "us-east-1"),
			AccessKey: firstNonEmpty(r.str("ARCHIVE_S3_ACCESS_KEY"), r.str("MINIO_ROOT_USER")),
			SecretKey: firstNonEmpty(r.str("ARCHIVE_S3_SECRET_KEY"), r.str("MINIO_ROOT_PASSWORD")),
			Bucket:    firstNonEmpty(r.str("ARCHIVE_S3_BUCKET"), "scriptsmith-runs"),
			UseSSL:    r.bool("ARCHIVE_S3_USE_SSL", !strings.EqualFold(env, "local")),
		},
	}
	if r.err != nil {
		return nil, r.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLM.Provider {
	case ProviderGemini:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("config: GEMINI_API_KEY (or GOOGLE_API_KEY) is required for provider %q", ProviderGemini)
		}
	case ProviderFake:
	default:
		return fmt.Errorf("config: unknown LLM_PROVIDER %q", c.LLM.Provider)
	}
	if c.Run.MaxAttempts < 1 {
		return fmt.Errorf("config: MAX_ATTEMPTS must be at least 1")
	}
	if c.Run.MinScore < 0 || c.Run.MinScore > 10 {
		return fmt.Errorf("config: MIN_SCORE must be within [0, 10]")
	}
	if c.Run.Timeout <= 0 {
		return fmt.Errorf("config: RUN_TIMEOUT must be positive")
	}
	if c.Run.WorkerPoolSize < 1 {
		return fmt.Errorf("config: RUN_CONCURRENCY must be at least 1")
	}
	if c.LLM.MaxRetries < 0 || c.LLM.Burst < 1 {
		return fmt.Errorf("config: LLM_MAX_RETRIES must be >= 0 and LLM_BURST >= 1")
	}
	return nil
}

// reader keeps the first parse error so Load reports one clear message.
type reader struct {
	getenv func(string) string
	err    error
}

func (r *reader) str(key string) string {
	return strings.TrimSpace(r.getenv(key))
}

func (r *reader) fail(key, raw string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("config: invalid %s=%q: %w", key, raw, err)
	}
}

func (r *reader) int(key string, def int) int {
	raw := r.str(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		r.fail(key, raw, err)
		return def
	}
	return v
}

func (r *reader) float(key string, def float64) float64 {
	raw := r.str(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		r.fail(key, raw, err)
		return def
	}
	return v
}

func (r *reader) bool(key string, def bool) bool {
	raw := r.str(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		r.fail(key, raw, err)
		return def
	}
	return v
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	raw := r.str(key)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		r.fail(key, raw, err)
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
