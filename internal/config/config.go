// Package config assembles the runtime configuration from defaults, an
// optional YAML file, and MARGINALIA_* environment variables, in that
// order. Every knob has a working default so the binary runs with no
// configuration at all.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string

	LogLevel  string
	LogFormat string // "json" or "console"

	// Empty disables auth; the server logs a warning and stays open.
	APIKey string

	// Record store selection.
	StoreBackend  string // "file" or "redis"
	StorePath     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string

	// Local language model (Ollama).
	OllamaURL   string
	OllamaModel string
	LLMTimeout  time.Duration
	LLMRetries  int
	StatsWindow time.Duration

	// Anchoring and text processing.
	ContextLength    int
	ChunkMaxChars    int
	SummarySentences int
	KeywordCount     int

	// Digest pipeline.
	WorkerCount  int
	MaxQueueSize int
	JobTTL       time.Duration

	// Request limits.
	MaxBodyBytes int64
}

// fileConfig mirrors Config for the optional YAML file. Only keys present
// in the file override the defaults; env vars override both.
type fileConfig struct {
	Port          *string `yaml:"port"`
	LogLevel      *string `yaml:"log_level"`
	LogFormat     *string `yaml:"log_format"`
	APIKey        *string `yaml:"api_key"`
	StoreBackend  *string `yaml:"store_backend"`
	StorePath     *string `yaml:"store_path"`
	RedisAddr     *string `yaml:"redis_addr"`
	RedisPassword *string `yaml:"redis_password"`
	RedisDB       *int    `yaml:"redis_db"`
	RedisKey      *string `yaml:"redis_key"`
	OllamaURL     *string `yaml:"ollama_url"`
	OllamaModel   *string `yaml:"ollama_model"`
	LLMTimeout    *string `yaml:"llm_timeout"`
	LLMRetries    *int    `yaml:"llm_retries"`
	StatsWindow   *string `yaml:"stats_window"`

	ContextLength    *int `yaml:"context_length"`
	ChunkMaxChars    *int `yaml:"chunk_max_chars"`
	SummarySentences *int `yaml:"summary_sentences"`
	KeywordCount     *int `yaml:"keyword_count"`

	WorkerCount  *int    `yaml:"worker_count"`
	MaxQueueSize *int    `yaml:"max_queue_size"`
	JobTTL       *string `yaml:"job_ttl"`

	MaxBodyBytes *int64 `yaml:"max_body_bytes"`
}

// Load builds the configuration. The YAML file named by MARGINALIA_CONFIG
// (if any) is applied over the defaults, then the environment over that.
func Load() (Config, error) {
	cfg := Config{
		Port:      "8075",
		LogLevel:  "info",
		LogFormat: "json",

		StoreBackend: "file",
		StorePath:    "data/records.json",
		RedisAddr:    "localhost:6379",
		RedisKey:     "marginalia:records",

		OllamaURL:   "http://localhost:11434",
		OllamaModel: "llama3.2",
		LLMTimeout:  2 * time.Minute,
		LLMRetries:  3,
		StatsWindow: time.Hour,

		ContextLength:    40,
		ChunkMaxChars:    2000,
		SummarySentences: 3,
		KeywordCount:     10,

		WorkerCount:  2,
		MaxQueueSize: 50,
		JobTTL:       time.Hour,

		MaxBodyBytes: 10 << 20, // 10MB page snapshots
	}

	if path := os.Getenv("MARGINALIA_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()

	return cfg, cfg.Validate()
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setStr := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setDur := func(dst *time.Duration, src *string) error {
		if src == nil {
			return nil
		}
		d, err := time.ParseDuration(*src)
		if err != nil {
			return fmt.Errorf("config %s: %w", path, err)
		}
		*dst = d
		return nil
	}

	setStr(&c.Port, fc.Port)
	setStr(&c.LogLevel, fc.LogLevel)
	setStr(&c.LogFormat, fc.LogFormat)
	setStr(&c.APIKey, fc.APIKey)
	setStr(&c.StoreBackend, fc.StoreBackend)
	setStr(&c.StorePath, fc.StorePath)
	setStr(&c.RedisAddr, fc.RedisAddr)
	setStr(&c.RedisPassword, fc.RedisPassword)
	setInt(&c.RedisDB, fc.RedisDB)
	setStr(&c.RedisKey, fc.RedisKey)
	setStr(&c.OllamaURL, fc.OllamaURL)
	setStr(&c.OllamaModel, fc.OllamaModel)
	setInt(&c.LLMRetries, fc.LLMRetries)
	setInt(&c.ContextLength, fc.ContextLength)
	setInt(&c.ChunkMaxChars, fc.ChunkMaxChars)
	setInt(&c.SummarySentences, fc.SummarySentences)
	setInt(&c.KeywordCount, fc.KeywordCount)
	setInt(&c.WorkerCount, fc.WorkerCount)
	setInt(&c.MaxQueueSize, fc.MaxQueueSize)
	if fc.MaxBodyBytes != nil {
		c.MaxBodyBytes = *fc.MaxBodyBytes
	}
	for _, err := range []error{
		setDur(&c.LLMTimeout, fc.LLMTimeout),
		setDur(&c.StatsWindow, fc.StatsWindow),
		setDur(&c.JobTTL, fc.JobTTL),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = envOr("MARGINALIA_PORT", c.Port)
	c.LogLevel = envOr("MARGINALIA_LOG_LEVEL", c.LogLevel)
	c.LogFormat = envOr("MARGINALIA_LOG_FORMAT", c.LogFormat)
	c.APIKey = envOr("MARGINALIA_API_KEY", c.APIKey)

	c.StoreBackend = envOr("MARGINALIA_STORE_BACKEND", c.StoreBackend)
	c.StorePath = envOr("MARGINALIA_STORE_PATH", c.StorePath)
	c.RedisAddr = envOr("MARGINALIA_REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = envOr("MARGINALIA_REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = envInt("MARGINALIA_REDIS_DB", c.RedisDB)
	c.RedisKey = envOr("MARGINALIA_REDIS_KEY", c.RedisKey)

	c.OllamaURL = envOr("MARGINALIA_OLLAMA_URL", c.OllamaURL)
	c.OllamaModel = envOr("MARGINALIA_OLLAMA_MODEL", c.OllamaModel)
	c.LLMTimeout = envDuration("MARGINALIA_LLM_TIMEOUT", c.LLMTimeout)
	c.LLMRetries = envInt("MARGINALIA_LLM_RETRIES", c.LLMRetries)
	c.StatsWindow = envDuration("MARGINALIA_STATS_WINDOW", c.StatsWindow)

	c.ContextLength = envInt("MARGINALIA_CONTEXT_LENGTH", c.ContextLength)
	c.ChunkMaxChars = envInt("MARGINALIA_CHUNK_MAX_CHARS", c.ChunkMaxChars)
	c.SummarySentences = envInt("MARGINALIA_SUMMARY_SENTENCES", c.SummarySentences)
	c.KeywordCount = envInt("MARGINALIA_KEYWORD_COUNT", c.KeywordCount)

	c.WorkerCount = envInt("MARGINALIA_WORKER_COUNT", c.WorkerCount)
	c.MaxQueueSize = envInt("MARGINALIA_MAX_QUEUE_SIZE", c.MaxQueueSize)
	c.JobTTL = envDuration("MARGINALIA_JOB_TTL", c.JobTTL)

	c.MaxBodyBytes = envInt64("MARGINALIA_MAX_BODY_BYTES", c.MaxBodyBytes)
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case "file":
		if c.StorePath == "" {
			return errors.New("store_path is required for the file backend")
		}
	case "redis":
		if c.RedisAddr == "" {
			return errors.New("redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q (want file or redis)", c.StoreBackend)
	}
	if c.ContextLength <= 0 {
		return errors.New("context_length must be positive")
	}
	if c.ChunkMaxChars <= 0 {
		return errors.New("chunk_max_chars must be positive")
	}
	if c.WorkerCount <= 0 {
		return errors.New("worker_count must be positive")
	}
	if c.MaxQueueSize <= 0 {
		return errors.New("max_queue_size must be positive")
	}
	if c.JobTTL <= 0 {
		return errors.New("job_ttl must be positive")
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("max_body_bytes must be positive")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
