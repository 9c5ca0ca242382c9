// Package config loads the dispatcher configuration from an optional YAML file
// with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	Environment string            `yaml:"environment"`
	Logging     LoggingConfig     `yaml:"logging"`
	Translation TranslationConfig `yaml:"translation"`
	Cache       CacheConfig       `yaml:"cache"`
	Store       StoreConfig       `yaml:"store"`
}

// LoggingConfig controls log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TranslationConfig selects and tunes the translation engine.
type TranslationConfig struct {
	// Engine is one of "aws", "lambda" or "libretranslate".
	Engine                string        `yaml:"engine"`
	DefaultTarget         string        `yaml:"defaultTarget"`
	Workers               int           `yaml:"workers"`
	MaxChunkTokens        int           `yaml:"maxChunkTokens"`
	FunctionPrefix        string        `yaml:"functionPrefix"`
	LibreTranslateURL     string        `yaml:"libreTranslateUrl"`
	LibreTranslateTimeout time.Duration `yaml:"libreTranslateTimeout"`
}

// CacheConfig configures the Redis translation cache. An empty Addr disables it.
type CacheConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// Enabled reports whether a cache address is configured.
func (c CacheConfig) Enabled() bool {
	return c.Addr != ""
}

// StoreConfig configures the DynamoDB record store.
type StoreConfig struct {
	TableName string `yaml:"tableName"`
}

// Load reads the YAML file at path (if non-empty) over the defaults and then
// applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromEnv is Load with the path taken from CONFIG_FILE.
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv("CONFIG_FILE"))
}

func defaultConfig() *Config {
	return &Config{
		Environment: "dev",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Translation: TranslationConfig{
			Engine:                "aws",
			DefaultTarget:         "EN",
			Workers:               4,
			MaxChunkTokens:        3000,
			FunctionPrefix:        "translator",
			LibreTranslateURL:     "http://localhost:5000",
			LibreTranslateTimeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			TTL: 24 * time.Hour,
		},
		Store: StoreConfig{
			TableName: "Comments",
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)

	t := &cfg.Translation
	t.Engine = getEnv("TRANSLATION_ENGINE", t.Engine)
	t.DefaultTarget = getEnv("DEFAULT_TARGET_LANGUAGE", t.DefaultTarget)
	t.Workers = getEnvInt("TRANSLATION_WORKERS", t.Workers)
	t.MaxChunkTokens = getEnvInt("MAX_CHUNK_TOKENS", t.MaxChunkTokens)
	t.FunctionPrefix = getEnv("TRANSLATOR_FUNCTION_PREFIX", t.FunctionPrefix)
	t.LibreTranslateURL = getEnv("LIBRETRANSLATE_URL", t.LibreTranslateURL)
	t.LibreTranslateTimeout = getEnvDuration("LIBRETRANSLATE_TIMEOUT", t.LibreTranslateTimeout)

	cfg.Cache.Addr = getEnv("REDIS_ADDR", cfg.Cache.Addr)
	cfg.Cache.Password = getEnv("REDIS_PASSWORD", cfg.Cache.Password)
	cfg.Cache.DB = getEnvInt("REDIS_DB", cfg.Cache.DB)
	cfg.Cache.TTL = getEnvDuration("CACHE_TTL", cfg.Cache.TTL)

	cfg.Store.TableName = getEnv("COMMENTS_TABLE", cfg.Store.TableName)
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
