package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config holds the service settings. Values come from, in increasing
// priority: defaults, the TOML file named by CONFIG_FILE, the environment
// (including .env files).
type Config struct {
	Server struct {
		Port    string `toml:"port"`
		GinMode string `toml:"gin_mode"`
		DevMode bool   `toml:"dev_mode"`
		DataDir string `toml:"data_dir"`
	} `toml:"server"`

	Database struct {
		URL         string `toml:"url"`
		AutoMigrate bool   `toml:"auto_migrate"`
	} `toml:"database"`

	Fetch struct {
		TimeoutSeconds int   `toml:"timeout_seconds"`
		MaxBodyBytes   int64 `toml:"max_body_bytes"`
		RequireScheme  bool  `toml:"require_scheme"`
	} `toml:"fetch"`

	LLM struct {
		BaseURL        string `toml:"base_url"`
		APIKey         string `toml:"api_key"`
		Model          string `toml:"model"`
		TimeoutSeconds int    `toml:"timeout_seconds"`
	} `toml:"llm"`

	Redis struct {
		Addr string `toml:"addr"`
	} `toml:"redis"`

	MinIO struct {
		Endpoint  string `toml:"endpoint"`
		AccessKey string `toml:"access_key"`
		SecretKey string `toml:"secret_key"`
		Bucket    string `toml:"bucket"`
		Secure    bool   `toml:"secure"`
	} `toml:"minio"`

	RateLimit struct {
		RPS   float64 `toml:"rps"`
		Burst int     `toml:"burst"`
	} `toml:"rate_limit"`

	Cache struct {
		AdhocTTLMinutes int `toml:"adhoc_ttl_minutes"`
	} `toml:"cache"`

	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
}

// DefaultConfig returns a config with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = "8080"
	cfg.Server.GinMode = "release"
	cfg.Server.DataDir = "data"
	cfg.Fetch.TimeoutSeconds = 30
	cfg.Fetch.MaxBodyBytes = 10 << 20
	cfg.LLM.BaseURL = "https://api.openai.com/v1"
	cfg.LLM.TimeoutSeconds = 60
	cfg.MinIO.Bucket = "seo-snapshots"
	cfg.RateLimit.RPS = 2
	cfg.RateLimit.Burst = 5
	cfg.Cache.AdhocTTLMinutes = 30
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return cfg
}

// LoadEnv loads .env.development, falling back to .env.
func LoadEnv() {
	if err := godotenv.Load(".env.development"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, using environment variables")
		}
	}
}

// Load builds the configuration. DATABASE_URL is required.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getenv("PORT", cfg.Server.Port)
	cfg.Server.GinMode = getenv("GIN_MODE", cfg.Server.GinMode)
	cfg.Server.DevMode = getenvBool("DEV_MODE", cfg.Server.DevMode)
	cfg.Server.DataDir = getenv("DATA_DIR", cfg.Server.DataDir)

	cfg.Database.URL = getenv("DATABASE_URL", cfg.Database.URL)
	cfg.Database.AutoMigrate = getenvBool("DB_AUTO_MIGRATE", cfg.Database.AutoMigrate)

	cfg.Fetch.TimeoutSeconds = getenvInt("FETCH_TIMEOUT_SECONDS", cfg.Fetch.TimeoutSeconds)
	cfg.Fetch.MaxBodyBytes = int64(getenvInt("FETCH_MAX_BODY_BYTES", int(cfg.Fetch.MaxBodyBytes)))
	cfg.Fetch.RequireScheme = getenvBool("URL_REQUIRE_SCHEME", cfg.Fetch.RequireScheme)

	cfg.LLM.BaseURL = getenv("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.APIKey = getenv("LLM_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.Model = getenv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.TimeoutSeconds = getenvInt("LLM_TIMEOUT_SECONDS", cfg.LLM.TimeoutSeconds)

	cfg.Redis.Addr = getenv("REDIS_ADDR", cfg.Redis.Addr)

	cfg.MinIO.Endpoint = getenv("MINIO_ENDPOINT", cfg.MinIO.Endpoint)
	cfg.MinIO.AccessKey = getenv("MINIO_ACCESS_KEY", cfg.MinIO.AccessKey)
	cfg.MinIO.SecretKey = getenv("MINIO_SECRET_KEY", cfg.MinIO.SecretKey)
	cfg.MinIO.Bucket = getenv("MINIO_BUCKET", cfg.MinIO.Bucket)
	cfg.MinIO.Secure = getenvBool("MINIO_SECURE", cfg.MinIO.Secure)

	cfg.RateLimit.RPS = getenvFloat("RATE_LIMIT_RPS", cfg.RateLimit.RPS)
	cfg.RateLimit.Burst = getenvInt("RATE_LIMIT_BURST", cfg.RateLimit.Burst)

	cfg.Cache.AdhocTTLMinutes = getenvInt("ADHOC_CACHE_TTL_MINUTES", cfg.Cache.AdhocTTLMinutes)

	cfg.Log.Level = getenv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getenv("LOG_FORMAT", cfg.Log.Format)
}

// Validate checks required settings and ranges.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return errors.New("FETCH_TIMEOUT_SECONDS must be positive")
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return errors.New("FETCH_MAX_BODY_BYTES must be positive")
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

func (c *Config) AdhocCacheTTL() time.Duration {
	return time.Duration(c.Cache.AdhocTTLMinutes) * time.Minute
}

// SnapshotsEnabled reports whether MinIO settings are present.
func (c *Config) SnapshotsEnabled() bool {
	return c.MinIO.Endpoint != "" && c.MinIO.AccessKey != "" && c.MinIO.SecretKey != ""
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
