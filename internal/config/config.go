// Package config loads settings from .env, config.yaml and KAEVA_* environment variables.
package config

import (
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Redis     RedisConfig     `yaml:"redis" mapstructure:"redis"`
	Queue     QueueConfig     `yaml:"queue" mapstructure:"queue"`
	Worker    WorkerConfig    `yaml:"worker" mapstructure:"worker"`
	Google    GoogleConfig    `yaml:"google" mapstructure:"google"`
	Gemini    GeminiConfig    `yaml:"gemini" mapstructure:"gemini"`
	Inference InferenceConfig `yaml:"inference" mapstructure:"inference"`
	Tiers     TiersConfig     `yaml:"tiers" mapstructure:"tiers"`
}

type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// StoreConfig selects the job store: memory, redis, postgres or sqlite.
type StoreConfig struct {
	Driver        string        `yaml:"driver" mapstructure:"driver"`
	TTL           time.Duration `yaml:"ttl" mapstructure:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval" mapstructure:"sweep_interval"`
	DatabaseURL   string        `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath    string        `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	AutoMigrate   bool          `yaml:"auto_migrate" mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr" mapstructure:"addr"`
	Password  string `yaml:"password" mapstructure:"password"`
	DB        int    `yaml:"db" mapstructure:"db"`
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// QueueConfig selects the job queue: memory or redis.
type QueueConfig struct {
	Driver        string `yaml:"driver" mapstructure:"driver"`
	Key           string `yaml:"key" mapstructure:"key"`
	ProcessingKey string `yaml:"processing_key" mapstructure:"processing_key"`
}

type WorkerConfig struct {
	Count        int           `yaml:"count" mapstructure:"count"`
	Embedded     bool          `yaml:"embedded" mapstructure:"embedded"`
	ClaimTimeout time.Duration `yaml:"claim_timeout" mapstructure:"claim_timeout"`
}

// GoogleConfig holds the service account used for token exchange. JSON wins
// over File when both are set.
type GoogleConfig struct {
	ServiceAccountJSON string   `yaml:"service_account_json" mapstructure:"service_account_json"`
	ServiceAccountFile string   `yaml:"service_account_file" mapstructure:"service_account_file"`
	Scopes             []string `yaml:"scopes" mapstructure:"scopes"`
}

type GeminiConfig struct {
	APIKey            string        `yaml:"api_key" mapstructure:"api_key"`
	Model             string        `yaml:"model" mapstructure:"model"`
	Location          string        `yaml:"location" mapstructure:"location"`
	Endpoint          string        `yaml:"endpoint" mapstructure:"endpoint"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type InferenceConfig struct {
	BaseURL       string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxMediaBytes int64         `yaml:"max_media_bytes" mapstructure:"max_media_bytes"`
}

type TiersConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// Load reads .env (if present), then config.yaml, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("KAEVA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// every key needs a default so env-only values are picked up by Unmarshal
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.ttl", 24*time.Hour)
	v.SetDefault("store.sweep_interval", time.Minute)
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.sqlite_path", "factcheck.db")
	v.SetDefault("store.auto_migrate", true)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "factcheck:job:")
	v.SetDefault("queue.driver", "memory")
	v.SetDefault("queue.key", "factcheck:queue")
	v.SetDefault("queue.processing_key", "factcheck:processing")
	v.SetDefault("worker.count", 4)
	v.SetDefault("worker.embedded", true)
	v.SetDefault("worker.claim_timeout", 5*time.Second)
	v.SetDefault("google.service_account_json", "")
	v.SetDefault("google.service_account_file", "")
	v.SetDefault("google.scopes", []string{"https://www.googleapis.com/auth/cloud-platform"})
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.location", "us-central1")
	v.SetDefault("gemini.endpoint", "")
	v.SetDefault("gemini.requests_per_second", 2.0)
	v.SetDefault("gemini.timeout", 60*time.Second)
	v.SetDefault("inference.base_url", "")
	v.SetDefault("inference.timeout", 90*time.Second)
	v.SetDefault("inference.max_media_bytes", int64(50<<20))
	v.SetDefault("tiers.path", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}

// Validate checks the driver combinations the binaries rely on.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "redis", "sqlite":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return eris.New("config: store.database_url is required for the postgres store")
		}
	default:
		return eris.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}
	switch c.Queue.Driver {
	case "memory", "redis":
	default:
		return eris.Errorf("config: unknown queue.driver %q", c.Queue.Driver)
	}
	if c.Queue.Driver == "memory" && !c.Worker.Embedded {
		return eris.New("config: the memory queue needs worker.embedded=true")
	}
	return nil
}

// ServiceAccount returns the service account JSON, reading the file if needed.
// Empty means credentials are not configured.
func (c *Config) ServiceAccount() ([]byte, error) {
	if s := strings.TrimSpace(c.Google.ServiceAccountJSON); s != "" {
		return []byte(s), nil
	}
	if c.Google.ServiceAccountFile == "" {
		return nil, nil
	}
	b, err := os.ReadFile(c.Google.ServiceAccountFile)
	if err != nil {
		return nil, eris.Wrap(err, "config: read service account file")
	}
	return b, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}

var dsnPassword = regexp.MustCompile(`://([^:/?#]+):([^@/]+)@`)

// RedactDSN masks the password in a URL-style DSN: user:pass@ -> user:****@.
func RedactDSN(dsn string) string {
	return dsnPassword.ReplaceAllString(dsn, `://$1:****@`)
}
