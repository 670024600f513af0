package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	HTTP      HTTPConfig      `koanf:"http"`
	Store     StoreConfig     `koanf:"store"`
	Redis     RedisConfig     `koanf:"redis"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Table     TableConfig     `koanf:"table"`
	Tracing   TracingConfig   `koanf:"tracing"`
}

type HTTPConfig struct {
	Port           string        `koanf:"port"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	IdleTimeout    time.Duration `koanf:"idle_timeout"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

type StoreConfig struct {
	Driver      string `koanf:"driver"`
	DatabaseURL string `koanf:"database_url"`
}

// RedisConfig is optional; an empty Addr keeps themes in process.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type RateLimitConfig struct {
	PerMinute       int `koanf:"per_minute"`
	Burst           int `koanf:"burst"`
	TenantPerMinute int `koanf:"tenant_per_minute"`
	TenantBurst     int `koanf:"tenant_burst"`
}

type TableConfig struct {
	PageSize int `koanf:"page_size"`
}

// TracingConfig enables OTLP export when Endpoint is set. SampleRatio
// applies to root spans only.
type TracingConfig struct {
	ServiceName string  `koanf:"service_name"`
	Endpoint    string  `koanf:"endpoint"`
	Insecure    bool    `koanf:"insecure"`
	SampleRatio float64 `koanf:"sample_ratio"`
}

// Load reads the optional YAML file at path, fills defaults and applies
// environment overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}
	applyDefaults(k)
	applyEnvOverrides(k)

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("config: store.database_url (DB_DSN) is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Table.PageSize <= 0 {
		return fmt.Errorf("config: table.page_size must be positive")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("config: tracing.sample_ratio must be between 0 and 1")
	}
	return nil
}

// Path resolves the config file from -config or ADMIN_CONFIG. An empty
// result means environment only.
func Path(fs *flag.FlagSet, args []string) string {
	var path string
	fs.StringVar(&path, "config", "", "path to config file")
	_ = fs.Parse(args)
	if path == "" {
		path = os.Getenv("ADMIN_CONFIG")
	}
	return path
}

func applyDefaults(k *koanf.Koanf) {
	setDefault(k, "http.port", "8083")
	setDefault(k, "http.read_timeout", 10*time.Second)
	setDefault(k, "http.write_timeout", 10*time.Second)
	setDefault(k, "http.idle_timeout", 60*time.Second)
	setDefault(k, "http.request_timeout", 8*time.Second)

	setDefault(k, "store.driver", DriverPostgres)

	setDefault(k, "rate_limit.per_minute", 120)
	setDefault(k, "rate_limit.burst", 30)
	setDefault(k, "rate_limit.tenant_per_minute", 300)
	setDefault(k, "rate_limit.tenant_burst", 60)

	setDefault(k, "table.page_size", 10)

	setDefault(k, "tracing.service_name", "admin-service")
	setDefault(k, "tracing.sample_ratio", 1.0)
}

func applyEnvOverrides(k *koanf.Koanf) {
	overrideString(k, "ADMIN_PORT", "http.port")
	overrideString(k, "DB_DSN", "store.database_url")
	overrideString(k, "STORE_DRIVER", "store.driver")
	overrideString(k, "REDIS_ADDR", "redis.addr")
	overrideString(k, "REDIS_PASSWORD", "redis.password")
	overrideInt(k, "REDIS_DB", "redis.db")
	overrideInt(k, "ADMIN_RATE_LIMIT_PER_MIN", "rate_limit.per_minute")
	overrideInt(k, "ADMIN_RATE_LIMIT_BURST", "rate_limit.burst")
	overrideInt(k, "ADMIN_TENANT_RATE_LIMIT_PER_MIN", "rate_limit.tenant_per_minute")
	overrideInt(k, "ADMIN_TENANT_RATE_LIMIT_BURST", "rate_limit.tenant_burst")
	overrideInt(k, "ADMIN_PAGE_SIZE", "table.page_size")
	if seconds := readInt("ADMIN_REQUEST_TIMEOUT_SECONDS", 0); seconds > 0 {
		k.Set("http.request_timeout", time.Duration(seconds)*time.Second)
	}
	overrideString(k, "OTEL_SERVICE_NAME", "tracing.service_name")
	overrideString(k, "OTEL_EXPORTER_OTLP_ENDPOINT", "tracing.endpoint")
	if os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true" {
		k.Set("tracing.insecure", true)
	}
	if raw := os.Getenv("OTEL_TRACES_SAMPLER_ARG"); raw != "" {
		if ratio, err := strconv.ParseFloat(raw, 64); err == nil {
			k.Set("tracing.sample_ratio", ratio)
		}
	}
}

func overrideString(k *koanf.Koanf, env, key string) {
	if value := os.Getenv(env); value != "" {
		k.Set(key, value)
	}
}

func overrideInt(k *koanf.Koanf, env, key string) {
	if value := readInt(env, 0); value > 0 {
		k.Set(key, value)
	}
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func setDefault(k *koanf.Koanf, key string, value any) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}
