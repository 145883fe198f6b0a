package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"

	FanoutLocal = "local"
	FanoutRedis = "redis"
	FanoutAMQP  = "amqp"
)

type Config struct {
	StationID string `yaml:"stationID"`
	HTTPAddr  string `yaml:"httpAddr"`
	Env       string `yaml:"env"` // "dev" | "prod"
	LogLevel  string `yaml:"logLevel"`

	Store  StoreConfig  `yaml:"store"`
	Fanout FanoutConfig `yaml:"fanout"`

	// AuditDenied records denied scans in the access log.
	AuditDenied bool `yaml:"auditDenied"`

	// How often the station reloads shared collections (0 = only on demand).
	RefreshIntervalSeconds int `yaml:"refreshIntervalSeconds"`

	InboxSize int `yaml:"inboxSize"`

	// IANA zone used to decide which accesses happened "today". Empty means
	// the host's local zone.
	TimeZone string `yaml:"timeZone"`
}

type StoreConfig struct {
	Backend       string `yaml:"backend"` // memory | sqlite | redis
	DBPath        string `yaml:"dbPath"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisPrefix   string `yaml:"redisPrefix"`
}

type FanoutConfig struct {
	Backend        string `yaml:"backend"` // local | redis | amqp
	RedisAddr      string `yaml:"redisAddr"`
	RedisPassword  string `yaml:"redisPassword"`
	AMQPURL        string `yaml:"amqpURL"`
	ExchangePrefix string `yaml:"exchangePrefix"`
}

// Load reads the optional YAML file at path, applies QRGATE_* environment
// overrides and fills defaults. In dev a local .env file is loaded first.
func Load(path string) (Config, error) {
	if strings.EqualFold(os.Getenv("QRGATE_ENV"), "dev") || os.Getenv("QRGATE_ENV") == "" {
		_ = godotenv.Load()
	}

	cfg := Config{}
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Location resolves TimeZone. Validate has already rejected unknown zones.
func (c Config) Location() *time.Location {
	if strings.TrimSpace(c.TimeZone) == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c Config) Validate() error {
	if tz := strings.TrimSpace(c.TimeZone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("config: timeZone: %w", err)
		}
	}

	switch c.Store.Backend {
	case StoreMemory, StoreSQLite:
	case StoreRedis:
		if strings.TrimSpace(c.Store.RedisAddr) == "" {
			return errors.New("config: store.redisAddr is required for the redis store")
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}

	switch c.Fanout.Backend {
	case FanoutLocal:
	case FanoutRedis:
		if strings.TrimSpace(c.Fanout.RedisAddr) == "" {
			return errors.New("config: fanout.redisAddr is required for the redis fanout")
		}
	case FanoutAMQP:
		if strings.TrimSpace(c.Fanout.AMQPURL) == "" {
			return errors.New("config: fanout.amqpURL is required for the amqp fanout")
		}
	default:
		return fmt.Errorf("config: unknown fanout backend %q", c.Fanout.Backend)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.StationID, "QRGATE_STATION_ID")
	setString(&cfg.HTTPAddr, "QRGATE_HTTP_ADDR")
	setString(&cfg.Env, "QRGATE_ENV")
	setString(&cfg.LogLevel, "QRGATE_LOG_LEVEL")
	setString(&cfg.TimeZone, "QRGATE_TIMEZONE")

	setString(&cfg.Store.Backend, "QRGATE_STORE")
	setString(&cfg.Store.DBPath, "QRGATE_DB_PATH")
	setString(&cfg.Store.RedisAddr, "QRGATE_REDIS_ADDR")
	setString(&cfg.Store.RedisPassword, "QRGATE_REDIS_PASSWORD")
	setString(&cfg.Store.RedisPrefix, "QRGATE_REDIS_PREFIX")

	setString(&cfg.Fanout.Backend, "QRGATE_FANOUT")
	setString(&cfg.Fanout.RedisAddr, "QRGATE_FANOUT_REDIS_ADDR")
	setString(&cfg.Fanout.RedisPassword, "QRGATE_FANOUT_REDIS_PASSWORD")
	setString(&cfg.Fanout.AMQPURL, "QRGATE_AMQP_URL")
	setString(&cfg.Fanout.ExchangePrefix, "QRGATE_AMQP_EXCHANGE_PREFIX")

	if v := strings.TrimSpace(os.Getenv("QRGATE_AUDIT_DENIED")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AuditDenied = b
		}
	}
	cfg.RefreshIntervalSeconds = getenvInt("QRGATE_REFRESH_INTERVAL_SECONDS", cfg.RefreshIntervalSeconds)
	cfg.InboxSize = getenvInt("QRGATE_INBOX_SIZE", cfg.InboxSize)
}

func applyDefaults(cfg *Config) {
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if cfg.Env != "dev" && cfg.Env != "prod" {
		// fail-soft: treat unknown as dev
		cfg.Env = "dev"
	}
	if cfg.StationID == "" {
		host, _ := os.Hostname()
		cfg.StationID = defaultString(host, "station")
	}
	cfg.HTTPAddr = defaultString(cfg.HTTPAddr, ":8080")

	cfg.Store.Backend = strings.ToLower(defaultString(cfg.Store.Backend, StoreSQLite))
	cfg.Store.DBPath = defaultString(cfg.Store.DBPath, "./data/qrgate.db")
	cfg.Store.RedisPrefix = defaultString(cfg.Store.RedisPrefix, "qrgate")

	cfg.Fanout.Backend = strings.ToLower(defaultString(cfg.Fanout.Backend, FanoutLocal))
	if cfg.Fanout.RedisAddr == "" {
		cfg.Fanout.RedisAddr = cfg.Store.RedisAddr
		cfg.Fanout.RedisPassword = cfg.Store.RedisPassword
	}
	cfg.Fanout.ExchangePrefix = defaultString(cfg.Fanout.ExchangePrefix, "qrgate")

	if cfg.RefreshIntervalSeconds < 0 {
		cfg.RefreshIntervalSeconds = 0
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 50
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func defaultString(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
