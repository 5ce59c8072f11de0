package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConnectionString = "Host=localhost;Port=5432;Database=ledger_db;Username=postgres;Password=postgres;Timeout=30;CommandTimeout=30"
const defaultHTTPAddr = ":7000"
const defaultChannelID = "LedgerApp"
const defaultLogLevel = "info"
const defaultEnv = "production"
const defaultMaxOpenConns = 30
const defaultMaxIdleConns = 20
const defaultShutdownTimeout = 15 * time.Second

type Config struct {
	DatabaseDSN     string        `yaml:"databaseDsn"`
	MigrationsDir   string        `yaml:"migrationsDir"`
	HTTPAddr        string        `yaml:"httpAddr"`
	ChannelID       string        `yaml:"channelId"`
	ChannelKey      string        `yaml:"channelKey"`
	ChannelKeyHash  string        `yaml:"channelKeyHash"`
	LogLevel        string        `yaml:"logLevel"`
	Env             string        `yaml:"env"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// Load builds the configuration from defaults, an optional YAML file named by
// LEDGER_CONFIG_FILE, and the environment (optionally seeded from .env), in that order.
func Load() (Config, error) {
	// A missing .env is fine; the process environment is used as is.
	_ = godotenv.Load()

	cfg := Config{
		DatabaseDSN:     defaultConnectionString,
		MigrationsDir:   filepath.Join("src", "migrations"),
		HTTPAddr:        defaultHTTPAddr,
		ChannelID:       defaultChannelID,
		LogLevel:        defaultLogLevel,
		Env:             defaultEnv,
		MaxOpenConns:    defaultMaxOpenConns,
		MaxIdleConns:    defaultMaxIdleConns,
		ShutdownTimeout: defaultShutdownTimeout,
	}

	if path := strings.TrimSpace(os.Getenv("LEDGER_CONFIG_FILE")); path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	cfg.DatabaseDSN = normalizeConnectionString(cfg.DatabaseDSN)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.DatabaseDSN) == "" {
		errs = append(errs, "database dsn is required")
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, "http addr is required")
	}
	if c.MaxOpenConns <= 0 {
		errs = append(errs, "max open conns must be positive")
	}
	if c.MaxIdleConns < 0 {
		errs = append(errs, "max idle conns cannot be negative")
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, "shutdown timeout must be positive")
	}

	if len(errs) > 0 {
		return errors.New("invalid config: " + strings.Join(errs, "; "))
	}
	return nil
}

func loadYAML(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %q: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}

	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.DatabaseDSN, "DATABASE_DSN")
	setString(&cfg.MigrationsDir, "MIGRATIONS_DIR")
	setString(&cfg.HTTPAddr, "HTTP_ADDR")
	setString(&cfg.ChannelID, "CHANNEL_ID")
	setString(&cfg.ChannelKey, "CHANNEL_KEY")
	setString(&cfg.ChannelKeyHash, "CHANNEL_KEY_HASH")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.Env, "APP_ENV")

	if err := setInt(&cfg.MaxOpenConns, "DB_MAX_OPEN_CONNS"); err != nil {
		return err
	}
	if err := setInt(&cfg.MaxIdleConns, "DB_MAX_IDLE_CONNS"); err != nil {
		return err
	}

	if raw := strings.TrimSpace(os.Getenv("SHUTDOWN_TIMEOUT")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("parse SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}

	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = v
	return nil
}

func normalizeConnectionString(raw string) string {
	// URL-style DSNs are understood by lib/pq as is.
	if strings.HasPrefix(raw, "postgres://") || strings.HasPrefix(raw, "postgresql://") {
		return raw
	}

	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	hasSSLMode := false

	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}

		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])

		switch key {
		case "host":
			out = append(out, "host="+val)
		case "port":
			out = append(out, "port="+val)
		case "database":
			out = append(out, "dbname="+val)
		case "username":
			out = append(out, "user="+val)
		case "password":
			out = append(out, "password="+val)
		case "timeout", "connect timeout":
			out = append(out, "connect_timeout="+val)
		case "commandtimeout", "command timeout":
			out = append(out, "statement_timeout="+val+"s")
		case "sslmode":
			hasSSLMode = true
			out = append(out, "sslmode="+val)
		default:
			out = append(out, key+"="+val)
		}
	}

	if len(out) == 0 {
		return raw
	}

	if !hasSSLMode {
		out = append(out, "sslmode=disable")
	}

	return strings.Join(out, " ")
}
