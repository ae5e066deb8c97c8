// Package config: значения по умолчанию → YAML-файл → переменные TABLEKIT_* → флаги.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port      string `yaml:"port"`
	DBURL     string `yaml:"dbUrl"`
	JWTSecret string `yaml:"jwtSecret"`
	SeedDir   string `yaml:"seedDir"` // пусто: без seed-таблиц

	LogLevel     string `yaml:"logLevel"`     // debug|info|warn|error
	GormLogLevel string `yaml:"gormLogLevel"` // silent|error|warn|info

	DefaultLimit int `yaml:"defaultLimit"`
	MaxLimit     int `yaml:"maxLimit"`
}

func def() Config {
	return Config{
		Port:         "8080",
		DBURL:        "",
		JWTSecret:    "",
		SeedDir:      "",
		LogLevel:     "info",
		GormLogLevel: "warn",
		DefaultLimit: 100,
		MaxLimit:     1000,
	}
}

func loadYAML(path string, c *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func getenvInt(k string, fallback int) (int, error) {
	v, ok := os.LookupEnv(k)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

// Load собирает конфигурацию. Путь к файлу берётся из -config, затем из TABLEKIT_CONFIG,
// затем из defaultPath; отсутствующий файл не ошибка.
func Load(defaultPath string, args []string) (Config, error) {
	cfg := def()

	fs := flag.NewFlagSet("tablekit", flag.ContinueOnError)
	configPath := fs.String("config", getenv("TABLEKIT_CONFIG", defaultPath), "Path to config YAML")
	port := fs.String("port", "", "HTTP port")
	db := fs.String("db", "", "Postgres URL")
	seeds := fs.String("seeds", "", "Directory with seed table definitions (*.yaml)")
	logLevel := fs.String("log-level", "", "Log level (debug/info/warn/error)")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	// YAML (если файл существует)
	if p := strings.TrimSpace(*configPath); p != "" {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			if err := loadYAML(p, &cfg); err != nil {
				return cfg, err
			}
		}
	}

	// ENV overrides
	cfg.Port = getenv("TABLEKIT_PORT", cfg.Port)
	cfg.DBURL = getenv("TABLEKIT_DB_URL", cfg.DBURL)
	cfg.JWTSecret = getenv("TABLEKIT_JWT_SECRET", cfg.JWTSecret)
	cfg.SeedDir = getenv("TABLEKIT_SEED_DIR", cfg.SeedDir)
	cfg.LogLevel = getenv("TABLEKIT_LOG_LEVEL", cfg.LogLevel)
	cfg.GormLogLevel = getenv("TABLEKIT_GORM_LOG_LEVEL", cfg.GormLogLevel)
	var err error
	if cfg.DefaultLimit, err = getenvInt("TABLEKIT_DEFAULT_LIMIT", cfg.DefaultLimit); err != nil {
		return cfg, err
	}
	if cfg.MaxLimit, err = getenvInt("TABLEKIT_MAX_LIMIT", cfg.MaxLimit); err != nil {
		return cfg, err
	}

	// Flags overrides: только явно заданные
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = strings.TrimSpace(*port)
		case "db":
			cfg.DBURL = strings.TrimSpace(*db)
		case "seeds":
			cfg.SeedDir = strings.TrimSpace(*seeds)
		case "log-level":
			cfg.LogLevel = strings.TrimSpace(*logLevel)
		}
	})

	return cfg, cfg.Validate()
}

// Validate: то, без чего сервис не стартует.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DBURL) == "" {
		errs = append(errs, errors.New("dbUrl is required (TABLEKIT_DB_URL or -db)"))
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("jwtSecret is required (TABLEKIT_JWT_SECRET)"))
	}
	if c.DefaultLimit <= 0 {
		errs = append(errs, fmt.Errorf("defaultLimit must be positive, got %d", c.DefaultLimit))
	}
	if c.MaxLimit > 0 && c.MaxLimit < c.DefaultLimit {
		errs = append(errs, fmt.Errorf("maxLimit %d is less than defaultLimit %d", c.MaxLimit, c.DefaultLimit))
	}
	return errors.Join(errs...)
}

func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
