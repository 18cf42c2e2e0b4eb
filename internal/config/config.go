package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// insecureSecret is the built-in JWT secret; it is only accepted in development.
const insecureSecret = "supersecretkey"

type Config struct {
	Addr           string          `yaml:"addr"`
	JWTSecret      string          `yaml:"jwt_secret"`
	APITimeout     time.Duration   `yaml:"timeout"`
	DatabasePath   string          `yaml:"database_path"`
	MigrateOnStart bool            `yaml:"migrate_on_start"`
	LogLevel       string          `yaml:"log_level"`
	Timezone       string          `yaml:"timezone"`
	CORSOrigins    []string        `yaml:"cors_origins"`
	Staffing       StaffingConfig  `yaml:"staffing"`
	Tasks          TasksConfig     `yaml:"tasks"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

type StaffingConfig struct {
	StartGuard  time.Duration `yaml:"start_guard"`
	SwimlaneGap time.Duration `yaml:"swimlane_gap"`
}

type TasksConfig struct {
	Workers     int `yaml:"workers"`
	MaxAttempts int `yaml:"max_attempts"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// LoadConfig builds the configuration from defaults, the environment (a .env file in the
// working directory is loaded first when present) and, when path is set, a YAML file.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Addr:           getEnv("STAFF_ADDR", ":8080"),
		JWTSecret:      getEnv("STAFF_JWT_SECRET", insecureSecret),
		APITimeout:     15 * time.Second,
		DatabasePath:   getEnv("STAFF_DATABASE_PATH", "staff.db"),
		MigrateOnStart: getEnv("STAFF_MIGRATE_ON_START", "true") == "true",
		LogLevel:       getEnv("STAFF_LOG_LEVEL", "info"),
		Timezone:       getEnv("STAFF_TIMEZONE", "UTC"),
		Staffing: StaffingConfig{
			StartGuard:  time.Hour,
			SwimlaneGap: 15 * time.Minute,
		},
		Tasks: TasksConfig{
			Workers:     getEnvInt("STAFF_WORKERS", 2),
			MaxAttempts: 5,
		},
		RateLimit: RateLimitConfig{RPS: 20, Burst: 40},
	}
	if origins := getEnv("STAFF_CORS_ORIGINS", ""); origins != "" {
		cfg.CORSOrigins = strings.Split(origins, ",")
	}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate fills zero values with defaults and rejects unusable settings.
func (c *Config) Validate() error {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.APITimeout <= 0 {
		c.APITimeout = 15 * time.Second
	}
	if c.DatabasePath == "" {
		return errors.New("database_path is required")
	}
	if c.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}
	if c.JWTSecret == insecureSecret && os.Getenv("STAFF_ENV") != "development" {
		return errors.New("jwt_secret uses the built-in default; set STAFF_JWT_SECRET or STAFF_ENV=development")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Staffing.StartGuard <= 0 {
		c.Staffing.StartGuard = time.Hour
	}
	if c.Staffing.SwimlaneGap <= 0 {
		c.Staffing.SwimlaneGap = 15 * time.Minute
	}
	if c.Tasks.Workers <= 0 {
		c.Tasks.Workers = 2
	}
	if c.Tasks.MaxAttempts <= 0 {
		c.Tasks.MaxAttempts = 5
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return errors.New("rate_limit values must not be negative")
	}
	return nil
}

// Level parses LogLevel; empty means info.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// Location resolves Timezone, the zone in which shift dates and times are interpreted.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return loc, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}

func getEnvInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
