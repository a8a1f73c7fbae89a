// Package config loads service configuration from an optional YAML file
// overlaid with environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"ideogrid/internal/boundary"
	"ideogrid/internal/model"
)

// Config is the full service configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	Mongo  MongoConfig  `yaml:"mongo"`
	Redis  RedisConfig  `yaml:"redis"`
	Auth   AuthConfig   `yaml:"auth"`
	Data   DataConfig   `yaml:"data"`
	Quiz   QuizConfig   `yaml:"quiz"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type RedisConfig struct {
	Addr       string        `yaml:"addr"`
	SessionTTL time.Duration `yaml:"sessionTTL"` // idle sessions expire after this
}

type AuthConfig struct {
	JWTSecret string        `yaml:"-"` // env only
	TokenTTL  time.Duration `yaml:"tokenTTL"`
}

// DataConfig locates the reference tables. A location is a file path, an
// http(s) URL, "embedded:<file>", or empty for the embedded default.
type DataConfig struct {
	Questions    string        `yaml:"questions"`
	Vectors      string        `yaml:"vectors"`
	GridCoarse   string        `yaml:"gridCoarse"`
	GridFine     string        `yaml:"gridFine"`
	FetchTimeout time.Duration `yaml:"fetchTimeout"`
}

type QuizConfig struct {
	Band           float64            `yaml:"band"`
	Weights        map[string]float64 `yaml:"weights"` // fine matcher weight per axis code
	DefaultVariant string             `yaml:"defaultVariant"`
	Variants       []model.Variant    `yaml:"variants"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", ShutdownTimeout: 30 * time.Second},
		Mongo:  MongoConfig{URI: "mongodb://localhost:27017", Database: "ideogrid"},
		Redis:  RedisConfig{Addr: "localhost:6379", SessionTTL: 2 * time.Hour},
		Auth:   AuthConfig{TokenTTL: 2 * time.Hour},
		Data:   DataConfig{FetchTimeout: 10 * time.Second},
		Quiz: QuizConfig{
			Band:           boundary.DefaultBand,
			DefaultVariant: "long",
			Variants: []model.Variant{
				{Name: "short", Phase2: false, Grid: model.SchemeCoarse, ScreenSize: 5, Checkpoint: 20},
				{Name: "long", Phase2: true, Grid: model.SchemeFine, ScreenSize: 5, Checkpoint: 20},
			},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults and applies environment overrides. A
// missing file or empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	c.Server.Port = getEnvOrDefault("PORT", c.Server.Port)
	c.Mongo.URI = getEnvOrDefault("MONGO_URI", c.Mongo.URI)
	c.Mongo.Database = getEnvOrDefault("MONGO_DB", c.Mongo.Database)
	c.Redis.Addr = strings.TrimPrefix(getEnvOrDefault("REDIS_URI", c.Redis.Addr), "redis://")
	c.Auth.JWTSecret = getEnvOrDefault("JWT_SECRET", c.Auth.JWTSecret)
	c.Data.Questions = getEnvOrDefault("QUESTIONS_SOURCE", c.Data.Questions)
	c.Data.Vectors = getEnvOrDefault("VECTORS_SOURCE", c.Data.Vectors)
	c.Data.GridCoarse = getEnvOrDefault("GRID_COARSE_SOURCE", c.Data.GridCoarse)
	c.Data.GridFine = getEnvOrDefault("GRID_FINE_SOURCE", c.Data.GridFine)
	c.Log.Level = getEnvOrDefault("LOG_LEVEL", c.Log.Level)

	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SESSION_TTL: %w", err)
		}
		c.Redis.SessionTTL = d
	}
	if v := os.Getenv("QUIZ_BAND"); v != "" {
		band, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid QUIZ_BAND: %w", err)
		}
		c.Quiz.Band = band
	}
	return nil
}

// Validate rejects configurations the service cannot run with
func (c *Config) Validate() error {
	var errs []error

	if _, err := boundary.NewDetector(c.Quiz.Band); err != nil {
		errs = append(errs, err)
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET not configured"))
	}
	if c.Redis.SessionTTL <= 0 {
		errs = append(errs, errors.New("session TTL must be positive"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("token TTL must be positive"))
	}
	for code, w := range c.Quiz.Weights {
		if w < 0 {
			errs = append(errs, fmt.Errorf("negative weight for axis %s", code))
		}
	}

	if len(c.Quiz.Variants) == 0 {
		errs = append(errs, errors.New("no questionnaire variants configured"))
	}
	seen := make(map[string]bool)
	for _, v := range c.Quiz.Variants {
		if v.Name == "" {
			errs = append(errs, errors.New("variant without a name"))
			continue
		}
		if seen[v.Name] {
			errs = append(errs, fmt.Errorf("duplicate variant %q", v.Name))
		}
		seen[v.Name] = true
		if v.ScreenSize < 1 {
			errs = append(errs, fmt.Errorf("variant %q: screen size must be at least 1", v.Name))
		}
		if v.Checkpoint < 0 {
			errs = append(errs, fmt.Errorf("variant %q: checkpoint must not be negative", v.Name))
		}
		if v.Grid != model.SchemeCoarse && v.Grid != model.SchemeFine {
			errs = append(errs, fmt.Errorf("variant %q: unknown grid %q", v.Name, v.Grid))
		}
	}
	if !seen[c.Quiz.DefaultVariant] {
		errs = append(errs, fmt.Errorf("default variant %q is not configured", c.Quiz.DefaultVariant))
	}

	return errors.Join(errs...)
}

// Variant looks up a questionnaire variant by name; empty selects the default
func (c *Config) Variant(name string) (model.Variant, bool) {
	if name == "" {
		name = c.Quiz.DefaultVariant
	}
	for _, v := range c.Quiz.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return model.Variant{}, false
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
