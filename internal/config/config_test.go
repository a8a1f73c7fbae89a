package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideogrid/internal/boundary"
	"ideogrid/internal/model"
)

func TestLoad_DefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, boundary.DefaultBand, cfg.Quiz.Band)
	assert.Equal(t, "8080", cfg.Server.Port)

	v, ok := cfg.Variant("")
	require.True(t, ok)
	assert.Equal(t, "long", v.Name)
	assert.True(t, v.Phase2)
	assert.Equal(t, 20, v.Checkpoint)

	_, ok = cfg.Variant("medium")
	assert.False(t, ok)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ideogrid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9000"
redis:
  sessionTTL: 45m
quiz:
  band: 12.5
  weights:
    RL-MKT: 2
  defaultVariant: short
  variants:
    - name: short
      phase2: false
      grid: coarse
      screenSize: 6
      checkpoint: 0
data:
  questions: https://example.com/questions.csv
`), 0o644))

	t.Setenv("REDIS_URI", "redis://cache:6379")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("QUIZ_BAND", "8")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 45*time.Minute, cfg.Redis.SessionTTL)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 8.0, cfg.Quiz.Band)
	assert.Equal(t, 2.0, cfg.Quiz.Weights["RL-MKT"])
	assert.Equal(t, "https://example.com/questions.csv", cfg.Data.Questions)
	require.Len(t, cfg.Quiz.Variants, 1)
	assert.Equal(t, model.Variant{Name: "short", Grid: model.SchemeCoarse, ScreenSize: 6}, cfg.Quiz.Variants[0])
	assert.NoError(t, cfg.Validate())
}

func TestLoad_BadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("quiz: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)

	t.Setenv("SESSION_TTL", "forever")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := Default()
		c.Auth.JWTSecret = "x"
		return c
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"band zero", func(c *Config) { c.Quiz.Band = 0 }},
		{"band too wide", func(c *Config) { c.Quiz.Band = 33 }},
		{"no secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"screen size", func(c *Config) { c.Quiz.Variants[0].ScreenSize = 0 }},
		{"negative checkpoint", func(c *Config) { c.Quiz.Variants[1].Checkpoint = -1 }},
		{"unknown grid", func(c *Config) { c.Quiz.Variants[0].Grid = "hex" }},
		{"duplicate variant", func(c *Config) { c.Quiz.Variants[1].Name = "short" }},
		{"missing default", func(c *Config) { c.Quiz.DefaultVariant = "medium" }},
		{"negative weight", func(c *Config) { c.Quiz.Weights = map[string]float64{"RL-MKT": -1} }},
		{"no ttl", func(c *Config) { c.Redis.SessionTTL = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
