package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendorai/avp/internal/models"
)

func TestParseInterpolatesEnvironment(t *testing.T) {
	t.Setenv("AVP_TEST_RESEARCH_KEY", "sk-research")

	cfg, err := Parse([]byte(`
research:
  api_key: ${AVP_TEST_RESEARCH_KEY}
platforms:
  grok:
    api_key: ${AVP_TEST_UNSET_KEY}
`))
	require.NoError(t, err)

	assert.Equal(t, "sk-research", cfg.Research.APIKey)
	assert.Empty(t, cfg.Platforms.Grok.APIKey)
	assert.Equal(t, "https://api.x.ai/v1", cfg.Platforms.Grok.BaseURL)
}

func TestParseKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("research:\n  api_key: k\nscanner:\n  pause: 5s\n"))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Scanner.Pause)
	assert.Equal(t, 10*time.Second, cfg.Reports.VendorPause)
	assert.Equal(t, 60*time.Minute, cfg.Reports.IPCooldown)
	assert.Equal(t, "0 6 1 * *", cfg.Reports.StarterSchedule)
	assert.Equal(t, "0 6 * * 1", cfg.Reports.ProSchedule)
	assert.Equal(t, 10, cfg.Reports.BatchMax)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestValidateRequiresResearchKey(t *testing.T) {
	_, err := Parse([]byte("server:\n  port: 8080\n"))
	require.Error(t, err)

	var cfgErr *models.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "research.api_key", cfgErr.Setting)
}

func TestValidateRejectsBadSettings(t *testing.T) {
	cases := map[string]func(*Config){
		"server.port":              func(c *Config) { c.Server.Port = 0 },
		"database.driver":          func(c *Config) { c.Database.Driver = "mongo" },
		"database.url":             func(c *Config) { c.Database.Driver = "postgres" },
		"research.provider":        func(c *Config) { c.Research.Provider = "ollama" },
		"email.mode":               func(c *Config) { c.Email.Mode = "pigeon" },
		"email.smtp_host":          func(c *Config) { c.Email.Mode = "smtp" },
		"reports.starter_schedule": func(c *Config) { c.Reports.StarterSchedule = "every tuesday" },
		"reports.batch_max":        func(c *Config) { c.Reports.BatchMax = 0 },
	}
	for setting, mutate := range cases {
		t.Run(setting, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Research.APIKey = "k"
			mutate(cfg)

			err := cfg.Validate()
			var cfgErr *models.ConfigError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, setting, cfgErr.Setting)
		})
	}
}

func TestPlatformLookup(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Platforms.Meta.APIKey = "meta-key"

	assert.Equal(t, "meta-key", cfg.Platform(models.PlatformMeta).APIKey)
	assert.Equal(t, "sonar", cfg.Platform(models.PlatformPerplexity).Model)
	assert.Equal(t, PlatformConfig{}, cfg.Platform("unknown"))
}

func TestGenerateSampleLoads(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	path := filepath.Join(t.TempDir(), "avp.yaml")

	require.NoError(t, GenerateSample(path))
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-ant", cfg.Research.APIKey)
	assert.Equal(t, "sk-ant", cfg.Platforms.Claude.APIKey)
	assert.Equal(t, "https://www.tendorai.com", cfg.Server.FrontendURL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}
