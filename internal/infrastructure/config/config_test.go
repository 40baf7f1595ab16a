package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"manus-dashboard/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapEnv is a ConfigPort over a fixed map.
type mapEnv map[string]string

func (m mapEnv) Get(key string) string     { return m[key] }
func (m mapEnv) MustGet(key string) string { return m[key] }

func (m mapEnv) GetWithDefault(key, def string) string {
	if v, ok := m[key]; ok && v != "" {
		return v
	}
	return def
}

func (m mapEnv) GetBool(key string, def bool) bool { return def }

func (m mapEnv) GetInt(key string, def int) int {
	if v, ok := m[key]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func (m mapEnv) GetStrings(key string, def []string) []string {
	if v, ok := m[key]; ok && v != "" {
		return strings.Split(v, ",")
	}
	return def
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", mapEnv{"MANUS_API_KEY": "key"})
	require.NoError(t, err)
	assert.Equal(t, "https://api.manus.im", cfg.BaseURL)
	assert.Equal(t, entity.AgentProfileQuality, cfg.AgentProfile)
	assert.Equal(t, 300, cfg.TimeoutSeconds)
	assert.Equal(t, 3*time.Second, cfg.PollInterval())
	assert.Equal(t, entity.DefaultFileExpiry, cfg.FileExpiry())
	assert.Equal(t, 100*1024*1024, cfg.MaxFileSizeBytes())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
base_url: https://example.test/
api_key: from-file
agent_profile: speed
timeout_seconds: 120
supported_file_types: [".PDF", " txt ", ""]
poll_deadline_seconds: 900
`)

	cfg, err := Load(path, mapEnv{"MANUS_TIMEOUT_SECONDS": "90", "MANUS_API_KEY": "from-env"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.test", cfg.BaseURL)
	assert.Equal(t, "from-env", cfg.APIKey)
	assert.Equal(t, entity.AgentProfileSpeed, cfg.AgentProfile)
	assert.Equal(t, 90, cfg.TimeoutSeconds)
	assert.Equal(t, []string{"pdf", "txt"}, cfg.SupportedFileTypes)
	assert.Equal(t, 15*time.Minute, cfg.PollDeadline())
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeFile(t, "timeout_seconds: [oops"), nil)
	assert.ErrorContains(t, err, "parsing config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Config)
		field string
	}{
		{"missing key", func(c *Config) { c.APIKey = "" }, "api_key"},
		{"empty base url", func(c *Config) { c.BaseURL = "" }, "base_url"},
		{"bad profile", func(c *Config) { c.AgentProfile = "fast" }, "agent_profile"},
		{"timeout too low", func(c *Config) { c.TimeoutSeconds = 59 }, "timeout_seconds"},
		{"timeout too high", func(c *Config) { c.TimeoutSeconds = 601 }, "timeout_seconds"},
		{"task limit zero", func(c *Config) { c.TaskLimit = 0 }, "task_limit"},
		{"task limit high", func(c *Config) { c.TaskLimit = 101 }, "task_limit"},
		{"max size", func(c *Config) { c.MaxFileSizeMB = 0 }, "max_file_size_mb"},
		{"poll interval", func(c *Config) { c.PollIntervalSeconds = 0 }, "poll_interval_seconds"},
		{"negative deadline", func(c *Config) { c.PollDeadlineSeconds = -1 }, "poll_deadline_seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.APIKey = "key"
			tt.edit(cfg)

			err := cfg.Validate()
			var verr *entity.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.APIKey = "secret"
	r := cfg.Redacted()
	assert.Equal(t, "***", r["api_key"])
	for k, v := range r {
		assert.NotEqual(t, "secret", v, k)
	}
}
