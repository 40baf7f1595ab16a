// Package config assembles dashboard settings from defaults, an optional YAML file
// and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"manus-dashboard/internal/application/port/output"
	"manus-dashboard/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

const DefaultConfigFile = "manus-dashboard.yaml"

type Config struct {
	BaseURL             string              `yaml:"base_url"`
	APIKey              string              `yaml:"api_key"`
	AgentProfile        entity.AgentProfile `yaml:"agent_profile"`
	TimeoutSeconds      int                 `yaml:"timeout_seconds"`
	TaskLimit           int                 `yaml:"task_limit"`
	MaxFileSizeMB       int                 `yaml:"max_file_size_mb"`
	SupportedFileTypes  []string            `yaml:"supported_file_types"`
	FileExpiryHours     int                 `yaml:"file_expiry_hours"`
	PollIntervalSeconds int                 `yaml:"poll_interval_seconds"`
	PollDeadlineSeconds int                 `yaml:"poll_deadline_seconds"`
	ImageMaxWidth       int                 `yaml:"image_max_width"`
	HTTPAddr            string              `yaml:"http_addr"`
	LogLevel            string              `yaml:"log_level"`
}

func Default() *Config {
	return &Config{
		BaseURL:        "https://api.manus.im",
		AgentProfile:   entity.AgentProfileQuality,
		TimeoutSeconds: 300,
		TaskLimit:      50,
		MaxFileSizeMB:  100,
		SupportedFileTypes: []string{
			"pdf", "docx", "doc", "txt", "md",
			"csv", "xlsx", "xls", "json",
			"png", "jpg", "jpeg", "gif", "webp",
			"py", "js", "jsx", "ts", "tsx", "html", "css",
			"zip", "tar", "gz",
		},
		FileExpiryHours:     48,
		PollIntervalSeconds: 3,
		HTTPAddr:            ":8080",
		LogLevel:            "info",
	}
}

// Load reads path (when it exists) over the defaults and then applies environment
// overrides from env. An empty path means DefaultConfigFile.
func Load(path string, env output.ConfigPort) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = DefaultConfigFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if env != nil {
		cfg.applyEnv(env)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) applyEnv(env output.ConfigPort) {
	c.BaseURL = env.GetWithDefault("MANUS_BASE_URL", c.BaseURL)
	c.APIKey = env.GetWithDefault("MANUS_API_KEY", c.APIKey)
	c.AgentProfile = entity.AgentProfile(env.GetWithDefault("MANUS_AGENT_PROFILE", string(c.AgentProfile)))
	c.TimeoutSeconds = env.GetInt("MANUS_TIMEOUT_SECONDS", c.TimeoutSeconds)
	c.TaskLimit = env.GetInt("MANUS_TASK_LIMIT", c.TaskLimit)
	c.MaxFileSizeMB = env.GetInt("MANUS_MAX_FILE_SIZE_MB", c.MaxFileSizeMB)
	c.SupportedFileTypes = env.GetStrings("MANUS_SUPPORTED_FILE_TYPES", c.SupportedFileTypes)
	c.FileExpiryHours = env.GetInt("MANUS_FILE_EXPIRY_HOURS", c.FileExpiryHours)
	c.PollIntervalSeconds = env.GetInt("MANUS_POLL_INTERVAL_SECONDS", c.PollIntervalSeconds)
	c.PollDeadlineSeconds = env.GetInt("MANUS_POLL_DEADLINE_SECONDS", c.PollDeadlineSeconds)
	c.ImageMaxWidth = env.GetInt("MANUS_IMAGE_MAX_WIDTH", c.ImageMaxWidth)
	c.HTTPAddr = env.GetWithDefault("MANUS_HTTP_ADDR", c.HTTPAddr)
	c.LogLevel = env.GetWithDefault("LOG_LEVEL", c.LogLevel)
}

func (c *Config) normalize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.APIKey = strings.TrimSpace(c.APIKey)
	types := make([]string, 0, len(c.SupportedFileTypes))
	for _, t := range c.SupportedFileTypes {
		t = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "."))
		if t != "" {
			types = append(types, t)
		}
	}
	c.SupportedFileTypes = types
}

// Validate reports the first problem found as a *entity.ValidationError.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return &entity.ValidationError{Field: "api_key", Message: "MANUS_API_KEY is not set"}
	}
	if c.BaseURL == "" {
		return &entity.ValidationError{Field: "base_url", Message: "must not be empty"}
	}
	if _, err := entity.ParseAgentProfile(string(c.AgentProfile)); err != nil {
		return err
	}
	if err := entity.ValidateTimeout(c.TimeoutSeconds); err != nil {
		return err
	}
	if c.TaskLimit < entity.MinTaskLimit || c.TaskLimit > entity.MaxTaskLimit {
		return &entity.ValidationError{
			Field:   "task_limit",
			Message: fmt.Sprintf("must be between %d and %d, got %d", entity.MinTaskLimit, entity.MaxTaskLimit, c.TaskLimit),
		}
	}
	if c.MaxFileSizeMB <= 0 {
		return &entity.ValidationError{Field: "max_file_size_mb", Message: "must be positive"}
	}
	if c.PollIntervalSeconds <= 0 {
		return &entity.ValidationError{Field: "poll_interval_seconds", Message: "must be positive"}
	}
	if c.PollDeadlineSeconds < 0 {
		return &entity.ValidationError{Field: "poll_deadline_seconds", Message: "must not be negative"}
	}
	return nil
}

func (c *Config) MaxFileSizeBytes() int {
	return c.MaxFileSizeMB * 1024 * 1024
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c *Config) PollDeadline() time.Duration {
	return time.Duration(c.PollDeadlineSeconds) * time.Second
}

func (c *Config) FileExpiry() time.Duration {
	if c.FileExpiryHours <= 0 {
		return entity.DefaultFileExpiry
	}
	return time.Duration(c.FileExpiryHours) * time.Hour
}

// Redacted returns the settings with the API key masked, for display.
func (c *Config) Redacted() map[string]any {
	key := ""
	if c.APIKey != "" {
		key = "***"
	}
	return map[string]any{
		"base_url":              c.BaseURL,
		"api_key":               key,
		"agent_profile":         c.AgentProfile,
		"timeout_seconds":       c.TimeoutSeconds,
		"task_limit":            c.TaskLimit,
		"max_file_size_mb":      c.MaxFileSizeMB,
		"supported_file_types":  c.SupportedFileTypes,
		"file_expiry_hours":     c.FileExpiryHours,
		"poll_interval_seconds": c.PollIntervalSeconds,
		"poll_deadline_seconds": c.PollDeadlineSeconds,
		"image_max_width":       c.ImageMaxWidth,
		"http_addr":             c.HTTPAddr,
		"log_level":             c.LogLevel,
	}
}
