package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultNotesDirName   = "NOTEDX_Notes"
	defaultBackupInterval = 60
	defaultIPURL          = "https://api.ipify.org"
	defaultLookupTimeout  = 10
	defaultRegion         = "EG"
	defaultEmbedModel     = "embed-v4.0"
	defaultRerankModel    = "rerank-v3.5"
	defaultEmbedDim       = 1024
)

type Config struct {
	NotesDir              string `json:"notes_dir"`
	BackupIntervalMinutes int    `json:"backup_interval_minutes"`
	BackupKeep            int    `json:"backup_keep"`
	FontPath              string `json:"font_path"`

	PublicIPURL          string `json:"public_ip_url"`
	LookupTimeoutSeconds int    `json:"lookup_timeout_seconds"`
	DefaultRegion        string `json:"default_region"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`

	CohereAPIKey string `json:"cohere_api_key"`
	EmbedModel   string `json:"embed_model"`
	RerankModel  string `json:"rerank_model"`
	EmbedDim     int    `json:"embed_dim"`
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "notedx"), nil
}

func configPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func DBPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "notedx.db"), nil
}

func LogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "notedx.log"), nil
}

// Load reads the config file, applies defaults, then lets a .env file in the
// working directory and the process environment override selected fields.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	_ = godotenv.Load()
	cfg.applyEnv()
	cfg.ApplyDefaults()

	return cfg, nil
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.NotesDir = getEnv("NOTEDX_NOTES_DIR", c.NotesDir)
	c.LogLevel = getEnv("NOTEDX_LOG_LEVEL", c.LogLevel)
	c.PublicIPURL = getEnv("NOTEDX_IP_URL", c.PublicIPURL)
	c.CohereAPIKey = getEnv("COHERE_API_KEY", c.CohereAPIKey)

	if v := os.Getenv("NOTEDX_BACKUP_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.BackupIntervalMinutes = n
		}
	}
}

func (c *Config) ApplyDefaults() {
	if c.NotesDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.NotesDir = filepath.Join(home, defaultNotesDirName)
		} else {
			c.NotesDir = defaultNotesDirName
		}
	}
	if c.BackupIntervalMinutes <= 0 {
		c.BackupIntervalMinutes = defaultBackupInterval
	}
	if c.BackupKeep < 0 {
		c.BackupKeep = 0
	}
	if c.PublicIPURL == "" {
		c.PublicIPURL = defaultIPURL
	}
	if c.LookupTimeoutSeconds <= 0 {
		c.LookupTimeoutSeconds = defaultLookupTimeout
	}
	if c.DefaultRegion == "" {
		c.DefaultRegion = defaultRegion
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.EmbedModel == "" {
		c.EmbedModel = defaultEmbedModel
	}
	if c.RerankModel == "" {
		c.RerankModel = defaultRerankModel
	}
	if c.EmbedDim == 0 {
		c.EmbedDim = defaultEmbedDim
	}
}

func (c *Config) BackupInterval() time.Duration {
	return time.Duration(c.BackupIntervalMinutes) * time.Minute
}

func (c *Config) LookupTimeout() time.Duration {
	return time.Duration(c.LookupTimeoutSeconds) * time.Second
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) SemanticEnabled() bool {
	return c.CohereAPIKey != ""
}

func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	path, err := configPath()
	if err != nil {
		return err
	}

	return c.saveTo(path)
}

func (c *Config) saveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	data = append(data, '\n')
	return os.WriteFile(path, data, 0600)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
