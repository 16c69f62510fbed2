package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	if cfg.NotesDir == "" {
		t.Error("expected notes dir default")
	}
	if filepath.Base(cfg.NotesDir) != "NOTEDX_Notes" {
		t.Errorf("expected notes dir to end in NOTEDX_Notes, got '%s'", cfg.NotesDir)
	}
	if cfg.BackupInterval() != 60*time.Minute {
		t.Errorf("expected 60m backup interval, got %s", cfg.BackupInterval())
	}
	if cfg.PublicIPURL != "https://api.ipify.org" {
		t.Errorf("expected ipify url, got '%s'", cfg.PublicIPURL)
	}
	if cfg.EmbedModel != "embed-v4.0" {
		t.Errorf("expected embed model 'embed-v4.0', got '%s'", cfg.EmbedModel)
	}
	if cfg.RerankModel != "rerank-v3.5" {
		t.Errorf("expected rerank model 'rerank-v3.5', got '%s'", cfg.RerankModel)
	}
	if cfg.EmbedDim != 1024 {
		t.Errorf("expected embed dim 1024, got %d", cfg.EmbedDim)
	}
	if cfg.SemanticEnabled() {
		t.Error("semantic search should be disabled without an API key")
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{
		NotesDir:              "/tmp/notes",
		BackupIntervalMinutes: 5,
		BackupKeep:            -3,
		DefaultRegion:         "US",
	}
	cfg.ApplyDefaults()

	if cfg.NotesDir != "/tmp/notes" {
		t.Errorf("expected notes dir to be kept, got '%s'", cfg.NotesDir)
	}
	if cfg.BackupInterval() != 5*time.Minute {
		t.Errorf("expected 5m, got %s", cfg.BackupInterval())
	}
	if cfg.BackupKeep != 0 {
		t.Errorf("expected negative keep to clamp to 0, got %d", cfg.BackupKeep)
	}
	if cfg.DefaultRegion != "US" {
		t.Errorf("expected region US, got '%s'", cfg.DefaultRegion)
	}
}

func TestConfigSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := &Config{
		NotesDir:     "/path/to/notes",
		CohereAPIKey: "test-api-key",
		BackupKeep:   4,
	}
	if err := cfg.saveTo(path); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected 0600 perms, got %o", info.Mode().Perm())
	}

	loaded, err := loadFile(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if loaded.NotesDir != cfg.NotesDir {
		t.Errorf("expected dir '%s', got '%s'", cfg.NotesDir, loaded.NotesDir)
	}
	if loaded.CohereAPIKey != cfg.CohereAPIKey {
		t.Errorf("expected API key '%s', got '%s'", cfg.CohereAPIKey, loaded.CohereAPIKey)
	}
	if loaded.BackupKeep != 4 {
		t.Errorf("expected keep 4, got %d", loaded.BackupKeep)
	}
}

func TestLoadFileMissing(t *testing.T) {
	cfg, err := loadFile(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing config should not fail: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected empty config")
	}
}

func TestLoadFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := loadFile(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("NOTEDX_NOTES_DIR", "/env/notes")
	t.Setenv("COHERE_API_KEY", "env-key")
	t.Setenv("NOTEDX_BACKUP_MINUTES", "15")

	cfg := &Config{NotesDir: "/file/notes"}
	cfg.applyEnv()
	cfg.ApplyDefaults()

	if cfg.NotesDir != "/env/notes" {
		t.Errorf("expected env override, got '%s'", cfg.NotesDir)
	}
	if !cfg.SemanticEnabled() {
		t.Error("expected semantic search enabled with env key")
	}
	if cfg.BackupInterval() != 15*time.Minute {
		t.Errorf("expected 15m, got %s", cfg.BackupInterval())
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.level}
		if got := cfg.SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
