package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MinSize != DefaultMinSize {
		t.Errorf("MinSize = %q, want %q", cfg.MinSize, DefaultMinSize)
	}
	if cfg.DefaultPath != DefaultPath {
		t.Errorf("DefaultPath = %q, want %q", cfg.DefaultPath, DefaultPath)
	}
	if cfg.HashWorkers != DefaultHashWorkers {
		t.Errorf("HashWorkers = %d, want %d", cfg.HashWorkers, DefaultHashWorkers)
	}
	if cfg.Recovery.RetentionDays != DefaultRetentionDays {
		t.Errorf("Recovery.RetentionDays = %d, want %d", cfg.Recovery.RetentionDays, DefaultRetentionDays)
	}
	if cfg.Recovery.Root == "" {
		t.Error("Recovery.Root is empty")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if len(cfg.Exclude) == 0 {
		t.Error("default exclusions are empty")
	}
}

func TestLoadFromFile(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("HOME", t.TempDir())

	dir := filepath.Join(configHome, "reclaim")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := `min_size: 10M
hash_workers: 4
recovery:
  retention_days: 7
logging:
  level: debug
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MinSize != "10M" {
		t.Errorf("MinSize = %q, want 10M", cfg.MinSize)
	}
	if cfg.HashWorkers != 4 {
		t.Errorf("HashWorkers = %d, want 4", cfg.HashWorkers)
	}
	if cfg.Recovery.RetentionDays != 7 {
		t.Errorf("Recovery.RetentionDays = %d, want 7", cfg.Recovery.RetentionDays)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RECLAIM_MIN_SIZE", "25M")
	t.Setenv("RECLAIM_RECOVERY_RETENTION_DAYS", "14")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MinSize != "25M" {
		t.Errorf("MinSize = %q, want env override 25M", cfg.MinSize)
	}
	if cfg.Recovery.RetentionDays != 14 {
		t.Errorf("Recovery.RetentionDays = %d, want env override 14", cfg.Recovery.RetentionDays)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir() error = %v", err)
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/docs", filepath.Join(home, "docs")},
		{"/abs/path", "/abs/path"},
		{"relative", "relative"},
	}

	for _, tt := range tests {
		got, err := ExpandPath(tt.input)
		if err != nil {
			t.Fatalf("ExpandPath(%q) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("xdg set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		dir, err := ConfigDir()
		if err != nil {
			t.Fatalf("ConfigDir() error = %v", err)
		}
		if dir != "/custom/config/reclaim" {
			t.Errorf("ConfigDir() = %q, want /custom/config/reclaim", dir)
		}
	})

	t.Run("xdg unset", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		home := t.TempDir()
		t.Setenv("HOME", home)
		dir, err := ConfigDir()
		if err != nil {
			t.Fatalf("ConfigDir() error = %v", err)
		}
		if dir != filepath.Join(home, ".config", "reclaim") {
			t.Errorf("ConfigDir() = %q", dir)
		}
	})
}
