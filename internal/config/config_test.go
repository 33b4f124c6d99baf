package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.Transport.MaxIdleConns != 100 {
		t.Errorf("expected 100, got %d", cfg.Transport.MaxIdleConns)
	}
	if cfg.Vector.Dimension != 1536 {
		t.Errorf("expected 1536, got %d", cfg.Vector.Dimension)
	}
	if !cfg.Database.AutoMigrate {
		t.Error("expected auto_migrate true by default")
	}
}

func TestLoadFromTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.toml")
	os.WriteFile(path, []byte(`
[vector]
dimension = 768
lists = 50

[embedding]
provider = "local"
model = "nomic-embed-text"
`), 0644)

	cfg := Load(path)
	if cfg.Vector.Dimension != 768 {
		t.Errorf("expected 768, got %d", cfg.Vector.Dimension)
	}
	if cfg.Vector.Lists != 50 {
		t.Errorf("expected 50, got %d", cfg.Vector.Lists)
	}
	if cfg.Embedding.Provider != "local" {
		t.Errorf("expected local, got %s", cfg.Embedding.Provider)
	}
	// Defaults preserved for untouched fields
	if cfg.Transport.MaxIdleConns != 100 {
		t.Errorf("default should be preserved, got %d", cfg.Transport.MaxIdleConns)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("VKTEAMS_VECTOR_DIMENSION", "256")
	t.Setenv("VKTEAMS_EMBEDDING_PROVIDER", "hosted")
	t.Setenv("VKTEAMS_EMBEDDING_API_KEY", "env-key")

	cfg := Load("/nonexistent/path.toml")
	if cfg.Vector.Dimension != 256 {
		t.Errorf("expected 256, got %d", cfg.Vector.Dimension)
	}
	if cfg.Embedding.Provider != "hosted" {
		t.Errorf("expected hosted, got %s", cfg.Embedding.Provider)
	}
	if cfg.Embedding.APIKey != "env-key" {
		t.Errorf("expected env-key, got %s", cfg.Embedding.APIKey)
	}
}

func TestEnvOverrideWinsOverTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.toml")
	os.WriteFile(path, []byte("[vector]\ndimension = 768\n"), 0644)
	t.Setenv("VKTEAMS_VECTOR_DIMENSION", "42")

	cfg := Load(path)
	if cfg.Vector.Dimension != 42 {
		t.Errorf("env should win, got %d", cfg.Vector.Dimension)
	}
}
