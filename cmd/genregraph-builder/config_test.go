package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`wikipedia_dump_path = "/dumps/enwiki-20240701-pages-articles-multistream.xml.bz2"`), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	want := "/dumps/enwiki-20240701-pages-articles-multistream.xml.bz2"
	if cfg.WikipediaDumpPath != want {
		t.Errorf("WikipediaDumpPath = %q, want %q", cfg.WikipediaDumpPath, want)
	}
}

func TestLoadConfigMissingField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(""), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Fatal("expected an error for a config with no wikipedia_dump_path")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := loadConfig("/does/not/exist.toml"); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
