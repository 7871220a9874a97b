package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got, want := Path(), "/custom/config/bibcheck/config.yml"; got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got, want := Path(), filepath.Join(home, ".config", "bibcheck", "config.yml"); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestLoad_NotFound(t *testing.T) {
	t.Setenv(MailtoEnv, "")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Reference != "github" {
		t.Errorf("Reference = %q, want github", cfg.Reference)
	}
	if cfg.CrossRef.Workers != DefaultWorkers || cfg.CrossRef.Rate != DefaultRate {
		t.Errorf("CrossRef = %+v, want defaults", cfg.CrossRef)
	}
}

func TestLoad_Valid(t *testing.T) {
	t.Setenv(MailtoEnv, "")
	path := filepath.Join(t.TempDir(), "config.yml")
	data := `
tables_dir: ~/tables
keep_fields: [author, title, year]
reference: /data/cdl.bib
crossref:
  mailto: lab@example.org
  workers: 8
  rate: 2.5
  cache: /tmp/crossref.db
  cache_ttl: 48h
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "tables"); cfg.TablesDir != want {
		t.Errorf("TablesDir = %q, want %q", cfg.TablesDir, want)
	}
	if len(cfg.KeepFields) != 3 {
		t.Errorf("KeepFields = %v", cfg.KeepFields)
	}
	if cfg.Reference != "/data/cdl.bib" {
		t.Errorf("Reference = %q", cfg.Reference)
	}
	want := CrossRefConfig{Mailto: "lab@example.org", Workers: 8, Rate: 2.5, Cache: "/tmp/crossref.db", CacheTTL: 48 * time.Hour}
	if cfg.CrossRef != want {
		t.Errorf("CrossRef = %+v, want %+v", cfg.CrossRef, want)
	}
}

func TestLoad_MailtoEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("crossref:\n  mailto: file@example.org\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(MailtoEnv, "env@example.org")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CrossRef.Mailto != "env@example.org" {
		t.Errorf("Mailto = %q, want env override", cfg.CrossRef.Mailto)
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("crossref: [not, a, map"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestTables(t *testing.T) {
	cfg := &Config{KeepFields: []string{"title", "author"}}
	tables, err := cfg.Tables()
	if err != nil {
		t.Fatalf("Tables() error = %v", err)
	}
	if !tables.Keeps("title") || tables.Keeps("journal") {
		t.Errorf("KeepFields() = %v, want the override", tables.KeepFields())
	}
	if !tables.IsPrefix("van") {
		t.Error("embedded prefixes missing")
	}

	cfg = &Config{TablesDir: filepath.Join(t.TempDir(), "missing")}
	if _, err := cfg.Tables(); err == nil {
		t.Error("Tables() expected error for missing tables_dir")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	tests := []struct {
		in   string
		want string
	}{
		{"~/x", filepath.Join(home, "x")},
		{"/abs", "/abs"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
