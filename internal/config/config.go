// Package config handles the user configuration stored in
// ~/.config/bibcheck/config.yml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/contextlab/bibcheck/internal/bibtex"
	"github.com/contextlab/bibcheck/internal/lookup"
)

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "bibcheck"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"

	// MailtoEnv overrides crossref.mailto.
	MailtoEnv = "CROSSREF_MAILTO"

	DefaultWorkers  = 5
	DefaultRate     = 10.0
	DefaultCacheTTL = 30 * 24 * time.Hour
)

// Config holds user settings. Zero values mean the defaults.
type Config struct {
	// TablesDir holds lookup tables that replace the embedded ones.
	TablesDir string `yaml:"tables_dir,omitempty"`
	// KeepFields replaces the field allow-list.
	KeepFields []string `yaml:"keep_fields,omitempty"`
	// Reference is the bibliography compared against by commit.
	Reference string         `yaml:"reference,omitempty"`
	CrossRef  CrossRefConfig `yaml:"crossref,omitempty"`
}

// CrossRefConfig configures external verification.
type CrossRefConfig struct {
	Mailto   string        `yaml:"mailto,omitempty"`
	Workers  int           `yaml:"workers,omitempty"`
	Rate     float64       `yaml:"rate,omitempty"` // requests per second
	Cache    string        `yaml:"cache,omitempty"`
	CacheTTL time.Duration `yaml:"cache_ttl,omitempty"`
}

// Path returns the path to the config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/bibcheck/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// Load reads the config file at path, or at Path() when path is empty.
// A missing file yields the defaults. Environment overrides are applied.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	if v := os.Getenv(MailtoEnv); v != "" {
		cfg.CrossRef.Mailto = v
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.TablesDir = ExpandPath(c.TablesDir)
	c.CrossRef.Cache = ExpandPath(c.CrossRef.Cache)
	if c.Reference == "" {
		c.Reference = bibtex.DefaultSource
	}
	if c.CrossRef.Workers <= 0 {
		c.CrossRef.Workers = DefaultWorkers
	}
	if c.CrossRef.Rate <= 0 {
		c.CrossRef.Rate = DefaultRate
	}
	if c.CrossRef.CacheTTL <= 0 {
		c.CrossRef.CacheTTL = DefaultCacheTTL
	}
}

// Tables loads the lookup tables: the embedded defaults, overridden by
// TablesDir when set, with KeepFields applied last.
func (c *Config) Tables() (*lookup.Tables, error) {
	var (
		t   *lookup.Tables
		err error
	)
	if c.TablesDir != "" {
		t, err = lookup.LoadDir(c.TablesDir)
	} else {
		t, err = lookup.Default()
	}
	if err != nil {
		return nil, err
	}
	if len(c.KeepFields) > 0 {
		t = t.WithKeepFields(c.KeepFields)
	}
	return t, nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
