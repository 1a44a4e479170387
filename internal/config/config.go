// Package config loads the application configuration from a YAML file and
// the environment.
//
// The credential for the remote store is environment-only: it is read from
// POJEDI_GITHUB_TOKEN (or GITHUB_TOKEN) and never from the file, so config
// files stay safe to commit.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/lk9900/pojedi/internal/github"
	"github.com/lk9900/pojedi/internal/store"
)

// Config is the full application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// Store selects the persistence strategy and cache location.
	Store StoreConfig `yaml:"store"`

	// GitHub addresses the remote backing file. Only read in github mode.
	GitHub github.Config `yaml:"github"`
}

// StoreConfig configures the durable store.
type StoreConfig struct {
	// Mode is "local" or "github". Empty selects automatically: github when
	// a serverless environment is detected (the local filesystem is
	// ephemeral there), local otherwise.
	Mode string `yaml:"mode"`

	// CachePath is the local image file. Defaults to a temp-dir file in
	// github mode and ./pojedi.db in local mode.
	CachePath string `yaml:"cache_path"`
}

// Load reads the config file at path, if any, and fills defaults.
// An empty path yields a pure-default configuration.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SetDefaults fills unset fields, resolving the persistence mode from the
// environment when the file leaves it open.
func (c *Config) SetDefaults() {
	if c.Listen == "" {
		c.Listen = ":3000"
	}

	if c.Store.Mode == "" {
		if serverlessEnvironment() {
			c.Store.Mode = string(store.ModeGitHub)
		} else {
			c.Store.Mode = string(store.ModeLocal)
		}
	}

	if c.Store.CachePath == "" {
		if c.Store.Mode == string(store.ModeGitHub) {
			c.Store.CachePath = filepath.Join(os.TempDir(), "pojedi.db")
		} else {
			c.Store.CachePath = "pojedi.db"
		}
	}

	if c.GitHub.Branch == "" {
		c.GitHub.Branch = "main"
	}
	if c.GitHub.Token == "" {
		c.GitHub.Token = tokenFromEnv()
	}
}

// Validate rejects configurations that cannot serve.
func (c *Config) Validate() error {
	switch store.Mode(c.Store.Mode) {
	case store.ModeLocal:
		return nil
	case store.ModeGitHub:
		if c.GitHub.Owner == "" || c.GitHub.Repo == "" || c.GitHub.Path == "" {
			return fmt.Errorf("github mode requires owner, repo and path")
		}
		if c.GitHub.Token == "" {
			return fmt.Errorf("github mode requires POJEDI_GITHUB_TOKEN or GITHUB_TOKEN")
		}
		return nil
	default:
		return fmt.Errorf("unknown store mode %q", c.Store.Mode)
	}
}

// Mode returns the typed persistence mode.
func (c *Config) Mode() store.Mode {
	return store.Mode(c.Store.Mode)
}

func tokenFromEnv() string {
	if tok := os.Getenv("POJEDI_GITHUB_TOKEN"); tok != "" {
		return tok
	}
	return os.Getenv("GITHUB_TOKEN")
}

// serverlessEnvironment reports whether the process runs on a platform with
// a read-only working directory and ephemeral scratch storage.
func serverlessEnvironment() bool {
	return os.Getenv("VERCEL") != "" || os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}
