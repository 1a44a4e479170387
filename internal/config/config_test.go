package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk9900/pojedi/internal/store"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"VERCEL", "AWS_LAMBDA_FUNCTION_NAME", "POJEDI_GITHUB_TOKEN", "GITHUB_TOKEN"} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Listen)
	assert.Equal(t, store.ModeLocal, cfg.Mode())
	assert.Equal(t, "pojedi.db", cfg.Store.CachePath)
}

func TestLoad_ServerlessSelectsGitHubMode(t *testing.T) {
	clearEnv(t)
	t.Setenv("VERCEL", "1")
	t.Setenv("POJEDI_GITHUB_TOKEN", "tok")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
github:
  owner: lk9900
  repo: pojedi-data
  path: database.db
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, store.ModeGitHub, cfg.Mode())
	assert.Equal(t, filepath.Join(os.TempDir(), "pojedi.db"), cfg.Store.CachePath,
		"serverless cache must live in scratch storage")
	assert.Equal(t, "tok", cfg.GitHub.Token)
	assert.Equal(t, "main", cfg.GitHub.Branch)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":8080"
store:
  mode: local
  cache_path: /var/lib/pojedi/db.sqlite
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "/var/lib/pojedi/db.sqlite", cfg.Store.CachePath)
}

func TestLoad_GitHubTokenFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_TOKEN", "fallback-tok")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  mode: github
github:
  owner: lk9900
  repo: pojedi-data
  path: database.db
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fallback-tok", cfg.GitHub.Token)
}

func TestValidate_GitHubModeRequiresAddressing(t *testing.T) {
	clearEnv(t)
	t.Setenv("POJEDI_GITHUB_TOKEN", "tok")

	cfg := Config{Store: StoreConfig{Mode: "github"}}
	cfg.SetDefaults()
	require.Error(t, cfg.Validate())
}

func TestValidate_GitHubModeRequiresToken(t *testing.T) {
	clearEnv(t)

	cfg := Config{
		Store: StoreConfig{Mode: "github"},
	}
	cfg.GitHub.Owner = "lk9900"
	cfg.GitHub.Repo = "pojedi-data"
	cfg.GitHub.Path = "database.db"
	cfg.SetDefaults()
	require.Error(t, cfg.Validate())
}

func TestValidate_UnknownMode(t *testing.T) {
	clearEnv(t)

	cfg := Config{Store: StoreConfig{Mode: "carrier-pigeon"}}
	cfg.SetDefaults()
	require.Error(t, cfg.Validate())
}
