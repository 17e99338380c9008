package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/review-bot/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: []string{t.TempDir()},
	})
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "30s", cfg.HTTP.Timeout)
	assert.Equal(t, 3, cfg.HTTP.MaxRetries)
	assert.Equal(t, []string{"**/*.go"}, cfg.Review.IncludePatterns)
	assert.Equal(t, 4, cfg.Review.MaxConcurrentFiles)
	assert.False(t, cfg.Store.Enabled)
	assert.Equal(t, "info", cfg.Observability.Logging.Level)
	assert.Equal(t, "console", cfg.Observability.Logging.Format)

	builtin, ok := cfg.Analyzers["builtin"]
	require.True(t, ok, "builtin analyzer should be configured by default")
	assert.True(t, builtin.Enabled)
	assert.Equal(t, "static", builtin.Kind)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
server:
  port: 9090
github:
  owner: bkyoung
  repo: review-bot
review:
  includePatterns:
    - "**/*.go"
    - "cmd/**"
  maxConcurrentFiles: 8
analyzers:
  lintd:
    enabled: true
    kind: http
    url: "http://localhost:7777/analyze"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reviewbot.yaml"), []byte(content), 0o600))

	cfg, err := config.Load(config.LoaderOptions{ConfigPaths: []string{dir}})
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "bkyoung", cfg.GitHub.Owner)
	assert.Equal(t, "review-bot", cfg.GitHub.Repo)
	assert.Equal(t, []string{"**/*.go", "cmd/**"}, cfg.Review.IncludePatterns)
	assert.Equal(t, 8, cfg.Review.MaxConcurrentFiles)

	lintd, ok := cfg.Analyzers["lintd"]
	require.True(t, ok)
	assert.True(t, lintd.Enabled)
	assert.Equal(t, "http", lintd.Kind)
	assert.Equal(t, "http://localhost:7777/analyze", lintd.URL)
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_GH_TOKEN", "ghp_secret")
	t.Setenv("TEST_WEBHOOK_SECRET", "hush")

	dir := t.TempDir()
	content := `
server:
  webhookSecret: "${TEST_WEBHOOK_SECRET}"
github:
  token: "$TEST_GH_TOKEN"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reviewbot.yaml"), []byte(content), 0o600))

	cfg, err := config.Load(config.LoaderOptions{ConfigPaths: []string{dir}})
	require.NoError(t, err)

	assert.Equal(t, "hush", cfg.Server.WebhookSecret)
	assert.Equal(t, "ghp_secret", cfg.GitHub.Token)
}

func TestLoad_UnsetEnvVarLeftIntact(t *testing.T) {
	dir := t.TempDir()
	content := `
github:
  token: "${DEFINITELY_NOT_SET_ANYWHERE}"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reviewbot.yaml"), []byte(content), 0o600))

	cfg, err := config.Load(config.LoaderOptions{ConfigPaths: []string{dir}})
	require.NoError(t, err)

	assert.Equal(t, "${DEFINITELY_NOT_SET_ANYWHERE}", cfg.GitHub.Token)
}

func TestGitHubAppConfig_Configured(t *testing.T) {
	assert.False(t, config.GitHubAppConfig{}.Configured())
	assert.False(t, config.GitHubAppConfig{ID: 1, InstallationID: 2}.Configured())
	assert.True(t, config.GitHubAppConfig{ID: 1, InstallationID: 2, PrivateKeyPath: "key.pem"}.Configured())
}
