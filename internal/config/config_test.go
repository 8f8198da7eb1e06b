package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	c := LoadFromEnv()
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, DefaultScopes, c.Meta.Scopes)
	assert.Equal(t, "ig_oauth_state", c.OAuth.StateCookieName)
	assert.Equal(t, 15*time.Minute, c.OAuth.StateTTL)
	assert.Equal(t, 15*time.Second, c.Meta.Timeout)
	assert.Equal(t, 4, c.Cron.Workers)
}

func TestEnvAliases(t *testing.T) {
	t.Setenv("INSTAGRAM_APP_ID", "legacy-id")
	t.Setenv("META_BUSINESS_REDIRECT_URI", "https://app/cb")
	t.Setenv("INSTAGRAM_TOKEN_ENCRYPTION_KEY", "pass")
	c := LoadFromEnv()
	assert.Equal(t, "legacy-id", c.Meta.AppID)
	assert.Equal(t, "https://app/cb", c.Meta.RedirectURI)
	assert.Equal(t, []string{"meta.app_secret"}, c.MissingOAuth())

	t.Setenv("META_APP_ID", "new-id")
	assert.Equal(t, "new-id", LoadFromEnv().Meta.AppID)
}

func TestLoadYAMLWithOverrides(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
storage:
  driver: memory
cache:
  kind: memory
auth:
  jwt_secret: s3cret
cron:
  interval: 6h
meta:
  scopes: "a,b"
`), 0o600))
	t.Setenv("CRON_WORKERS", "8")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 6*time.Hour, c.Cron.Interval)
	assert.Equal(t, 8, c.Cron.Workers)
	assert.Equal(t, "a,b", c.Meta.Scopes)
	assert.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	c := LoadFromEnv()
	c.Storage.Driver = "postgres"
	c.Auth.JWTSecret = "x"
	assert.ErrorIs(t, c.Validate(), ErrMissing)

	c.Storage.Driver = "sqlite"
	assert.Error(t, c.Validate())

	c.Storage.Driver = "memory"
	c.Cache.Kind = "memory"
	c.Meta.Scopes = "pages_show_list,Bad Scope"
	assert.Error(t, c.Validate())
}

func TestRedacted(t *testing.T) {
	c := LoadFromEnv()
	c.Meta.AppSecret = "shh"
	c.Cron.Secret = "cron"
	r := c.Redacted()
	assert.Equal(t, "****", r.Meta.AppSecret)
	assert.Equal(t, "****", r.Cron.Secret)
	assert.Equal(t, "shh", c.Meta.AppSecret)
}

func TestResolveFallsBackToEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("SERVER_ADDR", ":9999")
	c, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, ":9999", c.Server.Addr)

	_, err = Resolve(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
