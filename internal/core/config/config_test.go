package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestReadAppliesDefaults(t *testing.T) {
	p := writeConfig(t, `
jwt:
  secret: "0123456789abcdef0123"
db:
  driver: postgres
  dsn: "postgres://u:p@localhost/app"
`)
	c, err := Read(p)
	require.NoError(t, err)
	assert.Equal(t, "postgres", c.DB.Driver)
	assert.Equal(t, 8080, c.App.HTTP.Port)
	assert.Equal(t, 60, c.JWT.AccessTokenTTLMin)
	assert.Equal(t, int64(300), c.App.Limits.MaxInFlight)
	assert.Equal(t, 300, c.Redis.SnippetTTLSec)
	assert.True(t, c.DB.AutoMigrate)
}

func TestReadEnvOverride(t *testing.T) {
	p := writeConfig(t, `
jwt:
  secret: "0123456789abcdef0123"
app:
  http:
    port: 9000
`)
	t.Setenv("APP_APP_HTTP_PORT", "9100")
	t.Setenv("APP_REDIS_ADDR", "127.0.0.1:6379")
	c, err := Read(p)
	require.NoError(t, err)
	assert.Equal(t, 9100, c.App.HTTP.Port)
	assert.Equal(t, "127.0.0.1:6379", c.Redis.Addr)
}

func TestReadRejectsShortSecret(t *testing.T) {
	p := writeConfig(t, "jwt:\n  secret: short\n")
	_, err := Read(p)
	assert.Error(t, err)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
