package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleConf = `{
	"Secret": "file-secret",
	"Port": 8080,
	"Storage": {"driver": "postgres", "dsn": "postgres://localhost/sb"},
	"KV": {"Backend": "redis", "Redis": {"Addr": "localhost:6379", "KeyPrefix": "sb."}},
	"Invitations": {"RetentionHours": 48}
}`

func writeConf(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sportsbridge.conf")
	if err := os.WriteFile(path, []byte(sampleConf), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	conf := Defaults()
	LoadConfig(writeConf(t), &conf)

	assert.Equal(t, "file-secret", conf.Secret)
	assert.Equal(t, 8080, conf.Port)
	assert.Equal(t, "postgres", conf.Storage.Driver)
	assert.Equal(t, "postgres://localhost/sb", conf.Storage.DSN)
	assert.Equal(t, "redis", conf.KV.Backend)
	assert.Equal(t, "sb.", conf.KV.Redis.KeyPrefix)
	assert.Equal(t, 48, conf.Invitations.RetentionHours)
	// untouched defaults survive
	assert.Equal(t, int64(604800), conf.Security.JWTTTLSeconds)
	assert.Equal(t, "local", conf.Uploads.Backend)
}

func TestOverrideConfigWithEnvVars(t *testing.T) {
	t.Setenv("SB_SECRET", "env-secret")
	t.Setenv("SB_PORT", "9999")
	t.Setenv("SB_DEVMODE", "true")
	t.Setenv("SB_STORAGE_DSN", "file:test.db")
	t.Setenv("SB_SECURITY_JWTSECRET", "jwt")
	t.Setenv("SB_CORS_ALLOWEDORIGINS", "http://localhost:3000,https://sportsbridge.app")
	t.Setenv("SB_HTTPSERVEROPTIONS_USESSL", "true")

	conf := Defaults()
	LoadConfig(writeConf(t), &conf)

	assert.Equal(t, "env-secret", conf.Secret)
	assert.Equal(t, 9999, conf.Port)
	assert.True(t, conf.DevMode)
	assert.Equal(t, "file:test.db", conf.Storage.DSN)
	assert.Equal(t, "jwt", conf.Security.JWTSecret)
	assert.Equal(t, []string{"http://localhost:3000", "https://sportsbridge.app"}, conf.CORS.AllowedOrigins)
	assert.True(t, conf.HttpServerOptions.UseSSL)
}

func TestOmitConfigFile(t *testing.T) {
	t.Setenv("SB_OMITCONFIGFILE", "true")

	conf := Defaults()
	LoadConfig(writeConf(t), &conf)

	assert.Equal(t, "", conf.Secret)
	assert.Equal(t, 3010, conf.Port)
	assert.Equal(t, "sqlite", conf.Storage.Driver)
}

func TestSessionSecretFallsBackToEnv(t *testing.T) {
	t.Setenv("SB_OMITCONFIGFILE", "true")
	t.Setenv("SB_SESSION_SECRET", "cookie-secret")

	conf := Defaults()
	LoadConfig("", &conf)

	assert.Equal(t, "cookie-secret", conf.Security.SessionSecret)
}
