package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

type testConfig struct {
	DB     DBConfig     `yaml:"db"`
	Server ServerConfig `yaml:"server"`
	Auth   AuthConfig   `yaml:"auth"`
}

func TestLoadConfigMergesEnvironmentOverBase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
db:
  host: localhost
  port: 5432
  name: habits
server:
  port: ":8080"
`)
	writeFile(t, dir, "production.yaml", `
db:
  host: db.internal
`)

	merged, err := LoadConfig("production", dir)
	require.NoError(t, err)

	var cfg testConfig
	require.NoError(t, Decode(merged, &cfg))

	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, "habits", cfg.DB.Name)
	assert.Equal(t, ":8080", cfg.Server.Port)
}

func TestLoadConfigMissingEnvFileUsesBase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "server:\n  port: \":9000\"\n")

	merged, err := LoadConfig("staging", dir)
	require.NoError(t, err)

	var cfg testConfig
	require.NoError(t, Decode(merged, &cfg))
	assert.Equal(t, ":9000", cfg.Server.Port)
}

func TestLoadConfigSubstitutesSecrets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
auth:
  user: "${BASIC_USER}"
  password: "${BASIC_PASS}"
`)
	writeFile(t, dir, "secrets.env", "# local secrets\nBASIC_USER=me\nBASIC_PASS=\"s3cret\"\n")

	merged, err := LoadConfig("local", dir)
	require.NoError(t, err)

	var cfg testConfig
	require.NoError(t, Decode(merged, &cfg))
	assert.Equal(t, "me", cfg.Auth.User)
	assert.Equal(t, "s3cret", cfg.Auth.Password)
	assert.True(t, cfg.Auth.Enabled())
}

func TestLoadConfigWithoutBaseFails(t *testing.T) {
	_, err := LoadConfig("local", t.TempDir())
	assert.Error(t, err)
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "pg")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("BASIC_AUTH_USER", "u")
	t.Setenv("BASIC_AUTH_PASS", "")
	t.Setenv("BASIC_AUTH_PASS_HASH", "")
	t.Setenv("HABIT_USER_ID", "7")

	db := DBConfig{Host: "localhost", Port: 5432}
	OverrideDBFromEnv(&db)
	assert.Equal(t, "pg", db.Host)
	assert.Equal(t, 6543, db.Port)

	auth := AuthConfig{}
	OverrideAuthFromEnv(&auth)
	assert.Equal(t, "u", auth.User)
	assert.False(t, auth.Enabled())

	app := AppConfig{UserID: 1}
	OverrideAppFromEnv(&app)
	assert.Equal(t, 7, app.UserID)
}
