package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  path: ./data/test.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "innkeep", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "x-api-key", cfg.Auth.HeaderAPIKey)
	assert.Equal(t, "innkeep:refresh", cfg.Redis.Channel)
	assert.Equal(t, "exports", cfg.Exports.Path)
	assert.Equal(t, "0 0 2 * * *", cfg.Scheduler.NightlyExport)
	assert.Equal(t, "0 */5 * * * *", cfg.Scheduler.RetrySweep)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_INNKEEP_KEY", "secret-key-1")

	path := writeConfig(t, `
database:
  path: ./data/test.db
auth:
  enabled: true
  api_keys:
    - key: ${TEST_INNKEEP_KEY}
      name: frontdesk
      permissions: [read, write]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Auth.APIKeys, 1)
	assert.Equal(t, "secret-key-1", cfg.Auth.APIKeys[0].Key)
	assert.Equal(t, []string{"read", "write"}, cfg.Auth.APIKeys[0].Permissions)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing database path",
			content: "app:\n  name: innkeep\n",
			wantErr: "database path is required",
		},
		{
			name: "auth enabled without keys",
			content: `
database:
  path: ./data/test.db
auth:
  enabled: true
`,
			wantErr: "no api keys",
		},
		{
			name: "telegram enabled without token",
			content: `
database:
  path: ./data/test.db
telegram:
  enabled: true
  staff_chat_id: 12345
`,
			wantErr: "bot token is missing",
		},
		{
			name: "telegram enabled without chat id",
			content: `
database:
  path: ./data/test.db
telegram:
  enabled: true
  bot_token: 12345:abcdef
`,
			wantErr: "staff chat id is missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestPrometheusPortDefaultsWhenEnabled(t *testing.T) {
	path := writeConfig(t, `
database:
  path: ./data/test.db
monitoring:
  prometheus_enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Monitoring.PrometheusPort)
}
