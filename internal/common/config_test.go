package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, 8085, config.Server.Port)
	assert.Equal(t, "sqlite", config.Storage.Type)
	assert.Equal(t, "mcp-atlassian", config.Gateway.Command)
	assert.Equal(t, 15, config.Gateway.StartupRetries)
	assert.Equal(t, time.Second, config.Gateway.PollIntervalDuration())
	assert.Equal(t, 30*time.Second, config.Gateway.RequestTimeoutDuration())
	assert.False(t, config.Encryption.AllowGenerated)
}

func TestGatewayDurationStrings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tessera.toml")
	content := `
[gateway]
poll_interval = "250ms"
request_timeout = "5s"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, config.Gateway.PollIntervalDuration())
	assert.Equal(t, 5*time.Second, config.Gateway.RequestTimeoutDuration())

	// Unparseable durations are rejected at load time
	require.NoError(t, os.WriteFile(path, []byte("[gateway]\npoll_interval = \"soon\"\n"), 0644))
	_, err = LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll_interval")
}

func TestLoadShippedConfig(t *testing.T) {
	config, err := LoadFromFile(filepath.Join("..", "..", "deployments", "local", "tessera.toml"))
	require.NoError(t, err)

	assert.Equal(t, 8085, config.Server.Port)
	assert.Equal(t, "sqlite", config.Storage.Type)
	assert.Equal(t, time.Second, config.Gateway.PollIntervalDuration())
	assert.Equal(t, 30*time.Second, config.Gateway.RequestTimeoutDuration())
	assert.True(t, config.Encryption.AllowGenerated)
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tessera.toml")
	content := `
[server]
port = 9090

[storage]
type = "badger"

[gateway]
port = 9000
startup_retries = 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "badger", config.Storage.Type)
	assert.Equal(t, 9000, config.Gateway.Port)
	assert.Equal(t, 5, config.Gateway.StartupRetries)

	// Untouched values keep their defaults
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, "mcp-atlassian", config.Gateway.Command)
}

func TestLoadFromFilesLaterFileWins(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "base.toml")
	second := filepath.Join(dir, "override.toml")
	require.NoError(t, os.WriteFile(first, []byte("[server]\nport = 9090\nhost = \"0.0.0.0\"\n"), 0644))
	require.NoError(t, os.WriteFile(second, []byte("[server]\nport = 9191\n"), 0644))

	config, err := LoadFromFiles(first, second)
	require.NoError(t, err)

	assert.Equal(t, 9191, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TESSERA_PORT", "7070")
	t.Setenv("TESSERA_GATEWAY_PORT", "7071")
	t.Setenv("TESSERA_LOG_LEVEL", "debug")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, 7070, config.Server.Port)
	assert.Equal(t, 7071, config.Gateway.Port)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, 6060, "127.0.0.1")
	assert.Equal(t, 6060, config.Server.Port)
	assert.Equal(t, "127.0.0.1", config.Server.Host)

	// Zero values leave the config alone
	ApplyFlagOverrides(config, 0, "")
	assert.Equal(t, 6060, config.Server.Port)
	assert.Equal(t, "127.0.0.1", config.Server.Host)
}

func TestInvalidStorageTypeRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tessera.toml")
	require.NoError(t, os.WriteFile(path, []byte("[storage]\ntype = \"mysql\"\n"), 0644))

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid storage type")
}

func TestGatewayBaseURL(t *testing.T) {
	gateway := GatewayConfig{Host: "localhost", Port: 8080}
	assert.Equal(t, "http://localhost:8080", gateway.BaseURL())
}
