package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseConfig_Defaults(t *testing.T) {
	c, err := ParseConfig([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, ":9000", c.Server.HttpPort)
	assert.Equal(t, "sqlite", c.Database.Type)
	assert.True(t, c.Registry.PublishEvents)
	assert.Equal(t, 65536, c.Registry.MaxPayloadSize)
	assert.Equal(t, "0 3 * * *", c.Snapshot.Cron)
	assert.Equal(t, "en", c.App.DefaultLang)
	assert.Equal(t, "localfs", c.Snapshot.Storage.Type)
	assert.Equal(t, 365*24*time.Hour, c.GetTokenExpiry())
	assert.Equal(t, time.Minute, c.GetStatsInterval())
}

func TestParseConfig_ExplicitFalseIsKept(t *testing.T) {
	c, err := ParseConfig([]byte(`
registry:
  publish-events: false
tracer:
  enabled: false
`))
	require.NoError(t, err)
	assert.False(t, c.Registry.PublishEvents)
	assert.False(t, c.Tracer.Enabled)
}

func TestParseConfig_Durations(t *testing.T) {
	c, err := ParseConfig([]byte(`
security:
  token-expiry: 7d
app:
  write-queue-timeout: 5s
  websocket-ping-interval: 10s
registry:
  stats-interval: "0"
limiter:
  rules:
    - key: /api/note
      fill-interval: 1s
      capacity: 10
      quantum: 10
`))
	require.NoError(t, err)

	assert.Equal(t, 7*24*time.Hour, c.GetTokenExpiry())
	assert.Equal(t, 5*time.Second, c.GetWriteQueueConfig().WriteTimeout)
	assert.Equal(t, 10*time.Second, c.GetEventHubConfig().PingInterval)
	assert.Zero(t, c.GetStatsInterval())

	require.Len(t, c.Limiter.Rules, 1)
	assert.Equal(t, time.Second, c.Limiter.Rules[0].FillInterval)
	assert.Equal(t, int64(10), c.Limiter.Rules[0].Capacity)
}

func TestLoadConfig_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  http-port: \":9100\"\n"), 0644))

	c, realpath, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, realpath)
	assert.Equal(t, ":9100", c.Server.HttpPort)

	c.Registry.MaxPayloadSize = 10
	require.NoError(t, c.Save())

	again, _, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 10, again.Registry.MaxPayloadSize)
	assert.Equal(t, ":9100", again.Server.HttpPort)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestNewApp_Memory(t *testing.T) {
	c, err := ParseConfig([]byte("database:\n  type: memory\n"))
	require.NoError(t, err)

	a, err := NewApp(c, zap.NewNop(), nil)
	require.NoError(t, err)
	require.NotNil(t, a.RegistryService)
	assert.Nil(t, a.Dao)

	require.NoError(t, a.Shutdown(nil))
	assert.True(t, a.IsShuttingDown())
	// second call is a no-op
	require.NoError(t, a.Shutdown(nil))
}

func TestNewApp_RequiresDatabase(t *testing.T) {
	c, err := ParseConfig([]byte("{}"))
	require.NoError(t, err)

	_, err = NewApp(c, zap.NewNop(), nil)
	assert.Error(t, err)
}
