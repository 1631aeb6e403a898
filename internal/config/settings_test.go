package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	s, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/app/lights.yaml", s.ConfigPath)
	assert.Equal(t, ":80", s.HTTPAddr)
	assert.Equal(t, 80, s.HTTPPort())
	assert.Equal(t, "info", s.LogLevel)
	assert.True(t, s.LogColors)
	assert.Equal(t, "homeassistant", s.MQTTDiscoveryPrefix)
	assert.Equal(t, "hsasct", s.MQTTTopicPrefix)
	assert.False(t, s.MQTTEnabled())
	assert.True(t, s.SSDPEnabled)
	assert.Equal(t, time.Second, s.EventsMinBackoff)
	assert.Equal(t, 2*time.Minute, s.EventsMaxBackoff)
}

func TestLoad_Environment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HASS_URL", "http://ha:8123")
	t.Setenv("HTTP_ADDR", "0.0.0.0:8080")
	t.Setenv("MQTT_BROKER", "tcp://mqtt:1883")
	t.Setenv("SSDP_ENABLED", "false")
	t.Setenv("EVENTS_MAX_BACKOFF", "30s")

	s, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://ha:8123", s.HassURL)
	assert.Equal(t, 8080, s.HTTPPort())
	assert.True(t, s.MQTTEnabled())
	assert.False(t, s.SSDPEnabled)
	assert.Equal(t, 30*time.Second, s.EventsMaxBackoff)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(file, []byte("log_level: debug\nmqtt_topic_prefix: lights\n"), 0o600))
	t.Setenv("LOG_LEVEL", "warn")

	s, err := Load(file)
	require.NoError(t, err)

	assert.Equal(t, "lights", s.MQTTTopicPrefix)
	// Environment wins over the file.
	assert.Equal(t, "warn", s.LogLevel)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

// chdir changes the working directory for the duration of the test,
// equivalent to testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
