package env

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/wsn.go/pkg/serio"
)

func parse(t *testing.T, args ...string) (*Config, error) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	conf := DefaultConfig()
	var file string
	SetupFlagSet(fs, &conf, &file)
	require.NoError(t, fs.Parse(args))
	return Load(fs, &conf, file)
}

func TestDefaults(t *testing.T) {
	conf, err := parse(t)
	require.NoError(t, err)
	assert.Equal(t, serio.DefaultBaudRate, conf.Baud)
	assert.Equal(t, byte(1), conf.LocalAddress())
	assert.Equal(t, DefaultMQTTBrokerURL, conf.MQTTBrokerURL)
	mode, err := conf.DriverMode()
	require.NoError(t, err)
	assert.Equal(t, serio.ModePolled, mode)
}

func TestFlags(t *testing.T) {
	conf, err := parse(t, "-mode", "blocking", "-addr", "9", "-permit-timeout", "2s", "-parity", "even")
	require.NoError(t, err)
	assert.Equal(t, "blocking", conf.Mode)
	assert.Equal(t, byte(9), conf.LocalAddress())
	assert.Equal(t, 2*time.Second, conf.PermitTimeout)
	opts, err := conf.PortOptions().Normalize()
	require.NoError(t, err)
	assert.Equal(t, "E", opts.Parity)
}

func TestConfigFileUnderFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wsn.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
port = "/dev/ttyS3"
baud = 19200
mode = "interrupt"
idle_flush = "20ms"
mqtt_url = ""
`), 0644))

	conf, err := parse(t, "-config", path, "-baud", "4800")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyS3", conf.Port)
	assert.Equal(t, 4800, conf.Baud)
	assert.Equal(t, "interrupt", conf.Mode)
	assert.Equal(t, 20*time.Millisecond, conf.IdleFlush)
	assert.Empty(t, conf.MQTTBrokerURL)
}

func TestConfigFileErrors(t *testing.T) {
	_, err := parse(t, "-config", filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	conf := DefaultConfig()
	conf.ApplyEnv(func(key string) string {
		return map[string]string{"WSN_PORT": "/dev/ttyACM1", "WSN_MQTT_URL": "mqtt://broker:1883/x/"}[key]
	})
	assert.Equal(t, "/dev/ttyACM1", conf.Port)
	assert.Equal(t, "mqtt://broker:1883/x/", conf.MQTTBrokerURL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"mode", func(c *Config) { c.Mode = "dma" }},
		{"stop bits", func(c *Config) { c.StopBits = 3 }},
		{"parity", func(c *Config) { c.Parity = "mark" }},
		{"address", func(c *Config) { c.Address = 256 }},
		{"interval", func(c *Config) { c.Interval = 0 }},
		{"timeout", func(c *Config) { c.PermitTimeout = -time.Second }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			conf := DefaultConfig()
			tc.modify(&conf)
			assert.Error(t, conf.Validate())
		})
	}
	conf := DefaultConfig()
	assert.NoError(t, conf.Validate())
}

func TestNode(t *testing.T) {
	conf := DefaultConfig()
	conf.NodeID = "rx1"
	assert.Equal(t, "rx1", conf.Node())
	conf.NodeID = ""
	assert.NotEmpty(t, conf.Node())
}
