// Package env provides the receiver configuration shared by the commands.
package env

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/robotalks/wsn.go/pkg/framework"
	"github.com/robotalks/wsn.go/pkg/serio"
)

// Config is the receiver configuration.
type Config struct {
	Port     string `toml:"port"`
	Baud     int    `toml:"baud"`
	DataBits int    `toml:"data_bits"`
	StopBits int    `toml:"stop_bits"`
	Parity   string `toml:"parity"`

	Mode    string `toml:"mode"`
	Address uint   `toml:"address"`

	Interval      time.Duration `toml:"interval"`
	IdleFlush     time.Duration `toml:"idle_flush"`
	PermitTimeout time.Duration `toml:"permit_timeout"`

	// MQTTBrokerURL is mqtt://host:port/topic-prefix, empty disables publishing.
	MQTTBrokerURL string `toml:"mqtt_url"`
	// HTTPAddr serves metrics and the websocket stream, empty disables it.
	HTTPAddr    string `toml:"http_addr"`
	CaptureFile string `toml:"capture_file"`
	NodeID      string `toml:"node_id"`
}

// Defaults.
const (
	DefaultPort          = "/dev/ttyUSB0"
	DefaultMQTTBrokerURL = "mqtt://localhost:1883/wsn/"
	DefaultHTTPAddr      = ":9110"
	DefaultIdleFlush     = 5 * time.Millisecond
	DefaultAddress       = 1
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Port:          DefaultPort,
		Baud:          serio.DefaultBaudRate,
		DataBits:      8,
		StopBits:      1,
		Parity:        "N",
		Mode:          string(serio.ModePolled),
		Address:       DefaultAddress,
		Interval:      framework.DefaultInterval,
		IdleFlush:     DefaultIdleFlush,
		MQTTBrokerURL: DefaultMQTTBrokerURL,
		HTTPAddr:      DefaultHTTPAddr,
	}
}

var (
	defaultConfig = DefaultConfig()
	configFile    string
)

func init() {
	defaultConfig.ApplyEnv(os.Getenv)
}

// ApplyEnv overrides fields from WSN_* environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if val := getenv("WSN_PORT"); val != "" {
		c.Port = val
	}
	if val := getenv("WSN_MQTT_URL"); val != "" {
		c.MQTTBrokerURL = val
	}
}

// SetupFlags registers the configuration flags on flag.CommandLine.
func SetupFlags() {
	SetupFlagSet(flag.CommandLine, &defaultConfig, &configFile)
}

// SetupFlagSet registers flags bound to conf on fs. The -config flag is
// stored in file.
func SetupFlagSet(fs *flag.FlagSet, conf *Config, file *string) {
	fs.StringVar(file, "config", *file, "TOML configuration file.")
	fs.StringVar(&conf.Port, "port", conf.Port, "Serial port device.")
	fs.IntVar(&conf.Baud, "baud", conf.Baud, "Serial baud rate.")
	fs.IntVar(&conf.DataBits, "data-bits", conf.DataBits, "Serial data bits.")
	fs.IntVar(&conf.StopBits, "stop-bits", conf.StopBits, "Serial stop bits, 1 or 2.")
	fs.StringVar(&conf.Parity, "parity", conf.Parity, "Serial parity, N, E or O.")
	fs.StringVar(&conf.Mode, "mode", conf.Mode, "Driver mode: polled, interrupt or blocking.")
	fs.UintVar(&conf.Address, "addr", conf.Address, "Local node address.")
	fs.DurationVar(&conf.Interval, "interval", conf.Interval, "Cooperative loop interval.")
	fs.DurationVar(&conf.IdleFlush, "idle-flush", conf.IdleFlush, "Flush partial input after the line is idle this long, 0 disables.")
	fs.DurationVar(&conf.PermitTimeout, "permit-timeout", conf.PermitTimeout, "Bound on waits for the consumer to release a buffer, 0 waits forever.")
	fs.StringVar(&conf.MQTTBrokerURL, "mqtt", conf.MQTTBrokerURL, "MQTT broker URL, empty disables publishing.")
	fs.StringVar(&conf.HTTPAddr, "http", conf.HTTPAddr, "Metrics and websocket listen address, empty disables.")
	fs.StringVar(&conf.CaptureFile, "capture", conf.CaptureFile, "Append records to this capture file.")
	fs.StringVar(&conf.NodeID, "node", conf.NodeID, "Receiver node ID, defaults to the machine ID.")
}

// Default gets the default config, resolved against -config once flags
// are parsed.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a copy of the default config.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Load resolves the configuration after fs has been parsed: defaults, then
// the -config file, then the environment, then the flags set explicitly.
func Load(fs *flag.FlagSet, flagged *Config, file string) (*Config, error) {
	if file == "" {
		return flagged, flagged.Validate()
	}
	conf := DefaultConfig()
	if err := conf.LoadFile(file); err != nil {
		return nil, err
	}
	conf.ApplyEnv(os.Getenv)
	replay := flag.NewFlagSet("config", flag.ContinueOnError)
	var ignored string
	SetupFlagSet(replay, &conf, &ignored)
	var args []string
	fs.Visit(func(f *flag.Flag) {
		if f.Name != "config" && replay.Lookup(f.Name) != nil {
			args = append(args, "-"+f.Name+"="+f.Value.String())
		}
	})
	if err := replay.Parse(args); err != nil {
		return nil, err
	}
	return &conf, conf.Validate()
}

// Resolve parses the command line flags registered by SetupFlags and
// returns the effective configuration.
func Resolve() (*Config, error) {
	if !flag.Parsed() {
		flag.Parse()
	}
	return Load(flag.CommandLine, &defaultConfig, configFile)
}

// LoadFile overlays the settings defined in a TOML file.
func (c *Config) LoadFile(path string) error {
	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	return nil
}

// PortOptions returns the serial line parameters.
func (c *Config) PortOptions() serio.PortOptions {
	return serio.PortOptions{
		BaudRate: c.Baud,
		DataBits: c.DataBits,
		StopBits: c.StopBits,
		Parity:   c.Parity,
	}
}

// DriverMode returns the parsed driver mode.
func (c *Config) DriverMode() (serio.Mode, error) {
	return serio.ParseMode(c.Mode)
}

// LocalAddress returns the node address records must be sent to.
func (c *Config) LocalAddress() byte {
	return byte(c.Address)
}

// Node returns NodeID, or the machine ID when it is not set.
func (c *Config) Node() string {
	if c.NodeID != "" {
		return c.NodeID
	}
	return MachineID()
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if _, err := c.DriverMode(); err != nil {
		return err
	}
	if _, err := c.PortOptions().Normalize(); err != nil {
		return err
	}
	if c.Address > 0xff {
		return fmt.Errorf("invalid address %d: must fit in a byte", c.Address)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("invalid interval %v", c.Interval)
	}
	if c.IdleFlush < 0 || c.PermitTimeout < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}
