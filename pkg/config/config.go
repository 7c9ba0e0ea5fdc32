// Package config provides the settings of the daemon and its clients.
package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/robotalks/monarco.go/pkg/monarco"
	"github.com/robotalks/monarco.go/pkg/monarco/spi"
	"github.com/robotalks/monarco.go/pkg/rs485"
)

// Register is a service register transaction run at startup, or
// periodically when Periodic is set.
type Register struct {
	Name     string `yaml:"name"`
	Address  uint16 `yaml:"address"`
	Value    uint16 `yaml:"value"`
	Write    bool   `yaml:"write"`
	Periodic bool   `yaml:"periodic"`
}

// Bridge configures the remote links.
type Bridge struct {
	// MQTTURL e.g. mqtt://host:port/topic-prefix/
	MQTTURL string `yaml:"mqtt"`
	// ID identifies the device on the broker.
	ID string `yaml:"id"`
	// Listen is the address of the length prefixed TCP link.
	Listen string `yaml:"listen"`
	// WebSocket is the listen address of the websocket link.
	WebSocket    string `yaml:"websocket"`
	PublishEvery uint64 `yaml:"publish_every"`
}

// Config is the daemon configuration.
type Config struct {
	Device         string        `yaml:"device"`
	ClockHz        int64         `yaml:"clock_hz"`
	IntervalMs     int           `yaml:"interval_ms"`
	Sim            bool          `yaml:"sim"`
	RearmOnTimeout bool          `yaml:"rearm_on_timeout"`
	Registers      []Register    `yaml:"registers"`
	RS485          *rs485.Config `yaml:"rs485"`
	Bridge         Bridge        `yaml:"bridge"`
}

var defaultConfig = Config{
	Device:     spi.DefaultDevice,
	ClockHz:    int64(spi.DefaultClock / physic.Hertz),
	IntervalMs: 20,
	Bridge: Bridge{
		MQTTURL:      "mqtt://localhost:1883/monarco/",
		PublishEvery: 50,
	},
}

func init() {
	if val := os.Getenv("MONARCO_DEVICE"); val != "" {
		defaultConfig.Device = val
	}
	if val := os.Getenv("MONARCO_MQTT_URL"); val != "" {
		defaultConfig.Bridge.MQTTURL = val
	}
	if val := os.Getenv("MONARCO_ID"); val != "" {
		defaultConfig.Bridge.ID = val
	} else {
		defaultConfig.Bridge.ID = MachineID()
	}
}

// MachineID retrieves the unique ID identifying the machine, "monarco" if
// unavailable.
func MachineID() string {
	id, err := machineid.ID()
	if err != nil {
		glog.Warningf("machine id: %v", err)
		return "monarco"
	}
	return id
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Device, "device", defaultConfig.Device, "SPI device.")
	flag.BoolVar(&defaultConfig.Sim, "sim", defaultConfig.Sim, "Use the simulated HAT instead of SPI.")
	flag.IntVar(&defaultConfig.IntervalMs, "interval", defaultConfig.IntervalMs, "Cycle interval in milliseconds.")
	flag.StringVar(&defaultConfig.Bridge.MQTTURL, "mqtt", defaultConfig.Bridge.MQTTURL, "MQTT broker URL, empty to disable.")
	flag.StringVar(&defaultConfig.Bridge.ID, "id", defaultConfig.Bridge.ID, "Device ID.")
	flag.StringVar(&defaultConfig.Bridge.Listen, "listen", defaultConfig.Bridge.Listen, "TCP link listen address.")
	flag.StringVar(&defaultConfig.Bridge.WebSocket, "websocket", defaultConfig.Bridge.WebSocket, "Websocket link listen address.")
}

// SetupClientFlags sets the command line flags used by clients.
func SetupClientFlags() {
	flag.StringVar(&defaultConfig.Bridge.MQTTURL, "mqtt", defaultConfig.Bridge.MQTTURL, "MQTT broker URL.")
	flag.StringVar(&defaultConfig.Bridge.ID, "id", defaultConfig.Bridge.ID, "Device ID to connect.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	conf := NewConfig()
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if conf.RS485 != nil {
		conf.RS485.Normalize()
	}
	return conf, conf.Validate()
}

// MustLoad loads the file or fails.
func MustLoad(path string) *Config {
	conf, err := Load(path)
	if err != nil {
		log.Fatalln(err)
	}
	return conf
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.IntervalMs <= 0 {
		return fmt.Errorf("interval_ms must be > 0")
	}
	if !c.Sim && c.Device == "" {
		return fmt.Errorf("device is required")
	}
	if c.ClockHz <= 0 {
		return fmt.Errorf("clock_hz must be > 0")
	}
	seen := make(map[Register]string)
	for n, r := range c.Registers {
		name := r.Name
		if name == "" {
			name = fmt.Sprintf("#%d", n)
		}
		if r.Address > 0xFFF {
			return fmt.Errorf("register %q: invalid address 0x%x", name, r.Address)
		}
		if r.Periodic && r.Write {
			return fmt.Errorf("register %q: periodic writes are not supported", name)
		}
		key := Register{Address: r.Address, Write: r.Write}
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("register %q: duplicates %q", name, prev)
		}
		seen[key] = name
	}
	if c.RS485 != nil {
		if err := c.RS485.Validate(); err != nil {
			return err
		}
	}
	if c.Bridge.MQTTURL != "" && c.Bridge.ID == "" {
		return fmt.Errorf("bridge: id is required with mqtt")
	}
	if n := len(c.Items()); n > monarco.MaxItems {
		return fmt.Errorf("%d register items exceed the limit of %d", n, monarco.MaxItems)
	}
	return nil
}

// Interval is the cycle interval.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// Clock is the SPI clock frequency.
func (c *Config) Clock() physic.Frequency {
	return physic.Frequency(c.ClockHz) * physic.Hertz
}

// Items builds the register table: configured registers followed by the
// RS-485 port setup.
func (c *Config) Items() []*monarco.Item {
	items := make([]*monarco.Item, 0, len(c.Registers))
	for _, r := range c.Registers {
		switch {
		case r.Periodic:
			items = append(items, monarco.PeriodicItem(r.Address))
		case r.Write:
			items = append(items, monarco.WriteItem(r.Address, r.Value))
		default:
			items = append(items, monarco.ReadItem(r.Address))
		}
	}
	if c.RS485 != nil {
		items = append(items, c.RS485.Items()...)
	}
	return items
}
