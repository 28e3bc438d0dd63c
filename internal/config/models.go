package config

// Config is the whole ibuslink configuration file.
type Config struct {
	Version int          `yaml:"version"`
	Link    LinkConfig   `yaml:"link"`
	Server  ServerConfig `yaml:"server"`
	Sensors []SensorDef  `yaml:"sensors,omitempty"`
}

// LinkConfig describes the serial link to the IBus receiver.
type LinkConfig struct {
	Port      string `yaml:"port"`      // serial device, e.g. /dev/ttyUSB0
	Baud      int    `yaml:"baud"`      // line rate; IBus is always 115200
	Telemetry bool   `yaml:"telemetry"` // answer sensor polls on this link
}

// ServerConfig describes the WebSocket dashboard server.
type ServerConfig struct {
	Listen   string `yaml:"listen"`   // HTTP listen address, e.g. :8642
	Announce bool   `yaml:"announce"` // advertise the server via mDNS
}

// SensorDef is one virtual sensor to register on the bus at startup.
// Sensors are assigned sequential 1-based addresses in file order, so
// reordering entries changes the addresses the transmitter sees.
type SensorDef struct {
	Name string `yaml:"name"`            // display name for the monitor/dashboard
	Type int    `yaml:"type"`            // IBus sensor type code, e.g. 0x01 temperature
	Value int   `yaml:"value,omitempty"` // initial value, optional
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Link: LinkConfig{
			Port:      "/dev/ttyUSB0",
			Baud:      115200,
			Telemetry: false,
		},
		Server: ServerConfig{
			Listen:   ":8642",
			Announce: true,
		},
	}
}
