package config

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultListenAddr is where the control API listens.
	DefaultListenAddr = ":8080"

	// DefaultPigpioHost is the host the pigpio daemon usually runs on.
	DefaultPigpioHost = "localhost"

	// DefaultPigpioPort is the port the pigpio daemon usually listens on.
	DefaultPigpioPort = 8888
)

// GlowConfig represents options that configure the global behavior of the program
type GlowConfig struct {
	// ListenAddr is the address of the control API.
	ListenAddr string `yaml:"listen"`

	// LEDs holds one entry per dimmable channel to drive.
	LEDs []LEDConfig `yaml:"leds"`

	// OLA optionally points at an OLA daemon for DMX output. When unset the
	// LEDs are driven as virtual channels.
	OLA *OLAConfig `yaml:"ola"`
}

// LEDConfig describes a single PWM LED channel.
type LEDConfig struct {
	// Name identifies the LED and must be unique.
	Name string `yaml:"name"`

	// Pin is the output pin (or DMX channel) the LED sits on.
	Pin int `yaml:"pin"`

	// Frequency is the optional PWM frequency in Hz.
	Frequency int `yaml:"frequency"`

	// UniqueID is a stable identifier. Generated when left empty.
	UniqueID string `yaml:"unique_id"`

	// Host and Port address the pin driver daemon for this LED. The daemon
	// connection itself is up to the integration that builds the dimmer.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// OLAConfig addresses an OLA daemon.
type OLAConfig struct {
	Address  string `yaml:"address"`
	Universe int    `yaml:"universe"`
}

// NewGlowConfig creates a new GlowConfig object with reasonable defaults for real usage
func NewGlowConfig() (GlowConfig, error) {
	config := GlowConfig{
		ListenAddr: DefaultListenAddr,
	}
	return config, nil
}

// Load reads and validates a YAML config file.
func Load(path string) (GlowConfig, error) {
	config, err := NewGlowConfig()
	if err != nil {
		return config, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("could not read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("could not parse config file %s: %w", path, err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

func (c *GlowConfig) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	for i := range c.LEDs {
		led := &c.LEDs[i]
		if led.Host == "" {
			led.Host = DefaultPigpioHost
		}
		if led.Port == 0 {
			led.Port = DefaultPigpioPort
		}
		if led.UniqueID == "" {
			led.UniqueID = uuid.New().String()
		}
	}
}

// Validate checks the config for mistakes that would only surface at runtime.
func (c *GlowConfig) Validate() error {
	seen := make(map[string]bool, len(c.LEDs))
	for _, led := range c.LEDs {
		if led.Name == "" {
			return fmt.Errorf("every led needs a name")
		}
		if seen[led.Name] {
			return fmt.Errorf("duplicate leds found! name=%s", led.Name)
		}
		seen[led.Name] = true

		if led.Pin <= 0 {
			return fmt.Errorf("led pin (%d) must be positive, name=%s", led.Pin, led.Name)
		}
		if led.Frequency < 0 {
			return fmt.Errorf("led frequency (%d) must not be negative, name=%s", led.Frequency, led.Name)
		}
		if led.Port < 1 || led.Port > 65535 {
			return fmt.Errorf("led port (%d) not in range, name=%s", led.Port, led.Name)
		}
	}
	return nil
}
