package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/EdwinGH/TeslaPriceBasedCharging/core/metrics"
	"github.com/EdwinGH/TeslaPriceBasedCharging/infra/calendar"
	"github.com/EdwinGH/TeslaPriceBasedCharging/infra/inverter"
	"github.com/EdwinGH/TeslaPriceBasedCharging/infra/mqtt"
	"github.com/EdwinGH/TeslaPriceBasedCharging/infra/store"
	"github.com/EdwinGH/TeslaPriceBasedCharging/infra/vehicle"
)

// Config is the full service configuration.
type Config struct {
	Vehicle  vehicle.Config  `json:"vehicle"`
	Database store.Config    `json:"database"`
	Inverter inverter.Config `json:"inverter"`
	Calendar calendar.Config `json:"calendar"`
	Charging ChargingConfig  `json:"charging"`
	MQTT     mqtt.Config     `json:"mqtt"`
	Metrics  metrics.Config  `json:"metrics"`
	// PollSeconds is the cycle interval of the control loop.
	PollSeconds int `json:"poll_seconds"`
}

// Load reads the configuration file and applies K_ environment overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies defaults section by section.
func (c *Config) SetDefaults() {
	c.Vehicle.SetDefaults()
	c.Database.SetDefaults()
	c.Inverter.SetDefaults()
	c.Calendar.SetDefaults()
	c.Charging.SetDefaults()
	c.MQTT.SetDefaults()
	if c.PollSeconds == 0 {
		c.PollSeconds = 600
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if err := c.Vehicle.Validate(); err != nil {
		return err
	}
	return c.Charging.Validate()
}
