// Package inverter controls the SolarEdge home-battery inverter over
// Modbus/TCP. While the car charges, the home battery is idled so it does not
// fast-discharge into the car; afterwards the mode captured at process start
// is restored.
package inverter

import (
	"context"
	"fmt"
	"time"

	"github.com/simonvetter/modbus"

	"github.com/EdwinGH/TeslaPriceBasedCharging/core/logger"
)

// StorEdge holding registers.
const (
	regStorageControlMode = 0xE004 // 0..4, 4 = remote control
	regRemoteCommandMode  = 0xE00D // 0 = off, 1 = charge from excess PV
)

// modeRemoteControl is the storage control mode required before remote
// command writes are honored.
const modeRemoteControl = 4

// Mode is the pair of inverter registers the policy manipulates.
type Mode struct {
	Control uint16
	Command uint16
}

// Config defines the Modbus/TCP connection to the inverter.
type Config struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	Unit int    `json:"unit"`
}

// SetDefaults applies the SolarEdge defaults.
func (c *Config) SetDefaults() {
	if c.Port == 0 {
		c.Port = 1502
	}
	if c.Unit == 0 {
		c.Unit = 1
	}
}

// Enabled reports whether an inverter is configured at all.
func (c Config) Enabled() bool { return c.Host != "" }

// Inverter reads and writes the storage mode registers. Connections are
// opened per operation, matching the inverter's single-client limit.
type Inverter struct {
	cfg Config
	log logger.Logger
}

// New creates an Inverter for the configured endpoint.
func New(cfg Config, log logger.Logger) *Inverter {
	return &Inverter{cfg: cfg, log: log}
}

func (i *Inverter) open() (*modbus.ModbusClient, error) {
	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     fmt.Sprintf("tcp://%s:%d", i.cfg.Host, i.cfg.Port),
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("modbus client: %w", err)
	}
	if err := client.Open(); err != nil {
		return nil, fmt.Errorf("connect inverter: %w", err)
	}
	if err := client.SetUnitId(uint8(i.cfg.Unit)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("set unit id: %w", err)
	}
	return client, nil
}

// ReadMode returns the current storage control and remote command modes.
func (i *Inverter) ReadMode(ctx context.Context) (Mode, error) {
	client, err := i.open()
	if err != nil {
		return Mode{}, err
	}
	defer func() { _ = client.Close() }()

	control, err := client.ReadRegister(regStorageControlMode, modbus.HOLDING_REGISTER)
	if err != nil {
		return Mode{}, fmt.Errorf("read storage control mode: %w", err)
	}
	command, err := client.ReadRegister(regRemoteCommandMode, modbus.HOLDING_REGISTER)
	if err != nil {
		return Mode{}, fmt.Errorf("read remote command mode: %w", err)
	}
	return Mode{Control: control, Command: command}, nil
}

// SetIdle forces the battery into remote control with an idle command so it
// stops discharging. The write is verified with a re-read.
func (i *Inverter) SetIdle(ctx context.Context) error {
	client, err := i.open()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	control, err := client.ReadRegister(regStorageControlMode, modbus.HOLDING_REGISTER)
	if err != nil {
		return fmt.Errorf("read storage control mode: %w", err)
	}
	if control != modeRemoteControl {
		i.log.Infof("inverter not in remote control mode, re-setting")
		if err := client.WriteRegister(regStorageControlMode, modeRemoteControl); err != nil {
			return fmt.Errorf("write storage control mode: %w", err)
		}
		time.Sleep(2 * time.Second)
	}
	if err := client.WriteRegister(regRemoteCommandMode, 0); err != nil {
		return fmt.Errorf("write remote command mode: %w", err)
	}

	time.Sleep(2 * time.Second)
	command, err := client.ReadRegister(regRemoteCommandMode, modbus.HOLDING_REGISTER)
	if err != nil {
		return fmt.Errorf("verify remote command mode: %w", err)
	}
	if command != 0 {
		i.log.Warnf("failed setting remote command mode to 0, current value %d", command)
	}
	return nil
}

// Restore writes back a previously captured mode pair.
func (i *Inverter) Restore(ctx context.Context, saved Mode) error {
	client, err := i.open()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if err := client.WriteRegister(regStorageControlMode, saved.Control); err != nil {
		return fmt.Errorf("write storage control mode: %w", err)
	}
	if err := client.WriteRegister(regRemoteCommandMode, saved.Command); err != nil {
		return fmt.Errorf("write remote command mode: %w", err)
	}
	return nil
}
