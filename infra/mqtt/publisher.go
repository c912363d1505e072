// Package mqtt announces charging decisions on an MQTT broker so
// home-automation dashboards can follow what the policy is doing.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	coremetrics "github.com/EdwinGH/TeslaPriceBasedCharging/core/metrics"
	"github.com/EdwinGH/TeslaPriceBasedCharging/infra/logger"
)

// Config defines the connection parameters for the decision publisher.
type Config struct {
	// Broker is the MQTT endpoint, e.g. tcp://host:1883. Empty disables
	// publishing.
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	// Topic receives one JSON message per cycle.
	Topic string `json:"topic"`
	QoS   byte   `json:"qos"`
}

// SetDefaults applies topic and client id defaults.
func (c *Config) SetDefaults() {
	if c.Topic == "" {
		c.Topic = "charging/decisions"
	}
	if c.ClientID == "" {
		c.ClientID = "price-charger-" + uuid.NewString()[:8]
	}
}

// Enabled reports whether a broker is configured.
func (c Config) Enabled() bool { return c.Broker != "" }

// Publisher sends cycle decisions to the configured topic.
type Publisher struct {
	cli   paho.Client
	topic string
	qos   byte
	log   logger.Logger
}

// NewPublisher connects to the broker.
func NewPublisher(cfg Config) (*Publisher, error) {
	log := logger.New("mqtt-publisher")
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnect = func(paho.Client) { log.Infof("MQTT connected") }
	opts.OnConnectionLost = func(_ paho.Client, err error) { log.Errorf("connection lost: %v", err) }

	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &Publisher{cli: cli, topic: cfg.Topic, qos: cfg.QoS, log: log}, nil
}

// RecordCycle publishes the sample as JSON. Implements the metrics Sink so
// the publisher can ride the existing fan-out.
func (p *Publisher) RecordCycle(sm coremetrics.CycleSample) error {
	payload, err := json.Marshal(sm)
	if err != nil {
		return fmt.Errorf("marshal sample: %w", err)
	}
	token := p.cli.Publish(p.topic, p.qos, false, payload)
	if !token.WaitTimeout(5*time.Second) || token.Error() != nil {
		p.log.Warnf("publish decision: %v", token.Error())
		return token.Error()
	}
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.cli.Disconnect(250)
}
