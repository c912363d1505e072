package mqtt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	assert.False(t, cfg.Enabled())

	cfg.SetDefaults()
	assert.Equal(t, "charging/decisions", cfg.Topic)
	assert.True(t, strings.HasPrefix(cfg.ClientID, "price-charger-"))
	assert.Len(t, cfg.ClientID, len("price-charger-")+8)

	cfg.Broker = "tcp://broker:1883"
	assert.True(t, cfg.Enabled())
}

func TestConfigKeepsExplicitValues(t *testing.T) {
	cfg := Config{Topic: "home/ev", ClientID: "fixed"}
	cfg.SetDefaults()
	assert.Equal(t, "home/ev", cfg.Topic)
	assert.Equal(t, "fixed", cfg.ClientID)
}
