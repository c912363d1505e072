package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateState(t *testing.T) {
	for state, want := range map[string]string{
		"parked":   "online",
		"driving":  "online",
		"charging": "online",
		"offline":  "offline",
		"asleep":   "offline",
		"updating": "",
		"":         "",
	} {
		assert.Equalf(t, want, TranslateState(state), "state %q", state)
	}
}

func TestConfigDSN(t *testing.T) {
	cfg := Config{User: "charger", Password: "secret", Host: "db.local", Port: 3306}
	cfg.SetDefaults()

	assert.Equal(t,
		"charger:secret@tcp(db.local:3306)/energy?parseTime=true&loc=UTC",
		cfg.dsn(cfg.PricesDatabase))
	assert.Equal(t,
		"charger:secret@tcp(db.local:3306)/vehicles?parseTime=true&loc=UTC",
		cfg.dsn(cfg.VehicleDatabase))
}
