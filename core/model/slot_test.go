package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceSlot_Contains(t *testing.T) {
	start := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)
	slot := PriceSlot{Start: start}

	assert.True(t, slot.Contains(start))
	assert.True(t, slot.Contains(start.Add(59*time.Minute)))
	assert.False(t, slot.Contains(start.Add(time.Hour)))
	assert.False(t, slot.Contains(start.Add(-time.Second)))
}

func TestCurrentSlot(t *testing.T) {
	start := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)
	slots := []PriceSlot{
		{Start: start, PriceKWh: 0.10},
		{Start: start.Add(time.Hour), PriceKWh: 0.20},
	}

	cur := CurrentSlot(slots, start.Add(90*time.Minute))
	require.NotNil(t, cur)
	assert.Equal(t, 0.20, cur.PriceKWh)

	assert.Nil(t, CurrentSlot(slots, start.Add(3*time.Hour)))
	assert.Nil(t, CurrentSlot(nil, start))
}

func TestChargeState_String(t *testing.T) {
	assert.Equal(t, "undecided", Undecided.String())
	assert.Equal(t, "reserved", Reserved.String())
	assert.Equal(t, "blocked", Blocked.String())
}
