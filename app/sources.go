package app

import (
	"context"
	"time"

	"github.com/EdwinGH/TeslaPriceBasedCharging/core/model"
)

// PriceSource supplies the upcoming hourly electricity prices, ascending by
// time and beginning at or before now.
type PriceSource interface {
	UpcomingPrices(ctx context.Context) ([]model.PriceSlot, error)
}

// TelemetrySource supplies cached vehicle state without waking the car.
type TelemetrySource interface {
	Snapshot(ctx context.Context, vin string) (*model.VehicleSnapshot, error)
	Status(ctx context.Context, vin string) (string, error)
	Exists(ctx context.Context, vin string) (bool, error)
}

// TripSource supplies the upcoming trips within the lookahead window. An
// empty result is a valid, non-error outcome.
type TripSource interface {
	Events(ctx context.Context, lookahead time.Duration) ([]model.TripEvent, error)
}
