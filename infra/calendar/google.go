// Package calendar turns Google Calendar appointments into trip events the
// planner can schedule charging for. Each appointment with a routable
// location is enriched with a Distance Matrix lookup.
package calendar

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/EdwinGH/TeslaPriceBasedCharging/core/logger"
	"github.com/EdwinGH/TeslaPriceBasedCharging/core/model"
)

// minTravelSeconds filters out appointments so close that driving is not
// worth scheduling charge for.
const minTravelSeconds = 100

// Config defines the calendar and directions lookup.
type Config struct {
	// CredentialsFile is the Google service credentials JSON. Empty
	// disables trip planning entirely.
	CredentialsFile string `json:"credentials_file"`
	// CalendarName is the display name of the calendar holding trips.
	CalendarName string `json:"calendar_name"`
	// MapsAPIKey authorizes Distance Matrix lookups.
	MapsAPIKey string `json:"maps_api_key"`
	// MaxResults caps the number of events fetched per cycle.
	MaxResults int64 `json:"max_results"`
}

// SetDefaults applies lookup defaults.
func (c *Config) SetDefaults() {
	if c.MaxResults == 0 {
		c.MaxResults = 10
	}
}

// Enabled reports whether calendar access is configured.
func (c Config) Enabled() bool { return c.CredentialsFile != "" }

// Source fetches upcoming trips from a Google calendar.
type Source struct {
	cfg      Config
	svc      *gcal.Service
	maps     *MapsClient
	kwhPerKm float64
	capacity float64
	log      logger.Logger
}

// NewSource authenticates against the Calendar API. The vehicle consumption
// parameters size the mid-trip recharge estimate.
func NewSource(ctx context.Context, cfg Config, maps *MapsClient, kwhPerKm, capacityKWh float64, log logger.Logger) (*Source, error) {
	svc, err := gcal.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(gcal.CalendarReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}
	return &Source{cfg: cfg, svc: svc, maps: maps, kwhPerKm: kwhPerKm, capacity: capacityKWh, log: log}, nil
}

// Events returns the trips within the lookahead window, ordered by start
// time. An empty result is valid; only transport failures return an error.
func (s *Source) Events(ctx context.Context, lookahead time.Duration) ([]model.TripEvent, error) {
	id, err := s.findCalendar(ctx)
	if err != nil {
		return nil, err
	}
	if id == "" {
		s.log.Warnf("calendar %q not found, continuing without events", s.cfg.CalendarName)
		return nil, nil
	}

	now := time.Now().UTC()
	res, err := s.svc.Events.List(id).
		TimeMin(now.Format(time.RFC3339)).
		TimeMax(now.Add(lookahead).Format(time.RFC3339)).
		MaxResults(s.cfg.MaxResults).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	var trips []model.TripEvent
	for _, ev := range res.Items {
		trip, ok := s.buildTrip(ctx, ev)
		if !ok {
			continue
		}
		trips = append(trips, trip)
		s.log.Infof("at %s until %s %s @ %s (%.1f km, %d s travel)",
			trip.Depart, trip.Return, trip.Summary, ev.Location,
			float64(trip.DistanceM)/1000, trip.TravelSeconds)
	}
	if len(trips) == 0 {
		s.log.Infof("no valid upcoming events found")
	}
	return trips, nil
}

func (s *Source) findCalendar(ctx context.Context) (string, error) {
	list, err := s.svc.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("list calendars: %w", err)
	}
	for _, entry := range list.Items {
		if entry.Summary == s.cfg.CalendarName {
			return entry.Id, nil
		}
	}
	return "", nil
}

// buildTrip converts one calendar event into a trip. Events without a timed
// start, without a usable location, or too close to home are dropped.
func (s *Source) buildTrip(ctx context.Context, ev *gcal.Event) (model.TripEvent, bool) {
	if ev.Location == "" || strings.Contains(ev.Location, "http") {
		s.log.Debugf("skipping %q: no usable location", ev.Summary)
		return model.TripEvent{}, false
	}
	if ev.Start == nil || ev.Start.DateTime == "" || ev.End == nil || ev.End.DateTime == "" {
		s.log.Debugf("skipping %q: all-day event", ev.Summary)
		return model.TripEvent{}, false
	}
	start, err := time.Parse(time.RFC3339, ev.Start.DateTime)
	if err != nil {
		s.log.Warnf("skipping %q: bad start time: %v", ev.Summary, err)
		return model.TripEvent{}, false
	}
	end, err := time.Parse(time.RFC3339, ev.End.DateTime)
	if err != nil {
		s.log.Warnf("skipping %q: bad end time: %v", ev.Summary, err)
		return model.TripEvent{}, false
	}

	location := strings.ReplaceAll(ev.Location, "\n", " ")
	distance, travel, err := s.maps.Directions(ctx, location)
	if err != nil {
		s.log.Warnf("skipping %q: directions lookup failed: %v", ev.Summary, err)
		return model.TripEvent{}, false
	}
	if travel <= minTravelSeconds {
		s.log.Debugf("skipping %q: destination too close", ev.Summary)
		return model.TripEvent{}, false
	}
	return NewTrip(ev.Summary, start, end, distance, travel, s.kwhPerKm, s.capacity), true
}

// NewTrip derives departure and return times from the appointment window and
// travel duration. Trips longer than a full battery add one hour per
// mid-trip recharge.
func NewTrip(summary string, start, end time.Time, distanceM, travelSeconds int64, kwhPerKm, capacityKWh float64) model.TripEvent {
	recharges := int64(math.Floor(float64(distanceM) / 1000 * kwhPerKm / capacityKWh))
	if recharges > 0 {
		travelSeconds += recharges * 3600
	}
	travel := time.Duration(travelSeconds) * time.Second
	return model.TripEvent{
		Summary:       summary,
		Depart:        start.Add(-travel).UTC(),
		Return:        end.Add(travel).UTC(),
		DistanceM:     distanceM,
		TravelSeconds: travelSeconds,
	}
}
