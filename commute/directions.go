// Package commute resolves travel times between free-text addresses.
package commute

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"googlemaps.github.io/maps"

	"rental-notifier/models"
	"rental-notifier/utils"
)

// DirectionsResolver looks durations up with the Google Directions API.
type DirectionsResolver struct {
	client *maps.Client
	logger *utils.Logger
	now    func() time.Time
}

// Option configures a DirectionsResolver.
type Option func(*[]maps.ClientOption)

// WithBaseURL points the client at another host; used by tests.
func WithBaseURL(u string) Option {
	return func(opts *[]maps.ClientOption) {
		*opts = append(*opts, maps.WithBaseURL(u))
	}
}

// NewDirectionsResolver creates a resolver authenticated with apiKey.
func NewDirectionsResolver(apiKey string, logger *utils.Logger, opts ...Option) (*DirectionsResolver, error) {
	clientOpts := []maps.ClientOption{maps.WithAPIKey(apiKey)}
	for _, o := range opts {
		o(&clientOpts)
	}
	c, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("commute: create maps client: %w", err)
	}
	return &DirectionsResolver{client: c, logger: logger, now: time.Now}, nil
}

// Duration returns the minutes of the first leg of the first route. Any
// error, including a non-OK status, is reported as unknown.
func (r *DirectionsResolver) Duration(ctx context.Context, origin, destination, mode string) (float64, bool) {
	req := &maps.DirectionsRequest{
		Origin:      origin,
		Destination: destination,
	}
	switch mode {
	case models.ModeTransit:
		req.Mode = maps.TravelModeTransit
		req.DepartureTime = strconv.FormatInt(DepartureTime(r.now()).Unix(), 10)
	case models.ModeCycling:
		req.Mode = maps.TravelModeBicycling
	default:
		r.logger.Warn("[commute] Unsupported mode %q", mode)
		return 0, false
	}

	routes, _, err := r.client.Directions(ctx, req)
	if err != nil {
		r.logger.Debug("[commute] %s -> %s (%s): %v", origin, destination, mode, err)
		return 0, false
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 || routes[0].Legs[0] == nil {
		r.logger.Debug("[commute] %s -> %s (%s): no route", origin, destination, mode)
		return 0, false
	}
	return routes[0].Legs[0].Duration.Minutes(), true
}

// DepartureTime is 09:00 local time on the day before now, so transit
// lookups reflect a weekday-morning schedule rather than the time of the run.
func DepartureTime(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d-1, 9, 0, 0, 0, now.Location())
}

// Unknown resolves nothing; used when no API key is configured.
type Unknown struct{}

func (Unknown) Duration(context.Context, string, string, string) (float64, bool) {
	return 0, false
}
