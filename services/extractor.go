package services

import (
	"context"
	"fmt"
	"time"

	"rental-notifier/models"
	"rental-notifier/storage"
	"rental-notifier/utils"
)

// PageFetcher retrieves the raw markup of one listing page.
// Failures are reported as *models.FetchError.
type PageFetcher interface {
	Fetch(ctx context.Context, id string) ([]byte, error)
}

// CommuteResolver returns the travel time in minutes between two free-text
// addresses, or false when the directions service has no usable answer.
type CommuteResolver interface {
	Duration(ctx context.Context, origin, destination, mode string) (float64, bool)
}

// ListingExtractor builds Listing records from listing pages.
type ListingExtractor struct {
	store    storage.ListingStore
	fetcher  PageFetcher
	resolver CommuteResolver
	routes   []models.Route
	logger   *utils.Logger
	now      func() time.Time
}

// NewListingExtractor creates an extractor resolving the given routes for
// every listing.
func NewListingExtractor(store storage.ListingStore, fetcher PageFetcher, resolver CommuteResolver,
	routes []models.Route, logger *utils.Logger) *ListingExtractor {
	return &ListingExtractor{
		store:    store,
		fetcher:  fetcher,
		resolver: resolver,
		routes:   routes,
		logger:   logger,
		now:      time.Now,
	}
}

// Extract returns the stored record when one exists, without touching the
// network; cached reports that case. Otherwise the page is fetched, parsed
// and enriched with commute durations. The result is not persisted here.
func (e *ListingExtractor) Extract(ctx context.Context, id string) (*models.Listing, bool, error) {
	ok, err := e.store.Contains(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("extractor: check store for %q: %w", id, err)
	}
	if ok {
		l, err := e.store.Get(ctx, id)
		if err != nil {
			return nil, false, fmt.Errorf("extractor: load %q: %w", id, err)
		}
		e.logger.Debug("[extractor] %s already stored, skipping fetch", id)
		return l, true, nil
	}

	l, err := e.ExtractFresh(ctx, id)
	return l, false, err
}

// ExtractFresh always fetches and parses the page, ignoring the store.
func (e *ListingExtractor) ExtractFresh(ctx context.Context, id string) (*models.Listing, error) {
	e.logger.Info("[extractor] Processing listing %s", id)

	html, err := e.fetcher.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	l, err := ParseListing(id, html, e.now())
	if err != nil {
		return nil, err
	}

	l.Commutes = e.resolveCommutes(ctx, l.Address)
	// A lookup cut short by cancellation is not a real "unknown".
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("extractor: %s interrupted during commute lookups: %w", id, err)
	}
	return l, nil
}

// resolveCommutes resolves every route independently; a failed route is
// recorded as unknown and never fails the listing.
func (e *ListingExtractor) resolveCommutes(ctx context.Context, origin string) []models.CommuteDuration {
	out := make([]models.CommuteDuration, 0, len(e.routes))
	for _, r := range e.routes {
		if ctx.Err() != nil {
			break
		}
		cd := models.CommuteDuration{Route: r.Name}
		if origin == "" {
			e.logger.Debug("[extractor] No address to resolve %s from", r.Name)
			out = append(out, cd)
			continue
		}
		if minutes, ok := e.resolver.Duration(ctx, origin, r.Destination, r.Mode); ok {
			m := minutes
			cd.Minutes = &m
		} else {
			e.logger.Debug("[extractor] %s unknown for %q", r.Name, origin)
		}
		out = append(out, cd)
	}
	return out
}
