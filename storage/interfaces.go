package storage

import (
	"context"
	"errors"

	"rental-notifier/models"
)

// ErrNotFound is returned by Get for an id with no stored record.
var ErrNotFound = errors.New("storage: listing not found")

// ErrExists is returned by Put for an id that already has a record.
var ErrExists = errors.New("storage: listing already stored")

// ListingStore holds one extracted record per listing id. Records are
// append-only: Put never overwrites.
type ListingStore interface {
	Contains(ctx context.Context, id string) (bool, error)
	Get(ctx context.Context, id string) (*models.Listing, error)
	Put(ctx context.Context, l *models.Listing) error
}

// KnownStore holds the set of every listing id ever discovered, plus the
// ids whose extraction failed and should be attempted again.
type KnownStore interface {
	// LoadKnown returns the known ids and whether a known set had ever been saved.
	LoadKnown(ctx context.Context) ([]string, bool, error)
	SaveKnown(ctx context.Context, ids []string) error
	LoadRetry(ctx context.Context) ([]string, error)
	SaveRetry(ctx context.Context, ids []string) error
}

// Store is a backend that provides both listing records and the known set.
type Store interface {
	ListingStore
	KnownStore
	Close() error
}

// DecisionWriter records policy outcomes.
type DecisionWriter interface {
	WriteDecision(runID string, l *models.Listing, d models.Decision) error
	Close() error
}
