package services

import (
	"context"
	"errors"
	"sync"

	"rental-notifier/models"
)

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, id string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	page, ok := f.pages[id]
	if !ok {
		return nil, &models.FetchError{ID: id, StatusCode: 404, Err: errors.New("Not Found")}
	}
	return []byte(page), nil
}

type routeKey struct{ destination, mode string }

type fakeResolver struct {
	mu      sync.Mutex
	minutes map[routeKey]float64
	calls   int
	origins []string
}

func (r *fakeResolver) Duration(_ context.Context, origin, destination, mode string) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.origins = append(r.origins, origin)
	m, ok := r.minutes[routeKey{destination, mode}]
	return m, ok
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
	err  error
}

func (n *fakeNotifier) Notify(_ context.Context, msg models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

type fakeIndex struct {
	ids []string
	err error
}

func (f *fakeIndex) ListingIDs(context.Context) ([]string, error) {
	return f.ids, f.err
}

func minutes(m float64) *float64 { return &m }

func boolPtr(b bool) *bool { return &b }
