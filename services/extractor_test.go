package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"rental-notifier/config"
	"rental-notifier/models"
	"rental-notifier/storage"
	"rental-notifier/utils"
)

func testRoutes() []models.Route {
	routes, _ := config.DefaultRoutes("Strand, London", "Heathrow Airport", 40, 60)
	return routes
}

func newTestExtractor(t *testing.T, fetcher *fakeFetcher, resolver *fakeResolver) (*ListingExtractor, *storage.FileStore) {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	e := NewListingExtractor(store, fetcher, resolver, testRoutes(), utils.NewLogger())
	e.now = func() time.Time { return fixedNow }
	return e, store
}

func TestExtractResolvesCommutes(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"123": listingPage}}
	resolver := &fakeResolver{minutes: map[routeKey]float64{
		{"Strand, London", models.ModeTransit}:   30,
		{"Strand, London", models.ModeCycling}:   10,
		{"Heathrow Airport", models.ModeTransit}: 45,
	}}
	e, _ := newTestExtractor(t, fetcher, resolver)

	l, cached, err := e.Extract(context.Background(), "123")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if cached {
		t.Error("first extraction should not be cached")
	}
	if len(l.Commutes) != 3 {
		t.Fatalf("Commutes: got %d, want 3", len(l.Commutes))
	}
	for route, want := range map[string]float64{
		config.RouteTransitWork1: 30,
		config.RouteBicycleWork1: 10,
		config.RouteTransitWork2: 45,
	} {
		got, ok := l.Commute(route)
		if !ok || got != want {
			t.Errorf("Commute(%s): got %v/%v, want %v", route, got, ok, want)
		}
	}
	for _, origin := range resolver.origins {
		if origin != "Flatland,London SW1" {
			t.Errorf("resolver origin: got %q, want derived address", origin)
		}
	}
}

func TestExtractCommuteFailureIsUnknown(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"123": listingPage}}
	resolver := &fakeResolver{minutes: map[routeKey]float64{
		{"Strand, London", models.ModeTransit}: 30,
	}}
	e, _ := newTestExtractor(t, fetcher, resolver)

	l, _, err := e.Extract(context.Background(), "123")
	if err != nil {
		t.Fatalf("a failed commute lookup must not fail extraction: %v", err)
	}
	if _, ok := l.Commute(config.RouteTransitWork1); !ok {
		t.Error("resolved route should be known")
	}
	if _, ok := l.Commute(config.RouteBicycleWork1); ok {
		t.Error("unresolved bicycle route should be unknown")
	}
	if _, ok := l.Commute(config.RouteTransitWork2); ok {
		t.Error("unresolved work 2 route should be unknown")
	}
	if resolver.calls != 3 {
		t.Errorf("each route should be attempted, got %d calls", resolver.calls)
	}
}

func TestExtractStoredListingIsNoOp(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"123": listingPage}}
	resolver := &fakeResolver{}
	e, store := newTestExtractor(t, fetcher, resolver)
	ctx := context.Background()

	stored := &models.Listing{ID: "123", Title: "Stored, Elsewhere", Price: 777}
	if err := store.Put(ctx, stored); err != nil {
		t.Fatal(err)
	}

	l, cached, err := e.Extract(ctx, "123")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !cached {
		t.Error("stored listing should be reported as cached")
	}
	if l.Price != 777 || l.Title != "Stored, Elsewhere" {
		t.Errorf("stored record should be returned unchanged, got %+v", l)
	}
	if len(fetcher.calls) != 0 || resolver.calls != 0 {
		t.Errorf("no network calls expected, got %d fetches / %d commute lookups",
			len(fetcher.calls), resolver.calls)
	}
}

func TestExtractFetchFailure(t *testing.T) {
	e, _ := newTestExtractor(t, &fakeFetcher{}, &fakeResolver{})

	_, _, err := e.Extract(context.Background(), "gone")
	var fe *models.FetchError
	if !errors.As(err, &fe) || fe.StatusCode != 404 {
		t.Fatalf("expected FetchError 404, got %v", err)
	}
}

func TestExtractNoAddressSkipsResolver(t *testing.T) {
	page := `<html><body><h1 class="property-title">Detached house</h1><h3 class="price-title">£1,000</h3></body></html>`
	resolver := &fakeResolver{}
	e, _ := newTestExtractor(t, &fakeFetcher{pages: map[string]string{"7": page}}, resolver)

	l, _, err := e.Extract(context.Background(), "7")
	if err != nil {
		t.Fatal(err)
	}
	if resolver.calls != 0 {
		t.Errorf("resolver should not be called without an address, got %d calls", resolver.calls)
	}
	if len(l.Commutes) != 3 {
		t.Errorf("every route should still be listed as unknown, got %d", len(l.Commutes))
	}
}

func TestExtractCancelledDuringLookupsFails(t *testing.T) {
	resolver := &fakeResolver{minutes: map[routeKey]float64{
		{"Strand, London", models.ModeTransit}: 30,
	}}
	e, store := newTestExtractor(t, &fakeFetcher{}, resolver)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.fetcher = fetchFunc(func(context.Context, string) ([]byte, error) {
		cancel()
		return []byte(listingPage), nil
	})

	l, _, err := e.Extract(ctx, "123")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v (listing %+v)", err, l)
	}
	if resolver.calls != 0 {
		t.Errorf("no lookups expected after cancellation, got %d", resolver.calls)
	}
	if ok, _ := store.Contains(context.Background(), "123"); ok {
		t.Error("nothing should be stored")
	}
}
