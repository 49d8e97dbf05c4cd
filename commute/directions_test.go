package commute

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"rental-notifier/models"
	"rental-notifier/utils"
)

const okResponse = `{
  "status": "OK",
  "geocoded_waypoints": [],
  "routes": [
    {"summary": "first", "legs": [{"duration": {"value": 1830, "text": "31 mins"}}]},
    {"summary": "second", "legs": [{"duration": {"value": 600, "text": "10 mins"}}]}
  ]
}`

type recordingServer struct {
	mu      sync.Mutex
	queries []map[string]string
	body    string
	status  int
}

func (s *recordingServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	q := map[string]string{}
	for k := range r.URL.Query() {
		q[k] = r.URL.Query().Get(k)
	}
	s.queries = append(s.queries, q)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if s.status != 0 {
		w.WriteHeader(s.status)
	}
	_, _ = w.Write([]byte(s.body))
}

func newTestResolver(t *testing.T, srv *httptest.Server) *DirectionsResolver {
	t.Helper()
	r, err := NewDirectionsResolver("AIza-test-key", utils.NewLogger(), WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewDirectionsResolver: %v", err)
	}
	r.now = func() time.Time { return time.Date(2025, time.March, 12, 23, 45, 0, 0, time.UTC) }
	return r
}

func TestDurationUsesFirstRouteFirstLeg(t *testing.T) {
	rec := &recordingServer{body: okResponse}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	m, ok := newTestResolver(t, srv).Duration(context.Background(), "Flatland,London SW1", "Strand, London", models.ModeTransit)
	if !ok {
		t.Fatal("expected a known duration")
	}
	if m != 30.5 {
		t.Errorf("minutes: got %v, want 30.5", m)
	}

	q := rec.queries[0]
	if q["mode"] != "transit" || q["origin"] != "Flatland,London SW1" || q["destination"] != "Strand, London" {
		t.Errorf("query: %v", q)
	}
	want := strconv.FormatInt(time.Date(2025, time.March, 11, 9, 0, 0, 0, time.UTC).Unix(), 10)
	if q["departure_time"] != want {
		t.Errorf("departure_time: got %q, want %q", q["departure_time"], want)
	}
}

func TestDurationCyclingHasNoDepartureTime(t *testing.T) {
	rec := &recordingServer{body: okResponse}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	if _, ok := newTestResolver(t, srv).Duration(context.Background(), "a", "b", models.ModeCycling); !ok {
		t.Fatal("expected a known duration")
	}
	q := rec.queries[0]
	if q["mode"] != "bicycling" {
		t.Errorf("mode: got %q", q["mode"])
	}
	if _, set := q["departure_time"]; set {
		t.Error("cycling requests should not pin a departure time")
	}
}

func TestDurationUnknown(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"not found", `{"status": "NOT_FOUND", "routes": []}`, 0},
		{"zero results", `{"status": "ZERO_RESULTS", "routes": []}`, 0},
		{"server error", `oops`, http.StatusInternalServerError},
		{"no legs", `{"status": "OK", "routes": [{"legs": []}]}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(&recordingServer{body: tt.body, status: tt.status})
			defer srv.Close()

			if m, ok := newTestResolver(t, srv).Duration(context.Background(), "a", "b", models.ModeTransit); ok {
				t.Errorf("expected unknown, got %v", m)
			}
		})
	}
}

func TestDurationUnsupportedMode(t *testing.T) {
	rec := &recordingServer{body: okResponse}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	if _, ok := newTestResolver(t, srv).Duration(context.Background(), "a", "b", "walking"); ok {
		t.Error("unsupported mode should be unknown")
	}
	if len(rec.queries) != 0 {
		t.Error("unsupported mode should not reach the API")
	}
}

func TestDepartureTime(t *testing.T) {
	loc := time.FixedZone("BST", 3600)
	tests := []struct {
		now  time.Time
		want time.Time
	}{
		{time.Date(2025, 3, 12, 23, 59, 0, 0, loc), time.Date(2025, 3, 11, 9, 0, 0, 0, loc)},
		{time.Date(2025, 3, 1, 0, 5, 0, 0, loc), time.Date(2025, 2, 28, 9, 0, 0, 0, loc)},
		{time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC), time.Date(2024, 12, 31, 9, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		if got := DepartureTime(tt.now); !got.Equal(tt.want) {
			t.Errorf("DepartureTime(%v): got %v, want %v", tt.now, got, tt.want)
		}
	}
}

func TestUnknownResolver(t *testing.T) {
	if _, ok := (Unknown{}).Duration(context.Background(), "a", "b", models.ModeTransit); ok {
		t.Error("Unknown should never resolve")
	}
}
