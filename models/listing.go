package models

import "time"

// Travel modes understood by the commute resolver.
const (
	ModeTransit = "transit"
	ModeCycling = "cycling"
)

// LocationRow is one row of a listing's local transport table.
type LocationRow struct {
	Place   string `json:"place"`
	Walking string `json:"walking"`
}

// Route names a fixed reference destination reached by one travel mode.
type Route struct {
	Name        string `json:"name" yaml:"name"`
	Label       string `json:"label" yaml:"label"`
	Destination string `json:"destination" yaml:"destination"`
	Mode        string `json:"mode" yaml:"mode"`
}

// CommuteDuration is the resolved travel time for one route.
// Minutes is nil when the directions service gave no usable answer.
type CommuteDuration struct {
	Route   string   `json:"route"`
	Minutes *float64 `json:"minutes"`
}

// Listing is the extracted record for one rental advertisement.
// It is written once and never mutated afterwards.
type Listing struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Address       string            `json:"address"`
	Locations     []LocationRow     `json:"location"`
	Price         float64           `json:"price"`
	Description   string            `json:"description"`
	AvailableFrom string            `json:"available_from"`
	EPC           string            `json:"epc,omitempty"`
	HasGarden     *bool             `json:"has_garden"`
	Commutes      []CommuteDuration `json:"commutes"`
	ExtractedAt   time.Time         `json:"extracted_at"`
}

// Commute returns the minutes for the named route, and whether they are known.
func (l *Listing) Commute(route string) (float64, bool) {
	for _, c := range l.Commutes {
		if c.Route == route && c.Minutes != nil {
			return *c.Minutes, true
		}
	}
	return 0, false
}

// NearestLocation returns the first row of the local transport table.
func (l *Listing) NearestLocation() (LocationRow, bool) {
	if len(l.Locations) == 0 {
		return LocationRow{}, false
	}
	return l.Locations[0], true
}

// Decision is the outcome of the notification policy for one listing.
type Decision struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Channel  string `json:"channel,omitempty"`
}

// RunReport holds per-run counters for the pipeline.
type RunReport struct {
	RunID         string
	StartedAt     time.Time
	FinishedAt    time.Time
	Discovered    int
	New           int
	Retried       int
	Extracted     int
	Cached        int
	Failed        int
	Accepted      int
	Notified      int
	RejectReasons map[string]int
	FailedIDs     []string
	FirstRun      bool
	NotifyEnabled bool
}
