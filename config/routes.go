package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"rental-notifier/models"
)

// Default route names for the two reference destinations.
const (
	RouteTransitWork1 = "transit-to-work-1"
	RouteBicycleWork1 = "bicycle-to-work-1"
	RouteTransitWork2 = "transit-to-work-2"
)

// RoutesFile is the YAML document referenced by ROUTES_FILE.
//
//	routes:
//	  - name: transit-to-work-1
//	    label: Bush House
//	    destination: "Strand, London WC2B 4PJ"
//	    mode: transit
//	rules:
//	  - route: transit-to-work-1
//	    max_minutes: 40
//	    reason: too far from Bush House
type RoutesFile struct {
	Routes []models.Route `yaml:"routes"`
	Rules  []CommuteRule  `yaml:"rules"`
}

// LoadRoutes reads routes and commute rules from a YAML file.
func LoadRoutes(path string) (*RoutesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read routes file %q: %w", path, err)
	}
	var rf RoutesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("config: parse routes file %q: %w", path, err)
	}
	for i := range rf.Routes {
		if rf.Routes[i].Label == "" {
			rf.Routes[i].Label = rf.Routes[i].Destination
		}
	}
	for i := range rf.Rules {
		if rf.Rules[i].Reason == "" {
			rf.Rules[i].Reason = "too far: " + rf.Rules[i].Route
		}
	}
	return &rf, nil
}

// DefaultRoutes builds the transit/bicycle routes to work 1 and the transit
// route to work 2, with one ceiling rule per destination. A destination with
// an empty address is left out, which gives the single-destination setup.
func DefaultRoutes(work1, work2 string, max1, max2 float64) ([]models.Route, []CommuteRule) {
	var routes []models.Route
	var rules []CommuteRule

	if work1 != "" {
		routes = append(routes,
			models.Route{Name: RouteTransitWork1, Label: "destination 1", Destination: work1, Mode: models.ModeTransit},
			models.Route{Name: RouteBicycleWork1, Label: "destination 1", Destination: work1, Mode: models.ModeCycling},
		)
		rules = append(rules, CommuteRule{Route: RouteTransitWork1, MaxMinutes: max1, Reason: "too far from destination 1"})
	}
	if work2 != "" {
		routes = append(routes,
			models.Route{Name: RouteTransitWork2, Label: "destination 2", Destination: work2, Mode: models.ModeTransit},
		)
		rules = append(rules, CommuteRule{Route: RouteTransitWork2, MaxMinutes: max2, Reason: "too far from destination 2"})
	}
	return routes, rules
}

// Validate checks the cross-field constraints of the configuration.
func (c *Config) Validate() error {
	if c.PriceMin > c.PriceMax {
		return fmt.Errorf("config: PRICE_MIN %v is greater than PRICE_MAX %v", c.PriceMin, c.PriceMax)
	}
	switch c.StoreBackend {
	case BackendFile, BackendPostgres:
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.FailedListingPolicy {
	case FailedDrop, FailedRetry:
	default:
		return fmt.Errorf("config: unknown FAILED_LISTING_POLICY %q", c.FailedListingPolicy)
	}

	names := make(map[string]struct{}, len(c.Routes))
	for _, r := range c.Routes {
		if r.Name == "" || r.Destination == "" {
			return fmt.Errorf("config: route %+v needs a name and a destination", r)
		}
		if r.Mode != models.ModeTransit && r.Mode != models.ModeCycling {
			return fmt.Errorf("config: route %q has unknown mode %q", r.Name, r.Mode)
		}
		if _, dup := names[r.Name]; dup {
			return fmt.Errorf("config: duplicate route %q", r.Name)
		}
		names[r.Name] = struct{}{}
	}
	for _, rule := range c.Rules {
		if _, ok := names[rule.Route]; !ok {
			return fmt.Errorf("config: rule references unknown route %q", rule.Route)
		}
		if rule.MaxMinutes <= 0 {
			return fmt.Errorf("config: rule for %q needs max_minutes > 0", rule.Route)
		}
	}
	return nil
}
