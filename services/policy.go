package services

import (
	"fmt"
	"strings"

	"rental-notifier/config"
	"rental-notifier/models"
)

// Rejection reasons.
const (
	ReasonTooExpensive = "too expensive"
	ReasonTooCheap     = "too cheap"
	ReasonAlreadyLet   = "already let"
	ReasonStudio       = "studio"
	ReasonSharedFlat   = "shared flat"
	ReasonEPCTooLow    = "EPC too low"
)

// WithdrawnMarker is the sentence the site appends to let listings.
const WithdrawnMarker = "Note: This OpenRent Property Is No Longer Available For Rent"

// BannedPhrase rejects listings whose title or description contains Phrase,
// compared case-insensitively.
type BannedPhrase struct {
	Phrase string
	Reason string
}

// ChannelRouting selects the chat channel for accepted listings. Without
// Tiered every listing goes to Default.
type ChannelRouting struct {
	Tiered       bool
	PrimaryRoute string
	CloseMargin  float64
	Default      string
	Close        string
	NoDistance   string
}

// PolicyConfig holds every threshold the policy applies.
type PolicyConfig struct {
	PriceMin        float64
	PriceMax        float64
	WithdrawnMarker string
	BannedPhrases   []BannedPhrase
	BannedEPC       []string
	CommuteRules    []config.CommuteRule
	Routing         ChannelRouting
}

// PolicyFromConfig builds the policy thresholds from application config.
func PolicyFromConfig(cfg *config.Config) PolicyConfig {
	return PolicyConfig{
		PriceMin:        cfg.PriceMin,
		PriceMax:        cfg.PriceMax,
		WithdrawnMarker: WithdrawnMarker,
		BannedPhrases: []BannedPhrase{
			{Phrase: "studio", Reason: ReasonStudio},
			{Phrase: "shared flat", Reason: ReasonSharedFlat},
		},
		BannedEPC:    []string{"E", "F", "G"},
		CommuteRules: cfg.Rules,
		Routing: ChannelRouting{
			Tiered:       cfg.TieredChannels,
			PrimaryRoute: cfg.PrimaryRoute(),
			CloseMargin:  cfg.CloseMargin,
			Default:      cfg.ChannelDefault,
			Close:        cfg.ChannelClose,
			NoDistance:   cfg.ChannelNoDistance,
		},
	}
}

// NotificationPolicy decides whether a listing is worth a notification.
type NotificationPolicy struct {
	cfg       PolicyConfig
	bannedEPC map[string]struct{}
}

// NewNotificationPolicy creates a policy from its thresholds.
func NewNotificationPolicy(cfg PolicyConfig) *NotificationPolicy {
	p := &NotificationPolicy{cfg: cfg, bannedEPC: make(map[string]struct{}, len(cfg.BannedEPC))}
	for _, e := range cfg.BannedEPC {
		p.bannedEPC[strings.ToUpper(e)] = struct{}{}
	}
	return p
}

// Decide applies the rules in order; the first match rejects.
func (p *NotificationPolicy) Decide(l *models.Listing) models.Decision {
	if l.Price > p.cfg.PriceMax {
		return reject(ReasonTooExpensive, "%v > %v", l.Price, p.cfg.PriceMax)
	}
	if l.Price < p.cfg.PriceMin {
		return reject(ReasonTooCheap, "%v < %v", l.Price, p.cfg.PriceMin)
	}

	if p.cfg.WithdrawnMarker != "" && strings.Contains(l.Description, p.cfg.WithdrawnMarker) {
		return reject(ReasonAlreadyLet, "")
	}

	title := strings.ToLower(l.Title)
	desc := strings.ToLower(l.Description)
	for _, b := range p.cfg.BannedPhrases {
		phrase := strings.ToLower(b.Phrase)
		if strings.Contains(desc, phrase) || strings.Contains(title, phrase) {
			return reject(b.Reason, "")
		}
	}

	if l.EPC != "" {
		if _, banned := p.bannedEPC[strings.ToUpper(l.EPC)]; banned {
			return reject(ReasonEPCTooLow, "%s", strings.ToUpper(l.EPC))
		}
	}

	for _, rule := range p.cfg.CommuteRules {
		if m, ok := l.Commute(rule.Route); ok && m > rule.MaxMinutes {
			return reject(rule.Reason, "%s: %.0f min > %.0f min", rule.Route, m, rule.MaxMinutes)
		}
	}

	return models.Decision{Accepted: true, Channel: p.Channel(l)}
}

// Channel picks the destination for an accepted listing: no distance data,
// close (primary commute under its ceiling minus the margin), or default.
func (p *NotificationPolicy) Channel(l *models.Listing) string {
	r := p.cfg.Routing
	if !r.Tiered {
		return r.Default
	}
	m, ok := l.Commute(r.PrimaryRoute)
	if !ok {
		return r.NoDistance
	}
	if ceiling, found := p.ceiling(r.PrimaryRoute); found && m < ceiling-r.CloseMargin {
		return r.Close
	}
	return r.Default
}

func (p *NotificationPolicy) ceiling(route string) (float64, bool) {
	for _, rule := range p.cfg.CommuteRules {
		if rule.Route == route {
			return rule.MaxMinutes, true
		}
	}
	return 0, false
}

func reject(reason, format string, args ...any) models.Decision {
	d := models.Decision{Reason: reason}
	if format != "" {
		d.Detail = fmt.Sprintf(format, args...)
	}
	return d
}
