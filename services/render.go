package services

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"rental-notifier/models"
)

const maxDescriptionRunes = 1000

// RenderMessage formats the chat message for an accepted listing. Routes
// sharing a destination are grouped under one directions link.
func RenderMessage(l *models.Listing, routes []models.Route, baseURL string) string {
	var b strings.Builder

	b.WriteString(l.Title)
	if loc, ok := l.NearestLocation(); ok {
		fmt.Fprintf(&b, " close to %s (%s)", loc.Place, loc.Walking)
	}
	fmt.Fprintf(&b, "\n<%s/%s>.\n\n", strings.TrimRight(baseURL, "/"), l.ID)

	fmt.Fprintf(&b, "Price: %s\n", strconv.FormatFloat(l.Price, 'f', -1, 64))
	fmt.Fprintf(&b, "Available from: %s\n", l.AvailableFrom)
	fmt.Fprintf(&b, "EPC: %s\n", l.EPC)
	if l.HasGarden != nil && *l.HasGarden {
		b.WriteString("With garden. ")
	}
	b.WriteString("\n\n")

	for _, group := range groupByDestination(routes) {
		label := group[0].Label
		if label == "" {
			label = group[0].Destination
		}
		fmt.Fprintf(&b, "Directions to %s: %s.\n", label, directionsLink(l.Address, group[0].Destination))
		for _, r := range group {
			fmt.Fprintf(&b, "Time to %s by %s: %s.\n", label, modeWording(r.Mode), formatMinutes(l, r.Name))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Description: ```%s```", truncateRunes(l.Description, maxDescriptionRunes))
	return b.String()
}

// directionsLink renders a public-transport directions link in chat markup.
// Parameter order is fixed, so the query is assembled by hand.
func directionsLink(from, to string) string {
	link := "http://maps.google.co.uk/?f=d" +
		"&saddr=" + url.QueryEscape(from) +
		"&daddr=" + url.QueryEscape(to) +
		"&dirflg=r"
	return "<" + link + "|maps>"
}

func groupByDestination(routes []models.Route) [][]models.Route {
	var groups [][]models.Route
	index := make(map[string]int)
	for _, r := range routes {
		i, ok := index[r.Destination]
		if !ok {
			i = len(groups)
			index[r.Destination] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], r)
	}
	return groups
}

func modeWording(mode string) string {
	switch mode {
	case models.ModeTransit:
		return "public transport"
	case models.ModeCycling:
		return "bike"
	default:
		return mode
	}
}

func formatMinutes(l *models.Listing, route string) string {
	m, ok := l.Commute(route)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%.0f min", m)
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
