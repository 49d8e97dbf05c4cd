package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"rental-notifier/models"
)

func renderListing() *models.Listing {
	l := goodListing()
	l.ID = "property-to-rent/london/3-bed-house/123"
	l.Address = "Flatland,London SW1"
	l.AvailableFrom = "2025-04-01"
	l.Locations = []models.LocationRow{{Place: "Pimlico", Walking: "5 min walk"}}
	l.HasGarden = boolPtr(true)
	l.Commutes[1].Minutes = nil
	return l
}

func TestRenderMessageLayout(t *testing.T) {
	msg := RenderMessage(renderListing(), testRoutes(), "https://www.openrent.co.uk/")

	wants := []string{
		"3 Bed House, Flatland, London SW1 close to Pimlico (5 min walk)\n",
		"<https://www.openrent.co.uk/property-to-rent/london/3-bed-house/123>.\n\n",
		"Price: 1200\n",
		"Available from: 2025-04-01\n",
		"EPC: C\n",
		"With garden. ",
		"Directions to destination 1: <http://maps.google.co.uk/?f=d&saddr=Flatland%2CLondon+SW1&daddr=Strand%2C+London&dirflg=r|maps>.\n",
		"Time to destination 1 by public transport: 30 min.\n",
		"Time to destination 1 by bike: unknown.\n",
		"Directions to destination 2: <http://maps.google.co.uk/?f=d&saddr=Flatland%2CLondon+SW1&daddr=Heathrow+Airport&dirflg=r|maps>.\n",
		"Time to destination 2 by public transport: 45 min.\n",
		"Description: ```A bright family home with three bedrooms.```",
	}
	for _, want := range wants {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q\n---\n%s", want, msg)
		}
	}
	if strings.Count(msg, "Directions to destination 1") != 1 {
		t.Error("routes sharing a destination should share one directions line")
	}
}

func TestRenderMessageGarden(t *testing.T) {
	for _, garden := range []*bool{nil, boolPtr(false)} {
		l := renderListing()
		l.HasGarden = garden
		if strings.Contains(RenderMessage(l, testRoutes(), "https://example.com"), "With garden") {
			t.Errorf("garden %v should not be mentioned", garden)
		}
	}
}

func TestRenderMessageNoLocation(t *testing.T) {
	l := renderListing()
	l.Locations = nil
	msg := RenderMessage(l, testRoutes(), "https://example.com")
	if strings.Contains(msg, "close to") {
		t.Errorf("no location table should drop the proximity clause:\n%s", msg)
	}
}

func TestRenderMessageTruncatesDescription(t *testing.T) {
	l := renderListing()
	l.Description = strings.Repeat("é", 1500)

	msg := RenderMessage(l, testRoutes(), "https://example.com")
	start := strings.Index(msg, "```") + 3
	end := strings.LastIndex(msg, "```")
	desc := msg[start:end]
	if n := utf8.RuneCountInString(desc); n != 1000 {
		t.Errorf("description length: got %d runes, want 1000", n)
	}
}
