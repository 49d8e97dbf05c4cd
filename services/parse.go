package services

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"rental-notifier/models"
)

var (
	// priceRegexp captures the leading decimal once currency and separators are gone
	priceRegexp = regexp.MustCompile(`^\d+(?:\.\d+)?`)
	// epcRegexp accepts a single energy grade
	epcRegexp = regexp.MustCompile(`^[A-G]$`)
	// "15th" -> "15"
	ordinalRegexp = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)\b`)
	// "March, 2025" -> "March 2025"
	monthCommaRegexp = regexp.MustCompile(`(?i)\b((?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*)\s*,\s*(\d{4})\b`)
	// horizontal whitespace runs inside the description
	blankRunRegexp = regexp.MustCompile(`[ \t]+`)

	errMissing = errors.New("element not found")
)

// Feature table labels.
const (
	labelAvailableFrom = "Available From"
	labelEPC           = "EPC Rating"
	labelGarden        = "Garden"
)

// ParseListing turns a listing page into a Listing without commute data.
// Only a missing title or price is fatal; every other field degrades.
func ParseListing(id string, html []byte, now time.Time) (*models.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, &models.ParseError{ID: id, Field: "document", Err: err}
	}
	normaliseIcons(doc)

	priceEl := doc.Find("h3.price-title").First()
	if priceEl.Length() == 0 {
		return nil, &models.ParseError{ID: id, Field: "price", Err: errMissing}
	}
	price, err := parsePrice(priceEl.Text())
	if err != nil {
		return nil, &models.ParseError{ID: id, Field: "price", Err: err}
	}

	titleEl := doc.Find("h1.property-title").First()
	if titleEl.Length() == 0 {
		return nil, &models.ParseError{ID: id, Field: "title", Err: errMissing}
	}
	title := normaliseText(titleEl.Text())

	description := strings.TrimSpace(doc.Find("div.description").First().Text())
	description = blankRunRegexp.ReplaceAllString(description, " ")

	features := parseFeatureTable(doc)
	availableRaw, _ := featureValue(features, labelAvailableFrom)
	epcRaw, _ := featureValue(features, labelEPC)

	return &models.Listing{
		ID:            id,
		Title:         title,
		Address:       DeriveAddress(title),
		Locations:     parseLocationTable(doc),
		Price:         price,
		Description:   description,
		AvailableFrom: normaliseDate(availableRaw, now),
		EPC:           normaliseEPC(epcRaw),
		HasGarden:     parseGarden(features),
		ExtractedAt:   now,
	}, nil
}

// DeriveAddress drops the first comma-separated segment of a title (the
// street or building) and rejoins the rest with commas.
//
// "3 Bed House, Flatland, London SW1" -> "Flatland,London SW1"
//
// The title format is not guaranteed by the site; this is the only place
// that depends on it.
func DeriveAddress(title string) string {
	parts := strings.Split(title, ",")
	if len(parts) < 2 {
		return ""
	}
	rest := make([]string, 0, len(parts)-1)
	for _, p := range parts[1:] {
		if p = strings.TrimSpace(p); p != "" {
			rest = append(rest, p)
		}
	}
	return strings.Join(rest, ",")
}

// normaliseIcons gives icon-only tick/cross cells literal text so feature
// lookups compare strings only.
func normaliseIcons(doc *goquery.Document) {
	doc.Find("i.fa.fa-check").Each(func(_ int, s *goquery.Selection) {
		if strings.TrimSpace(s.Text()) == "" {
			s.SetText("yes")
		}
	})
	doc.Find("i.fa.fa-times").Each(func(_ int, s *goquery.Selection) {
		if strings.TrimSpace(s.Text()) == "" {
			s.SetText("no")
		}
	})
}

// parsePrice strips a leading currency marker and thousands separators.
//
//	"£1,250"         → 1250
//	"£1,250.50 pcm"  → 1250.5
//	"POA"            → error
func parsePrice(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimLeftFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	s = strings.ReplaceAll(s, ",", "")

	match := priceRegexp.FindString(s)
	if match == "" {
		return 0, fmt.Errorf("price %q is not numeric", raw)
	}
	return strconv.ParseFloat(match, 64)
}

func parseFeatureTable(doc *goquery.Document) [][]string {
	var rows [][]string
	doc.Find("div#Features table tr").Each(func(_ int, tr *goquery.Selection) {
		if cells := rowCells(tr); len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	return rows
}

// parseLocationTable keeps page order; the first row is the nearest place.
func parseLocationTable(doc *goquery.Document) []models.LocationRow {
	var rows []models.LocationRow
	doc.Find("div#LocalTransport tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := rowCells(tr)
		if len(cells) == 0 {
			return
		}
		row := models.LocationRow{Place: cells[0]}
		if len(cells) > 1 {
			row.Walking = cells[1]
		}
		rows = append(rows, row)
	})
	return rows
}

// rowCells returns the trimmed, non-empty td texts of a table row.
func rowCells(tr *goquery.Selection) []string {
	var cells []string
	tr.Find("td").Each(func(_ int, td *goquery.Selection) {
		if text := normaliseText(td.Text()); text != "" {
			cells = append(cells, text)
		}
	})
	return cells
}

// featureValue returns the value of the first row with the given label.
func featureValue(rows [][]string, label string) (string, bool) {
	for _, r := range rows {
		if r[0] != label {
			continue
		}
		if len(r) > 1 {
			return r[1], true
		}
		return "", true
	}
	return "", false
}

// parseGarden is tri-state: a missing row is unknown, not false.
func parseGarden(rows [][]string) *bool {
	v, ok := featureValue(rows, labelGarden)
	if !ok {
		return nil
	}
	var has bool
	switch strings.ToLower(v) {
	case "yes":
		has = true
	case "no":
		has = false
	default:
		return nil
	}
	return &has
}

func normaliseEPC(raw string) string {
	epc := strings.ToUpper(strings.TrimSpace(raw))
	if !epcRegexp.MatchString(epc) {
		return ""
	}
	return epc
}

// normaliseDate renders natural-language dates as YYYY-MM-DD, keeping the
// raw text when it cannot be parsed.
func normaliseDate(raw string, now time.Time) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	switch strings.ToLower(raw) {
	case "today", "now", "immediately", "available now":
		return now.Format("2006-01-02")
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format("2006-01-02")
	}
	cleaned := ordinalRegexp.ReplaceAllString(raw, "$1")
	cleaned = monthCommaRegexp.ReplaceAllString(cleaned, "$1 $2")
	t, err := dateparse.ParseIn(normaliseText(cleaned), now.Location())
	if err != nil {
		return raw
	}
	return t.Format("2006-01-02")
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
