package openrent

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"rental-notifier/config"
	"rental-notifier/utils"
)

// listingLinkSelector matches the result cards on the search page.
const listingLinkSelector = "a.pli.clearfix"

// IndexScraper renders the search results page in a headless browser and
// collects the listing ids it links to.
type IndexScraper struct {
	cfg    *config.Config
	logger *utils.Logger
}

// NewIndexScraper creates a ready-to-use IndexScraper.
func NewIndexScraper(cfg *config.Config, logger *utils.Logger) *IndexScraper {
	return &IndexScraper{cfg: cfg, logger: logger}
}

// SearchURL builds the search results URL for the configured area, price
// band and bedroom count.
func SearchURL(cfg *config.Config) string {
	params := []struct{ key, value string }{
		{"term", cfg.CenterAddr},
		{"within", strconv.Itoa(cfg.SearchRadiusKm)},
		{"prices_min", strconv.FormatFloat(cfg.PriceMin, 'f', -1, 64)},
		{"prices_max", strconv.FormatFloat(cfg.PriceMax, 'f', -1, 64)},
		{"bedrooms_min", strconv.Itoa(cfg.BedroomsMin)},
		{"bedrooms_max", strconv.Itoa(cfg.BedroomsMax)},
		{"isLive", "true"},
		{"acceptStudents", "true"},
	}
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, p.key+"="+url.QueryEscape(p.value))
	}
	return strings.TrimRight(cfg.BaseURL, "/") + "/properties-to-rent/?" + strings.Join(parts, "&")
}

// ListingIDs loads the search page, scrolls until no more results are
// lazily loaded, and returns the listing ids in page order.
func (s *IndexScraper) ListingIDs(ctx context.Context) ([]string, error) {
	searchURL := SearchURL(s.cfg)
	s.logger.Info("[index] Loading %s", searchURL)

	chromeBin := findChromeBinary(s.cfg.ChromeBin)
	s.logger.Debug("[index] Using browser binary: %q", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(searchURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("index: load search page: %w", err)
	}

	pause := time.Duration(s.cfg.ScrollPauseMs) * time.Millisecond
	scrolls, err := scrollUntilStable(browserCtx, browserPage{}, pause, s.cfg.MaxScrolls)
	if err != nil {
		return nil, fmt.Errorf("index: scroll: %w", err)
	}
	s.logger.Debug("[index] Page height stable after %d scrolls", scrolls)

	var html string
	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("index: read page: %w", err)
	}

	ids, err := ParseListingIDs(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	s.logger.Info("[index] Received %d listing links", len(ids))
	return ids, nil
}

// pageScroller is the part of a browser tab the scroll loop needs.
type pageScroller interface {
	Height(ctx context.Context) (int64, error)
	ScrollToBottom(ctx context.Context) error
}

// scrollUntilStable scrolls to the bottom until two consecutive scrolls
// report the same page height, or max scrolls have been made. It returns
// the number of scrolls performed.
func scrollUntilStable(ctx context.Context, p pageScroller, pause time.Duration, max int) (int, error) {
	last, err := p.Height(ctx)
	if err != nil {
		return 0, err
	}
	for n := 1; max <= 0 || n <= max; n++ {
		if err := p.ScrollToBottom(ctx); err != nil {
			return n, err
		}
		select {
		case <-ctx.Done():
			return n, ctx.Err()
		case <-time.After(pause):
		}
		h, err := p.Height(ctx)
		if err != nil {
			return n, err
		}
		if h == last {
			return n, nil
		}
		last = h
	}
	return max, nil
}

// browserPage drives the tab attached to the chromedp context it is given.
type browserPage struct{}

func (browserPage) Height(ctx context.Context) (int64, error) {
	var h int64
	err := chromedp.Run(ctx, chromedp.Evaluate(`document.body.scrollHeight`, &h))
	return h, err
}

func (browserPage) ScrollToBottom(ctx context.Context) error {
	return chromedp.Run(ctx, chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil))
}

// ParseListingIDs extracts listing ids from rendered search results. An id
// is the link path without its leading slash; duplicates are dropped.
func ParseListingIDs(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("index: parse html: %w", err)
	}

	seen := utils.NewIDSet()
	var ids []string
	doc.Find(listingLinkSelector).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		id := listingID(href)
		if id != "" && seen.Add(id) {
			ids = append(ids, id)
		}
	})
	return ids, nil
}

func listingID(href string) string {
	href = strings.TrimSpace(href)
	if u, err := url.Parse(href); err == nil && u.Host != "" {
		href = u.Path
	}
	return strings.TrimPrefix(href, "/")
}

// findChromeBinary locates a Chrome/Chromium binary; configured wins.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
