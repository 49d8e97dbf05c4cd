package openrent

import (
	"context"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"rental-notifier/config"
	"rental-notifier/models"
	"rental-notifier/utils"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// PageFetcher downloads listing pages, one at a time, spaced out by the
// configured rate limit.
type PageFetcher struct {
	baseURL string
	limiter *utils.RateLimiter
	logger  *utils.Logger
	timeout time.Duration
}

// NewPageFetcher creates a PageFetcher for the configured site.
func NewPageFetcher(cfg *config.Config, logger *utils.Logger) *PageFetcher {
	return &PageFetcher{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		limiter: utils.NewRateLimiter(cfg.RateLimitMs),
		logger:  logger,
		timeout: 60 * time.Second,
	}
}

// Fetch returns the raw page for the listing id. Any non-success status or
// transport error is returned as *models.FetchError.
func (f *PageFetcher) Fetch(ctx context.Context, id string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, &models.FetchError{ID: id, Err: err}
	}

	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(f.timeout)

	var (
		body     []byte
		fetchErr error
	)
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = &models.FetchError{ID: id, StatusCode: status, Err: err}
	})

	pageURL := f.baseURL + "/" + strings.TrimPrefix(id, "/")
	f.logger.Debug("[fetcher] GET %s", pageURL)
	if err := c.Visit(pageURL); err != nil && fetchErr == nil {
		fetchErr = &models.FetchError{ID: id, Err: err}
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	return body, nil
}
