// Package crawler extracts structured offers from classified-ad listing pages.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"flat_bot/internal/model"
)

// Crawler is the capability shared by all site-specific extractors.
// CrawlOffers returns the offers currently visible on the given search
// page, in page order. Transport and parse errors propagate to the caller;
// the job layer decides whether a tick is retried or abandoned.
type Crawler interface {
	CrawlOffers(ctx context.Context, pageURL string) ([]model.Offer, error)
	Name() string
}

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError reports a non-2xx response from a listing page.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.Code, e.URL)
}

// IsTransient reports whether an error is worth retrying: network-level
// failures and server-side (5xx) or throttling (429) statuses. Parse
// errors and client-side statuses are permanent for a given page.
func IsTransient(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500 || statusErr.Code == http.StatusTooManyRequests
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
