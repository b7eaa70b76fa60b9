package crawler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"flat_bot/internal/model"
	"flat_bot/internal/price"
)

const dateLayout = "02.01.2006"

// WGGesucht extracts offers from wg-gesucht.de search result pages.
// Each recipient subscribes with their own search URL, so filters are
// whatever the recipient configured on the site itself.
type WGGesucht struct {
	client HTTPClient
}

// NewWGGesucht creates a WG-Gesucht crawler using the given HTTP client.
func NewWGGesucht(client HTTPClient) *WGGesucht {
	return &WGGesucht{client: client}
}

// Name returns the crawler identifier used in store keys.
func (c *WGGesucht) Name() string { return "wg_gesucht" }

// CrawlOffers fetches the search page and extracts all listed offers.
func (c *WGGesucht) CrawlOffers(ctx context.Context, pageURL string) ([]model.Offer, error) {
	doc, err := fetchDocument(ctx, c.client, pageURL)
	if err != nil {
		return nil, fmt.Errorf("wg_gesucht: %w", err)
	}

	var offers []model.Offer
	var crawlErr error

	doc.Find("div.offer_list_item").EachWithBreak(func(i int, s *goquery.Selection) bool {
		id, ok := s.Attr("data-id")
		if !ok || id == "" {
			crawlErr = fmt.Errorf("wg_gesucht: listing %d has no data-id", i)
			return false
		}

		href, _ := s.Find("a").First().Attr("href")

		priceSel := s.Find("b").First()
		if priceSel.Length() == 0 {
			crawlErr = fmt.Errorf("wg_gesucht: listing %s has no price node", id)
			return false
		}

		title, _ := s.Find("h3.truncate_title").First().Attr("title")

		beginning, until := parseAvailability(s.Find("div.col-xs-5.text-center").First().Text())

		offers = append(offers, model.Offer{
			ID:         id,
			Title:      strings.TrimSpace(title),
			Link:       resolveLink(pageURL, href),
			Price:      price.Normalize(priceSel.Text()),
			UploadText: strings.TrimSpace(s.Find("div.row.noprint span").Last().Text()),
			Beginning:  beginning,
			Until:      until,
		})
		return true
	})
	if crawlErr != nil {
		return nil, crawlErr
	}
	return offers, nil
}

// parseAvailability parses an availability range like
// "02.03.2024 - 01.06.2024". A single date means open-ended; garbage on
// either side of the dash yields nil for that side.
func parseAvailability(text string) (beginning, until *time.Time) {
	parts := strings.SplitN(strings.TrimSpace(text), "-", 2)
	if t, err := time.Parse(dateLayout, strings.TrimSpace(parts[0])); err == nil {
		beginning = &t
	}
	if len(parts) == 2 {
		if t, err := time.Parse(dateLayout, strings.TrimSpace(parts[1])); err == nil {
			until = &t
		}
	}
	return beginning, until
}
