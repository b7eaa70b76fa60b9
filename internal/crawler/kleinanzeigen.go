package crawler

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"flat_bot/internal/model"
	"flat_bot/internal/price"
)

// Kleinanzeigen extracts offers from kleinanzeigen.de search result pages.
// The site exposes no usable title in list view, so offers carry only
// id, link, price and the posted marker.
type Kleinanzeigen struct {
	client    HTTPClient
	onlyToday bool
}

// NewKleinanzeigen creates a Kleinanzeigen crawler. With onlyToday set,
// listings whose posted marker is older than the current day are not
// emitted at all.
func NewKleinanzeigen(client HTTPClient, onlyToday bool) *Kleinanzeigen {
	return &Kleinanzeigen{client: client, onlyToday: onlyToday}
}

// Name returns the crawler identifier used in store keys.
func (c *Kleinanzeigen) Name() string { return "kleinanzeigen" }

// CrawlOffers fetches the search page and extracts all listed ads.
func (c *Kleinanzeigen) CrawlOffers(ctx context.Context, pageURL string) ([]model.Offer, error) {
	doc, err := fetchDocument(ctx, c.client, pageURL)
	if err != nil {
		return nil, fmt.Errorf("kleinanzeigen: %w", err)
	}

	var offers []model.Offer
	var crawlErr error

	doc.Find("article.aditem").EachWithBreak(func(i int, s *goquery.Selection) bool {
		id, ok := s.Attr("data-adid")
		if !ok || id == "" {
			crawlErr = fmt.Errorf("kleinanzeigen: listing %d has no data-adid", i)
			return false
		}

		priceSel := s.Find("p.aditem-main--middle--price-shipping--price").First()
		if priceSel.Length() == 0 {
			crawlErr = fmt.Errorf("kleinanzeigen: listing %s has no price node", id)
			return false
		}

		posted := strings.TrimSpace(s.Find("div.aditem-main--top--right").First().Text())
		if c.onlyToday && !strings.HasPrefix(posted, "Heute") {
			return true
		}

		href, _ := s.Attr("data-href")
		offers = append(offers, model.Offer{
			ID:         id,
			Link:       resolveLink(pageURL, href),
			Price:      price.Normalize(priceSel.Text()),
			UploadText: posted,
		})
		return true
	})
	if crawlErr != nil {
		return nil, crawlErr
	}
	return offers, nil
}
