// Package model defines the domain types used across the application.
package model

import (
	"fmt"
	"time"
)

// Offer is an immutable snapshot of a single listing taken during one crawl.
// Offers are never persisted individually; only their IDs are remembered.
type Offer struct {
	ID         string
	Title      string // empty when the site does not expose a title
	Link       string // absolute URL
	Price      int    // 0 when the price text carries no digits
	UploadText string // verbatim "posted" marker, empty when absent
	Beginning  *time.Time
	Until      *time.Time
}

// Subscription binds a chat to one crawler and the URL it watches.
type Subscription struct {
	ChatID    int64
	Crawler   string
	URL       string
	CreatedAt time.Time
}

// Key returns the store key for this subscription, namespaced by crawler
// so multiple sources can share one store.
func (s Subscription) Key() string {
	return fmt.Sprintf("%s|%d", s.Crawler, s.ChatID)
}
