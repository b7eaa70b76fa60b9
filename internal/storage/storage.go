// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"

	"flat_bot/internal/model"
)

// Storage is the interface for all persistence operations. Seen-id sets
// and subscription links are keyed by (crawler, chat) so several sources
// can share one database.
type Storage interface {
	CreateSubscription(ctx context.Context, sub *model.Subscription) error
	ListSubscriptions(ctx context.Context) ([]model.Subscription, error)
	Subscriptions(ctx context.Context, chatID int64) ([]model.Subscription, error)
	DeleteSubscriptions(ctx context.Context, chatID int64) error
	// IsRegistered reports whether the chat holds any subscription,
	// regardless of which crawler it is namespaced under.
	IsRegistered(ctx context.Context, chatID int64) (bool, error)

	// Link returns the subscribed URL for the key, empty when absent.
	Link(ctx context.Context, crawler string, chatID int64) (string, error)

	// SeenIDs returns the set of already-notified offer ids for the key.
	// An absent key yields an empty set, not an error.
	SeenIDs(ctx context.Context, crawler string, chatID int64) ([]string, error)
	// ReplaceSeenIDs overwrites the full id set for the key in one
	// transaction.
	ReplaceSeenIDs(ctx context.Context, crawler string, chatID int64, ids []string) error

	Close() error
}
