package storage

import (
	"context"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"flat_bot/internal/model"
)

var ignoreTimestamps = cmpopts.IgnoreFields(model.Subscription{}, "CreatedAt")

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sorted(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	return out
}

func TestSubscriptionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	sub := model.Subscription{ChatID: 100, Crawler: "wg_gesucht", URL: "https://www.wg-gesucht.de/suche.html"}
	if err := s.CreateSubscription(ctx, &sub); err != nil {
		t.Fatalf("create: %v", err)
	}
	if sub.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be populated")
	}

	registered, err := s.IsRegistered(ctx, 100)
	if err != nil {
		t.Fatalf("is registered: %v", err)
	}
	if !registered {
		t.Error("expected chat 100 to be registered")
	}

	registered, err = s.IsRegistered(ctx, 200)
	if err != nil {
		t.Fatalf("is registered: %v", err)
	}
	if registered {
		t.Error("chat 200 must not be registered")
	}

	got, err := s.Subscriptions(ctx, 100)
	if err != nil {
		t.Fatalf("subscriptions: %v", err)
	}
	want := []model.Subscription{{ChatID: 100, Crawler: "wg_gesucht", URL: "https://www.wg-gesucht.de/suche.html"}}
	if diff := cmp.Diff(want, got, ignoreTimestamps); diff != "" {
		t.Errorf("Subscriptions mismatch (-want +got):\n%s", diff)
	}
}

func TestIsRegisteredAcrossCrawlerNamespaces(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	sub := model.Subscription{ChatID: 7, Crawler: "kleinanzeigen", URL: "https://example.com"}
	if err := s.CreateSubscription(ctx, &sub); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Registration under any crawler prefix blocks re-registration.
	registered, err := s.IsRegistered(ctx, 7)
	if err != nil {
		t.Fatalf("is registered: %v", err)
	}
	if !registered {
		t.Error("expected registration to be visible regardless of crawler namespace")
	}
}

func TestListSubscriptions(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	subs := []model.Subscription{
		{ChatID: 1, Crawler: "wg_gesucht", URL: "https://a.example"},
		{ChatID: 2, Crawler: "wg_gesucht", URL: "https://b.example"},
		{ChatID: 2, Crawler: "kleinanzeigen", URL: "https://c.example"},
	}
	for i := range subs {
		if err := s.CreateSubscription(ctx, &subs[i]); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	got, err := s.ListSubscriptions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []model.Subscription{
		{ChatID: 1, Crawler: "wg_gesucht", URL: "https://a.example"},
		{ChatID: 2, Crawler: "kleinanzeigen", URL: "https://c.example"},
		{ChatID: 2, Crawler: "wg_gesucht", URL: "https://b.example"},
	}
	if diff := cmp.Diff(want, got, ignoreTimestamps); diff != "" {
		t.Errorf("ListSubscriptions mismatch (-want +got):\n%s", diff)
	}
}

func TestLink(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	url, err := s.Link(ctx, "wg_gesucht", 42)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if url != "" {
		t.Errorf("absent key must yield empty url, got %q", url)
	}

	sub := model.Subscription{ChatID: 42, Crawler: "wg_gesucht", URL: "https://www.wg-gesucht.de/suche.html"}
	if err := s.CreateSubscription(ctx, &sub); err != nil {
		t.Fatalf("create: %v", err)
	}

	url, err = s.Link(ctx, "wg_gesucht", 42)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if url != sub.URL {
		t.Errorf("Link = %q, want %q", url, sub.URL)
	}
}

func TestSeenIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	ids, err := s.SeenIDs(ctx, "wg_gesucht", 1)
	if err != nil {
		t.Fatalf("seen ids: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("absent key must yield empty set, got %v", ids)
	}

	if err := s.ReplaceSeenIDs(ctx, "wg_gesucht", 1, []string{"a", "b", "b", "c"}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	ids, err = s.SeenIDs(ctx, "wg_gesucht", 1)
	if err != nil {
		t.Fatalf("seen ids: %v", err)
	}
	want := []string{"a", "b", "c"}
	if diff := cmp.Diff(want, sorted(ids)); diff != "" {
		t.Errorf("duplicates must collapse (-want +got):\n%s", diff)
	}

	// Full overwrite, not an incremental add.
	if err := s.ReplaceSeenIDs(ctx, "wg_gesucht", 1, []string{"x"}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	ids, err = s.SeenIDs(ctx, "wg_gesucht", 1)
	if err != nil {
		t.Fatalf("seen ids: %v", err)
	}
	if diff := cmp.Diff([]string{"x"}, ids); diff != "" {
		t.Errorf("ReplaceSeenIDs must overwrite (-want +got):\n%s", diff)
	}
}

func TestSeenIDsKeyedPerCrawlerAndChat(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	if err := s.ReplaceSeenIDs(ctx, "wg_gesucht", 1, []string{"a"}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := s.ReplaceSeenIDs(ctx, "kleinanzeigen", 1, []string{"b"}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := s.ReplaceSeenIDs(ctx, "wg_gesucht", 2, []string{"c"}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	ids, err := s.SeenIDs(ctx, "wg_gesucht", 1)
	if err != nil {
		t.Fatalf("seen ids: %v", err)
	}
	if diff := cmp.Diff([]string{"a"}, ids); diff != "" {
		t.Errorf("keys must not leak across crawlers or chats (-want +got):\n%s", diff)
	}
}

func TestDeleteSubscriptions(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	for _, c := range []string{"wg_gesucht", "kleinanzeigen"} {
		sub := model.Subscription{ChatID: 5, Crawler: c, URL: "https://example.com"}
		if err := s.CreateSubscription(ctx, &sub); err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := s.ReplaceSeenIDs(ctx, c, 5, []string{"1", "2"}); err != nil {
			t.Fatalf("replace: %v", err)
		}
	}

	if err := s.DeleteSubscriptions(ctx, 5); err != nil {
		t.Fatalf("delete: %v", err)
	}

	registered, err := s.IsRegistered(ctx, 5)
	if err != nil {
		t.Fatalf("is registered: %v", err)
	}
	if registered {
		t.Error("chat must be unregistered after delete")
	}
	ids, err := s.SeenIDs(ctx, "wg_gesucht", 5)
	if err != nil {
		t.Fatalf("seen ids: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("seen ids must be removed with the subscription, got %v", ids)
	}
}
