// Package scheduler runs the recurring per-recipient notification jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"flat_bot/internal/crawler"
	"flat_bot/internal/filter"
	"flat_bot/internal/model"
	"flat_bot/internal/storage"
)

// Sender is the interface for sending Telegram messages.
type Sender interface {
	SendMessage(chatID int64, text string) error
}

type job struct {
	cancel context.CancelFunc
}

// Scheduler owns one recurring job per subscription. Each job crawls its
// source, diffs against the stored seen-id set and notifies the recipient
// about offers it has not seen before.
type Scheduler struct {
	store    storage.Storage
	crawlers map[string]crawler.Crawler
	policy   filter.Policy
	sender   Sender
	log      *slog.Logger
	interval time.Duration
	attempts uint

	mu   sync.Mutex
	jobs map[string]*job
	wg   sync.WaitGroup
}

// New creates a Scheduler over the given set of active crawlers.
func New(store storage.Storage, crawlers []crawler.Crawler, policy filter.Policy, sender Sender, log *slog.Logger) *Scheduler {
	byName := make(map[string]crawler.Crawler, len(crawlers))
	for _, c := range crawlers {
		byName[c.Name()] = c
	}
	return &Scheduler{
		store:    store,
		crawlers: byName,
		policy:   policy,
		sender:   sender,
		log:      log,
		interval: time.Minute,
		attempts: 2,
		jobs:     make(map[string]*job),
	}
}

// SetInterval overrides the default 1-minute tick interval.
func (s *Scheduler) SetInterval(d time.Duration) {
	s.interval = d
}

// SetRetryAttempts overrides how often a failed tick is attempted in total.
func (s *Scheduler) SetRetryAttempts(n uint) {
	s.attempts = n
}

// Start re-establishes the recurring job for every stored subscription.
// Called once at startup so registrations survive process restarts.
func (s *Scheduler) Start(ctx context.Context) error {
	subs, err := s.store.ListSubscriptions(ctx)
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}
	for _, sub := range subs {
		s.Schedule(ctx, sub)
	}
	s.log.Info("rescheduled stored subscriptions", "count", len(subs))
	return nil
}

// Schedule starts the recurring job for a subscription, with an immediate
// first tick. Scheduling an already-running key is a no-op.
func (s *Scheduler) Schedule(ctx context.Context, sub model.Subscription) {
	key := sub.Key()

	s.mu.Lock()
	if _, ok := s.jobs[key]; ok {
		s.mu.Unlock()
		s.log.Debug("job already scheduled", "key", key)
		return
	}
	jobCtx, cancel := context.WithCancel(ctx)
	j := &job{cancel: cancel}
	s.jobs[key] = j
	s.mu.Unlock()

	s.log.Info("scheduling job", "key", key, "interval", s.interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.drop(key, j)
		s.run(jobCtx, sub, key)
	}()
}

// Cancel stops every running job belonging to the chat, across all
// crawler namespaces.
func (s *Scheduler) Cancel(chatID int64) {
	suffix := "|" + strconv.FormatInt(chatID, 10)

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, j := range s.jobs {
		if strings.HasSuffix(key, suffix) {
			j.cancel()
		}
	}
}

// Wait blocks until all job goroutines have exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) drop(key string, j *job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.jobs[key] == j {
		delete(s.jobs, key)
	}
}

func (s *Scheduler) run(ctx context.Context, sub model.Subscription, key string) {
	s.tick(ctx, sub, key)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, sub, key)
		}
	}
}

// tick runs one diff-and-notify pass under the retry policy: transient
// fetch failures are retried up to the configured attempt count, anything
// else abandons the tick.
func (s *Scheduler) tick(ctx context.Context, sub model.Subscription, key string) {
	err := retry.Do(
		func() error { return s.runTick(ctx, sub) },
		retry.Attempts(s.attempts),
		retry.Delay(time.Second),
		retry.Context(ctx),
		retry.RetryIf(crawler.IsTransient),
		retry.OnRetry(func(n uint, err error) {
			s.log.Warn("tick failed, retrying", "key", key, "attempt", n+1, "error", err)
		}),
	)
	if err != nil && ctx.Err() == nil {
		s.log.Error("tick abandoned", "key", key, "error", err)
	}
}

func (s *Scheduler) runTick(ctx context.Context, sub model.Subscription) error {
	c, ok := s.crawlers[sub.Crawler]
	if !ok {
		return fmt.Errorf("no crawler named %q", sub.Crawler)
	}

	url, err := s.store.Link(ctx, sub.Crawler, sub.ChatID)
	if err != nil {
		return fmt.Errorf("read link: %w", err)
	}
	if url == "" {
		return fmt.Errorf("no stored url for %s", sub.Key())
	}

	offers, err := c.CrawlOffers(ctx, url)
	if err != nil {
		return fmt.Errorf("crawl: %w", err)
	}

	seen, err := s.store.SeenIDs(ctx, sub.Crawler, sub.ChatID)
	if err != nil {
		return fmt.Errorf("read seen ids: %w", err)
	}
	seenSet := make(map[string]struct{}, len(seen))
	for _, id := range seen {
		seenSet[id] = struct{}{}
	}

	var fresh []model.Offer
	for _, o := range offers {
		if _, ok := seenSet[o.ID]; !ok {
			fresh = append(fresh, o)
		}
	}
	if len(fresh) == 0 {
		return nil
	}
	s.log.Info("found new offers", "key", sub.Key(), "count", len(fresh))

	kept := s.policy.Apply(fresh)
	if len(kept) == 0 {
		// Nothing to send means nothing is persisted either; the ids
		// stay candidates for later ticks.
		return nil
	}

	// Newest listings appear first on the page; sending in reverse keeps
	// the newest one at the bottom of the chat.
	for i := len(kept) - 1; i >= 0; i-- {
		if err := s.sender.SendMessage(sub.ChatID, FormatOffer(kept[i])); err != nil {
			return fmt.Errorf("send message: %w", err)
		}
		// Rate limit: ~20 messages/sec max for Telegram
		time.Sleep(50 * time.Millisecond)
	}

	union := make([]string, 0, len(seen)+len(offers))
	union = append(union, seen...)
	for _, o := range offers {
		if _, ok := seenSet[o.ID]; !ok {
			union = append(union, o.ID)
		}
	}
	if err := s.store.ReplaceSeenIDs(ctx, sub.Crawler, sub.ChatID, union); err != nil {
		return fmt.Errorf("store seen ids: %w", err)
	}
	return nil
}
