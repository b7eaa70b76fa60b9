package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"flat_bot/internal/model"
	"flat_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=OFF"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("disable foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateSubscription inserts a new subscription and populates CreatedAt.
func (s *SQLite) CreateSubscription(ctx context.Context, sub *model.Subscription) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (chat_id, crawler, url, created_at) VALUES (?, ?, ?, ?)`,
		sub.ChatID, sub.Crawler, sub.URL, now,
	)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	sub.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// ListSubscriptions returns every stored subscription. Used at startup to
// re-establish the recurring jobs.
func (s *SQLite) ListSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chat_id, crawler, url, created_at FROM subscriptions ORDER BY chat_id, crawler`,
	)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanSubscriptions(rows)
}

// Subscriptions returns the subscriptions held by one chat.
func (s *SQLite) Subscriptions(ctx context.Context, chatID int64) ([]model.Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chat_id, crawler, url, created_at FROM subscriptions WHERE chat_id = ? ORDER BY crawler`,
		chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanSubscriptions(rows)
}

// DeleteSubscriptions removes every subscription and seen-id set of a chat.
func (s *SQLite) DeleteSubscriptions(ctx context.Context, chatID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM seen_ids WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("delete seen_ids: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM subscriptions WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("delete subscriptions: %w", err)
	}
	return tx.Commit()
}

// IsRegistered checks whether the chat holds any subscription.
func (s *SQLite) IsRegistered(ctx context.Context, chatID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE chat_id = ?`, chatID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check registration: %w", err)
	}
	return count > 0, nil
}

// Link returns the subscribed URL for a crawler/chat key, or "" when the
// key is absent.
func (s *SQLite) Link(ctx context.Context, crawler string, chatID int64) (string, error) {
	var url string
	err := s.db.QueryRowContext(ctx,
		`SELECT url FROM subscriptions WHERE crawler = ? AND chat_id = ?`, crawler, chatID,
	).Scan(&url)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query link: %w", err)
	}
	return url, nil
}

// SeenIDs returns the already-notified offer ids for a crawler/chat key.
func (s *SQLite) SeenIDs(ctx context.Context, crawler string, chatID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT offer_id FROM seen_ids WHERE crawler = ? AND chat_id = ?`, crawler, chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("query seen ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan seen id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ReplaceSeenIDs overwrites the full seen-id set for a crawler/chat key.
// Duplicate ids in the input collapse via the primary key.
func (s *SQLite) ReplaceSeenIDs(ctx context.Context, crawler string, chatID int64, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM seen_ids WHERE crawler = ? AND chat_id = ?`, crawler, chatID,
	); err != nil {
		return fmt.Errorf("clear seen ids: %w", err)
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO seen_ids (crawler, chat_id, offer_id) VALUES (?, ?, ?)`,
			crawler, chatID, id,
		); err != nil {
			return fmt.Errorf("insert seen id: %w", err)
		}
	}
	return tx.Commit()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSubscription(row scannable) (model.Subscription, error) {
	var sub model.Subscription
	var created sql.NullString
	if err := row.Scan(&sub.ChatID, &sub.Crawler, &sub.URL, &created); err != nil {
		return sub, fmt.Errorf("scan subscription: %w", err)
	}
	if created.Valid {
		sub.CreatedAt, _ = time.Parse(timeLayout, created.String)
	}
	return sub, nil
}

func scanSubscriptions(rows *sql.Rows) ([]model.Subscription, error) {
	var subs []model.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
