package database

import (
	"context"
	"database/sql"
	"fmt"

	"advocacy-backend/models"

	"github.com/apex/log"
)

// OutboxService manages the notification outbox. The submit flow
// enqueues rows in the same request that persists a submission; the
// dispatcher drains them later so a broken email provider never turns
// a durable submission into a user-visible failure.
type OutboxService struct {
	db *sql.DB
}

// NewOutboxService creates a new outbox service instance
func NewOutboxService(db *sql.DB) *OutboxService {
	return &OutboxService{db: db}
}

// Enqueue adds a pending notification
func (s *OutboxService) Enqueue(ctx context.Context, kind, recipient, payload string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notification_outbox (kind, recipient, payload) VALUES (?, ?, ?)`,
		kind, recipient, payload)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s notification: %w", kind, err)
	}
	log.Debugf("Enqueued %s notification for %s", kind, recipient)
	return nil
}

// ListUnsent returns pending notifications oldest-first, bounded by
// limit so a backlog drains in batches.
func (s *OutboxService) ListUnsent(ctx context.Context, limit int) ([]models.OutboxEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, recipient, payload, attempts, created_at
		FROM notification_outbox
		WHERE sent_at IS NULL
		ORDER BY created_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsent notifications: %w", err)
	}
	defer rows.Close()

	var entries []models.OutboxEntry
	for rows.Next() {
		var entry models.OutboxEntry
		if err := rows.Scan(&entry.ID, &entry.Kind, &entry.Recipient,
			&entry.Payload, &entry.Attempts, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox rows: %w", err)
	}
	return entries, nil
}

// MarkSent records a successful dispatch
func (s *OutboxService) MarkSent(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE notification_outbox SET sent_at = NOW(), attempts = attempts + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification %d sent: %w", id, err)
	}
	return nil
}

// MarkFailed bumps the attempt counter, leaving the row unsent for the
// next dispatch cycle.
func (s *OutboxService) MarkFailed(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE notification_outbox SET attempts = attempts + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to record notification %d failure: %w", id, err)
	}
	return nil
}
