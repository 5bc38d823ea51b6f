package database

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func TestEnqueueNotification(t *testing.T) {
	it(func() {
		service := NewOutboxService(db)

		mock.ExpectExec(`INSERT INTO notification_outbox \(kind, recipient, payload\)`).
			WithArgs("confirmation", "alice@example.com", `{"full_name":"Alice"}`).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := service.Enqueue(context.Background(),
			"confirmation", "alice@example.com", `{"full_name":"Alice"}`)
		if err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
}

func TestListUnsentOldestFirst(t *testing.T) {
	it(func() {
		service := NewOutboxService(db)
		base := time.Now()

		mock.ExpectQuery(`FROM notification_outbox\s+WHERE sent_at IS NULL\s+ORDER BY created_at ASC\s+LIMIT \?`).
			WithArgs(50).
			WillReturnRows(sqlmock.NewRows(
				[]string{"id", "kind", "recipient", "payload", "attempts", "created_at"}).
				AddRow(1, "confirmation", "a@example.com", "{}", 0, base).
				AddRow(2, "admin_alert", "ops@example.org", "{}", 2, base.Add(time.Second)))

		entries, err := service.ListUnsent(context.Background(), 50)
		if err != nil {
			t.Fatalf("ListUnsent: %v", err)
		}
		if len(entries) != 2 || entries[0].ID != 1 || entries[1].Attempts != 2 {
			t.Errorf("unexpected entries: %+v", entries)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
}

func TestMarkSentAndFailed(t *testing.T) {
	it(func() {
		service := NewOutboxService(db)

		mock.ExpectExec(`UPDATE notification_outbox SET sent_at = NOW\(\), attempts = attempts \+ 1 WHERE id = \?`).
			WithArgs(int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE notification_outbox SET attempts = attempts \+ 1 WHERE id = \?`).
			WithArgs(int64(8)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		if err := service.MarkSent(context.Background(), 7); err != nil {
			t.Fatalf("MarkSent: %v", err)
		}
		if err := service.MarkFailed(context.Background(), 8); err != nil {
			t.Fatalf("MarkFailed: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
}
