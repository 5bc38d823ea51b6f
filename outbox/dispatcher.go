// Package outbox drains the notification outbox in the background.
package outbox

import (
	"context"
	"encoding/json"
	"time"

	"advocacy-backend/database"
	"advocacy-backend/metrics"
	"advocacy-backend/models"

	"github.com/apex/log"
)

const batchSize = 50

// ConfirmationPayload is the stored payload of a confirmation entry
type ConfirmationPayload struct {
	FullName string `json:"full_name"`
	FormName string `json:"form_name"`
}

// AdminAlertPayload is the stored payload of an admin alert entry
type AdminAlertPayload struct {
	Summary string `json:"summary"`
}

// NewsletterPayload is the stored payload of a newsletter signup entry
type NewsletterPayload struct {
	FullName string `json:"full_name"`
}

// NotificationSender is the slice of the email sender the dispatcher
// needs.
type NotificationSender interface {
	SendConfirmation(recipient, fullName, formName string) error
	SendAdminAlert(summary string) error
	AddNewsletterContact(recipient, fullName string) error
}

// Dispatcher polls the outbox and sends pending notifications
type Dispatcher struct {
	outbox *database.OutboxService
	sender NotificationSender
}

// NewDispatcher creates a new outbox dispatcher
func NewDispatcher(outbox *database.OutboxService, sender NotificationSender) *Dispatcher {
	return &Dispatcher{outbox: outbox, sender: sender}
}

// Run polls until the context is canceled
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) {
	log.Infof("Outbox dispatcher started, polling every %v", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Outbox dispatcher stopped")
			return
		case <-ticker.C:
			if err := d.ProcessPending(ctx); err != nil {
				log.WithError(err).Error("Outbox cycle failed")
			}
		}
	}
}

// ProcessPending sends one batch of unsent notifications. A failed
// entry keeps its null sent_at and is retried next cycle; it never
// blocks the rest of the batch.
func (d *Dispatcher) ProcessPending(ctx context.Context) error {
	entries, err := d.outbox.ListUnsent(ctx, batchSize)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	log.Infof("Dispatching %d pending notifications", len(entries))
	for _, entry := range entries {
		if err := d.dispatch(entry); err != nil {
			log.WithError(err).Warnf("Failed to dispatch %s notification %d (attempt %d)",
				entry.Kind, entry.ID, entry.Attempts+1)
			metrics.OutboxDispatched.WithLabelValues("error").Inc()
			if markErr := d.outbox.MarkFailed(ctx, entry.ID); markErr != nil {
				log.WithError(markErr).Errorf("Failed to record failure for notification %d", entry.ID)
			}
			continue
		}

		metrics.OutboxDispatched.WithLabelValues("ok").Inc()
		if err := d.outbox.MarkSent(ctx, entry.ID); err != nil {
			// The email went out but the row stays pending; the next
			// cycle re-sends. Duplicate email beats lost email here.
			log.WithError(err).Errorf("Failed to mark notification %d sent", entry.ID)
		}
	}
	return nil
}

func (d *Dispatcher) dispatch(entry models.OutboxEntry) error {
	switch entry.Kind {
	case models.OutboxConfirmation:
		var payload ConfirmationPayload
		if err := json.Unmarshal([]byte(entry.Payload), &payload); err != nil {
			return err
		}
		return d.sender.SendConfirmation(entry.Recipient, payload.FullName, payload.FormName)

	case models.OutboxAdminAlert:
		var payload AdminAlertPayload
		if err := json.Unmarshal([]byte(entry.Payload), &payload); err != nil {
			return err
		}
		return d.sender.SendAdminAlert(payload.Summary)

	case models.OutboxNewsletterSignup:
		var payload NewsletterPayload
		if err := json.Unmarshal([]byte(entry.Payload), &payload); err != nil {
			return err
		}
		return d.sender.AddNewsletterContact(entry.Recipient, payload.FullName)

	default:
		log.Warnf("Skipping outbox entry %d with unknown kind %q", entry.ID, entry.Kind)
		return nil
	}
}
