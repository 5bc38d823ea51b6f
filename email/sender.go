package email

import (
	"encoding/json"
	"fmt"
	"net/http"

	"advocacy-backend/config"

	"github.com/apex/log"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendGridHost = "https://api.sendgrid.com"

// Sender handles transactional email and newsletter list management
// through SendGrid.
type Sender struct {
	config *config.Config
	client *sendgrid.Client
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config) *Sender {
	return &Sender{
		config: cfg,
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
	}
}

// SendConfirmation sends the thank-you email after a form submission
func (s *Sender) SendConfirmation(recipient, fullName, formName string) error {
	subject := "Thank you for reaching out"
	plain := fmt.Sprintf(
		"Hi %s,\n\nThank you for submitting the %s form. Our team has received your information and will be in touch.\n\n%s",
		fullName, formName, s.config.SendGridFromName)
	html := fmt.Sprintf(
		`<p>Hi %s,</p><p>Thank you for submitting the <strong>%s</strong> form. Our team has received your information and will be in touch.</p><p>%s</p>`,
		fullName, formName, s.config.SendGridFromName)

	return s.send(recipient, subject, plain, html)
}

// SendAdminAlert notifies the configured admin address of a new
// submission or signature.
func (s *Sender) SendAdminAlert(summary string) error {
	if s.config.AdminNotifyEmail == "" {
		log.Warn("ADMIN_NOTIFY_EMAIL not set, skipping admin alert")
		return nil
	}
	subject := "New website submission"
	return s.send(s.config.AdminNotifyEmail, subject, summary,
		"<pre>"+summary+"</pre>")
}

func (s *Sender) send(recipient, subject, plain, html string) error {
	from := mail.NewEmail(s.config.SendGridFromName, s.config.SendGridFromEmail)
	to := mail.NewEmail(recipient, recipient)
	message := mail.NewSingleEmail(from, subject, to, plain, html)

	response, err := s.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", recipient, err)
	}
	if response.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid rejected email to %s: status %d: %s",
			recipient, response.StatusCode, response.Body)
	}

	log.Infof("Sent %q to %s (status %d)", subject, recipient, response.StatusCode)
	return nil
}

type contactUpsert struct {
	Contacts []contact `json:"contacts"`
}

type contact struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
}

// AddNewsletterContact upserts an opted-in address into the SendGrid
// marketing contact list.
func (s *Sender) AddNewsletterContact(recipient, fullName string) error {
	body, err := json.Marshal(contactUpsert{
		Contacts: []contact{{Email: recipient, FirstName: fullName}},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal contact payload: %w", err)
	}

	request := sendgrid.GetRequest(s.config.SendGridAPIKey, "/v3/marketing/contacts", sendGridHost)
	request.Method = rest.Put
	request.Body = body

	response, err := sendgrid.API(request)
	if err != nil {
		return fmt.Errorf("failed to upsert newsletter contact %s: %w", recipient, err)
	}
	if response.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid rejected contact upsert for %s: status %d: %s",
			recipient, response.StatusCode, response.Body)
	}

	log.Infof("Upserted newsletter contact %s (status %d)", recipient, response.StatusCode)
	return nil
}
