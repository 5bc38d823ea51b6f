package models

import "time"

// SubmissionKinds are the form types the public site collects. Each
// kind maps to its own table; the row shape is identical across kinds.
var SubmissionKinds = []string{
	"before_you_sign",
	"where_scams_thrive",
	"timeshare_checklist",
	"scam_report",
}

// Metadata is the client-observed context attached to a submission or
// signature at creation time. It is opportunistic best-effort data,
// never verified.
type Metadata struct {
	Browser          string `json:"browser"`
	DeviceType       string `json:"device_type"`
	ScreenResolution string `json:"screen_resolution"`
	Timezone         string `json:"timezone"`
	Language         string `json:"language"`
	IP               string `json:"ip"`
	City             string `json:"city"`
	Region           string `json:"region"`
	Country          string `json:"country"`
	Latitude         string `json:"latitude"`
	Longitude        string `json:"longitude"`
}

// Submission represents a persisted public form fill-out
type Submission struct {
	ID              string     `json:"id"`
	FullName        string     `json:"full_name"`
	Email           string     `json:"email"`
	NewsletterOptIn bool       `json:"newsletter_opt_in"`
	Metadata        Metadata   `json:"metadata"`
	CreatedAt       time.Time  `json:"created_at"`
	SyncedAt        *time.Time `json:"synced_at,omitempty"`
}

// Petition represents an advocacy campaign users can endorse
type Petition struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Story          string    `json:"story"`
	Goal           int       `json:"goal"`
	SignatureCount int       `json:"signature_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// Signature represents a per-person endorsement of a petition
type Signature struct {
	ID              string    `json:"id"`
	PetitionID      string    `json:"petition_id"`
	FullName        string    `json:"full_name"`
	Email           string    `json:"email"`
	NewsletterOptIn bool      `json:"newsletter_opt_in"`
	Metadata        Metadata  `json:"metadata"`
	CreatedAt       time.Time `json:"created_at"`
}

// OutboxEntry is a pending notification task. Entries are written in
// the same flow that persists a submission and dispatched later, so a
// failed email never blocks the user-visible success.
type OutboxEntry struct {
	ID        int64      `json:"id"`
	Kind      string     `json:"kind"`
	Recipient string     `json:"recipient"`
	Payload   string     `json:"payload"`
	Attempts  int        `json:"attempts"`
	CreatedAt time.Time  `json:"created_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
}

// Outbox notification kinds
const (
	OutboxConfirmation     = "confirmation"
	OutboxAdminAlert       = "admin_alert"
	OutboxNewsletterSignup = "newsletter_signup"
)

// CreateSubmissionRequest represents a public form submit
type CreateSubmissionRequest struct {
	FullName        string   `json:"full_name" binding:"required,max=256"`
	Email           string   `json:"email" binding:"required,max=256"`
	NewsletterOptIn bool     `json:"newsletter_opt_in"`
	Metadata        Metadata `json:"metadata"`
}

// CreateSignatureRequest represents a petition sign request
type CreateSignatureRequest struct {
	FullName        string   `json:"full_name" binding:"required,max=256"`
	Email           string   `json:"email" binding:"required,max=256"`
	NewsletterOptIn bool     `json:"newsletter_opt_in"`
	Metadata        Metadata `json:"metadata"`
}

// LoginRequest represents an admin console login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents a successful login
type TokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
}

// SubmissionListResponse is the admin list payload
type SubmissionListResponse struct {
	Submissions []Submission `json:"submissions"`
	Total       int          `json:"total"`
}

// SignatureListResponse is the admin signatures list payload
type SignatureListResponse struct {
	Signatures []Signature `json:"signatures"`
	Total      int         `json:"total"`
}

// DeleteAllRequest guards the bulk delete. The literal confirmation
// string must be supplied by the operator.
type DeleteAllRequest struct {
	Confirm string `json:"confirm" binding:"required"`
}

// SyncDetails summarizes one sync run
type SyncDetails struct {
	TotalSubmissions int    `json:"totalSubmissions"`
	SyncedRows       int    `json:"syncedRows"`
	SpreadsheetID    string `json:"spreadsheetId,omitempty"`
	SheetName        string `json:"sheetName,omitempty"`
}

// SyncResponse is the sync endpoint success body
type SyncResponse struct {
	Message string      `json:"message"`
	Details SyncDetails `json:"details"`
}

// SyncErrorResponse is the sync endpoint failure body. The stack field
// mirrors what spreadsheet operators already rely on for diagnostics.
type SyncErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
	Stack   string `json:"stack"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse represents a simple message response
type MessageResponse struct {
	Message string `json:"message"`
}

// DisplayOrNA substitutes the literal "N/A" for missing optional
// values, both in the spreadsheet mapping and the admin detail view.
func DisplayOrNA(value string) string {
	if value == "" {
		return "N/A"
	}
	return value
}
