// Package export builds the CSV downloads for the admin console.
package export

import (
	"fmt"
	"strings"
	"time"

	"advocacy-backend/models"
)

// SubmissionHeader is the CSV header for submission exports
var SubmissionHeader = []string{
	"ID", "Full Name", "Email", "Newsletter Opt-In", "Browser", "Device Type",
	"Screen Resolution", "Timezone", "Language", "IP", "City", "Region",
	"Country", "Latitude", "Longitude", "Created At", "Synced At",
}

// SignatureHeader is the CSV header for signature exports
var SignatureHeader = []string{
	"ID", "Petition ID", "Full Name", "Email", "Newsletter Opt-In", "Browser",
	"Device Type", "Screen Resolution", "Timezone", "Language", "IP", "City",
	"Region", "Country", "Latitude", "Longitude", "Created At",
}

// Filename returns a base name suffixed with the given date, e.g.
// "before_you_sign-submissions-2026-08-31.csv".
func Filename(base string, now time.Time) string {
	return fmt.Sprintf("%s-%s.csv", base, now.Format("2006-01-02"))
}

// Build renders a header row plus data rows. Every field is wrapped in
// double quotes; embedded quotes are escaped by doubling, nothing else
// is transformed.
func Build(header []string, rows [][]string) string {
	var sb strings.Builder
	writeRow(&sb, header)
	for _, row := range rows {
		writeRow(&sb, row)
	}
	return sb.String()
}

func writeRow(sb *strings.Builder, fields []string) {
	for i, field := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		sb.WriteString(strings.ReplaceAll(field, `"`, `""`))
		sb.WriteByte('"')
	}
	sb.WriteString("\r\n")
}

// SubmissionRows maps submissions to export rows in header order
func SubmissionRows(submissions []models.Submission) [][]string {
	rows := make([][]string, 0, len(submissions))
	for _, sub := range submissions {
		syncedAt := ""
		if sub.SyncedAt != nil {
			syncedAt = sub.SyncedAt.Format(time.RFC3339)
		}
		rows = append(rows, []string{
			sub.ID,
			sub.FullName,
			sub.Email,
			yesNo(sub.NewsletterOptIn),
			sub.Metadata.Browser,
			sub.Metadata.DeviceType,
			sub.Metadata.ScreenResolution,
			sub.Metadata.Timezone,
			sub.Metadata.Language,
			sub.Metadata.IP,
			sub.Metadata.City,
			sub.Metadata.Region,
			sub.Metadata.Country,
			sub.Metadata.Latitude,
			sub.Metadata.Longitude,
			sub.CreatedAt.Format(time.RFC3339),
			syncedAt,
		})
	}
	return rows
}

// SignatureRows maps signatures to export rows in header order
func SignatureRows(signatures []models.Signature) [][]string {
	rows := make([][]string, 0, len(signatures))
	for _, sig := range signatures {
		rows = append(rows, []string{
			sig.ID,
			sig.PetitionID,
			sig.FullName,
			sig.Email,
			yesNo(sig.NewsletterOptIn),
			sig.Metadata.Browser,
			sig.Metadata.DeviceType,
			sig.Metadata.ScreenResolution,
			sig.Metadata.Timezone,
			sig.Metadata.Language,
			sig.Metadata.IP,
			sig.Metadata.City,
			sig.Metadata.Region,
			sig.Metadata.Country,
			sig.Metadata.Latitude,
			sig.Metadata.Longitude,
			sig.CreatedAt.Format(time.RFC3339),
		})
	}
	return rows
}

func yesNo(value bool) string {
	if value {
		return "Yes"
	}
	return "No"
}
