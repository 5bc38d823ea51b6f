// Package syncer exports unsynced submissions to a Google Sheets tab
// and stamps their sync marker. The flow is deliberately sequential
// with no rollback: if the marker update fails after a successful
// append, the next run appends the same rows again. That gap is
// inherited behavior the spreadsheet consumers know about.
package syncer

import (
	"context"
	"fmt"
	"time"

	"advocacy-backend/config"
	"advocacy-backend/metrics"
	"advocacy-backend/models"
	"advocacy-backend/sheets"

	"github.com/apex/log"
)

// Column order of the spreadsheet rows. Positional: consumers of the
// sheet depend on it, so it must never change.
//
//	date, time, name, email, consent, city, region, country, ip,
//	browser, device type, screen resolution, timezone
const columnsPerRow = 13

// SubmissionStore is the slice of the submission service the sync
// needs.
type SubmissionStore interface {
	ListUnsynced(ctx context.Context, kind string) ([]models.Submission, error)
	MarkSynced(ctx context.Context, kind string, ids []string, syncedAt time.Time) error
}

// SheetClient is the slice of the spreadsheet client the sync needs
type SheetClient interface {
	SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error)
	AppendRows(ctx context.Context, spreadsheetID, sheetName string, rows [][]any) error
}

// SheetClientFactory authenticates a spreadsheet client from
// service-account credentials.
type SheetClientFactory func(ctx context.Context, credentialsJSON []byte) (SheetClient, error)

// Service runs the submission-to-spreadsheet sync
type Service struct {
	cfg        *config.Config
	store      SubmissionStore
	newClient  SheetClientFactory
	displayLoc *time.Location
}

// NewService creates a sync service. Display timestamps are rendered
// in a fixed US-Eastern locale regardless of server timezone, matching
// what the spreadsheet has always contained.
func NewService(cfg *config.Config, store SubmissionStore) (*Service, error) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return nil, fmt.Errorf("failed to load display timezone: %w", err)
	}
	return &Service{
		cfg:   cfg,
		store: store,
		newClient: func(ctx context.Context, credentialsJSON []byte) (SheetClient, error) {
			return sheets.NewClient(ctx, credentialsJSON)
		},
		displayLoc: loc,
	}, nil
}

// Run executes one sync pass and returns the summary for the HTTP
// response. Steps run in order with no retry and no partial-failure
// accounting.
func (s *Service) Run(ctx context.Context) (*models.SyncResponse, error) {
	if err := s.cfg.ValidateSync(); err != nil {
		metrics.SyncRuns.WithLabelValues("config_error").Inc()
		return nil, err
	}

	kind := s.cfg.SyncSubmissionKind
	submissions, err := s.store.ListUnsynced(ctx, kind)
	if err != nil {
		metrics.SyncRuns.WithLabelValues("error").Inc()
		return nil, err
	}

	if len(submissions) == 0 {
		log.Info("No new submissions to sync")
		metrics.SyncRuns.WithLabelValues("empty").Inc()
		return &models.SyncResponse{
			Message: "No new submissions to sync",
			Details: models.SyncDetails{TotalSubmissions: 0, SyncedRows: 0},
		}, nil
	}

	log.Infof("Found %d unsynced %s submissions", len(submissions), kind)

	client, err := s.newClient(ctx, []byte(s.cfg.GoogleServiceAccountJSON))
	if err != nil {
		metrics.SyncRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to authenticate spreadsheet client: %w", err)
	}

	titles, err := client.SheetTitles(ctx, s.cfg.SyncSpreadsheetID)
	if err != nil {
		metrics.SyncRuns.WithLabelValues("error").Inc()
		return nil, err
	}
	if !containsTitle(titles, s.cfg.SyncSheetName) {
		metrics.SyncRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("sheet %q not found in spreadsheet; existing sheets: %v",
			s.cfg.SyncSheetName, titles)
	}

	rows := make([][]any, 0, len(submissions))
	ids := make([]string, 0, len(submissions))
	for _, sub := range submissions {
		rows = append(rows, s.mapRow(sub))
		ids = append(ids, sub.ID)
	}

	if err := client.AppendRows(ctx, s.cfg.SyncSpreadsheetID, s.cfg.SyncSheetName, rows); err != nil {
		metrics.SyncRuns.WithLabelValues("error").Inc()
		return nil, err
	}

	if err := s.store.MarkSynced(ctx, kind, ids, time.Now().UTC()); err != nil {
		// Rows are already in the sheet; the next run will append them
		// again because the markers never landed.
		metrics.SyncRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("appended %d rows but failed to set sync markers: %w", len(rows), err)
	}

	metrics.SyncRuns.WithLabelValues("ok").Inc()
	metrics.SyncRowsAppended.Add(float64(len(rows)))
	metrics.SyncLastSuccessSeconds.Set(float64(time.Now().Unix()))

	log.Infof("Synced %d %s submissions to sheet %s", len(rows), kind, s.cfg.SyncSheetName)
	return &models.SyncResponse{
		Message: fmt.Sprintf("Successfully synced %d submissions", len(rows)),
		Details: models.SyncDetails{
			TotalSubmissions: len(submissions),
			SyncedRows:       len(rows),
			SpreadsheetID:    s.cfg.SyncSpreadsheetID,
			SheetName:        s.cfg.SyncSheetName,
		},
	}, nil
}

// mapRow converts a submission to the fixed 13-column spreadsheet row.
// Missing metadata becomes the literal "N/A".
func (s *Service) mapRow(sub models.Submission) []any {
	created := sub.CreatedAt.In(s.displayLoc)
	return []any{
		created.Format("1/2/2006"),
		created.Format("3:04:05 PM"),
		sub.FullName,
		sub.Email,
		consentString(sub.NewsletterOptIn),
		models.DisplayOrNA(sub.Metadata.City),
		models.DisplayOrNA(sub.Metadata.Region),
		models.DisplayOrNA(sub.Metadata.Country),
		models.DisplayOrNA(sub.Metadata.IP),
		models.DisplayOrNA(sub.Metadata.Browser),
		models.DisplayOrNA(sub.Metadata.DeviceType),
		models.DisplayOrNA(sub.Metadata.ScreenResolution),
		models.DisplayOrNA(sub.Metadata.Timezone),
	}
}

func consentString(optIn bool) string {
	if optIn {
		return "Yes"
	}
	return "No"
}

func containsTitle(titles []string, name string) bool {
	for _, title := range titles {
		if title == name {
			return true
		}
	}
	return false
}

// SetSheetClientFactory overrides spreadsheet authentication, used by
// tests to avoid the network.
func (s *Service) SetSheetClientFactory(factory SheetClientFactory) {
	s.newClient = factory
}
