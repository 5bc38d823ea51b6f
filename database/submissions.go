package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"advocacy-backend/models"

	"github.com/apex/log"
	"github.com/google/uuid"
)

// SubmissionService handles all submission-table database operations.
// One service covers every submission kind; the kind picks the table.
type SubmissionService struct {
	db *sql.DB
}

// NewSubmissionService creates a new submission service instance
func NewSubmissionService(db *sql.DB) *SubmissionService {
	return &SubmissionService{db: db}
}

const submissionSelectColumns = `id, full_name, email, newsletter_opt_in,
		browser, device_type, screen_resolution, timezone, language, ip,
		city, region, country, latitude, longitude, created_at, synced_at`

// Create inserts a new submission row and returns it with its
// generated id. Rows are immutable after this point except for the
// sync marker and admin deletion.
func (s *SubmissionService) Create(ctx context.Context, kind string, req models.CreateSubmissionRequest) (*models.Submission, error) {
	table, err := TableForKind(kind)
	if err != nil {
		return nil, err
	}

	sub := &models.Submission{
		ID:              uuid.New().String(),
		FullName:        req.FullName,
		Email:           req.Email,
		NewsletterOptIn: req.NewsletterOptIn,
		Metadata:        req.Metadata,
		CreatedAt:       time.Now().UTC(),
	}

	query := fmt.Sprintf(`INSERT INTO %s
		(id, full_name, email, newsletter_opt_in,
		browser, device_type, screen_resolution, timezone, language, ip,
		city, region, country, latitude, longitude, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, table)

	_, err = s.db.ExecContext(ctx, query,
		sub.ID, sub.FullName, sub.Email, sub.NewsletterOptIn,
		sub.Metadata.Browser, sub.Metadata.DeviceType, sub.Metadata.ScreenResolution,
		sub.Metadata.Timezone, sub.Metadata.Language, sub.Metadata.IP,
		sub.Metadata.City, sub.Metadata.Region, sub.Metadata.Country,
		sub.Metadata.Latitude, sub.Metadata.Longitude, sub.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert %s submission: %w", kind, err)
	}

	log.Infof("Created %s submission %s", kind, sub.ID)
	return sub, nil
}

// List returns submissions ordered newest-first with an optional
// free-text search over name, email, city and country, plus
// limit/offset paging. The total counts all rows matching the search,
// not just the returned page.
func (s *SubmissionService) List(ctx context.Context, kind, search string, limit, offset int) ([]models.Submission, int, error) {
	table, err := TableForKind(kind)
	if err != nil {
		return nil, 0, err
	}

	where := ""
	args := []any{}
	if search != "" {
		where = ` WHERE full_name LIKE ? OR email LIKE ? OR city LIKE ? OR country LIKE ?`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern, pattern, pattern)
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s%s`, table, where)
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count %s submissions: %w", kind, err)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY created_at DESC`,
		submissionSelectColumns, table, where)
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list %s submissions: %w", kind, err)
	}
	defer rows.Close()

	submissions, err := scanSubmissions(rows)
	if err != nil {
		return nil, 0, err
	}
	return submissions, total, nil
}

// Get retrieves a single submission by id
func (s *SubmissionService) Get(ctx context.Context, kind, id string) (*models.Submission, error) {
	table, err := TableForKind(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, submissionSelectColumns, table)
	sub, err := scanSubmission(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("submission not found")
		}
		return nil, fmt.Errorf("failed to get %s submission %s: %w", kind, id, err)
	}
	return sub, nil
}

// Delete removes a single submission
func (s *SubmissionService) Delete(ctx context.Context, kind, id string) error {
	table, err := TableForKind(kind)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table), id)
	if err != nil {
		return fmt.Errorf("failed to delete %s submission %s: %w", kind, id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get delete status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("submission not found")
	}

	log.Infof("Deleted %s submission %s", kind, id)
	return nil
}

// DeleteAll removes every row of a submission kind and returns the
// number of rows removed. The handler gates this behind an explicit
// confirmation token; here it is one audited operation rather than an
// incidental match-everything predicate.
func (s *SubmissionService) DeleteAll(ctx context.Context, kind string) (int64, error) {
	table, err := TableForKind(kind)
	if err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, table))
	if err != nil {
		return 0, fmt.Errorf("failed to delete all %s submissions: %w", kind, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get delete status: %w", err)
	}

	log.Warnf("Deleted ALL %d rows from %s", affected, table)
	return affected, nil
}

// ListUnsynced returns rows whose sync marker is still null, oldest
// first so the spreadsheet append preserves creation order.
func (s *SubmissionService) ListUnsynced(ctx context.Context, kind string) ([]models.Submission, error) {
	table, err := TableForKind(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE synced_at IS NULL ORDER BY created_at ASC`,
		submissionSelectColumns, table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsynced %s submissions: %w", kind, err)
	}
	defer rows.Close()

	return scanSubmissions(rows)
}

// MarkSynced sets the sync marker for the given ids. This is the only
// in-place update a submission row ever receives.
func (s *SubmissionService) MarkSynced(ctx context.Context, kind string, ids []string, syncedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	table, err := TableForKind(kind)
	if err != nil {
		return err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, syncedAt)
	for _, id := range ids {
		args = append(args, id)
	}

	query := fmt.Sprintf(`UPDATE %s SET synced_at = ? WHERE id IN (%s)`, table, placeholders)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark %s submissions synced: %w", kind, err)
	}

	log.Infof("Marked %d %s submissions as synced", len(ids), kind)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*models.Submission, error) {
	var sub models.Submission
	var syncedAt sql.NullTime
	err := row.Scan(
		&sub.ID, &sub.FullName, &sub.Email, &sub.NewsletterOptIn,
		&sub.Metadata.Browser, &sub.Metadata.DeviceType, &sub.Metadata.ScreenResolution,
		&sub.Metadata.Timezone, &sub.Metadata.Language, &sub.Metadata.IP,
		&sub.Metadata.City, &sub.Metadata.Region, &sub.Metadata.Country,
		&sub.Metadata.Latitude, &sub.Metadata.Longitude, &sub.CreatedAt, &syncedAt)
	if err != nil {
		return nil, err
	}
	if syncedAt.Valid {
		sub.SyncedAt = &syncedAt.Time
	}
	return &sub, nil
}

func scanSubmissions(rows *sql.Rows) ([]models.Submission, error) {
	var submissions []models.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission row: %w", err)
		}
		submissions = append(submissions, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submission rows: %w", err)
	}
	return submissions, nil
}
