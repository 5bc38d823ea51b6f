package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"advocacy-backend/models"

	"github.com/apex/log"
	"github.com/google/uuid"
)

// PetitionService handles petition and signature database operations.
// The live COUNT over petition_signatures is the single source of
// truth for a petition's signature count; the signature_count column
// is a read-through cache refreshed on every signature write.
type PetitionService struct {
	db *sql.DB
}

// NewPetitionService creates a new petition service instance
func NewPetitionService(db *sql.DB) *PetitionService {
	return &PetitionService{db: db}
}

const signatureSelectColumns = `id, petition_id, full_name, email, newsletter_opt_in,
		browser, device_type, screen_resolution, timezone, language, ip,
		city, region, country, latitude, longitude, created_at`

// CreatePetition inserts a new petition
func (s *PetitionService) CreatePetition(ctx context.Context, title, story string, goal int) (*models.Petition, error) {
	petition := &models.Petition{
		ID:        uuid.New().String(),
		Title:     title,
		Story:     story,
		Goal:      goal,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO petitions (id, title, story, goal, created_at) VALUES (?, ?, ?, ?, ?)`,
		petition.ID, petition.Title, petition.Story, petition.Goal, petition.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert petition: %w", err)
	}

	log.Infof("Created petition %s (%s)", petition.ID, petition.Title)
	return petition, nil
}

// ListPetitions returns all petitions with live signature counts
func (s *PetitionService) ListPetitions(ctx context.Context) ([]models.Petition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.title, p.story, p.goal,
			(SELECT COUNT(*) FROM petition_signatures ps WHERE ps.petition_id = p.id),
			p.created_at
		FROM petitions p
		ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list petitions: %w", err)
	}
	defer rows.Close()

	var petitions []models.Petition
	for rows.Next() {
		var p models.Petition
		if err := rows.Scan(&p.ID, &p.Title, &p.Story, &p.Goal, &p.SignatureCount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan petition row: %w", err)
		}
		petitions = append(petitions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate petition rows: %w", err)
	}
	return petitions, nil
}

// GetPetition retrieves a petition by id with its live signature count
func (s *PetitionService) GetPetition(ctx context.Context, id string) (*models.Petition, error) {
	var p models.Petition
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.title, p.story, p.goal,
			(SELECT COUNT(*) FROM petition_signatures ps WHERE ps.petition_id = p.id),
			p.created_at
		FROM petitions p
		WHERE p.id = ?`, id).
		Scan(&p.ID, &p.Title, &p.Story, &p.Goal, &p.SignatureCount, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("petition not found")
		}
		return nil, fmt.Errorf("failed to get petition %s: %w", id, err)
	}
	return &p, nil
}

// AddSignature inserts a signature and refreshes the cached counter
// from the live count in the same transaction.
func (s *PetitionService) AddSignature(ctx context.Context, petitionID string, req models.CreateSignatureRequest) (*models.Signature, error) {
	sig := &models.Signature{
		ID:              uuid.New().String(),
		PetitionID:      petitionID,
		FullName:        req.FullName,
		Email:           req.Email,
		NewsletterOptIn: req.NewsletterOptIn,
		Metadata:        req.Metadata,
		CreatedAt:       time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO petition_signatures
		(id, petition_id, full_name, email, newsletter_opt_in,
		browser, device_type, screen_resolution, timezone, language, ip,
		city, region, country, latitude, longitude, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sig.ID, sig.PetitionID, sig.FullName, sig.Email, sig.NewsletterOptIn,
		sig.Metadata.Browser, sig.Metadata.DeviceType, sig.Metadata.ScreenResolution,
		sig.Metadata.Timezone, sig.Metadata.Language, sig.Metadata.IP,
		sig.Metadata.City, sig.Metadata.Region, sig.Metadata.Country,
		sig.Metadata.Latitude, sig.Metadata.Longitude, sig.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert signature: %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE petitions
		SET signature_count = (SELECT COUNT(*) FROM petition_signatures WHERE petition_id = ?)
		WHERE id = ?`, petitionID, petitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh signature count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit signature: %w", err)
	}

	log.Infof("Added signature %s to petition %s", sig.ID, petitionID)
	return sig, nil
}

// ListSignatures returns signatures for a petition ordered
// newest-first with optional search and paging.
func (s *PetitionService) ListSignatures(ctx context.Context, petitionID, search string, limit, offset int) ([]models.Signature, int, error) {
	where := ` WHERE petition_id = ?`
	args := []any{petitionID}
	if search != "" {
		where += ` AND (full_name LIKE ? OR email LIKE ? OR city LIKE ? OR country LIKE ?)`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern, pattern, pattern)
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM petition_signatures`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count signatures: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM petition_signatures%s ORDER BY created_at DESC`,
		signatureSelectColumns, where)
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list signatures: %w", err)
	}
	defer rows.Close()

	var signatures []models.Signature
	for rows.Next() {
		var sig models.Signature
		if err := rows.Scan(
			&sig.ID, &sig.PetitionID, &sig.FullName, &sig.Email, &sig.NewsletterOptIn,
			&sig.Metadata.Browser, &sig.Metadata.DeviceType, &sig.Metadata.ScreenResolution,
			&sig.Metadata.Timezone, &sig.Metadata.Language, &sig.Metadata.IP,
			&sig.Metadata.City, &sig.Metadata.Region, &sig.Metadata.Country,
			&sig.Metadata.Latitude, &sig.Metadata.Longitude, &sig.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan signature row: %w", err)
		}
		signatures = append(signatures, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate signature rows: %w", err)
	}
	return signatures, total, nil
}

// DeleteSignature removes a single signature and refreshes the cached
// counter.
func (s *PetitionService) DeleteSignature(ctx context.Context, petitionID, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM petition_signatures WHERE id = ? AND petition_id = ?`, id, petitionID)
	if err != nil {
		return fmt.Errorf("failed to delete signature %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get delete status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("signature not found")
	}

	if _, err := tx.ExecContext(ctx, `UPDATE petitions
		SET signature_count = (SELECT COUNT(*) FROM petition_signatures WHERE petition_id = ?)
		WHERE id = ?`, petitionID, petitionID); err != nil {
		return fmt.Errorf("failed to refresh signature count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit signature delete: %w", err)
	}

	log.Infof("Deleted signature %s from petition %s", id, petitionID)
	return nil
}

// DeleteAllSignatures removes every signature of a petition and resets
// the cached counter. Returns the number of rows removed.
func (s *PetitionService) DeleteAllSignatures(ctx context.Context, petitionID string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM petition_signatures WHERE petition_id = ?`, petitionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete signatures: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get delete status: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE petitions SET signature_count = 0 WHERE id = ?`, petitionID); err != nil {
		return 0, fmt.Errorf("failed to reset signature count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit signature delete: %w", err)
	}

	log.Warnf("Deleted ALL %d signatures from petition %s", affected, petitionID)
	return affected, nil
}
