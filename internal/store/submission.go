package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"refto/internal/models"
)

// ErrNotEditable is returned when a submission can no longer be changed.
var ErrNotEditable = errors.New("store: submission not editable")

const submissionColumns = `id, title, url, description, email, status, user_id,
	rejected_at, rejection_reason, approved_at, created_at, updated_at`

// SubmissionStore handles user-submitted sites awaiting review.
type SubmissionStore struct {
	db *sql.DB
}

// NewSubmissionStore creates a new SubmissionStore.
func NewSubmissionStore(db *sql.DB) *SubmissionStore {
	return &SubmissionStore{db: db}
}

func scanSubmission(scanner rowScanner) (*models.SubmitSite, error) {
	var s models.SubmitSite
	err := scanner.Scan(
		&s.ID, &s.Title, &s.URL, &s.Description, &s.Email, &s.Status, &s.UserID,
		&s.RejectedAt, &s.RejectionReason, &s.ApprovedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create stores a new PENDING submission.
func (s *SubmissionStore) Create(ctx context.Context, sub *models.SubmitSite) (*models.SubmitSite, error) {
	created, err := scanSubmission(s.db.QueryRowContext(ctx, `
		INSERT INTO submit_sites (title, url, description, email, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+submissionColumns,
		sub.Title, sub.URL, sub.Description, sub.Email, sub.UserID,
	))
	if err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}
	return created, nil
}

// FindByID retrieves a submission. Returns nil if not found.
func (s *SubmissionStore) FindByID(ctx context.Context, id uuid.UUID) (*models.SubmitSite, error) {
	sub, err := scanSubmission(s.db.QueryRowContext(ctx, `
		SELECT `+submissionColumns+` FROM submit_sites WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return sub, nil
}

// Update changes the content of a submission owned by userID. Only PENDING
// and REJECTED submissions are editable; a rejected one returns to PENDING
// with its rejection metadata cleared.
func (s *SubmissionStore) Update(ctx context.Context, userID uuid.UUID, sub *models.SubmitSite) (*models.SubmitSite, error) {
	updated, err := scanSubmission(s.db.QueryRowContext(ctx, `
		UPDATE submit_sites SET
			title = $3, url = $4, description = $5, email = $6,
			status = 'PENDING', rejected_at = NULL, rejection_reason = NULL,
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND status IN ('PENDING', 'REJECTED')
		RETURNING `+submissionColumns,
		sub.ID, userID, sub.Title, sub.URL, sub.Description, sub.Email,
	))
	if err == sql.ErrNoRows {
		return nil, s.missingOrFrozen(ctx, userID, sub.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("update submission: %w", err)
	}
	return updated, nil
}

// missingOrFrozen tells apart an unknown submission from one that exists
// but may not be edited.
func (s *SubmissionStore) missingOrFrozen(ctx context.Context, userID, id uuid.UUID) error {
	existing, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil || existing.UserID != userID {
		return ErrNotFound
	}
	return ErrNotEditable
}

// List returns submissions newest first, optionally filtered by status.
func (s *SubmissionStore) List(ctx context.Context, status models.SubmissionStatus, limit, offset int) ([]models.SubmitSite, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+submissionColumns+`
		FROM submit_sites
		WHERE ($1::text = '' OR status = $1::text)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, string(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var subs []models.SubmitSite
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// Approve marks a pending submission as approved.
func (s *SubmissionStore) Approve(ctx context.Context, id uuid.UUID) (*models.SubmitSite, error) {
	return s.review(ctx, id, `
		UPDATE submit_sites SET status = 'APPROVED', approved_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
		RETURNING `+submissionColumns, id)
}

// Reject marks a pending submission as rejected with a reason.
func (s *SubmissionStore) Reject(ctx context.Context, id uuid.UUID, reason string) (*models.SubmitSite, error) {
	return s.review(ctx, id, `
		UPDATE submit_sites SET status = 'REJECTED', rejected_at = NOW(),
			rejection_reason = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
		RETURNING `+submissionColumns, id, reason)
}

func (s *SubmissionStore) review(ctx context.Context, id uuid.UUID, query string, args ...any) (*models.SubmitSite, error) {
	sub, err := scanSubmission(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		existing, ferr := s.FindByID(ctx, id)
		if ferr != nil {
			return nil, ferr
		}
		if existing == nil {
			return nil, ErrNotFound
		}
		return nil, ErrNotEditable
	}
	if err != nil {
		return nil, fmt.Errorf("review submission: %w", err)
	}
	return sub, nil
}
