package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"refto/internal/models"
)

const tagColumns = `id, name, value, type, description, tip_media, deleted_at, created_at, updated_at`

// TagStore handles tag-related database operations.
type TagStore struct {
	db *sql.DB
}

// NewTagStore creates a new TagStore.
func NewTagStore(db *sql.DB) *TagStore {
	return &TagStore{db: db}
}

func scanTag(scanner rowScanner) (*models.Tag, error) {
	var t models.Tag
	err := scanner.Scan(
		&t.ID, &t.Name, &t.Value, &t.Type, &t.Description, &t.TipMedia,
		&t.DeletedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a tag. A live tag with the same value and type yields
// ErrConflict.
func (s *TagStore) Create(ctx context.Context, t *models.Tag) (*models.Tag, error) {
	created, err := scanTag(s.db.QueryRowContext(ctx, `
		INSERT INTO tags (name, value, type, description, tip_media)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+tagColumns,
		t.Name, t.Value, t.Type, t.Description, t.TipMedia,
	))
	if isUniqueViolation(err) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return created, nil
}

// List returns live tags ordered by type then name. An empty tagType
// returns every type.
func (s *TagStore) List(ctx context.Context, tagType models.TagType) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+tagColumns+`
		FROM tags
		WHERE deleted_at IS NULL AND ($1::text = '' OR type = $1::text)
		ORDER BY type, name, id
	`, string(tagType))
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, *t)
	}
	return tags, rows.Err()
}

// FindByID retrieves a live tag. Returns nil if not found.
func (s *TagStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	t, err := scanTag(s.db.QueryRowContext(ctx, `
		SELECT `+tagColumns+` FROM tags WHERE id = $1 AND deleted_at IS NULL
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tag by id: %w", err)
	}
	return t, nil
}

// SoftDelete hides a tag. Existing links stay but are ignored by every
// tag lookup and correlation.
func (s *TagStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tags SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("soft delete tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
