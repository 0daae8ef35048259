package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"refto/internal/models"
)

// pageColumns lists all columns for pages SELECTs.
const pageColumns = `id, site_id, title, slug, url, is_default, deleted_at, created_at, updated_at`

// PageStore handles page-related database operations.
type PageStore struct {
	db *sql.DB
}

// NewPageStore creates a new PageStore.
func NewPageStore(db *sql.DB) *PageStore {
	return &PageStore{db: db}
}

func scanPage(scanner rowScanner) (*models.Page, error) {
	var p models.Page
	err := scanner.Scan(
		&p.ID, &p.SiteID, &p.Title, &p.Slug, &p.URL, &p.IsDefault,
		&p.DeletedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByID retrieves a live page of a live site. Returns nil if not found.
func (s *PageStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Page, error) {
	p, err := scanPage(s.db.QueryRowContext(ctx, `
		SELECT `+qualify("p", pageColumns)+`
		FROM pages p
		JOIN sites s ON s.id = p.site_id AND s.deleted_at IS NULL
		WHERE p.id = $1 AND p.deleted_at IS NULL
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find page by id: %w", err)
	}
	return p, nil
}

// ListBySite returns the live pages of a site, default page first.
func (s *PageStore) ListBySite(ctx context.Context, siteID uuid.UUID) ([]models.Page, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+pageColumns+`
		FROM pages
		WHERE site_id = $1 AND deleted_at IS NULL
		ORDER BY is_default DESC, created_at ASC, id ASC
	`, siteID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var pages []models.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, *p)
	}
	return pages, rows.Err()
}

// DefaultPage returns the live default page of a site with the lowest id,
// along with how many live pages carry the default flag. Returns a nil
// page when the site has none.
func (s *PageStore) DefaultPage(ctx context.Context, siteID uuid.UUID) (*models.Page, int, error) {
	var p models.Page
	var defaults int
	err := s.db.QueryRowContext(ctx, `
		SELECT `+pageColumns+`, COUNT(*) OVER ()
		FROM pages
		WHERE site_id = $1 AND is_default AND deleted_at IS NULL
		ORDER BY id
		LIMIT 1
	`, siteID).Scan(
		&p.ID, &p.SiteID, &p.Title, &p.Slug, &p.URL, &p.IsDefault,
		&p.DeletedAt, &p.CreatedAt, &p.UpdatedAt, &defaults,
	)
	if err == sql.ErrNoRows {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("find default page: %w", err)
	}
	return &p, defaults, nil
}

// Create adds a non-default page to a live site together with its first
// version. Returns ErrNotFound for a missing site and ErrConflict for a
// slug already used by another live page of the site.
func (s *PageStore) Create(ctx context.Context, p models.Page, v models.Version, tagIDs []uuid.UUID) (*models.Page, *models.Version, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var live bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM sites WHERE id = $1 AND deleted_at IS NULL)
	`, p.SiteID).Scan(&live)
	if err != nil {
		return nil, nil, fmt.Errorf("check site: %w", err)
	}
	if !live {
		return nil, nil, ErrNotFound
	}

	p.IsDefault = false
	page, err := insertPage(ctx, tx, &p)
	if err != nil {
		return nil, nil, err
	}

	v.PageID = page.ID
	version, err := insertVersion(ctx, tx, &v, tagIDs)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit page: %w", err)
	}
	return page, version, nil
}

// SetDefault makes pageID the only default page of its site.
func (s *PageStore) SetDefault(ctx context.Context, siteID, pageID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE pages SET is_default = TRUE, updated_at = NOW()
		WHERE id = $1 AND site_id = $2 AND deleted_at IS NULL
	`, pageID, siteID)
	if err != nil {
		return fmt.Errorf("set default page: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE pages SET is_default = FALSE, updated_at = NOW()
		WHERE site_id = $1 AND id <> $2 AND is_default
	`, siteID, pageID)
	if err != nil {
		return fmt.Errorf("clear default pages: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit default page: %w", err)
	}
	return nil
}

// SoftDelete marks a page as deleted. The default page cannot be deleted
// while it is the site's only default; ErrConflict is returned instead.
func (s *PageStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	p, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNotFound
	}
	if p.IsDefault {
		_, defaults, err := s.DefaultPage(ctx, p.SiteID)
		if err != nil {
			return err
		}
		if defaults <= 1 {
			return ErrConflict
		}
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE pages SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("soft delete page: %w", err)
	}
	return nil
}

// insertPage writes a page row. A duplicate live slug within the site
// yields ErrConflict; an unknown site yields ErrNotFound.
func insertPage(ctx context.Context, q querier, p *models.Page) (*models.Page, error) {
	page, err := scanPage(q.QueryRowContext(ctx, `
		INSERT INTO pages (site_id, title, slug, url, is_default)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+pageColumns,
		p.SiteID, p.Title, p.Slug, p.URL, p.IsDefault,
	))
	switch {
	case isUniqueViolation(err):
		return nil, ErrConflict
	case isForeignKeyViolation(err):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("insert page: %w", err)
	}
	return page, nil
}
