// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"refto/internal/models"
)

// siteColumns lists all columns for sites SELECTs.
const siteColumns = `id, title, slug, description, logo_url, url, rating,
	is_pinned, visits, created_by_id, deleted_at, created_at, updated_at`

// SiteStore handles all site-related database operations.
type SiteStore struct {
	db *sql.DB
}

// NewSiteStore creates a new SiteStore with the given database connection.
func NewSiteStore(db *sql.DB) *SiteStore {
	return &SiteStore{db: db}
}

// scanSite scans a single sites row into a Site.
func scanSite(scanner rowScanner) (*models.Site, error) {
	var s models.Site
	err := scanner.Scan(
		&s.ID, &s.Title, &s.Slug, &s.Description, &s.LogoURL, &s.URL, &s.Rating,
		&s.IsPinned, &s.Visits, &s.CreatedByID, &s.DeletedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SiteDraft carries everything needed to create a site in one step: the
// site row, its default page, and the first version of that page.
type SiteDraft struct {
	Site          models.Site
	Page          models.Page
	Version       models.Version
	SiteTagIDs    []uuid.UUID
	VersionTagIDs []uuid.UUID
}

// CreatedSite is the result of Create.
type CreatedSite struct {
	Site    *models.Site    `json:"site"`
	Page    *models.Page    `json:"page"`
	Version *models.Version `json:"version"`
}

// Create inserts a site with its default page and initial version inside
// one transaction. A duplicate live slug yields ErrConflict.
func (s *SiteStore) Create(ctx context.Context, d SiteDraft) (*CreatedSite, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	site, err := scanSite(tx.QueryRowContext(ctx, `
		INSERT INTO sites (title, slug, description, logo_url, url, rating, is_pinned, created_by_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+siteColumns,
		d.Site.Title, d.Site.Slug, d.Site.Description, d.Site.LogoURL, d.Site.URL,
		d.Site.Rating, d.Site.IsPinned, d.Site.CreatedByID,
	))
	if isUniqueViolation(err) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("insert site: %w", err)
	}

	if err := linkTags(ctx, tx, "site_tags", "site_id", site.ID, d.SiteTagIDs); err != nil {
		return nil, fmt.Errorf("link site tags: %w", err)
	}
	site.TagIDs = d.SiteTagIDs

	d.Page.SiteID = site.ID
	d.Page.IsDefault = true
	page, err := insertPage(ctx, tx, &d.Page)
	if err != nil {
		return nil, err
	}

	d.Version.PageID = page.ID
	version, err := insertVersion(ctx, tx, &d.Version, d.VersionTagIDs)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit site: %w", err)
	}
	return &CreatedSite{Site: site, Page: page, Version: version}, nil
}

// SiteUpdate holds optional site fields changed alongside a new version.
// Nil fields are left untouched.
type SiteUpdate struct {
	Title       *string
	Description *string
	LogoURL     *string
	Rating      *int
	IsPinned    *bool
	TagIDs      []uuid.UUID
}

// AddVersion appends a version to a page of the site, optionally updating
// site fields in the same transaction. A nil pageID targets the default
// page. Returns ErrNotFound when the site or page is missing or deleted.
func (s *SiteStore) AddVersion(ctx context.Context, siteID uuid.UUID, pageID *uuid.UUID, upd SiteUpdate, v models.Version, tagIDs []uuid.UUID) (*models.Version, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE sites SET
			title       = COALESCE($2, title),
			description = COALESCE($3, description),
			logo_url    = COALESCE($4, logo_url),
			rating      = COALESCE($5, rating),
			is_pinned   = COALESCE($6, is_pinned),
			updated_at  = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, siteID, upd.Title, upd.Description, upd.LogoURL, upd.Rating, upd.IsPinned)
	if err != nil {
		return nil, fmt.Errorf("update site: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	if upd.TagIDs != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM site_tags WHERE site_id = $1`, siteID); err != nil {
			return nil, fmt.Errorf("clear site tags: %w", err)
		}
		if err := linkTags(ctx, tx, "site_tags", "site_id", siteID, upd.TagIDs); err != nil {
			return nil, fmt.Errorf("link site tags: %w", err)
		}
	}

	var target uuid.UUID
	if pageID != nil {
		err = tx.QueryRowContext(ctx, `
			SELECT id FROM pages WHERE id = $1 AND site_id = $2 AND deleted_at IS NULL
		`, *pageID, siteID).Scan(&target)
	} else {
		err = tx.QueryRowContext(ctx, `
			SELECT id FROM pages
			WHERE site_id = $1 AND is_default AND deleted_at IS NULL
			ORDER BY id LIMIT 1
		`, siteID).Scan(&target)
	}
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find target page: %w", err)
	}

	v.PageID = target
	version, err := insertVersion(ctx, tx, &v, tagIDs)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit version: %w", err)
	}
	return version, nil
}

// FindByID retrieves a site by id, including soft-deleted ones.
// Returns nil if not found.
func (s *SiteStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Site, error) {
	site, err := scanSite(s.db.QueryRowContext(ctx, `
		SELECT `+siteColumns+` FROM sites WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find site by id: %w", err)
	}
	return site, nil
}

// FindBySlug retrieves a live site by slug. Returns nil if not found.
func (s *SiteStore) FindBySlug(ctx context.Context, slug string) (*models.Site, error) {
	site, err := scanSite(s.db.QueryRowContext(ctx, `
		SELECT `+siteColumns+` FROM sites WHERE slug = $1 AND deleted_at IS NULL
	`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find site by slug: %w", err)
	}

	site.TagIDs, err = s.TagIDs(ctx, site.ID)
	if err != nil {
		return nil, err
	}
	return site, nil
}

// SlugExists reports whether a live site already uses slug.
func (s *SiteStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM sites WHERE slug = $1 AND deleted_at IS NULL)
	`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check site slug: %w", err)
	}
	return exists, nil
}

// SoftDelete marks a site as deleted. Its pages, versions and likes stay
// in place but disappear from every listing.
func (s *SiteStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sites SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("soft delete site: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementVisits bumps the visit counter of a live site.
func (s *SiteStore) IncrementVisits(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sites SET visits = visits + 1 WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("increment visits: %w", err)
	}
	return nil
}

// TagIDs returns the ids of the live tags attached to a site.
func (s *SiteStore) TagIDs(ctx context.Context, siteID uuid.UUID) ([]uuid.UUID, error) {
	var arr pq.StringArray
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(array_agg(st.tag_id ORDER BY st.tag_id), '{}')::text
		FROM site_tags st
		JOIN tags t ON t.id = st.tag_id AND t.deleted_at IS NULL
		WHERE st.site_id = $1
	`, siteID).Scan(&arr)
	if err != nil {
		return nil, fmt.Errorf("site tag ids: %w", err)
	}
	return parseUUIDs(arr)
}
