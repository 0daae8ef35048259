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

// versionColumns lists all columns for versions SELECTs.
const versionColumns = `id, page_id, version_date, note, og_image_url,
	web_cover, web_record, mobile_cover, mobile_record, created_at`

// currentVersionOrder is the total order that defines a page's current
// version: latest version date, then latest insert, then highest id.
const currentVersionOrder = `version_date DESC, created_at DESC, id DESC`

// VersionStore provides access to page versions. Versions are append-only.
type VersionStore struct {
	db *sql.DB
}

// NewVersionStore creates a new VersionStore backed by the given database.
func NewVersionStore(db *sql.DB) *VersionStore {
	return &VersionStore{db: db}
}

// scanVersion scans a single versions row into a Version.
func scanVersion(scanner rowScanner) (*models.Version, error) {
	var v models.Version
	err := scanner.Scan(
		&v.ID, &v.PageID, &v.VersionDate, &v.Note, &v.OGImageURL,
		&v.WebCover, &v.WebRecord, &v.MobileCover, &v.MobileRecord, &v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Current returns the current version of a page: the one with the latest
// version date. Returns nil if the page has no versions.
func (s *VersionStore) Current(ctx context.Context, pageID uuid.UUID) (*models.Version, error) {
	v, err := scanVersion(s.db.QueryRowContext(ctx, `
		SELECT `+versionColumns+`
		FROM versions
		WHERE page_id = $1
		ORDER BY `+currentVersionOrder+`
		LIMIT 1
	`, pageID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("current version: %w", err)
	}
	return v, nil
}

// FindByID returns a single version with its tag ids. Versions of deleted
// pages or sites are not found. Returns nil if not found.
func (s *VersionStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Version, error) {
	v, err := scanVersion(s.db.QueryRowContext(ctx, `
		SELECT `+qualify("v", versionColumns)+`
		FROM versions v
		JOIN pages p ON p.id = v.page_id AND p.deleted_at IS NULL
		JOIN sites s ON s.id = p.site_id AND s.deleted_at IS NULL
		WHERE v.id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find version by id: %w", err)
	}

	v.TagIDs, err = s.TagIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ListByPage returns every version of a page in current-version order,
// newest first.
func (s *VersionStore) ListByPage(ctx context.Context, pageID uuid.UUID) ([]models.Version, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+versionColumns+`
		FROM versions
		WHERE page_id = $1
		ORDER BY `+currentVersionOrder, pageID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []models.Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, *v)
	}
	return versions, rows.Err()
}

// TagIDs returns the ids of the live tags attached to a version.
func (s *VersionStore) TagIDs(ctx context.Context, versionID uuid.UUID) ([]uuid.UUID, error) {
	var arr pq.StringArray
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(array_agg(vt.tag_id ORDER BY vt.tag_id), '{}')::text
		FROM version_tags vt
		JOIN tags t ON t.id = vt.tag_id AND t.deleted_at IS NULL
		WHERE vt.version_id = $1
	`, versionID).Scan(&arr)
	if err != nil {
		return nil, fmt.Errorf("version tag ids: %w", err)
	}
	return parseUUIDs(arr)
}

// insertVersion writes a new version row for v.PageID and links its tags.
// A zero VersionDate defaults to the insert time.
func insertVersion(ctx context.Context, q querier, v *models.Version, tagIDs []uuid.UUID) (*models.Version, error) {
	var versionDate any
	if !v.VersionDate.IsZero() {
		versionDate = v.VersionDate
	}

	created, err := scanVersion(q.QueryRowContext(ctx, `
		INSERT INTO versions (page_id, version_date, note, og_image_url,
		                      web_cover, web_record, mobile_cover, mobile_record)
		VALUES ($1, COALESCE($2::timestamptz, NOW()), $3, $4, $5, $6, $7, $8)
		RETURNING `+versionColumns,
		v.PageID, versionDate, v.Note, v.OGImageURL,
		v.WebCover, v.WebRecord, v.MobileCover, v.MobileRecord,
	))
	if isForeignKeyViolation(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("insert version: %w", err)
	}

	if err := linkTags(ctx, q, "version_tags", "version_id", created.ID, tagIDs); err != nil {
		return nil, fmt.Errorf("link version tags: %w", err)
	}
	created.TagIDs = tagIDs
	return created, nil
}
