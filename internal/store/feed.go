package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"refto/internal/models"
)

// FeedStore runs the listing queries behind the public feeds.
type FeedStore struct {
	db *sql.DB
}

// NewFeedStore creates a new FeedStore.
func NewFeedStore(db *sql.DB) *FeedStore {
	return &FeedStore{db: db}
}

// feedItemColumns selects a site, page and version (aliased s, p, v)
// followed by the all-time like count of the version.
var feedItemColumns = qualify("s", siteColumns) + ", " +
	qualify("p", pageColumns) + ", " +
	qualify("v", versionColumns) + `,
	(SELECT COUNT(*) FROM likes l WHERE l.version_id = v.id) AS like_count`

func scanFeedItem(scanner rowScanner) (*models.FeedItem, error) {
	var it models.FeedItem
	s, p, v := &it.Site, &it.Page, &it.Version
	err := scanner.Scan(
		&s.ID, &s.Title, &s.Slug, &s.Description, &s.LogoURL, &s.URL, &s.Rating,
		&s.IsPinned, &s.Visits, &s.CreatedByID, &s.DeletedAt, &s.CreatedAt, &s.UpdatedAt,
		&p.ID, &p.SiteID, &p.Title, &p.Slug, &p.URL, &p.IsDefault,
		&p.DeletedAt, &p.CreatedAt, &p.UpdatedAt,
		&v.ID, &v.PageID, &v.VersionDate, &v.Note, &v.OGImageURL,
		&v.WebCover, &v.WebRecord, &v.MobileCover, &v.MobileRecord, &v.CreatedAt,
		&it.LikeCount,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func collectFeedItems(rows *sql.Rows) ([]models.FeedItem, error) {
	defer rows.Close()

	var items []models.FeedItem
	for rows.Next() {
		it, err := scanFeedItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feed item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// Latest lists live sites newest first, each paired with the current
// version of its default page. Sites without a resolvable version are
// skipped. When after is set, only sites strictly after that position in
// (created_at DESC, id DESC) order are returned.
func (s *FeedStore) Latest(ctx context.Context, filter Filter, after *Seek, limit int) ([]models.FeedItem, error) {
	where, args, err := Compile(filter, 1)
	if err != nil {
		return nil, err
	}

	next := len(args) + 1
	if after != nil {
		where += fmt.Sprintf(" AND (s.created_at, s.id) < ($%d::timestamptz, $%d::uuid)", next, next+1)
		args = append(args, after.CreatedAt, after.ID)
		next += 2
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+feedItemColumns+`
		FROM sites s
		JOIN LATERAL (
			SELECT `+pageColumns+` FROM pages
			WHERE site_id = s.id AND is_default AND deleted_at IS NULL
			ORDER BY id
			LIMIT 1
		) p ON TRUE
		JOIN LATERAL (
			SELECT `+versionColumns+` FROM versions
			WHERE page_id = p.id
			ORDER BY `+currentVersionOrder+`
			LIMIT 1
		) v ON TRUE
		WHERE s.deleted_at IS NULL AND `+where+`
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT $`+strconv.Itoa(next), args...)
	if err != nil {
		return nil, fmt.Errorf("latest feed: %w", err)
	}
	return collectFeedItems(rows)
}

// VersionsBetween returns every version dated in [from, to) that belongs
// to a live page of a live site, with its like count.
func (s *FeedStore) VersionsBetween(ctx context.Context, from, to time.Time) ([]models.FeedItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+feedItemColumns+`
		FROM versions v
		JOIN pages p ON p.id = v.page_id AND p.deleted_at IS NULL
		JOIN sites s ON s.id = p.site_id AND s.deleted_at IS NULL
		WHERE v.version_date >= $1 AND v.version_date < $2
		ORDER BY v.version_date DESC, v.id DESC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("versions between: %w", err)
	}
	return collectFeedItems(rows)
}

// Correlate ranks live sites by how many of tagIDs they carry. Sites with
// no shared tag, and those in excludeIDs, are left out. Ties fall back to
// newest first.
func (s *FeedStore) Correlate(ctx context.Context, tagIDs, excludeIDs []uuid.UUID, limit int) ([]models.Site, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}
	if excludeIDs == nil {
		excludeIDs = []uuid.UUID{}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+qualify("s", siteColumns)+`, m.match_count
		FROM (
			SELECT st.site_id, COUNT(DISTINCT st.tag_id) AS match_count
			FROM site_tags st
			JOIN tags t ON t.id = st.tag_id AND t.deleted_at IS NULL
			WHERE st.tag_id = ANY($1::uuid[])
			GROUP BY st.site_id
		) m
		JOIN sites s ON s.id = m.site_id AND s.deleted_at IS NULL
		WHERE NOT (s.id = ANY($2::uuid[]))
		ORDER BY m.match_count DESC, s.created_at DESC, s.id DESC
		LIMIT $3
	`, pq.Array(uuidStrings(tagIDs)), pq.Array(uuidStrings(excludeIDs)), limit)
	if err != nil {
		return nil, fmt.Errorf("correlate sites: %w", err)
	}
	defer rows.Close()

	var sites []models.Site
	for rows.Next() {
		var site models.Site
		if err := rows.Scan(
			&site.ID, &site.Title, &site.Slug, &site.Description, &site.LogoURL, &site.URL,
			&site.Rating, &site.IsPinned, &site.Visits, &site.CreatedByID, &site.DeletedAt,
			&site.CreatedAt, &site.UpdatedAt, &site.MatchCount,
		); err != nil {
			return nil, fmt.Errorf("scan correlated site: %w", err)
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}
