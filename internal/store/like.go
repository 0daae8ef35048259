package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"refto/internal/models"
)

// LikeStore handles likes on versions.
type LikeStore struct {
	db *sql.DB
}

// NewLikeStore creates a new LikeStore.
func NewLikeStore(db *sql.DB) *LikeStore {
	return &LikeStore{db: db}
}

// Toggle flips the like of userID on versionID and reports the new state.
// It first tries to remove an existing like; if none was removed it
// inserts one, and a concurrent duplicate insert is absorbed by the
// primary key. Returns ErrNotFound for an unknown version or one whose
// page or site is deleted.
func (s *LikeStore) Toggle(ctx context.Context, versionID, userID uuid.UUID) (bool, error) {
	var live bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM versions v
			JOIN pages p ON p.id = v.page_id AND p.deleted_at IS NULL
			JOIN sites s ON s.id = p.site_id AND s.deleted_at IS NULL
			WHERE v.id = $1
		)
	`, versionID).Scan(&live)
	if err != nil {
		return false, fmt.Errorf("check version: %w", err)
	}
	if !live {
		return false, ErrNotFound
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM likes WHERE version_id = $1 AND user_id = $2
	`, versionID, userID)
	if err != nil {
		return false, fmt.Errorf("unlike: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO likes (version_id, user_id) VALUES ($1, $2)
		ON CONFLICT (version_id, user_id) DO NOTHING
	`, versionID, userID)
	if isForeignKeyViolation(err) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("like: %w", err)
	}
	return true, nil
}

// Stats returns the like count of a version and whether userID liked it.
// A nil userID always reports Liked as false.
func (s *LikeStore) Stats(ctx context.Context, versionID, userID uuid.UUID) (*models.LikeStats, error) {
	var st models.LikeStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(BOOL_OR(user_id = $2), FALSE)
		FROM likes WHERE version_id = $1
	`, versionID, userID).Scan(&st.Count, &st.Liked)
	if err != nil {
		return nil, fmt.Errorf("like stats: %w", err)
	}
	return &st, nil
}

// Leaderboard ranks live sites by the number of likes created in
// [from, to) on any version of any of their live pages. Ties are broken by
// site id so the order is stable.
func (s *LikeStore) Leaderboard(ctx context.Context, from, to time.Time, limit int) ([]models.LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+qualify("s", siteColumns)+`, agg.like_count
		FROM (
			SELECT p.site_id, COUNT(*) AS like_count
			FROM likes l
			JOIN versions v ON v.id = l.version_id
			JOIN pages p ON p.id = v.page_id AND p.deleted_at IS NULL
			WHERE l.created_at >= $1 AND l.created_at < $2
			GROUP BY p.site_id
		) agg
		JOIN sites s ON s.id = agg.site_id AND s.deleted_at IS NULL
		ORDER BY agg.like_count DESC, s.id ASC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(
			&e.Site.ID, &e.Site.Title, &e.Site.Slug, &e.Site.Description, &e.Site.LogoURL,
			&e.Site.URL, &e.Site.Rating, &e.Site.IsPinned, &e.Site.Visits, &e.Site.CreatedByID,
			&e.Site.DeletedAt, &e.Site.CreatedAt, &e.Site.UpdatedAt, &e.LikeCount,
		); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
