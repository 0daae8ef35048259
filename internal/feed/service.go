// Package feed implements the read side of the catalog: current-version
// resolution, the latest-content cursor feed, the week-bucketed top feed,
// tag-overlap correlation of sites, and like toggling and leaderboards.
//
// Every method is a request-scoped call against the store. The package
// holds no state between calls besides configuration.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"refto/internal/models"
	"refto/internal/store"
)

// Limits applied when the caller does not configure its own.
const (
	DefaultLimit        = 20
	MaxLimit            = 100
	DefaultRelatedLimit = 6
	MaxWeeks            = 12
)

// SiteFinder loads sites and their site-level tags.
type SiteFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Site, error)
	TagIDs(ctx context.Context, siteID uuid.UUID) ([]uuid.UUID, error)
}

// PageFinder locates pages and the default page of a site. DefaultPage
// returns the chosen page and how many live default pages the site has.
type PageFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Page, error)
	DefaultPage(ctx context.Context, siteID uuid.UUID) (*models.Page, int, error)
}

// VersionFinder resolves the latest version of a page.
type VersionFinder interface {
	Current(ctx context.Context, pageID uuid.UUID) (*models.Version, error)
}

// FeedQuerier runs the listing queries.
type FeedQuerier interface {
	Latest(ctx context.Context, filter store.Filter, after *store.Seek, limit int) ([]models.FeedItem, error)
	VersionsBetween(ctx context.Context, from, to time.Time) ([]models.FeedItem, error)
	Correlate(ctx context.Context, tagIDs, excludeIDs []uuid.UUID, limit int) ([]models.Site, error)
}

// LikeStore toggles likes and aggregates them per site.
type LikeStore interface {
	Toggle(ctx context.Context, versionID, userID uuid.UUID) (bool, error)
	Leaderboard(ctx context.Context, from, to time.Time, limit int) ([]models.LeaderboardEntry, error)
}

// Options configures a Service.
type Options struct {
	// Location pins week and day boundaries. Defaults to UTC.
	Location     *time.Location
	DefaultLimit int
	MaxLimit     int
}

// Service is the feed engine. It is safe for concurrent use.
type Service struct {
	sites    SiteFinder
	pages    PageFinder
	versions VersionFinder
	feeds    FeedQuerier
	likes    LikeStore

	loc          *time.Location
	defaultLimit int
	maxLimit     int
	now          func() time.Time
}

// NewService creates a feed engine on top of the given stores.
func NewService(sites SiteFinder, pages PageFinder, versions VersionFinder, feeds FeedQuerier, likes LikeStore, opts Options) *Service {
	s := &Service{
		sites:        sites,
		pages:        pages,
		versions:     versions,
		feeds:        feeds,
		likes:        likes,
		loc:          opts.Location,
		defaultLimit: opts.DefaultLimit,
		maxLimit:     opts.MaxLimit,
		now:          time.Now,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.defaultLimit <= 0 {
		s.defaultLimit = DefaultLimit
	}
	if s.maxLimit < s.defaultLimit {
		s.maxLimit = MaxLimit
	}
	return s
}

// Location returns the timezone used for calendar boundaries.
func (s *Service) Location() *time.Location {
	return s.loc
}

// ResolveCurrent returns the version of pageID with the latest version
// date. Returns ErrNotFound if the page has no versions.
func (s *Service) ResolveCurrent(ctx context.Context, pageID uuid.UUID) (*models.Version, error) {
	v, err := s.versions.Current(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("resolve current version: %w", err)
	}
	if v == nil {
		return nil, ErrNotFound
	}
	return v, nil
}

// ResolveSiteCurrent returns the current version of the site's default
// page. When several pages are flagged default the lowest id wins and the
// anomaly is logged and counted rather than failing the request.
func (s *Service) ResolveSiteCurrent(ctx context.Context, siteID uuid.UUID) (*models.Page, *models.Version, error) {
	page, defaults, err := s.pages.DefaultPage(ctx, siteID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve default page: %w", err)
	}
	if page == nil {
		return nil, nil, ErrNotFound
	}
	if defaults > 1 {
		defaultPageAnomalies.Inc()
		slog.Warn("site has multiple default pages",
			"site_id", siteID,
			"defaults", defaults,
			"chosen_page_id", page.ID,
		)
	}

	v, err := s.ResolveCurrent(ctx, page.ID)
	if err != nil {
		return nil, nil, err
	}
	return page, v, nil
}

// FeedQuery selects a slice of the latest-content feed.
type FeedQuery struct {
	Cursor string
	Limit  int
	Search string
	TagIDs []uuid.UUID
	Pinned *bool
}

// FeedPage is one slice of the latest-content feed. NextCursor is empty on
// the last page.
type FeedPage struct {
	Items      []models.FeedItem `json:"items"`
	NextCursor string            `json:"nextCursor,omitempty"`
}

// Filter builds the store filter for q. Conditions are added only for the
// parameters that are present.
func (q FeedQuery) Filter() store.Filter {
	var f store.And
	if search := strings.TrimSpace(q.Search); search != "" {
		f = append(f, store.Search(search))
	}
	if len(q.TagIDs) > 0 {
		f = append(f, store.TagOverlap(q.TagIDs))
	}
	if q.Pinned != nil {
		f = append(f, store.Eq{Field: "is_pinned", Value: *q.Pinned})
	}
	return f
}

// Feed returns sites newest first, each with the current version of its
// default page. An undecodable cursor restarts from the first page.
func (s *Service) Feed(ctx context.Context, q FeedQuery) (page *FeedPage, err error) {
	defer func() { observe("feed", err) }()

	limit, err := s.limit(q.Limit)
	if err != nil {
		return nil, err
	}

	var after *store.Seek
	if q.Cursor != "" {
		seek, err := DecodeCursor(q.Cursor)
		if err != nil {
			invalidCursors.Inc()
			slog.Debug("feed cursor rejected, restarting", "error", err)
		} else {
			after = &seek
		}
	}

	items, err := s.feeds.Latest(ctx, q.Filter(), after, limit+1)
	if err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}

	page = &FeedPage{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		last := page.Items[limit-1].Site
		page.NextCursor = EncodeCursor(store.Seek{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	if page.Items == nil {
		page.Items = []models.FeedItem{}
	}
	return page, nil
}

// WeeklyPage is one slice of the weekly feed, measured in weeks.
type WeeklyPage struct {
	Weeks      []models.WeekGroup `json:"weeks"`
	NextCursor int                `json:"nextCursor"`
}

// Weekly returns limit consecutive weeks starting cursor weeks before the
// current one. Empty weeks are included so that offsets stay aligned, and
// the next cursor is always cursor+limit.
func (s *Service) Weekly(ctx context.Context, cursor, limit int) (page *WeeklyPage, err error) {
	defer func() { observe("weekly", err) }()

	if cursor < 0 {
		return nil, invalid("cursor", "week offset must not be negative")
	}
	if limit == 0 {
		limit = 1
	}
	if limit < 0 || limit > MaxWeeks {
		return nil, invalid("limit", "must be between 1 and %d weeks", MaxWeeks)
	}

	now := s.now()
	from, to := weekSpan(now, s.loc, cursor, limit)
	items, err := s.feeds.VersionsBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("weekly feed: %w", err)
	}

	return &WeeklyPage{
		Weeks:      Bucketize(now, s.loc, cursor, limit, items),
		NextCursor: cursor + limit,
	}, nil
}

// Related returns sites sharing site-level tags with siteID, most shared
// tags first. The site itself is never included.
func (s *Service) Related(ctx context.Context, siteID uuid.UUID, limit int) (sites []models.Site, err error) {
	defer func() { observe("related", err) }()

	if limit == 0 {
		limit = DefaultRelatedLimit
	}
	if limit < 0 || limit > s.maxLimit {
		return nil, invalid("limit", "must be between 1 and %d", s.maxLimit)
	}

	site, err := s.sites.FindByID(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("related sites: %w", err)
	}
	if site == nil || site.IsDeleted() {
		return nil, ErrNotFound
	}

	tagIDs, err := s.sites.TagIDs(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("related sites: %w", err)
	}
	return s.correlate(ctx, tagIDs, []uuid.UUID{siteID}, limit)
}

// Correlate ranks live sites by how many of tagIDs they carry, breaking
// ties by recency, skipping excludeIDs. No tags means no correlation.
func (s *Service) Correlate(ctx context.Context, tagIDs, excludeIDs []uuid.UUID, limit int) (sites []models.Site, err error) {
	defer func() { observe("correlate", err) }()

	if limit == 0 {
		limit = DefaultRelatedLimit
	}
	if limit < 0 || limit > s.maxLimit {
		return nil, invalid("limit", "must be between 1 and %d", s.maxLimit)
	}
	return s.correlate(ctx, tagIDs, excludeIDs, limit)
}

func (s *Service) correlate(ctx context.Context, tagIDs, excludeIDs []uuid.UUID, limit int) ([]models.Site, error) {
	tagIDs = dedupe(tagIDs)
	if len(tagIDs) == 0 {
		return []models.Site{}, nil
	}
	sites, err := s.feeds.Correlate(ctx, tagIDs, excludeIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("correlate: %w", err)
	}
	if sites == nil {
		sites = []models.Site{}
	}
	return sites, nil
}

// ToggleLike flips the like state of (versionID, userID) and returns the
// new state. Duplicate concurrent likes collapse to a single row.
func (s *Service) ToggleLike(ctx context.Context, versionID, userID uuid.UUID) (liked bool, err error) {
	defer func() { observe("toggle_like", err) }()

	if userID == uuid.Nil {
		return false, invalid("user", "required")
	}

	liked, err = s.likes.Toggle(ctx, versionID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("toggle like: %w", err)
	}

	if liked {
		likeToggles.WithLabelValues("liked").Inc()
	} else {
		likeToggles.WithLabelValues("unliked").Inc()
	}
	return liked, nil
}

// Leaderboard returns the sites with the most likes created inside the
// window named by r.
func (s *Service) Leaderboard(ctx context.Context, r Range, limit int) (entries []models.LeaderboardEntry, err error) {
	defer func() { observe("leaderboard", err) }()

	limit, err = s.limit(limit)
	if err != nil {
		return nil, err
	}
	from, to, err := r.Window(s.now(), s.loc)
	if err != nil {
		return nil, err
	}

	entries, err = s.likes.Leaderboard(ctx, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	return entries, nil
}

// limit applies the default and validates the upper bound.
func (s *Service) limit(n int) (int, error) {
	if n == 0 {
		return s.defaultLimit, nil
	}
	if n < 0 || n > s.maxLimit {
		return 0, invalid("limit", "must be between 1 and %d", s.maxLimit)
	}
	return n, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
