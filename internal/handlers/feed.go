package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"refto/internal/feed"
	"refto/internal/middleware"
	"refto/internal/models"
)

// Feed groups the read-side feed endpoints and like toggling.
type Feed struct {
	service       *feed.Service
	anonWeekLimit int
}

// NewFeed creates a new Feed handler group. Anonymous callers of the weekly
// feed may not see past anonWeekLimit weeks; zero disables the cap.
func NewFeed(service *feed.Service, anonWeekLimit int) *Feed {
	return &Feed{
		service:       service,
		anonWeekLimit: anonWeekLimit,
	}
}

// Latest serves GET /api/feed.
func (h *Feed) Latest(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleError(w, r, err)
		return
	}
	tagIDs, err := queryUUIDs(r, "tags")
	if err != nil {
		handleError(w, r, err)
		return
	}
	pinned, err := queryBool(r, "pinned")
	if err != nil {
		handleError(w, r, err)
		return
	}

	page, err := h.service.Feed(r.Context(), feed.FeedQuery{
		Cursor: r.URL.Query().Get("cursor"),
		Limit:  limit,
		Search: r.URL.Query().Get("search"),
		TagIDs: tagIDs,
		Pinned: pinned,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// weeklyResponse omits nextCursor when the caller may not page further.
type weeklyResponse struct {
	Weeks      []models.WeekGroup `json:"weeks"`
	NextCursor *int               `json:"nextCursor,omitempty"`
}

// Weekly serves GET /api/feed/weekly.
func (h *Feed) Weekly(w http.ResponseWriter, r *http.Request) {
	cursor, err := queryInt(r, "cursor")
	if err != nil {
		handleError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleError(w, r, err)
		return
	}

	anonymous := middleware.SessionFromCtx(r.Context()) == nil
	capped := anonymous && h.anonWeekLimit > 0
	if capped && cursor >= h.anonWeekLimit {
		writeJSON(w, http.StatusOK, weeklyResponse{Weeks: []models.WeekGroup{}})
		return
	}

	page, err := h.service.Weekly(r.Context(), cursor, limit)
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := weeklyResponse{Weeks: page.Weeks, NextCursor: &page.NextCursor}
	if capped && page.NextCursor >= h.anonWeekLimit {
		resp.Weeks = page.Weeks[:h.anonWeekLimit-cursor]
		resp.NextCursor = nil
	}
	writeJSON(w, http.StatusOK, resp)
}

// Related serves GET /api/sites/{id}/related.
func (h *Feed) Related(w http.ResponseWriter, r *http.Request) {
	siteID, err := uuidParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleError(w, r, err)
		return
	}

	sites, err := h.service.Related(r.Context(), siteID, limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sites)
}

// Correlate serves GET /api/correlate?tags=..&exclude=.., ranking sites by
// how many of the given tags they carry.
func (h *Feed) Correlate(w http.ResponseWriter, r *http.Request) {
	tagIDs, err := queryUUIDs(r, "tags")
	if err != nil {
		handleError(w, r, err)
		return
	}
	exclude, err := queryUUIDs(r, "exclude")
	if err != nil {
		handleError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleError(w, r, err)
		return
	}

	sites, err := h.service.Correlate(r.Context(), tagIDs, exclude, limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sites)
}

// Leaderboard serves GET /api/leaderboard?range=this_week&limit=10.
func (h *Feed) Leaderboard(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("range"))
	if name == "" {
		name = string(feed.RangeThisWeek)
	}
	rng, err := feed.ParseRange(name)
	if err != nil {
		handleError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleError(w, r, err)
		return
	}

	entries, err := h.service.Leaderboard(r.Context(), rng, limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// ToggleLike serves POST /api/versions/{id}/like for the signed-in user.
func (h *Feed) ToggleLike(w http.ResponseWriter, r *http.Request) {
	versionID, err := uuidParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	userID := middleware.UserID(r.Context())
	if userID == uuid.Nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	liked, err := h.service.ToggleLike(r.Context(), versionID, userID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}
