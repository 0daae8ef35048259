package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"refto/internal/feed"
	"refto/internal/markdown"
	"refto/internal/middleware"
	"refto/internal/models"
	"refto/internal/store"
)

// Sites groups the public catalog read endpoints.
type Sites struct {
	service  *feed.Service
	sites    *store.SiteStore
	pages    *store.PageStore
	versions *store.VersionStore
	likes    *store.LikeStore
	tags     *store.TagStore
}

// NewSites creates a new Sites handler group.
func NewSites(service *feed.Service, sites *store.SiteStore, pages *store.PageStore, versions *store.VersionStore, likes *store.LikeStore, tags *store.TagStore) *Sites {
	return &Sites{
		service:  service,
		sites:    sites,
		pages:    pages,
		versions: versions,
		likes:    likes,
		tags:     tags,
	}
}

// siteDetail is the response of GET /api/sites/{slug}.
type siteDetail struct {
	Site        *models.Site    `json:"site"`
	Pages       []models.Page   `json:"pages"`
	DefaultPage *models.Page    `json:"default_page,omitempty"`
	Current     *models.Version `json:"current,omitempty"`
}

// Detail serves GET /api/sites/{slug}. A site without a resolvable current
// version is still returned, with current omitted.
func (h *Sites) Detail(w http.ResponseWriter, r *http.Request) {
	site, err := h.sites.FindBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if site == nil {
		writeError(w, http.StatusNotFound, "site not found")
		return
	}

	pages, err := h.pages.ListBySite(r.Context(), site.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	detail := siteDetail{Site: site, Pages: pages}
	page, current, err := h.service.ResolveSiteCurrent(r.Context(), site.ID)
	switch {
	case errors.Is(err, feed.ErrNotFound):
	case err != nil:
		handleError(w, r, err)
		return
	default:
		detail.DefaultPage = page
		detail.Current = current
	}
	if detail.Pages == nil {
		detail.Pages = []models.Page{}
	}

	if err := h.sites.IncrementVisits(r.Context(), site.ID); err != nil {
		slog.Warn("increment visits failed", "site_id", site.ID, "error", err)
	}
	writeJSON(w, http.StatusOK, detail)
}

// PageVersions serves GET /api/pages/{id}/versions, newest first.
func (h *Sites) PageVersions(w http.ResponseWriter, r *http.Request) {
	page, ok := h.livePage(w, r)
	if !ok {
		return
	}
	versions, err := h.versions.ListByPage(r.Context(), page.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if versions == nil {
		versions = []models.Version{}
	}
	writeJSON(w, http.StatusOK, versions)
}

// PageCurrent serves GET /api/pages/{id}/current.
func (h *Sites) PageCurrent(w http.ResponseWriter, r *http.Request) {
	page, ok := h.livePage(w, r)
	if !ok {
		return
	}
	v, err := h.service.ResolveCurrent(r.Context(), page.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// VersionLikes serves GET /api/versions/{id}/likes. Liked is always false
// for anonymous callers.
func (h *Sites) VersionLikes(w http.ResponseWriter, r *http.Request) {
	versionID, err := uuidParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	v, err := h.versions.FindByID(r.Context(), versionID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if v == nil {
		writeError(w, http.StatusNotFound, "version not found")
		return
	}

	stats, err := h.likes.Stats(r.Context(), versionID, middleware.UserID(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Tags serves GET /api/tags, optionally filtered by ?type=.
func (h *Sites) Tags(w http.ResponseWriter, r *http.Request) {
	tagType := models.TagType(r.URL.Query().Get("type"))
	if tagType != "" && !tagType.Valid() {
		handleError(w, r, &feed.ValidationError{Field: "type", Message: "must be one of category, section, style"})
		return
	}
	tags, err := h.tags.List(r.Context(), tagType)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	for i := range tags {
		renderTip(&tags[i])
	}
	writeJSON(w, http.StatusOK, tags)
}

// renderTip fills DescriptionHTML. A tip that fails to render is served
// without HTML rather than failing the listing.
func renderTip(t *models.Tag) {
	if t.Description == nil {
		return
	}
	html, err := markdown.ToHTML(*t.Description)
	if err != nil {
		slog.Warn("render tag tip failed", "tag_id", t.ID, "error", err)
		return
	}
	t.DescriptionHTML = html
}

// livePage loads the {id} page, answering 400/404 itself when it cannot.
func (h *Sites) livePage(w http.ResponseWriter, r *http.Request) (*models.Page, bool) {
	id, err := uuidParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return nil, false
	}
	page, err := h.pages.FindByID(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return nil, false
	}
	if page == nil {
		writeError(w, http.StatusNotFound, "page not found")
		return nil, false
	}
	return page, true
}
