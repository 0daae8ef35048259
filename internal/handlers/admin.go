// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"refto/internal/feed"
	"refto/internal/middleware"
	"refto/internal/models"
	"refto/internal/slug"
	"refto/internal/storage"
	"refto/internal/store"
)

// Admin groups the catalog management handlers. Every route is mounted
// behind middleware.RequireAdmin.
type Admin struct {
	sites       *store.SiteStore
	pages       *store.PageStore
	tags        *store.TagStore
	submissions *store.SubmissionStore
	storage     *storage.Client // nil when object storage is not configured
}

// NewAdmin creates a new Admin handler group.
func NewAdmin(sites *store.SiteStore, pages *store.PageStore, tags *store.TagStore, submissions *store.SubmissionStore, storageClient *storage.Client) *Admin {
	return &Admin{
		sites:       sites,
		pages:       pages,
		tags:        tags,
		submissions: submissions,
		storage:     storageClient,
	}
}

// versionInput is the media snapshot carried by every version-creating
// request. A missing version_date means now.
type versionInput struct {
	VersionDate  *time.Time  `json:"version_date"`
	Note         *string     `json:"note" validate:"omitempty,max=2000"`
	OGImageURL   *string     `json:"og_image_url" validate:"omitempty,url"`
	WebCover     string      `json:"web_cover" validate:"required,url"`
	WebRecord    *string     `json:"web_record" validate:"omitempty,url"`
	MobileCover  *string     `json:"mobile_cover" validate:"omitempty,url"`
	MobileRecord *string     `json:"mobile_record" validate:"omitempty,url"`
	TagIDs       []uuid.UUID `json:"tag_ids"`
}

func (in versionInput) model() models.Version {
	v := models.Version{
		Note:         in.Note,
		OGImageURL:   in.OGImageURL,
		WebCover:     in.WebCover,
		WebRecord:    in.WebRecord,
		MobileCover:  in.MobileCover,
		MobileRecord: in.MobileRecord,
	}
	if in.VersionDate != nil {
		v.VersionDate = *in.VersionDate
	}
	return v
}

type createSiteRequest struct {
	Title       string       `json:"title" validate:"required,max=200"`
	Slug        string       `json:"slug" validate:"omitempty,max=80"`
	Description string       `json:"description" validate:"max=2000"`
	LogoURL     string       `json:"logo_url" validate:"omitempty,url"`
	URL         string       `json:"url" validate:"required,url"`
	Rating      int          `json:"rating" validate:"min=0,max=5"`
	IsPinned    bool         `json:"is_pinned"`
	TagIDs      []uuid.UUID  `json:"tag_ids"`
	PageTitle   string       `json:"page_title" validate:"omitempty,max=200"`
	Version     versionInput `json:"version" validate:"required"`
}

// CreateSite serves POST /api/admin/sites. The site, its default page and
// the first version are written in one transaction.
func (h *Admin) CreateSite(w http.ResponseWriter, r *http.Request) {
	var req createSiteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	siteSlug, err := h.siteSlug(r, req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	pageTitle := req.PageTitle
	if pageTitle == "" {
		pageTitle = "Home"
	}
	var createdBy *uuid.UUID
	if id := middleware.UserID(r.Context()); id != uuid.Nil {
		createdBy = &id
	}

	created, err := h.sites.Create(r.Context(), store.SiteDraft{
		Site: models.Site{
			Title:       req.Title,
			Slug:        siteSlug,
			Description: req.Description,
			LogoURL:     req.LogoURL,
			URL:         req.URL,
			Rating:      req.Rating,
			IsPinned:    req.IsPinned,
			CreatedByID: createdBy,
		},
		Page: models.Page{
			Title: pageTitle,
			Slug:  slug.Generate(pageTitle),
			URL:   req.URL,
		},
		Version:       req.Version.model(),
		SiteTagIDs:    req.TagIDs,
		VersionTagIDs: req.Version.TagIDs,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	slog.Info("site created", "site_id", created.Site.ID, "slug", created.Site.Slug)
	writeJSON(w, http.StatusCreated, created)
}

// siteSlug normalizes an explicit slug, or derives a free one from the
// title, falling back to the URL host.
func (h *Admin) siteSlug(r *http.Request, req createSiteRequest) (string, error) {
	if req.Slug != "" {
		s := slug.Generate(req.Slug)
		if s == "" {
			return "", &feed.ValidationError{Field: "slug", Message: "must contain letters or digits"}
		}
		return s, nil
	}
	base := slug.Generate(req.Title)
	if base == "" {
		base = slug.FromURL(req.URL)
	}
	if base == "" {
		return "", &feed.ValidationError{Field: "title", Message: "cannot derive a slug"}
	}
	return slug.Unique(r.Context(), base, h.sites.SlugExists)
}

type addVersionRequest struct {
	PageID      *uuid.UUID   `json:"page_id"`
	Title       *string      `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string      `json:"description" validate:"omitempty,max=2000"`
	LogoURL     *string      `json:"logo_url" validate:"omitempty,url"`
	Rating      *int         `json:"rating" validate:"omitempty,min=0,max=5"`
	IsPinned    *bool        `json:"is_pinned"`
	TagIDs      []uuid.UUID  `json:"tag_ids"`
	Version     versionInput `json:"version" validate:"required"`
}

// AddVersion serves POST /api/admin/sites/{id}/versions. Site fields that
// are present are updated in the same transaction as the new version.
func (h *Admin) AddVersion(w http.ResponseWriter, r *http.Request) {
	siteID, err := uuidParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req addVersionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	v, err := h.sites.AddVersion(r.Context(), siteID, req.PageID, store.SiteUpdate{
		Title:       req.Title,
		Description: req.Description,
		LogoURL:     req.LogoURL,
		Rating:      req.Rating,
		IsPinned:    req.IsPinned,
		TagIDs:      req.TagIDs,
	}, req.Version.model(), req.Version.TagIDs)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

type createPageRequest struct {
	Title   string       `json:"title" validate:"required,max=200"`
	Slug    string       `json:"slug" validate:"omitempty,max=80"`
	URL     string       `json:"url" validate:"required,url"`
	Version versionInput `json:"version" validate:"required"`
}

// createdPage is the response of CreatePage.
type createdPage struct {
	Page    *models.Page    `json:"page"`
	Version *models.Version `json:"version"`
}

// CreatePage serves POST /api/admin/sites/{id}/pages.
func (h *Admin) CreatePage(w http.ResponseWriter, r *http.Request) {
	siteID, err := uuidParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req createPageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	pageSlug := slug.Generate(req.Slug)
	if pageSlug == "" {
		pageSlug = slug.Generate(req.Title)
	}
	if pageSlug == "" {
		handleError(w, r, &feed.ValidationError{Field: "slug", Message: "must contain letters or digits"})
		return
	}

	page, v, err := h.pages.Create(r.Context(), models.Page{
		SiteID: siteID,
		Title:  req.Title,
		Slug:   pageSlug,
		URL:    req.URL,
	}, req.Version.model(), req.Version.TagIDs)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdPage{Page: page, Version: v})
}

type setDefaultPageRequest struct {
	PageID uuid.UUID `json:"page_id" validate:"required"`
}

// SetDefaultPage serves PUT /api/admin/sites/{id}/default-page.
func (h *Admin) SetDefaultPage(w http.ResponseWriter, r *http.Request) {
	siteID, err := uuidParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req setDefaultPageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.pages.SetDefault(r.Context(), siteID, req.PageID); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteSite serves DELETE /api/admin/sites/{id}.
func (h *Admin) DeleteSite(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.sites.SoftDelete(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	slog.Info("site deleted", "site_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// DeletePage serves DELETE /api/admin/pages/{id}.
func (h *Admin) DeletePage(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.pages.SoftDelete(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createTagRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Value       string  `json:"value" validate:"required,max=100"`
	Type        string  `json:"type" validate:"required,tagtype"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	TipMedia    *string `json:"tip_media" validate:"omitempty,url"`
}

// CreateTag serves POST /api/admin/tags.
func (h *Admin) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req createTagRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	tag, err := h.tags.Create(r.Context(), &models.Tag{
		Name:        req.Name,
		Value:       req.Value,
		Type:        models.TagType(req.Type),
		Description: req.Description,
		TipMedia:    req.TipMedia,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	renderTip(tag)
	writeJSON(w, http.StatusCreated, tag)
}

// DeleteTag serves DELETE /api/admin/tags/{id}.
func (h *Admin) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.tags.SoftDelete(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type uploadRequest struct {
	Kind        string `json:"kind" validate:"required,mediakind"`
	ContentType string `json:"content_type" validate:"required,max=100"`
}

// PresignUpload serves POST /api/admin/uploads. The browser PUTs the file
// to upload_url and stores public_url on the version.
func (h *Admin) PresignUpload(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		writeError(w, http.StatusServiceUnavailable, "object storage is not configured")
		return
	}
	var req uploadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	kind, _ := storage.ParseMediaKind(req.Kind)
	if _, err := kind.Extension(req.ContentType); err != nil {
		handleError(w, r, &feed.ValidationError{Field: "content_type", Message: err.Error()})
		return
	}

	upload, err := h.storage.PresignUpload(r.Context(), kind, req.ContentType)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, upload)
}

// ListSubmissions serves GET /api/admin/submissions?status=&limit=&offset=.
func (h *Admin) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	status := models.SubmissionStatus(r.URL.Query().Get("status"))
	switch status {
	case "", models.SubmissionPending, models.SubmissionApproved, models.SubmissionRejected:
	default:
		handleError(w, r, &feed.ValidationError{Field: "status", Message: "must be PENDING, APPROVED or REJECTED"})
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		handleError(w, r, err)
		return
	}
	if limit == 0 {
		limit = feed.DefaultLimit
	}
	if limit < 0 || limit > feed.MaxLimit || offset < 0 {
		handleError(w, r, &feed.ValidationError{Field: "limit", Message: "out of range"})
		return
	}

	subs, err := h.submissions.List(r.Context(), status, limit, offset)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if subs == nil {
		subs = []models.SubmitSite{}
	}
	writeJSON(w, http.StatusOK, subs)
}

// ApproveSubmission serves POST /api/admin/submissions/{id}/approve.
func (h *Admin) ApproveSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	sub, err := h.submissions.Approve(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

// RejectSubmission serves POST /api/admin/submissions/{id}/reject.
func (h *Admin) RejectSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req rejectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	sub, err := h.submissions.Reject(r.Context(), id, req.Reason)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}
