package handlers

import (
	"net/http"

	"refto/internal/middleware"
	"refto/internal/models"
	"refto/internal/store"
)

// Submissions groups the handlers signed-in users call to propose sites.
type Submissions struct {
	submissions *store.SubmissionStore
}

// NewSubmissions creates a new Submissions handler group.
func NewSubmissions(submissions *store.SubmissionStore) *Submissions {
	return &Submissions{submissions: submissions}
}

type submissionRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	URL         string `json:"url" validate:"required,url"`
	Description string `json:"description" validate:"max=2000"`
	Email       string `json:"email" validate:"required,email"`
}

// Create serves POST /api/submissions.
func (h *Submissions) Create(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var req submissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	sub, err := h.submissions.Create(r.Context(), &models.SubmitSite{
		Title:       req.Title,
		URL:         req.URL,
		Description: req.Description,
		Email:       req.Email,
		UserID:      sess.UserID,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// Update serves PUT /api/submissions/{id}. Only the owner may edit, and
// only while the submission is pending or rejected.
func (h *Submissions) Update(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req submissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	sub, err := h.submissions.Update(r.Context(), sess.UserID, &models.SubmitSite{
		ID:          id,
		Title:       req.Title,
		URL:         req.URL,
		Description: req.Description,
		Email:       req.Email,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}
