package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"refto/internal/models"
)

func TestSubmissionLifecycle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	s := NewSubmissionStore(db)
	owner := uuid.New()

	sub, err := s.Create(ctx, &models.SubmitSite{
		Title: "Linear", URL: "https://linear.app", Email: "me@example.com", UserID: owner,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { db.Exec(`DELETE FROM submit_sites WHERE id = $1`, sub.ID) })

	if sub.Status != models.SubmissionPending {
		t.Errorf("status: got %q, want PENDING", sub.Status)
	}

	rejected, err := s.Reject(ctx, sub.ID, "duplicate")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != models.SubmissionRejected || rejected.RejectedAt == nil {
		t.Errorf("reject did not record metadata: %+v", rejected)
	}

	// Editing a rejected submission sends it back to review.
	rejected.Title = "Linear (again)"
	updated, err := s.Update(ctx, owner, rejected)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != models.SubmissionPending || updated.RejectedAt != nil || updated.RejectionReason != nil {
		t.Errorf("update did not reset rejection: %+v", updated)
	}

	if _, err := s.Update(ctx, uuid.New(), updated); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign user update: expected ErrNotFound, got %v", err)
	}

	if _, err := s.Approve(ctx, sub.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := s.Update(ctx, owner, updated); !errors.Is(err, ErrNotEditable) {
		t.Errorf("approved update: expected ErrNotEditable, got %v", err)
	}
	if _, err := s.Reject(ctx, sub.ID, "late"); !errors.Is(err, ErrNotEditable) {
		t.Errorf("reject after approve: expected ErrNotEditable, got %v", err)
	}

	list, err := s.List(ctx, models.SubmissionApproved, 100, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	found := false
	for _, item := range list {
		if item.ID == sub.ID {
			found = true
		}
		if item.Status != models.SubmissionApproved {
			t.Errorf("status filter leaked %q", item.Status)
		}
	}
	if !found {
		t.Error("approved submission missing from list")
	}
}
