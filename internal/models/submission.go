// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus is the review state of a user-submitted site.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "PENDING"
	SubmissionApproved SubmissionStatus = "APPROVED"
	SubmissionRejected SubmissionStatus = "REJECTED"
)

// SubmitSite is a candidate site proposed by a user and reviewed by an admin.
type SubmitSite struct {
	ID              uuid.UUID        `json:"id"`
	Title           string           `json:"title"`
	URL             string           `json:"url"`
	Description     string           `json:"description"`
	Email           string           `json:"email"`
	Status          SubmissionStatus `json:"status"`
	UserID          uuid.UUID        `json:"user_id"`
	RejectedAt      *time.Time       `json:"rejected_at,omitempty"`
	RejectionReason *string          `json:"rejection_reason,omitempty"`
	ApprovedAt      *time.Time       `json:"approved_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Editable reports whether the submitter may still change the submission.
// Approved submissions are frozen.
func (s *SubmitSite) Editable() bool {
	return s.Status == SubmissionPending || s.Status == SubmissionRejected
}
