// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Site is a catalogued website. A site owns one or more pages; exactly one
// of them is flagged default and stands for the site in listings.
type Site struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	LogoURL     string     `json:"logo_url"`
	URL         string     `json:"url"`
	Rating      int        `json:"rating"`
	IsPinned    bool       `json:"is_pinned"`
	Visits      int64      `json:"visits"`
	CreatedByID *uuid.UUID `json:"created_by_id,omitempty"`
	DeletedAt   *time.Time `json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Virtual fields populated by store methods.
	TagIDs     []uuid.UUID `json:"tag_ids,omitempty"`
	MatchCount int         `json:"match_count,omitempty"`
}

// IsDeleted reports whether the site has been soft-deleted.
func (s *Site) IsDeleted() bool {
	return s.DeletedAt != nil
}

// MaxRating is the upper bound of Site.Rating.
const MaxRating = 5
