// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// TagType groups tags into the three facets used by the catalog UI.
type TagType string

const (
	TagTypeCategory TagType = "category"
	TagTypeSection  TagType = "section"
	TagTypeStyle    TagType = "style"
)

// Valid reports whether t is one of the known tag types.
func (t TagType) Valid() bool {
	switch t {
	case TagTypeCategory, TagTypeSection, TagTypeStyle:
		return true
	}
	return false
}

// Tag labels sites (whole-site facets) and versions (per-snapshot facets)
// through two separate join tables. Value+Type is unique among live tags.
type Tag struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Value       string    `json:"value"`
	Type        TagType   `json:"type"`
	Description *string   `json:"description,omitempty"`
	TipMedia    *string   `json:"tip_media,omitempty"`

	// DescriptionHTML is Description rendered from Markdown; not stored.
	DescriptionHTML string `json:"description_html,omitempty"`

	DeletedAt *time.Time `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
