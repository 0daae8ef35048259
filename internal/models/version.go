// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Version is a dated snapshot of a page. VersionDate defaults to the creation
// time but may be set in the past when backfilling history. Rows are never
// updated once written; an edit creates a new version.
type Version struct {
	ID          uuid.UUID `json:"id"`
	PageID      uuid.UUID `json:"page_id"`
	VersionDate time.Time `json:"version_date"`
	Note        *string   `json:"note,omitempty"`
	OGImageURL  *string   `json:"og_image_url,omitempty"`

	WebCover     string  `json:"web_cover"`
	WebRecord    *string `json:"web_record,omitempty"`
	MobileCover  *string `json:"mobile_cover,omitempty"`
	MobileRecord *string `json:"mobile_record,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	// Virtual fields populated by store methods.
	TagIDs []uuid.UUID `json:"tag_ids,omitempty"`
}

// HasMobile reports whether the version carries a mobile cover.
func (v *Version) HasMobile() bool {
	return v.MobileCover != nil && *v.MobileCover != ""
}
