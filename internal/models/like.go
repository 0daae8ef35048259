package models

import (
	"time"

	"github.com/google/uuid"
)

// Like records that a user liked one specific version. The (VersionID,
// UserID) pair is unique; liking a site means liking its current version.
type Like struct {
	VersionID uuid.UUID `json:"version_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeStats summarises likes on a version from one viewer's perspective.
type LikeStats struct {
	Count int  `json:"count"`
	Liked bool `json:"liked"`
}
