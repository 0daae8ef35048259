package models

import "time"

// FeedItem is one entry of a feed: a site together with the page and version
// that represent it. LikeCount is the all-time like count of the version.
type FeedItem struct {
	Site      Site    `json:"site"`
	Page      Page    `json:"page"`
	Version   Version `json:"version"`
	LikeCount int     `json:"like_count"`
}

// WeekGroup is one calendar week of the weekly feed. EndDate is the last
// instant of Sunday, so the range [StartDate, EndDate] is inclusive.
type WeekGroup struct {
	WeekOffset int        `json:"week_offset"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    time.Time  `json:"end_date"`
	IsCurrent  bool       `json:"is_current"`
	Items      []FeedItem `json:"items"`
}

// LeaderboardEntry is one row of the like leaderboard.
type LeaderboardEntry struct {
	Site      Site `json:"site"`
	LikeCount int  `json:"like_count"`
}
