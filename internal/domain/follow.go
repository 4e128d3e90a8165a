package domain

import (
	"time"
)

// RelationEntry is one resolved entry of a followers or following list.
type RelationEntry struct {
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Avatar     string    `json:"avatar,omitempty"`
	FollowedAt time.Time `json:"followed_at"`
}

// FollowResult is returned by a successful follow or unfollow mutation.
// Counts reflect the state durably committed by the mutation's transaction.
type FollowResult struct {
	Peer                 RelationEntry
	FollowingCount       int64
	TargetFollowersCount int64
}

// RelationPage is a paginated slice of a relationship list, newest first.
type RelationPage struct {
	Entries  []RelationEntry `json:"entries"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Pages    int             `json:"pages"`
}

// Suggestion is a follow candidate ranked by popularity.
type Suggestion struct {
	UserID         string `json:"user_id"`
	Name           string `json:"name"`
	Avatar         string `json:"avatar,omitempty"`
	FollowersCount int64  `json:"followers_count"`
}
