package pubsub

import (
	"fmt"
	"time"
)

// Channel naming convention: per-user social event streams.
const (
	ChannelSocialEvents        = "social:user:%s:events"
	ChannelSocialEventsPattern = "social:user:*:events"
)

// Event types emitted by the social graph manager.
const (
	EventUserFollowed   = "user_followed"
	EventUserUnfollowed = "user_unfollowed"
	EventUserRegistered = "user_registered"
)

// SocialEventsChannel returns the channel name for a user's social events.
func SocialEventsChannel(userID string) string {
	return fmt.Sprintf(ChannelSocialEvents, userID)
}

// FollowedPayload is published when a follow relationship is created.
type FollowedPayload struct {
	FollowerID  string    `json:"follower_id"`
	FollowingID string    `json:"following_id"`
	FollowedAt  time.Time `json:"followed_at"`
}

// UnfollowedPayload is published when a follow relationship is removed.
type UnfollowedPayload struct {
	FollowerID  string `json:"follower_id"`
	FollowingID string `json:"following_id"`
}

// RegisteredPayload is published when a new account is created.
type RegisteredPayload struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}
