package domain

import (
	"time"
)

// UserModel is the GORM model for the users table.
// followers_count and following_count are denormalized from the follows table
// and are only ever written inside the same transaction as the edge mutation.
type UserModel struct {
	ID             string    `gorm:"type:varchar(36);primaryKey"`
	Name           string    `gorm:"type:varchar(50);not null"`
	Email          string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash   string    `gorm:"type:varchar(255);not null"`
	Avatar         string    `gorm:"type:varchar(512)"`
	FollowersCount int64     `gorm:"not null;default:0"`
	FollowingCount int64     `gorm:"not null;default:0"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for UserModel.
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts UserModel to domain User.
func (m *UserModel) ToDomain() *User {
	return &User{
		ID:             m.ID,
		Name:           m.Name,
		Email:          m.Email,
		PasswordHash:   m.PasswordHash,
		Avatar:         m.Avatar,
		FollowersCount: m.FollowersCount,
		FollowingCount: m.FollowingCount,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// UserToModel converts domain User to UserModel.
func UserToModel(u *User) *UserModel {
	return &UserModel{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		Avatar:         u.Avatar,
		FollowersCount: u.FollowersCount,
		FollowingCount: u.FollowingCount,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// FollowModel is the GORM model for the follows table. A single row is both
// the "following" entry of the follower and the "followers" entry of the
// followee, so the two relationship views can never disagree.
type FollowModel struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	FollowerID  string    `gorm:"column:follower_id;type:varchar(36);not null;uniqueIndex:uidx_follow_pair,priority:1;index:idx_follows_follower"`
	FollowingID string    `gorm:"column:following_id;type:varchar(36);not null;uniqueIndex:uidx_follow_pair,priority:2;index:idx_follows_following"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for FollowModel.
func (FollowModel) TableName() string {
	return "follows"
}
