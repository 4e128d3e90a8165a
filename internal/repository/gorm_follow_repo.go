package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/sak-dev-bit/DevConnector/internal/domain"
	pkglog "github.com/sak-dev-bit/DevConnector/pkg/log"
)

// isUniqueViolation reports whether err is a unique-constraint violation on
// the constraint identified by one of the hints (index name, or a qualified
// column for drivers that only report columns). GORM translates these to
// gorm.ErrDuplicatedKey when TranslateError is on; the scoped string check
// covers drivers that miss the translation without swallowing unrelated
// errors that merely mention a duplicate.
func isUniqueViolation(err error, hints ...string) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	if !strings.Contains(msg, "duplicate key") &&
		!strings.Contains(msg, "Duplicate entry") &&
		!strings.Contains(msg, "UNIQUE constraint") {
		return false
	}
	for _, hint := range hints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

// GormFollowRepository implements FollowRepository using GORM.
type GormFollowRepository struct {
	db *gorm.DB
}

// NewGormFollowRepository creates a new GORM-backed follow repository.
func NewGormFollowRepository(db *gorm.DB) *GormFollowRepository {
	return &GormFollowRepository{db: db}
}

// Follow creates a follow relationship from followerID to followingID.
//
// The edge insert and both counter updates commit as one transaction: either
// the edge exists and both counters reflect it, or nothing changed at all.
func (r *GormFollowRepository) Follow(ctx context.Context, followerID, followingID string) (*domain.FollowResult, error) {
	var res domain.FollowResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target domain.UserModel
		if err := tx.First(&target, "id = ?", followingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		var caller domain.UserModel
		if err := tx.First(&caller, "id = ?", followerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		edge := domain.FollowModel{
			FollowerID:  followerID,
			FollowingID: followingID,
		}
		if err := tx.Create(&edge).Error; err != nil {
			// A concurrent follow of the same pair loses the race on the
			// unique index and is rejected, never double-applied.
			if isUniqueViolation(err, "uidx_follow_pair", "follows.follower_id") {
				return ErrAlreadyFollowing
			}
			return err
		}

		followingCount, followersCount, err := r.recountPair(tx, &caller, &target)
		if err != nil {
			return err
		}

		res = domain.FollowResult{
			Peer: domain.RelationEntry{
				UserID:     target.ID,
				Name:       target.Name,
				Avatar:     target.Avatar,
				FollowedAt: edge.CreatedAt,
			},
			FollowingCount:       followingCount,
			TargetFollowersCount: followersCount,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Unfollow removes the follow relationship from followerID to followingID.
func (r *GormFollowRepository) Unfollow(ctx context.Context, followerID, followingID string) (*domain.FollowResult, error) {
	var res domain.FollowResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target domain.UserModel
		if err := tx.First(&target, "id = ?", followingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		var caller domain.UserModel
		if err := tx.First(&caller, "id = ?", followerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		var edge domain.FollowModel
		if err := tx.First(&edge, "follower_id = ? AND following_id = ?", followerID, followingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFollowing
			}
			return err
		}

		if err := tx.Delete(&domain.FollowModel{}, edge.ID).Error; err != nil {
			return err
		}

		followingCount, followersCount, err := r.recountPair(tx, &caller, &target)
		if err != nil {
			return err
		}

		res = domain.FollowResult{
			Peer: domain.RelationEntry{
				UserID:     target.ID,
				Name:       target.Name,
				Avatar:     target.Avatar,
				FollowedAt: edge.CreatedAt,
			},
			FollowingCount:       followingCount,
			TargetFollowersCount: followersCount,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// recountPair recomputes caller.following_count and target.followers_count
// from the follows table inside tx and writes them back. Counters are always
// derived, never incremented, so a drifted value heals on the next mutation.
func (r *GormFollowRepository) recountPair(tx *gorm.DB, caller, target *domain.UserModel) (followingCount, followersCount int64, err error) {
	if err = tx.Model(&domain.FollowModel{}).
		Where("follower_id = ?", caller.ID).
		Count(&followingCount).Error; err != nil {
		return 0, 0, err
	}
	if err = tx.Model(&domain.FollowModel{}).
		Where("following_id = ?", target.ID).
		Count(&followersCount).Error; err != nil {
		return 0, 0, err
	}

	// Any difference beyond this mutation's own delta means the stored
	// counter had drifted from the list; it is repaired here, not fatal.
	l := pkglog.L()
	if diff := followingCount - caller.FollowingCount; diff < -1 || diff > 1 {
		l.Warn().
			Str(pkglog.FieldLogType, pkglog.LogTypeConsistency).
			Str(pkglog.FieldUserID, caller.ID).
			Int64("stored", caller.FollowingCount).
			Int64("derived", followingCount).
			Msg("following_count drift repaired during mutation")
	}
	if diff := followersCount - target.FollowersCount; diff < -1 || diff > 1 {
		l.Warn().
			Str(pkglog.FieldLogType, pkglog.LogTypeConsistency).
			Str(pkglog.FieldUserID, target.ID).
			Int64("stored", target.FollowersCount).
			Int64("derived", followersCount).
			Msg("followers_count drift repaired during mutation")
	}

	if err = tx.Model(&domain.UserModel{}).
		Where("id = ?", caller.ID).
		Update("following_count", followingCount).Error; err != nil {
		return 0, 0, err
	}
	if err = tx.Model(&domain.UserModel{}).
		Where("id = ?", target.ID).
		Update("followers_count", followersCount).Error; err != nil {
		return 0, 0, err
	}
	return followingCount, followersCount, nil
}

// IsFollowing checks if followerID follows followingID.
func (r *GormFollowRepository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.FollowModel{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListFollowers returns one page of userID's followers, newest first, with
// each entry resolved to the follower's public display fields.
func (r *GormFollowRepository) ListFollowers(ctx context.Context, userID string, offset, limit int) ([]domain.RelationEntry, int64, error) {
	if err := r.ensureUserExists(ctx, userID); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.FollowModel{}).
		Where("following_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	entries := make([]domain.RelationEntry, 0, limit)
	err := r.db.WithContext(ctx).
		Table("follows").
		Select("follows.follower_id AS user_id, users.name, users.avatar, follows.created_at AS followed_at").
		Joins("JOIN users ON users.id = follows.follower_id").
		Where("follows.following_id = ?", userID).
		Order("follows.created_at DESC, follows.id DESC").
		Offset(offset).
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ListFollowing returns one page of the users userID follows, newest first.
func (r *GormFollowRepository) ListFollowing(ctx context.Context, userID string, offset, limit int) ([]domain.RelationEntry, int64, error) {
	if err := r.ensureUserExists(ctx, userID); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.FollowModel{}).
		Where("follower_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	entries := make([]domain.RelationEntry, 0, limit)
	err := r.db.WithContext(ctx).
		Table("follows").
		Select("follows.following_id AS user_id, users.name, users.avatar, follows.created_at AS followed_at").
		Joins("JOIN users ON users.id = follows.following_id").
		Where("follows.follower_id = ?", userID).
		Order("follows.created_at DESC, follows.id DESC").
		Offset(offset).
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// Suggest returns up to limit follow candidates for userID, excluding the
// user and everyone they already follow, ranked by followers_count then by
// account recency.
func (r *GormFollowRepository) Suggest(ctx context.Context, userID string, limit int) ([]domain.Suggestion, error) {
	followed := r.db.Model(&domain.FollowModel{}).
		Select("following_id").
		Where("follower_id = ?", userID)

	suggestions := make([]domain.Suggestion, 0, limit)
	err := r.db.WithContext(ctx).Model(&domain.UserModel{}).
		Select("id AS user_id, name, avatar, followers_count").
		Where("id <> ?", userID).
		Where("id NOT IN (?)", followed).
		Order("followers_count DESC, created_at DESC").
		Limit(limit).
		Scan(&suggestions).Error
	if err != nil {
		return nil, err
	}
	return suggestions, nil
}

// FollowersCount returns the number of followers for a given user, derived
// from the follows table rather than the denormalized column.
func (r *GormFollowRepository) FollowersCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.FollowModel{}).
		Where("following_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// RepairCounters bulk-recomputes drifted counters from the follows table.
func (r *GormFollowRepository) RepairCounters(ctx context.Context) (int64, error) {
	var repaired int64

	res := r.db.WithContext(ctx).Exec(
		`UPDATE users SET followers_count =
		   (SELECT COUNT(*) FROM follows WHERE follows.following_id = users.id)
		 WHERE followers_count <>
		   (SELECT COUNT(*) FROM follows WHERE follows.following_id = users.id)`,
	)
	if res.Error != nil {
		return 0, res.Error
	}
	repaired += res.RowsAffected

	res = r.db.WithContext(ctx).Exec(
		`UPDATE users SET following_count =
		   (SELECT COUNT(*) FROM follows WHERE follows.follower_id = users.id)
		 WHERE following_count <>
		   (SELECT COUNT(*) FROM follows WHERE follows.follower_id = users.id)`,
	)
	if res.Error != nil {
		return repaired, res.Error
	}
	repaired += res.RowsAffected

	return repaired, nil
}

func (r *GormFollowRepository) ensureUserExists(ctx context.Context, userID string) error {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.UserModel{}).
		Where("id = ?", userID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Ensure interface is satisfied at compile time.
var _ FollowRepository = (*GormFollowRepository)(nil)
