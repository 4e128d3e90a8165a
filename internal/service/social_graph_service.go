package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sak-dev-bit/DevConnector/internal/audit"
	"github.com/sak-dev-bit/DevConnector/internal/domain"
	"github.com/sak-dev-bit/DevConnector/internal/repository"
	"github.com/sak-dev-bit/DevConnector/internal/store"
	pkglog "github.com/sak-dev-bit/DevConnector/pkg/log"
	"github.com/sak-dev-bit/DevConnector/pkg/pubsub"
)

const (
	defaultPageSize  = 20
	maxPageSize      = 100
	defaultSuggested = 10
	maxSuggested     = 50

	mutationTimeout = 5 * time.Second
)

// socialGraphService implements SocialGraphService.
type socialGraphService struct {
	repo      repository.FollowRepository
	store     store.FollowStore
	publisher pubsub.Publisher
}

// NewSocialGraphService creates a new SocialGraphService instance.
// publisher may be nil when the event bus is disabled.
func NewSocialGraphService(repo repository.FollowRepository, followStore store.FollowStore, publisher pubsub.Publisher) SocialGraphService {
	return &socialGraphService{
		repo:      repo,
		store:     followStore,
		publisher: publisher,
	}
}

// validateID rejects anything that is not a canonical 36-character UUID
// before storage is ever touched.
func validateID(id string) error {
	if len(id) != 36 {
		return ErrInvalidID
	}
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

// transient wraps a storage-layer failure so callers can detect it with
// errors.Is and retry; the transaction it came from was fully rolled back.
func transient(err error) error {
	return fmt.Errorf("%w: %v", ErrTransient, err)
}

// Follow creates the caller→target relationship. The repository commits the
// edge and both counters as one transaction; on any failure nothing changed.
func (s *socialGraphService) Follow(ctx context.Context, callerID, targetID string) (*domain.FollowResult, error) {
	l := pkglog.Ctx(ctx)

	if err := validateID(callerID); err != nil {
		return nil, err
	}
	if err := validateID(targetID); err != nil {
		return nil, err
	}
	if callerID == targetID {
		return nil, ErrSelfRelation
	}

	opCtx, cancel := context.WithTimeout(ctx, mutationTimeout)
	defer cancel()

	res, err := s.repo.Follow(opCtx, callerID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrAlreadyFollowing):
			return nil, ErrAlreadyFollowing
		default:
			l.Error().Err(err).
				Str(pkglog.FieldUserID, callerID).
				Str(pkglog.FieldTargetID, targetID).
				Msg("failed to follow user")
			return nil, transient(err)
		}
	}

	// Keep the cached target count in step; best-effort only, the cache is
	// reconciled from the database periodically anyway.
	if err := s.store.CondIncrFollowersCount(ctx, targetID); err != nil {
		l.Warn().Err(err).Str(pkglog.FieldTargetID, targetID).Msg("failed to bump cached followers count")
	}

	s.publish(ctx, pubsub.EventUserFollowed, targetID, pubsub.FollowedPayload{
		FollowerID:  callerID,
		FollowingID: targetID,
		FollowedAt:  res.Peer.FollowedAt,
	})
	audit.LogWithTarget(ctx, audit.ActionFollow, callerID, targetID, "user followed")

	return res, nil
}

// Unfollow removes the caller→target relationship.
func (s *socialGraphService) Unfollow(ctx context.Context, callerID, targetID string) (*domain.FollowResult, error) {
	l := pkglog.Ctx(ctx)

	if err := validateID(callerID); err != nil {
		return nil, err
	}
	if err := validateID(targetID); err != nil {
		return nil, err
	}
	if callerID == targetID {
		return nil, ErrSelfRelation
	}

	opCtx, cancel := context.WithTimeout(ctx, mutationTimeout)
	defer cancel()

	res, err := s.repo.Unfollow(opCtx, callerID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrNotFollowing):
			return nil, ErrNotFollowing
		default:
			l.Error().Err(err).
				Str(pkglog.FieldUserID, callerID).
				Str(pkglog.FieldTargetID, targetID).
				Msg("failed to unfollow user")
			return nil, transient(err)
		}
	}

	if err := s.store.CondDecrFollowersCount(ctx, targetID); err != nil {
		l.Warn().Err(err).Str(pkglog.FieldTargetID, targetID).Msg("failed to drop cached followers count")
	}

	s.publish(ctx, pubsub.EventUserUnfollowed, targetID, pubsub.UnfollowedPayload{
		FollowerID:  callerID,
		FollowingID: targetID,
	})
	audit.LogWithTarget(ctx, audit.ActionUnfollow, callerID, targetID, "user unfollowed")

	return res, nil
}

// ListFollowers returns one page of targetID's followers, newest first.
func (s *socialGraphService) ListFollowers(ctx context.Context, targetID string, page, pageSize int) (*domain.RelationPage, error) {
	return s.listRelations(ctx, targetID, page, pageSize, s.repo.ListFollowers)
}

// ListFollowing returns one page of the users targetID follows, newest first.
func (s *socialGraphService) ListFollowing(ctx context.Context, targetID string, page, pageSize int) (*domain.RelationPage, error) {
	return s.listRelations(ctx, targetID, page, pageSize, s.repo.ListFollowing)
}

type listFn func(ctx context.Context, userID string, offset, limit int) ([]domain.RelationEntry, int64, error)

func (s *socialGraphService) listRelations(ctx context.Context, targetID string, page, pageSize int, list listFn) (*domain.RelationPage, error) {
	if err := validateID(targetID); err != nil {
		return nil, err
	}
	if page < 1 || pageSize < 1 {
		return nil, ErrInvalidPagination
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	entries, total, err := list(ctx, targetID, (page-1)*pageSize, pageSize)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		l := pkglog.Ctx(ctx)
		l.Error().Err(err).Str(pkglog.FieldTargetID, targetID).Msg("failed to list relations")
		return nil, transient(err)
	}

	pages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &domain.RelationPage{
		Entries:  entries,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Pages:    pages,
	}, nil
}

// FollowStatus reports whether callerID currently follows targetID.
// A user never follows itself, so the self case is answered without a query.
func (s *socialGraphService) FollowStatus(ctx context.Context, callerID, targetID string) (bool, error) {
	if err := validateID(callerID); err != nil {
		return false, err
	}
	if err := validateID(targetID); err != nil {
		return false, err
	}
	if callerID == targetID {
		return false, nil
	}

	following, err := s.repo.IsFollowing(ctx, callerID, targetID)
	if err != nil {
		l := pkglog.Ctx(ctx)
		l.Error().Err(err).
			Str(pkglog.FieldUserID, callerID).
			Str(pkglog.FieldTargetID, targetID).
			Msg("failed to check follow status")
		return false, transient(err)
	}
	return following, nil
}

// Suggest returns follow candidates for callerID, excluding the caller and
// everyone they already follow, ranked by follower count.
func (s *socialGraphService) Suggest(ctx context.Context, callerID string, limit int) ([]domain.Suggestion, error) {
	if err := validateID(callerID); err != nil {
		return nil, err
	}
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	if limit > maxSuggested {
		limit = maxSuggested
	}

	suggestions, err := s.repo.Suggest(ctx, callerID, limit)
	if err != nil {
		l := pkglog.Ctx(ctx)
		l.Error().Err(err).Str(pkglog.FieldUserID, callerID).Msg("failed to fetch suggestions")
		return nil, transient(err)
	}
	return suggestions, nil
}

// FollowersCount returns the number of followers for userID.
// It checks Redis first; on miss it queries the DB, populates Redis, and
// records a hot key access.
func (s *socialGraphService) FollowersCount(ctx context.Context, userID string) (int64, error) {
	l := pkglog.Ctx(ctx)

	if err := validateID(userID); err != nil {
		return 0, err
	}

	// Always record access for hot key tracking (best-effort)
	if err := s.store.RecordAccess(ctx, userID); err != nil {
		l.Warn().Err(err).Str(pkglog.FieldUserID, userID).Msg("failed to record hot key access")
	}

	count, found, err := s.store.GetFollowersCount(ctx, userID)
	if err != nil {
		l.Warn().Err(err).Str(pkglog.FieldUserID, userID).Msg("redis get followers count failed, falling back to db")
	}
	if found {
		return count, nil
	}

	count, err = s.repo.FollowersCount(ctx, userID)
	if err != nil {
		l.Error().Err(err).Str(pkglog.FieldUserID, userID).Msg("failed to get followers count from db")
		return 0, transient(err)
	}

	if err := s.store.SetFollowersCount(ctx, userID, count); err != nil {
		l.Warn().Err(err).Str(pkglog.FieldUserID, userID).Msg("failed to set followers count in redis")
	}

	return count, nil
}

// publish sends a social event on the changed user's channel; failures are
// logged, never surfaced, because the mutation already committed.
func (s *socialGraphService) publish(ctx context.Context, eventType, userID string, payload interface{}) {
	if s.publisher == nil {
		return
	}

	l := pkglog.Ctx(ctx)
	event, err := pubsub.NewEvent(eventType, userID, payload)
	if err != nil {
		l.Warn().Err(err).Str("event_type", eventType).Msg("failed to build social event")
		return
	}
	if err := s.publisher.Publish(ctx, pubsub.SocialEventsChannel(userID), event); err != nil {
		l.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish social event")
	}
}

// Ensure interface is satisfied at compile time.
var _ SocialGraphService = (*socialGraphService)(nil)
