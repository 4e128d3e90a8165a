package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sak-dev-bit/DevConnector/internal/domain"
	"github.com/sak-dev-bit/DevConnector/internal/repository"
	"github.com/sak-dev-bit/DevConnector/pkg/pubsub"
)

const (
	idAlice = "11111111-1111-4111-8111-111111111111"
	idBob   = "22222222-2222-4222-8222-222222222222"
)

// fakeFollowRepo is a scriptable FollowRepository.
type fakeFollowRepo struct {
	followErr    error
	unfollowErr  error
	listErr      error
	isFollowing  bool
	followersCnt int64

	followCalls   int
	unfollowCalls int

	listEntries []domain.RelationEntry
	listTotal   int64
	lastOffset  int
	lastLimit   int

	suggestions []domain.Suggestion
	lastSuggest int
}

func (f *fakeFollowRepo) Follow(ctx context.Context, followerID, followingID string) (*domain.FollowResult, error) {
	f.followCalls++
	if f.followErr != nil {
		return nil, f.followErr
	}
	return &domain.FollowResult{
		Peer:                 domain.RelationEntry{UserID: followingID, FollowedAt: time.Now()},
		FollowingCount:       1,
		TargetFollowersCount: 1,
	}, nil
}

func (f *fakeFollowRepo) Unfollow(ctx context.Context, followerID, followingID string) (*domain.FollowResult, error) {
	f.unfollowCalls++
	if f.unfollowErr != nil {
		return nil, f.unfollowErr
	}
	return &domain.FollowResult{
		Peer: domain.RelationEntry{UserID: followingID},
	}, nil
}

func (f *fakeFollowRepo) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	if f.listErr != nil {
		return false, f.listErr
	}
	return f.isFollowing, nil
}

func (f *fakeFollowRepo) ListFollowers(ctx context.Context, userID string, offset, limit int) ([]domain.RelationEntry, int64, error) {
	f.lastOffset, f.lastLimit = offset, limit
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	return f.listEntries, f.listTotal, nil
}

func (f *fakeFollowRepo) ListFollowing(ctx context.Context, userID string, offset, limit int) ([]domain.RelationEntry, int64, error) {
	return f.ListFollowers(ctx, userID, offset, limit)
}

func (f *fakeFollowRepo) Suggest(ctx context.Context, userID string, limit int) ([]domain.Suggestion, error) {
	f.lastSuggest = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.suggestions, nil
}

func (f *fakeFollowRepo) FollowersCount(ctx context.Context, userID string) (int64, error) {
	if f.listErr != nil {
		return 0, f.listErr
	}
	return f.followersCnt, nil
}

func (f *fakeFollowRepo) RepairCounters(ctx context.Context) (int64, error) {
	return 0, nil
}

// fakeFollowStore is an in-memory FollowStore.
type fakeFollowStore struct {
	counts map[string]int64
	incrs  int
	decrs  int
}

func newFakeFollowStore() *fakeFollowStore {
	return &fakeFollowStore{counts: make(map[string]int64)}
}

func (s *fakeFollowStore) GetFollowersCount(ctx context.Context, userID string) (int64, bool, error) {
	c, ok := s.counts[userID]
	return c, ok, nil
}

func (s *fakeFollowStore) SetFollowersCount(ctx context.Context, userID string, count int64) error {
	s.counts[userID] = count
	return nil
}

func (s *fakeFollowStore) CondIncrFollowersCount(ctx context.Context, userID string) error {
	s.incrs++
	if _, ok := s.counts[userID]; ok {
		s.counts[userID]++
	}
	return nil
}

func (s *fakeFollowStore) CondDecrFollowersCount(ctx context.Context, userID string) error {
	s.decrs++
	if c, ok := s.counts[userID]; ok && c > 0 {
		s.counts[userID]--
	}
	return nil
}

func (s *fakeFollowStore) RecordAccess(ctx context.Context, userID string) error { return nil }

func (s *fakeFollowStore) GetTopHotKeys(ctx context.Context, n int64) ([]string, error) {
	return nil, nil
}

func (s *fakeFollowStore) ResetHotKeyScores(ctx context.Context) error { return nil }
func (s *fakeFollowStore) Close() error                                { return nil }

// fakePublisher records published events.
type fakePublisher struct {
	events []*pubsub.Event
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, event *pubsub.Event) error {
	p.events = append(p.events, event)
	return nil
}

func newGraphService(repo *fakeFollowRepo, store *fakeFollowStore, pub *fakePublisher) SocialGraphService {
	var publisher pubsub.Publisher
	if pub != nil {
		publisher = pub
	}
	return NewSocialGraphService(repo, store, publisher)
}

func TestFollowValidation(t *testing.T) {
	svc := newGraphService(&fakeFollowRepo{}, newFakeFollowStore(), nil)
	ctx := context.Background()

	_, err := svc.Follow(ctx, "not-a-uuid", idBob)
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = svc.Follow(ctx, idAlice, "")
	assert.ErrorIs(t, err, ErrInvalidID)

	// Correct length but not a UUID.
	_, err = svc.Follow(ctx, idAlice, "zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestFollowSelf(t *testing.T) {
	repo := &fakeFollowRepo{}
	svc := newGraphService(repo, newFakeFollowStore(), nil)

	_, err := svc.Follow(context.Background(), idAlice, idAlice)
	assert.ErrorIs(t, err, ErrSelfRelation)
	assert.Zero(t, repo.followCalls)

	_, err = svc.Unfollow(context.Background(), idAlice, idAlice)
	assert.ErrorIs(t, err, ErrSelfRelation)
	assert.Zero(t, repo.unfollowCalls)
}

func TestFollowErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		repoErr error
		wantErr error
	}{
		{"unknown user", repository.ErrUserNotFound, ErrUserNotFound},
		{"duplicate", repository.ErrAlreadyFollowing, ErrAlreadyFollowing},
		{"storage failure", errors.New("connection reset"), ErrTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newGraphService(&fakeFollowRepo{followErr: tt.repoErr}, newFakeFollowStore(), nil)
			_, err := svc.Follow(context.Background(), idAlice, idBob)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUnfollowErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		repoErr error
		wantErr error
	}{
		{"unknown user", repository.ErrUserNotFound, ErrUserNotFound},
		{"not following", repository.ErrNotFollowing, ErrNotFollowing},
		{"storage failure", errors.New("connection reset"), ErrTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newGraphService(&fakeFollowRepo{unfollowErr: tt.repoErr}, newFakeFollowStore(), nil)
			_, err := svc.Unfollow(context.Background(), idAlice, idBob)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFollowPublishesEvent(t *testing.T) {
	pub := &fakePublisher{}
	store := newFakeFollowStore()
	svc := newGraphService(&fakeFollowRepo{}, store, pub)

	res, err := svc.Follow(context.Background(), idAlice, idBob)
	require.NoError(t, err)
	assert.Equal(t, idBob, res.Peer.UserID)

	require.Len(t, pub.events, 1)
	assert.Equal(t, pubsub.EventUserFollowed, pub.events[0].Type)
	assert.Equal(t, idBob, pub.events[0].UserID)

	var payload pubsub.FollowedPayload
	require.NoError(t, pub.events[0].UnmarshalPayload(&payload))
	assert.Equal(t, idAlice, payload.FollowerID)
	assert.Equal(t, idBob, payload.FollowingID)

	assert.Equal(t, 1, store.incrs)
}

func TestUnfollowPublishesEvent(t *testing.T) {
	pub := &fakePublisher{}
	store := newFakeFollowStore()
	svc := newGraphService(&fakeFollowRepo{}, store, pub)

	_, err := svc.Unfollow(context.Background(), idAlice, idBob)
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	assert.Equal(t, pubsub.EventUserUnfollowed, pub.events[0].Type)
	assert.Equal(t, 1, store.decrs)
}

func TestFollowWithoutPublisher(t *testing.T) {
	svc := newGraphService(&fakeFollowRepo{}, newFakeFollowStore(), nil)

	_, err := svc.Follow(context.Background(), idAlice, idBob)
	assert.NoError(t, err)
}

func TestFailedFollowDoesNotPublish(t *testing.T) {
	pub := &fakePublisher{}
	store := newFakeFollowStore()
	svc := newGraphService(&fakeFollowRepo{followErr: repository.ErrAlreadyFollowing}, store, pub)

	_, err := svc.Follow(context.Background(), idAlice, idBob)
	assert.ErrorIs(t, err, ErrAlreadyFollowing)
	assert.Empty(t, pub.events)
	assert.Zero(t, store.incrs)
}

func TestListFollowersPaging(t *testing.T) {
	repo := &fakeFollowRepo{
		listEntries: []domain.RelationEntry{{UserID: idBob}},
		listTotal:   25,
	}
	svc := newGraphService(repo, newFakeFollowStore(), nil)
	ctx := context.Background()

	page, err := svc.ListFollowers(ctx, idAlice, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, 20, repo.lastOffset)
	assert.Equal(t, 10, repo.lastLimit)
	assert.Equal(t, int64(25), page.Total)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 10, page.PageSize)
	assert.Equal(t, 3, page.Pages)
}

func TestListFollowersInvalidPagination(t *testing.T) {
	svc := newGraphService(&fakeFollowRepo{}, newFakeFollowStore(), nil)
	ctx := context.Background()

	_, err := svc.ListFollowers(ctx, idAlice, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidPagination)

	_, err = svc.ListFollowers(ctx, idAlice, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidPagination)

	_, err = svc.ListFollowers(ctx, idAlice, -1, -5)
	assert.ErrorIs(t, err, ErrInvalidPagination)
}

func TestListFollowersClampsPageSize(t *testing.T) {
	repo := &fakeFollowRepo{}
	svc := newGraphService(repo, newFakeFollowStore(), nil)

	_, err := svc.ListFollowers(context.Background(), idAlice, 1, 500)
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, repo.lastLimit)
}

func TestListFollowingUnknownUser(t *testing.T) {
	svc := newGraphService(&fakeFollowRepo{listErr: repository.ErrUserNotFound}, newFakeFollowStore(), nil)

	_, err := svc.ListFollowing(context.Background(), idAlice, 1, 10)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestFollowStatus(t *testing.T) {
	svc := newGraphService(&fakeFollowRepo{isFollowing: true}, newFakeFollowStore(), nil)
	ctx := context.Background()

	following, err := svc.FollowStatus(ctx, idAlice, idBob)
	require.NoError(t, err)
	assert.True(t, following)

	// Self status is always false, without touching storage.
	following, err = svc.FollowStatus(ctx, idAlice, idAlice)
	require.NoError(t, err)
	assert.False(t, following)

	_, err = svc.FollowStatus(ctx, "bad", idBob)
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestSuggestLimits(t *testing.T) {
	repo := &fakeFollowRepo{suggestions: []domain.Suggestion{{UserID: idBob}}}
	svc := newGraphService(repo, newFakeFollowStore(), nil)
	ctx := context.Background()

	_, err := svc.Suggest(ctx, idAlice, 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)

	_, err = svc.Suggest(ctx, idAlice, -3)
	assert.ErrorIs(t, err, ErrInvalidLimit)

	got, err := svc.Suggest(ctx, idAlice, 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 5, repo.lastSuggest)

	_, err = svc.Suggest(ctx, idAlice, 1000)
	require.NoError(t, err)
	assert.Equal(t, maxSuggested, repo.lastSuggest)
}

func TestFollowersCountCache(t *testing.T) {
	repo := &fakeFollowRepo{followersCnt: 7}
	store := newFakeFollowStore()
	svc := newGraphService(repo, store, nil)
	ctx := context.Background()

	// Miss: falls back to the database and populates the cache.
	count, err := svc.FollowersCount(ctx, idBob)
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.Equal(t, int64(7), store.counts[idBob])

	// Hit: served from the cache even when the database disagrees.
	repo.followersCnt = 99
	count, err = svc.FollowersCount(ctx, idBob)
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}

func TestFollowersCountInvalidID(t *testing.T) {
	svc := newGraphService(&fakeFollowRepo{}, newFakeFollowStore(), nil)

	_, err := svc.FollowersCount(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInvalidID)
}
