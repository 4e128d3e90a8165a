package reconciler

import (
	"context"
	"time"

	"github.com/sak-dev-bit/DevConnector/internal/config"
	"github.com/sak-dev-bit/DevConnector/internal/repository"
	"github.com/sak-dev-bit/DevConnector/internal/store"
	pkglog "github.com/sak-dev-bit/DevConnector/pkg/log"
)

// Reconciler periodically refreshes the hot-key followers-count cache from
// the database and repairs any counter drift on the users table.
type Reconciler struct {
	store  store.FollowStore
	repo   repository.FollowRepository
	cfg    config.ReconcilerConfig
	quit   chan struct{}
	doneCh chan struct{}
}

// New creates a new Reconciler.
func New(followStore store.FollowStore, repo repository.FollowRepository, cfg config.ReconcilerConfig) *Reconciler {
	return &Reconciler{
		store:  followStore,
		repo:   repo,
		cfg:    cfg,
		quit:   make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start launches the reconciler in a background goroutine.
func (r *Reconciler) Start(ctx context.Context) {
	go r.run(ctx)
}

// Stop signals the reconciler to stop and returns immediately.
// Call Done() to wait for it to exit.
func (r *Reconciler) Stop() {
	close(r.quit)
}

// Done returns a channel that is closed when the reconciler has fully stopped.
func (r *Reconciler) Done() <-chan struct{} {
	return r.doneCh
}

func (r *Reconciler) run(ctx context.Context) {
	defer close(r.doneCh)

	interval := r.cfg.Interval
	if interval <= 0 {
		interval = 60 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.quit:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reconcile(ctx)
		}
	}
}

func (r *Reconciler) reconcile(ctx context.Context) {
	l := pkglog.L()

	r.refreshHotKeys(ctx)

	// Counter audit: any row whose denormalized counter disagrees with the
	// follows table is repaired in bulk. A non-zero count means something
	// violated the transactional write path and is worth a consistency event.
	repaired, err := r.repo.RepairCounters(ctx)
	if err != nil {
		l.Error().Err(err).Msg("reconciler: counter repair failed")
		return
	}
	if repaired > 0 {
		l.Warn().
			Str(pkglog.FieldLogType, pkglog.LogTypeConsistency).
			Int64("repaired", repaired).
			Msg("reconciler: repaired drifted counters")
	}
}

func (r *Reconciler) refreshHotKeys(ctx context.Context) {
	l := pkglog.L()

	topN := int64(r.cfg.TopN)
	if topN <= 0 {
		topN = 100
	}

	userIDs, err := r.store.GetTopHotKeys(ctx, topN)
	if err != nil {
		l.Error().Err(err).Msg("reconciler: failed to get top hot keys")
		return
	}

	if len(userIDs) == 0 {
		return
	}

	for _, userID := range userIDs {
		count, err := r.repo.FollowersCount(ctx, userID)
		if err != nil {
			l.Error().Err(err).Str(pkglog.FieldUserID, userID).Msg("reconciler: failed to get followers count from db")
			continue
		}
		if err := r.store.SetFollowersCount(ctx, userID, count); err != nil {
			l.Error().Err(err).Str(pkglog.FieldUserID, userID).Msg("reconciler: failed to set followers count in redis")
		}
	}

	if err := r.store.ResetHotKeyScores(ctx); err != nil {
		l.Error().Err(err).Msg("reconciler: failed to reset hot key scores")
	}

	l.Info().Int("count", len(userIDs)).Msg("reconciler: hot-key cache refresh complete")
}
