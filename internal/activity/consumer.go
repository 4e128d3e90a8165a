package activity

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/sak-dev-bit/DevConnector/pkg/log"
	"github.com/sak-dev-bit/DevConnector/pkg/pubsub"
)

// Consumer tails the social event stream and writes an activity audit trail.
// Downstream features (notifications, feeds) hang off the same stream; this
// consumer is the in-process subscriber.
type Consumer struct {
	sub    pubsub.Subscriber
	doneCh chan struct{}
}

// NewConsumer creates a new activity consumer.
func NewConsumer(sub pubsub.Subscriber) *Consumer {
	return &Consumer{
		sub:    sub,
		doneCh: make(chan struct{}),
	}
}

// Start subscribes to all users' social events and processes them until ctx
// is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	events, err := c.sub.SubscribePattern(ctx, pubsub.ChannelSocialEventsPattern)
	if err != nil {
		return err
	}

	go c.run(ctx, events)
	return nil
}

// Done returns a channel that is closed when the consumer has fully stopped.
func (c *Consumer) Done() <-chan struct{} {
	return c.doneCh
}

func (c *Consumer) run(ctx context.Context, events <-chan *pubsub.Event) {
	defer close(c.doneCh)

	l := log.L()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			c.handle(l, event)
		}
	}
}

func (c *Consumer) handle(l zerolog.Logger, event *pubsub.Event) {
	switch event.Type {
	case pubsub.EventUserFollowed:
		var p pubsub.FollowedPayload
		if err := event.UnmarshalPayload(&p); err != nil {
			l.Warn().Err(err).Msg("activity: malformed followed payload")
			return
		}
		l.Info().
			Str(log.FieldLogType, log.LogTypeAudit).
			Str("activity", event.Type).
			Str(log.FieldUserID, p.FollowerID).
			Str(log.FieldTargetID, p.FollowingID).
			Time("followed_at", p.FollowedAt).
			Msg("activity: new follower")

	case pubsub.EventUserUnfollowed:
		var p pubsub.UnfollowedPayload
		if err := event.UnmarshalPayload(&p); err != nil {
			l.Warn().Err(err).Msg("activity: malformed unfollowed payload")
			return
		}
		l.Info().
			Str(log.FieldLogType, log.LogTypeAudit).
			Str("activity", event.Type).
			Str(log.FieldUserID, p.FollowerID).
			Str(log.FieldTargetID, p.FollowingID).
			Msg("activity: follower lost")

	case pubsub.EventUserRegistered:
		var p pubsub.RegisteredPayload
		if err := event.UnmarshalPayload(&p); err != nil {
			l.Warn().Err(err).Msg("activity: malformed registration payload")
			return
		}
		l.Info().
			Str(log.FieldLogType, log.LogTypeAudit).
			Str("activity", event.Type).
			Str(log.FieldUserID, p.UserID).
			Msg("activity: user joined")

	default:
		l.Debug().Str("event_type", event.Type).Msg("activity: ignoring event")
	}
}
