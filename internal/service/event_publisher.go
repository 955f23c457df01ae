package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coachhub-api/internal/models"
	"github.com/noah-isme/coachhub-api/internal/observability"
)

// Lifecycle event types.
const (
	EventSubmissionFinalized        = "submission.finalized"
	EventSubmissionGraded           = "submission.graded"
	EventSubmissionRegradeRequested = "submission.regrade_requested"
)

// LifecycleEvent is the JSON payload broadcast after submission state changes.
type LifecycleEvent struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Source        string    `json:"source"`
	AssignmentID  uint      `json:"assignment_id"`
	SubmissionID  uint      `json:"submission_id"`
	StudentID     uint      `json:"student_id"`
	AttemptNumber int       `json:"attempt_number"`
	IsLate        bool      `json:"is_late"`
	Score         *float64  `json:"score,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// EventPublisher broadcasts lifecycle events. Publishing never fails the caller.
type EventPublisher interface {
	Publish(ctx context.Context, event LifecycleEvent)
}

type lifecycleEventPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	nodeID       string
	now          func() time.Time
}

// NewEventPublisher publishes to Redis pub/sub "<base>:lifecycle" and NATS "<base>.lifecycle".
// Either transport may be nil.
func NewEventPublisher(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) EventPublisher {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":lifecycle"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".lifecycle"
	}

	return &lifecycleEventPublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "event_publisher").Logger(),
		nodeID:       uuid.NewString(),
		now:          time.Now,
	}
}

func (p *lifecycleEventPublisher) Publish(ctx context.Context, event LifecycleEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = p.now().UTC()
	}
	event.Source = p.nodeID

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn().Err(err).Str("event_type", event.Type).Msg("failed to encode lifecycle event")
		return
	}

	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			observability.EventPublishFailures().WithLabelValues("redis").Inc()
			p.logger.Warn().Err(err).Str("event_type", event.Type).Msg("failed to publish lifecycle event to redis")
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			observability.EventPublishFailures().WithLabelValues("nats").Inc()
			p.logger.Warn().Err(err).Str("event_type", event.Type).Msg("failed to publish lifecycle event to nats")
		}
	}
}

func newSubmissionEvent(eventType string, submission models.Submission) LifecycleEvent {
	return LifecycleEvent{
		Type:          eventType,
		AssignmentID:  submission.AssignmentID,
		SubmissionID:  submission.ID,
		StudentID:     submission.StudentID,
		AttemptNumber: submission.AttemptNumber,
		IsLate:        submission.IsLate,
		Score:         submission.Score,
	}
}

type nopEventPublisher struct{}

// NopEventPublisher discards every event.
func NopEventPublisher() EventPublisher {
	return nopEventPublisher{}
}

func (nopEventPublisher) Publish(context.Context, LifecycleEvent) {}
