package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/attendance-portal/internal/dto"
)

// Attendance event types.
const (
	AttendanceEventCreated = "attendance.created"
	AttendanceEventUpdated = "attendance.updated"
	AttendanceEventDeleted = "attendance.deleted"
)

// AttendanceEvent is broadcast after every attendance mutation.
type AttendanceEvent struct {
	ID           string                  `json:"id"`
	Type         string                  `json:"type"`
	AttendanceID string                  `json:"attendance_id"`
	Record       *dto.AttendanceResponse `json:"record,omitempty"`
	ActorID      string                  `json:"actor_id"`
	OccurredAt   time.Time               `json:"occurred_at"`
}

// AttendanceEventPublisher fans attendance events out to subscribers.
type AttendanceEventPublisher interface {
	Publish(ctx context.Context, event AttendanceEvent) error
}

type attendanceEventPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
}

// NewAttendanceEventPublisher publishes to Redis pub/sub and NATS. Either transport may be nil.
func NewAttendanceEventPublisher(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) AttendanceEventPublisher {
	redisChannel := ""
	natsSubject := ""
	if channelBase != "" {
		redisChannel = channelBase + ":attendance"
		natsSubject = strings.ReplaceAll(channelBase, ":", ".") + ".attendance"
	}

	return &attendanceEventPublisher{
		redis:        redisClient,
		redisChannel: redisChannel,
		nats:         natsConn,
		natsSubject:  natsSubject,
		logger:       logger.With().Str("component", "attendance_events").Logger(),
	}
}

func (p *attendanceEventPublisher) Publish(ctx context.Context, event AttendanceEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	var errs []error
	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		p.logger.Debug().Str("event_id", event.ID).Str("type", event.Type).Msg("attendance event published")
	}
	return errors.Join(errs...)
}
