// Package messaging inserts room messages and fans them out to the
// real-time delivery bus. The insert is durable; bus delivery is
// fire-and-forget.
package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/omnidesk-io/omnichannel-engine/internal/model"
	"github.com/omnidesk-io/omnichannel-engine/internal/store"
	"github.com/omnidesk-io/omnichannel-engine/pkg/logger"
	"github.com/omnidesk-io/omnichannel-engine/pkg/metrics"
)

// Publisher delivers a message to the real-time bus.
type Publisher interface {
	PublishMessage(ctx context.Context, msg *model.Message) error
}

// SystemMessage describes an engine-generated message to insert.
type SystemMessage struct {
	RoomID              string
	Type                model.MessageType
	Author              model.Identity
	Body                string
	TranscriptRequested bool
	Metadata            map[string]any
}

// Service posts messages into room history.
type Service struct {
	messages  store.MessageStore
	publisher Publisher
	logger    *logger.Logger
	now       func() time.Time
}

// NewService creates a messaging service.
func NewService(messages store.MessageStore, publisher Publisher, log *logger.Logger) *Service {
	return &Service{
		messages:  messages,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

// Post stores a chat message and publishes it to the bus. Missing identity
// fields are filled in.
func (s *Service) Post(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.Must(uuid.NewV7()).String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}

	if err := s.messages.Insert(ctx, msg); err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	s.publish(ctx, msg)
	return msg, nil
}

// PostSystem stores a non-groupable system message and publishes it.
func (s *Service) PostSystem(ctx context.Context, sm SystemMessage) (*model.Message, error) {
	msg := &model.Message{
		ID:                  uuid.Must(uuid.NewV7()).String(),
		RoomID:              sm.RoomID,
		Type:                sm.Type,
		Body:                sm.Body,
		Author:              sm.Author,
		Timestamp:           s.now(),
		Groupable:           false,
		TranscriptRequested: sm.TranscriptRequested,
		Metadata:            sm.Metadata,
	}

	if err := s.messages.Insert(ctx, msg); err != nil {
		return nil, fmt.Errorf("inserting system message: %w", err)
	}
	metrics.SystemMessages.WithLabelValues(string(sm.Type)).Inc()

	s.publish(ctx, msg)
	return msg, nil
}

// publish hands the message to the bus; delivery failures are logged only.
func (s *Service) publish(ctx context.Context, msg *model.Message) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishMessage(ctx, msg); err != nil {
		s.logger.Warn("message bus delivery failed",
			zap.String("message_id", msg.ID),
			zap.String("room_id", msg.RoomID),
			zap.Error(err),
		)
	}
}
