package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/omnidesk-io/omnichannel-engine/internal/mailer"
	"github.com/omnidesk-io/omnichannel-engine/internal/model"
)

const (
	// StreamName is the name of the omnichannel stream.
	StreamName = "OMNICHANNEL"

	// SubjectPrefix is the prefix for all omnichannel subjects.
	SubjectPrefix = "livechat"
)

// StreamManager handles JetStream stream operations. It is the engine's
// real-time message bus, automation-event bridge, and outbound mail queue.
type StreamManager struct {
	client *Client
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client}
}

// EnsureStream ensures the omnichannel stream exists with proper configuration.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	js := m.client.JetStream()

	// Check if stream exists
	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil // Stream already exists
	}

	// Create stream
	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		MaxBytes:    10 * 1024 * 1024 * 1024, // 10GB
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Omnichannel room messages, lifecycle events, and mail jobs",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// MessageSubject returns the subject for a room message.
func MessageSubject(roomID string) string {
	return fmt.Sprintf("%s.room.%s.msg", SubjectPrefix, roomID)
}

// EventSubject returns the subject for a lifecycle event.
func EventSubject(event model.LifecycleEvent) string {
	return fmt.Sprintf("%s.event.%s", SubjectPrefix, event)
}

// MailSubject is the subject mail jobs are enqueued on.
func MailSubject() string {
	return fmt.Sprintf("%s.mail.send", SubjectPrefix)
}

// PublishMessage fans a room message out to the delivery bus.
func (m *StreamManager) PublishMessage(ctx context.Context, msg *model.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if _, err := m.client.JetStream().Publish(ctx, MessageSubject(msg.RoomID), data); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Emit publishes a lifecycle event carrying the full room snapshot to the
// automation bridge subject.
func (m *StreamManager) Emit(ctx context.Context, event model.LifecycleEvent, room *model.Room) error {
	envelope := model.RoomEvent{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Event:     event,
		Room:      *room,
		EmittedAt: time.Now(),
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := m.client.JetStream().Publish(ctx, EventSubject(event), data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Send enqueues an outbound mail job. Delivery is owned by a downstream
// consumer; a nil return means the handoff succeeded, nothing more.
func (m *StreamManager) Send(ctx context.Context, email mailer.Email) error {
	data, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("failed to marshal mail job: %w", err)
	}

	if _, err := m.client.JetStream().Publish(ctx, MailSubject(), data); err != nil {
		return fmt.Errorf("failed to enqueue mail job: %w", err)
	}
	return nil
}
