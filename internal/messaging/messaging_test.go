package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/omnidesk-io/omnichannel-engine/internal/model"
	"github.com/omnidesk-io/omnichannel-engine/internal/store"
	"github.com/omnidesk-io/omnichannel-engine/pkg/logger"
)

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

type fakePublisher struct {
	mu        sync.Mutex
	published []*model.Message
	err       error
}

func (p *fakePublisher) PublishMessage(ctx context.Context, msg *model.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, msg)
	return nil
}

func TestPostFillsIdentityFields(t *testing.T) {
	mem := store.NewMemory()
	pub := &fakePublisher{}
	svc := NewService(mem.Messages, pub, testLogger())

	msg, err := svc.Post(context.Background(), &model.Message{
		RoomID: "r1",
		Body:   "hello",
		Author: model.Identity{ID: "v1", DisplayName: "Ada"},
	})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if msg.ID == "" {
		t.Error("message ID not assigned")
	}
	if msg.Timestamp.IsZero() {
		t.Error("timestamp not assigned")
	}

	stored, err := mem.Messages.ByRoom(context.Background(), "r1", 0)
	if err != nil || len(stored) != 1 {
		t.Fatalf("stored = %d messages, err %v", len(stored), err)
	}
	if len(pub.published) != 1 {
		t.Errorf("published = %d, want 1", len(pub.published))
	}
}

func TestPostKeepsCallerFields(t *testing.T) {
	mem := store.NewMemory()
	svc := NewService(mem.Messages, nil, testLogger())

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	msg, err := svc.Post(context.Background(), &model.Message{
		ID:        "m-fixed",
		RoomID:    "r1",
		Body:      "hello",
		Timestamp: ts,
	})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if msg.ID != "m-fixed" || !msg.Timestamp.Equal(ts) {
		t.Errorf("caller-supplied fields overwritten: %+v", msg)
	}
}

func TestPostSystemNotGroupable(t *testing.T) {
	mem := store.NewMemory()
	svc := NewService(mem.Messages, nil, testLogger())

	msg, err := svc.PostSystem(context.Background(), SystemMessage{
		RoomID: "r1",
		Type:   model.MessageTypeClose,
		Author: model.Identity{ID: "u1", DisplayName: "Agent One"},
		Body:   "resolved",
	})
	if err != nil {
		t.Fatalf("PostSystem: %v", err)
	}
	if msg.Groupable {
		t.Error("system messages must not be groupable")
	}
	if msg.Type != model.MessageTypeClose || msg.Body != "resolved" {
		t.Errorf("message = %+v", msg)
	}
}

func TestPublishFailureIsAbsorbed(t *testing.T) {
	mem := store.NewMemory()
	pub := &fakePublisher{err: errors.New("bus unavailable")}
	svc := NewService(mem.Messages, pub, testLogger())

	if _, err := svc.Post(context.Background(), &model.Message{RoomID: "r1", Body: "hello"}); err != nil {
		t.Fatalf("Post: %v", err)
	}

	stored, _ := mem.Messages.ByRoom(context.Background(), "r1", 0)
	if len(stored) != 1 {
		t.Errorf("insert must survive a bus failure, stored = %d", len(stored))
	}
}
