package closing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/omnidesk-io/omnichannel-engine/internal/callback"
	"github.com/omnidesk-io/omnichannel-engine/internal/events"
	"github.com/omnidesk-io/omnichannel-engine/internal/messaging"
	"github.com/omnidesk-io/omnichannel-engine/internal/model"
	"github.com/omnidesk-io/omnichannel-engine/internal/store"
	"github.com/omnidesk-io/omnichannel-engine/pkg/logger"
	"github.com/omnidesk-io/omnichannel-engine/pkg/metrics"
)

var (
	// ErrMissingCloser rejects a close request that names neither a user
	// nor a visitor.
	ErrMissingCloser = errors.New("a closing user or visitor is required")

	// ErrRoomVanished indicates the room could not be re-read after the
	// close was applied, i.e. a lost write.
	ErrRoomVanished = errors.New("room not found after close")
)

// CloseRequest carries a close attempt into the coordinator. Exactly one of
// User or Visitor identifies the closer; User wins when both are set.
type CloseRequest struct {
	User    *model.User
	Visitor *model.Visitor
	Comment string
	Options model.CloseOptions
}

// Coordinator owns the open-to-closed transition of a room. The transition
// happens at most once; closing an already-closed or non-omnichannel room is
// a silent no-op. The multi-store update is best-effort atomic: three
// independent writes with no shared transaction, never rolled back.
type Coordinator struct {
	rooms         store.RoomStore
	inquiries     store.InquiryStore
	subscriptions store.SubscriptionStore
	tags          *TagResolver
	messenger     *messaging.Service
	bridge        events.Bridge
	callbacks     *callback.Chain
	logger        *logger.Logger
	now           func() time.Time
}

// NewCoordinator creates a closure coordinator.
func NewCoordinator(
	rooms store.RoomStore,
	inquiries store.InquiryStore,
	subscriptions store.SubscriptionStore,
	tags *TagResolver,
	messenger *messaging.Service,
	bridge events.Bridge,
	callbacks *callback.Chain,
	log *logger.Logger,
) *Coordinator {
	return &Coordinator{
		rooms:         rooms,
		inquiries:     inquiries,
		subscriptions: subscriptions,
		tags:          tags,
		messenger:     messenger,
		bridge:        bridge,
		callbacks:     callbacks,
		logger:        log,
		now:           time.Now,
	}
}

// CloseRoom transitions the room to closed, inserts the closing system
// messages, and schedules event fan-out. Validation failures (tag policy,
// missing closer) abort before any mutation. Once the store writes begin the
// operation is in flight: later failures surface but are not compensated.
func (c *Coordinator) CloseRoom(ctx context.Context, roomID string, req CloseRequest) error {
	log := c.logger.WithRoom(roomID)

	room, err := c.rooms.ByID(ctx, roomID)
	if err != nil {
		return fmt.Errorf("loading room %s: %w", roomID, err)
	}
	if room == nil || !room.Open || room.Kind != model.KindOmnichannel {
		log.Debug("close request ignored")
		return nil
	}

	opts := req.Options
	if req.Comment != "" {
		opts.Comment = req.Comment
	}

	opts, err = c.tags.Resolve(ctx, room, opts)
	if err != nil {
		if errors.Is(err, ErrTagsRequired) {
			metrics.TagPolicyViolations.Inc()
		}
		return err
	}

	now := c.now()
	info := model.CloseInfo{
		ClosedAt:     now,
		ChatDuration: int64(now.Sub(room.CreatedAt).Seconds()),
		Tags:         opts.Tags,
	}
	if room.ServedBy != nil {
		serviceTime := int64(now.Sub(room.ServedBy.AssignedAt).Seconds())
		info.ServiceTimeDuration = &serviceTime
	}

	switch {
	case req.User != nil:
		info.Closer = model.CloserUser
		info.ClosedBy = req.User.Identity()
	case req.Visitor != nil:
		info.Closer = model.CloserVisitor
		info.ClosedBy = req.Visitor.Identity()
	default:
		return ErrMissingCloser
	}

	// Committed phase. The three writes are independent and concurrent;
	// a failure surfaces to the caller but applied writes stay applied.
	var (
		wg      sync.WaitGroup
		applied bool
		errs    [3]error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		applied, errs[0] = c.rooms.CloseIfOpen(ctx, room.ID, info)
	}()
	go func() {
		defer wg.Done()
		errs[1] = c.inquiries.RemoveByRoomID(ctx, room.ID)
	}()
	go func() {
		defer wg.Done()
		errs[2] = c.subscriptions.RemoveByRoomID(ctx, room.ID)
	}()
	wg.Wait()

	if err := errors.Join(errs[0], errs[1], errs[2]); err != nil {
		return fmt.Errorf("closing room %s: %w", room.ID, err)
	}
	if !applied {
		// Lost the race to a concurrent close; the winning attempt owns
		// the messages and events.
		log.Debug("room closed by concurrent attempt")
		return nil
	}

	updated, err := c.rooms.ByID(ctx, room.ID)
	if err != nil {
		return fmt.Errorf("re-reading room %s: %w", room.ID, err)
	}
	if updated == nil {
		return fmt.Errorf("%w: %s", ErrRoomVanished, room.ID)
	}

	if _, err := c.messenger.PostSystem(ctx, messaging.SystemMessage{
		RoomID:              room.ID,
		Type:                model.MessageTypeClose,
		Author:              info.ClosedBy,
		Body:                opts.Comment,
		TranscriptRequested: updated.TranscriptRequest != nil,
	}); err != nil {
		return fmt.Errorf("posting closing message: %w", err)
	}

	if _, err := c.messenger.PostSystem(ctx, messaging.SystemMessage{
		RoomID: room.ID,
		Type:   model.MessageTypeTranscriptPrompt,
		Author: info.ClosedBy,
	}); err != nil {
		return fmt.Errorf("posting transcript prompt: %w", err)
	}

	metrics.RoomsClosed.WithLabelValues(string(info.Closer)).Inc()
	log.Info("room closed",
		zap.String("closer", string(info.Closer)),
		zap.Int64("chat_duration_seconds", info.ChatDuration),
	)

	// Deferred fan-out, decoupled from the caller's completion. Emission
	// is at-most-once: no acknowledgement, no retry.
	snapshot := *updated
	c.callbacks.Go(func(ctx context.Context) {
		c.emit(ctx, model.EventRoomClosed, &snapshot)
		c.emit(ctx, model.EventPostRoomClosed, &snapshot)
	})
	c.callbacks.RunAsync(events.HookCloseRoom, events.CloseRoomPayload{
		Room:    &snapshot,
		Options: opts,
	})

	return nil
}

func (c *Coordinator) emit(ctx context.Context, event model.LifecycleEvent, room *model.Room) {
	if c.bridge == nil {
		return
	}
	if err := c.bridge.Emit(ctx, event, room); err != nil {
		metrics.BridgeEvents.WithLabelValues(string(event), "error").Inc()
		c.logger.Warn("automation bridge emission failed",
			zap.String("event", string(event)),
			zap.String("room_id", room.ID),
			zap.Error(err),
		)
		return
	}
	metrics.BridgeEvents.WithLabelValues(string(event), "ok").Inc()
}
