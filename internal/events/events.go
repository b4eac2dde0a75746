// Package events defines the automation-event bridge contract. Lifecycle
// events carry the full room snapshot to downstream automation; delivery
// is at-most-once from the engine's perspective.
package events

import (
	"context"

	"github.com/omnidesk-io/omnichannel-engine/internal/model"
)

// Bridge delivers lifecycle events to the automation subsystem.
type Bridge interface {
	Emit(ctx context.Context, event model.LifecycleEvent, room *model.Room) error
}

// Hook names for the generic callback chain.
const (
	HookCloseRoom      = "room.closeRoom"
	HookTranscriptSent = "transcript.sent"
)

// CloseRoomPayload is handed to HookCloseRoom callbacks.
type CloseRoomPayload struct {
	Room    *model.Room
	Options model.CloseOptions
}

// TranscriptSentPayload is handed to HookTranscriptSent callbacks.
type TranscriptSentPayload struct {
	RoomID   string
	Email    string
	Messages []model.Message
}
