package model

import (
	"time"
)

// LifecycleEvent names an automation-bridge event.
type LifecycleEvent string

const (
	EventRoomClosed     LifecycleEvent = "room-closed"
	EventPostRoomClosed LifecycleEvent = "post-room-closed"
)

// RoomEvent is the envelope published to the automation-event bridge. It
// carries the full closed-room snapshot; delivery is best-effort.
type RoomEvent struct {
	ID        string         `json:"id"`
	Event     LifecycleEvent `json:"event"`
	Room      Room           `json:"room"`
	EmittedAt time.Time      `json:"emitted_at"`
}
