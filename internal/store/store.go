// Package store defines the persistence contracts the engine consumes. The
// backing collections are external collaborators; none of them offer a
// multi-collection transaction, so callers sequence conditional writes and
// tolerate partial failure.
package store

import (
	"context"
	"time"

	"github.com/omnidesk-io/omnichannel-engine/internal/model"
)

// RoomStore is the conversation collection. Lookups return (nil, nil) when
// the record is absent.
type RoomStore interface {
	ByID(ctx context.Context, id string) (*model.Room, error)
	Save(ctx context.Context, room *model.Room) error

	// CloseIfOpen marks the room closed with the given metadata, keyed on
	// the open flag. Returns false when the room was already closed or
	// missing; at most one concurrent close attempt takes effect.
	CloseIfOpen(ctx context.Context, id string, info model.CloseInfo) (bool, error)
}

// InquiryStore holds queued, not-yet-assigned conversations.
type InquiryStore interface {
	Add(ctx context.Context, inq *model.Inquiry) error
	ByRoomID(ctx context.Context, roomID string) (*model.Inquiry, error)
	RemoveByRoomID(ctx context.Context, roomID string) error
}

// SubscriptionStore holds per-user room subscriptions.
type SubscriptionStore interface {
	Add(ctx context.Context, sub *model.Subscription) error
	CountByRoomID(ctx context.Context, roomID string) (int, error)
	RemoveByRoomID(ctx context.Context, roomID string) error
}

// MessageStore is the room history collection.
type MessageStore interface {
	Insert(ctx context.Context, msg *model.Message) error

	// ByRoomBefore returns messages strictly before the cutoff, ascending
	// by timestamp, skipping the excluded system types.
	ByRoomBefore(ctx context.Context, roomID string, before time.Time, exclude []model.MessageType) ([]model.Message, error)

	// ByRoom returns the most recent messages ascending, up to limit.
	ByRoom(ctx context.Context, roomID string, limit int) ([]model.Message, error)

	// FirstOfType returns the earliest message of the given system type,
	// or (nil, nil) when the room has none.
	FirstOfType(ctx context.Context, roomID string, t model.MessageType) (*model.Message, error)
}

// UserStore resolves platform accounts.
type UserStore interface {
	ByID(ctx context.Context, id string) (*model.User, error)
	ByUsername(ctx context.Context, username string) (*model.User, error)
}

// VisitorStore resolves website visitors.
type VisitorStore interface {
	ByID(ctx context.Context, id string) (*model.Visitor, error)
	ByToken(ctx context.Context, token string) (*model.Visitor, error)
	Save(ctx context.Context, v *model.Visitor) error
}

// DepartmentStore is the department side of the directory.
type DepartmentStore interface {
	ByID(ctx context.Context, id string) (*model.Department, error)
	Count(ctx context.Context) (int, error)
}

// AgentStore is the agent side of the directory. A departmentID of "" scopes
// queries to the whole installation.
type AgentStore interface {
	ByID(ctx context.Context, id string) (*model.Agent, error)
	OnlineCount(ctx context.Context, departmentID string) (int, error)
	BotCount(ctx context.Context, departmentID string) (int, error)
}
