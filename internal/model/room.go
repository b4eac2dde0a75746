// Package model defines data structures for the omnichannel engine.
package model

import (
	"time"
)

// RoomKind identifies the channel a room belongs to.
type RoomKind string

const (
	// KindOmnichannel is a visitor-facing support conversation. Only rooms
	// of this kind pass through the routing and closure paths.
	KindOmnichannel RoomKind = "omnichannel"
)

// CloserKind records which side of the conversation closed a room.
type CloserKind string

const (
	CloserUser    CloserKind = "user"
	CloserVisitor CloserKind = "visitor"
)

// Identity is a minimal reference to the actor recorded on close.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Assignment records the servicing agent for a room.
type Assignment struct {
	AgentID     string    `json:"agent_id"`
	DisplayName string    `json:"display_name"`
	AssignedAt  time.Time `json:"assigned_at"`
}

// RoomVisitor is the visitor side of a room.
type RoomVisitor struct {
	ID       string `json:"id"`
	Token    string `json:"token"`
	Name     string `json:"name"`
	Language string `json:"language,omitempty"`
}

// TranscriptRequest marks a room whose visitor asked for an emailed
// transcript on close.
type TranscriptRequest struct {
	Email       string     `json:"email"`
	Subject     string     `json:"subject,omitempty"`
	RequestedBy CloserKind `json:"requested_by"`
}

// CloseInfo is the close-time metadata written onto a room exactly once.
type CloseInfo struct {
	ClosedAt            time.Time  `json:"closed_at"`
	ChatDuration        int64      `json:"chat_duration_seconds"`
	ServiceTimeDuration *int64     `json:"service_time_duration_seconds,omitempty"`
	Closer              CloserKind `json:"closer"`
	ClosedBy            Identity   `json:"closed_by"`
	Tags                []string   `json:"tags,omitempty"`
}

// Room is a single support conversation. Once closed it is never reopened;
// close metadata is written through the closure coordinator only.
type Room struct {
	ID                string             `json:"id"`
	Kind              RoomKind           `json:"kind"`
	Open              bool               `json:"open"`
	CreatedAt         time.Time          `json:"created_at"`
	Visitor           RoomVisitor        `json:"visitor"`
	ServedBy          *Assignment        `json:"served_by,omitempty"`
	DepartmentID      string             `json:"department_id,omitempty"`
	Tags              []string           `json:"tags,omitempty"`
	TranscriptRequest *TranscriptRequest `json:"transcript_request,omitempty"`
	CloseInfo         *CloseInfo         `json:"close_info,omitempty"`
}

// CloseOptions carry the caller-supplied parameters of a close request.
type CloseOptions struct {
	// ClientAction is set when the close was explicitly initiated by a
	// client (agent UI or widget), as opposed to an automated closure.
	ClientAction bool     `json:"client_action"`
	Comment      string   `json:"comment,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// Inquiry is the queued representation of a not-yet-assigned room.
type Inquiry struct {
	ID           string    `json:"id"`
	RoomID       string    `json:"room_id"`
	DepartmentID string    `json:"department_id,omitempty"`
	QueuedAt     time.Time `json:"queued_at"`
}

// Subscription links a user to a room's live updates. Removed on close.
type Subscription struct {
	ID     string `json:"id"`
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
}
