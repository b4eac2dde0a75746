package model

import (
	"time"
)

// MessageType tags system messages. Regular chat messages carry an empty type.
type MessageType string

const (
	MessageTypeClose              MessageType = "livechat-close"
	MessageTypeStarted            MessageType = "livechat-started"
	MessageTypeTranscriptPrompt   MessageType = "livechat_transcript_prompt"
	MessageTypeTranscriptHistory  MessageType = "livechat_transcript_history"
	MessageTypeNavigationHistory  MessageType = "livechat_navigation_history"
	MessageTypeVideoCall          MessageType = "livechat_video_call"
	MessageTypeCommand            MessageType = "command"
)

// TranscriptIgnoredTypes are system message kinds never rendered into a
// transcript export.
var TranscriptIgnoredTypes = []MessageType{
	MessageTypeNavigationHistory,
	MessageTypeTranscriptHistory,
	MessageTypeCommand,
	MessageTypeClose,
	MessageTypeStarted,
	MessageTypeVideoCall,
}

// Message is a single entry in a room's history.
type Message struct {
	ID        string      `json:"id"`
	RoomID    string      `json:"room_id"`
	Type      MessageType `json:"type,omitempty"`
	Body      string      `json:"body"`
	Author    Identity    `json:"author"`
	Timestamp time.Time   `json:"timestamp"`
	Groupable bool        `json:"groupable"`

	// TranscriptRequested is set on the closing message when the visitor
	// asked for an emailed transcript.
	TranscriptRequested bool `json:"transcript_requested,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// SystemMessage reports whether the message is engine-generated rather than
// authored chat content.
func (m *Message) SystemMessage() bool {
	return m.Type != ""
}
