// Package transcript renders a room's history to a document and dispatches
// it by email. It runs decoupled from closure: invoked after the fact,
// fire-and-continue.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/omnidesk-io/omnichannel-engine/internal/callback"
	"github.com/omnidesk-io/omnichannel-engine/internal/config"
	"github.com/omnidesk-io/omnichannel-engine/internal/events"
	"github.com/omnidesk-io/omnichannel-engine/internal/mailer"
	"github.com/omnidesk-io/omnichannel-engine/internal/messaging"
	"github.com/omnidesk-io/omnichannel-engine/internal/model"
	"github.com/omnidesk-io/omnichannel-engine/internal/store"
	"github.com/omnidesk-io/omnichannel-engine/pkg/logger"
	"github.com/omnidesk-io/omnichannel-engine/pkg/metrics"
)

var (
	// ErrInvalidToken rejects a transcript request with an unknown
	// visitor token.
	ErrInvalidToken = errors.New("invalid visitor token")

	// ErrInvalidRoom rejects a transcript request whose room is missing,
	// not a visitor conversation, or owned by a different visitor.
	ErrInvalidRoom = errors.New("invalid room")

	// ErrNoSystemAccount indicates the well-known system account is
	// missing, so no transcript audit record can be attributed. This is a
	// service misconfiguration, not a per-request problem.
	ErrNoSystemAccount = errors.New("no system account available for transcript attribution")
)

// emailPattern extracts a bare address from a display-form sender such as
// "Support <support@omnidesk.io>".
var emailPattern = regexp.MustCompile(`(?i)\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`)

// Request asks for a room's transcript to be emailed.
type Request struct {
	Token   string
	RoomID  string
	Email   string
	Subject string

	// User is the requesting platform user, when the request came from
	// the agent side rather than the visitor widget.
	User *model.User
}

// Generator renders and dispatches conversation transcripts.
type Generator struct {
	visitors  store.VisitorStore
	rooms     store.RoomStore
	messages  store.MessageStore
	users     store.UserStore
	mail      mailer.Mailer
	messenger *messaging.Service
	callbacks *callback.Chain
	settings  config.Settings
	logger    *logger.Logger
	now       func() time.Time
}

// NewGenerator creates a transcript generator.
func NewGenerator(
	visitors store.VisitorStore,
	rooms store.RoomStore,
	messages store.MessageStore,
	users store.UserStore,
	mail mailer.Mailer,
	messenger *messaging.Service,
	callbacks *callback.Chain,
	settings config.Settings,
	log *logger.Logger,
) *Generator {
	return &Generator{
		visitors:  visitors,
		rooms:     rooms,
		messages:  messages,
		users:     users,
		mail:      mail,
		messenger: messenger,
		callbacks: callbacks,
		settings:  settings,
		logger:    log,
		now:       time.Now,
	}
}

// Send renders the room's history and dispatches it to the requested
// address. Email delivery is fire-and-forget; the operation succeeds only
// once the transcript audit message is durably recorded.
func (g *Generator) Send(ctx context.Context, req Request) error {
	visitor, err := g.visitors.ByToken(ctx, req.Token)
	if err != nil {
		return fmt.Errorf("resolving visitor: %w", err)
	}
	if visitor == nil {
		return ErrInvalidToken
	}

	room, err := g.rooms.ByID(ctx, req.RoomID)
	if err != nil {
		return fmt.Errorf("resolving room: %w", err)
	}
	// A visitor may only export their own conversation.
	if room == nil || room.Kind != model.KindOmnichannel || room.Visitor.Token != req.Token {
		return ErrInvalidRoom
	}

	locale := visitor.Language
	if locale == "" {
		locale = g.settings.DefaultLanguage
	}

	cutoff := g.now()
	if closeMsg, err := g.messages.FirstOfType(ctx, room.ID, model.MessageTypeClose); err != nil {
		return fmt.Errorf("finding closing message: %w", err)
	} else if closeMsg != nil {
		cutoff = closeMsg.Timestamp
	}

	msgs, err := g.messages.ByRoomBefore(ctx, room.ID, cutoff, model.TranscriptIgnoredTypes)
	if err != nil {
		return fmt.Errorf("loading room history: %w", err)
	}

	body := g.render(msgs, visitor, locale)

	subject := req.Subject
	if subject == "" {
		subject = g.settings.TranscriptSubject
	}
	from := extractAddress(g.settings.FromAddress)

	// Dispatch failures are absorbed: the transcript attempt itself is
	// best-effort from the caller's perspective.
	if err := g.mail.Send(ctx, mailer.Email{
		To:      req.Email,
		From:    from,
		ReplyTo: from,
		Subject: subject,
		HTML:    body,
	}); err != nil {
		metrics.TranscriptsSent.WithLabelValues("dispatch_failed").Inc()
		g.logger.Warn("transcript email dispatch failed",
			zap.String("room_id", room.ID),
			zap.Error(err),
		)
	} else {
		metrics.TranscriptsSent.WithLabelValues("sent").Inc()
	}

	g.callbacks.RunAsync(events.HookTranscriptSent, events.TranscriptSentPayload{
		RoomID:   room.ID,
		Email:    req.Email,
		Messages: msgs,
	})

	requestedBy := model.CloserVisitor
	attributed := req.User
	if attributed != nil {
		requestedBy = model.CloserUser
	} else {
		attributed, err = g.users.ByUsername(ctx, g.settings.SystemUsername)
		if err != nil {
			return fmt.Errorf("resolving system account: %w", err)
		}
		if attributed == nil {
			return ErrNoSystemAccount
		}
	}

	metadata := map[string]any{
		"request_type": string(requestedBy),
		"visitor_id":   visitor.ID,
		"email":        req.Email,
	}
	if req.User != nil {
		metadata["user_id"] = req.User.ID
	}

	if _, err := g.messenger.PostSystem(ctx, messaging.SystemMessage{
		RoomID:   room.ID,
		Type:     model.MessageTypeTranscriptHistory,
		Author:   attributed.Identity(),
		Metadata: metadata,
	}); err != nil {
		return fmt.Errorf("recording transcript audit message: %w", err)
	}

	return nil
}

// render produces the transcript document: one attributed, timestamped line
// per message, chronologically ascending.
func (g *Generator) render(msgs []model.Message, visitor *model.Visitor, locale string) string {
	timeLayout := "2006-01-02 15:04"
	if strings.HasPrefix(locale, "en") {
		timeLayout = "2006-01-02 3:04 PM"
	}

	var b strings.Builder
	b.WriteString("<div>")
	for _, msg := range msgs {
		b.WriteString("<p>")
		b.WriteString(msg.Timestamp.Format(timeLayout))
		b.WriteString(" - <strong>")
		b.WriteString(html.EscapeString(g.attribution(&msg, visitor)))
		b.WriteString("</strong>: ")
		b.WriteString(html.EscapeString(msg.Body))
		b.WriteString("</p>")
	}
	b.WriteString("</div>")
	return b.String()
}

// attribution labels a message author: "You" for the requesting visitor,
// the agent's name when agent info may be shown, a generic label otherwise.
func (g *Generator) attribution(msg *model.Message, visitor *model.Visitor) string {
	if msg.Author.ID == visitor.ID {
		return "You"
	}
	if g.settings.ShowAgentInfo && msg.Author.DisplayName != "" {
		return msg.Author.DisplayName
	}
	return "Agent"
}

// extractAddress pulls a bare email address out of a display-form sender,
// falling back to the raw configured value.
func extractAddress(configured string) string {
	if m := emailPattern.FindString(configured); m != "" {
		return m
	}
	return configured
}
