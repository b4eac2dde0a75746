package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/omnidesk-io/omnichannel-engine/internal/bot"
	"github.com/omnidesk-io/omnichannel-engine/internal/callback"
	"github.com/omnidesk-io/omnichannel-engine/internal/closing"
	"github.com/omnidesk-io/omnichannel-engine/internal/config"
	"github.com/omnidesk-io/omnichannel-engine/internal/messaging"
	"github.com/omnidesk-io/omnichannel-engine/internal/middleware"
	"github.com/omnidesk-io/omnichannel-engine/internal/model"
	"github.com/omnidesk-io/omnichannel-engine/internal/routing"
	"github.com/omnidesk-io/omnichannel-engine/internal/store"
	"github.com/omnidesk-io/omnichannel-engine/internal/transcript"
	"github.com/omnidesk-io/omnichannel-engine/pkg/logger"
)

// LivechatHandler handles the visitor-facing surface. Visitors authenticate
// by token rather than JWT.
type LivechatHandler struct {
	coordinator *closing.Coordinator
	resolver    *routing.Resolver
	generator   *transcript.Generator
	messenger   *messaging.Service
	responder   *bot.Responder
	rooms       store.RoomStore
	visitors    store.VisitorStore
	callbacks   *callback.Chain
	settings    config.Settings
	logger      *logger.Logger
}

// NewLivechatHandler creates a new livechat handler.
func NewLivechatHandler(
	coordinator *closing.Coordinator,
	resolver *routing.Resolver,
	generator *transcript.Generator,
	messenger *messaging.Service,
	responder *bot.Responder,
	rooms store.RoomStore,
	visitors store.VisitorStore,
	callbacks *callback.Chain,
	settings config.Settings,
	log *logger.Logger,
) *LivechatHandler {
	return &LivechatHandler{
		coordinator: coordinator,
		resolver:    resolver,
		generator:   generator,
		messenger:   messenger,
		responder:   responder,
		rooms:       rooms,
		visitors:    visitors,
		callbacks:   callbacks,
		settings:    settings,
		logger:      log,
	}
}

// Availability handles GET /api/v1/livechat/availability
func (h *LivechatHandler) Availability(w http.ResponseWriter, r *http.Request) {
	q := routing.Query{
		DepartmentID: r.URL.Query().Get("department"),
		AgentID:      r.URL.Query().Get("agent"),
	}

	available, err := h.resolver.IsServiceAvailable(r.Context(), h.settings, q)
	if err != nil {
		// Resolution failures read as "unavailable", never as a crash of
		// the routing path.
		h.logger.Error("availability resolution failed", zap.Error(err))
		available = false
	}

	writeJSON(w, http.StatusOK, map[string]bool{"available": available})
}

type visitorCloseRequest struct {
	RoomID  string `json:"rid"`
	Token   string `json:"token"`
	Comment string `json:"comment,omitempty"`
}

// CloseRoom handles POST /api/v1/livechat/room.close
func (h *LivechatHandler) CloseRoom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req visitorCloseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateVisitorToken(req.Token); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateComment(req.Comment); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	visitor, _, status, msg := h.authorizeVisitor(ctx, req.Token, req.RoomID)
	if status != 0 {
		writeError(w, status, msg)
		return
	}

	err := h.coordinator.CloseRoom(ctx, req.RoomID, closing.CloseRequest{
		Visitor: visitor,
		Comment: req.Comment,
		Options: model.CloseOptions{ClientAction: true},
	})
	switch {
	case errors.Is(err, closing.ErrTagsRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		h.logger.Error("visitor close failed", zap.String("room_id", req.RoomID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to close room")
	default:
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

type visitorMessageRequest struct {
	RoomID string `json:"rid"`
	Token  string `json:"token"`
	Body   string `json:"msg"`
}

// SendMessage handles POST /api/v1/livechat/message
func (h *LivechatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req visitorMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateVisitorToken(req.Token); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateMessageContent(req.Body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	visitor, room, status, msg := h.authorizeVisitor(ctx, req.Token, req.RoomID)
	if status != 0 {
		writeError(w, status, msg)
		return
	}
	if !room.Open {
		writeError(w, http.StatusBadRequest, "room is closed")
		return
	}

	name := visitor.Name
	if name == "" {
		name = h.settings.GuestDefaultName
	}
	posted, err := h.messenger.Post(ctx, &model.Message{
		RoomID:    room.ID,
		Body:      req.Body,
		Author:    model.Identity{ID: visitor.ID, DisplayName: name},
		Groupable: true,
	})
	if err != nil {
		h.logger.Error("message post failed", zap.String("room_id", room.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to send message")
		return
	}

	// Bot replies run detached from the request path.
	if h.responder != nil {
		roomSnapshot := *room
		h.callbacks.Go(func(ctx context.Context) {
			if err := h.responder.MaybeReply(ctx, &roomSnapshot); err != nil {
				h.logger.Warn("bot reply failed", zap.String("room_id", roomSnapshot.ID), zap.Error(err))
			}
		})
	}

	writeJSON(w, http.StatusCreated, posted)
}

type transcriptRequest struct {
	Token   string `json:"token"`
	RoomID  string `json:"rid"`
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
}

// SendTranscript handles POST /api/v1/livechat/transcript
func (h *LivechatHandler) SendTranscript(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req transcriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateVisitorToken(req.Token); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateEmail(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.generator.Send(ctx, transcript.Request{
		Token:   req.Token,
		RoomID:  req.RoomID,
		Email:   req.Email,
		Subject: req.Subject,
	})
	switch {
	case errors.Is(err, transcript.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, transcript.ErrInvalidRoom):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		h.logger.Error("transcript request failed", zap.String("room_id", req.RoomID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to send transcript")
	default:
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// authorizeVisitor resolves token and room and enforces room ownership. A
// non-zero status means the request must be rejected.
func (h *LivechatHandler) authorizeVisitor(ctx context.Context, token, roomID string) (*model.Visitor, *model.Room, int, string) {
	visitor, err := h.visitors.ByToken(ctx, token)
	if err != nil {
		h.logger.Error("visitor lookup failed", zap.Error(err))
		return nil, nil, http.StatusInternalServerError, "visitor lookup failed"
	}
	if visitor == nil {
		return nil, nil, http.StatusUnauthorized, "invalid visitor token"
	}

	room, err := h.rooms.ByID(ctx, roomID)
	if err != nil {
		h.logger.Error("room lookup failed", zap.Error(err))
		return nil, nil, http.StatusInternalServerError, "room lookup failed"
	}
	if room == nil || room.Visitor.Token != token {
		return nil, nil, http.StatusForbidden, "room does not belong to visitor"
	}

	return visitor, room, 0, ""
}
