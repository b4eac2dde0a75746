// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/omnidesk-io/omnichannel-engine/internal/closing"
	"github.com/omnidesk-io/omnichannel-engine/internal/middleware"
	"github.com/omnidesk-io/omnichannel-engine/internal/model"
	"github.com/omnidesk-io/omnichannel-engine/internal/store"
	"github.com/omnidesk-io/omnichannel-engine/pkg/logger"
)

// RoomHandler handles agent-side room endpoints.
type RoomHandler struct {
	coordinator *closing.Coordinator
	users       store.UserStore
	logger      *logger.Logger
}

// NewRoomHandler creates a new room handler.
func NewRoomHandler(coordinator *closing.Coordinator, users store.UserStore, log *logger.Logger) *RoomHandler {
	return &RoomHandler{
		coordinator: coordinator,
		users:       users,
		logger:      log,
	}
}

type closeRoomRequest struct {
	Comment string   `json:"comment,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// Close handles POST /api/v1/rooms/{id}/close
func (h *RoomHandler) Close(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID := chi.URLParam(r, "id")

	if err := middleware.ValidateRoomID(roomID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req closeRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateComment(req.Comment); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateTags(req.Tags); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.ByID(ctx, middleware.GetUserID(ctx))
	if err != nil || user == nil {
		writeError(w, http.StatusUnauthorized, "unknown user")
		return
	}

	err = h.coordinator.CloseRoom(ctx, roomID, closing.CloseRequest{
		User:    user,
		Comment: req.Comment,
		Options: model.CloseOptions{
			ClientAction: true,
			Tags:         req.Tags,
		},
	})
	switch {
	case errors.Is(err, closing.ErrTagsRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		h.logger.Error("room close failed", zap.String("room_id", roomID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to close room")
	default:
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}
