package bot

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/omnidesk-io/omnichannel-engine/internal/messaging"
	"github.com/omnidesk-io/omnichannel-engine/internal/model"
	"github.com/omnidesk-io/omnichannel-engine/internal/store"
	"github.com/omnidesk-io/omnichannel-engine/pkg/logger"
	"github.com/omnidesk-io/omnichannel-engine/pkg/metrics"
)

// historyWindow bounds how much room history is handed to the provider.
const historyWindow = 50

// Responder answers visitor messages in rooms serviced by a bot agent.
type Responder struct {
	client    Client
	agents    store.AgentStore
	messages  store.MessageStore
	messenger *messaging.Service
	model     string
	logger    *logger.Logger
}

// NewResponder creates a bot responder. A nil client disables responses.
func NewResponder(
	client Client,
	agents store.AgentStore,
	messages store.MessageStore,
	messenger *messaging.Service,
	model string,
	log *logger.Logger,
) *Responder {
	return &Responder{
		client:    client,
		agents:    agents,
		messages:  messages,
		messenger: messenger,
		model:     model,
		logger:    log,
	}
}

// MaybeReply posts an automated agent reply when the room's servicing agent
// is a bot. Best-effort: errors are logged, the visitor message stands.
func (r *Responder) MaybeReply(ctx context.Context, room *model.Room) error {
	if r.client == nil || room.ServedBy == nil || !room.Open {
		return nil
	}

	agent, err := r.agents.ByID(ctx, room.ServedBy.AgentID)
	if err != nil {
		return fmt.Errorf("looking up servicing agent: %w", err)
	}
	if agent == nil || !agent.Bot {
		return nil
	}

	history, err := r.messages.ByRoom(ctx, room.ID, historyWindow)
	if err != nil {
		return fmt.Errorf("loading room history: %w", err)
	}

	turns := make([]Turn, 0, len(history))
	for _, msg := range history {
		if msg.SystemMessage() {
			continue
		}
		role := "assistant"
		if msg.Author.ID == room.Visitor.ID {
			role = "user"
		}
		turns = append(turns, Turn{Role: role, Content: msg.Body})
	}
	if len(turns) == 0 || turns[len(turns)-1].Role != "user" {
		return nil
	}

	reply, err := r.client.Reply(ctx, &ReplyRequest{
		Model:        r.model,
		Instructions: DefaultInstructions,
		History:      turns,
	})
	if err != nil {
		metrics.BotReplies.WithLabelValues(r.client.Name(), "error").Inc()
		return fmt.Errorf("generating bot reply: %w", err)
	}

	if _, err := r.messenger.Post(ctx, &model.Message{
		RoomID:    room.ID,
		Body:      reply.Content,
		Author:    model.Identity{ID: agent.ID, DisplayName: agent.Name},
		Groupable: true,
	}); err != nil {
		metrics.BotReplies.WithLabelValues(r.client.Name(), "error").Inc()
		return fmt.Errorf("posting bot reply: %w", err)
	}

	metrics.BotReplies.WithLabelValues(r.client.Name(), "ok").Inc()
	r.logger.Debug("bot reply posted",
		zap.String("room_id", room.ID),
		zap.String("provider", r.client.Name()),
		zap.Int64("latency_ms", reply.LatencyMs),
	)
	return nil
}
