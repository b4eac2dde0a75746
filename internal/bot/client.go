// Package bot generates automated agent replies for rooms serviced by a bot
// agent. The provider behind the Client interface is interchangeable.
package bot

import (
	"context"
	"fmt"
)

// Turn is one exchange in the conversation handed to the provider.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ReplyRequest asks a provider for the next support reply.
type ReplyRequest struct {
	Model        string
	Instructions string
	History      []Turn
}

// Reply is a provider response.
type Reply struct {
	Content   string
	Model     string
	TokensIn  int
	TokensOut int
	LatencyMs int64
}

// Client is the interface for reply providers.
type Client interface {
	// Reply produces the next assistant turn for the conversation.
	Reply(ctx context.Context, req *ReplyRequest) (*Reply, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of reply provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// NewClient creates a reply client for the given provider.
func NewClient(provider Provider, apiKey string) (Client, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey)
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey)
	default:
		return nil, fmt.Errorf("unknown bot provider %q", provider)
	}
}

// DefaultInstructions frame the bot as a first-line support agent.
const DefaultInstructions = "You are a first-line customer support agent. " +
	"Answer concisely and helpfully. If you cannot resolve the issue, say " +
	"that a human agent will follow up."
