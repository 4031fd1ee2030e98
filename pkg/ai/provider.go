package ai

import (
	"context"

	"github.com/ronnysplore/studio/pkg/conversation"
)

// ChatRequest defines the input to a streaming generation call.
type ChatRequest struct {
	Model        string
	Conversation conversation.Conversation
	Config       conversation.GenerationConfig
}

// ChatStream exposes a pull-based streaming response. Next blocks until the
// next fragment arrives or the stream ends.
type ChatStream interface {
	Next() bool
	Content() string
	Err() error
	Close() error
}

// Provider defines the LLM interface used by the app.
type Provider interface {
	CreateChatCompletionStream(ctx context.Context, req ChatRequest) (ChatStream, error)
}
