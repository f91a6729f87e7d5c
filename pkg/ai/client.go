// pkg/ai/client.go

package ai

import "context"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Fragment is one piece of a streamed answer. A fragment with Err set is always
// the last one sent before the channel is closed.
type Fragment struct {
	Text string
	Err  error
}

// Client is a text-generation and embedding provider.
type Client interface {
	Complete(ctx context.Context, system string, msgs []Message) (string, error)

	// Stream returns an error only when the request could not be started.
	// Failures after the first fragment arrive as a final Fragment with Err set.
	Stream(ctx context.Context, system string, msgs []Message) (<-chan Fragment, error)

	Embed(ctx context.Context, text string) ([]float32, error)
}
