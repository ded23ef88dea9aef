package llm

import "context"

// Provider generates text for a single prompt against one model. Adapters are
// interchangeable: remote HTTP providers and the local synthesizer satisfy the
// same contract so the model router can chain them.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// Message is a single chat-completion message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request carries everything an adapter may need. Remote adapters consume
// Model and Messages; the local adapter synthesizes from the persona traits
// instead of calling out.
type Request struct {
	Model    string
	Messages []Message

	Tone      string
	Interests []string
	Topic     string

	// Seed fixes the local adapter's randomness. Zero means non-deterministic.
	Seed int64
}
