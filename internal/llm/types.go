package llm

import "context"

// Message represents a single message in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatParams holds parameters for chat completion requests.
type ChatParams struct {
	// Model specifies the model to use. If empty, the client's default model is used.
	Model string

	// Temperature controls the randomness of the output.
	Temperature float32
}

// Embedder maps texts to fixed-dimension vectors. The active implementation
// (offline or model-backed) is chosen once at startup and fixed for the
// process lifetime.
type Embedder interface {
	// EmbedTexts embeds a batch of texts, one vector per input.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedText embeds a single text. The empty string yields a defined
	// vector, never an error.
	EmbedText(ctx context.Context, text string) ([]float32, error)
}
