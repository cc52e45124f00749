package chat

import "context"

// Turn is a role-tagged message handed to the completion service.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMRequest is a provider-neutral completion request.
type LLMRequest struct {
	System      string
	Turns       []Turn
	MaxTokens   int
	Temperature float32
}

// LLMResponse carries the generated text.
type LLMResponse struct {
	Text string
}

// LLMClient abstracts the hosted chat-completion service.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}
