package chat

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatCompletion struct {
	resp openai.ChatCompletionResponse
	err  error
	reqs []openai.ChatCompletionRequest
}

func (f *fakeChatCompletion) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.reqs = append(f.reqs, req)
	return f.resp, f.err
}

func TestNewGroqClientRequiresAPIKey(t *testing.T) {
	_, err := NewGroqClient("  ", "", "llama3-8b-8192", 75, 0.2)
	assert.Error(t, err)
}

func TestGroqClientComplete(t *testing.T) {
	fake := &fakeChatCompletion{
		resp: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "  hello there  "}},
			},
		},
	}
	c := &GroqClient{client: fake, model: "llama3-8b-8192", maxTokens: 75, temperature: 0.2}

	resp, err := c.Complete(context.Background(), LLMRequest{
		System: "be kind",
		Turns: []Turn{
			{Role: RoleUser, Content: "hi"},
			{Role: RoleAssistant, Content: "hello"},
			{Role: RoleUser, Content: "how are you"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello there", resp.Text, "reply is trimmed")

	require.Len(t, fake.reqs, 1)
	req := fake.reqs[0]
	assert.Equal(t, "llama3-8b-8192", req.Model)
	assert.Equal(t, 75, req.MaxTokens)
	require.Len(t, req.Messages, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, req.Messages[2].Role)
}

func TestGroqClientSkipsBlankTurns(t *testing.T) {
	fake := &fakeChatCompletion{
		resp: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "ok"}},
			},
		},
	}
	c := &GroqClient{client: fake, model: "llama3-8b-8192"}

	_, err := c.Complete(context.Background(), LLMRequest{
		Turns: []Turn{{Role: RoleUser, Content: "   "}, {Role: RoleUser, Content: "real"}},
	})
	require.NoError(t, err)
	require.Len(t, fake.reqs[0].Messages, 1)
}

func TestGroqClientEmptyRequest(t *testing.T) {
	c := &GroqClient{client: &fakeChatCompletion{}, model: "llama3-8b-8192"}
	_, err := c.Complete(context.Background(), LLMRequest{})
	assert.Error(t, err)
}

func TestGroqClientWrapsServiceError(t *testing.T) {
	c := &GroqClient{client: &fakeChatCompletion{err: errors.New("rate limited")}, model: "llama3-8b-8192"}
	_, err := c.Complete(context.Background(), LLMRequest{Turns: []Turn{{Role: RoleUser, Content: "hi"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}
