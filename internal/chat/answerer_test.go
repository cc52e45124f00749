package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswererBuildsPromptInCausalOrder(t *testing.T) {
	llm := &fakeLLM{reply: "answer"}
	retriever := &fakeRetriever{chunks: []string{"chunk one", "chunk two"}}
	a := NewAnswerer(llm, retriever, 3, nil)

	window := []Message{
		{UserID: "u-1", Role: RoleUser, Text: "newest", Timestamp: time.Now()},
		{UserID: "u-1", Role: RoleUser, Text: "older", Timestamp: time.Now().Add(-time.Minute)},
	}

	reply, err := a.Answer(context.Background(), "what helps with sleep", window)
	require.NoError(t, err)
	assert.Equal(t, "answer", reply)

	require.Len(t, llm.reqs, 1)
	prompt := llm.reqs[0].Turns[0].Content
	assert.Contains(t, prompt, "chunk one\n\nchunk two")
	assert.Contains(t, prompt, "what helps with sleep")
	assert.Less(t,
		indexOf(prompt, "older"),
		indexOf(prompt, "newest"),
		"history must appear oldest-first in the prompt",
	)
}

func TestAnswererEmptyWindow(t *testing.T) {
	llm := &fakeLLM{reply: "answer"}
	a := NewAnswerer(llm, &fakeRetriever{}, 3, nil)

	_, err := a.Answer(context.Background(), "hello", nil)
	require.NoError(t, err)
	assert.Contains(t, llm.reqs[0].Turns[0].Content, "(no prior messages)")
}

func TestAnswererPropagatesRetrieverError(t *testing.T) {
	llm := &fakeLLM{reply: "answer"}
	a := NewAnswerer(llm, &fakeRetriever{err: errors.New("index offline")}, 3, nil)

	_, err := a.Answer(context.Background(), "hello", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index offline")
	assert.Empty(t, llm.reqs, "no completion call when retrieval fails")
}

func TestAnswererPropagatesCompletionError(t *testing.T) {
	llm := &fakeLLM{err: errors.New("completion down")}
	a := NewAnswerer(llm, &fakeRetriever{}, 3, nil)

	_, err := a.Answer(context.Background(), "hello", nil)
	assert.Error(t, err)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
