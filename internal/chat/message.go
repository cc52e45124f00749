package chat

import "time"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn in a user's chat history. Messages are immutable
// once appended to the history log.
type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Chronological returns a copy of a most-recent-first window in causal order,
// the order the completion service expects dialogue context in.
func Chronological(window []Message) []Message {
	out := make([]Message, len(window))
	for i, msg := range window {
		out[len(window)-1-i] = msg
	}
	return out
}
