// Package protocol defines the conversation types shared by the AutoAuth
// retrieval agents and the orchestration loop.
//
// A conversation is an append-only, ordered sequence of messages seeded by a
// single user message carrying the clinical metadata of a Prior Authorization
// case. Agents never mutate the conversation; they receive a read-only view
// and return a new message for the loop to append.
package protocol

// Role identifies the sender of a conversation message.
type Role string

const (
	// RoleUser marks the seed message carrying the clinical metadata.
	RoleUser Role = "user"
	// RoleAgent marks every message produced by a retrieval agent.
	RoleAgent Role = "agent"
)

// Message is a single entry in a retrieval conversation. Ordinal is the
// zero-based position assigned by the orchestration loop at append time.
// Messages are never modified after creation.
type Message struct {
	Role       Role   `json:"role"`
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
	Ordinal    int    `json:"ordinal"`
}

// NewUserMessage creates the seed message for a conversation.
func NewUserMessage(author, content string) Message {
	return Message{Role: RoleUser, AuthorName: author, Content: content}
}

// NewAgentMessage creates a message authored by a named agent.
func NewAgentMessage(author, content string) Message {
	return Message{Role: RoleAgent, AuthorName: author, Content: content}
}

// History is a read-only view of a conversation handed to agents. The
// orchestration loop owns the backing slice; agents must treat the view as
// immutable.
type History []Message

// Last returns the most recent message and true, or the zero Message and
// false when the history is empty.
func (h History) Last() (Message, bool) {
	if len(h) == 0 {
		return Message{}, false
	}
	return h[len(h)-1], true
}

// LastBy returns the most recent message authored by the named agent.
func (h History) LastBy(author string) (Message, bool) {
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].AuthorName == author {
			return h[i], true
		}
	}
	return Message{}, false
}

// Seed returns the seed user message content, or "" when the history has no
// user message. The seed carries the clinical metadata the Formulator works
// from on every cycle.
func (h History) Seed() string {
	for _, msg := range h {
		if msg.Role == RoleUser {
			return msg.Content
		}
	}
	return ""
}
