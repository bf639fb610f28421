package orchestrate

import (
	"github.com/google/uuid"

	"github.com/priorauth/autoauth/core/protocol"
	"github.com/priorauth/autoauth/core/verdict"
)

// session is the per-request orchestration state: the conversation, the
// iteration counter, and the terminal flags. It is owned exclusively by one
// GroupChat run; nothing outside the loop mutates it, so no locking is
// needed. The conversation is append-only; messages are never modified once
// appended.
type session struct {
	id           string
	conversation []protocol.Message
	iterations   int
	terminated   bool
	lastVerdict  verdict.Verdict
}

func newSession() *session {
	return &session{id: uuid.Must(uuid.NewV7()).String()}
}

// append assigns the next ordinal and adds the message to the conversation.
func (s *session) append(msg protocol.Message) {
	msg.Ordinal = len(s.conversation)
	s.conversation = append(s.conversation, msg)
}

// history returns the read-only view handed to agents.
func (s *session) history() protocol.History {
	return protocol.History(s.conversation)
}

// transcript returns a defensive copy of the conversation for callers.
func (s *session) transcript() []protocol.Message {
	out := make([]protocol.Message, len(s.conversation))
	copy(out, s.conversation)
	return out
}
