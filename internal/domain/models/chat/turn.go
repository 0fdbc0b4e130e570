package chat

import "strings"

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single entry in the conversation log. Immutable once created.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"content"`
}

// History is the bounded conversation window used to resolve follow-up
// questions. Each logical turn contributes one user and one assistant
// entry, so the log never holds more than 2×maxTurns entries. Oldest
// entries are evicted first.
type History struct {
	maxTurns int
	turns    []Turn
}

// NewHistory creates an empty history keeping at most maxTurns
// user/assistant pairs.
func NewHistory(maxTurns int) *History {
	return &History{maxTurns: maxTurns}
}

// Append records one completed exchange and trims the window.
func (h *History) Append(question, reply string) {
	h.turns = append(h.turns,
		Turn{Role: RoleUser, Text: question},
		Turn{Role: RoleAssistant, Text: reply},
	)
	if max := h.maxTurns * 2; len(h.turns) > max {
		h.turns = h.turns[len(h.turns)-max:]
	}
}

// Turns returns the windowed entries in chronological order.
func (h *History) Turns() []Turn {
	return h.turns
}

// Len returns the number of entries (not logical turns) in the window.
func (h *History) Len() int {
	return len(h.turns)
}

// Render serializes the window for prompting, one "<role>: <text>" line
// per entry.
func (h *History) Render() string {
	lines := make([]string, 0, len(h.turns))
	for _, t := range h.turns {
		lines = append(lines, string(t.Role)+": "+t.Text)
	}
	return strings.Join(lines, "\n")
}
