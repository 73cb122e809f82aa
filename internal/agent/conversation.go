package agent

import (
	"strings"
	"time"
)

type Role string

const (
	RoleHuman Role = "human"
	RoleAI    Role = "ai"
)

type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation is the per-request dialogue state. Turns loaded from session
// memory come first; turns added while serving the request are pending until
// saved.
type Conversation struct {
	SessionID string
	Turns     []Turn
	loaded    int
}

func NewConversation(sessionID string, history []Turn) *Conversation {
	turns := make([]Turn, len(history))
	copy(turns, history)
	return &Conversation{SessionID: sessionID, Turns: turns, loaded: len(turns)}
}

func (c *Conversation) Add(role Role, content string) {
	if c == nil {
		return
	}
	c.Turns = append(c.Turns, Turn{Role: role, Content: content, CreatedAt: time.Now()})
}

// Pending returns the turns added since the conversation was opened.
func (c *Conversation) Pending() []Turn {
	if c == nil || c.loaded >= len(c.Turns) {
		return nil
	}
	return c.Turns[c.loaded:]
}

// markSaved moves pending turns into the loaded history.
func (c *Conversation) markSaved() {
	c.loaded = len(c.Turns)
}

// History renders the turns as a transcript for the agent prompt.
func (c *Conversation) History() string {
	if c == nil {
		return ""
	}

	var b strings.Builder
	for i, t := range c.Turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		if t.Role == RoleHuman {
			b.WriteString("Human: ")
		} else {
			b.WriteString("AI: ")
		}
		b.WriteString(t.Content)
	}
	return b.String()
}
