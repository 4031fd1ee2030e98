// Package conversation holds the provider-neutral request data: turns, their
// segments and the generation settings sent alongside them.
package conversation

// Role identifies who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Segment is one piece of a turn. A segment carries either text or an inline
// binary payload; Data takes precedence when both are set.
type Segment struct {
	Text     string
	MIMEType string
	Data     []byte
}

// Text returns a text segment.
func Text(s string) Segment {
	return Segment{Text: s}
}

// Inline returns a segment carrying raw bytes of the given MIME type.
func Inline(mimeType string, data []byte) Segment {
	return Segment{MIMEType: mimeType, Data: data}
}

// IsInline reports whether the segment carries binary data.
func (s Segment) IsInline() bool {
	return s.Data != nil
}

// Turn is a single message in a conversation.
type Turn struct {
	Role     Role
	Segments []Segment
}

// UserTurn builds a user turn from text segments.
func UserTurn(texts ...string) Turn {
	return newTurn(RoleUser, texts)
}

// AssistantTurn builds an assistant turn from text segments.
func AssistantTurn(texts ...string) Turn {
	return newTurn(RoleAssistant, texts)
}

func newTurn(role Role, texts []string) Turn {
	segments := make([]Segment, 0, len(texts))
	for _, t := range texts {
		segments = append(segments, Text(t))
	}
	return Turn{Role: role, Segments: segments}
}

// Conversation is an ordered, append-only list of turns. It lives for a single
// run and is never persisted.
type Conversation struct {
	turns []Turn
}

// New returns a conversation holding the given turns in order.
func New(turns ...Turn) Conversation {
	var c Conversation
	for _, t := range turns {
		c = c.Append(t)
	}
	return c
}

// Append returns a conversation with t added after the existing turns. The
// receiver is left untouched.
func (c Conversation) Append(t Turn) Conversation {
	turns := make([]Turn, len(c.turns), len(c.turns)+1)
	copy(turns, c.turns)
	return Conversation{turns: append(turns, t)}
}

// Turns returns a copy of the turns in order.
func (c Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of turns.
func (c Conversation) Len() int {
	return len(c.turns)
}

// Roles returns the role of each turn in order.
func (c Conversation) Roles() []Role {
	roles := make([]Role, 0, len(c.turns))
	for _, t := range c.turns {
		roles = append(roles, t.Role)
	}
	return roles
}
