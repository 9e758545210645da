package genai

// Message is one turn in a chat completion exchange.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is the retained question-generation context for one interview
// session. It is owned by exactly one session and passed into every
// question-generation call; evaluation and reporting never see it.
type Conversation struct {
	messages []Message
}

// NewConversation returns an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// Reset drops all retained context and seeds the conversation with the
// interviewer persona. Called when a new interview starts.
func (c *Conversation) Reset(persona string) {
	c.messages = c.messages[:0]
	if persona != "" {
		c.messages = append(c.messages, Message{Role: "system", Content: persona})
	}
}

// Append records one exchange turn.
func (c *Conversation) Append(role, content string) {
	c.messages = append(c.messages, Message{Role: role, Content: content})
}

// Messages returns a copy of the retained context.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of retained turns.
func (c *Conversation) Len() int {
	return len(c.messages)
}
