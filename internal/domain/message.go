package domain

import "time"

// Role identifies the author of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single entry in a conversation history.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`         // tool name (role=tool)
	ToolCallID string     `json:"tool_call_id,omitempty"` // call answered (role=tool)
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // calls requested (role=assistant)
	Timestamp  time.Time  `json:"timestamp"`
}

// ToolCall is a model request to run a local tool.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON object
}

// Conversation is the ordered history for one user.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
}
