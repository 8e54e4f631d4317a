package conversation

import "time"

// DefaultSessionID is used when a client does not supply its own session id.
// Anonymous clients sharing it also share one conversation.
const DefaultSessionID = "default"

// Roles for conversation turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message exchange unit tagged with its speaker role.
type Turn struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
