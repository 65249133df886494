package models

// Role is the author of a conversation message
type Role string

const (
	RoleSystem    Role = "system"
	RoleDeveloper Role = "developer"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role/content pair of a conversation
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Document is supplementary text attached to a chat turn. Documents are
// prepended to the history as system-role messages.
type Document struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// LastUserMessage returns the content of the latest user message, or "" if none
func LastUserMessage(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
