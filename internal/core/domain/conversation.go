package domain

import "time"

// DefaultConversationTitle is used when a title cannot be generated
const DefaultConversationTitle = "New Conversation"

// Conversation is a user's chat thread with one persona
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ModelID   string    `json:"model_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoredMessage is a persisted chat turn
type StoredMessage struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	Seq            int    `json:"seq"`
	ChatMessage
}

// ToChatMessages strips persistence fields, keeping order
func ToChatMessages(stored []*StoredMessage) []ChatMessage {
	msgs := make([]ChatMessage, 0, len(stored))
	for _, m := range stored {
		msgs = append(msgs, m.ChatMessage)
	}
	return msgs
}
