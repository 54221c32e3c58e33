package model

import "time"

// ChatTurn is one entry of a conversation history as sent by the client.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatTranscript is a persisted chat message.
type ChatTranscript struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID string    `gorm:"size:64;not null;index" json:"conversation_id"`
	Role           string    `gorm:"size:16;not null" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	Sources        string    `gorm:"type:text" json:"sources"` // comma separated
	RAGEnabled     bool      `json:"rag_enabled"`
	CreatedAt      time.Time `json:"created_at"`
}
