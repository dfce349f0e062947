package models

import "time"

// Message is the record at messages/{chatId}/{msgId}. Read is a per-user
// map; the sender's entry is set at write time, recipients' entries when
// their chat view observes the message.
type Message struct {
	ChatID    string          `json:"chatId"`
	SenderID  string          `json:"senderId"`
	Content   string          `json:"content"`
	Timestamp time.Time       `json:"timestamp"`
	Read      map[string]bool `json:"read,omitempty"`
}

// SendMessageRequest defines the request body for sending a chat message
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}
