package models

import "time"

// Chat is the record at userChats/{chatId}. Exactly one chat exists per
// unordered pair of participants, checked by linear scan at creation time.
type Chat struct {
	Participants         map[string]bool `json:"participants"`
	LastMessage          string          `json:"lastMessage,omitempty"`
	LastMessageTimestamp time.Time       `json:"lastMessageTimestamp"`
	LastMessageSender    string          `json:"lastMessageSender,omitempty"`
	UnreadCount          map[string]int  `json:"unreadCount,omitempty"`
}

// HasParticipant reports whether uid is in the chat.
func (c *Chat) HasParticipant(uid string) bool {
	return c.Participants[uid]
}

// CreateChatRequest defines the request body for opening a chat with a user
type CreateChatRequest struct {
	UserID string `json:"userId" validate:"required"`
}
