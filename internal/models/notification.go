package models

import "time"

// Notification types.
const (
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationFollow  = "follow"
	NotificationMessage = "message"
)

// Notification is the record at notifications/{uid}/{notifId}. Dispatch is
// fire-and-forget and never targets the sender themselves.
type Notification struct {
	Type      string    `json:"type"`
	SenderID  string    `json:"senderId"`
	PostID    string    `json:"postId,omitempty"`
	CommentID string    `json:"commentId,omitempty"`
	ChatID    string    `json:"chatId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}
