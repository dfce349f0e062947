package models

import "time"

// Comment is nested under posts/{postId}/commentsData/{commentId}.
type Comment struct {
	UserID    string    `json:"userId"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// CreateCommentRequest defines the request body for creating a comment
type CreateCommentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=500"`
}
