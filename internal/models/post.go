package models

import "time"

// Post is the record at posts/{postId}. Likes and Comments are derived
// counters that must equal the sizes of LikedBy and CommentsData; the store
// enforces nothing, the fan-out writer keeps them in sync.
type Post struct {
	UserID       string             `json:"userId"`
	Caption      string             `json:"caption"`
	ImageURL     string             `json:"imageUrl,omitempty"` // data URI after resize/compress
	Likes        int                `json:"likes"`
	LikedBy      map[string]bool    `json:"likedBy,omitempty"`
	Comments     int                `json:"comments"`
	CommentsData map[string]Comment `json:"commentsData,omitempty"`
	Timestamp    time.Time          `json:"timestamp"`
}

// CreatePostRequest defines the request body for creating a new post.
// Image is the raw source file, base64-encoded on the wire.
type CreatePostRequest struct {
	Caption string `json:"caption" validate:"max=2200"`
	Image   []byte `json:"image" validate:"required"`
}
