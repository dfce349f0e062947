package models

import "time"

// StoryTTL is how long a story stays visible. Expiry is filter-time only;
// expired stories persist physically and are never deleted.
const StoryTTL = 24 * time.Hour

// Story is the record at stories/{uid}/{storyId}.
type Story struct {
	ImageURL  string          `json:"imageUrl"`
	Timestamp time.Time       `json:"timestamp"`
	ViewedBy  map[string]bool `json:"viewedBy,omitempty"`
}

// Expired reports whether the story is past its TTL relative to cutoff
// (cutoff is now-StoryTTL, computed once per assembly).
func (s *Story) Expired(cutoff time.Time) bool {
	return !s.Timestamp.After(cutoff)
}

// CreateStoryRequest defines the request body for creating a story.
type CreateStoryRequest struct {
	Image []byte `json:"image" validate:"required"`
}
