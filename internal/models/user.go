package models

import "time"

// User is the record at users/{uid}. The posts map is a denormalized index
// into the global posts collection, not authoritative content; following and
// followers mirror each other across the two users of every follow edge.
type User struct {
	UID         string          `json:"uid,omitempty"`
	Email       string          `json:"email,omitempty"`
	DisplayName string          `json:"displayName,omitempty"`
	Username    string          `json:"username,omitempty"`
	PhotoURL    string          `json:"photoURL,omitempty"`
	Bio         string          `json:"bio,omitempty"`
	Website     string          `json:"website,omitempty"`
	Location    string          `json:"location,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	LastLogin   time.Time       `json:"lastLogin"`
	Followers   map[string]bool `json:"followers,omitempty"`
	Following   map[string]bool `json:"following,omitempty"`
	Posts       map[string]bool `json:"posts,omitempty"`
}

// UserCompact is the author info attached to feed entries and chats.
type UserCompact struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Username    string `json:"username"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// ToCompact strips a user down to display fields.
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		UID:         u.UID,
		DisplayName: u.DisplayName,
		Username:    u.Username,
		PhotoURL:    u.PhotoURL,
	}
}

// UpdateProfileRequest defines the request body for updating a profile
type UpdateProfileRequest struct {
	DisplayName string `json:"displayName,omitempty" validate:"omitempty,min=1,max=50"`
	Username    string `json:"username,omitempty" validate:"omitempty,min=2,max=30,alphanum"`
	Bio         string `json:"bio,omitempty" validate:"omitempty,max=160"`
	Website     string `json:"website,omitempty" validate:"omitempty,url"`
	Location    string `json:"location,omitempty" validate:"omitempty,max=60"`
	PhotoURL    string `json:"photoURL,omitempty" validate:"omitempty"`
}
