package domain

import "time"

// Profile is the display read-model of a user. Identity and session
// issuance live outside the relay; only the id is authoritative here.
type Profile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	AvatarRef   string    `json:"avatarRef,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SidebarEntry is a Profile augmented with the timestamp of the last
// message exchanged with the viewing user, nil when no conversation
// exists yet.
type SidebarEntry struct {
	Profile
	LastMessageAt *time.Time `json:"lastMessageTimestamp"`
}
