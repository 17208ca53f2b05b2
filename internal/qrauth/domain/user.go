package domain

import "time"

// User is a user-center account. Ids are numeric and assigned by the
// companion platform.
type User struct {
	ID        int64
	Nickname  string
	AvatarURL string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
