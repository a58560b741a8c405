package users

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProfileUpdate carries the optional fields of a profile patch; nil
// means "leave unchanged".
type ProfileUpdate struct {
	Name         *string
	PasswordHash *string
}
