package models

import "time"

// User is owned by the identity subsystem; this service only reads it.
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// PublicUser is the safe projection of User for API responses.
type PublicUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Online      bool   `json:"online"`
}

// ToPublic converts User to PublicUser.
func (u *User) ToPublic() PublicUser {
	return PublicUser{
		ID:          u.ID,
		DisplayName: u.DisplayName,
	}
}
