package identity

import "time"

// UserRecord is the credential-bearing view of a user. PasswordHash never
// leaves this package.
type UserRecord struct {
	ID           string
	Email        string
	FullName     string
	Role         string
	Phone        string
	AvatarURL    string
	PasswordHash string
}

// Session is what a successful sign-in returns to the transports.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Role      string    `json:"role"`
}
