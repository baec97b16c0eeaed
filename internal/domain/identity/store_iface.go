package identity

import (
	"context"
	"time"
)

type StoreAPI interface {
	CreateUser(ctx context.Context, email, fullName, role, phone, passwordHash string) (string, error)
	UserByEmail(ctx context.Context, email string) (*UserRecord, error)
	UserByID(ctx context.Context, id string) (*UserRecord, error)
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error
	DeleteUser(ctx context.Context, userID string) error

	CreateReset(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	// ConsumeReset atomically marks an unused, unexpired reset token as used
	// and returns the owning user. A token can be consumed exactly once.
	ConsumeReset(ctx context.Context, tokenHash string) (string, error)

	CreateSession(ctx context.Context, userID, tokenHash string, expiresAt time.Time) (string, error)
	RevokeSession(ctx context.Context, sessionID string) error
}
