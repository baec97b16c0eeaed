package identity

import "errors"

var (
	ErrEmailRegistered    = errors.New("a user with that email address already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidResetCode   = errors.New("recovery code is invalid or has expired")
	ErrUserNotFound       = errors.New("user not found")
	ErrWeakPassword       = errors.New("password does not meet the policy")
)
