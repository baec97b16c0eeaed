package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html"
	"log/slog"
	"time"

	"cyberhr/internal/domain/auth"
	"cyberhr/internal/domain/notifications"
)

const (
	sessionTTL = 24 * time.Hour
	resetTTL   = time.Hour
)

type Service struct {
	store     StoreAPI
	mailer    notifications.Mailer
	jwtSecret string
	from      string
	baseURL   string

	newToken func() string
}

func NewService(store StoreAPI, mailer notifications.Mailer, jwtSecret, from, baseURL string) *Service {
	return &Service{
		store:     store,
		mailer:    mailer,
		jwtSecret: jwtSecret,
		from:      from,
		baseURL:   baseURL,
		newToken:  randomToken,
	}
}

func randomToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("identity: read random: %v", err))
	}
	return hex.EncodeToString(buf)
}

// SignUp creates a credentialed account. Callers are expected to have
// validated the password against the policy already; this re-checks so a
// weak password can never slip in through a new call site.
func (s *Service) SignUp(ctx context.Context, email, password, fullName, role, phone string) (*UserRecord, error) {
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	id, err := s.store.CreateUser(ctx, email, fullName, role, phone, hash)
	if err != nil {
		return nil, err
	}
	return s.store.UserByID(ctx, id)
}

// SignIn verifies credentials and mints a session token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	raw := s.newToken()
	expiresAt := time.Now().Add(sessionTTL)
	sessionID, err := s.store.CreateSession(ctx, user.ID, auth.HashToken(raw), expiresAt)
	if err != nil {
		return nil, err
	}

	token, err := auth.GenerateToken(s.jwtSecret, auth.Claims{
		UserID:    user.ID,
		Role:      user.Role,
		SessionID: sessionID,
	}, sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &Session{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role,
	}, nil
}

func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.store.RevokeSession(ctx, sessionID)
}

// RequestPasswordReset issues a one-hour recovery code and mails a link to
// the account. It reports success for unknown emails too, so the endpoint
// cannot be used to probe which addresses exist.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		slog.Info("password reset requested for unknown email")
		return nil
	}

	code := s.newToken()
	if err := s.store.CreateReset(ctx, user.ID, auth.HashToken(code), time.Now().Add(resetTTL)); err != nil {
		return err
	}

	if s.mailer != nil {
		link := fmt.Sprintf("%s/update-password?code=%s", s.baseURL, code)
		body := renderResetEmail(user.FullName, link)
		if err := s.mailer.Send(ctx, s.from, user.Email, "Restablecer contraseña", body); err != nil {
			slog.Warn("password reset email failed", "userId", user.ID, "error", err)
		}
	}
	return nil
}

// UpdatePassword exchanges a recovery code for a new password. The code is
// consumed atomically, so replaying it fails even under concurrent attempts.
func (s *Service) UpdatePassword(ctx context.Context, code, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	userID, err := s.store.ConsumeReset(ctx, auth.HashToken(code))
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.store.UpdatePasswordHash(ctx, userID, hash)
}

// DeleteUser removes an account and everything cascading from it. Used by
// provisioning to compensate a failed employee creation.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	return s.store.DeleteUser(ctx, userID)
}

func (s *Service) UserByID(ctx context.Context, userID string) (*UserRecord, error) {
	return s.store.UserByID(ctx, userID)
}

func renderResetEmail(name, link string) string {
	greeting := "Hola"
	if name != "" {
		greeting = "Hola " + html.EscapeString(name)
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="es">
<body style="font-family: Arial, sans-serif; background-color: #f4f4f7; padding: 24px;">
  <div style="max-width: 560px; margin: 0 auto; background: #ffffff; border-radius: 8px; padding: 32px;">
    <h2 style="color: #1a1a2e; margin-top: 0;">Restablecer contrase&ntilde;a</h2>
    <p style="color: #444;">%s,</p>
    <p style="color: #444;">Recibimos una solicitud para restablecer tu contrase&ntilde;a.
      El enlace es v&aacute;lido durante una hora.</p>
    <p><a href="%s" style="background: #1a73e8; color: #fff; padding: 12px 24px; border-radius: 4px; text-decoration: none;">Elegir nueva contrase&ntilde;a</a></p>
    <p style="color: #999; font-size: 12px; margin-top: 32px;">
      Si no solicitaste este cambio, ignora este correo.
    </p>
  </div>
</body>
</html>`, greeting, html.EscapeString(link))
}
