package notifications

import (
	"context"
	"fmt"
	"html"
	"log/slog"
)

// Mailer sends HTML mail. Implementations must be safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, from, to, subject, htmlBody string) error
}

type Service struct {
	store  StoreAPI
	mailer Mailer
	from   string
}

func NewService(store StoreAPI, mailer Mailer, from string) *Service {
	return &Service{store: store, mailer: mailer, from: from}
}

// Notify records an in-app notification and mirrors it over email. The
// in-app row is the source of truth; a failed email is logged and dropped.
func (s *Service) Notify(ctx context.Context, userID, kind, title, message string) error {
	n := &Notification{UserID: userID, Title: title, Message: message, Kind: kind}
	id, err := s.store.Insert(ctx, n)
	if err != nil {
		return err
	}
	n.ID = id

	if s.mailer != nil {
		if err := s.sendEmail(ctx, userID, title, message); err != nil {
			slog.Warn("notification email failed", "userId", userID, "kind", kind, "error", err)
		}
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]Notification, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListByUser(ctx, userID, unreadOnly, limit, offset)
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	updated, err := s.store.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	if !updated {
		return ErrNotFound
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return s.store.MarkAllRead(ctx, userID)
}

func (s *Service) sendEmail(ctx context.Context, userID, title, message string) error {
	to, name, err := s.store.RecipientEmail(ctx, userID)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, s.from, to, title, renderEmail(name, title, message))
}

// renderEmail produces the notification email body. Content is Spanish
// because that is the language the workforce uses.
func renderEmail(name, title, message string) string {
	greeting := "Hola"
	if name != "" {
		greeting = fmt.Sprintf("Hola %s", html.EscapeString(name))
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="es">
<body style="font-family: Arial, sans-serif; background-color: #f4f4f7; padding: 24px;">
  <div style="max-width: 560px; margin: 0 auto; background: #ffffff; border-radius: 8px; padding: 32px;">
    <h2 style="color: #1a1a2e; margin-top: 0;">%s</h2>
    <p style="color: #444;">%s,</p>
    <p style="color: #444;">%s</p>
    <p style="color: #999; font-size: 12px; margin-top: 32px;">
      Este es un mensaje autom&aacute;tico del portal de RRHH. No respondas a este correo.
    </p>
  </div>
</body>
</html>`, html.EscapeString(title), greeting, html.EscapeString(message))
}
