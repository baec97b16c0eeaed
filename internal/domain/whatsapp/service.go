package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cyberhr/internal/domain/auth"
	"cyberhr/internal/domain/leave"
)

// LeaveAPI is the slice of the leave service the bot drives.
type LeaveAPI interface {
	Submit(ctx context.Context, actor auth.Actor, in leave.SubmitInput) (*leave.RequestDetail, error)
	List(ctx context.Context, actor auth.Actor, status string, limit, offset int) ([]leave.RequestDetail, int, error)
	ListTypes(ctx context.Context) ([]leave.LeaveType, error)
}

type Service struct {
	store  StoreAPI
	leaves LeaveAPI
}

func NewService(store StoreAPI, leaves LeaveAPI) *Service {
	return &Service{store: store, leaves: leaves}
}

const helpText = "Puedo ayudarte con tus licencias. Escribe por ejemplo:\n" +
	"• licencia vacaciones 2024-05-01 2024-05-03 viaje familiar\n" +
	"• estado (para consultar tus solicitudes)"

var statusLabels = map[string]string{
	leave.StatusPending:   "pendiente",
	leave.StatusApproved:  "aprobada",
	leave.StatusRejected:  "rechazada",
	leave.StatusCancelled: "cancelada",
}

// Ingest handles one inbound message and returns the reply to send back.
// Both directions are logged; the inbound row is written even when the
// sender cannot be matched to an account.
func (s *Service) Ingest(ctx context.Context, phone, body string) (string, error) {
	parsed := Parse(body)
	userID, name, lookupErr := s.store.UserByPhone(ctx, phone)

	s.log(ctx, &Message{Phone: phone, UserID: userID, Direction: DirectionIn, Body: body, Intent: parsed.Intent})

	var reply string
	switch {
	case errors.Is(lookupErr, ErrUnknownPhone):
		reply = "No encontramos una cuenta asociada a este número. Contacta a RRHH para registrar tu teléfono."
	case lookupErr != nil:
		slog.Error("whatsapp phone lookup failed", "phone", phone, "error", lookupErr)
		reply = "No pudimos procesar tu mensaje en este momento. Intenta de nuevo más tarde."
	case parsed.Intent == IntentGreeting:
		reply = fmt.Sprintf("Hola %s. %s", firstName(name), helpText)
	case parsed.Intent == IntentStatus:
		reply = s.statusReply(ctx, userID)
	case parsed.Intent == IntentRequestLeave:
		reply = s.leaveReply(ctx, userID, parsed)
	default:
		reply = helpText
	}

	s.log(ctx, &Message{Phone: phone, UserID: userID, Direction: DirectionOut, Body: reply, Intent: parsed.Intent})
	return reply, nil
}

func (s *Service) History(ctx context.Context, phone string, limit int) ([]Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.History(ctx, phone, limit)
}

func (s *Service) ListConversations(ctx context.Context, actor auth.Actor, limit, offset int) ([]Message, int, error) {
	if actor.Capability() != auth.Privileged {
		return nil, 0, leave.ErrForbidden
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListConversations(ctx, limit, offset)
}

func (s *Service) leaveReply(ctx context.Context, userID string, parsed Parsed) string {
	if parsed.StartDate.IsZero() {
		return "Necesito las fechas de tu licencia. Ejemplo: licencia vacaciones 2024-05-01 2024-05-03"
	}
	leaveType, err := s.resolveType(ctx, parsed.LeaveKind)
	if err != nil {
		return err.Error()
	}

	actor := auth.Actor{UserID: userID, Role: auth.RoleEmployee}
	req, err := s.leaves.Submit(ctx, actor, leave.SubmitInput{
		LeaveTypeID: leaveType.ID,
		StartDate:   parsed.StartDate,
		EndDate:     parsed.EndDate,
		Reason:      parsed.Reason,
	})
	switch {
	case errors.Is(err, leave.ErrInvalidRange):
		return "La fecha de fin no puede ser anterior a la de inicio."
	case errors.Is(err, leave.ErrNoEmployee):
		return "Tu cuenta no tiene un legajo asociado. Contacta a RRHH."
	case err != nil:
		slog.Error("whatsapp leave submit failed", "userId", userID, "error", err)
		return "No pudimos registrar tu solicitud. Intenta de nuevo más tarde."
	}
	return fmt.Sprintf("Listo. Registramos tu solicitud de %s del %s al %s (%d días). Te avisaremos cuando sea revisada.",
		leaveType.Name, req.StartDate.Format("02/01/2006"), req.EndDate.Format("02/01/2006"), req.DaysRequested)
}

func (s *Service) resolveType(ctx context.Context, kind string) (*leave.LeaveType, error) {
	types, err := s.leaves.ListTypes(ctx)
	if err != nil {
		return nil, errors.New("No pudimos consultar los tipos de licencia. Intenta de nuevo más tarde.")
	}
	if kind == "" {
		names := make([]string, len(types))
		for i, t := range types {
			names[i] = t.Name
		}
		return nil, fmt.Errorf("¿Qué tipo de licencia necesitas? Opciones: %s", strings.Join(names, ", "))
	}
	for i, t := range types {
		if strings.EqualFold(t.Name, kind) {
			return &types[i], nil
		}
	}
	return nil, fmt.Errorf("No reconozco el tipo de licencia %q.", kind)
}

func (s *Service) statusReply(ctx context.Context, userID string) string {
	actor := auth.Actor{UserID: userID, Role: auth.RoleEmployee}
	requests, _, err := s.leaves.List(ctx, actor, "", 3, 0)
	if err != nil || len(requests) == 0 {
		return "No tienes solicitudes de licencia registradas."
	}
	var b strings.Builder
	b.WriteString("Tus últimas solicitudes:\n")
	for _, r := range requests {
		fmt.Fprintf(&b, "• %s %s-%s: %s\n",
			r.LeaveTypeName, r.StartDate.Format("02/01"), r.EndDate.Format("02/01"), statusLabels[r.Status])
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Service) log(ctx context.Context, m *Message) {
	if _, err := s.store.LogMessage(ctx, m); err != nil {
		slog.Warn("whatsapp log failed", "direction", m.Direction, "error", err)
	}
}

func firstName(full string) string {
	if i := strings.IndexByte(full, ' '); i > 0 {
		return full[:i]
	}
	return full
}
