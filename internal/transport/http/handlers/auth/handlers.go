package authhandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cyberhr/internal/domain/identity"
	"cyberhr/internal/transport/http/api"
	"cyberhr/internal/transport/http/middleware"
	"cyberhr/internal/transport/http/shared"
)

type Handler struct {
	Identity *identity.Service
}

func NewHandler(ids *identity.Service) *Handler {
	return &Handler{Identity: ids}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.handleLogin)
		r.Post("/password-reset", h.handleRequestReset)
		r.Post("/update-password", h.handleUpdatePassword)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/logout", h.handleLogout)
			r.Get("/me", h.handleMe)
		})
	})
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload loginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	v.Required("password", payload.Password, "password is required")
	if v.Reject(w, requestID) {
		return
	}

	session, err := h.Identity.SignIn(r.Context(), payload.Email, payload.Password)
	if errors.Is(err, identity.ErrInvalidCredentials) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to sign in", requestID)
		return
	}
	api.Success(w, session, requestID)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	if err := h.Identity.SignOut(r.Context(), user.SessionID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "logout_failed", "failed to sign out", requestID)
		return
	}
	api.Success(w, map[string]bool{"ok": true}, requestID)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	record, err := h.Identity.UserByID(r.Context(), user.UserID)
	if errors.Is(err, identity.ErrUserNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "me_failed", "failed to load profile", requestID)
		return
	}
	api.Success(w, map[string]string{
		"id":        record.ID,
		"email":     record.Email,
		"fullName":  record.FullName,
		"role":      record.Role,
		"phone":     record.Phone,
		"avatarUrl": record.AvatarURL,
	}, requestID)
}

type resetPayload struct {
	Email string `json:"email"`
}

func (h *Handler) handleRequestReset(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload resetPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	if v.Reject(w, requestID) {
		return
	}

	if err := h.Identity.RequestPasswordReset(r.Context(), payload.Email); err != nil {
		api.Fail(w, http.StatusInternalServerError, "reset_failed", "failed to request password reset", requestID)
		return
	}
	api.Success(w, map[string]string{
		"message": "Si el correo existe, enviamos un enlace para restablecer la contraseña.",
	}, requestID)
}

type updatePasswordPayload struct {
	Code     string `json:"code"`
	Password string `json:"password"`
}

func (h *Handler) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload updatePasswordPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	v.Required("code", payload.Code, "code is required")
	v.Required("password", payload.Password, "password is required")
	if v.Reject(w, requestID) {
		return
	}

	err := h.Identity.UpdatePassword(r.Context(), payload.Code, payload.Password)
	switch {
	case errors.Is(err, identity.ErrWeakPassword):
		api.Fail(w, http.StatusBadRequest, "weak_password", err.Error(), requestID)
		return
	case errors.Is(err, identity.ErrInvalidResetCode):
		api.Fail(w, http.StatusBadRequest, "invalid_code", "recovery code is invalid or has expired", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to update password", requestID)
		return
	}
	api.Success(w, map[string]any{"ok": true, "message": "Contraseña actualizada"}, requestID)
}

// HandleCompatUpdatePassword serves the legacy POST /api/auth/update-password
// endpoint, which responds with a bare {ok, message} object instead of the
// envelope.
func (h *Handler) HandleCompatUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var payload updatePasswordPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Code == "" || payload.Password == "" {
		writeCompat(w, http.StatusBadRequest, false, "Solicitud inválida")
		return
	}

	err := h.Identity.UpdatePassword(r.Context(), payload.Code, payload.Password)
	switch {
	case errors.Is(err, identity.ErrInvalidResetCode):
		writeCompat(w, http.StatusBadRequest, false, "El código es inválido o expiró")
	case errors.Is(err, identity.ErrWeakPassword):
		writeCompat(w, http.StatusBadRequest, false, "La contraseña no cumple los requisitos")
	case err != nil:
		writeCompat(w, http.StatusInternalServerError, false, "No se pudo actualizar la contraseña")
	default:
		writeCompat(w, http.StatusOK, true, "Contraseña actualizada")
	}
}

func writeCompat(w http.ResponseWriter, status int, ok bool, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": ok, "message": message})
}
