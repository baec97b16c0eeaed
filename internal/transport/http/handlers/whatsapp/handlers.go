package whatsapphandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cyberhr/internal/domain/auth"
	"cyberhr/internal/domain/leave"
	"cyberhr/internal/domain/whatsapp"
	"cyberhr/internal/transport/http/api"
	"cyberhr/internal/transport/http/middleware"
	"cyberhr/internal/transport/http/shared"
)

type Handler struct {
	Service      *whatsapp.Service
	WebhookToken string
}

func NewHandler(service *whatsapp.Service, webhookToken string) *Handler {
	return &Handler{Service: service, WebhookToken: webhookToken}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/whatsapp", func(r chi.Router) {
		r.Post("/webhook", h.handleWebhook)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.RequireRole(auth.RoleEmployer, auth.RoleAdmin))
			r.Get("/conversations", h.handleListConversations)
			r.Get("/conversations/{phone}", h.handleHistory)
		})
	})
}

type webhookPayload struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// handleWebhook receives inbound messages from the gateway. It is not a
// user-facing endpoint, so it authenticates with a shared token instead of
// a session.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	if h.WebhookToken == "" || r.Header.Get("X-Webhook-Token") != h.WebhookToken {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "invalid webhook token", requestID)
		return
	}

	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	v.Required("from", payload.From, "from is required")
	v.Required("message", payload.Message, "message is required")
	if v.Reject(w, requestID) {
		return
	}

	reply, err := h.Service.Ingest(r.Context(), payload.From, payload.Message)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "ingest_failed", "failed to process message", requestID)
		return
	}
	api.Success(w, map[string]string{"reply": reply}, requestID)
}

func (h *Handler) handleListConversations(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	messages, total, err := h.Service.ListConversations(r.Context(), user.Actor(), limit, offset)
	if errors.Is(err, leave.ErrForbidden) {
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient role", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "conversations_failed", "failed to list conversations", requestID)
		return
	}
	api.Success(w, map[string]any{"items": messages, "total": total}, requestID)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	messages, err := h.Service.History(r.Context(), chi.URLParam(r, "phone"), limit)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "history_failed", "failed to load conversation", requestID)
		return
	}
	api.Success(w, messages, requestID)
}
