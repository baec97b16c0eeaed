package leavehandler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cyberhr/internal/domain/auth"
	"cyberhr/internal/domain/leave"
	"cyberhr/internal/transport/http/api"
	"cyberhr/internal/transport/http/middleware"
	"cyberhr/internal/transport/http/shared"
)

const maxCertificateBytes = 5 * 1024 * 1024

type Handler struct {
	Service *leave.Service
}

func NewHandler(service *leave.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/types", h.handleListTypes)
		r.Get("/requests", h.handleList)
		r.Post("/requests", h.handleSubmit)
		r.Get("/requests/{requestID}", h.handleGet)
		r.With(middleware.RequireRole(auth.RoleEmployer, auth.RoleAdmin)).Post("/requests/{requestID}/approve", h.handleApprove)
		r.With(middleware.RequireRole(auth.RoleEmployer, auth.RoleAdmin)).Post("/requests/{requestID}/reject", h.handleReject)
		r.Post("/requests/{requestID}/cancel", h.handleCancel)
		r.Post("/requests/{requestID}/certificate", h.handleAttachCertificate)
		r.Delete("/requests/{requestID}/certificate", h.handleRemoveCertificate)
	})
}

func (h *Handler) handleListTypes(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	types, err := h.Service.ListTypes(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_types_failed", "failed to list leave types", requestID)
		return
	}
	api.Success(w, types, requestID)
}

type submitPayload struct {
	EmployeeID  string `json:"employeeId"`
	LeaveTypeID string `json:"leaveTypeId"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Reason      string `json:"reason"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload submitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	v.Required("leaveTypeId", payload.LeaveTypeID, "leaveTypeId is required")
	v.Required("startDate", payload.StartDate, "startDate is required")
	v.Required("endDate", payload.EndDate, "endDate is required")
	start, _ := v.Date("startDate", payload.StartDate)
	end, _ := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", start, "endDate", end)
	if v.Reject(w, requestID) {
		return
	}

	request, err := h.Service.Submit(r.Context(), user.Actor(), leave.SubmitInput{
		EmployeeID:  payload.EmployeeID,
		LeaveTypeID: payload.LeaveTypeID,
		StartDate:   start,
		EndDate:     end,
		Reason:      payload.Reason,
	})
	if err != nil {
		writeLeaveError(w, err, requestID)
		return
	}
	api.Created(w, request, requestID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	requests, total, err := h.Service.List(r.Context(), user.Actor(), r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		writeLeaveError(w, err, requestID)
		return
	}
	api.Success(w, map[string]any{"items": requests, "total": total}, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	request, err := h.Service.Get(r.Context(), user.Actor(), chi.URLParam(r, "requestID"))
	if err != nil {
		writeLeaveError(w, err, requestID)
		return
	}
	api.Success(w, request, requestID)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	request, err := h.Service.Approve(r.Context(), user.Actor(), chi.URLParam(r, "requestID"))
	if err != nil {
		writeLeaveError(w, err, requestID)
		return
	}
	api.Success(w, request, requestID)
}

type rejectPayload struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload rejectPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	request, err := h.Service.Reject(r.Context(), user.Actor(), chi.URLParam(r, "requestID"), payload.Reason)
	if err != nil {
		writeLeaveError(w, err, requestID)
		return
	}
	api.Success(w, request, requestID)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	request, err := h.Service.Cancel(r.Context(), user.Actor(), chi.URLParam(r, "requestID"))
	if err != nil {
		writeLeaveError(w, err, requestID)
		return
	}
	api.Success(w, request, requestID)
}

func (h *Handler) handleAttachCertificate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	if err := r.ParseMultipartForm(maxCertificateBytes); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid multipart payload", requestID)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "file field is required", requestID)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType != "application/pdf" && contentType != "image/png" && contentType != "image/jpeg" {
		api.Fail(w, http.StatusBadRequest, "invalid_file", "certificate must be a PDF, PNG or JPEG", requestID)
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, maxCertificateBytes+1))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "certificate_failed", "failed to read certificate", requestID)
		return
	}
	if len(data) > maxCertificateBytes {
		api.Fail(w, http.StatusBadRequest, "invalid_file", "certificate exceeds the 5 MiB limit", requestID)
		return
	}

	url, err := h.Service.AttachCertificate(r.Context(), user.Actor(), chi.URLParam(r, "requestID"), leave.CertificateUpload{
		FileName:    header.Filename,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		writeLeaveError(w, err, requestID)
		return
	}
	api.Success(w, map[string]string{"certificateUrl": url}, requestID)
}

func (h *Handler) handleRemoveCertificate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	if err := h.Service.RemoveCertificate(r.Context(), user.Actor(), chi.URLParam(r, "requestID")); err != nil {
		writeLeaveError(w, err, requestID)
		return
	}
	api.Success(w, map[string]bool{"ok": true}, requestID)
}

func writeLeaveError(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, leave.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	case errors.Is(err, leave.ErrNotFound), errors.Is(err, leave.ErrTypeNotFound), errors.Is(err, leave.ErrNoCertificate):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, leave.ErrNotPending), errors.Is(err, leave.ErrNotCancellable), errors.Is(err, leave.ErrNotApproved):
		api.Fail(w, http.StatusConflict, "invalid_state", err.Error(), requestID)
	case errors.Is(err, leave.ErrInvalidRange), errors.Is(err, leave.ErrReasonRequired), errors.Is(err, leave.ErrNoEmployee):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "request failed", requestID)
	}
}
