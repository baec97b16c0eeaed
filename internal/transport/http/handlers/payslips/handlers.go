package payslipshandler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cyberhr/internal/domain/auth"
	"cyberhr/internal/domain/payroll"
	"cyberhr/internal/transport/http/api"
	"cyberhr/internal/transport/http/middleware"
	"cyberhr/internal/transport/http/shared"
)

type Handler struct {
	Service *payroll.Service
}

func NewHandler(service *payroll.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payslips", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.With(middleware.RequireRole(auth.RoleEmployer, auth.RoleAdmin)).Post("/", h.handleUpload)
		r.With(middleware.RequireRole(auth.RoleEmployer, auth.RoleAdmin)).Post("/generate", h.handleGenerate)
		r.Get("/{payslipID}", h.handleGet)
		r.Post("/{payslipID}/sign", h.handleSign)
	})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	if err := r.ParseMultipartForm(payroll.MaxPDFBytes); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid multipart payload", requestID)
		return
	}
	year, _ := strconv.Atoi(r.FormValue("year"))
	month, _ := strconv.Atoi(r.FormValue("month"))

	v := shared.NewValidator()
	v.Required("employeeId", r.FormValue("employeeId"), "employeeId is required")
	if year == 0 {
		v.Add("year", "year is required")
	}
	if month == 0 {
		v.Add("month", "month is required")
	}
	if v.Reject(w, requestID) {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "file field is required", requestID)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, payroll.MaxPDFBytes+1))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "upload_failed", "failed to read payslip", requestID)
		return
	}

	payslip, err := h.Service.Upload(r.Context(), user.Actor(), payroll.UploadInput{
		EmployeeID:  r.FormValue("employeeId"),
		Year:        year,
		Month:       month,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		writePayrollError(w, err, requestID)
		return
	}
	api.Created(w, payslip, requestID)
}

type generatePayload struct {
	EmployeeID string `json:"employeeId"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload generatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "employeeId is required")
	if payload.Year == 0 {
		v.Add("year", "year is required")
	}
	if payload.Month == 0 {
		v.Add("month", "month is required")
	}
	if v.Reject(w, requestID) {
		return
	}

	payslip, err := h.Service.Generate(r.Context(), user.Actor(), payload.EmployeeID, payload.Year, payload.Month)
	if err != nil {
		writePayrollError(w, err, requestID)
		return
	}
	api.Created(w, payslip, requestID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	payslips, total, err := h.Service.List(r.Context(), user.Actor(), r.URL.Query().Get("employeeId"), year, limit, offset)
	if err != nil {
		writePayrollError(w, err, requestID)
		return
	}
	api.Success(w, map[string]any{"items": payslips, "total": total}, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	payslip, err := h.Service.Get(r.Context(), user.Actor(), chi.URLParam(r, "payslipID"))
	if err != nil {
		writePayrollError(w, err, requestID)
		return
	}
	api.Success(w, payslip, requestID)
}

func (h *Handler) handleSign(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	payslip, err := h.Service.Sign(r.Context(), user.Actor(), chi.URLParam(r, "payslipID"))
	if err != nil {
		writePayrollError(w, err, requestID)
		return
	}
	api.Success(w, payslip, requestID)
}

type compatSignPayload struct {
	PayslipID string `json:"payslip_id"`
}

// HandleCompatSign serves the legacy POST /api/payslips/firmar endpoint,
// which takes {payslip_id} and answers a bare {ok, message} object.
func (h *Handler) HandleCompatSign(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		writeCompat(w, http.StatusUnauthorized, false, "No autenticado")
		return
	}

	var payload compatSignPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.PayslipID == "" {
		writeCompat(w, http.StatusBadRequest, false, "Falta payslip_id")
		return
	}

	_, err := h.Service.Sign(r.Context(), user.Actor(), payload.PayslipID)
	switch {
	case errors.Is(err, payroll.ErrNotFound):
		writeCompat(w, http.StatusNotFound, false, "Recibo no encontrado")
	case errors.Is(err, payroll.ErrForbidden):
		writeCompat(w, http.StatusForbidden, false, "No autorizado")
	case err != nil:
		writeCompat(w, http.StatusInternalServerError, false, "Error al firmar el recibo")
	default:
		writeCompat(w, http.StatusOK, true, "Recibo firmado")
	}
}

func writeCompat(w http.ResponseWriter, status int, ok bool, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": ok, "message": message})
}

func writePayrollError(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, payroll.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	case errors.Is(err, payroll.ErrNotFound), errors.Is(err, payroll.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, payroll.ErrInvalidPeriod), errors.Is(err, payroll.ErrNotPDF), errors.Is(err, payroll.ErrTooLarge):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "request failed", requestID)
	}
}
