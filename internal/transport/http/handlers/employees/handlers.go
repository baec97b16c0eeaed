package employeeshandler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cyberhr/internal/domain/auth"
	"cyberhr/internal/domain/core"
	"cyberhr/internal/domain/identity"
	"cyberhr/internal/domain/provisioning"
	"cyberhr/internal/transport/http/api"
	"cyberhr/internal/transport/http/middleware"
	"cyberhr/internal/transport/http/shared"
)

const maxAvatarBytes = 2 * 1024 * 1024

type Handler struct {
	Core      *core.Service
	Provision *provisioning.Service
}

func NewHandler(coreSvc *core.Service, provisionSvc *provisioning.Service) *Handler {
	return &Handler{Core: coreSvc, Provision: provisionSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.With(middleware.RequireRole(auth.RoleEmployer, auth.RoleAdmin)).Post("/", h.handleProvision)
		r.With(middleware.RequireRole(auth.RoleEmployer, auth.RoleAdmin)).Get("/", h.handleList)
		r.Get("/{employeeID}", h.handleGet)
		r.With(middleware.RequireRole(auth.RoleEmployer, auth.RoleAdmin)).Put("/{employeeID}", h.handleUpdate)
		r.With(middleware.RequireRole(auth.RoleEmployer, auth.RoleAdmin)).Delete("/{employeeID}", h.handleDelete)
	})
	r.Route("/me", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/profile", h.handleProfile)
		r.Put("/profile", h.handleUpdateProfile)
		r.Get("/employee", h.handleOwnEmployee)
		r.Post("/avatar", h.handleUploadAvatar)
	})
}

type provisionPayload struct {
	Email      string   `json:"email"`
	FullName   string   `json:"fullName"`
	Phone      string   `json:"phone"`
	Password   string   `json:"password"`
	EmployeeID string   `json:"employeeId"`
	Department string   `json:"department"`
	Position   string   `json:"position"`
	HireDate   string   `json:"hireDate"`
	Salary     *float64 `json:"salary"`
}

func (h *Handler) handleProvision(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload provisionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	v.Required("fullName", payload.FullName, "fullName is required")
	v.Required("employeeId", payload.EmployeeID, "employeeId is required")
	v.Required("position", payload.Position, "position is required")
	v.Required("hireDate", payload.HireDate, "hireDate is required")
	hireDate, _ := v.Date("hireDate", payload.HireDate)
	if v.Reject(w, requestID) {
		return
	}

	result, err := h.Provision.Provision(r.Context(), user.Actor(), provisioning.Input{
		Email:      payload.Email,
		FullName:   payload.FullName,
		Phone:      payload.Phone,
		Password:   payload.Password,
		EmployeeID: payload.EmployeeID,
		Department: payload.Department,
		Position:   payload.Position,
		HireDate:   hireDate,
		Salary:     payload.Salary,
	})
	switch {
	case errors.Is(err, provisioning.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
		return
	case errors.Is(err, provisioning.ErrInvalidInput):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), requestID)
		return
	case errors.Is(err, identity.ErrEmailRegistered):
		api.Fail(w, http.StatusConflict, "email_registered", "a user with that email already exists", requestID)
		return
	case errors.Is(err, core.ErrEmployeeIDTaken):
		api.Fail(w, http.StatusConflict, "employee_id_taken", "an employee with that id already exists", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "provision_failed", "failed to provision employee", requestID)
		return
	}
	api.Created(w, result, requestID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	employees, total, err := h.Core.ListEmployees(r.Context(), user.Actor(), r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		writeCoreError(w, err, requestID)
		return
	}
	api.Success(w, map[string]any{"items": employees, "total": total}, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	employee, err := h.Core.GetEmployee(r.Context(), user.Actor(), chi.URLParam(r, "employeeID"))
	if err != nil {
		writeCoreError(w, err, requestID)
		return
	}
	api.Success(w, employee, requestID)
}

type updatePayload struct {
	Department            string   `json:"department"`
	Position              string   `json:"position"`
	HireDate              string   `json:"hireDate"`
	Salary                *float64 `json:"salary"`
	Address               string   `json:"address"`
	EmergencyContactName  string   `json:"emergencyContactName"`
	EmergencyContactPhone string   `json:"emergencyContactPhone"`
	Status                string   `json:"status"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload updatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	v.Required("position", payload.Position, "position is required")
	v.Required("hireDate", payload.HireDate, "hireDate is required")
	hireDate, _ := v.Date("hireDate", payload.HireDate)
	v.Enum("status", payload.Status, []string{core.EmployeeActive, core.EmployeeInactive}, "must be active or inactive")
	if v.Reject(w, requestID) {
		return
	}
	if payload.Status == "" {
		payload.Status = core.EmployeeActive
	}

	employee, err := h.Core.UpdateEmployee(r.Context(), user.Actor(), chi.URLParam(r, "employeeID"), core.EmployeeInput{
		Department:            payload.Department,
		Position:              payload.Position,
		HireDate:              hireDate,
		Salary:                payload.Salary,
		Address:               payload.Address,
		EmergencyContactName:  payload.EmergencyContactName,
		EmergencyContactPhone: payload.EmergencyContactPhone,
		Status:                payload.Status,
	})
	if err != nil {
		writeCoreError(w, err, requestID)
		return
	}
	api.Success(w, employee, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	if err := h.Core.DeleteEmployee(r.Context(), user.Actor(), chi.URLParam(r, "employeeID")); err != nil {
		writeCoreError(w, err, requestID)
		return
	}
	api.Success(w, map[string]bool{"ok": true}, requestID)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	profile, err := h.Core.Profile(r.Context(), user.Actor())
	if err != nil {
		writeCoreError(w, err, requestID)
		return
	}
	api.Success(w, profile, requestID)
}

type profilePayload struct {
	Phone                 *string `json:"phone"`
	Address               *string `json:"address"`
	EmergencyContactName  *string `json:"emergencyContactName"`
	EmergencyContactPhone *string `json:"emergencyContactPhone"`
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload profilePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	employee, err := h.Core.UpdateProfile(r.Context(), user.Actor(), core.SelfEditInput{
		Phone:                 payload.Phone,
		Address:               payload.Address,
		EmergencyContactName:  payload.EmergencyContactName,
		EmergencyContactPhone: payload.EmergencyContactPhone,
	})
	if err != nil {
		writeCoreError(w, err, requestID)
		return
	}
	api.Success(w, employee, requestID)
}

func (h *Handler) handleOwnEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	employee, err := h.Core.GetOwnEmployee(r.Context(), user.Actor())
	if err != nil {
		writeCoreError(w, err, requestID)
		return
	}
	api.Success(w, employee, requestID)
}

func (h *Handler) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
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
	if contentType != "image/png" && contentType != "image/jpeg" && contentType != "image/webp" {
		api.Fail(w, http.StatusBadRequest, "invalid_file", "avatar must be a PNG, JPEG or WebP image", requestID)
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes+1))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "avatar_failed", "failed to read avatar", requestID)
		return
	}
	if len(data) > maxAvatarBytes {
		api.Fail(w, http.StatusBadRequest, "invalid_file", "avatar exceeds the 2 MiB limit", requestID)
		return
	}

	url, err := h.Core.UploadAvatar(r.Context(), user.Actor(), header.Filename, contentType, data)
	if err != nil {
		writeCoreError(w, err, requestID)
		return
	}
	api.Success(w, map[string]string{"avatarUrl": url}, requestID)
}

func writeCoreError(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, core.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	case errors.Is(err, core.ErrEmployeeNotFound), errors.Is(err, core.ErrUserNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, core.ErrEmployeeIDTaken), errors.Is(err, core.ErrEmployeeHasAccount):
		api.Fail(w, http.StatusConflict, "conflict", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "request failed", requestID)
	}
}
