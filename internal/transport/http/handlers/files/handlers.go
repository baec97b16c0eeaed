package fileshandler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"cyberhr/internal/platform/storage"
	"cyberhr/internal/transport/http/api"
	"cyberhr/internal/transport/http/middleware"
)

// publicBuckets may be downloaded with a bare link. Everything else needs a
// signed URL.
var publicBuckets = map[string]bool{
	storage.BucketAvatars:   true,
	storage.BucketLicencias: true,
}

type Handler struct {
	Objects *storage.Local
}

func NewHandler(objects *storage.Local) *Handler {
	return &Handler{Objects: objects}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/files", func(r chi.Router) {
		r.Get("/public/{bucket}/*", h.handlePublic)
		r.Get("/signed/{bucket}/*", h.handleSigned)
	})
}

func (h *Handler) handlePublic(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	bucket := chi.URLParam(r, "bucket")

	if !publicBuckets[bucket] {
		api.Fail(w, http.StatusNotFound, "not_found", "object not found", requestID)
		return
	}
	h.serve(w, r, bucket, objectPath(r))
}

func (h *Handler) handleSigned(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	bucket := chi.URLParam(r, "bucket")
	path := objectPath(r)

	exp := r.URL.Query().Get("exp")
	sig := r.URL.Query().Get("sig")
	if !h.Objects.VerifySignature(bucket, path, exp, sig) {
		api.Fail(w, http.StatusForbidden, "invalid_signature", "link is invalid or has expired", requestID)
		return
	}
	h.serve(w, r, bucket, path)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, bucket, path string) {
	requestID := middleware.GetRequestID(r.Context())

	reader, contentType, err := h.Objects.Open(bucket, path)
	if errors.Is(err, storage.ErrObjectNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "object not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "download_failed", "failed to open object", requestID)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if _, err := io.Copy(w, reader); err != nil {
		// Connection-level failure; the status line is already out.
		return
	}
}

func objectPath(r *http.Request) string {
	return strings.TrimPrefix(chi.URLParam(r, "*"), "/")
}
