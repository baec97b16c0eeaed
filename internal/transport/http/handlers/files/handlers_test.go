package fileshandler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"cyberhr/internal/platform/storage"
)

func newTestHandler(t *testing.T) (*Handler, *storage.Local) {
	t.Helper()
	objects := storage.NewLocal(t.TempDir(), "http://localhost:8080", "test-signing-key")
	return NewHandler(objects), objects
}

func serveFiles(h *Handler, target string) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	h.RegisterRoutes(router)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestPublicDownload(t *testing.T) {
	h, objects := newTestHandler(t)
	err := objects.Upload(context.Background(), storage.BucketAvatars, "u1/avatar.png", []byte("png-bytes"), storage.UploadOptions{ContentType: "image/png", Upsert: true})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	rec := serveFiles(h, "/files/public/avatars/u1/avatar.png")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Fatalf("expected image/png, got %q", got)
	}
	body, _ := io.ReadAll(rec.Body)
	if string(body) != "png-bytes" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestPublicDownloadRejectsPrivateBucket(t *testing.T) {
	h, objects := newTestHandler(t)
	err := objects.Upload(context.Background(), storage.BucketPayslips, "e1/2024-03.pdf", []byte("pdf"), storage.UploadOptions{ContentType: "application/pdf"})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	rec := serveFiles(h, "/files/public/payslips/e1/2024-03.pdf")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for private bucket, got %d", rec.Code)
	}
}

func TestSignedDownload(t *testing.T) {
	h, objects := newTestHandler(t)
	err := objects.Upload(context.Background(), storage.BucketPayslips, "e1/2024-03.pdf", []byte("pdf"), storage.UploadOptions{ContentType: "application/pdf"})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	signed, err := objects.SignedURL(storage.BucketPayslips, "e1/2024-03.pdf", time.Hour)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	parsed, err := url.Parse(signed)
	if err != nil {
		t.Fatalf("bad signed url: %v", err)
	}

	rec := serveFiles(h, parsed.Path+"?"+parsed.RawQuery)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", got)
	}
}

func TestSignedDownloadRejectsTamperedSignature(t *testing.T) {
	h, objects := newTestHandler(t)
	err := objects.Upload(context.Background(), storage.BucketPayslips, "e1/2024-03.pdf", []byte("pdf"), storage.UploadOptions{ContentType: "application/pdf"})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	signed, err := objects.SignedURL(storage.BucketPayslips, "e1/2024-03.pdf", time.Hour)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	parsed, _ := url.Parse(signed)
	q := parsed.Query()
	q.Set("sig", strings.Repeat("0", len(q.Get("sig"))))
	rec := serveFiles(h, parsed.Path+"?"+q.Encode())
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for tampered signature, got %d", rec.Code)
	}
}

func TestSignedDownloadMissingObject(t *testing.T) {
	h, objects := newTestHandler(t)
	err := objects.Upload(context.Background(), storage.BucketPayslips, "e1/missing.pdf", []byte("pdf"), storage.UploadOptions{ContentType: "application/pdf"})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	signed, err := objects.SignedURL(storage.BucketPayslips, "e1/missing.pdf", time.Hour)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if err := objects.Remove(context.Background(), storage.BucketPayslips, []string{"e1/missing.pdf"}); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	parsed, _ := url.Parse(signed)
	rec := serveFiles(h, parsed.Path+"?"+parsed.RawQuery)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
