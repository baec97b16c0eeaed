package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Local {
	t.Helper()
	return NewLocal(t.TempDir(), "http://localhost:8080", "test-signing-key")
}

func TestUploadUpsertOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Upload(ctx, BucketPayslips, "e1/2025-03.pdf", []byte("v1"), UploadOptions{Upsert: true}); err != nil {
		t.Fatalf("first upload failed: %v", err)
	}
	if err := store.Upload(ctx, BucketPayslips, "e1/2025-03.pdf", []byte("v2"), UploadOptions{Upsert: true}); err != nil {
		t.Fatalf("second upload failed: %v", err)
	}

	reader, _, err := store.Open(BucketPayslips, "e1/2025-03.pdf")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer reader.Close()
	buf := make([]byte, 8)
	n, _ := reader.Read(buf)
	if string(buf[:n]) != "v2" {
		t.Fatalf("expected overwritten content, got %q", buf[:n])
	}
}

func TestUploadWithoutUpsertRejectsExisting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Upload(ctx, BucketLicencias, "u1/r1.pdf", []byte("v1"), UploadOptions{}); err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if err := store.Upload(ctx, BucketLicencias, "u1/r1.pdf", []byte("v2"), UploadOptions{}); err != ErrObjectExists {
		t.Fatalf("expected ErrObjectExists, got %v", err)
	}
}

func TestSignedURLVerification(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Upload(ctx, BucketPayslips, "e1/2025-03.pdf", []byte("pdf"), UploadOptions{Upsert: true}); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	signed, err := store.SignedURL(BucketPayslips, "e1/2025-03.pdf", time.Hour)
	if err != nil {
		t.Fatalf("signed url failed: %v", err)
	}

	parsed, err := url.Parse(signed)
	if err != nil {
		t.Fatalf("unparsable signed url: %v", err)
	}
	exp := parsed.Query().Get("exp")
	sig := parsed.Query().Get("sig")
	if exp == "" || sig == "" {
		t.Fatalf("missing exp/sig in %q", signed)
	}

	if !store.VerifySignature(BucketPayslips, "e1/2025-03.pdf", exp, sig) {
		t.Fatal("expected valid signature to verify")
	}
	if store.VerifySignature(BucketPayslips, "e1/2025-04.pdf", exp, sig) {
		t.Fatal("expected tampered path to fail verification")
	}
	if store.VerifySignature(BucketPayslips, "e1/2025-03.pdf", exp, sig+"00") {
		t.Fatal("expected tampered signature to fail verification")
	}
}

func TestSignedURLExpires(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Upload(ctx, BucketPayslips, "e1/2025-03.pdf", []byte("pdf"), UploadOptions{Upsert: true}); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	signed, err := store.SignedURL(BucketPayslips, "e1/2025-03.pdf", time.Minute)
	if err != nil {
		t.Fatalf("signed url failed: %v", err)
	}
	parsed, _ := url.Parse(signed)
	exp := parsed.Query().Get("exp")
	sig := parsed.Query().Get("sig")

	store.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if store.VerifySignature(BucketPayslips, "e1/2025-03.pdf", exp, sig) {
		t.Fatal("expected expired signature to fail verification")
	}
}

func TestSignedURLRequiresExistingObject(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.SignedURL(BucketPayslips, "missing/file.pdf", time.Hour); err != ErrObjectNotFound {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestRemoveAndPathFromPublicURL(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Upload(ctx, BucketLicencias, "u1/r1_123.pdf", []byte("cert"), UploadOptions{}); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	publicURL := store.PublicURL(BucketLicencias, "u1/r1_123.pdf")
	if !strings.Contains(publicURL, "/files/public/licencias/u1/r1_123.pdf") {
		t.Fatalf("unexpected public url %q", publicURL)
	}

	path, ok := store.PathFromPublicURL(BucketLicencias, publicURL)
	if !ok || path != "u1/r1_123.pdf" {
		t.Fatalf("expected path recovery, got %q ok=%v", path, ok)
	}

	if err := store.Remove(ctx, BucketLicencias, []string{path}); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if err := store.Remove(ctx, BucketLicencias, []string{path}); err != ErrObjectNotFound {
		t.Fatalf("expected ErrObjectNotFound on second remove, got %v", err)
	}
}

func TestObjectPathEscapesRejected(t *testing.T) {
	store := newTestStore(t)
	if err := store.Upload(context.Background(), BucketAvatars, "../../etc/passwd", []byte("x"), UploadOptions{Upsert: true}); err == nil {
		t.Fatal("expected path traversal to be rejected")
	}
}
