package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Local stores objects on the filesystem under baseDir/bucket/path and
// issues download URLs served by the files handler. Signed URLs carry an
// HMAC over bucket, path and expiry, so a leaked link stops working when
// its window closes.
type Local struct {
	baseDir    string
	baseURL    string
	signingKey []byte
	now        func() time.Time
}

var _ Store = (*Local)(nil)

func NewLocal(baseDir, baseURL, signingKey string) *Local {
	return &Local{
		baseDir:    baseDir,
		baseURL:    strings.TrimRight(baseURL, "/"),
		signingKey: []byte(signingKey),
		now:        time.Now,
	}
}

func (l *Local) Upload(ctx context.Context, bucket, path string, data []byte, opts UploadOptions) error {
	full, err := l.objectPath(bucket, path)
	if err != nil {
		return err
	}
	if !opts.Upsert {
		if _, err := os.Stat(full); err == nil {
			return ErrObjectExists
		}
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o600)
}

func (l *Local) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/files/public/%s/%s", l.baseURL, bucket, path)
}

func (l *Local) SignedURL(bucket, path string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("signed url ttl must be positive")
	}
	full, err := l.objectPath(bucket, path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(full); err != nil {
		return "", ErrObjectNotFound
	}

	expires := l.now().Add(ttl).Unix()
	sig := l.sign(bucket, path, expires)
	return fmt.Sprintf("%s/files/signed/%s/%s?exp=%d&sig=%s", l.baseURL, bucket, path, expires, sig), nil
}

// VerifySignature checks the exp/sig pair of a signed download request.
func (l *Local) VerifySignature(bucket, path, expRaw, sig string) bool {
	expires, err := strconv.ParseInt(expRaw, 10, 64)
	if err != nil {
		return false
	}
	if l.now().Unix() > expires {
		return false
	}
	expected := l.sign(bucket, path, expires)
	return hmac.Equal([]byte(expected), []byte(sig))
}

func (l *Local) Remove(ctx context.Context, bucket string, paths []string) error {
	for _, path := range paths {
		full, err := l.objectPath(bucket, path)
		if err != nil {
			return err
		}
		if err := os.Remove(full); err != nil {
			if os.IsNotExist(err) {
				return ErrObjectNotFound
			}
			return err
		}
	}
	return nil
}

func (l *Local) Open(bucket, path string) (io.ReadCloser, string, error) {
	full, err := l.objectPath(bucket, path)
	if err != nil {
		return nil, "", err
	}
	file, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrObjectNotFound
		}
		return nil, "", err
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return file, contentType, nil
}

func (l *Local) PathFromPublicURL(bucket, rawURL string) (string, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	prefix := "/files/public/" + bucket + "/"
	if !strings.HasPrefix(parsed.Path, prefix) {
		return "", false
	}
	path := strings.TrimPrefix(parsed.Path, prefix)
	if path == "" {
		return "", false
	}
	return path, true
}

func (l *Local) sign(bucket, path string, expires int64) string {
	mac := hmac.New(sha256.New, l.signingKey)
	fmt.Fprintf(mac, "%s\n%s\n%d", bucket, path, expires)
	return hex.EncodeToString(mac.Sum(nil))
}

func (l *Local) objectPath(bucket, path string) (string, error) {
	cleaned := filepath.Clean(filepath.Join(l.baseDir, bucket, filepath.FromSlash(path)))
	root := filepath.Clean(filepath.Join(l.baseDir, bucket))
	if !strings.HasPrefix(cleaned, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid object path %q", path)
	}
	return cleaned, nil
}
