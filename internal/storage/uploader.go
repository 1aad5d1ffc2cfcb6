package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// Target describes where an image landed. PublicURL is nil when the store is
// unconfigured or the upload failed; callers treat that as a normal state.
type Target struct {
	Bucket     string
	ObjectPath string
	PublicURL  *string
}

// Uploader writes image bytes to a GCS bucket and returns a public URL. A
// nil client or empty bucket puts it in disabled mode: uploads become no-ops
// that return a nil URL instead of an error.
type Uploader struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewUploader(client *storage.Client, bucket, publicBaseURL string) *Uploader {
	return &Uploader{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
	}
}

// Enabled reports whether a store is actually configured.
func (u *Uploader) Enabled() bool {
	return u != nil && u.client != nil && u.bucket != ""
}

// Upload writes data to uploads/<ms-timestamp>-<hex>.<ext>. The random suffix
// keeps concurrent uploads of identically named files from colliding; a true
// collision overwrites, which is harmless for content this path scheme
// addresses.
func (u *Uploader) Upload(ctx context.Context, data []byte, filename, contentType string) (*Target, error) {
	if !u.Enabled() {
		return &Target{}, nil
	}

	path := objectPath(filename, contentType)
	token := uuid.NewString()

	w := u.client.Bucket(u.bucket).Object(path).NewWriter(ctx)
	w.ContentType = normalizeContentType(contentType)
	w.Metadata = map[string]string{
		"firebaseStorageDownloadTokens": token,
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	publicURL := u.publicURL(path, token)
	return &Target{Bucket: u.bucket, ObjectPath: path, PublicURL: &publicURL}, nil
}

func (u *Uploader) publicURL(objectPath, token string) string {
	if u.baseURL != "" {
		return u.baseURL + "/" + objectPath
	}
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		u.bucket, url.PathEscape(objectPath), token)
}

func objectPath(filename, contentType string) string {
	return fmt.Sprintf("uploads/%d-%s%s", time.Now().UnixMilli(), randomHex(8), inferExt(filename, contentType))
}

// inferExt prefers the original filename's extension, then the declared MIME
// type, then .jpg.
func inferExt(filename, contentType string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		return ext
	}
	switch normalizeContentType(contentType) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/heic":
		return ".heic"
	default:
		return ".jpg"
	}
}

func normalizeContentType(contentType string) string {
	contentType = strings.TrimSpace(strings.ToLower(contentType))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if contentType == "" {
		return "image/jpeg"
	}
	return contentType
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a
		// uuid-derived suffix just in case.
		return strings.ReplaceAll(uuid.NewString(), "-", "")[:n*2]
	}
	return hex.EncodeToString(b)
}
