package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/inventory-vision-backend/internal/extract"
	"github.com/shinyyama/inventory-vision-backend/internal/storage"
	"github.com/shinyyama/inventory-vision-backend/internal/vision"
)

type fakeExtractor struct {
	calls   int64
	failOn  string
	byImage bool
}

func (f *fakeExtractor) Name() string { return "fake" }

func (f *fakeExtractor) Extract(_ context.Context, image []byte, _, _ string) (extract.Fields, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.failOn != "" && string(image) == f.failOn {
		return extract.Fields{}, errors.New("provider down")
	}
	title := "Widget"
	if f.byImage {
		title = "title for " + string(image)
	}
	return extract.Fields{Title: title, Vendor: "Acme"}, nil
}

type fakeUploader struct {
	calls int64
	url   string
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, _ []byte, _, _ string) (*storage.Target, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	u := f.url
	return &storage.Target{Bucket: "test", ObjectPath: "uploads/x.jpg", PublicURL: &u}, nil
}

func multipartBody(t *testing.T, field string, files []string, hint string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for i, content := range files {
		fw, err := w.CreateFormFile(field, "photo"+string(rune('0'+i))+".jpg")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if hint != "" {
		if err := w.WriteField("text", hint); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func doRequest(h echo.HandlerFunc, method, path string, body *bytes.Buffer, contentType string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, h(c)
}

func TestExtractMissingFile(t *testing.T) {
	ext := &fakeExtractor{}
	up := &fakeUploader{url: "https://example.com/x.jpg"}
	h := NewExtractHandler(ext, up)

	body, contentType := multipartBody(t, "image", nil, "just text")
	rec, err := doRequest(h.Extract, http.MethodPost, "/api/extract", body, contentType)
	if err != nil {
		t.Fatalf("handler err: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want=400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No file received") {
		t.Fatalf("body=%s", rec.Body.String())
	}
	if ext.calls != 0 || up.calls != 0 {
		t.Fatalf("extractor/uploader invoked on client error: %d/%d", ext.calls, up.calls)
	}
}

func TestExtractSingle(t *testing.T) {
	ext := &fakeExtractor{}
	up := &fakeUploader{url: "https://example.com/x.jpg"}
	h := NewExtractHandler(ext, up)

	body, contentType := multipartBody(t, "image", []string{"imagebytes"}, "")
	rec, err := doRequest(h.Extract, http.MethodPost, "/api/extract", body, contentType)
	if err != nil {
		t.Fatalf("handler err: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"item_id", "title", "description", "vendor", "manufacture_date", "categories", "subcategories", "imageUrl"} {
		if _, ok := got[key]; !ok {
			t.Fatalf("missing key %q in %v", key, got)
		}
	}
	if got["title"] != "Widget" || got["imageUrl"] != "https://example.com/x.jpg" {
		t.Fatalf("got=%v", got)
	}
	if ext.calls != 1 || up.calls != 1 {
		t.Fatalf("calls extractor=%d uploader=%d", ext.calls, up.calls)
	}
}

func TestExtractUploaderFailureDegrades(t *testing.T) {
	h := NewExtractHandler(&fakeExtractor{}, &fakeUploader{err: errors.New("bucket gone")})

	body, contentType := multipartBody(t, "image", []string{"imagebytes"}, "")
	rec, err := doRequest(h.Extract, http.MethodPost, "/api/extract", body, contentType)
	if err != nil {
		t.Fatalf("handler err: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want=200", rec.Code)
	}
	var got extract.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.ImageURL != nil {
		t.Fatalf("imageUrl=%v want=nil", *got.ImageURL)
	}
	if got.Title != "Widget" {
		t.Fatalf("extraction result lost: %+v", got)
	}
}

func TestExtractBatchNoFiles(t *testing.T) {
	ext := &fakeExtractor{}
	up := &fakeUploader{url: "u"}
	h := NewExtractHandler(ext, up)

	body, contentType := multipartBody(t, "images", nil, "only a hint")
	rec, err := doRequest(h.ExtractBatch, http.MethodPost, "/api/extract/batch", body, contentType)
	if err != nil {
		t.Fatalf("handler err: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want=400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No files received") {
		t.Fatalf("body=%s", rec.Body.String())
	}
	if ext.calls != 0 || up.calls != 0 {
		t.Fatalf("extractor/uploader invoked on client error: %d/%d", ext.calls, up.calls)
	}
}

func TestExtractBatchOrderAndDegradation(t *testing.T) {
	// Image 1 (0-based) fails extraction; the response must keep length 3
	// with the placeholder record at that index.
	ext := &fakeExtractor{failOn: "bad", byImage: true}
	up := &fakeUploader{url: "https://example.com/x.jpg"}
	h := NewExtractHandler(ext, up)

	body, contentType := multipartBody(t, "images", []string{"one", "bad", "three"}, "")
	rec, err := doRequest(h.ExtractBatch, http.MethodPost, "/api/extract/batch", body, contentType)
	if err != nil {
		t.Fatalf("handler err: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	var got []extract.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("len=%d want=3", len(got))
	}
	if got[0].Title != "title for one" || got[2].Title != "title for three" {
		t.Fatalf("order not preserved: %+v", got)
	}
	if got[1].Title != vision.PlaceholderTitle {
		t.Fatalf("index 1 title=%q want placeholder", got[1].Title)
	}
	if up.calls != 3 {
		t.Fatalf("uploader calls=%d want=3", up.calls)
	}
}

func TestMergeRoute(t *testing.T) {
	h := NewExtractHandler(&fakeExtractor{}, &fakeUploader{url: "u"})

	payload := `[{"vendor":"Acme","categories":"A, B"},{"vendor":"Acme","categories":"B, C"},{"vendor":"Globex"}]`
	rec, err := doRequest(h.Merge, http.MethodPost, "/api/extract/merge", bytes.NewBufferString(payload), echo.MIMEApplicationJSON)
	if err != nil {
		t.Fatalf("handler err: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var got extract.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Vendor != "Acme" {
		t.Fatalf("vendor=%q want=Acme", got.Vendor)
	}
	if got.Categories != "A, B, C" {
		t.Fatalf("categories=%q", got.Categories)
	}
}

func TestMergeRouteEmptyArray(t *testing.T) {
	h := NewExtractHandler(&fakeExtractor{}, &fakeUploader{url: "u"})

	rec, err := doRequest(h.Merge, http.MethodPost, "/api/extract/merge", bytes.NewBufferString(`[]`), echo.MIMEApplicationJSON)
	if err != nil {
		t.Fatalf("handler err: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want=400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No records received") {
		t.Fatalf("body=%s", rec.Body.String())
	}
}

func TestPing(t *testing.T) {
	h := NewExtractHandler(&fakeExtractor{}, &fakeUploader{url: "u"})
	rec, err := doRequest(h.Ping, http.MethodGet, "/api/extract/ping", nil, "")
	if err != nil {
		t.Fatalf("handler err: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}
