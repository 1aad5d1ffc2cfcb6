package handler

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/inventory-vision-backend/internal/extract"
	"github.com/shinyyama/inventory-vision-backend/internal/reqctx"
	"github.com/shinyyama/inventory-vision-backend/internal/storage"
	"github.com/shinyyama/inventory-vision-backend/internal/vision"
	"golang.org/x/sync/errgroup"
)

// ImageUploader is what the handler needs from the object store; tests
// substitute it without a network.
type ImageUploader interface {
	Upload(ctx context.Context, data []byte, filename, contentType string) (*storage.Target, error)
}

// ExtractHandler serves the image extraction surface: single image, batch,
// caller-invoked merge, and the liveness ping. It holds no per-request state.
type ExtractHandler struct {
	extractor vision.Extractor
	uploader  ImageUploader
}

func NewExtractHandler(extractor vision.Extractor, uploader ImageUploader) *ExtractHandler {
	return &ExtractHandler{extractor: extractor, uploader: uploader}
}

func (h *ExtractHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// Extract handles POST /api/extract: one multipart image plus an optional
// text hint, returning the extracted fields with the hosted image URL.
func (h *ExtractHandler) Extract(c echo.Context) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No file received"})
	}
	hint := c.FormValue("text")

	data, contentType, err := readUpload(fh)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":   "Failed to process image",
			"details": err.Error(),
		})
	}

	ctx := reqctx.WithRID(c.Request().Context(), uuid.NewString())
	rec := h.processImage(ctx, data, fh.Filename, contentType, hint)
	return c.JSON(http.StatusOK, rec)
}

// ExtractBatch handles POST /api/extract/batch: N multipart images fanned out
// concurrently, responding with one record per image in input order. Merging
// is not implied; that is a separate call.
func (h *ExtractHandler) ExtractBatch(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":   "Failed to process images",
			"details": err.Error(),
		})
	}
	files := form.File["images"]
	if len(files) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No files received"})
	}
	hint := c.FormValue("text")

	ctx := reqctx.WithRID(c.Request().Context(), uuid.NewString())
	results := make([]extract.Record, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, fh := range files {
		i, fh := i, fh
		g.Go(func() error {
			ictx := reqctx.WithImageIndex(gctx, i)
			data, contentType, err := readUpload(fh)
			if err != nil {
				log.Printf("[extract] %s stage=read_fail err=%v", logTag(ictx), err)
				results[i] = extract.Record{Fields: vision.PlaceholderFields()}
				return nil
			}
			results[i] = h.processImage(ictx, data, fh.Filename, contentType, hint)
			return nil
		})
	}
	_ = g.Wait()

	return c.JSON(http.StatusOK, results)
}

// Merge handles POST /api/extract/merge: folds a JSON array of extracted
// records for the same physical item into one.
func (h *ExtractHandler) Merge(c echo.Context) error {
	var records []extract.Record
	if err := c.Bind(&records); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if len(records) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "No records received"})
	}
	return c.JSON(http.StatusOK, extract.Merge(records))
}

// processImage runs extraction and upload concurrently; neither depends on
// the other, and both degrade to a value instead of failing the request.
func (h *ExtractHandler) processImage(ctx context.Context, data []byte, filename, contentType, hint string) extract.Record {
	tag := logTag(ctx)

	var fields extract.Fields
	var target *storage.Target
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := h.extractor.Extract(gctx, data, contentType, hint)
		if err != nil {
			log.Printf("[extract] %s stage=extract_fail err=%v", tag, err)
			f = vision.PlaceholderFields()
		}
		fields = f
		return nil
	})
	g.Go(func() error {
		t, err := h.uploader.Upload(gctx, data, filename, contentType)
		if err != nil {
			log.Printf("[extract] %s stage=upload_fail err=%v", tag, err)
			t = nil
		}
		target = t
		return nil
	})
	_ = g.Wait()

	rec := extract.Record{Fields: fields.Normalize()}
	if target != nil {
		rec.ImageURL = target.PublicURL
	}
	return rec
}

// logTag renders the correlation id plus the batch position when one is set.
func logTag(ctx context.Context) string {
	tag := "rid=" + reqctx.RID(ctx)
	if i, ok := reqctx.ImageIndex(ctx); ok {
		tag += fmt.Sprintf(" image=%d", i)
	}
	return tag
}

func readUpload(fh *multipart.FileHeader) ([]byte, string, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	return data, fh.Header.Get("Content-Type"), nil
}
