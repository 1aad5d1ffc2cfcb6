package vision

import (
	"context"
	"errors"
	"log"

	"github.com/shinyyama/inventory-vision-backend/internal/extract"
	"github.com/shinyyama/inventory-vision-backend/internal/reqctx"
)

// Extractor turns one image into structured label fields. Implementations
// must be safe for concurrent use.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, image []byte, mimeType, hint string) (extract.Fields, error)
}

// Chain tries extractors in order and returns the first result produced
// without error. Construct it with the placeholder extractor last so a chain
// never fails outright.
type Chain struct {
	extractors []Extractor
}

func NewChain(extractors ...Extractor) *Chain {
	return &Chain{extractors: extractors}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Extract(ctx context.Context, image []byte, mimeType, hint string) (extract.Fields, error) {
	rid := reqctx.RID(ctx)
	var lastErr error
	for _, e := range c.extractors {
		fields, err := e.Extract(ctx, image, mimeType, hint)
		if err == nil {
			return fields, nil
		}
		lastErr = err
		log.Printf("[extract] rid=%s stage=provider_fail provider=%s err=%v", rid, e.Name(), err)
	}
	if lastErr == nil {
		lastErr = errors.New("no extractors configured")
	}
	return extract.Fields{}, lastErr
}
