package reqctx

import "context"

type ctxKey string

const (
	keyRID   ctxKey = "extract_rid"
	keyIndex ctxKey = "extract_image_index"
)

// WithRID stores the correlation id for extraction pipeline logs.
func WithRID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, keyRID, rid)
}

// RID returns the correlation id if present.
func RID(ctx context.Context) string {
	v, _ := ctx.Value(keyRID).(string)
	return v
}

// WithImageIndex stores the batch position of the image being processed.
func WithImageIndex(ctx context.Context, i int) context.Context {
	return context.WithValue(ctx, keyIndex, i)
}

// ImageIndex returns the batch position and whether one was set. Single-image
// requests carry none.
func ImageIndex(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(keyIndex).(int)
	return v, ok
}
