package vision

import (
	"context"

	"github.com/shinyyama/inventory-vision-backend/internal/extract"
)

// PlaceholderTitle is the constant low-confidence label returned when no
// vision provider could process the image.
const PlaceholderTitle = "Uncategorized Item"

// PlaceholderFields is the degraded record: the constant title with every
// other field empty.
func PlaceholderFields() extract.Fields {
	return extract.Fields{Title: PlaceholderTitle}
}

// PlaceholderExtractor is the deterministic terminal fallback. It never
// errors, so it guarantees every chain resolves to a value.
type PlaceholderExtractor struct{}

func NewPlaceholderExtractor() *PlaceholderExtractor { return &PlaceholderExtractor{} }

func (*PlaceholderExtractor) Name() string { return "placeholder" }

func (*PlaceholderExtractor) Extract(context.Context, []byte, string, string) (extract.Fields, error) {
	return PlaceholderFields(), nil
}
