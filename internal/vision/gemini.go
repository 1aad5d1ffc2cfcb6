package vision

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/shinyyama/inventory-vision-backend/internal/extract"
	"github.com/shinyyama/inventory-vision-backend/internal/reqctx"
	"google.golang.org/genai"
)

// GeminiExtractor is the primary vision provider. The genai client is
// constructed once and reused across concurrent requests.
type GeminiExtractor struct {
	client *genai.Client
	model  string
}

func NewGeminiExtractor(ctx context.Context, apiKey, model string) (*GeminiExtractor, error) {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiExtractor{client: client, model: model}, nil
}

func (g *GeminiExtractor) Name() string { return "gemini" }

func (g *GeminiExtractor) Extract(ctx context.Context, image []byte, mimeType, hint string) (extract.Fields, error) {
	rid := reqctx.RID(ctx)
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	parts := []*genai.Part{
		genai.NewPartFromText(BuildLabelPrompt(hint)),
		genai.NewPartFromBytes(image, mimeType),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}
	temp := float32(0)
	config := &genai.GenerateContentConfig{
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}

	start := time.Now()
	res, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return extract.Fields{}, err
	}
	rawText := res.Text()
	fields, outcome := extract.ParseModelOutput(rawText)
	log.Printf("[extract] rid=%s stage=gemini_done model=%s parse=%s len=%d genMs=%d",
		rid, g.model, outcome, len(rawText), time.Since(start).Milliseconds())
	return fields, nil
}
