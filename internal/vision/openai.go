package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/shinyyama/inventory-vision-backend/internal/extract"
	"github.com/shinyyama/inventory-vision-backend/internal/reqctx"
)

// OpenAIExtractor is the secondary vision provider, speaking the
// OpenAI-compatible chat completions protocol over plain HTTP.
type OpenAIExtractor struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewOpenAIExtractor(apiKey, model, baseURL string, httpClient *http.Client) *OpenAIExtractor {
	if model == "" {
		model = "gpt-4o"
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &OpenAIExtractor{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (o *OpenAIExtractor) Name() string { return "openai" }

func (o *OpenAIExtractor) Extract(ctx context.Context, image []byte, mimeType, hint string) (extract.Fields, error) {
	if o.apiKey == "" {
		return extract.Fields{}, errors.New("OPENAI_API_KEY is not set")
	}
	if len(image) == 0 {
		return extract.Fields{}, errors.New("image is required")
	}
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))
	body := map[string]interface{}{
		"model": o.model,
		"messages": []map[string]interface{}{
			{
				"role":    "system",
				"content": BuildLabelPrompt(hint),
			},
			{
				"role": "user",
				"content": []map[string]interface{}{
					{"type": "text", "text": "Extract the label fields from this image."},
					{"type": "image_url", "image_url": map[string]string{"url": dataURL}},
				},
			},
		},
		"temperature":     0,
		"max_tokens":      512,
		"response_format": map[string]string{"type": "json_object"},
	}

	payload, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return extract.Fields{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	start := time.Now()
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return extract.Fields{}, err
	}
	defer resp.Body.Close()

	resBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return extract.Fields{}, fmt.Errorf("openai status %d: %s", resp.StatusCode, truncate(string(resBody), 500))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(resBody, &parsed); err != nil {
		return extract.Fields{}, err
	}
	if len(parsed.Choices) == 0 {
		return extract.Fields{}, errors.New("openai response has no choices")
	}

	rawText := parsed.Choices[0].Message.Content
	fields, outcome := extract.ParseModelOutput(rawText)
	log.Printf("[extract] rid=%s stage=openai_done model=%s parse=%s len=%d genMs=%d",
		reqctx.RID(ctx), o.model, outcome, len(rawText), time.Since(start).Milliseconds())
	return fields, nil
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
