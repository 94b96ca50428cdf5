// Package assistant proxies a single prompt to the Gemini API using a key
// the user supplies per request. The core pipeline never depends on this
// feature working; a failed call degrades to an inline error message.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is the generation model used when none is configured.
const DefaultModel = "gemini-2.0-flash-lite-preview-02-05"

// Client generates text against a fixed model.
type Client struct {
	model string
}

// New creates a client for the given model, falling back to DefaultModel.
func New(model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{model: model}
}

// GenerateText sends one prompt with the user's API key and returns the
// generated text. Single attempt, no retry; the caller surfaces errors
// inline.
func (c *Client) GenerateText(ctx context.Context, apiKey, prompt string) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", fmt.Errorf("GenerateText: API key is required")
	}
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("GenerateText: prompt is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("GenerateText: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.7),
		MaxOutputTokens: 100,
		TopP:            genai.Ptr[float32](0.95),
		TopK:            genai.Ptr[float32](40),
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("GenerateText: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("GenerateText: empty response from model")
	}
	return text, nil
}
