package report

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used for report generation unless
// overridden via configuration.
const DefaultModelName = "gemini-2.5-flash"

// AIClient generates narrative text from a prompt. The interface exists so
// handlers and tests can swap in a mock instead of calling Gemini.
type AIClient interface {
	GenerateText(ctx context.Context, prompt string) (string, error)

	// ModelName reports which model the client talks to, for the
	// report metadata.
	ModelName() string
}

// GeminiClient is the concrete AIClient backed by the Gemini API. The API
// key is picked up from the environment by the genai SDK.
type GeminiClient struct {
	model string
}

// NewGeminiClient creates a Gemini-backed client. An empty model name
// selects DefaultModelName.
func NewGeminiClient(model string) *GeminiClient {
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiClient{model: model}
}

// ModelName implements AIClient.
func (c *GeminiClient) ModelName() string {
	return c.model
}

// GenerateText sends the prompt to Gemini and returns the narrative text.
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("GenerateText: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("GenerateText: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("GenerateText: empty response from model")
	}

	return text, nil
}

var _ AIClient = (*GeminiClient)(nil)
