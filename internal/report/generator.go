package report

import (
	"context"
	"fmt"
	"time"

	"github.com/yuvalcohen1/Cash-Flow/internal/domain"
	"github.com/yuvalcohen1/Cash-Flow/internal/insights"
)

// Metadata describes one generation run.
type Metadata struct {
	UserID          string    `json:"user_id,omitempty"`
	GeneratedAt     time.Time `json:"generated_at"`
	NumTransactions int       `json:"num_transactions"`
}

// Package is the pre-model output: the processed insight bundle plus the
// prompt that would be handed to the text-generation model.
type Package struct {
	ProcessedInsights *insights.Bundle `json:"processed_insights"`
	LLMPrompt         string           `json:"llm_prompt"`
	Metadata          Metadata         `json:"metadata"`
}

// Result is a Package completed with the model's narrative text.
type Result struct {
	Package
	AIReport  string `json:"ai_report"`
	ModelUsed string `json:"model_used"`
}

// Generator orchestrates the report flow: insight engine, prompt builder,
// and finally the text-generation call.
type Generator struct {
	ai AIClient
}

// NewGenerator creates a generator around the given AI client.
func NewGenerator(ai AIClient) *Generator {
	return &Generator{ai: ai}
}

// Build runs the insight engine and prompt builder without calling the
// model. It is the whole computation behind the insights-only endpoint.
func (g *Generator) Build(transactions []domain.Transaction, profile *domain.UserProfile) (*Package, error) {
	bundle, err := insights.Process(transactions, profile)
	if err != nil {
		return nil, fmt.Errorf("Build: processing insights: %w", err)
	}

	var userID string
	if profile != nil {
		userID = profile.UserID
	}

	return &Package{
		ProcessedInsights: bundle,
		LLMPrompt:         BuildPrompt(bundle, profile),
		Metadata: Metadata{
			UserID:          userID,
			GeneratedAt:     time.Now().UTC(),
			NumTransactions: len(transactions),
		},
	}, nil
}

// Generate builds the package and completes it with the model's narrative.
func (g *Generator) Generate(ctx context.Context, transactions []domain.Transaction, profile *domain.UserProfile) (*Result, error) {
	pkg, err := g.Build(transactions, profile)
	if err != nil {
		return nil, err
	}

	text, err := g.ai.GenerateText(ctx, pkg.LLMPrompt)
	if err != nil {
		return nil, fmt.Errorf("Generate: %w", err)
	}

	return &Result{
		Package:   *pkg,
		AIReport:  text,
		ModelUsed: g.ai.ModelName(),
	}, nil
}
