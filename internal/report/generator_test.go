package report

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yuvalcohen1/Cash-Flow/internal/domain"
)

// mockAIClient implements AIClient for tests.
type mockAIClient struct {
	generateFunc func(ctx context.Context, prompt string) (string, error)
	model        string
}

func (m *mockAIClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	return m.generateFunc(ctx, prompt)
}

func (m *mockAIClient) ModelName() string {
	if m.model != "" {
		return m.model
	}
	return "mock-model"
}

func sampleTransactions() []domain.Transaction {
	return []domain.Transaction{
		{ID: "t1", UserID: "user-1", Type: domain.TypeIncome, Amount: 1000, Category: "Salary", Date: "2024-01-01"},
		{ID: "t2", UserID: "user-1", Type: domain.TypeExpense, Amount: 100, Category: "Food & Dining", Date: "2024-01-02"},
	}
}

func TestGeneratorBuild(t *testing.T) {
	gen := NewGenerator(nil)

	pkg, err := gen.Build(sampleTransactions(), nil)
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}

	if pkg.ProcessedInsights == nil {
		t.Fatal("Expected non-nil insights")
	}
	if pkg.LLMPrompt == "" {
		t.Error("Expected non-empty prompt")
	}
	if pkg.Metadata.NumTransactions != 2 {
		t.Errorf("NumTransactions = %d, want 2", pkg.Metadata.NumTransactions)
	}
	if pkg.Metadata.GeneratedAt.IsZero() {
		t.Error("Expected GeneratedAt to be set")
	}
}

func TestGeneratorBuildSetsUserIDFromProfile(t *testing.T) {
	gen := NewGenerator(nil)
	profile := &domain.UserProfile{UserID: "user-1", Name: "Dana"}

	pkg, err := gen.Build(sampleTransactions(), profile)
	if err != nil {
		t.Fatalf("Build() returned error: %v", err)
	}
	if pkg.Metadata.UserID != "user-1" {
		t.Errorf("Metadata.UserID = %q, want user-1", pkg.Metadata.UserID)
	}
}

func TestGeneratorGenerate(t *testing.T) {
	var receivedPrompt string
	ai := &mockAIClient{
		model: "gemini-2.5-flash",
		generateFunc: func(ctx context.Context, prompt string) (string, error) {
			receivedPrompt = prompt
			return "Your finances look great.", nil
		},
	}

	gen := NewGenerator(ai)
	result, err := gen.Generate(context.Background(), sampleTransactions(), nil)
	if err != nil {
		t.Fatalf("Generate() returned error: %v", err)
	}

	if result.AIReport != "Your finances look great." {
		t.Errorf("AIReport = %q", result.AIReport)
	}
	if result.ModelUsed != "gemini-2.5-flash" {
		t.Errorf("ModelUsed = %q", result.ModelUsed)
	}
	if receivedPrompt != result.LLMPrompt {
		t.Error("Model must receive the same prompt stored on the result")
	}
	if !strings.Contains(receivedPrompt, "# Financial Data Analysis") {
		t.Error("Prompt handed to the model is missing the data context")
	}
}

func TestGeneratorGenerateModelError(t *testing.T) {
	wantErr := errors.New("quota exceeded")
	ai := &mockAIClient{
		generateFunc: func(ctx context.Context, prompt string) (string, error) {
			return "", wantErr
		},
	}

	gen := NewGenerator(ai)
	_, err := gen.Generate(context.Background(), sampleTransactions(), nil)
	if err == nil {
		t.Fatal("Expected error from model failure")
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("Expected wrapped model error, got: %v", err)
	}
}

func TestGeneratorGenerateMalformedInput(t *testing.T) {
	ai := &mockAIClient{
		generateFunc: func(ctx context.Context, prompt string) (string, error) {
			t.Fatal("Model must not be called for malformed input")
			return "", nil
		},
	}

	gen := NewGenerator(ai)
	bad := []domain.Transaction{
		{ID: "t1", Type: domain.TypeExpense, Amount: 10, Date: "not-a-date"},
	}
	if _, err := gen.Generate(context.Background(), bad, nil); err == nil {
		t.Fatal("Expected error for malformed input")
	}
}
