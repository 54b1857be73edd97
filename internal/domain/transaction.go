package domain

// TransactionType partitions transactions into money in and money out.
// Any other value is excluded from every aggregate the insight engine
// produces.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Transaction represents one dated financial movement for a user.
// This is a domain struct, not a BigQuery row; the repository maps table
// rows into it and resolves numeric category ids to display names.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id,omitempty"`
	Type        TransactionType `json:"type"`
	Amount      float64         `json:"amount"` // magnitude; sign is implied by Type
	Category    string          `json:"category,omitempty"`
	Date        string          `json:"date"` // "YYYY-MM-DD", RFC 3339, or Z-suffixed datetime
	Description string          `json:"description,omitempty"`
}

// UserProfile carries optional personalization context for report
// generation. Absent fields mean "unknown", never an error.
type UserProfile struct {
	UserID         string   `json:"user_id,omitempty"`
	Name           string   `json:"name,omitempty"`
	FinancialGoals []string `json:"financial_goals,omitempty"`
	RiskTolerance  string   `json:"risk_tolerance,omitempty"`
}
