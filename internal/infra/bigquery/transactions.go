package bigquery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"

	"github.com/yuvalcohen1/Cash-Flow/internal/categories"
	"github.com/yuvalcohen1/Cash-Flow/internal/domain"
)

// TransactionRow mirrors the cashflow.transactions table schema.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	UserID string `bigquery:"user_id"` // REQUIRED
	Type   string `bigquery:"type"`    // REQUIRED: 'income' or 'expense'

	Amount float64 `bigquery:"amount"` // REQUIRED; magnitude, sign implied by type

	CategoryID  bigquery.NullInt64  `bigquery:"category_id"` // NULLABLE
	Description bigquery.NullString `bigquery:"description"` // NULLABLE

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED

	CreatedTS time.Time              `bigquery:"created_ts"` // REQUIRED
	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts"` // NULLABLE
}

// ToDomain maps a table row into the domain struct the insight engine
// consumes, resolving the numeric category id to its display name. A NULL
// category stays empty; the engine applies its own sentinel.
func (row *TransactionRow) ToDomain() domain.Transaction {
	var category string
	if row.CategoryID.Valid {
		category = categories.Name(int(row.CategoryID.Int64))
	}

	var description string
	if row.Description.Valid {
		description = row.Description.StringVal
	}

	return domain.Transaction{
		ID:          row.TransactionID,
		UserID:      row.UserID,
		Type:        domain.TransactionType(row.Type),
		Amount:      row.Amount,
		Category:    category,
		Date:        row.TransactionDate.String(),
		Description: description,
	}
}

// QueryTransactionsByUser fetches a user's transactions, optionally
// filtered by an inclusive date range. Returning zero rows is not an
// error.
func (r *Repository) QueryTransactionsByUser(ctx context.Context, userID string, startDate, endDate *time.Time) ([]domain.Transaction, error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`
		SELECT
			transaction_id,
			user_id,
			type,
			amount,
			category_id,
			description,
			transaction_date,
			created_ts,
			updated_ts
		FROM %s.%s
		WHERE user_id = @user_id
	`, datasetID, transactionsTable))

	params := []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	if startDate != nil {
		sb.WriteString(" AND transaction_date >= @start_date")
		params = append(params, bigquery.QueryParameter{Name: "start_date", Value: startDate.Format(dateFormat)})
	}
	if endDate != nil {
		sb.WriteString(" AND transaction_date <= @end_date")
		params = append(params, bigquery.QueryParameter{Name: "end_date", Value: endDate.Format(dateFormat)})
	}

	sb.WriteString(" ORDER BY transaction_date, created_ts")

	q := r.client.Query(sb.String())
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactionsByUser: query read: %w", err)
	}

	var result []domain.Transaction
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryTransactionsByUser: iter next: %w", err)
		}
		result = append(result, row.ToDomain())
	}

	return result, nil
}

// profileRow mirrors the cashflow.user_profiles table. financial_goals is
// stored as a JSON-encoded string array.
type profileRow struct {
	UserID         string              `bigquery:"user_id"`
	Name           bigquery.NullString `bigquery:"name"`
	FinancialGoals bigquery.NullString `bigquery:"financial_goals"`
	RiskTolerance  bigquery.NullString `bigquery:"risk_tolerance"`
}

// GetUserProfile fetches a user's profile. Absence is not an error: the
// caller gets (nil, nil) and generates an unpersonalized report.
func (r *Repository) GetUserProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT user_id, name, financial_goals, risk_tolerance
		FROM %s.%s
		WHERE user_id = @user_id
		LIMIT 1
	`, datasetID, profilesTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetUserProfile: query read: %w", err)
	}

	var row profileRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetUserProfile: iter next: %w", err)
	}

	profile := &domain.UserProfile{UserID: row.UserID}
	if row.Name.Valid {
		profile.Name = row.Name.StringVal
	}
	if row.RiskTolerance.Valid {
		profile.RiskTolerance = row.RiskTolerance.StringVal
	}
	if row.FinancialGoals.Valid && row.FinancialGoals.StringVal != "" {
		var goals []string
		if err := json.Unmarshal([]byte(row.FinancialGoals.StringVal), &goals); err == nil {
			profile.FinancialGoals = goals
		}
	}

	return profile, nil
}
