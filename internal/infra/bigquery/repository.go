// Package bigquery implements the persistence layer: transactions and
// user profiles in, generated reports out. All tables live in one dataset;
// the repository holds a shared client so operations do not open a new
// connection each time.
package bigquery

import (
	"context"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/yuvalcohen1/Cash-Flow/internal/domain"
)

const (
	defaultProjectID = "cash-flow-reports"
	datasetID        = "cashflow"

	transactionsTable = "transactions"
	profilesTable     = "user_profiles"
	reportsTable      = "ai_reports"

	dateFormat = "2006-01-02"
)

// projectID resolves the GCP project, preferring the environment so
// deployments do not need a code change.
func projectID() string {
	if p := os.Getenv("BIGQUERY_PROJECT"); p != "" {
		return p
	}
	return defaultProjectID
}

// TransactionSource supplies the analytics pipeline's inputs. Zero
// transactions for a range is a valid, non-error outcome; an absent
// profile returns (nil, nil).
type TransactionSource interface {
	QueryTransactionsByUser(ctx context.Context, userID string, startDate, endDate *time.Time) ([]domain.Transaction, error)
	GetUserProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
}

// ReportStore persists and retrieves generated reports.
type ReportStore interface {
	InsertReport(ctx context.Context, row *ReportRow) error
	ListReportsByUser(ctx context.Context, userID string, limit, offset int) ([]*ReportRow, error)
	GetReport(ctx context.Context, userID, reportID string) (*ReportRow, error)
	DeleteReport(ctx context.Context, userID, reportID string) (bool, error)
}

// Repository is the concrete BigQuery-backed implementation of both
// TransactionSource and ReportStore.
type Repository struct {
	client *bigquery.Client
}

// NewRepository creates a repository with a shared BigQuery client.
func NewRepository(ctx context.Context) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID())
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return &Repository{client: client}, nil
}

// Close releases the underlying client. Call it when the repository is no
// longer needed.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

var (
	_ TransactionSource = (*Repository)(nil)
	_ ReportStore       = (*Repository)(nil)
)
