package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// ReportRow mirrors the cashflow.ai_reports table schema. The full insight
// bundle is stored as JSON alongside a few denormalized headline figures
// for cheap listing queries.
type ReportRow struct {
	ReportID string `bigquery:"report_id"`
	UserID   string `bigquery:"user_id"`

	ReportText        string `bigquery:"report_text"`
	ProcessedInsights string `bigquery:"processed_insights"` // JSON

	StartDate bigquery.NullDate `bigquery:"start_date"`
	EndDate   bigquery.NullDate `bigquery:"end_date"`

	NumTransactions int64   `bigquery:"num_transactions"`
	SavingsRate     float64 `bigquery:"savings_rate"`
	TotalIncome     float64 `bigquery:"total_income"`
	TotalExpenses   float64 `bigquery:"total_expenses"`

	ModelUsed string    `bigquery:"model_used"`
	CreatedTS time.Time `bigquery:"created_ts"`
}

// InsertReport streams a generated report into ai_reports.
func (r *Repository) InsertReport(ctx context.Context, row *ReportRow) error {
	table := r.client.Dataset(datasetID).Table(reportsTable)
	if err := table.Inserter().Put(ctx, row); err != nil {
		return fmt.Errorf("InsertReport: inserting row: %w", err)
	}
	return nil
}

const reportColumns = `
	report_id,
	user_id,
	report_text,
	processed_insights,
	start_date,
	end_date,
	num_transactions,
	savings_rate,
	total_income,
	total_expenses,
	model_used,
	created_ts`

// ListReportsByUser returns a user's reports, newest first.
func (r *Repository) ListReportsByUser(ctx context.Context, userID string, limit, offset int) ([]*ReportRow, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	q := r.client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s.%s
		WHERE user_id = @user_id
		ORDER BY created_ts DESC
		LIMIT @limit OFFSET @offset
	`, reportColumns, datasetID, reportsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "limit", Value: int64(limit)},
		{Name: "offset", Value: int64(offset)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListReportsByUser: query read: %w", err)
	}

	var rows []*ReportRow
	for {
		var row ReportRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListReportsByUser: iter next: %w", err)
		}
		rows = append(rows, &row)
	}

	return rows, nil
}

// GetReport fetches a single report, scoped to the owning user so one user
// cannot read another's reports. Returns (nil, nil) when not found.
func (r *Repository) GetReport(ctx context.Context, userID, reportID string) (*ReportRow, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s.%s
		WHERE report_id = @report_id AND user_id = @user_id
		LIMIT 1
	`, reportColumns, datasetID, reportsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "report_id", Value: reportID},
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetReport: query read: %w", err)
	}

	var row ReportRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetReport: iter next: %w", err)
	}

	return &row, nil
}

// DeleteReport removes a report, scoped to the owning user. The bool
// reports whether a row was actually deleted.
func (r *Repository) DeleteReport(ctx context.Context, userID, reportID string) (bool, error) {
	q := r.client.Query(fmt.Sprintf(`
		DELETE FROM %s.%s
		WHERE report_id = @report_id AND user_id = @user_id
	`, datasetID, reportsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "report_id", Value: reportID},
		{Name: "user_id", Value: userID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return false, fmt.Errorf("DeleteReport: running delete: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return false, fmt.Errorf("DeleteReport: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return false, fmt.Errorf("DeleteReport: job error: %w", err)
	}

	stats, ok := status.Statistics.Details.(*bigquery.QueryStatistics)
	if !ok {
		return true, nil
	}
	return stats.NumDMLAffectedRows > 0, nil
}
