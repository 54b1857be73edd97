package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/yuvalcohen1/Cash-Flow/internal/gcsarchive"
	infraBQ "github.com/yuvalcohen1/Cash-Flow/internal/infra/bigquery"
	"github.com/yuvalcohen1/Cash-Flow/internal/logger"
	"github.com/yuvalcohen1/Cash-Flow/internal/notionexport"
)

// ErrNoTransactions is returned when a user has no transactions in the
// requested window. The API maps it to 404.
var ErrNoTransactions = errors.New("no transactions found for user")

// StoredReport is the outcome of a full generation run: the model result
// plus where it was persisted.
type StoredReport struct {
	ReportID string `json:"report_id"`
	*Result
	GCSURI       string `json:"gcs_uri,omitempty"`
	NotionPageID string `json:"notion_page_id,omitempty"`
}

// ServiceConfig wires the service's dependencies. Archiver and Notion may
// be left unset to disable those destinations.
type ServiceConfig struct {
	Source    infraBQ.TransactionSource
	Store     infraBQ.ReportStore
	Generator *Generator

	Archiver gcsarchive.Archiver
	Bucket   string

	Notion         notionexport.NotionService
	NotionDatabase string
}

// Service runs the end-to-end report flow: load transactions, generate
// the report, persist it, and optionally archive the narrative to GCS and
// publish it to Notion. Archive and Notion are best-effort: their
// failures are logged, not propagated.
type Service struct {
	cfg ServiceConfig
}

// NewService creates a report service from its configuration.
func NewService(cfg ServiceConfig) *Service {
	return &Service{cfg: cfg}
}

// GenerateAndStore runs the whole flow for one user and date window.
// startDate and endDate are optional bounds; nil means unbounded.
func (s *Service) GenerateAndStore(ctx context.Context, userID string, startDate, endDate *time.Time) (*StoredReport, error) {
	log := logger.FromContext(ctx)

	transactions, err := s.cfg.Source.QueryTransactionsByUser(ctx, userID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("GenerateAndStore: loading transactions: %w", err)
	}
	if len(transactions) == 0 {
		return nil, ErrNoTransactions
	}

	profile, err := s.cfg.Source.GetUserProfile(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to load user profile, generating without it")
		profile = nil
	}

	result, err := s.cfg.Generator.Generate(ctx, transactions, profile)
	if err != nil {
		return nil, fmt.Errorf("GenerateAndStore: %w", err)
	}
	result.Metadata.UserID = userID

	row, err := buildReportRow(userID, result, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("GenerateAndStore: %w", err)
	}

	if err := s.cfg.Store.InsertReport(ctx, row); err != nil {
		return nil, fmt.Errorf("GenerateAndStore: persisting report: %w", err)
	}

	stored := &StoredReport{
		ReportID: row.ReportID,
		Result:   result,
	}

	if s.cfg.Archiver != nil && s.cfg.Bucket != "" {
		objectName := gcsarchive.ObjectName(userID, row.ReportID, row.CreatedTS)
		uri, err := s.cfg.Archiver.UploadReportText(ctx, s.cfg.Bucket, objectName, result.AIReport)
		if err != nil {
			log.Warn().Err(err).Str("report_id", row.ReportID).Msg("Failed to archive report text to GCS")
		} else {
			stored.GCSURI = uri
		}
	}

	if s.cfg.Notion != nil && s.cfg.NotionDatabase != "" {
		pageID, err := notionexport.ExportReport(ctx, s.cfg.Notion, s.cfg.NotionDatabase, row)
		if err != nil {
			log.Warn().Err(err).Str("report_id", row.ReportID).Msg("Failed to export report to Notion")
		} else {
			stored.NotionPageID = pageID
		}
	}

	log.Info().
		Str("report_id", row.ReportID).
		Str("user_id", userID).
		Int("num_transactions", len(transactions)).
		Msg("Report generated and stored")

	return stored, nil
}

// buildReportRow flattens a generation result into the ai_reports schema.
func buildReportRow(userID string, result *Result, startDate, endDate *time.Time) (*infraBQ.ReportRow, error) {
	insightsJSON, err := json.Marshal(result.ProcessedInsights)
	if err != nil {
		return nil, fmt.Errorf("encoding insights: %w", err)
	}

	row := &infraBQ.ReportRow{
		ReportID:          uuid.New().String(),
		UserID:            userID,
		ReportText:        result.AIReport,
		ProcessedInsights: string(insightsJSON),
		NumTransactions:   int64(result.Metadata.NumTransactions),
		ModelUsed:         result.ModelUsed,
		CreatedTS:         result.Metadata.GeneratedAt,
	}

	summary := result.ProcessedInsights.Summary
	row.SavingsRate = summary.SavingsRate
	row.TotalIncome = summary.TotalIncome
	row.TotalExpenses = summary.TotalExpenses

	if startDate != nil {
		row.StartDate = bigquery.NullDate{Date: civil.DateOf(*startDate), Valid: true}
	}
	if endDate != nil {
		row.EndDate = bigquery.NullDate{Date: civil.DateOf(*endDate), Valid: true}
	}

	return row, nil
}
