// Package notionexport publishes generated financial reports to a Notion
// database so they can be browsed outside the API. Export is idempotent:
// a report already present in Notion is updated in place rather than
// duplicated.
package notionexport

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/yuvalcohen1/Cash-Flow/internal/infra/bigquery"
	"github.com/yuvalcohen1/Cash-Flow/internal/logger"
)

// ExportReport publishes a single report to the Notion reports database.
// If a page with the same report ID already exists it is updated instead
// of creating a duplicate. Returns the Notion page ID.
func ExportReport(ctx context.Context, notionClient NotionService, notionDBID string, row *bigquery.ReportRow) (string, error) {
	log := logger.FromContext(ctx)

	if row == nil || row.ReportID == "" {
		return "", fmt.Errorf("ExportReport: report row with report_id is required")
	}

	existingPageID, err := findReportPage(ctx, notionClient, notionDBID, row.ReportID)
	if err != nil {
		return "", fmt.Errorf("ExportReport: %w", err)
	}

	props := ReportToNotionProperties(row)

	if existingPageID != "" {
		page, err := notionClient.UpdatePage(ctx, existingPageID, props)
		if err != nil {
			return "", fmt.Errorf("ExportReport: updating page: %w", err)
		}
		log.Info().
			Str("report_id", row.ReportID).
			Str("page_id", string(page.ID)).
			Msg("Updated Notion page for report")
		return string(page.ID), nil
	}

	page, err := notionClient.CreatePage(ctx, notionDBID, props)
	if err != nil {
		return "", fmt.Errorf("ExportReport: creating page: %w", err)
	}
	log.Info().
		Str("report_id", row.ReportID).
		Str("page_id", string(page.ID)).
		Msg("Created Notion page for report")

	return string(page.ID), nil
}

// findReportPage looks up the Notion page holding the given report ID.
// Returns empty string when no page exists yet.
func findReportPage(ctx context.Context, notionClient NotionService, databaseID, reportID string) (string, error) {
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return "", fmt.Errorf("findReportPage: %w", err)
		}

		for _, page := range resp.Results {
			if extractReportID(page) == reportID {
				return string(page.ID), nil
			}
		}

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return "", nil
}
