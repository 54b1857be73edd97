package notionexport

import (
	"time"

	"github.com/jomei/notionapi"

	"github.com/yuvalcohen1/Cash-Flow/internal/infra/bigquery"
)

// notionRichTextLimit is the Notion API cap on a single rich_text content block.
const notionRichTextLimit = 2000

// ReportToNotionProperties converts a stored report row to Notion page
// properties for the Reports database.
func ReportToNotionProperties(row *bigquery.ReportRow) notionapi.Properties {
	props := notionapi.Properties{
		"Report ID": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: row.ReportID,
					},
				},
			},
		},
		"User": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: row.UserID,
					},
				},
			},
		},
		"Transactions": notionapi.NumberProperty{
			Number: float64(row.NumTransactions),
		},
		"Savings Rate": notionapi.NumberProperty{
			Number: row.SavingsRate,
		},
		"Total Income": notionapi.NumberProperty{
			Number: row.TotalIncome,
		},
		"Total Expenses": notionapi.NumberProperty{
			Number: row.TotalExpenses,
		},
	}

	// Generated timestamp
	if !row.CreatedTS.IsZero() {
		props["Generated"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: (*notionapi.Date)(&row.CreatedTS),
			},
		}
	}

	// Period Start
	if row.StartDate.Valid {
		props["Period Start"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: notionDateFromParts(
					row.StartDate.Date.Year,
					row.StartDate.Date.Month,
					row.StartDate.Date.Day,
				),
			},
		}
	}

	// Period End
	if row.EndDate.Valid {
		props["Period End"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: notionDateFromParts(
					row.EndDate.Date.Year,
					row.EndDate.Date.Month,
					row.EndDate.Date.Day,
				),
			},
		}
	}

	// Model
	if row.ModelUsed != "" {
		props["Model"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: row.ModelUsed,
			},
		}
	}

	// Narrative text, truncated to the Notion content cap
	if row.ReportText != "" {
		text := row.ReportText
		if len(text) > notionRichTextLimit {
			text = text[:notionRichTextLimit]
		}
		props["Report"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: text,
					},
				},
			},
		}
	}

	return props
}

// notionDateFromParts builds a Notion date from year/month/day.
func notionDateFromParts(year int, month time.Month, day int) *notionapi.Date {
	d := notionapi.Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
	return &d
}

// extractReportID extracts the report ID from a Notion page's title property.
// Returns empty string if not found.
func extractReportID(page notionapi.Page) string {
	if prop, ok := page.Properties["Report ID"]; ok {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			if len(title.Title) > 0 {
				return title.Title[0].PlainText
			}
		}
	}
	return ""
}
