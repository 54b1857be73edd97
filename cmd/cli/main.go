package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/yuvalcohen1/Cash-Flow/internal/domain"
	"github.com/yuvalcohen1/Cash-Flow/internal/gcsarchive"
	infraBQ "github.com/yuvalcohen1/Cash-Flow/internal/infra/bigquery"
	"github.com/yuvalcohen1/Cash-Flow/internal/logger"
	"github.com/yuvalcohen1/Cash-Flow/internal/notionexport"
	"github.com/yuvalcohen1/Cash-Flow/internal/report"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "insights":
		runInsights(log)
	case "prompt":
		runPrompt(log)
	case "generate":
		runGenerate(log)
	case "export-notion":
		runExportNotion(log)
	case "fetch-archive":
		runFetchArchive(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Cash-Flow CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  insights       Compute the insight bundle from a transactions file")
	fmt.Println("  prompt         Print the model prompt built from a transactions file")
	fmt.Println("  generate       Generate a full AI report from a transactions file")
	fmt.Println("  export-notion  Export a stored report to a Notion database")
	fmt.Println("  fetch-archive  Fetch archived report text from GCS")
	fmt.Println("  help           Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// loadInput reads transactions (required) and an optional user profile
// from JSON files.
func loadInput(transactionsPath, profilePath string) ([]domain.Transaction, *domain.UserProfile, error) {
	data, err := os.ReadFile(transactionsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading transactions file: %w", err)
	}

	var transactions []domain.Transaction
	if err := json.Unmarshal(data, &transactions); err != nil {
		return nil, nil, fmt.Errorf("decoding transactions file: %w", err)
	}

	var profile *domain.UserProfile
	if profilePath != "" {
		data, err := os.ReadFile(profilePath)
		if err != nil {
			return nil, nil, fmt.Errorf("reading profile file: %w", err)
		}
		profile = &domain.UserProfile{}
		if err := json.Unmarshal(data, profile); err != nil {
			return nil, nil, fmt.Errorf("decoding profile file: %w", err)
		}
	}

	return transactions, profile, nil
}

func runInsights(log zerolog.Logger) {
	fs := flag.NewFlagSet("insights", flag.ExitOnError)
	transactionsPath := fs.String("file", "", "Path to transactions JSON file")
	profilePath := fs.String("profile", "", "Path to user profile JSON file (optional)")
	fs.Parse(os.Args[2:])

	if *transactionsPath == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	transactions, profile, err := loadInput(*transactionsPath, *profilePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load input")
	}

	gen := report.NewGenerator(nil)
	pkg, err := gen.Build(transactions, profile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to compute insights")
	}

	out, err := json.MarshalIndent(pkg.ProcessedInsights, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode insights")
	}
	fmt.Println(string(out))
}

func runPrompt(log zerolog.Logger) {
	fs := flag.NewFlagSet("prompt", flag.ExitOnError)
	transactionsPath := fs.String("file", "", "Path to transactions JSON file")
	profilePath := fs.String("profile", "", "Path to user profile JSON file (optional)")
	fs.Parse(os.Args[2:])

	if *transactionsPath == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	transactions, profile, err := loadInput(*transactionsPath, *profilePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load input")
	}

	gen := report.NewGenerator(nil)
	pkg, err := gen.Build(transactions, profile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build prompt")
	}

	fmt.Println(pkg.LLMPrompt)
}

func runGenerate(log zerolog.Logger) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	transactionsPath := fs.String("file", "", "Path to transactions JSON file")
	profilePath := fs.String("profile", "", "Path to user profile JSON file (optional)")
	model := fs.String("model", os.Getenv("GEMINI_MODEL"), "Gemini model name (or set GEMINI_MODEL env)")
	fs.Parse(os.Args[2:])

	if *transactionsPath == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	transactions, profile, err := loadInput(*transactionsPath, *profilePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load input")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	gen := report.NewGenerator(report.NewGeminiClient(*model))
	result, err := gen.Generate(ctx, transactions, profile)
	if err != nil {
		log.Fatal().Err(err).Msg("Report generation failed")
	}

	fmt.Println(result.AIReport)
}

func runExportNotion(log zerolog.Logger) {
	fs := flag.NewFlagSet("export-notion", flag.ExitOnError)
	userID := fs.String("user-id", "", "Owner of the report")
	reportID := fs.String("report-id", "", "Report ID to export")
	notionToken := fs.String("notion-token", os.Getenv("NOTION_TOKEN"), "Notion API token (or set NOTION_TOKEN env)")
	notionDBID := fs.String("notion-db-id", os.Getenv("NOTION_REPORTS_DB"), "Notion database ID (or set NOTION_REPORTS_DB env)")
	fs.Parse(os.Args[2:])

	if *userID == "" || *reportID == "" {
		log.Fatal().Msg("Error: --user-id and --report-id are required")
	}
	if *notionToken == "" || *notionDBID == "" {
		log.Fatal().Msg("Error: Notion token and database ID are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	repo, err := infraBQ.NewRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	defer repo.Close()

	row, err := repo.GetReport(ctx, *userID, *reportID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to fetch report")
	}
	if row == nil {
		log.Fatal().Str("report_id", *reportID).Msg("Report not found")
	}

	notionClient := notionexport.NewNotionClient(*notionToken)
	pageID, err := notionexport.ExportReport(ctx, notionClient, *notionDBID, row)
	if err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}

	fmt.Printf("Exported report %s to Notion page %s\n", *reportID, pageID)
}

func runFetchArchive(log zerolog.Logger) {
	fs := flag.NewFlagSet("fetch-archive", flag.ExitOnError)
	gcsURI := fs.String("gcs-uri", "", "gs:// URI of the archived report text")
	fs.Parse(os.Args[2:])

	if *gcsURI == "" {
		log.Fatal().Msg("Error: --gcs-uri is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	archiver := gcsarchive.NewGCSArchiver()
	text, err := archiver.DownloadReportText(ctx, *gcsURI)
	if err != nil {
		log.Fatal().Err(err).Msg("Fetch failed")
	}

	fmt.Println(text)
}
