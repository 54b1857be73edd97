package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/yuvalcohen1/Cash-Flow/internal/gcsarchive"
	infraBQ "github.com/yuvalcohen1/Cash-Flow/internal/infra/bigquery"
	"github.com/yuvalcohen1/Cash-Flow/internal/jobs"
	"github.com/yuvalcohen1/Cash-Flow/internal/jobs/inmemory"
	"github.com/yuvalcohen1/Cash-Flow/internal/logger"
	"github.com/yuvalcohen1/Cash-Flow/internal/notionexport"
	"github.com/yuvalcohen1/Cash-Flow/internal/report"
)

func main() {
	_ = godotenv.Load()

	var (
		model      = flag.String("model", os.Getenv("GEMINI_MODEL"), "Gemini model name (or set GEMINI_MODEL env)")
		bucket     = flag.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for report archives (or set GCS_BUCKET env)")
		notionDBID = flag.String("notion-db-id", os.Getenv("NOTION_REPORTS_DB"), "Notion reports database ID (or set NOTION_REPORTS_DB env)")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	repo, err := infraBQ.NewRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	defer repo.Close()

	serviceCfg := report.ServiceConfig{
		Source:    repo,
		Store:     repo,
		Generator: report.NewGenerator(report.NewGeminiClient(*model)),
	}
	if *bucket != "" {
		serviceCfg.Archiver = gcsarchive.NewGCSArchiver()
		serviceCfg.Bucket = *bucket
	}
	if token := os.Getenv("NOTION_TOKEN"); token != "" && *notionDBID != "" {
		serviceCfg.Notion = notionexport.NewNotionClient(token)
		serviceCfg.NotionDatabase = *notionDBID
	}
	service := report.NewService(serviceCfg)

	// Initialize job store and queue
	// In production, this would be replaced with Cloud Tasks or Pub/Sub
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	log.Info().Msg("Starting worker service")

	// Start consuming jobs
	if err := jobQueue.Start(ctx, newReportJobHandler(service, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	// Cancel context to stop workers
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop the queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	// Close the queue
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Worker service exited")
}

// newReportJobHandler builds the queue handler that runs report generation
// jobs through the service.
func newReportJobHandler(service *report.Service, log zerolog.Logger) jobs.JobHandler {
	return func(ctx context.Context, job jobs.Job) error {
		reportJob, ok := job.(*jobs.GenerateReportJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", reportJob.JobID).
			Str("user_id", reportJob.UserID).
			Msg("Processing report generation job")

		startDate, err := parseOptionalDate(reportJob.StartDate)
		if err != nil {
			return fmt.Errorf("invalid start_date: %w", err)
		}
		endDate, err := parseOptionalDate(reportJob.EndDate)
		if err != nil {
			return fmt.Errorf("invalid end_date: %w", err)
		}

		stored, err := service.GenerateAndStore(ctx, reportJob.UserID, startDate, endDate)
		if err != nil {
			log.Error().
				Err(err).
				Str("job_id", reportJob.JobID).
				Str("user_id", reportJob.UserID).
				Msg("Report generation failed")
			return err
		}

		reportJob.ReportID = stored.ReportID

		log.Info().
			Str("job_id", reportJob.JobID).
			Str("report_id", stored.ReportID).
			Msg("Report generation completed successfully")

		return nil
	}
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
