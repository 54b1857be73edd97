package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/yuvalcohen1/Cash-Flow/internal/api/handlers"
	"github.com/yuvalcohen1/Cash-Flow/internal/api/middleware"
	"github.com/yuvalcohen1/Cash-Flow/internal/gcsarchive"
	infraBQ "github.com/yuvalcohen1/Cash-Flow/internal/infra/bigquery"
	"github.com/yuvalcohen1/Cash-Flow/internal/jobs"
	"github.com/yuvalcohen1/Cash-Flow/internal/jobs/inmemory"
	"github.com/yuvalcohen1/Cash-Flow/internal/logger"
	"github.com/yuvalcohen1/Cash-Flow/internal/notionexport"
	"github.com/yuvalcohen1/Cash-Flow/internal/report"
)

func main() {
	// Load .env if present; real env vars take precedence
	_ = godotenv.Load()

	// Parse command-line flags
	var (
		port       = flag.String("port", "8080", "HTTP server port")
		model      = flag.String("model", os.Getenv("GEMINI_MODEL"), "Gemini model name (or set GEMINI_MODEL env)")
		bucket     = flag.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for report archives (or set GCS_BUCKET env)")
		notionDBID = flag.String("notion-db-id", os.Getenv("NOTION_REPORTS_DB"), "Notion reports database ID (or set NOTION_REPORTS_DB env)")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	jwtSecret := middleware.JWTSecret()
	if jwtSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	if *bucket == "" {
		log.Warn().Msg("No GCS bucket configured - report archiving is disabled")
	}

	// Initialize repositories
	ctx := context.Background()

	repo, err := infraBQ.NewRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	defer repo.Close()

	// Report generation stack
	generator := report.NewGenerator(report.NewGeminiClient(*model))

	serviceCfg := report.ServiceConfig{
		Source:    repo,
		Store:     repo,
		Generator: generator,
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

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	// Start worker in background to process jobs
	workerCtx, cancelWorker := context.WithCancel(logger.WithContext(ctx, log))
	defer cancelWorker()

	// Create job handler for processing report generation jobs
	jobHandler := newReportJobHandler(service, log)

	// Start job consumer in background
	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	// Initialize handlers
	reportsHandler := handlers.NewReportsHandler(service, generator, repo, repo, jobQueue, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	// Create router
	mux := http.NewServeMux()

	// Reports endpoints
	mux.HandleFunc("/api/reports", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			reportsHandler.ListReports(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/reports/generate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			reportsHandler.GenerateReport(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/reports/insights", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			reportsHandler.GetInsights(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/reports/enqueue", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			reportsHandler.EnqueueReport(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/reports/", func(w http.ResponseWriter, r *http.Request) {
		reportID := strings.TrimPrefix(r.URL.Path, "/api/reports/")
		if reportID == "" || strings.Contains(reportID, "/") {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		switch r.Method {
		case http.MethodGet:
			reportsHandler.GetReport(w, r, reportID)
		case http.MethodDelete:
			reportsHandler.DeleteReport(w, r, reportID)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Jobs endpoints
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	authed := middleware.Auth(jwtSecret)(mux)

	// Health check endpoint stays outside auth
	root := http.NewServeMux()
	root.Handle("/api/", authed)
	root.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(root),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Cancel worker context
	cancelWorker()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	// Close job queue
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
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
