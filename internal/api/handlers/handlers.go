package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/yuvalcohen1/Cash-Flow/internal/api/middleware"
	infraBQ "github.com/yuvalcohen1/Cash-Flow/internal/infra/bigquery"
	"github.com/yuvalcohen1/Cash-Flow/internal/jobs"
	"github.com/yuvalcohen1/Cash-Flow/internal/report"
)

const dateFormat = "2006-01-02"

// ReportsHandler handles report-related endpoints.
type ReportsHandler struct {
	service   *report.Service
	generator *report.Generator
	source    infraBQ.TransactionSource
	store     infraBQ.ReportStore
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(service *report.Service, generator *report.Generator, source infraBQ.TransactionSource, store infraBQ.ReportStore, publisher jobs.Publisher, log zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{
		service:   service,
		generator: generator,
		source:    source,
		store:     store,
		publisher: publisher,
		log:       log,
	}
}

// dateRangeRequest is the shared request body for generation endpoints.
// Dates are optional YYYY-MM-DD bounds, inclusive.
type dateRangeRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// parse returns the bounds as times, or an error message for a 400.
func (req *dateRangeRequest) parse() (startDate, endDate *time.Time, errMsg string) {
	if req.StartDate != "" {
		t, err := time.Parse(dateFormat, req.StartDate)
		if err != nil {
			return nil, nil, "Invalid start_date format, expected YYYY-MM-DD"
		}
		startDate = &t
	}
	if req.EndDate != "" {
		t, err := time.Parse(dateFormat, req.EndDate)
		if err != nil {
			return nil, nil, "Invalid end_date format, expected YYYY-MM-DD"
		}
		endDate = &t
	}
	return startDate, endDate, ""
}

// GenerateReport handles POST /api/reports/generate
// It runs the full flow synchronously: transactions in, narrative out.
func (h *ReportsHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := middleware.UserIDFromContext(ctx)
	if userID == "" {
		middleware.WriteError(w, http.StatusUnauthorized, "Missing authenticated user")
		return
	}

	var req dateRangeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	startDate, endDate, errMsg := req.parse()
	if errMsg != "" {
		middleware.WriteError(w, http.StatusBadRequest, errMsg)
		return
	}

	stored, err := h.service.GenerateAndStore(ctx, userID, startDate, endDate)
	if err != nil {
		if errors.Is(err, report.ErrNoTransactions) {
			middleware.WriteError(w, http.StatusNotFound, "No transactions found for user")
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to generate report")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to generate report")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, stored)
}

// GetInsights handles POST /api/reports/insights
// It runs the insight engine and prompt builder without calling the model,
// so callers can inspect the numbers and the prompt that would be sent.
func (h *ReportsHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := middleware.UserIDFromContext(ctx)
	if userID == "" {
		middleware.WriteError(w, http.StatusUnauthorized, "Missing authenticated user")
		return
	}

	var req dateRangeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	startDate, endDate, errMsg := req.parse()
	if errMsg != "" {
		middleware.WriteError(w, http.StatusBadRequest, errMsg)
		return
	}

	transactions, err := h.source.QueryTransactionsByUser(ctx, userID, startDate, endDate)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}
	if len(transactions) == 0 {
		middleware.WriteError(w, http.StatusNotFound, "No transactions found for user")
		return
	}

	profile, err := h.source.GetUserProfile(ctx, userID)
	if err != nil {
		h.log.Warn().Err(err).Str("user_id", userID).Msg("Failed to load user profile")
		profile = nil
	}

	pkg, err := h.generator.Build(transactions, profile)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to build insights")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build insights")
		return
	}
	pkg.Metadata.UserID = userID

	middleware.WriteJSON(w, http.StatusOK, pkg)
}

// EnqueueReport handles POST /api/reports/enqueue
// It queues a generation job for asynchronous processing and returns 202.
func (h *ReportsHandler) EnqueueReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := middleware.UserIDFromContext(ctx)
	if userID == "" {
		middleware.WriteError(w, http.StatusUnauthorized, "Missing authenticated user")
		return
	}

	var req dateRangeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	if _, _, errMsg := req.parse(); errMsg != "" {
		middleware.WriteError(w, http.StatusBadRequest, errMsg)
		return
	}

	job := &jobs.GenerateReportJob{
		UserID:    userID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}

	if err := h.publisher.PublishGenerateReport(ctx, job); err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to enqueue report job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue report job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("user_id", userID).Msg("Report job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// ListReports handles GET /api/reports
func (h *ReportsHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := middleware.UserIDFromContext(ctx)
	if userID == "" {
		middleware.WriteError(w, http.StatusUnauthorized, "Missing authenticated user")
		return
	}

	query := r.URL.Query()
	limit, offset := 10, 0
	if v := query.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := query.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}

	rows, err := h.store.ListReportsByUser(ctx, userID, limit, offset)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to list reports")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list reports")
		return
	}

	if rows == nil {
		rows = []*infraBQ.ReportRow{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reports": rows,
		"count":   len(rows),
	})
}

// GetReport handles GET /api/reports/{id}
func (h *ReportsHandler) GetReport(w http.ResponseWriter, r *http.Request, reportID string) {
	ctx := r.Context()

	userID := middleware.UserIDFromContext(ctx)
	if userID == "" {
		middleware.WriteError(w, http.StatusUnauthorized, "Missing authenticated user")
		return
	}

	row, err := h.store.GetReport(ctx, userID, reportID)
	if err != nil {
		h.log.Error().Err(err).Str("report_id", reportID).Msg("Failed to get report")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get report")
		return
	}
	if row == nil {
		middleware.WriteError(w, http.StatusNotFound, "Report not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, row)
}

// DeleteReport handles DELETE /api/reports/{id}
func (h *ReportsHandler) DeleteReport(w http.ResponseWriter, r *http.Request, reportID string) {
	ctx := r.Context()

	userID := middleware.UserIDFromContext(ctx)
	if userID == "" {
		middleware.WriteError(w, http.StatusUnauthorized, "Missing authenticated user")
		return
	}

	deleted, err := h.store.DeleteReport(ctx, userID, reportID)
	if err != nil {
		h.log.Error().Err(err).Str("report_id", reportID).Msg("Failed to delete report")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete report")
		return
	}
	if !deleted {
		middleware.WriteError(w, http.StatusNotFound, "Report not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"report_id": reportID,
		"status":    "deleted",
	})
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	if userID := middleware.UserIDFromContext(ctx); userID != "" && job.UserID != userID {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		UserID: middleware.UserIDFromContext(ctx),
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
