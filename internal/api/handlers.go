// Package api provides HTTP API handlers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/tendorai/avp/internal/cache"
	"github.com/tendorai/avp/internal/config"
	"github.com/tendorai/avp/internal/database"
	"github.com/tendorai/avp/internal/llm"
	"github.com/tendorai/avp/internal/metrics"
	"github.com/tendorai/avp/internal/models"
	"github.com/tendorai/avp/internal/pipeline"
	"github.com/tendorai/avp/internal/research"
	"github.com/tendorai/avp/internal/scheduler"
)

// Generator runs the report pipeline.
type Generator interface {
	Generate(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
	ReportURL(id string) string
}

// LiveTester asks every assistant about a vendor right now.
type LiveTester interface {
	LiveTest(ctx context.Context, vendorID string, t models.Triple, scanDate time.Time) []models.MentionScanRecord
}

// Handler contains all HTTP handlers.
type Handler struct {
	generator Generator
	store     database.Store
	cache     cache.ReportCache
	live      LiveTester
	metrics   http.Handler
	reports   config.ReportsConfig
	now       func() time.Time
}

// NewHandler creates a new handler.
func NewHandler(generator Generator, store database.Store, reports config.ReportsConfig) *Handler {
	return &Handler{
		generator: generator,
		store:     store,
		reports:   reports,
		now:       time.Now,
	}
}

// WithCache serves public report JSON through c.
func (h *Handler) WithCache(c cache.ReportCache) *Handler {
	h.cache = c
	return h
}

// WithLiveTester enables the admin live-test route.
func (h *Handler) WithLiveTester(l LiveTester) *Handler {
	h.live = l
	return h
}

// WithMetrics exposes m at /metrics.
func (h *Handler) WithMetrics(m http.Handler) *Handler {
	h.metrics = m
	return h
}

type reportResponse struct {
	Success   bool   `json:"success"`
	ReportID  string `json:"reportId,omitempty"`
	ReportURL string `json:"reportUrl,omitempty"`
	Error     string `json:"error,omitempty"`
	Hint      string `json:"hint,omitempty"`
}

// HealthCheck returns the service health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// GenerateReport runs the pipeline synchronously for one triple. A caller may
// hold at most one report per cooldown window; a repeat request is pointed at the
// report it already has.
func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	var req models.ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, reportResponse{Error: "Invalid request body"})
		return
	}

	t := req.Triple()
	if err := research.ValidateTriple(t); err != nil {
		writeJSON(w, http.StatusBadRequest, reportResponse{Error: err.Error()})
		return
	}

	ip := clientIP(r)
	if h.reports.IPCooldown > 0 {
		now := h.now().UTC()
		prev, err := h.store.LatestReportByIP(r.Context(), ip, now.Add(-h.reports.IPCooldown))
		if err != nil {
			log.Error().Err(err).Str("ip", ip).Msg("Failed to check recent reports")
			writeJSON(w, http.StatusInternalServerError, reportResponse{Error: "Failed to generate report"})
			return
		}
		if prev != nil {
			wait := prev.CreatedAt.Add(h.reports.IPCooldown).Sub(now)
			writeJSON(w, http.StatusTooManyRequests, reportResponse{
				ReportID:  prev.ID,
				ReportURL: h.generator.ReportURL(prev.ID),
				Error:     "Report limit reached",
				Hint:      cooldownHint(wait),
			})
			return
		}
	}

	// The client may disconnect; the report is still worth finishing and storing.
	ctx := context.WithoutCancel(r.Context())
	res, err := h.generator.Generate(ctx, pipeline.Request{
		Triple:     t,
		ReportType: req.ReportType,
		VendorID:   req.VendorID,
		IPAddress:  ip,
		Source:     metrics.SourceAPI,
	})
	if err != nil {
		status, msg := errorStatus(err)
		log.Error().Err(err).Str("company", t.CompanyName).Int("status", status).Msg("Report generation failed")
		writeJSON(w, status, reportResponse{Error: msg})
		return
	}

	h.remember(ctx, res)
	writeJSON(w, http.StatusOK, reportResponse{Success: true, ReportID: res.ID, ReportURL: res.URL})
}

// GenerateBatch generates reports one after another with a pause between items.
// Every item gets a result; one failure does not stop the batch.
func (h *Handler) GenerateBatch(w http.ResponseWriter, r *http.Request) {
	var req models.BatchReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Reports) == 0 {
		writeError(w, http.StatusBadRequest, "reports is required")
		return
	}
	if h.reports.BatchMax > 0 && len(req.Reports) > h.reports.BatchMax {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Maximum %d reports per batch", h.reports.BatchMax))
		return
	}

	ctx := context.WithoutCancel(r.Context())
	pacer := llm.NewPacer(h.reports.BatchPause)
	results := make([]models.BatchItemResult, 0, len(req.Reports))
	succeeded := 0

	for _, item := range req.Reports {
		_ = pacer.Wait(ctx)

		t := item.Triple()
		out := models.BatchItemResult{CompanyName: t.CompanyName}
		res, err := h.generator.Generate(ctx, pipeline.Request{
			Triple:     t,
			ReportType: item.ReportType,
			VendorID:   item.VendorID,
			Source:     metrics.SourceBatch,
		})
		if err != nil {
			_, out.Error = errorStatus(err)
			log.Warn().Err(err).Str("company", t.CompanyName).Msg("Batch item failed")
		} else {
			out.Success = true
			out.ReportID = res.ID
			out.Score = models.IntPtr(res.Report.Score)
			succeeded++
			h.remember(ctx, res)
		}
		pacer.Done()
		results = append(results, out)
	}

	log.Info().Int("total", len(results)).Int("succeeded", succeeded).Msg("Batch generation complete")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"results":   results,
		"succeeded": succeeded,
		"failed":    len(results) - succeeded,
	})
}

// GetReport returns a report without its PDF or requester address.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !database.ValidReportID(id) {
		writeError(w, http.StatusNotFound, "Report not found")
		return
	}

	if h.cache != nil {
		if report, ok := h.cache.Get(r.Context(), id); ok {
			writeJSON(w, http.StatusOK, models.PersistedReport{ReportData: *report, ID: id})
			return
		}
	}

	report, err := h.store.GetReport(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to get report")
		writeError(w, http.StatusInternalServerError, "Failed to get report")
		return
	}
	if report == nil {
		writeError(w, http.StatusNotFound, "Report not found")
		return
	}
	if h.cache != nil {
		h.cache.Set(r.Context(), id, report)
	}

	writeJSON(w, http.StatusOK, models.PersistedReport{ReportData: *report, ID: id})
}

// GetReportPDF streams the stored PDF.
func (h *Handler) GetReportPDF(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !database.ValidReportID(id) {
		writeError(w, http.StatusNotFound, "Report not found")
		return
	}

	report, err := h.store.GetPersisted(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to get report PDF")
		writeError(w, http.StatusInternalServerError, "Failed to get report")
		return
	}
	if report == nil || len(report.PDF) == 0 {
		writeError(w, http.StatusNotFound, "Report not found")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, PDFFilename(report.CompanyName)))
	w.Header().Set("Content-Length", strconv.Itoa(len(report.PDF)))
	w.WriteHeader(http.StatusOK)
	w.Write(report.PDF)
}

// LiveTest queries every assistant for a vendor and stores the outcome as
// live_test mention records.
func (h *Handler) LiveTest(w http.ResponseWriter, r *http.Request) {
	if h.live == nil {
		writeError(w, http.StatusNotImplemented, "Live tests are not configured")
		return
	}

	vendor, ok := h.vendor(w, r)
	if !ok {
		return
	}
	category, city, ok := scheduler.Target(*vendor)
	if !ok {
		writeError(w, http.StatusBadRequest, "Vendor has no category or city")
		return
	}

	ctx := context.WithoutCancel(r.Context())
	t := models.Triple{CompanyName: vendor.Company, Category: category, City: city}
	records := h.live.LiveTest(ctx, vendor.ID, t, h.now().UTC().Truncate(time.Second))

	inserted, err := h.store.InsertMentionScans(ctx, records)
	if err != nil {
		log.Error().Err(err).Str("vendor_id", vendor.ID).Int("inserted", inserted).Msg("Failed to store live test")
	}

	mentioned := 0
	for _, rec := range records {
		if rec.Mentioned {
			mentioned++
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"vendorId":  vendor.ID,
		"results":   records,
		"mentioned": mentioned,
		"inserted":  inserted,
	})
}

// ListMentions returns a vendor's most recent mention records.
func (h *Handler) ListMentions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	records, err := h.store.ListMentionScans(r.Context(), id, limit)
	if err != nil {
		log.Error().Err(err).Str("vendor_id", id).Msg("Failed to list mentions")
		writeError(w, http.StatusInternalServerError, "Failed to list mentions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"vendorId": id,
		"mentions": records,
		"limit":    limit,
	})
}

// DeleteVendorReports removes every report and mention record for a vendor.
func (h *Handler) DeleteVendorReports(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ids, err := h.store.ListByVendor(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("vendor_id", id).Msg("Failed to list vendor reports")
		writeError(w, http.StatusInternalServerError, "Failed to delete reports")
		return
	}
	if err := h.store.DeleteByVendor(r.Context(), id); err != nil {
		log.Error().Err(err).Str("vendor_id", id).Msg("Failed to delete vendor reports")
		writeError(w, http.StatusInternalServerError, "Failed to delete reports")
		return
	}
	if h.cache != nil && len(ids) > 0 {
		h.cache.Delete(r.Context(), ids...)
	}

	log.Info().Str("vendor_id", id).Int("reports", len(ids)).Msg("Vendor reports deleted")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"deleted": len(ids),
	})
}

func (h *Handler) vendor(w http.ResponseWriter, r *http.Request) (*models.Vendor, bool) {
	id := chi.URLParam(r, "id")
	v, err := h.store.GetVendor(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("vendor_id", id).Msg("Failed to get vendor")
		writeError(w, http.StatusInternalServerError, "Failed to get vendor")
		return nil, false
	}
	if v == nil {
		writeError(w, http.StatusNotFound, "Vendor not found")
		return nil, false
	}
	return v, true
}

func (h *Handler) remember(ctx context.Context, res *pipeline.Result) {
	if h.cache != nil && res.Report != nil {
		h.cache.Set(ctx, res.ID, res.Report)
	}
}

// errorStatus maps a pipeline error to a status and a client-safe message.
func errorStatus(err error) (int, string) {
	var validation *models.ValidationError
	if errors.As(err, &validation) {
		return http.StatusBadRequest, validation.Error()
	}
	var rateLimit *models.RateLimitError
	if errors.As(err, &rateLimit) {
		return http.StatusTooManyRequests, "AI provider is busy, please try again shortly"
	}
	return http.StatusInternalServerError, "Failed to generate report"
}

func cooldownHint(wait time.Duration) string {
	minutes := int(math.Ceil(wait.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	unit := "minutes"
	if minutes == 1 {
		unit = "minute"
	}
	return fmt.Sprintf("You already requested a report in the last hour. Your previous report is still available; you can request another in %d %s.", minutes, unit)
}

// PDFFilename is the download name for a company's report.
func PDFFilename(companyName string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.TrimSpace(companyName) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		slug = "Report"
	}
	return "AEO-Report-" + slug + ".pdf"
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
