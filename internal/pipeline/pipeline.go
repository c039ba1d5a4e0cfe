// Package pipeline turns a report request into a stored, rendered report:
// research, optional platform checks, render, then persist.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tendorai/avp/internal/models"
	"github.com/tendorai/avp/internal/platform"
	"github.com/tendorai/avp/internal/research"
)

const maxAIPosition = 10

// Researcher produces a scored report for a triple.
type Researcher interface {
	GenerateFullReport(ctx context.Context, t models.Triple, rt models.ReportType) (*models.ReportData, error)
}

// PlatformChecker asks every consumer assistant about a triple.
type PlatformChecker interface {
	QueryAll(ctx context.Context, t models.Triple) []models.MentionResult
}

// Renderer lays a report out as PDF.
type Renderer interface {
	Render(report *models.ReportData) ([]byte, error)
}

// ReportStore persists finished reports.
type ReportStore interface {
	PutReport(ctx context.Context, report *models.PersistedReport) (string, error)
}

// Observer records generation outcomes.
type Observer interface {
	ObserveReport(source string, err error, elapsed time.Duration)
}

// Request describes one report to generate.
type Request struct {
	Triple     models.Triple
	ReportType models.ReportType
	VendorID   string
	IPAddress  string
	// Source labels the caller in logs and metrics.
	Source string
}

// Result is a stored report.
type Result struct {
	ID     string
	URL    string
	Report *models.ReportData
	PDF    []byte
}

// Pipeline generates reports end to end.
type Pipeline struct {
	researcher  Researcher
	platforms   PlatformChecker
	renderer    Renderer
	store       ReportStore
	observer    Observer
	frontendURL string
}

// New creates a pipeline.
func New(researcher Researcher, renderer Renderer, store ReportStore, frontendURL string) *Pipeline {
	return &Pipeline{
		researcher:  researcher,
		renderer:    renderer,
		store:       store,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// WithPlatforms embeds consumer assistant results in every report.
func (p *Pipeline) WithPlatforms(c PlatformChecker) *Pipeline {
	p.platforms = c
	return p
}

// WithObserver attaches an outcome observer.
func (p *Pipeline) WithObserver(o Observer) *Pipeline {
	p.observer = o
	return p
}

// ReportURL is the public page for a report id.
func (p *Pipeline) ReportURL(id string) string {
	return p.frontendURL + "/aeo-report/" + id
}

// Generate runs the full pipeline. The store write is the last step, so a
// failure anywhere leaves nothing behind.
func (p *Pipeline) Generate(ctx context.Context, req Request) (res *Result, err error) {
	start := time.Now()
	defer func() {
		if p.observer != nil {
			p.observer.ObserveReport(req.Source, err, time.Since(start))
		}
	}()

	t := req.Triple.Normalize()
	if err := research.ValidateTriple(t); err != nil {
		return nil, err
	}
	rt := req.ReportType
	if rt == "" {
		rt = models.ReportTypeFull
	}
	logger := log.With().Str("company", t.CompanyName).Str("category", t.Category).Str("city", t.City).Str("source", req.Source).Logger()

	logger.Info().Msg("Step 1: Researching company")
	report, err := p.researcher.GenerateFullReport(ctx, t, rt)
	if err != nil {
		return nil, err
	}

	if p.platforms != nil {
		logger.Info().Msg("Step 2: Checking AI assistants")
		report.PlatformResults = p.platforms.QueryAll(ctx, t)
		applyPlatformResults(report)
	}

	logger.Info().Msg("Step 3: Rendering PDF")
	pdf, err := p.renderer.Render(report)
	if err != nil {
		return nil, err
	}

	logger.Info().Msg("Step 4: Persisting report")
	id, err := p.store.PutReport(ctx, &models.PersistedReport{
		ReportData: *report,
		VendorID:   req.VendorID,
		PDF:        pdf,
		IPAddress:  req.IPAddress,
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("id", id).
		Int("score", report.Score).
		Bool("ai_mentioned", report.AIMentioned).
		Dur("duration", time.Since(start)).
		Msg("Report generated")

	return &Result{ID: id, URL: p.ReportURL(id), Report: report, PDF: pdf}, nil
}

// applyPlatformResults lets real assistant answers override the simulated
// mention when at least one platform answered.
func applyPlatformResults(report *models.ReportData) {
	answered := false
	for _, r := range report.PlatformResults {
		if r.Error == nil {
			answered = true
			break
		}
	}
	if !answered {
		return
	}

	best, mentioned := platform.BestPosition(report.PlatformResults)
	report.AIMentioned = mentioned
	if !mentioned {
		report.AIPosition = nil
		return
	}
	switch {
	case best != nil:
		report.AIPosition = models.IntPtr(min(*best, maxAIPosition))
	case report.AIPosition == nil:
		report.AIPosition = models.IntPtr(maxAIPosition)
	}
}
