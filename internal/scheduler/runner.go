// Package scheduler generates tier reports for vendors on a cron cadence and
// triggers the weekly mention scan.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tendorai/avp/internal/categories"
	"github.com/tendorai/avp/internal/llm"
	"github.com/tendorai/avp/internal/metrics"
	"github.com/tendorai/avp/internal/models"
	"github.com/tendorai/avp/internal/notifications"
	"github.com/tendorai/avp/internal/pipeline"
)

// VendorSource lists vendors on the given tiers.
type VendorSource interface {
	ListVendorsByTier(ctx context.Context, tiers ...models.Tier) ([]models.Vendor, error)
}

// Generator produces and stores one report.
type Generator interface {
	Generate(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Summary tallies one run.
type Summary struct {
	Success int
	Skipped int
	Errors  int
}

// Runner generates reports for every vendor on a tier, one at a time.
type Runner struct {
	vendors   VendorSource
	generator Generator
	notifier  notifications.Notifier
	pacer     llm.Pacer
}

// NewRunner creates a runner that waits pause after each vendor before starting the next.
func NewRunner(vendors VendorSource, generator Generator, notifier notifications.Notifier, pause time.Duration) *Runner {
	if notifier == nil {
		notifier = notifications.LogNotifier{}
	}
	return &Runner{
		vendors:   vendors,
		generator: generator,
		notifier:  notifier,
		pacer:     llm.NewPacer(pause),
	}
}

// WithPacer replaces the pacer that spaces vendors apart.
func (r *Runner) WithPacer(p llm.Pacer) *Runner {
	r.pacer = p
	return r
}

// Target derives the report category and city for a vendor.
func Target(v models.Vendor) (category, city string, ok bool) {
	category, ok = categories.ForVendor(v.PracticeAreas, v.Services)
	if !ok || v.City == "" {
		return "", "", false
	}
	return category, v.City, true
}

// Run generates a report for each vendor on tier. Cancelling ctx stops the run
// before the next vendor; the in-flight vendor always completes.
func (r *Runner) Run(ctx context.Context, tier models.Tier) (Summary, error) {
	var sum Summary
	vendors, err := r.vendors.ListVendorsByTier(ctx, tier)
	if err != nil {
		return sum, fmt.Errorf("failed to list %s vendors: %w", tier, err)
	}
	log.Info().Str("tier", string(tier)).Int("vendors", len(vendors)).Msg("Scheduled report run started")

	work := context.WithoutCancel(ctx)
	for i, v := range vendors {
		if err := r.pacer.Wait(ctx); err != nil {
			log.Warn().Int("remaining", len(vendors)-i).Msg("Scheduled report run interrupted")
			break
		}
		r.runVendor(work, v, &sum)
		r.pacer.Done()
	}

	log.Info().
		Str("tier", string(tier)).
		Int("success", sum.Success).
		Int("skipped", sum.Skipped).
		Int("errors", sum.Errors).
		Msg("Scheduled report run complete")
	return sum, nil
}

func (r *Runner) runVendor(ctx context.Context, v models.Vendor, sum *Summary) {
	logger := log.With().Str("vendor", v.ID).Str("company", v.Company).Logger()

	category, city, ok := Target(v)
	if !ok {
		sum.Skipped++
		logger.Info().Msg("Skipping vendor without category or city")
		return
	}

	res, err := r.generator.Generate(ctx, pipeline.Request{
		Triple:     models.Triple{CompanyName: v.Company, Category: category, City: city, Email: v.Email},
		ReportType: models.ReportTypeFull,
		VendorID:   v.ID,
		Source:     metrics.SourceScheduled,
	})
	if err != nil {
		sum.Errors++
		logger.Error().Err(err).Msg("Scheduled report failed")
		return
	}
	sum.Success++
	logger.Info().Str("report", res.ID).Int("score", res.Report.Score).Msg("Scheduled report generated")

	if v.Email == "" {
		return
	}
	if err := r.notifier.SendReportLink(ctx, v.Email, v.Company, res.URL); err != nil {
		logger.Warn().Err(err).Msg("Report email failed")
	}
}
