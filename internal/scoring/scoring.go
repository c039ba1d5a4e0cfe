// Package scoring computes the 0..100 AI visibility score from research signals.
package scoring

import (
	"math"

	"github.com/tendorai/avp/internal/models"
)

// MaxDimension is the ceiling of every breakdown dimension.
const MaxDimension = 17

const maxSum = 6 * MaxDimension

// Signals are the boolean and small-integer features scoring reads.
type Signals struct {
	Website               bool
	HasReviews            bool
	HasPricing            bool
	HasBrands             bool
	HasStructuredData     bool
	HasDetailedServices   bool
	HasSocialMedia        bool
	HasGoogleBusiness     bool
	CompetitorsOnTendorAI int
}

// SignalsFrom reads the scoring features out of a report.
func SignalsFrom(r *models.ReportData) Signals {
	sc := r.SearchedCompany
	return Signals{
		Website:               sc.Website != "",
		HasReviews:            models.Truthy(sc.HasReviews),
		HasPricing:            models.Truthy(sc.HasPricing),
		HasBrands:             models.Truthy(sc.HasBrands),
		HasStructuredData:     models.Truthy(sc.HasStructuredData),
		HasDetailedServices:   models.Truthy(sc.HasDetailedServices),
		HasSocialMedia:        models.Truthy(sc.HasSocialMedia),
		HasGoogleBusiness:     models.Truthy(sc.HasGoogleBusiness),
		CompetitorsOnTendorAI: r.CompetitorsOnTendorAI,
	}
}

// Result is the scored outcome.
type Result struct {
	Score     int
	Breakdown models.ScoreBreakdown
}

// Score maps signals to a breakdown and aggregate score.
func Score(s Signals) Result {
	b := models.ScoreBreakdown{
		WebsiteOptimisation: clip(w(s.Website, 7) + w(s.HasPricing, 5) + w(s.HasDetailedServices, 5)),
		ContentAuthority:    clip(w(s.HasDetailedServices, 6) + w(s.HasBrands, 5) + w(s.HasPricing, 6)),
		DirectoryPresence:   clip(w(s.HasGoogleBusiness, 8) + w(s.HasSocialMedia, 4) + w(s.HasStructuredData, 5)),
		ReviewSignals:       clip(w(s.HasReviews, 12) + w(s.HasGoogleBusiness, 5)),
		StructuredData:      clip(w(s.HasStructuredData, 13) + w(s.Website, 4)),
		CompetitivePosition: clip(w(s.Website, 7) + crowding(s.CompetitorsOnTendorAI)),
	}
	return Result{Score: Aggregate(b), Breakdown: b}
}

// Apply scores r in place.
func Apply(r *models.ReportData) {
	res := Score(SignalsFrom(r))
	r.Score = res.Score
	r.ScoreBreakdown = res.Breakdown
}

// Aggregate converts a breakdown to the 0..100 score.
func Aggregate(b models.ScoreBreakdown) int {
	sum := clipRange(b.Sum(), 0, maxSum)
	return int(math.Round(float64(sum) * 100 / maxSum))
}

// Label names the band a score falls in.
func Label(score int) string {
	switch {
	case score <= 20:
		return "Critical"
	case score <= 35:
		return "Poor"
	case score <= 50:
		return "Below Average"
	case score <= 65:
		return "Average"
	case score <= 80:
		return "Good"
	default:
		return "Excellent"
	}
}

// crowding rewards categories where few rivals are already listed in the directory.
func crowding(listed int) int {
	if listed < 0 {
		listed = 0
	}
	v := 10 - 5*listed
	if v < 0 {
		return 0
	}
	return v
}

func w(on bool, weight int) int {
	if on {
		return weight
	}
	return 0
}

func clip(v int) int { return clipRange(v, 0, MaxDimension) }

func clipRange(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
