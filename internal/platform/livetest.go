package platform

import (
	"context"
	"strings"
	"time"

	"github.com/tendorai/avp/internal/models"
)

// LiveTest asks every platform about t on behalf of a vendor and returns one
// live_test record per platform. Failed platforms yield a not_mentioned record
// carrying the error.
func (r *Registry) LiveTest(ctx context.Context, vendorID string, t models.Triple, scanDate time.Time) []models.MentionScanRecord {
	t = t.Normalize()
	prompt := BuildPrompt(t)
	results := r.QueryAll(ctx, t)

	records := make([]models.MentionScanRecord, 0, len(results))
	for _, res := range results {
		rec := models.MentionScanRecord{
			VendorID:             vendorID,
			ScanDate:             scanDate,
			Prompt:               prompt,
			Mentioned:            res.Mentioned,
			Position:             models.PositionFromRank(res.Mentioned, res.Position),
			AIModel:              string(res.Platform),
			CompetitorsMentioned: res.Competitors,
			Category:             t.Category,
			Location:             t.City,
			Source:               models.SourceLiveTest,
		}
		switch {
		case res.Error != nil:
			rec.ResponseSnippet = models.ClipSnippet("Error: " + *res.Error)
		case res.Snippet != nil:
			rec.ResponseSnippet = models.ClipSnippet(*res.Snippet)
		default:
			rec.ResponseSnippet = models.ClipSnippet(strings.TrimSpace(res.RawResponse))
		}
		if rec.CompetitorsMentioned == nil {
			rec.CompetitorsMentioned = []string{}
		}
		records = append(records, rec)
	}
	return records
}
