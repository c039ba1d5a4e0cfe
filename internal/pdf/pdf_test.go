package pdf

import (
	"bytes"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendorai/avp/internal/models"
)

var pageObject = regexp.MustCompile(`/Type /Page[^s]`)

func sampleReport() *models.ReportData {
	return &models.ReportData{
		CompanyName: "Acme Print Ltd",
		Category:    "copiers",
		City:        "Cardiff",
		AIMentioned: true,
		AIPosition:  models.IntPtr(3),
		Score:       62,
		ScoreBreakdown: models.ScoreBreakdown{
			WebsiteOptimisation: 12, ContentAuthority: 11, DirectoryPresence: 12,
			ReviewSignals: 17, StructuredData: 4, CompetitivePosition: 7,
		},
		SearchedCompany: models.SearchedCompany{
			Website:           "https://acmeprint.example",
			HasReviews:        models.BoolPtr(true),
			HasGoogleBusiness: models.BoolPtr(true),
			Summary:           "Acme Print is a family-run copier dealer serving South Wales since 1998.",
		},
		Competitors: []models.Competitor{
			{Name: "Copy Kings", Description: "Managed print specialist.", Reason: "Strong reviews", Website: "copykings.example", Strengths: []string{"reviews", "pricing"}},
			{Name: "Bright Office", Description: "Office equipment supplier.", Reason: "Clear pricing", Website: "https://brightoffice.example"},
			{Name: "Dragon Copiers", Description: "Local dealer.", Reason: "Google Business Profile"},
		},
		Gaps: []models.Gap{
			{Title: "No pricing published", Explanation: "AI assistants favour suppliers that publish lease costs."},
			{Title: "No structured data", Explanation: "Your site has no LocalBusiness schema."},
			{Title: "Few directory listings", Explanation: "You are missing from directories AI assistants cite."},
		},
		ReportType: models.ReportTypeFull,
		CreatedAt:  time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
	}
}

func TestRenderProducesSixPages(t *testing.T) {
	out, err := NewRenderer("https://tendorai.example").Render(sampleReport())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Len(t, pageObject.FindAll(out, -1), 6)
}

func TestRenderIsDeterministic(t *testing.T) {
	r := NewRenderer("https://tendorai.example")
	a, err := r.Render(sampleReport())
	require.NoError(t, err)
	b, err := r.Render(sampleReport())
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a, b), "equal reports must render identically")

	changed := sampleReport()
	changed.Score = 63
	c, err := r.Render(changed)
	require.NoError(t, err)
	assert.False(t, bytes.Equal(a, c))
}

func TestRenderLinks(t *testing.T) {
	out, err := NewRenderer("https://tendorai.example/").Render(sampleReport())
	require.NoError(t, err)

	for _, want := range []string{
		"https://tendorai.example/pricing?plan=starter",
		"https://tendorai.example/pricing?plan=pro",
		"https://tendorai.example/vendor-signup",
		"https://copykings.example",
		"https://brightoffice.example",
	} {
		assert.Contains(t, string(out), want)
	}
}

func TestRenderSurvivesHostileText(t *testing.T) {
	r := sampleReport()
	r.CompanyName = "“Smart” Ltd — 日本 ✓ 🚀"
	r.SearchedCompany.Summary = "Arrows → ticks ✔ crosses ✘ and… bullets • everywhere " + string(bytes.Repeat([]byte("long "), 400))
	r.Competitors[0].Name = string(bytes.Repeat([]byte("W"), 500))
	r.Competitors[1].Website = "ftp://not-a-web-site"
	r.Gaps[0].Explanation = "\x00\x07 control characters"

	out, err := NewRenderer("https://tendorai.example").Render(r)
	require.NoError(t, err)
	assert.Len(t, pageObject.FindAll(out, -1), 6)
}

func TestRenderWithoutCompetitorsOrGaps(t *testing.T) {
	r := sampleReport()
	r.Competitors = nil
	r.Gaps = nil
	r.Category = "conveyancing"
	r.AIMentioned = false
	r.AIPosition = nil

	out, err := NewRenderer("").Render(r)
	require.NoError(t, err)
	assert.Len(t, pageObject.FindAll(out, -1), 6)
}

func TestRenderNilReport(t *testing.T) {
	_, err := NewRenderer("").Render(nil)
	var re *models.RenderError
	assert.True(t, errors.As(err, &re))
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain ASCII", "plain ASCII"},
		{"‘single’ “double”", `'single' "double"`},
		{"en – em —", "en - em -"},
		{"a → b ⇒ c ← d", "a -> b => c <- d"},
		{"✓ done ✗ not", "+ done x not"},
		{"wait…", "wait..."},
		{"• one", "- one"},
		{"café £20 €5", "café £20 €5"},
		{"non break", "non break"},
		{"zero​width", "zerowidth"},
		{"emoji 🚀 gone", "emoji  gone"},
		{"日本 office", " office"},
		{"line\nbreak\ttab\r", "line\nbreak tab"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}
