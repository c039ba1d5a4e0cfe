package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendorai/avp/internal/config"
	"github.com/tendorai/avp/internal/models"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	store, err := Open(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "avp.db")})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleReport(company string, created time.Time) *models.PersistedReport {
	return &models.PersistedReport{
		ReportData: models.ReportData{
			CompanyName: company,
			Category:    "copiers",
			City:        "Cardiff",
			Score:       62,
			ScoreBreakdown: models.ScoreBreakdown{
				WebsiteOptimisation: 12, ContentAuthority: 11, DirectoryPresence: 12,
				ReviewSignals: 17, StructuredData: 4, CompetitivePosition: 7,
			},
			Competitors: []models.Competitor{{Name: "Copy Kings", Strengths: []string{"local"}}},
			Gaps:        []models.Gap{{Title: "No pricing", Explanation: "Pricing is not published."}},
			ReportType:  models.ReportTypeFull,
			CreatedAt:   created,
		},
	}
}

func TestReportRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

	r := sampleReport("Acme Print", created)
	r.VendorID = "v1"
	r.IPAddress = "10.0.0.1"
	r.PDF = []byte("%PDF-1.3 test")

	id, err := store.PutReport(ctx, r)
	require.NoError(t, err)
	assert.True(t, ValidReportID(id))
	assert.Equal(t, id, r.ID)

	got, err := store.GetReport(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Acme Print", got.CompanyName)
	assert.Equal(t, 62, got.Score)
	assert.Equal(t, r.ScoreBreakdown, got.ScoreBreakdown)
	assert.Equal(t, r.Competitors, got.Competitors)
	assert.True(t, created.Equal(got.CreatedAt))

	pdf, err := store.GetPDF(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.3 test"), pdf)

	persisted, err := store.GetPersisted(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Equal(t, "v1", persisted.VendorID)
	assert.Equal(t, "10.0.0.1", persisted.IPAddress)
	assert.Equal(t, r.PDF, persisted.PDF)
}

func TestReportMissing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	got, err := store.GetReport(ctx, "000000000000000000000000")
	assert.NoError(t, err)
	assert.Nil(t, got)

	pdf, err := store.GetPDF(ctx, "000000000000000000000000")
	assert.NoError(t, err)
	assert.Nil(t, pdf)
}

func TestReportWithoutPDF(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.PutReport(ctx, sampleReport("No Pdf Ltd", time.Now().UTC()))
	require.NoError(t, err)

	pdf, err := store.GetPDF(ctx, id)
	assert.NoError(t, err)
	assert.Nil(t, pdf)
}

func TestListByVendorNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 6, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 3; i++ {
		r := sampleReport("Acme Print", base.Add(time.Duration(i)*time.Hour))
		r.VendorID = "v1"
		id, err := store.PutReport(ctx, r)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	other := sampleReport("Other", base)
	other.VendorID = "v2"
	_, err := store.PutReport(ctx, other)
	require.NoError(t, err)

	got, err := store.ListByVendor(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, got)

	none, err := store.ListByVendor(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLatestReportByIP(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	old := sampleReport("Old Co", now.Add(-2*time.Hour))
	old.IPAddress = "192.0.2.7"
	_, err := store.PutReport(ctx, old)
	require.NoError(t, err)

	got, err := store.LatestReportByIP(ctx, "192.0.2.7", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Nil(t, got)

	recent := sampleReport("Recent Co", now.Add(-10*time.Minute))
	recent.IPAddress = "192.0.2.7"
	id, err := store.PutReport(ctx, recent)
	require.NoError(t, err)

	got, err = store.LatestReportByIP(ctx, "192.0.2.7", now.Add(-time.Hour))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Recent Co", got.CompanyName)

	got, err = store.LatestReportByIP(ctx, "", now.Add(-time.Hour))
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestMentionScans(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	scanDate := time.Date(2026, 4, 6, 6, 0, 0, 0, time.UTC)

	records := []models.MentionScanRecord{
		{
			VendorID: "v1", ScanDate: scanDate, Prompt: "best photocopier suppliers in Cardiff",
			Mentioned: true, Position: models.PositionFirst, AIModel: "claude-haiku",
			CompetitorsMentioned: []string{"Copy Kings"}, Category: "copiers", Location: "Cardiff",
			ResponseSnippet: "1. Acme Print", Source: models.SourceWeeklyScan,
		},
		{
			VendorID: "v1", ScanDate: scanDate.Add(time.Minute), Prompt: "who services printers in Cardiff",
			Position: models.PositionNotMentioned, AIModel: "claude-haiku",
			Category: "copiers", Location: "Cardiff", Source: models.SourceWeeklyScan,
		},
	}

	n, err := store.InsertMentionScans(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := store.ListMentionScans(ctx, "v1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "who services printers in Cardiff", got[0].Prompt)
	assert.False(t, got[0].Mentioned)
	assert.Equal(t, []string{}, got[0].CompetitorsMentioned)
	assert.Equal(t, models.PositionFirst, got[1].Position)
	assert.True(t, got[1].Mentioned)
	assert.Equal(t, []string{"Copy Kings"}, got[1].CompetitorsMentioned)
	assert.Equal(t, models.SourceWeeklyScan, got[1].Source)
	assert.NotZero(t, got[1].ID)

	limited, err := store.ListMentionScans(ctx, "v1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDeleteByVendor(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	r := sampleReport("Acme Print", time.Now().UTC())
	r.VendorID = "v1"
	id, err := store.PutReport(ctx, r)
	require.NoError(t, err)
	_, err = store.InsertMentionScans(ctx, []models.MentionScanRecord{{
		VendorID: "v1", ScanDate: time.Now().UTC(), Prompt: "p", Position: models.PositionNotMentioned,
		AIModel: "m", Category: "copiers", Location: "Cardiff", Source: models.SourceLiveTest,
	}})
	require.NoError(t, err)

	require.NoError(t, store.DeleteByVendor(ctx, "v1"))

	got, err := store.GetReport(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)
	scans, err := store.ListMentionScans(ctx, "v1", 10)
	require.NoError(t, err)
	assert.Empty(t, scans)
}

func TestVendors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	vendors := []*models.Vendor{
		{ID: "v1", Company: "Acme Print Ltd", Tier: models.TierPro, City: "Cardiff", Services: []string{"Photocopiers"}, CreatedAt: base},
		{ID: "v2", Company: "Copy Kings", Tier: models.TierStarter, City: "cardiff", Services: []string{"Managed Print"}, CreatedAt: base.Add(time.Hour)},
		{ID: "v3", Company: "Bright Telecom", Tier: models.TierFree, City: "Cardiff", Services: []string{"VoIP"}, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "v4", Company: "Swansea Copiers", Tier: models.TierPro, City: "Swansea", Services: []string{"Photocopiers"}, CreatedAt: base.Add(3 * time.Hour)},
		{ID: "v5", Company: "Smith & Co", Tier: models.TierFree, City: "Cardiff", PracticeAreas: []string{"Conveyancing"}, Services: []string{"Printers"}, CreatedAt: base.Add(4 * time.Hour)},
	}
	for _, v := range vendors {
		require.NoError(t, store.UpsertVendor(ctx, v))
	}

	got, err := store.GetVendor(ctx, "v1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Acme Print Ltd", got.Company)
	assert.Equal(t, []string{"Photocopiers"}, got.Services)
	assert.Equal(t, []string{}, got.PracticeAreas)

	missing, err := store.GetVendor(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	paid, err := store.ListVendorsByTier(ctx, models.PaidTiers...)
	require.NoError(t, err)
	var ids []string
	for _, v := range paid {
		ids = append(ids, v.ID)
	}
	assert.Equal(t, []string{"v1", "v2", "v4"}, ids)

	// Matches on any listed service, not only the first.
	count, err := store.CountListed(ctx, "copiers", "Cardiff", "Acme Print Ltd")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = store.CountListed(ctx, "copiers", "Cardiff", "")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	vendors[1].Tier = models.TierFree
	require.NoError(t, store.UpsertVendor(ctx, vendors[1]))
	paid, err = store.ListVendorsByTier(ctx, models.PaidTiers...)
	require.NoError(t, err)
	assert.Len(t, paid, 2)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	pg := &sqlStore{d: postgresDialect}
	assert.Equal(t, "SELECT a FROM t WHERE b = $1 AND c IN ($2, $3)", pg.rebind("SELECT a FROM t WHERE b = ? AND c IN (?, ?)"))

	lite := &sqlStore{d: sqliteDialect}
	assert.Equal(t, "WHERE b = ?", lite.rebind("WHERE b = ?"))
}

func TestReportID(t *testing.T) {
	now := time.Unix(1767225600, 0)
	id, err := NewReportID(now)
	require.NoError(t, err)
	assert.Len(t, id, 24)
	assert.Equal(t, "6955b900", id[:8])
	assert.True(t, ValidReportID(id))

	other, err := NewReportID(now)
	require.NoError(t, err)
	assert.NotEqual(t, id, other)

	assert.False(t, ValidReportID("short"))
	assert.False(t, ValidReportID("zz0000000000000000000000"))
}
