package scanner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tendorai/avp/internal/config"
	"github.com/tendorai/avp/internal/llm"
	"github.com/tendorai/avp/internal/models"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Complete(ctx context.Context, prompt string, opts llm.CompletionOptions) (string, error) {
	return m.CompleteWithSystem(ctx, "", prompt, opts)
}

func (m *mockProvider) CompleteWithSystem(ctx context.Context, system, user string, opts llm.CompletionOptions) (string, error) {
	args := m.Called(system, user)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) Name() string { return "mock" }

type fakeStore struct {
	vendors  []models.Vendor
	tiers    []models.Tier
	inserted []models.MentionScanRecord
}

func (f *fakeStore) ListVendorsByTier(_ context.Context, tiers ...models.Tier) ([]models.Vendor, error) {
	f.tiers = tiers
	return f.vendors, nil
}

func (f *fakeStore) InsertMentionScans(_ context.Context, records []models.MentionScanRecord) (int, error) {
	f.inserted = append(f.inserted, records...)
	return len(records), nil
}

type countingObserver struct{ mentioned, missed int }

func (c *countingObserver) ObserveScanRecord(mentioned bool) {
	if mentioned {
		c.mentioned++
	} else {
		c.missed++
	}
}

func newTestScanner(p llm.Provider, store Store, cfg config.ScannerConfig) *Scanner {
	s := New(cfg, "test-model", p, store).
		WithPolicy(llm.Policy{MaxAttempts: 1, Sleep: func(context.Context, time.Duration) error { return nil }}).
		WithPacer(llm.NewPacer(0))
	s.now = func() time.Time { return time.Date(2026, 4, 6, 6, 0, 0, 0, time.UTC) }
	return s
}

func TestRunRecordsEveryGroupVendor(t *testing.T) {
	store := &fakeStore{vendors: []models.Vendor{
		{ID: "a", Company: "Acme Print", City: "Cardiff", Services: []string{"Photocopiers"}, Tier: models.TierPro},
		{ID: "b", Company: "Beta Copiers", City: "Cardiff", Services: []string{"Photocopiers"}, Tier: models.TierStarter},
	}}
	p := &mockProvider{}
	p.On("CompleteWithSystem", mock.Anything, mock.Anything).
		Return("1. Copy Kings - great service\n2. Acme Print - reliable\n3. Bright Office - cheap", nil)

	obs := &countingObserver{}
	sum, err := newTestScanner(p, store, config.ScannerConfig{}).WithObserver(obs).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.PaidTiers, store.tiers)
	assert.Equal(t, 1, sum.Groups)
	assert.Equal(t, 0, sum.FailedGroups)
	require.Len(t, store.inserted, 6)
	p.AssertNumberOfCalls(t, "CompleteWithSystem", 3)

	for _, r := range store.inserted {
		assert.Equal(t, "copiers", r.Category)
		assert.Equal(t, "Cardiff", r.Location)
		assert.Equal(t, "test-model", r.AIModel)
		assert.Equal(t, models.SourceWeeklyScan, r.Source)
		switch r.VendorID {
		case "a":
			assert.True(t, r.Mentioned)
			assert.Equal(t, models.PositionTop3, r.Position)
			assert.NotContains(t, r.CompetitorsMentioned, "Acme Print")
			assert.Contains(t, r.CompetitorsMentioned, "Copy Kings")
		case "b":
			assert.False(t, r.Mentioned)
			assert.Equal(t, models.PositionNotMentioned, r.Position)
		default:
			t.Fatalf("unexpected vendor %q", r.VendorID)
		}
	}
	assert.Equal(t, 3, sum.Mentioned)
	assert.Equal(t, 3, obs.mentioned)
	assert.Equal(t, 3, obs.missed)
}

func TestRunPromptsInFixedOrder(t *testing.T) {
	store := &fakeStore{vendors: []models.Vendor{
		{ID: "a", Company: "Acme Print", City: "Cardiff", Services: []string{"Photocopiers"}},
	}}
	var prompts []string
	p := &mockProvider{}
	p.On("CompleteWithSystem", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { prompts = append(prompts, args.String(1)) }).
		Return("No recommendations.", nil)

	_, err := newTestScanner(p, store, config.ScannerConfig{}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, BuyerPrompts("photocopier", "Cardiff"), prompts)
	assert.Equal(t, "Who are the best photocopier in Cardiff?", prompts[0])
}

func TestRunFailedGroupWritesOneRecordPerVendor(t *testing.T) {
	store := &fakeStore{vendors: []models.Vendor{
		{ID: "a", Company: "Acme Print", City: "Cardiff", Services: []string{"Photocopiers"}},
		{ID: "b", Company: "Beta Copiers", City: "Cardiff", Services: []string{"Photocopiers"}},
		{ID: "c", Company: "Swansea Telecom", City: "Swansea", Services: []string{"Telecoms"}},
	}}
	p := &mockProvider{}
	p.On("CompleteWithSystem", mock.Anything, mock.MatchedBy(func(u string) bool { return strings.Contains(u, "Cardiff") })).
		Return("", errors.New("upstream exploded"))
	p.On("CompleteWithSystem", mock.Anything, mock.MatchedBy(func(u string) bool { return strings.Contains(u, "Swansea") })).
		Return("1. Swansea Telecom - local", nil)

	sum, err := newTestScanner(p, store, config.ScannerConfig{}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Groups)
	assert.Equal(t, 1, sum.FailedGroups)

	perVendor := map[string]int{}
	for _, r := range store.inserted {
		perVendor[r.VendorID]++
		if r.VendorID == "a" || r.VendorID == "b" {
			assert.False(t, r.Mentioned)
			assert.Equal(t, models.PositionNotMentioned, r.Position)
			assert.Contains(t, r.ResponseSnippet, "upstream exploded")
		}
	}
	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 3}, perVendor)
}

func TestRunFailureSnippetIsClipped(t *testing.T) {
	store := &fakeStore{vendors: []models.Vendor{
		{ID: "a", Company: "Acme Print", City: "Cardiff", Services: []string{"Photocopiers"}},
	}}
	p := &mockProvider{}
	p.On("CompleteWithSystem", mock.Anything, mock.Anything).
		Return("", errors.New(strings.Repeat("x", 512)))

	_, err := newTestScanner(p, store, config.ScannerConfig{}).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, store.inserted, 1)
	snippet := store.inserted[0].ResponseSnippet
	assert.True(t, strings.HasPrefix(snippet, "Error: "))
	assert.Equal(t, models.MaxSnippetRunes, utf8.RuneCountInString(snippet))
}

func TestNewUsesSearchTimeout(t *testing.T) {
	s := New(config.ScannerConfig{}, "", &mockProvider{}, &fakeStore{})
	assert.Equal(t, 60*time.Second, s.policy.Timeout)
	assert.Equal(t, 2*time.Second, s.policy.Base)
}

type countingPacer struct{ waits, dones int }

func (c *countingPacer) Wait(ctx context.Context) error {
	c.waits++
	return ctx.Err()
}

func (c *countingPacer) Done() { c.dones++ }

func TestRunMarksEveryPromptDone(t *testing.T) {
	store := &fakeStore{vendors: []models.Vendor{
		{ID: "a", Company: "Acme Print", City: "Cardiff", Services: []string{"Photocopiers"}},
	}}
	p := &mockProvider{}
	p.On("CompleteWithSystem", mock.Anything, mock.Anything).Return("No recommendations.", nil)

	pacer := &countingPacer{}
	_, err := newTestScanner(p, store, config.ScannerConfig{}).WithPacer(pacer).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, pacer.waits)
	assert.Equal(t, 3, pacer.dones)
}

func TestRunStopsOnCancelledContextButWrites(t *testing.T) {
	store := &fakeStore{vendors: []models.Vendor{
		{ID: "a", Company: "Acme Print", City: "Cardiff", Services: []string{"Photocopiers"}},
	}}
	p := &mockProvider{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := newTestScanner(p, store, config.ScannerConfig{}).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Groups)
	assert.Empty(t, store.inserted)
	p.AssertNotCalled(t, "CompleteWithSystem", mock.Anything, mock.Anything)
}

func TestLocations(t *testing.T) {
	assert.Equal(t, []string{"Cardiff"}, Locations(models.Vendor{City: " Cardiff ", CoverageAreas: []string{"Newport"}}))
	assert.Equal(t, []string{"Newport", "Bristol"}, Locations(models.Vendor{CoverageAreas: []string{"Newport", "", "Bristol", "Bath"}}))
	assert.Empty(t, Locations(models.Vendor{}))
}

func TestGroupVendors(t *testing.T) {
	vendors := []models.Vendor{
		{ID: "a", City: "Cardiff", Services: []string{"Photocopiers", "Printers"}},
		{ID: "b", City: "cardiff", Services: []string{"Managed Print", "VoIP"}},
		{ID: "c", CoverageAreas: []string{"Bristol", "Bath"}, Services: []string{"Shredding"}},
	}
	groups := groupVendors(vendors)

	var keys []string
	for _, g := range groups {
		keys = append(keys, g.key)
	}
	assert.Equal(t, []string{"copiers|cardiff", "shredding|bath", "shredding|bristol", "telecoms|cardiff"}, keys)
	require.Len(t, groups[0].vendors, 2)
	assert.Equal(t, "a", groups[0].vendors[0].ID)
	assert.Equal(t, "photocopier", groups[0].label)
	assert.Equal(t, "shredding", groups[1].label)
}

func TestContextBlockRanksByRichness(t *testing.T) {
	sparse := models.Vendor{Company: "Sparse Ltd"}
	rich := models.Vendor{
		Company: "Rich Ltd", Description: strings.Repeat("x", 250), ReviewCount: 40, AverageRating: 4.8,
		Certifications: []string{"ISO 9001"}, YearsInBusiness: 25, ProductCount: 30,
		CoverageAreas: []string{"Cardiff", "Newport"},
	}
	block := ContextBlock([]models.Vendor{sparse, rich}, 20)
	lines := strings.Split(block, "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "- Rich Ltd"))
	assert.Contains(t, lines[0], "25 years in business")
	assert.Contains(t, lines[0], "4.8/5 from 40 reviews")
	assert.Equal(t, "- Sparse Ltd", lines[1])

	assert.Len(t, strings.Split(ContextBlock([]models.Vendor{sparse, rich, sparse}, 2), "\n"), 2)
	assert.Greater(t, Richness(rich), Richness(sparse))
}

func TestDedupe(t *testing.T) {
	d := time.Date(2026, 4, 6, 6, 0, 0, 0, time.UTC)
	in := []models.MentionScanRecord{
		{VendorID: "a", ScanDate: d, Prompt: "p1"},
		{VendorID: "a", ScanDate: d, Prompt: "p1", Mentioned: true},
		{VendorID: "a", ScanDate: d, Prompt: "p2"},
		{VendorID: "b", ScanDate: d, Prompt: "p1"},
	}
	out := Dedupe(in)
	require.Len(t, out, 3)
	assert.False(t, out[0].Mentioned)
}
