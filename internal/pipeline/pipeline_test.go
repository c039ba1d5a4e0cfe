package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendorai/avp/internal/models"
)

type fakeResearcher struct {
	report *models.ReportData
	err    error
	calls  int
}

func (f *fakeResearcher) GenerateFullReport(_ context.Context, t models.Triple, rt models.ReportType) (*models.ReportData, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	r := *f.report
	r.CompanyName, r.Category, r.City, r.ReportType = t.CompanyName, t.Category, t.City, rt
	return &r, nil
}

type fakeRenderer struct{ err error }

func (f fakeRenderer) Render(r *models.ReportData) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-" + r.CompanyName), nil
}

type fakeStore struct {
	saved []*models.PersistedReport
	err   error
}

func (f *fakeStore) PutReport(_ context.Context, r *models.PersistedReport) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, r)
	return "65a1b2c3d4e5f60718293a4b", nil
}

type fakePlatforms struct{ results []models.MentionResult }

func (f fakePlatforms) QueryAll(context.Context, models.Triple) []models.MentionResult {
	return f.results
}

type recordingObserver struct {
	source string
	err    error
}

func (o *recordingObserver) ObserveReport(source string, err error, _ time.Duration) {
	o.source, o.err = source, err
}

func baseReport() *models.ReportData {
	return &models.ReportData{
		Score:       62,
		AIMentioned: false,
		Competitors: []models.Competitor{{Name: "Copy Kings"}},
		Gaps:        []models.Gap{{Title: "No pricing"}},
	}
}

var acme = models.Triple{CompanyName: " Acme Print ", Category: "copiers", City: "Cardiff"}

func TestGenerateStoresRenderedReport(t *testing.T) {
	store := &fakeStore{}
	obs := &recordingObserver{}
	p := New(&fakeResearcher{report: baseReport()}, fakeRenderer{}, store, "https://tendorai.example/").WithObserver(obs)

	res, err := p.Generate(context.Background(), Request{Triple: acme, VendorID: "v1", IPAddress: "10.0.0.1", Source: "api"})
	require.NoError(t, err)

	assert.Equal(t, "65a1b2c3d4e5f60718293a4b", res.ID)
	assert.Equal(t, "https://tendorai.example/aeo-report/65a1b2c3d4e5f60718293a4b", res.URL)
	assert.Equal(t, models.ReportTypeFull, res.Report.ReportType)
	require.Len(t, store.saved, 1)
	assert.Equal(t, "Acme Print", store.saved[0].CompanyName)
	assert.Equal(t, "v1", store.saved[0].VendorID)
	assert.Equal(t, "10.0.0.1", store.saved[0].IPAddress)
	assert.Equal(t, []byte("%PDF-Acme Print"), store.saved[0].PDF)
	assert.Equal(t, "api", obs.source)
	assert.NoError(t, obs.err)
}

func TestGenerateRejectsInvalidTriple(t *testing.T) {
	researcher := &fakeResearcher{report: baseReport()}
	p := New(researcher, fakeRenderer{}, &fakeStore{}, "")

	_, err := p.Generate(context.Background(), Request{Triple: models.Triple{CompanyName: "Acme", Category: "boats", City: "Cardiff"}})
	var ve *models.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "category", ve.Field)
	assert.Zero(t, researcher.calls)
}

func TestGenerateFailuresLeaveNothingStored(t *testing.T) {
	tests := []struct {
		name       string
		researcher *fakeResearcher
		renderer   fakeRenderer
	}{
		{"research", &fakeResearcher{err: &models.ResearchError{CompanyName: "Acme", Err: errors.New("bad json")}}, fakeRenderer{}},
		{"render", &fakeResearcher{report: baseReport()}, fakeRenderer{err: &models.RenderError{Err: errors.New("oom")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			obs := &recordingObserver{}
			_, err := New(tt.researcher, tt.renderer, store, "").WithObserver(obs).Generate(context.Background(), Request{Triple: acme})
			assert.Error(t, err)
			assert.Empty(t, store.saved)
			assert.Error(t, obs.err)
		})
	}
}

func TestGenerateSurfacesStoreError(t *testing.T) {
	store := &fakeStore{err: &models.StoreError{Op: "put report", Err: errors.New("disk full")}}
	_, err := New(&fakeResearcher{report: baseReport()}, fakeRenderer{}, store, "").Generate(context.Background(), Request{Triple: acme})
	var se *models.StoreError
	assert.True(t, errors.As(err, &se))
}

func TestPlatformResultsOverrideSimulatedMention(t *testing.T) {
	results := []models.MentionResult{
		{Platform: models.PlatformChatGPT, Mentioned: true, Position: models.IntPtr(4)},
		{Platform: models.PlatformGemini, Mentioned: true, Position: models.IntPtr(2)},
		{Platform: models.PlatformGrok, Error: models.StringPtr("configuration error")},
	}
	store := &fakeStore{}
	p := New(&fakeResearcher{report: baseReport()}, fakeRenderer{}, store, "").WithPlatforms(fakePlatforms{results})

	res, err := p.Generate(context.Background(), Request{Triple: acme})
	require.NoError(t, err)
	assert.True(t, res.Report.AIMentioned)
	require.NotNil(t, res.Report.AIPosition)
	assert.Equal(t, 2, *res.Report.AIPosition)
	assert.Len(t, store.saved[0].PlatformResults, 3)
}

func TestApplyPlatformResults(t *testing.T) {
	t.Run("all failed keeps research answer", func(t *testing.T) {
		r := &models.ReportData{AIMentioned: true, AIPosition: models.IntPtr(3), PlatformResults: []models.MentionResult{
			{Error: models.StringPtr("boom")},
		}}
		applyPlatformResults(r)
		assert.True(t, r.AIMentioned)
		assert.Equal(t, 3, *r.AIPosition)
	})
	t.Run("answered without mention clears position", func(t *testing.T) {
		r := &models.ReportData{AIMentioned: true, AIPosition: models.IntPtr(3), PlatformResults: []models.MentionResult{{}}}
		applyPlatformResults(r)
		assert.False(t, r.AIMentioned)
		assert.Nil(t, r.AIPosition)
	})
	t.Run("mentioned without rank", func(t *testing.T) {
		r := &models.ReportData{PlatformResults: []models.MentionResult{{Mentioned: true}}}
		applyPlatformResults(r)
		assert.True(t, r.AIMentioned)
		assert.Equal(t, 10, *r.AIPosition)
	})
	t.Run("rank beyond ten is capped", func(t *testing.T) {
		r := &models.ReportData{PlatformResults: []models.MentionResult{{Mentioned: true, Position: models.IntPtr(14)}}}
		applyPlatformResults(r)
		assert.Equal(t, 10, *r.AIPosition)
	})
}
