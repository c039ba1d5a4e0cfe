package platform

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tendorai/avp/internal/llm"
	"github.com/tendorai/avp/internal/models"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Complete(ctx context.Context, prompt string, opts llm.CompletionOptions) (string, error) {
	args := m.Called(prompt, opts)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) CompleteWithSystem(ctx context.Context, system, user string, opts llm.CompletionOptions) (string, error) {
	args := m.Called(system, user, opts)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) Name() string { return "mock" }

func noSleepPolicy() llm.Policy {
	p := llm.ChatPolicy
	p.Sleep = func(context.Context, time.Duration) error { return nil }
	return p
}

var clarity = models.Triple{CompanyName: "Clarity Copiers", Category: "copiers", City: "Cardiff"}

func TestBuildPrompt(t *testing.T) {
	want := "A potential customer asks: 'Can you recommend a good photocopier supplier in Cardiff?' " +
		"List up to 5 specific companies you'd recommend, with a brief reason for each. " +
		"If you would include Clarity Copiers, include it in your list. Respond in plain text, not JSON."

	assert.Equal(t, want, BuildPrompt(clarity))
}

func TestQueryParsesReply(t *testing.T) {
	prov := &mockProvider{}
	prov.On("Complete", BuildPrompt(clarity), mock.MatchedBy(func(o llm.CompletionOptions) bool {
		return o.MaxTokens <= 1024
	})).Return("1. **Clarity Copiers** — great SLA\n2. Solutions in Tech — fast", nil).Once()

	got := NewAdapter(models.PlatformPerplexity, prov, nil, noSleepPolicy()).Query(context.Background(), clarity)

	prov.AssertExpectations(t)
	assert.Equal(t, models.PlatformPerplexity, got.Platform)
	assert.Equal(t, "Perplexity", got.PlatformLabel)
	assert.True(t, got.Mentioned)
	require.NotNil(t, got.Position)
	assert.Equal(t, 1, *got.Position)
	assert.Equal(t, []string{"Solutions in Tech"}, got.Competitors)
	assert.Nil(t, got.Error)
	assert.NotEmpty(t, got.RawResponse)
}

func TestQueryMissingKey(t *testing.T) {
	initErr := &models.ConfigError{Setting: "platforms.grok.api_key"}

	got := NewAdapter(models.PlatformGrok, nil, initErr, noSleepPolicy()).Query(context.Background(), clarity)

	require.NotNil(t, got.Error)
	assert.Contains(t, *got.Error, "platforms.grok.api_key")
	assert.False(t, got.Mentioned)
	assert.Equal(t, "Grok", got.PlatformLabel)
}

func TestQueryTransportFailure(t *testing.T) {
	prov := &mockProvider{}
	prov.On("Complete", mock.Anything, mock.Anything).
		Return("", &models.PlatformError{Provider: "mock", Status: 401, Err: errors.New("unauthorized")}).Once()

	got := NewAdapter(models.PlatformClaude, prov, nil, noSleepPolicy()).Query(context.Background(), clarity)

	prov.AssertExpectations(t)
	require.NotNil(t, got.Error)
	assert.False(t, got.Mentioned)
	assert.Nil(t, got.Position)
	assert.Nil(t, got.Snippet)
	assert.Equal(t, "", got.RawResponse)
}

func TestQueryRejectsEmptyTriple(t *testing.T) {
	prov := &mockProvider{}

	got := NewAdapter(models.PlatformChatGPT, prov, nil, noSleepPolicy()).Query(context.Background(), models.Triple{CompanyName: "X", Category: "copiers"})

	prov.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	require.NotNil(t, got.Error)
	assert.Contains(t, *got.Error, "city")
}

func TestQueryAllKeepsPresentationOrder(t *testing.T) {
	mk := func(reply string) *mockProvider {
		p := &mockProvider{}
		p.On("Complete", mock.Anything, mock.Anything).Return(reply, nil)
		return p
	}
	reg := NewRegistry(
		NewAdapter(models.PlatformClaude, mk("Nothing to add."), nil, noSleepPolicy()),
		NewAdapter(models.PlatformChatGPT, mk("1. Alpha\n2. Clarity Copiers"), nil, noSleepPolicy()),
		NewAdapter(models.PlatformGemini, mk("- Clarity Copiers\n- Beta"), nil, noSleepPolicy()),
	)

	results := reg.QueryAll(context.Background(), clarity)

	require.Len(t, results, 3)
	assert.Equal(t, []models.Platform{models.PlatformChatGPT, models.PlatformGemini, models.PlatformClaude}, reg.Platforms())
	assert.Equal(t, models.PlatformChatGPT, results[0].Platform)
	assert.Equal(t, models.PlatformGemini, results[1].Platform)
	assert.Equal(t, models.PlatformClaude, results[2].Platform)

	best, mentioned := BestPosition(results)
	assert.True(t, mentioned)
	require.NotNil(t, best)
	assert.Equal(t, 1, *best)
}

func TestBestPositionNoneMentioned(t *testing.T) {
	best, mentioned := BestPosition([]models.MentionResult{{Mentioned: false}})
	assert.False(t, mentioned)
	assert.Nil(t, best)
}
