package platform

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tendorai/avp/internal/models"
)

func TestLiveTestRecordsOnePerPlatform(t *testing.T) {
	prov := &mockProvider{}
	prov.On("Complete", mock.Anything, mock.Anything).Return("1. Alpha Print\n2. Clarity Copiers\n3. Beta Office", nil)

	reg := NewRegistry(
		NewAdapter(models.PlatformChatGPT, prov, nil, noSleepPolicy()),
		NewAdapter(models.PlatformGrok, nil, &models.ConfigError{Setting: "platforms.grok.api_key"}, noSleepPolicy()),
	)
	scanDate := time.Date(2026, 3, 16, 6, 0, 0, 0, time.UTC)

	records := reg.LiveTest(context.Background(), "v1", clarity, scanDate)

	require.Len(t, records, 2)

	ok := records[0]
	assert.Equal(t, "v1", ok.VendorID)
	assert.Equal(t, scanDate, ok.ScanDate)
	assert.Equal(t, BuildPrompt(clarity), ok.Prompt)
	assert.True(t, ok.Mentioned)
	assert.Equal(t, models.PositionTop3, ok.Position)
	assert.Equal(t, "chatgpt", ok.AIModel)
	assert.Equal(t, models.SourceLiveTest, ok.Source)
	assert.Equal(t, "copiers", ok.Category)
	assert.Equal(t, "Cardiff", ok.Location)
	assert.NotEmpty(t, ok.ResponseSnippet)

	failed := records[1]
	assert.False(t, failed.Mentioned)
	assert.Equal(t, models.PositionNotMentioned, failed.Position)
	assert.Equal(t, "grok", failed.AIModel)
	assert.True(t, strings.HasPrefix(failed.ResponseSnippet, "Error: "))
	assert.Equal(t, []string{}, failed.CompetitorsMentioned)
}
