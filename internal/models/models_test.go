package models

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestClipSnippet(t *testing.T) {
	assert.Equal(t, "short", ClipSnippet("short"))
	assert.Equal(t, MaxSnippetRunes, utf8.RuneCountInString(ClipSnippet(strings.Repeat("é", 600))))
	exact := strings.Repeat("x", MaxSnippetRunes)
	assert.Equal(t, exact, ClipSnippet(exact))
}

func TestPositionFromRank(t *testing.T) {
	rank := func(n int) *int { return &n }
	assert.Equal(t, PositionNotMentioned, PositionFromRank(false, rank(1)))
	assert.Equal(t, PositionTop3, PositionFromRank(true, rank(3)))
}
