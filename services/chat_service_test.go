package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateKeepsShortStrings(t *testing.T) {
	assert.Equal(t, "oss", truncate("oss", 80))
	assert.Equal(t, "", truncate("", 80))
}

func TestTruncateCutsOnRunes(t *testing.T) {
	// Multibyte input must never be cut mid-rune.
	body := strings.Repeat("jiu-jítsu ", 12)
	preview := truncate(body, 80)

	assert.True(t, utf8.ValidString(preview), "preview must stay valid UTF-8")
	assert.Equal(t, 81, utf8.RuneCountInString(preview), "80 runes plus the ellipsis")
	assert.True(t, strings.HasSuffix(preview, "…"))
}

func TestTruncateAtExactLimit(t *testing.T) {
	body := strings.Repeat("á", 80)
	assert.Equal(t, body, truncate(body, 80))
}
