package themes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetKnownTheme(t *testing.T) {
	theme := Get("polar_express")
	assert.Equal(t, "The Polar Express", theme.Name)
	assert.Equal(t, "Christmas", theme.Category)
	assert.Equal(t, "#1e3a8a", theme.Colors.Primary)
}

func TestGetUnknownThemeFallsBack(t *testing.T) {
	theme := Get("no_such_theme")
	assert.Equal(t, Get(DefaultTheme), theme)
}

func TestByCategory(t *testing.T) {
	categories := ByCategory()
	require.Contains(t, categories, "Classic")
	require.Contains(t, categories, "Railroad")
	var found bool
	for _, listing := range categories["Classic"] {
		if listing.ID == DefaultTheme {
			found = true
		}
	}
	assert.True(t, found)
}
