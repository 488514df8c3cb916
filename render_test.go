package main

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"easybingo/card"
)

func TestRenderCardShowsNumbers(t *testing.T) {
	out := renderCard(sampleCard, "Card 1", nil, paletteFor("dark"))
	assert.Contains(t, out, "Card 1")
	for _, n := range []string{" 5 ", "12", "34", "44", "85", "90"} {
		assert.Contains(t, out, n)
	}
	// title line plus three rows inside the border
	assert.Equal(t, 6, strings.Count(out, "\n")+1)
}

func TestRenderCardsWraps(t *testing.T) {
	cards := []card.Card{sampleCard, sampleCard, sampleCard}
	title := func(i int) string { return "c" }
	one := renderCard(sampleCard, "c", nil, paletteFor("light"))
	w := lipgloss.Width(one) + 1

	wide := renderCards(cards, title, nil, paletteFor("light"), 3*w)
	assert.Equal(t, lipgloss.Height(one), lipgloss.Height(wide))

	narrow := renderCards(cards, title, nil, paletteFor("light"), w)
	assert.Equal(t, 3*lipgloss.Height(one), lipgloss.Height(narrow))

	assert.Empty(t, renderCards(nil, title, nil, paletteFor("dark"), 80))
}

func TestPaletteFallsBackToDark(t *testing.T) {
	assert.Equal(t, palettes["dark"], paletteFor("neon"))
	assert.Equal(t, palettes["light"], paletteFor("light"))
}
