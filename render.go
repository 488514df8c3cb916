package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"easybingo/card"
)

type palette struct {
	Border   lipgloss.Color
	Title    lipgloss.Color
	Number   lipgloss.Color
	Empty    lipgloss.Color
	MarkedFg lipgloss.Color
	MarkedBg lipgloss.Color
	Accent   lipgloss.Color
	Dim      lipgloss.Color
	Warn     lipgloss.Color
	Error    lipgloss.Color
}

var palettes = map[string]palette{
	"dark": {
		Border: "240", Title: "214", Number: "252", Empty: "236",
		MarkedFg: "16", MarkedBg: "42", Accent: "39", Dim: "241", Warn: "208", Error: "196",
	},
	"light": {
		Border: "245", Title: "166", Number: "235", Empty: "252",
		MarkedFg: "231", MarkedBg: "28", Accent: "25", Dim: "244", Warn: "130", Error: "160",
	},
}

func paletteFor(theme string) palette {
	if p, ok := palettes[theme]; ok {
		return p
	}
	return palettes["dark"]
}

// renderCard draws c as a bordered 3x9 grid. marked may be nil.
func renderCard(c card.Card, title string, marked func(int) bool, p palette) string {
	numStyle := lipgloss.NewStyle().Foreground(p.Number)
	emptyStyle := lipgloss.NewStyle().Foreground(p.Empty)
	markStyle := lipgloss.NewStyle().Foreground(p.MarkedFg).Background(p.MarkedBg).Bold(true)

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(p.Title).Bold(true).Render(title))
	b.WriteString("\n")
	for r := range card.Rows {
		for col := range card.Cols {
			n := c[r][col]
			switch {
			case n == 0:
				b.WriteString(emptyStyle.Render(" ·  "))
			case marked != nil && marked(n):
				b.WriteString(markStyle.Render(fmt.Sprintf("%3d", n)) + " ")
			default:
				b.WriteString(numStyle.Render(fmt.Sprintf("%3d ", n)))
			}
		}
		if r < card.Rows-1 {
			b.WriteString("\n")
		}
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Padding(0, 1).
		Render(b.String())
}

// renderCards lays the cards out left to right, wrapping to fit width.
func renderCards(cards []card.Card, titles func(i int) string, marked func(int) bool, p palette, width int) string {
	if len(cards) == 0 {
		return ""
	}
	boxes := make([]string, len(cards))
	for i, c := range cards {
		boxes[i] = renderCard(c, titles(i), marked, p)
	}
	boxW := lipgloss.Width(boxes[0]) + 1
	perRow := 1
	if width > 0 {
		perRow = max(1, width/boxW)
	}

	var rows []string
	for i := 0; i < len(boxes); i += perRow {
		end := min(i+perRow, len(boxes))
		line := make([]string, 0, end-i)
		for _, bx := range boxes[i:end] {
			line = append(line, lipgloss.NewStyle().MarginRight(1).Render(bx))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, line...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
