// Package tui renders table blocks for the terminal and hosts the
// interactive block editor.
package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/salmonumbrella/webclaw-cli/internal/tableblock"
)

// DefaultWidth is the word-wrap width used when the terminal size is unknown.
const DefaultWidth = 80

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Reverse(true).Padding(0, 1)
	borderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// RenderGrid draws b as a bordered grid.
func RenderGrid(b tableblock.Block) string {
	return renderGrid(b, tableblock.Target{}, false)
}

// renderGrid draws b, highlighting selected when highlight is set.
func renderGrid(b tableblock.Block, selected tableblock.Target, highlight bool) string {
	headers := b.TableHeaders()
	rows := b.TableRows()

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col < 0 || col >= len(b.Columns) {
				return cellStyle
			}
			if row == table.HeaderRow {
				if highlight && selected == tableblock.HeaderTarget(b.Columns[col].ID) {
					return selectedStyle.Bold(true)
				}
				return headerStyle
			}
			if highlight && row >= 0 && row < len(b.Rows) &&
				selected == tableblock.CellTarget(b.Rows[row].ID, b.Columns[col].ID) {
				return selectedStyle
			}
			return cellStyle
		})
	return t.Render()
}

// RenderMarkdown renders markdown for the terminal, wrapping at width.
// A non-positive width uses DefaultWidth.
func RenderMarkdown(md string, width int) (string, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	out, err := renderer.Render(md)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}
