package tableblock

import "strings"

// ToMarkdown renders the block as a GitHub-flavored Markdown table. A block
// without columns renders as "".
func ToMarkdown(b Block) string {
	if len(b.Columns) == 0 {
		return ""
	}

	grid := b.Grid()
	lines := make([]string, 0, len(grid)+1)

	lines = append(lines, markdownLine(grid[0]))

	separator := make([]string, len(b.Columns))
	for i := range separator {
		separator[i] = "---"
	}
	lines = append(lines, "| "+strings.Join(separator, " | ")+" |")

	for _, record := range grid[1:] {
		lines = append(lines, markdownLine(record))
	}

	return strings.Join(lines, "\n")
}

func markdownLine(values []string) string {
	escaped := make([]string, len(values))
	for i, value := range values {
		escaped[i] = escapeMarkdownCell(value)
	}
	return "| " + strings.Join(escaped, " | ") + " |"
}

// escapeMarkdownCell turns newlines into <br /> and escapes pipes. An empty
// cell becomes a single space so the row keeps its delimiters.
func escapeMarkdownCell(value string) string {
	normalized := strings.ReplaceAll(value, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\n", "<br />")
	escaped := strings.ReplaceAll(normalized, "|", `\|`)
	if escaped == "" {
		return " "
	}
	return escaped
}
