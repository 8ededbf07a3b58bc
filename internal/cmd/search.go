package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/webclaw-cli/internal/search"
)

var (
	searchIn    string
	searchMatch int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search chat messages",
	Long: `Search chat messages for text (case-insensitive).

Without --in, the gateway's most recent sessions are searched and at most
a handful of matches are kept per session. With --in, one session's
history is searched in depth. Tool results are never matched.

--match N marks the Nth match (1-based, wrapping; negative counts from the
end), the same way the chat search bar steps through results.

Examples:
  webclaw search "quarterly report"
  webclaw search deploy --in main
  webclaw search deploy --match 3`,
	Args:        cobra.MinimumNArgs(1),
	Annotations: gatewayAnnotation,
	RunE:        runSearch,
}

type searchOutput struct {
	Query   string          `json:"query"`
	Total   int             `json:"total"`
	Active  *int            `json:"active,omitempty"`
	Results []search.Result `json:"results"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("search query is required")
	}

	q := search.Query{Text: query}
	if flagChanged(cmd, "in") {
		q.SessionKey = strings.TrimSpace(searchIn)
	}

	results, err := search.New(GetClient(), logger).Run(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	total := search.Count(results)
	active := -1
	if searchMatch != 0 && total > 0 {
		active = stepCursor(search.NewCursor(total), searchMatch)
	}

	if structuredOutputRequested() {
		out := searchOutput{Query: query, Total: total, Results: results}
		if active >= 0 {
			out.Active = &active
		}
		return printStructured(out)
	}

	if total == 0 {
		printStatus("No matches for %q\n", query)
		return nil
	}

	w := stdout()
	n := 0
	for _, result := range results {
		if len(result.Messages) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s (%s)\n", result.SessionTitle, result.SessionKey)
		for _, match := range result.Messages {
			marker := "  "
			if n == active {
				marker = "> "
			}
			fmt.Fprintf(w, "%s[%d] %s: %s\n", marker, match.Index, match.Role, oneLine(match.Text))
			n++
		}
	}
	if active >= 0 {
		printStatus("Match %d of %d\n", active+1, total)
	} else {
		printStatus("%d matches\n", total)
	}
	return nil
}

// stepCursor moves c to the nth match: positive n steps forward from the
// first match, negative n steps back from it.
func stepCursor(c *search.Cursor, n int) int {
	switch {
	case n > 0:
		return c.Step(n - 1)
	case n < 0:
		return c.Step(n)
	}
	return c.Active()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func init() {
	searchCmd.Flags().StringVar(&searchIn, "in", "", "Search only this session")
	searchCmd.Flags().IntVar(&searchMatch, "match", 0, "Mark the Nth match (negative counts from the end)")
	rootCmd.AddCommand(searchCmd)
}
