package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/webclaw-cli/internal/export"
	"github.com/salmonumbrella/webclaw-cli/internal/search"
	"github.com/salmonumbrella/webclaw-cli/internal/workbench"
)

var (
	exportAs    string
	exportOut   string
	exportTitle string
)

var exportCmd = &cobra.Command{
	Use:   "export [session-key]",
	Short: "Export a conversation",
	Long: `Export a session's conversation as Markdown, JSON, or plain text.

Only user and assistant messages with text are exported. Without --out the
file is written to the current directory with a name derived from the
title; use --out - to print instead. The session defaults to --session and
the title to the session's title on the gateway.

Examples:
  webclaw export main
  webclaw export main --as json --out -
  webclaw export --session main --as text --title "Release notes"`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: gatewayAnnotation,
	RunE:        runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(exportAs)
	if err != nil {
		return err
	}

	key := sessionKey
	if len(args) == 1 {
		key = workbench.NormalizeSessionKey(args[0])
	}

	ctx := cmd.Context()
	client := GetClient()
	history, err := client.History(ctx, key, search.SessionHistoryLimit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	title := strings.TrimSpace(exportTitle)
	if title == "" {
		title = key
		if sessions, err := client.ListSessions(ctx); err == nil {
			for _, s := range sessions {
				if s.SessionKey() == key {
					title = s.DisplayTitle()
					break
				}
			}
		} else {
			logger.Debug("session title lookup failed", "session", key, "error", err)
		}
	}

	content, err := export.Render(format, history.Messages, title)
	if err != nil {
		return fmt.Errorf("failed to render export: %w", err)
	}

	path := exportOut
	if !flagChanged(cmd, "out") {
		path = export.Filename(title, format)
	}
	return writeContent(path, ensureNewline(content))
}

func init() {
	exportCmd.Flags().StringVar(&exportAs, "as", string(export.FormatMarkdown), "Format (markdown|json|text)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file (use - for stdout)")
	exportCmd.Flags().StringVar(&exportTitle, "title", "", "Title for the export")
	rootCmd.AddCommand(exportCmd)
}
