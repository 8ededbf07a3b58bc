package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/webclaw-cli/internal/gateway"
	"github.com/salmonumbrella/webclaw-cli/internal/output"
	"github.com/salmonumbrella/webclaw-cli/internal/workbench"
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"sessions"},
	Short:   "List gateway sessions and manage pins",
	Long: `List the gateway's chat sessions and keep a local list of pinned ones.

Pins are stored in the workbench store, not on the gateway. Pinned
sessions are listed first.

Examples:
  webclaw session list
  webclaw session pin main
  webclaw session toggle
  webclaw session pinned`,
}

var (
	sessionListPage  int
	sessionListLimit int
)

type sessionRow struct {
	Key        string `json:"key"`
	FriendlyID string `json:"friendlyId,omitempty"`
	Title      string `json:"title"`
	Label      string `json:"label,omitempty"`
	Pinned     bool   `json:"pinned"`
}

type sessionListResult struct {
	Sessions []sessionRow `json:"sessions" output:"list"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	Limit    int          `json:"limit,omitempty"`
}

var sessionListCmd = &cobra.Command{
	Use:         "list",
	Aliases:     []string{"ls"},
	Short:       "List gateway sessions",
	Args:        cobra.NoArgs,
	Annotations: gatewayAnnotation,
	RunE:        runSessionList,
}

func runSessionList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sessions, err := GetClient().ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	pins, err := getBackend(ctx)
	if err != nil {
		return err
	}
	pinned, err := pins.Pinned(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pins: %w", err)
	}

	rows := orderSessions(sessions, pinned)
	page, total, pageUsed := paginate(rows, sessionListPage, sessionListLimit)

	if structuredOutputRequested() {
		return printStructured(sessionListResult{
			Sessions: page,
			Total:    total,
			Page:     pageUsed,
			Limit:    sessionListLimit,
		})
	}
	if total == 0 {
		printStatus("No sessions\n")
		return nil
	}

	tab := output.Table{Headers: []string{"KEY", "TITLE", "PINNED"}}
	for _, row := range page {
		mark := ""
		if row.Pinned {
			mark = "*"
		}
		tab.Rows = append(tab.Rows, []string{row.Key, row.Title, mark})
	}
	return printTable(tab)
}

// orderSessions puts pinned sessions first, each group keeping gateway order.
func orderSessions(sessions []gateway.Session, pinned []string) []sessionRow {
	isPinned := make(map[string]bool, len(pinned))
	for _, key := range pinned {
		isPinned[key] = true
	}

	var head, tail []sessionRow
	for _, s := range sessions {
		row := sessionRow{
			Key:        s.SessionKey(),
			FriendlyID: s.FriendlyID,
			Title:      s.DisplayTitle(),
			Label:      s.Label,
			Pinned:     isPinned[s.SessionKey()],
		}
		if row.Pinned {
			head = append(head, row)
		} else {
			tail = append(tail, row)
		}
	}
	return append(head, tail...)
}

var sessionPinCmd = &cobra.Command{
	Use:   "pin [session-key]",
	Short: "Pin a session (defaults to --session)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setPin(cmd, args, func(pins workbench.PinStore, key string) (bool, error) {
			return true, pins.Pin(cmd.Context(), key)
		})
	},
}

var sessionUnpinCmd = &cobra.Command{
	Use:   "unpin [session-key]",
	Short: "Unpin a session (defaults to --session)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setPin(cmd, args, func(pins workbench.PinStore, key string) (bool, error) {
			return false, pins.Unpin(cmd.Context(), key)
		})
	},
}

var sessionToggleCmd = &cobra.Command{
	Use:   "toggle [session-key]",
	Short: "Toggle the pin of a session (defaults to --session)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setPin(cmd, args, func(pins workbench.PinStore, key string) (bool, error) {
			return workbench.TogglePin(cmd.Context(), pins, key)
		})
	},
}

var sessionPinnedCmd = &cobra.Command{
	Use:   "pinned",
	Short: "List pinned session keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pins, err := getBackend(cmd.Context())
		if err != nil {
			return err
		}
		pinned, err := pins.Pinned(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load pins: %w", err)
		}

		if structuredOutputRequested() {
			return printStructured(pinned)
		}
		if len(pinned) == 0 {
			printStatus("No pinned sessions\n")
			return nil
		}
		for _, key := range pinned {
			fmt.Fprintln(stdout(), key)
		}
		return nil
	},
}

func setPin(cmd *cobra.Command, args []string, apply func(workbench.PinStore, string) (bool, error)) error {
	key := sessionKey
	if len(args) == 1 {
		key = workbench.NormalizeSessionKey(args[0])
	}

	pins, err := getBackend(cmd.Context())
	if err != nil {
		return err
	}
	state, err := apply(pins, key)
	if err != nil {
		return fmt.Errorf("failed to update pin: %w", err)
	}

	if structuredOutputRequested() {
		return printStructured(map[string]interface{}{"session": key, "pinned": state})
	}
	if state {
		printStatus("Pinned %s\n", key)
	} else {
		printStatus("Unpinned %s\n", key)
	}
	return nil
}

func init() {
	sessionListCmd.Flags().IntVar(&sessionListPage, "page", 1, "Page number (1-based)")
	sessionListCmd.Flags().IntVar(&sessionListLimit, "limit", 0, "Sessions per page (0 for all)")

	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionPinCmd)
	sessionCmd.AddCommand(sessionUnpinCmd)
	sessionCmd.AddCommand(sessionToggleCmd)
	sessionCmd.AddCommand(sessionPinnedCmd)

	rootCmd.AddCommand(sessionCmd)
}
