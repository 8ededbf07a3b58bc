package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/webclaw-cli/internal/output"
	"github.com/salmonumbrella/webclaw-cli/internal/tableblock"
	"github.com/salmonumbrella/webclaw-cli/internal/tui"
	"github.com/salmonumbrella/webclaw-cli/internal/workbench"
)

// errTargetNotFound reports a column or row id that is not in the block.
var errTargetNotFound = errors.New("not found in block")

var tableCmd = &cobra.Command{
	Use:     "table",
	Aliases: []string{"tables", "t"},
	Short:   "Manage table blocks in a session workbench",
	Long: `Commands for the table blocks kept in a session's workbench.

A table block is a grid of named columns and rows of text cells. Blocks
live per session (--session, default "new") in the local workbench store
and can be imported from and exported to CSV and Markdown.

Examples:
  webclaw table new --columns 3 --rows 2
  webclaw table import --file people.csv
  webclaw table show <block-id> --as markdown
  webclaw table set <block-id> --column <col-id> --row <row-id> --value 42
  webclaw table edit <block-id>`,
}

var (
	tableNewColumns int
	tableNewRows    int
	tableShowAs     string
	tableShowRender bool
	tableImportFile string
	tableImportCSV  string
	tableExportAs   string
	tableExportOut  string
	tableGetColumn  string
	tableGetRow     string
	tableSetColumn  string
	tableSetRow     string
	tableSetValue   string
)

type blockSummary struct {
	ID      string   `json:"id"`
	Columns int      `json:"columns"`
	Rows    int      `json:"rows"`
	Headers []string `json:"headers"`
}

type cellResult struct {
	BlockID string            `json:"blockId"`
	Target  tableblock.Target `json:"target"`
	Value   string            `json:"value"`
}

var tableNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a blank table block",
	Long: `Create a blank table block in the current session.

Column names default to "Column 1", "Column 2", and so on. Counts below
one are raised to one.`,
	Example: `  webclaw table new
  webclaw table new --columns 4 --rows 10 --session main`,
	Args: cobra.NoArgs,
	RunE: runTableNew,
}

func runTableNew(cmd *cobra.Command, args []string) error {
	wb, err := getWorkbench(cmd.Context())
	if err != nil {
		return err
	}
	block, err := wb.Add(cmd.Context(), sessionKey,
		tableblock.WithColumns(tableNewColumns),
		tableblock.WithRows(tableNewRows),
	)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return printBlockResult(block, "Created table")
}

var tableListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List table blocks in the session",
	Args:    cobra.NoArgs,
	RunE:    runTableList,
}

func runTableList(cmd *cobra.Command, args []string) error {
	wb, err := getWorkbench(cmd.Context())
	if err != nil {
		return err
	}
	blocks, err := wb.Blocks(cmd.Context(), sessionKey)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	summaries := make([]blockSummary, 0, len(blocks))
	for _, block := range blocks {
		summaries = append(summaries, blockSummary{
			ID:      block.ID,
			Columns: len(block.Columns),
			Rows:    len(block.Rows),
			Headers: block.TableHeaders(),
		})
	}

	if structuredOutputRequested() {
		return printStructured(summaries)
	}
	if len(summaries) == 0 {
		printStatus("No tables in session %s\n", sessionKey)
		return nil
	}

	tab := output.Table{Headers: []string{"ID", "SIZE", "HEADERS"}}
	for _, s := range summaries {
		tab.Rows = append(tab.Rows, []string{
			s.ID,
			fmt.Sprintf("%dx%d", s.Columns, s.Rows),
			strings.Join(s.Headers, ", "),
		})
	}
	return printTable(tab)
}

var tableShowCmd = &cobra.Command{
	Use:   "show <block-id>",
	Short: "Show a table block",
	Long: `Show a table block as a grid, Markdown or CSV.

With structured output (--output json|yaml|ndjson) and no --as, the block
itself is printed. --render formats Markdown for the terminal.`,
	Example: `  webclaw table show <block-id>
  webclaw table show <block-id> --as markdown --render
  webclaw table show <block-id> --as csv > table.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runTableShow,
}

func runTableShow(cmd *cobra.Command, args []string) error {
	_, block, err := lookupBlock(cmd, args[0])
	if err != nil {
		return err
	}

	if structuredOutputRequested() && !cmd.Flags().Changed("as") {
		return printStructured(block)
	}

	switch strings.ToLower(strings.TrimSpace(tableShowAs)) {
	case "", "grid":
		fmt.Fprintln(stdout(), tui.RenderGrid(block))
	case "markdown", "md":
		md := tableblock.ToMarkdown(block)
		if tableShowRender {
			rendered, err := tui.RenderMarkdown(md, tui.DefaultWidth)
			if err != nil {
				return fmt.Errorf("failed to render markdown: %w", err)
			}
			md = rendered
		}
		fmt.Fprint(stdout(), ensureNewline(md))
	case "csv":
		fmt.Fprint(stdout(), ensureNewline(tableblock.ToCSV(block)))
	default:
		return fmt.Errorf("invalid --as %q (expected grid|markdown|csv)", tableShowAs)
	}
	return nil
}

var tableImportCmd = &cobra.Command{
	Use:   "import [block-id]",
	Short: "Import CSV as a table block",
	Long: `Parse CSV into a table block.

Without a block id a new block is added to the session. With a block id
that block is replaced by the parsed table and keeps its id. The first
record becomes the header row. A CSV that fails to parse (for example an
unclosed quote) changes nothing.`,
	Example: `  webclaw table import --file people.csv
  webclaw table import <block-id> --csv $'name,age\nAlice,30'
  cat data.csv | webclaw table import`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTableImport,
}

func runTableImport(cmd *cobra.Command, args []string) error {
	text, err := readCSVFromFlags(tableImportFile, tableImportCSV, stdinFromContext(cmd.Context()))
	if err != nil {
		return err
	}

	wb, err := getWorkbench(cmd.Context())
	if err != nil {
		return err
	}

	if len(args) == 0 {
		block, err := wb.Import(cmd.Context(), sessionKey, text)
		if err != nil {
			return fmt.Errorf("failed to import CSV: %w", err)
		}
		return printBlockResult(block, "Imported table")
	}

	block, err := wb.Modify(cmd.Context(), sessionKey, args[0], func(b tableblock.Block) (tableblock.Block, error) {
		return tableblock.FromCSV(text, b.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to import CSV: %w", err)
	}
	return printBlockResult(block, "Replaced table")
}

var tableExportCmd = &cobra.Command{
	Use:   "export <block-id>",
	Short: "Export a table block as CSV or Markdown",
	Example: `  webclaw table export <block-id> --as csv --out table.csv
  webclaw table export <block-id> --as markdown`,
	Args: cobra.ExactArgs(1),
	RunE: runTableExport,
}

func runTableExport(cmd *cobra.Command, args []string) error {
	_, block, err := lookupBlock(cmd, args[0])
	if err != nil {
		return err
	}

	var content string
	switch strings.ToLower(strings.TrimSpace(tableExportAs)) {
	case "", "csv":
		content = tableblock.ToCSV(block)
	case "markdown", "md":
		content = tableblock.ToMarkdown(block)
	default:
		return fmt.Errorf("invalid --as %q (expected csv|markdown)", tableExportAs)
	}
	return writeContent(tableExportOut, ensureNewline(content))
}

var tableGetCmd = &cobra.Command{
	Use:   "get <block-id>",
	Short: "Read a header or cell",
	Long: `Read a header name (--column only) or a cell value (--column and --row).

A cell that was never written reads as an empty string.`,
	Args: cobra.ExactArgs(1),
	RunE: runTableGet,
}

func runTableGet(cmd *cobra.Command, args []string) error {
	_, block, err := lookupBlock(cmd, args[0])
	if err != nil {
		return err
	}
	target, err := targetFromFlags(block, tableGetColumn, tableGetRow)
	if err != nil {
		return err
	}

	value := tableblock.ReadValue(block, target)
	if structuredOutputRequested() {
		return printStructured(cellResult{BlockID: block.ID, Target: target, Value: value})
	}
	fmt.Fprintln(stdout(), value)
	return nil
}

var tableSetCmd = &cobra.Command{
	Use:   "set <block-id>",
	Short: "Write a header or cell",
	Long: `Write a header name (--column only) or a cell value (--column and --row).

Headers may be set to an empty string; such columns export with an empty
name.`,
	Example: `  webclaw table set <block-id> --column <col-id> --value Name
  webclaw table set <block-id> --column <col-id> --row <row-id> --value 30`,
	Args: cobra.ExactArgs(1),
	RunE: runTableSet,
}

func runTableSet(cmd *cobra.Command, args []string) error {
	if !cmd.Flags().Changed("value") {
		return fmt.Errorf("--value is required")
	}

	wb, err := getWorkbench(cmd.Context())
	if err != nil {
		return err
	}

	var target tableblock.Target
	block, err := wb.Modify(cmd.Context(), sessionKey, args[0], func(b tableblock.Block) (tableblock.Block, error) {
		t, err := targetFromFlags(b, tableSetColumn, tableSetRow)
		if err != nil {
			return b, err
		}
		target = t
		return tableblock.UpdateWithValue(b, t, tableSetValue), nil
	})
	if err != nil {
		return err
	}

	if structuredOutputRequested() {
		return printStructured(cellResult{BlockID: block.ID, Target: target, Value: tableSetValue})
	}
	printStatus("Updated %s\n", describeTarget(block, target))
	return nil
}

var tableAddRowCmd = &cobra.Command{
	Use:   "add-row <block-id>",
	Short: "Append an empty row",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return modifyAndPrint(cmd, args[0], "Added row to", func(b tableblock.Block) (tableblock.Block, error) {
			return b.AddRow(), nil
		})
	},
}

var tableAddColumnCmd = &cobra.Command{
	Use:   "add-column <block-id>",
	Short: "Append an empty column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return modifyAndPrint(cmd, args[0], "Added column to", func(b tableblock.Block) (tableblock.Block, error) {
			return b.AddColumn(), nil
		})
	},
}

var tableRemoveRowCmd = &cobra.Command{
	Use:   "remove-row <block-id> <row-id>",
	Short: "Remove a row",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rowID := args[1]
		return modifyAndPrint(cmd, args[0], "Removed row from", func(b tableblock.Block) (tableblock.Block, error) {
			if _, ok := b.Row(rowID); !ok {
				return b, fmt.Errorf("row %q %w %s", rowID, errTargetNotFound, b.ID)
			}
			return b.RemoveRow(rowID), nil
		})
	},
}

var tableRemoveColumnCmd = &cobra.Command{
	Use:   "remove-column <block-id> <column-id>",
	Short: "Remove a column",
	Long:  `Remove a column and its cells. The last remaining column cannot be removed.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		columnID := args[1]
		return modifyAndPrint(cmd, args[0], "Removed column from", func(b tableblock.Block) (tableblock.Block, error) {
			if _, ok := b.Column(columnID); !ok {
				return b, fmt.Errorf("column %q %w %s", columnID, errTargetNotFound, b.ID)
			}
			if len(b.Columns) <= 1 {
				return b, fmt.Errorf("cannot remove the only column of %s", b.ID)
			}
			return b.RemoveColumn(columnID), nil
		})
	},
}

var tableEditCmd = &cobra.Command{
	Use:   "edit <block-id>",
	Short: "Edit a table block interactively",
	Long: `Open a full-screen editor on a table block.

Select mode:
  tab / shift+tab  move between headers and cells
  enter            edit the selection
  r / c            add a row / column
  d / x            remove the selected row / column
  q or esc         save and quit
  ctrl+c           quit without saving

Edit mode:
  enter            commit
  tab / shift+tab  commit and edit the next / previous target
  esc              cancel the edit`,
	Args: cobra.ExactArgs(1),
	RunE: runTableEdit,
}

func runTableEdit(cmd *cobra.Command, args []string) error {
	wb, block, err := lookupBlock(cmd, args[0])
	if err != nil {
		return err
	}

	result, err := runEditor(cmd.Context(), block, stdinFromContext(cmd.Context()), stdoutFromContext(cmd.Context()))
	if err != nil {
		return fmt.Errorf("editor failed: %w", err)
	}
	if !result.Saved {
		if structuredOutputRequested() {
			return printStructured(map[string]interface{}{"id": block.ID, "saved": false})
		}
		printStatus("Discarded changes to %s\n", block.ID)
		return nil
	}

	if err := wb.Update(cmd.Context(), sessionKey, block.ID, result.Block); err != nil {
		return fmt.Errorf("failed to save table: %w", err)
	}
	return printBlockResult(result.Block, "Saved table")
}

var tableRemoveCmd = &cobra.Command{
	Use:     "remove <block-id>",
	Aliases: []string{"rm", "delete"},
	Short:   "Remove a table block",
	Long: `Remove a table block from the session.

This cannot be undone. Use --yes to skip the confirmation prompt.`,
	Args: cobra.ExactArgs(1),
	RunE: runTableRemove,
}

func runTableRemove(cmd *cobra.Command, args []string) error {
	if !confirm(cmd, fmt.Sprintf("Remove table %s from session %s? This cannot be undone.", args[0], sessionKey)) {
		return nil
	}

	wb, err := getWorkbench(cmd.Context())
	if err != nil {
		return err
	}
	if err := wb.Remove(cmd.Context(), sessionKey, args[0]); err != nil {
		return fmt.Errorf("failed to remove table: %w", err)
	}

	if structuredOutputRequested() {
		return printStructured(map[string]string{"status": "removed", "id": args[0], "session": sessionKey})
	}
	printStatus("Removed table %s\n", args[0])
	return nil
}

var tableClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every table block in the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirm(cmd, fmt.Sprintf("Remove all tables from session %s? This cannot be undone.", sessionKey)) {
			return nil
		}

		wb, err := getWorkbench(cmd.Context())
		if err != nil {
			return err
		}
		if err := wb.Clear(cmd.Context(), sessionKey); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}

		if structuredOutputRequested() {
			return printStructured(map[string]string{"status": "cleared", "session": sessionKey})
		}
		printStatus("Cleared session %s\n", sessionKey)
		return nil
	},
}

var tableSendCmd = &cobra.Command{
	Use:   "send <block-id>",
	Short: "Send a table block to the session as Markdown",
	Long: `Render a table block as a Markdown table and send it to the session's
chat on the gateway.`,
	Args:        cobra.ExactArgs(1),
	Annotations: gatewayAnnotation,
	RunE:        runTableSend,
}

func runTableSend(cmd *cobra.Command, args []string) error {
	_, block, err := lookupBlock(cmd, args[0])
	if err != nil {
		return err
	}

	md := tableblock.ToMarkdown(block)
	if err := GetClient().SendMessage(cmd.Context(), sessionKey, md); err != nil {
		return fmt.Errorf("failed to send table: %w", err)
	}

	if structuredOutputRequested() {
		return printStructured(map[string]string{"status": "sent", "id": block.ID, "session": sessionKey})
	}
	printStatus("Sent table %s to %s\n", block.ID, sessionKey)
	return nil
}

func init() {
	tableNewCmd.Flags().IntVar(&tableNewColumns, "columns", tableblock.DefaultColumnCount, "Number of columns")
	tableNewCmd.Flags().IntVar(&tableNewRows, "rows", tableblock.DefaultRowCount, "Number of rows")

	tableShowCmd.Flags().StringVar(&tableShowAs, "as", "grid", "Rendering (grid|markdown|csv)")
	tableShowCmd.Flags().BoolVar(&tableShowRender, "render", false, "Format Markdown for the terminal")

	tableImportCmd.Flags().StringVarP(&tableImportFile, "file", "f", "", "CSV file to import (use - for stdin)")
	tableImportCmd.Flags().StringVar(&tableImportCSV, "csv", "", "CSV text to import")

	tableExportCmd.Flags().StringVar(&tableExportAs, "as", "csv", "Format (csv|markdown)")
	tableExportCmd.Flags().StringVar(&tableExportOut, "out", "-", "Output file (use - for stdout)")

	tableGetCmd.Flags().StringVar(&tableGetColumn, "column", "", "Column id")
	tableGetCmd.Flags().StringVar(&tableGetRow, "row", "", "Row id (omit for the header)")

	tableSetCmd.Flags().StringVar(&tableSetColumn, "column", "", "Column id")
	tableSetCmd.Flags().StringVar(&tableSetRow, "row", "", "Row id (omit for the header)")
	tableSetCmd.Flags().StringVar(&tableSetValue, "value", "", "New value")

	tableCmd.AddCommand(tableNewCmd)
	tableCmd.AddCommand(tableListCmd)
	tableCmd.AddCommand(tableShowCmd)
	tableCmd.AddCommand(tableImportCmd)
	tableCmd.AddCommand(tableExportCmd)
	tableCmd.AddCommand(tableGetCmd)
	tableCmd.AddCommand(tableSetCmd)
	tableCmd.AddCommand(tableAddRowCmd)
	tableCmd.AddCommand(tableAddColumnCmd)
	tableCmd.AddCommand(tableRemoveRowCmd)
	tableCmd.AddCommand(tableRemoveColumnCmd)
	tableCmd.AddCommand(tableEditCmd)
	tableCmd.AddCommand(tableRemoveCmd)
	tableCmd.AddCommand(tableClearCmd)
	tableCmd.AddCommand(tableSendCmd)

	rootCmd.AddCommand(tableCmd)
}

// lookupBlock loads a block of the current session.
func lookupBlock(cmd *cobra.Command, blockID string) (*workbench.Workbench, tableblock.Block, error) {
	wb, err := getWorkbench(cmd.Context())
	if err != nil {
		return nil, tableblock.Block{}, err
	}
	block, err := wb.Block(cmd.Context(), sessionKey, blockID)
	if err != nil {
		return nil, tableblock.Block{}, fmt.Errorf("table %s in session %s: %w", blockID, sessionKey, err)
	}
	return wb, block, nil
}

// targetFromFlags builds a header (no row) or cell target and checks that
// it exists in b.
func targetFromFlags(b tableblock.Block, columnID, rowID string) (tableblock.Target, error) {
	columnID = strings.TrimSpace(columnID)
	rowID = strings.TrimSpace(rowID)
	if columnID == "" {
		return tableblock.Target{}, fmt.Errorf("--column is required")
	}
	if _, ok := b.Column(columnID); !ok {
		return tableblock.Target{}, fmt.Errorf("column %q %w %s", columnID, errTargetNotFound, b.ID)
	}
	if rowID == "" {
		return tableblock.HeaderTarget(columnID), nil
	}
	if _, ok := b.Row(rowID); !ok {
		return tableblock.Target{}, fmt.Errorf("row %q %w %s", rowID, errTargetNotFound, b.ID)
	}
	return tableblock.CellTarget(rowID, columnID), nil
}

func describeTarget(b tableblock.Block, target tableblock.Target) string {
	column, _ := b.Column(target.ColumnID)
	if target.IsHeader() {
		return fmt.Sprintf("header of column %s (%q)", target.ColumnID, column.Name)
	}
	return fmt.Sprintf("cell %s/%s", target.RowID, target.ColumnID)
}

func modifyAndPrint(cmd *cobra.Command, blockID, verb string, fn func(tableblock.Block) (tableblock.Block, error)) error {
	wb, err := getWorkbench(cmd.Context())
	if err != nil {
		return err
	}
	block, err := wb.Modify(cmd.Context(), sessionKey, blockID, fn)
	if err != nil {
		return err
	}
	return printBlockResult(block, verb)
}

// printBlockResult prints the block for structured output, otherwise a
// status line followed by the grid.
func printBlockResult(block tableblock.Block, verb string) error {
	if structuredOutputRequested() {
		return printStructured(block)
	}
	printStatus("%s %s (%d columns, %d rows)\n", verb, block.ID, len(block.Columns), len(block.Rows))
	fmt.Fprintln(stdout(), tui.RenderGrid(block))
	return nil
}

// confirm asks for "yes" on stdin unless --yes is set.
func confirm(cmd *cobra.Command, question string) bool {
	if output.YesFromContext(cmd.Context()) {
		return true
	}
	errOut := cmd.ErrOrStderr()
	fmt.Fprintln(errOut, question)
	fmt.Fprint(errOut, "Type 'yes' to confirm: ")
	reader := bufio.NewReader(stdinFromContext(cmd.Context()))
	answer, _ := reader.ReadString('\n')
	if strings.TrimSpace(answer) != "yes" {
		fmt.Fprintln(errOut, "Aborted.")
		return false
	}
	return true
}

// writeContent writes content to path, or to stdout when path is "-" or
// empty.
func writeContent(path, content string) error {
	path = strings.TrimSpace(path)
	if path == "" || path == "-" {
		_, err := fmt.Fprint(stdout(), content)
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if structuredOutputRequested() {
		return printStructured(map[string]interface{}{"status": "written", "path": path, "bytes": len(content)})
	}
	printStatus("Wrote %s\n", path)
	return nil
}

func ensureNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
