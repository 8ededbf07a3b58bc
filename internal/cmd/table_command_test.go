package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/salmonumbrella/webclaw-cli/internal/tableblock"
	"github.com/salmonumbrella/webclaw-cli/internal/tui"
	"github.com/salmonumbrella/webclaw-cli/internal/workbench"
)

// seedBlock imports csv into session and returns the stored block.
func seedBlock(t *testing.T, env *cliEnv, session, csv string) tableblock.Block {
	t.Helper()
	block, err := workbench.New(env.store).Import(context.Background(), session, csv)
	if err != nil {
		t.Fatalf("seed block: %v", err)
	}
	return block
}

func storedBlocks(t *testing.T, env *cliEnv, session string) []tableblock.Block {
	t.Helper()
	blocks, err := env.store.Get(context.Background(), session)
	if err != nil {
		t.Fatalf("load blocks: %v", err)
	}
	return blocks
}

func TestTableNew(t *testing.T) {
	env := newCLIEnv()

	var block tableblock.Block
	env.run(t, "-o", "json", "table", "new", "--columns", "2", "--rows", "4").decode(t, &block)

	if len(block.Columns) != 2 || len(block.Rows) != 4 {
		t.Fatalf("expected 2x4 block, got %dx%d", len(block.Columns), len(block.Rows))
	}
	if block.Columns[0].Name != "Column 1" {
		t.Errorf("expected default column name, got %q", block.Columns[0].Name)
	}

	blocks := storedBlocks(t, env, workbench.DefaultSessionKey)
	if len(blocks) != 1 || blocks[0].ID != block.ID {
		t.Fatalf("expected block stored in the default session, got %+v", blocks)
	}
}

func TestTableNewText(t *testing.T) {
	env := newCLIEnv()

	run := env.run(t, "-o", "text", "table", "new")
	if run.err != nil {
		t.Fatalf("execute: %v", run.err)
	}
	if !strings.Contains(run.stdout, "Created table") || !strings.Contains(run.stdout, "Column 3") {
		t.Errorf("expected status and grid, got %q", run.stdout)
	}
}

func TestTableList(t *testing.T) {
	env := newCLIEnv()
	first := seedBlock(t, env, "main", "name,age\nAlice,30")
	seedBlock(t, env, "other", "x\n1")

	var summaries []blockSummary
	env.run(t, "-o", "json", "--session", "main", "table", "list").decode(t, &summaries)

	if len(summaries) != 1 {
		t.Fatalf("expected only the main session's block, got %+v", summaries)
	}
	got := summaries[0]
	if got.ID != first.ID || got.Columns != 2 || got.Rows != 1 {
		t.Errorf("unexpected summary %+v", got)
	}
	if strings.Join(got.Headers, ",") != "name,age" {
		t.Errorf("unexpected headers %v", got.Headers)
	}
}

func TestTableImportFromCSVFlag(t *testing.T) {
	env := newCLIEnv()

	var block tableblock.Block
	env.run(t, "-o", "json", "-s", "main", "table", "import", "--csv", "name,age\nAlice,30\nBob,29").decode(t, &block)

	want := [][]string{{"name", "age"}, {"Alice", "30"}, {"Bob", "29"}}
	if got := block.Grid(); !equalGrid(got, want) {
		t.Fatalf("unexpected grid %v", got)
	}
	if len(storedBlocks(t, env, "main")) != 1 {
		t.Fatal("expected the imported block to be stored")
	}
}

func TestTableImportFromFileAndStdin(t *testing.T) {
	env := newCLIEnv()
	path := filepath.Join(t.TempDir(), "people.csv")
	if err := os.WriteFile(path, []byte("name\n\"Smith, J\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var fromFile tableblock.Block
	env.run(t, "-o", "json", "table", "import", "--file", path).decode(t, &fromFile)
	if got := tableblock.ReadValue(fromFile, tableblock.CellTarget(fromFile.Rows[0].ID, fromFile.Columns[0].ID)); got != "Smith, J" {
		t.Errorf("expected quoted field, got %q", got)
	}

	env.stdin = "a,b\n1,2"
	var fromStdin tableblock.Block
	env.run(t, "-o", "json", "table", "import").decode(t, &fromStdin)
	if got := fromStdin.Grid(); !equalGrid(got, [][]string{{"a", "b"}, {"1", "2"}}) {
		t.Errorf("unexpected grid from stdin %v", got)
	}
}

func TestTableImportReplacesBlock(t *testing.T) {
	env := newCLIEnv()
	original := seedBlock(t, env, "main", "a\n1")

	var block tableblock.Block
	env.run(t, "-o", "json", "-s", "main", "table", "import", original.ID, "--csv", "x,y\n1,2").decode(t, &block)

	if block.ID != original.ID {
		t.Errorf("expected block id kept, got %q", block.ID)
	}
	blocks := storedBlocks(t, env, "main")
	if len(blocks) != 1 || !equalGrid(blocks[0].Grid(), [][]string{{"x", "y"}, {"1", "2"}}) {
		t.Fatalf("expected replaced block, got %+v", blocks)
	}
}

func TestTableImportRejectsBadCSV(t *testing.T) {
	env := newCLIEnv()

	run := env.run(t, "-o", "json", "table", "import", "--csv", `a,"b`)

	if !errors.Is(run.err, tableblock.ErrUnclosedQuote) {
		t.Fatalf("expected unclosed quote error, got %v", run.err)
	}
	if len(storedBlocks(t, env, workbench.DefaultSessionKey)) != 0 {
		t.Fatal("expected nothing stored for a rejected import")
	}
	envelope := buildErrorEnvelope(run.err)["error"].(map[string]interface{})
	if envelope["type"] != "csv" {
		t.Errorf("expected csv error type, got %v", envelope["type"])
	}
}

func TestTableImportRequiresInput(t *testing.T) {
	env := newCLIEnv()

	run := env.run(t, "-o", "json", "table", "import")

	if run.err == nil || run.err.Error() != csvRequired {
		t.Fatalf("expected %q, got %v", csvRequired, run.err)
	}
}

func TestTableShowRenderings(t *testing.T) {
	env := newCLIEnv()
	block := seedBlock(t, env, "main", "name,age\nAlice,30")

	csvRun := env.run(t, "-o", "json", "-s", "main", "table", "show", block.ID, "--as", "csv")
	if csvRun.err != nil {
		t.Fatalf("show csv: %v", csvRun.err)
	}
	if csvRun.stdout != "name,age\nAlice,30\n" {
		t.Errorf("unexpected csv %q", csvRun.stdout)
	}

	mdRun := env.run(t, "-o", "text", "-s", "main", "table", "show", block.ID, "--as", "markdown")
	if mdRun.err != nil {
		t.Fatalf("show markdown: %v", mdRun.err)
	}
	want := "| name | age |\n| --- | --- |\n| Alice | 30 |\n"
	if mdRun.stdout != want {
		t.Errorf("unexpected markdown %q", mdRun.stdout)
	}

	gridRun := env.run(t, "-o", "text", "-s", "main", "table", "show", block.ID)
	if gridRun.err != nil {
		t.Fatalf("show grid: %v", gridRun.err)
	}
	if gridRun.stdout != tui.RenderGrid(block)+"\n" {
		t.Errorf("unexpected grid %q", gridRun.stdout)
	}

	var shown tableblock.Block
	env.run(t, "-o", "json", "-s", "main", "table", "show", block.ID).decode(t, &shown)
	if shown.ID != block.ID {
		t.Errorf("expected the block as JSON, got %+v", shown)
	}

	bad := env.run(t, "-o", "text", "-s", "main", "table", "show", block.ID, "--as", "pdf")
	if bad.err == nil || !strings.Contains(bad.err.Error(), "invalid --as") {
		t.Errorf("expected invalid --as error, got %v", bad.err)
	}
}

func TestTableShowMissingBlock(t *testing.T) {
	env := newCLIEnv()

	run := env.run(t, "-o", "json", "table", "show", "nope")

	if !errors.Is(run.err, workbench.ErrBlockNotFound) {
		t.Fatalf("expected ErrBlockNotFound, got %v", run.err)
	}
}

func TestTableExport(t *testing.T) {
	env := newCLIEnv()
	block := seedBlock(t, env, "main", "name,note\nAlice,\"a, b\"")

	path := filepath.Join(t.TempDir(), "out.csv")
	run := env.run(t, "-o", "text", "-s", "main", "table", "export", block.ID, "--out", path)
	if run.err != nil {
		t.Fatalf("export: %v", run.err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if string(data) != "name,note\nAlice,\"a, b\"\n" {
		t.Errorf("unexpected csv file %q", data)
	}

	md := env.run(t, "-o", "text", "-s", "main", "table", "export", block.ID, "--as", "markdown")
	if md.err != nil {
		t.Fatalf("export markdown: %v", md.err)
	}
	if !strings.HasPrefix(md.stdout, "| name | note |\n| --- | --- |\n") {
		t.Errorf("unexpected markdown %q", md.stdout)
	}
}

func TestTableGetAndSet(t *testing.T) {
	env := newCLIEnv()
	block := seedBlock(t, env, "main", "name,age\nAlice,30")
	col := block.Columns[1].ID
	row := block.Rows[0].ID

	var cell cellResult
	env.run(t, "-o", "json", "-s", "main", "table", "get", block.ID, "--column", col, "--row", row).decode(t, &cell)
	if cell.Value != "30" || cell.Target.RowID != row {
		t.Errorf("unexpected cell %+v", cell)
	}

	env.run(t, "-o", "json", "-s", "main", "table", "set", block.ID, "--column", col, "--row", row, "--value", "31").decode(t, &cell)
	var header cellResult
	env.run(t, "-o", "json", "-s", "main", "table", "set", block.ID, "--column", col, "--value", "").decode(t, &header)
	if !header.Target.IsHeader() {
		t.Errorf("expected header target, got %+v", header.Target)
	}

	stored := storedBlocks(t, env, "main")[0]
	if got := tableblock.ReadValue(stored, tableblock.CellTarget(row, col)); got != "31" {
		t.Errorf("expected updated cell, got %q", got)
	}
	if stored.Columns[1].Name != "" {
		t.Errorf("expected empty header allowed, got %q", stored.Columns[1].Name)
	}

	name := env.run(t, "-o", "text", "-s", "main", "table", "get", block.ID, "--column", block.Columns[0].ID)
	if name.err != nil || name.stdout != "name\n" {
		t.Errorf("expected header value, got %q (%v)", name.stdout, name.err)
	}
}

func TestTableSetValidatesTarget(t *testing.T) {
	env := newCLIEnv()
	block := seedBlock(t, env, "main", "a\n1")

	missingValue := env.run(t, "-o", "json", "-s", "main", "table", "set", block.ID, "--column", block.Columns[0].ID)
	if missingValue.err == nil || !strings.Contains(missingValue.err.Error(), "--value") {
		t.Errorf("expected --value required, got %v", missingValue.err)
	}

	badColumn := env.run(t, "-o", "json", "-s", "main", "table", "set", block.ID, "--column", "nope", "--value", "x")
	if !errors.Is(badColumn.err, errTargetNotFound) {
		t.Errorf("expected missing column error, got %v", badColumn.err)
	}

	badRow := env.run(t, "-o", "json", "-s", "main", "table", "get", block.ID, "--column", block.Columns[0].ID, "--row", "nope")
	if !errors.Is(badRow.err, errTargetNotFound) {
		t.Errorf("expected missing row error, got %v", badRow.err)
	}

	stored := storedBlocks(t, env, "main")[0]
	if !equalGrid(stored.Grid(), block.Grid()) {
		t.Errorf("expected block unchanged, got %v", stored.Grid())
	}
}

func TestTableStructureCommands(t *testing.T) {
	env := newCLIEnv()
	block := seedBlock(t, env, "main", "a,b\n1,2")

	var got tableblock.Block
	env.run(t, "-o", "json", "-s", "main", "table", "add-row", block.ID).decode(t, &got)
	if len(got.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got.Rows))
	}
	env.run(t, "-o", "json", "-s", "main", "table", "add-column", block.ID).decode(t, &got)
	if len(got.Columns) != 3 || got.Columns[2].Name != "Column 3" {
		t.Fatalf("unexpected columns %+v", got.Columns)
	}

	env.run(t, "-o", "json", "-s", "main", "table", "remove-row", block.ID, block.Rows[0].ID).decode(t, &got)
	if len(got.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got.Rows))
	}
	env.run(t, "-o", "json", "-s", "main", "table", "remove-column", block.ID, block.Columns[0].ID).decode(t, &got)
	if len(got.Columns) != 2 || got.Columns[0].Name != "b" {
		t.Fatalf("unexpected columns after removal %+v", got.Columns)
	}

	missing := env.run(t, "-o", "json", "-s", "main", "table", "remove-row", block.ID, "nope")
	if !errors.Is(missing.err, errTargetNotFound) {
		t.Errorf("expected missing row error, got %v", missing.err)
	}
}

func TestTableRemoveColumnKeepsLastColumn(t *testing.T) {
	env := newCLIEnv()
	block := seedBlock(t, env, "main", "only\n1")

	run := env.run(t, "-o", "json", "-s", "main", "table", "remove-column", block.ID, block.Columns[0].ID)
	if run.err == nil || !strings.Contains(run.err.Error(), "only column") {
		t.Fatalf("expected last column error, got %v", run.err)
	}
	if len(storedBlocks(t, env, "main")[0].Columns) != 1 {
		t.Error("expected column kept")
	}
}

func TestTableEdit(t *testing.T) {
	env := newCLIEnv()
	block := seedBlock(t, env, "main", "a\n1")

	prev := runEditor
	defer func() { runEditor = prev }()

	var edited tableblock.Block
	runEditor = func(ctx context.Context, b tableblock.Block, in io.Reader, out io.Writer) (tui.Result, error) {
		edited = tableblock.UpdateWithValue(b, tableblock.HeaderTarget(b.Columns[0].ID), "renamed")
		return tui.Result{Block: edited, Saved: true}, nil
	}

	var saved tableblock.Block
	env.run(t, "-o", "json", "-s", "main", "table", "edit", block.ID).decode(t, &saved)
	if saved.Columns[0].Name != "renamed" {
		t.Fatalf("expected edited block, got %+v", saved)
	}
	if storedBlocks(t, env, "main")[0].Columns[0].Name != "renamed" {
		t.Error("expected edit persisted")
	}

	runEditor = func(ctx context.Context, b tableblock.Block, in io.Reader, out io.Writer) (tui.Result, error) {
		return tui.Result{Block: b}, nil
	}
	var discarded map[string]interface{}
	env.run(t, "-o", "json", "-s", "main", "table", "edit", block.ID).decode(t, &discarded)
	if discarded["saved"] != false {
		t.Errorf("expected saved=false, got %v", discarded)
	}
}

func TestTableRemoveConfirmation(t *testing.T) {
	env := newCLIEnv()
	block := seedBlock(t, env, "main", "a\n1")

	env.stdin = "no\n"
	declined := env.run(t, "-o", "text", "-s", "main", "table", "remove", block.ID)
	if declined.err != nil {
		t.Fatalf("declined remove: %v", declined.err)
	}
	if !strings.Contains(declined.stderr, "Aborted.") {
		t.Errorf("expected abort notice, got %q", declined.stderr)
	}
	if len(storedBlocks(t, env, "main")) != 1 {
		t.Fatal("expected block kept after declining")
	}

	env.stdin = "yes\n"
	if run := env.run(t, "-o", "text", "-s", "main", "table", "remove", block.ID); run.err != nil {
		t.Fatalf("confirmed remove: %v", run.err)
	}
	if len(storedBlocks(t, env, "main")) != 0 {
		t.Fatal("expected block removed")
	}

	env.stdin = ""
	missing := env.run(t, "-o", "json", "--yes", "-s", "main", "table", "remove", block.ID)
	if !errors.Is(missing.err, workbench.ErrBlockNotFound) {
		t.Errorf("expected ErrBlockNotFound, got %v", missing.err)
	}
}

func TestTableClear(t *testing.T) {
	env := newCLIEnv()
	seedBlock(t, env, "main", "a\n1")
	seedBlock(t, env, "main", "b\n2")
	seedBlock(t, env, "other", "c\n3")

	var result map[string]string
	env.run(t, "-o", "json", "-y", "-s", "main", "table", "clear").decode(t, &result)

	if result["status"] != "cleared" {
		t.Errorf("unexpected result %v", result)
	}
	if len(storedBlocks(t, env, "main")) != 0 {
		t.Error("expected main cleared")
	}
	if len(storedBlocks(t, env, "other")) != 1 {
		t.Error("expected other session untouched")
	}
}

func TestTableSend(t *testing.T) {
	env := newCLIEnv()
	env.env["WEBCLAW_GATEWAY_TOKEN"] = "tok"
	block := seedBlock(t, env, "main", "name,age\nAlice,30")

	var gotSession, gotText string
	env.gateway.SendMessageFunc = func(ctx context.Context, sessionKey, text string) error {
		gotSession, gotText = sessionKey, text
		return nil
	}

	var result map[string]string
	env.run(t, "-o", "json", "-s", "main", "table", "send", block.ID).decode(t, &result)

	if gotSession != "main" {
		t.Errorf("expected send to main, got %q", gotSession)
	}
	if gotText != tableblock.ToMarkdown(block) {
		t.Errorf("expected markdown table, got %q", gotText)
	}
	if result["status"] != "sent" {
		t.Errorf("unexpected result %v", result)
	}
}

func equalGrid(a, b [][]string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if strings.Join(a[i], "\x00") != strings.Join(b[i], "\x00") || len(a[i]) != len(b[i]) {
			return false
		}
	}
	return true
}
