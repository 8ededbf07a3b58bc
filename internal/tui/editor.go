package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/salmonumbrella/webclaw-cli/internal/tableblock"
)

// Mode is the editor's input mode.
type Mode int

const (
	// ModeSelect moves a selection over headers and cells.
	ModeSelect Mode = iota
	// ModeEdit types into the selected header or cell.
	ModeEdit
)

var (
	statusStyle = lipgloss.NewStyle().Faint(true)
	modeStyle   = lipgloss.NewStyle().Bold(true)
)

const (
	selectHelp = "tab/shift+tab move • enter edit • r add row • c add column • d remove row • x remove column • q save • ctrl+c abort"
	editHelp   = "enter commit • tab/shift+tab commit and move • esc cancel • ctrl+x remove column"
)

// Editor is a bubbletea model that edits one table block.
type Editor struct {
	block    tableblock.Block
	selected tableblock.Target
	editing  tableblock.Target
	mode     Mode
	input    textinput.Model
	saved    bool
	aborted  bool
	width    int
}

// NewEditor returns an editor positioned on the first header of b.
func NewEditor(b tableblock.Block) Editor {
	input := textinput.New()
	input.Prompt = "› "
	e := Editor{block: b, input: input, width: DefaultWidth}
	if targets := tableblock.EditTargets(b); len(targets) > 0 {
		e.selected = targets[0]
	}
	return e
}

// Block returns the block as edited so far.
func (e Editor) Block() tableblock.Block { return e.block }

// Selected returns the selected target.
func (e Editor) Selected() tableblock.Target { return e.selected }

// Editing returns the target being edited, valid in ModeEdit.
func (e Editor) Editing() tableblock.Target { return e.editing }

// Mode returns the current input mode.
func (e Editor) Mode() Mode { return e.mode }

// Draft returns the uncommitted text of the edit in progress.
func (e Editor) Draft() string { return e.input.Value() }

// Saved reports whether the user finished with q or esc.
func (e Editor) Saved() bool { return e.saved }

// Aborted reports whether the user left with ctrl+c.
func (e Editor) Aborted() bool { return e.aborted }

func (e Editor) Init() tea.Cmd { return nil }

func (e Editor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		e.width = msg.Width
		return e, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			e.aborted = true
			return e, tea.Quit
		}
		if e.mode == ModeEdit {
			return e.updateEdit(msg)
		}
		return e.updateSelect(msg)
	}
	return e, nil
}

func (e Editor) updateSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		e.move(tableblock.Forward)
	case "shift+tab":
		e.move(tableblock.Backward)
	case "enter":
		return e.beginEdit(e.selected)
	case "r":
		e.mutate(e.block.AddRow())
	case "c":
		e.mutate(e.block.AddColumn())
	case "d":
		if !e.selected.IsHeader() {
			e.mutate(e.block.RemoveRow(e.selected.RowID))
		}
	case "x":
		e.mutate(e.block.RemoveColumn(e.selected.ColumnID))
	case "q", "esc":
		e.saved = true
		return e, tea.Quit
	}
	return e, nil
}

func (e Editor) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		e.commit()
		e.endEdit()
		return e, nil
	case "tab", "shift+tab":
		dir := tableblock.Forward
		if msg.String() == "shift+tab" {
			dir = tableblock.Backward
		}
		e.commit()
		next, ok := tableblock.NextTarget(tableblock.EditTargets(e.block), e.editing, dir)
		if !ok {
			e.endEdit()
			return e, nil
		}
		return e.beginEdit(next)
	case "esc":
		e.endEdit()
		return e, nil
	case "ctrl+x":
		e.mutate(e.block.RemoveColumn(e.editing.ColumnID))
		return e, nil
	}

	var cmd tea.Cmd
	e.input, cmd = e.input.Update(msg)
	return e, cmd
}

func (e *Editor) move(dir tableblock.Direction) {
	if next, ok := tableblock.NextTarget(tableblock.EditTargets(e.block), e.selected, dir); ok {
		e.selected = next
	}
}

func (e Editor) beginEdit(target tableblock.Target) (tea.Model, tea.Cmd) {
	if !e.valid(target) {
		return e, nil
	}
	e.mode = ModeEdit
	e.editing = target
	e.selected = target
	e.input.SetValue(tableblock.ReadValue(e.block, target))
	e.input.CursorEnd()
	return e, e.input.Focus()
}

func (e *Editor) commit() {
	if e.valid(e.editing) {
		e.block = tableblock.UpdateWithValue(e.block, e.editing, e.input.Value())
	}
}

func (e *Editor) endEdit() {
	e.mode = ModeSelect
	e.selected = e.editing
	e.editing = tableblock.Target{}
	e.input.Blur()
	e.input.SetValue("")
	e.reconcile(nil)
}

// mutate replaces the block after a structural change and repairs the
// selection and any edit whose target disappeared.
func (e *Editor) mutate(next tableblock.Block) {
	before := tableblock.EditTargets(e.block)
	e.block = next
	if e.mode == ModeEdit && !e.valid(e.editing) {
		e.mode = ModeSelect
		e.editing = tableblock.Target{}
		e.input.Blur()
		e.input.SetValue("")
	}
	e.reconcile(before)
}

// reconcile moves an invalid selection to the target now occupying its old
// position, or the last target when that position is gone.
func (e *Editor) reconcile(before []tableblock.Target) {
	if e.valid(e.selected) {
		return
	}
	targets := tableblock.EditTargets(e.block)
	if len(targets) == 0 {
		e.selected = tableblock.Target{}
		return
	}
	index := 0
	for i, target := range before {
		if target == e.selected {
			index = i
			break
		}
	}
	if index >= len(targets) {
		index = len(targets) - 1
	}
	e.selected = targets[index]
}

func (e Editor) valid(target tableblock.Target) bool {
	if _, ok := e.block.Column(target.ColumnID); !ok {
		return false
	}
	if target.IsHeader() {
		return true
	}
	_, ok := e.block.Row(target.RowID)
	return ok
}

func (e Editor) View() string {
	var sb strings.Builder
	sb.WriteString(renderGrid(e.block, e.selected, true))
	sb.WriteString("\n")

	if e.mode == ModeEdit {
		sb.WriteString(modeStyle.Render("EDIT " + describe(e.block, e.editing)))
		sb.WriteString("\n")
		sb.WriteString(e.input.View())
		sb.WriteString("\n")
		sb.WriteString(statusStyle.Render(editHelp))
	} else {
		sb.WriteString(modeStyle.Render("SELECT " + describe(e.block, e.selected)))
		sb.WriteString("\n")
		sb.WriteString(statusStyle.Width(e.width).Render(selectHelp))
	}
	sb.WriteString("\n")
	return sb.String()
}

func describe(b tableblock.Block, target tableblock.Target) string {
	column, ok := b.Column(target.ColumnID)
	if !ok {
		return ""
	}
	if target.IsHeader() {
		return fmt.Sprintf("header %q", column.Name)
	}
	for i, row := range b.Rows {
		if row.ID == target.RowID {
			return fmt.Sprintf("row %d, %q", i+1, column.Name)
		}
	}
	return ""
}

// Result is the outcome of an interactive session.
type Result struct {
	Block tableblock.Block
	Saved bool
}

// Run edits b interactively until the user saves or aborts. An aborted
// session returns the original block with Saved false.
func Run(ctx context.Context, b tableblock.Block, in io.Reader, out io.Writer) (Result, error) {
	p := tea.NewProgram(NewEditor(b),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)
	final, err := p.Run()
	if err != nil {
		return Result{Block: b}, err
	}
	editor, ok := final.(Editor)
	if !ok || !editor.Saved() {
		return Result{Block: b}, nil
	}
	return Result{Block: editor.Block(), Saved: true}, nil
}
