// Package tableblock implements the workbench table block: an in-memory
// grid of named columns and id-keyed rows, its CSV and Markdown codecs, and
// the tab-order edit navigation used by the interactive editor.
//
// Every operation that changes a block returns a new Block and leaves its
// input untouched. Rows that an operation does not touch keep their original
// Cells map, so callers can detect changes by identity.
package tableblock

import (
	"fmt"

	"github.com/google/uuid"
)

// TypeTable is the only block type the workbench knows about.
const TypeTable = "table"

const (
	// DefaultColumnCount is the column count of a blank block.
	DefaultColumnCount = 3
	// DefaultRowCount is the row count of a blank block.
	DefaultRowCount = 3
)

// newID generates block, column and row identifiers.
var newID = func() string {
	return uuid.NewString()
}

// Column is a table header. ID is stable for the life of the block; Name is
// user-editable and may be empty.
type Column struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Row holds cell values keyed by column ID. Cells may be sparse relative to
// the block's columns; a missing entry reads as the empty string.
type Row struct {
	ID    string            `json:"id" yaml:"id"`
	Cells map[string]string `json:"cells" yaml:"cells"`
}

// Cell returns the value stored for columnID, or "" when absent.
func (r Row) Cell(columnID string) string {
	return r.Cells[columnID]
}

// Block is one table owned by a chat session.
type Block struct {
	ID      string   `json:"id" yaml:"id"`
	Type    string   `json:"type" yaml:"type"`
	Columns []Column `json:"columns" yaml:"columns"`
	Rows    []Row    `json:"rows" yaml:"rows"`
}

type blockOptions struct {
	columnCount int
	rowCount    int
}

// BlockOption configures NewBlock.
type BlockOption func(*blockOptions)

// WithColumns sets the number of columns of a new block (minimum 1).
func WithColumns(n int) BlockOption {
	return func(o *blockOptions) {
		o.columnCount = n
	}
}

// WithRows sets the number of rows of a new block (minimum 1).
func WithRows(n int) BlockOption {
	return func(o *blockOptions) {
		o.rowCount = n
	}
}

// NewColumn returns a column with a fresh id named "Column {index+1}".
func NewColumn(index int) Column {
	return Column{
		ID:   newID(),
		Name: defaultColumnName(index),
	}
}

// NewRow returns a row with a fresh id and an empty cell for every column.
func NewRow(columns []Column) Row {
	cells := make(map[string]string, len(columns))
	for _, column := range columns {
		cells[column.ID] = ""
	}
	return Row{
		ID:    newID(),
		Cells: cells,
	}
}

// NewBlock returns a blank block, 3 x 3 unless options say otherwise.
func NewBlock(opts ...BlockOption) Block {
	o := blockOptions{
		columnCount: DefaultColumnCount,
		rowCount:    DefaultRowCount,
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.columnCount = max(1, o.columnCount)
	o.rowCount = max(1, o.rowCount)

	columns := make([]Column, o.columnCount)
	for i := range columns {
		columns[i] = NewColumn(i)
	}
	rows := make([]Row, o.rowCount)
	for i := range rows {
		rows[i] = NewRow(columns)
	}

	return Block{
		ID:      newID(),
		Type:    TypeTable,
		Columns: columns,
		Rows:    rows,
	}
}

// AddRow appends a fully populated blank row.
func (b Block) AddRow() Block {
	rows := make([]Row, len(b.Rows), len(b.Rows)+1)
	copy(rows, b.Rows)
	b.Rows = append(rows, NewRow(b.Columns))
	return b
}

// RemoveRow drops the row with the given id. No minimum row count applies.
func (b Block) RemoveRow(rowID string) Block {
	rows := make([]Row, 0, len(b.Rows))
	for _, row := range b.Rows {
		if row.ID != rowID {
			rows = append(rows, row)
		}
	}
	b.Rows = rows
	return b
}

// AddColumn appends a new column and backfills an empty cell for it in
// every existing row.
func (b Block) AddColumn() Block {
	column := NewColumn(len(b.Columns))

	columns := make([]Column, len(b.Columns), len(b.Columns)+1)
	copy(columns, b.Columns)
	b.Columns = append(columns, column)

	rows := make([]Row, len(b.Rows))
	for i, row := range b.Rows {
		cells := copyCells(row.Cells, 1)
		cells[column.ID] = ""
		rows[i] = Row{ID: row.ID, Cells: cells}
	}
	b.Rows = rows
	return b
}

// RemoveColumn drops a column and its key from every row. Removing the last
// remaining column is refused and returns the block unchanged.
func (b Block) RemoveColumn(columnID string) Block {
	if len(b.Columns) <= 1 {
		return b
	}

	columns := make([]Column, 0, len(b.Columns))
	for _, column := range b.Columns {
		if column.ID != columnID {
			columns = append(columns, column)
		}
	}

	rows := make([]Row, len(b.Rows))
	for i, row := range b.Rows {
		cells := copyCells(row.Cells, 0)
		delete(cells, columnID)
		rows[i] = Row{ID: row.ID, Cells: cells}
	}

	b.Columns = columns
	b.Rows = rows
	return b
}

// Column returns the column with the given id.
func (b Block) Column(columnID string) (Column, bool) {
	for _, column := range b.Columns {
		if column.ID == columnID {
			return column, true
		}
	}
	return Column{}, false
}

// Row returns the row with the given id.
func (b Block) Row(rowID string) (Row, bool) {
	for _, row := range b.Rows {
		if row.ID == rowID {
			return row, true
		}
	}
	return Row{}, false
}

// Grid returns the header names followed by each row's values in column
// order, padding absent cells with "".
func (b Block) Grid() [][]string {
	grid := make([][]string, 0, len(b.Rows)+1)
	header := make([]string, len(b.Columns))
	for i, column := range b.Columns {
		header[i] = column.Name
	}
	grid = append(grid, header)
	for _, row := range b.Rows {
		values := make([]string, len(b.Columns))
		for i, column := range b.Columns {
			values[i] = row.Cell(column.ID)
		}
		grid = append(grid, values)
	}
	return grid
}

// TableHeaders returns the column names.
func (b Block) TableHeaders() []string {
	return b.Grid()[0]
}

// TableRows returns the cell values row by row.
func (b Block) TableRows() [][]string {
	return b.Grid()[1:]
}

// Clone returns a deep copy of the block.
func (b Block) Clone() Block {
	out := Block{ID: b.ID, Type: b.Type}
	if b.Columns != nil {
		out.Columns = make([]Column, len(b.Columns))
		copy(out.Columns, b.Columns)
	}
	if b.Rows != nil {
		out.Rows = make([]Row, len(b.Rows))
		for i, row := range b.Rows {
			out.Rows[i] = Row{ID: row.ID, Cells: copyCells(row.Cells, 0)}
		}
	}
	return out
}

func copyCells(cells map[string]string, extra int) map[string]string {
	out := make(map[string]string, len(cells)+extra)
	for k, v := range cells {
		out[k] = v
	}
	return out
}

func defaultColumnName(index int) string {
	return fmt.Sprintf("Column %d", index+1)
}
