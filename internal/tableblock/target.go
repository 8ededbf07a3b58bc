package tableblock

// Target addresses one editable position of a block: the header of
// ColumnID when RowID is empty, otherwise the cell of RowID in ColumnID.
type Target struct {
	RowID    string `json:"rowId,omitempty" yaml:"rowId,omitempty"`
	ColumnID string `json:"columnId" yaml:"columnId"`
}

// HeaderTarget addresses the header of a column.
func HeaderTarget(columnID string) Target {
	return Target{ColumnID: columnID}
}

// CellTarget addresses one cell.
func CellTarget(rowID, columnID string) Target {
	return Target{RowID: rowID, ColumnID: columnID}
}

// IsHeader reports whether t addresses a column header.
func (t Target) IsHeader() bool {
	return t.RowID == ""
}

// Direction is a step along the tab order.
type Direction int

const (
	Forward  Direction = 1
	Backward Direction = -1
)

// EditTargets lists every editable position in tab order: all headers in
// column order, then each row's cells in column order.
func EditTargets(b Block) []Target {
	targets := make([]Target, 0, len(b.Columns)*(len(b.Rows)+1))
	for _, column := range b.Columns {
		targets = append(targets, HeaderTarget(column.ID))
	}
	for _, row := range b.Rows {
		for _, column := range b.Columns {
			targets = append(targets, CellTarget(row.ID, column.ID))
		}
	}
	return targets
}

// NextTarget returns the target one step from current in dir, wrapping from
// the last target to the first and back. It reports false when current is
// not in targets.
func NextTarget(targets []Target, current Target, dir Direction) (Target, bool) {
	index := -1
	for i, target := range targets {
		if target == current {
			index = i
			break
		}
	}
	if index == -1 || len(targets) == 0 {
		return Target{}, false
	}

	next := index + int(dir)
	switch {
	case next < 0:
		return targets[len(targets)-1], true
	case next >= len(targets):
		return targets[0], true
	default:
		return targets[next], true
	}
}

// ReadValue returns the header name or cell value addressed by target, or
// "" when the column, row or cell does not exist.
func ReadValue(b Block, target Target) string {
	if target.IsHeader() {
		column, _ := b.Column(target.ColumnID)
		return column.Name
	}
	row, _ := b.Row(target.RowID)
	return row.Cell(target.ColumnID)
}

// UpdateWithValue returns a copy of b with the value at target replaced.
// The input block is not modified. A header update shares b's rows; a cell
// update shares b's columns and every untouched row's Cells map.
func UpdateWithValue(b Block, target Target, value string) Block {
	if target.IsHeader() {
		columns := make([]Column, len(b.Columns))
		for i, column := range b.Columns {
			if column.ID == target.ColumnID {
				column.Name = value
			}
			columns[i] = column
		}
		b.Columns = columns
		return b
	}

	rows := make([]Row, len(b.Rows))
	for i, row := range b.Rows {
		if row.ID == target.RowID {
			cells := copyCells(row.Cells, 1)
			cells[target.ColumnID] = value
			row = Row{ID: row.ID, Cells: cells}
		}
		rows[i] = row
	}
	b.Rows = rows
	return b
}
