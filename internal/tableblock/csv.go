package tableblock

import (
	"errors"
	"strings"
)

var (
	// ErrUnclosedQuote is returned when CSV input ends inside a quoted field.
	ErrUnclosedQuote = errors.New("CSV has an unclosed quote")
	// ErrEmptyCSV is returned when CSV input holds no records.
	ErrEmptyCSV = errors.New("CSV is empty")
)

const byteOrderMark = "\ufeff"

// ParseCSV splits text into records of raw fields. Fields are separated by
// ',' and records by '\n'; '\r' outside quotes is dropped. A '"' outside
// quotes opens a quoted section, inside which '""' is a literal quote and
// ',' and '\n' are literal.
//
// A leading byte order mark is ignored. Blank input yields no records. A trailing record of empty fields is
// dropped when it is not the only record. Records may be ragged.
func ParseCSV(text string) ([][]string, error) {
	text = strings.TrimPrefix(text, byteOrderMark)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var (
		records  [][]string
		record   []string
		cell     strings.Builder
		inQuotes bool
	)

	for i := 0; i < len(text); i++ {
		ch := text[i]

		if inQuotes {
			if ch == '"' {
				if i+1 < len(text) && text[i+1] == '"' {
					cell.WriteByte('"')
					i++
				} else {
					inQuotes = false
				}
			} else {
				cell.WriteByte(ch)
			}
			continue
		}

		switch ch {
		case '"':
			inQuotes = true
		case ',':
			record = append(record, cell.String())
			cell.Reset()
		case '\n':
			record = append(record, cell.String())
			records = append(records, record)
			record = nil
			cell.Reset()
		case '\r':
		default:
			cell.WriteByte(ch)
		}
	}

	if inQuotes {
		return nil, ErrUnclosedQuote
	}

	record = append(record, cell.String())
	records = append(records, record)

	if len(records) > 1 && allEmpty(records[len(records)-1]) {
		records = records[:len(records)-1]
	}

	return records, nil
}

// FromCSV hydrates a block from CSV text. The first record names the
// columns; the column count is the widest record. Blank header names fall
// back to "Column N". With no data records the block gets one blank row.
// existingID is reused as the block id when non-empty.
func FromCSV(text, existingID string) (Block, error) {
	records, err := ParseCSV(text)
	if err != nil {
		return Block{}, err
	}
	if len(records) == 0 {
		return Block{}, ErrEmptyCSV
	}

	width := 1
	for _, record := range records {
		width = max(width, len(record))
	}

	header := records[0]
	columns := make([]Column, width)
	for i := range columns {
		name := ""
		if i < len(header) {
			name = strings.TrimSpace(header[i])
		}
		if name == "" {
			name = defaultColumnName(i)
		}
		columns[i] = Column{ID: newID(), Name: name}
	}

	data := records[1:]
	var rows []Row
	if len(data) == 0 {
		rows = []Row{NewRow(columns)}
	} else {
		rows = make([]Row, len(data))
		for r, values := range data {
			cells := make(map[string]string, len(columns))
			for i, column := range columns {
				value := ""
				if i < len(values) {
					value = values[i]
				}
				cells[column.ID] = value
			}
			rows[r] = Row{ID: newID(), Cells: cells}
		}
	}

	id := existingID
	if id == "" {
		id = newID()
	}

	return Block{
		ID:      id,
		Type:    TypeTable,
		Columns: columns,
		Rows:    rows,
	}, nil
}

// ToCSV renders the header row and every data row as CSV. Absent cells are
// written as empty fields.
func ToCSV(b Block) string {
	lines := make([]string, 0, len(b.Rows)+1)
	for _, record := range b.Grid() {
		fields := make([]string, len(record))
		for i, value := range record {
			fields[i] = escapeCSVField(value)
		}
		lines = append(lines, strings.Join(fields, ","))
	}
	return strings.Join(lines, "\n")
}

// escapeCSVField quotes a value only when it holds a comma, quote or newline.
func escapeCSVField(value string) string {
	normalized := strings.ReplaceAll(value, "\r\n", "\n")
	if strings.ContainsAny(normalized, ",\"\n") {
		return `"` + strings.ReplaceAll(normalized, `"`, `""`) + `"`
	}
	return normalized
}

func allEmpty(fields []string) bool {
	for _, field := range fields {
		if field != "" {
			return false
		}
	}
	return true
}
