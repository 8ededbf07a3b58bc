package output

// Tabular is implemented by values that know how to lay themselves out as
// rows, such as table blocks and session listings.
type Tabular interface {
	TableHeaders() []string
	TableRows() [][]string
}

// Table represents a pre-rendered table for table output formatting.
type Table struct {
	Headers []string   `json:"headers,omitempty" yaml:"headers,omitempty"`
	Rows    [][]string `json:"rows,omitempty" yaml:"rows,omitempty"`
}

func (t Table) TableHeaders() []string { return t.Headers }
func (t Table) TableRows() [][]string  { return t.Rows }
