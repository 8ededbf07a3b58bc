package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/itchyny/gojq"
	"gopkg.in/yaml.v3"
)

// Format is an output format name.
type Format string

const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatTable  Format = "table"
	FormatYAML   Format = "yaml"
)

var formats = []Format{FormatText, FormatJSON, FormatNDJSON, FormatTable, FormatYAML}

// ParseFormat parses a --output value. Blank means FormatText.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatText, nil
	}
	for _, known := range formats {
		if f == known {
			return f, nil
		}
	}
	names := make([]string, len(formats))
	for i, known := range formats {
		names[i] = string(known)
	}
	return "", fmt.Errorf("invalid --output format %q (expected %s)", s, strings.Join(names, "|"))
}

// IsStructured reports whether format is meant for machines.
func IsStructured(format Format) bool {
	return format == FormatJSON || format == FormatNDJSON || format == FormatYAML
}

// Printer writes command results in one format.
type Printer struct {
	w      io.Writer
	format Format
}

func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{w: w, format: format}
}

// Print shapes data with the context's limit and sort settings, then
// writes it. JSON and NDJSON honour the context's jq query.
func (p *Printer) Print(ctx context.Context, data interface{}) error {
	if data == nil {
		return nil
	}
	data = Shape(ctx, data)

	switch p.format {
	case FormatJSON:
		return p.printJSON(ctx, data, true)
	case FormatNDJSON:
		return p.printJSON(ctx, data, false)
	case FormatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable:
		return p.printTable(data)
	case FormatText, "":
		return p.printText(data)
	default:
		return fmt.Errorf("unsupported format: %s", p.format)
	}
}

func (p *Printer) printJSON(ctx context.Context, data interface{}, pretty bool) error {
	enc := json.NewEncoder(p.w)
	enc.SetEscapeHTML(false)

	if query := QueryFromContext(ctx); query != "" {
		return runQuery(ctx, query, data, enc.Encode)
	}
	if pretty {
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}

	v := deref(reflect.ValueOf(data))
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return enc.Encode(data)
	}
	for i := 0; i < v.Len(); i++ {
		if err := enc.Encode(v.Index(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

// runQuery evaluates a jq expression against data's JSON form and emits
// each result. gojq only accepts plain maps, slices and scalars.
func runQuery(ctx context.Context, query string, data interface{}, emit func(interface{}) error) error {
	parsed, err := gojq.Parse(query)
	if err != nil {
		return fmt.Errorf("invalid --query: %w", err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return fmt.Errorf("invalid --query: %w", err)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var input interface{}
	if err := json.Unmarshal(raw, &input); err != nil {
		return err
	}

	iter := code.RunWithContext(ctx, input)
	for {
		v, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, isErr := v.(error); isErr {
			return fmt.Errorf("query error: %w", err)
		}
		if err := emit(v); err != nil {
			return err
		}
	}
}

func (p *Printer) printText(data interface{}) error {
	if tab, ok := data.(Tabular); ok {
		return p.writeTable(tab.TableHeaders(), tab.TableRows())
	}

	v := deref(reflect.ValueOf(data))
	switch v.Kind() {
	case reflect.Invalid:
		return nil
	case reflect.Map:
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		for _, key := range keys {
			if _, err := fmt.Fprintf(p.w, "%v: %v\n", key.Interface(), v.MapIndex(key).Interface()); err != nil {
				return err
			}
		}
	case reflect.Struct:
		for _, f := range fieldsOf(v.Type()) {
			value := v.Field(f.index)
			if f.omitEmpty && value.IsZero() {
				continue
			}
			if _, err := fmt.Fprintf(p.w, "%s: %v\n", f.name, value.Interface()); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if _, err := fmt.Fprintln(p.w, v.Index(i).Interface()); err != nil {
				return err
			}
		}
	default:
		_, err := fmt.Fprintln(p.w, v.Interface())
		return err
	}
	return nil
}

func (p *Printer) printTable(data interface{}) error {
	if tab, ok := data.(Tabular); ok {
		return p.writeTable(tab.TableHeaders(), tab.TableRows())
	}

	v := deref(reflect.ValueOf(data))
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return fmt.Errorf("table format requires a list of items")
	}
	if v.Len() == 0 {
		return nil
	}

	elem := v.Type().Elem()
	for elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Struct {
		rows := make([][]string, v.Len())
		for i := range rows {
			rows[i] = []string{fmt.Sprint(v.Index(i).Interface())}
		}
		return p.writeTable([]string{"value"}, rows)
	}

	fields := fieldsOf(elem)
	headers := make([]string, len(fields))
	for i, f := range fields {
		headers[i] = f.name
	}
	rows := make([][]string, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		item := deref(v.Index(i))
		row := make([]string, len(fields))
		if item.IsValid() {
			for j, f := range fields {
				row[j] = fmt.Sprint(item.Field(f.index).Interface())
			}
		}
		rows = append(rows, row)
	}
	return p.writeTable(headers, rows)
}

func (p *Printer) writeTable(headers []string, rows [][]string) error {
	w := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

type field struct {
	name      string
	index     int
	omitEmpty bool
}

// fieldsOf lists exported fields labelled by their json names.
func fieldsOf(t reflect.Type) []field {
	var out []field
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		out = append(out, field{name: name, index: i, omitEmpty: strings.Contains(opts, "omitempty")})
	}
	return out
}

func deref(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}
