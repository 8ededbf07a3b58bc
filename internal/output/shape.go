package output

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Shape applies --result-limit and --result-sort-by to data. It handles
// slices, Tabular values (sorted by header name) and structs whose list
// field is tagged `output:"list"` or named Results. Anything else is
// returned unchanged. The input is never modified.
func Shape(ctx context.Context, data interface{}) interface{} {
	limit := LimitFromContext(ctx)
	sortBy, desc := SortFromContext(ctx)
	if data == nil || (limit <= 0 && sortBy == "") {
		return data
	}

	if tab, ok := data.(Tabular); ok {
		return shapeTable(tab, limit, sortBy, desc)
	}

	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return data
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return shapeSlice(v, limit, sortBy, desc).Interface()
	case reflect.Struct:
		idx := listField(v.Type())
		if idx < 0 {
			return data
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		out.Field(idx).Set(shapeSlice(v.Field(idx), limit, sortBy, desc))
		return out.Interface()
	}
	return data
}

func listField(t reflect.Type) int {
	fallback := -1
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Type.Kind() != reflect.Slice {
			continue
		}
		if f.Tag.Get("output") == "list" {
			return i
		}
		if f.Name == "Results" {
			fallback = i
		}
	}
	return fallback
}

func shapeSlice(v reflect.Value, limit int, sortBy string, desc bool) reflect.Value {
	n := v.Len()
	out := reflect.MakeSlice(reflect.SliceOf(v.Type().Elem()), n, n)
	reflect.Copy(out, v)

	if sortBy != "" {
		path := strings.Split(sortBy, ".")
		keys := make([]interface{}, n)
		for i := 0; i < n; i++ {
			keys[i] = lookup(out.Index(i).Interface(), path)
		}
		perm := order(keys, desc)
		sorted := reflect.MakeSlice(out.Type(), n, n)
		for i, j := range perm {
			sorted.Index(i).Set(out.Index(j))
		}
		out = sorted
	}

	if limit > 0 && limit < n {
		out = out.Slice(0, limit)
	}
	return out
}

func shapeTable(tab Tabular, limit int, sortBy string, desc bool) Table {
	headers := tab.TableHeaders()
	rows := append([][]string(nil), tab.TableRows()...)

	col := -1
	for i, h := range headers {
		if sameName(h, sortBy) {
			col = i
			break
		}
	}
	if col >= 0 {
		keys := make([]interface{}, len(rows))
		for i, row := range rows {
			if col < len(row) {
				keys[i] = cellKey(row[col])
			}
		}
		perm := order(keys, desc)
		sorted := make([][]string, len(rows))
		for i, j := range perm {
			sorted[i] = rows[j]
		}
		rows = sorted
	}

	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return Table{Headers: headers, Rows: rows}
}

// lookup reads a dotted path from item's JSON form. Field names match
// ignoring case, '_' and '-'.
func lookup(item interface{}, path []string) interface{} {
	raw, err := json.Marshal(item)
	if err != nil {
		return nil
	}
	var cur interface{}
	if err := json.Unmarshal(raw, &cur); err != nil {
		return nil
	}
	for _, name := range path {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = nil
		for k, val := range obj {
			if sameName(k, name) {
				cur = val
				break
			}
		}
	}
	return cur
}

// order returns a stable permutation sorting keys. Missing keys sort last
// in both directions.
func order(keys []interface{}, desc bool) []int {
	perm := make([]int, len(keys))
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		ka, kb := keys[perm[a]], keys[perm[b]]
		if ka == nil || kb == nil {
			return ka != nil
		}
		c := compare(ka, kb)
		if desc {
			return c > 0
		}
		return c < 0
	})
	return perm
}

func compare(a, b interface{}) int {
	if fa, ok := a.(float64); ok {
		if fb, ok := b.(float64); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok && ba != bb {
			if ba {
				return 1
			}
			return -1
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// cellKey lets numeric cells sort by value.
func cellKey(cell string) interface{} {
	if f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err == nil {
		return f
	}
	return cell
}

func sameName(a, b string) bool {
	norm := strings.NewReplacer("_", "", "-", "", " ", "")
	return strings.EqualFold(norm.Replace(a), norm.Replace(b))
}
