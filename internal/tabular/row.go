package tabular

import (
	"fmt"
	"strings"
)

// Row maps header names to cell values and remembers the header order.
type Row struct {
	keys   []string
	values map[string]Value
}

func (r Row) Keys() []string {
	return r.keys
}

// Get returns Missing for keys the row does not have.
func (r Row) Get(key string) Value {
	return r.values[key]
}

// NewRow builds a row from an already-normalized header. Extra cells beyond
// the header are dropped and short rows are padded with Missing.
func NewRow(header []string, cells []Value) Row {
	row := Row{
		keys:   header,
		values: make(map[string]Value, len(header)),
	}
	for i, key := range header {
		if i < len(cells) {
			row.values[key] = cells[i]
		} else {
			row.values[key] = Missing()
		}
	}
	return row
}

// NormalizeHeader fills blank header cells and disambiguates duplicates
// as Name_1, Name_2, ... skipping any suffix another column already uses.
func NormalizeHeader(raw []string) []string {
	names := make([]string, len(raw))
	taken := make(map[string]bool, len(raw))
	for i, h := range raw {
		name := h
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Column_%d", i+1)
		}
		names[i] = name
		taken[name] = true
	}

	header := make([]string, len(raw))
	used := make(map[string]bool, len(raw))
	next := make(map[string]int, len(raw))
	for i, name := range names {
		if !used[name] {
			used[name] = true
			header[i] = name
			continue
		}
		n := next[name]
		candidate := name
		for taken[candidate] || used[candidate] {
			n++
			candidate = fmt.Sprintf("%s_%d", name, n)
		}
		next[name] = n
		used[candidate] = true
		header[i] = candidate
	}
	return header
}

func allMissing(cells []Value) bool {
	for _, c := range cells {
		if !c.IsMissing() {
			return false
		}
	}
	return true
}
