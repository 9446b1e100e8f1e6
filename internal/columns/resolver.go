package columns

import (
	"strings"

	"bizdash/internal/tabular"
)

// Resolve finds the header that matches one of the candidates. All candidates
// are tried for an exact match before any case-insensitive comparison, so an
// exact hit on a low-priority candidate beats a case-insensitive hit on a
// high-priority one.
func Resolve(keys []string, candidates []string) (string, bool) {
	for _, candidate := range candidates {
		for _, key := range keys {
			if key == candidate {
				return key, true
			}
		}
	}
	for _, candidate := range candidates {
		for _, key := range keys {
			if strings.EqualFold(key, candidate) {
				return key, true
			}
		}
	}
	return "", false
}

// Schema is the set of logical fields resolved against one source file.
type Schema struct {
	columns map[Field]string
}

// Probe resolves every field of the table against the first row's keys.
// All rows of a file are assumed to share that header.
func (t AliasTable) Probe(row tabular.Row) Schema {
	s := Schema{columns: make(map[Field]string, len(t))}
	keys := row.Keys()
	for field, candidates := range t {
		if col, ok := Resolve(keys, candidates); ok {
			s.columns[field] = col
		}
	}
	return s
}

func (s Schema) Column(f Field) (string, bool) {
	col, ok := s.columns[f]
	return col, ok
}

func (s Schema) Has(f Field) bool {
	_, ok := s.columns[f]
	return ok
}

// Value reads a field from the row, Missing when the field did not resolve.
func (s Schema) Value(row tabular.Row, f Field) tabular.Value {
	col, ok := s.columns[f]
	if !ok {
		return tabular.Missing()
	}
	return row.Get(col)
}

// Resolved lists the field to column mapping, for logging.
func (s Schema) Resolved() map[string]string {
	out := make(map[string]string, len(s.columns))
	for f, col := range s.columns {
		out[string(f)] = col
	}
	return out
}
