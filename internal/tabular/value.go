package tabular

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindMissing Kind = iota
	KindText
	KindNumber
	KindBoolean
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindDate:
		return "date"
	default:
		return "missing"
	}
}

// Value is a single spreadsheet cell after ingestion. The zero Value is Missing.
type Value struct {
	kind Kind
	text string
	num  float64
	b    bool
	t    time.Time
}

func Missing() Value              { return Value{} }
func Text(s string) Value         { return Value{kind: KindText, text: s} }
func Number(f float64) Value      { return Value{kind: KindNumber, num: f} }
func Boolean(b bool) Value        { return Value{kind: KindBoolean, b: b} }
func DateValue(t time.Time) Value { return Value{kind: KindDate, t: t} }

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Infer types a raw text cell: empty is Missing, true/false is Boolean,
// anything strconv can read as a float is Number, the rest stays Text.
func Infer(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Missing()
	}
	switch strings.ToLower(s) {
	case "true":
		return Boolean(true)
	case "false":
		return Boolean(false)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return Number(f)
	}
	return Text(raw)
}

// String renders the value the way it would read in the source file.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindDate:
		return v.t.Format("2006-01-02")
	default:
		return ""
	}
}

// Float returns the numeric payload. Text is not coerced here; callers pick
// their own coercion rules.
func (v Value) Float() (float64, bool) {
	if v.kind == KindNumber {
		return v.num, true
	}
	return 0, false
}

func (v Value) Bool() (bool, bool) {
	if v.kind == KindBoolean {
		return v.b, true
	}
	return false, false
}

func (v Value) Time() (time.Time, bool) {
	if v.kind == KindDate {
		return v.t, true
	}
	return time.Time{}, false
}

// Raw returns a JSON-friendly representation for quality reports.
func (v Value) Raw() interface{} {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return v.num
	case KindBoolean:
		return v.b
	case KindDate:
		return v.t.Format("2006-01-02")
	default:
		return nil
	}
}
