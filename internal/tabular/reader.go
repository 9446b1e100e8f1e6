package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatXLS  = "xls"
)

type readOptions struct {
	sheet string
}

type Option func(*readOptions)

// WithSheet selects a worksheet by name instead of the first one.
// It has no effect on CSV files.
func WithSheet(name string) Option {
	return func(o *readOptions) {
		o.sheet = name
	}
}

// Reader loads CSV and spreadsheet files into rows keyed by their header.
type Reader struct {
	logger logrus.FieldLogger
}

func NewReader(logger logrus.FieldLogger) *Reader {
	return &Reader{logger: logger}
}

// FormatOf maps a file extension to a reader format.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Read dispatches on the file extension. Unsupported extensions are logged
// and produce no rows rather than an error.
func (r *Reader) Read(path string, opts ...Option) ([]Row, error) {
	o := readOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	format, err := FormatOf(path)
	if err != nil {
		r.logger.WithField("file", path).Warn("Skipping file with unsupported extension")
		return nil, nil
	}

	var rows []Row
	switch format {
	case FormatCSV:
		rows, err = r.readCSV(path)
	case FormatXLSX:
		rows, err = r.readXLSX(path, o.sheet)
	case FormatXLS:
		rows, err = r.readXLS(path, o.sheet)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	r.logger.WithFields(logrus.Fields{
		"file":   filepath.Base(path),
		"format": format,
		"rows":   len(rows),
	}).Debug("Read tabular source")
	return rows, nil
}

func (r *Reader) readCSV(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode windows-1252: %w", err)
		}
		r.logger.WithField("file", filepath.Base(path)).Debug("Decoded non-UTF-8 CSV as Windows-1252")
		data = decoded
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var header []string
	var rows []Row
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if header == nil {
			header = NormalizeHeader(record)
			continue
		}
		cells := make([]Value, len(record))
		for i, raw := range record {
			cells[i] = Infer(raw)
		}
		if allMissing(cells) {
			continue
		}
		rows = append(rows, NewRow(header, cells))
	}
	return rows, nil
}

// sniffDelimiter picks the most frequent candidate separator on the header line.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t', '|'} {
		if n := strings.Count(string(line), string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func (r *Reader) readXLSX(path, sheet string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}

	grid, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	dates := &dateStyles{file: f, sheet: sheet, cache: make(map[int]bool)}

	var header []string
	var rows []Row
	for ri, record := range grid {
		if header == nil {
			if isBlankRecord(record) {
				continue
			}
			header = NormalizeHeader(record)
			continue
		}
		cells := make([]Value, len(record))
		for ci, raw := range record {
			cells[ci] = Infer(raw)
			serial, isNum := cells[ci].Float()
			if !isNum || !dates.isDate(ci+1, ri+1) {
				continue
			}
			if t, err := excelize.ExcelDateToTime(serial, date1904); err == nil {
				cells[ci] = DateValue(t)
			}
		}
		if allMissing(cells) {
			continue
		}
		rows = append(rows, NewRow(header, cells))
	}
	return rows, nil
}

// dateStyles answers whether a cell carries a date number format, caching
// per style index since most columns share a handful of styles.
type dateStyles struct {
	file  *excelize.File
	sheet string
	cache map[int]bool
}

func (d *dateStyles) isDate(col, row int) bool {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return false
	}
	idx, err := d.file.GetCellStyle(d.sheet, cell)
	if err != nil || idx == 0 {
		return false
	}
	if v, ok := d.cache[idx]; ok {
		return v
	}
	v := false
	if style, err := d.file.GetStyle(idx); err == nil && style != nil {
		v = isDateNumFmt(style.NumFmt, style.CustomNumFmt)
	}
	d.cache[idx] = v
	return v
}

func isDateNumFmt(id int, custom *string) bool {
	if custom != nil {
		return isDateFormatCode(*custom)
	}
	switch {
	case id >= 14 && id <= 22:
		return true
	case id >= 27 && id <= 36:
		return true
	case id >= 45 && id <= 47:
		return true
	case id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode looks for day or year tokens outside quoted literals and
// bracketed sections such as colors or locales.
func isDateFormatCode(code string) bool {
	var b strings.Builder
	inQuote, inBracket := false, false
	for _, ch := range strings.ToLower(code) {
		switch {
		case ch == '"':
			inQuote = !inQuote
		case ch == '[' && !inQuote:
			inBracket = true
		case ch == ']' && !inQuote:
			inBracket = false
		case !inQuote && !inBracket:
			b.WriteRune(ch)
		}
	}
	stripped := b.String()
	return strings.ContainsAny(stripped, "yd")
}

func (r *Reader) readXLS(path, sheet string) ([]Row, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, err
	}

	var ws *xls.WorkSheet
	if sheet == "" {
		ws = wb.GetSheet(0)
	} else {
		for i := 0; i < wb.NumSheets(); i++ {
			if s := wb.GetSheet(i); s != nil && s.Name == sheet {
				ws = s
				break
			}
		}
	}
	if ws == nil {
		return nil, errors.New("no sheets found")
	}

	var header []string
	var rows []Row
	for i := 0; i <= int(ws.MaxRow); i++ {
		xr := ws.Row(i)
		if xr == nil {
			continue
		}
		record := make([]string, xr.LastCol())
		for c := xr.FirstCol(); c < xr.LastCol(); c++ {
			record[c] = xr.Col(c)
		}
		if header == nil {
			if isBlankRecord(record) {
				continue
			}
			header = NormalizeHeader(record)
			continue
		}
		cells := make([]Value, len(record))
		for c, raw := range record {
			cells[c] = Infer(raw)
		}
		if allMissing(cells) {
			continue
		}
		rows = append(rows, NewRow(header, cells))
	}
	return rows, nil
}

func isBlankRecord(record []string) bool {
	for _, s := range record {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

// ParseLooseFloat strips everything except digits and the decimal point and
// parses the rest, so signs are dropped and "1.2.3" reads as 0. Numeric cells
// go through the same rule via their rendered text. Used for license and
// module counts typed as free text.
func ParseLooseFloat(v Value) float64 {
	if v.IsMissing() {
		return 0
	}
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, v.String())
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return f
}
