// Copyright 2026 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package table formats rows of data, such as decoded time-series and batch
// reports, as CSV or as aligned text.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/stockparfait/errors"

	"github.com/stockparfait/datalink/series"
)

// Row interface that a table row representation must implement.
type Row interface {
	CSV() []string // an encoding/csv compatible row representation
}

// Strings is the simplest Row.
type Strings []string

func (s Strings) CSV() []string { return s }

// Table container.
//
// A typical use:
//
//	t := NewTable("Dataset", "Status")
//	t.AddRow(Strings{"WIKI/AAPL", "OK"}, Strings{"WIKI/NOPE", "404"})
//	err := t.WriteText(os.Stdout, Params{})
type Table struct {
	Header []string // optional, may be nil
	Rows   []Row
}

// NewTable creates a new Table instance with optional column headers. When
// present, the number of column headers must be the same as the number of
// elements in each Row.
func NewTable(header ...string) *Table {
	return &Table{Header: header}
}

// AddRow adds one or more rows to the table.
func (t *Table) AddRow(rows ...Row) {
	t.Rows = append(t.Rows, rows...)
}

// Params are parameters for pretty-printing or CSV export of Table data.
type Params struct {
	Rows        int  // max. number of rows to write; 0 = unlimited (default)
	NoHeader    bool // whether to print the header, default - yes
	MaxColWidth int  // for WriteText only; 0 = unlimited, otherwise must be >= 4
}

// cells returns the header (if requested and present) followed by the rows,
// limited by p.Rows.
func (t *Table) cells(p Params) [][]string {
	var res [][]string
	if !p.NoHeader && len(t.Header) > 0 {
		res = append(res, t.Header)
	}
	for i, r := range t.Rows {
		if p.Rows > 0 && i >= p.Rows {
			break
		}
		res = append(res, r.CSV())
	}
	return res
}

func (t *Table) hasHeader(p Params) bool {
	return !p.NoHeader && len(t.Header) > 0
}

// WriteCSV writes the table to w in CSV format.
func (t *Table) WriteCSV(w io.Writer, p Params) error {
	cw := csv.NewWriter(w)
	for i, row := range t.cells(p) {
		if err := cw.Write(row); err != nil {
			return errors.Annotate(err, "failed to write row %d", i)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Annotate(err, "failed to flush written rows")
	}
	return nil
}

// WriteText writes the table as right-aligned text columns separated by " | ".
// Values wider than p.MaxColWidth are trimmed and end with "..".
func (t *Table) WriteText(w io.Writer, p Params) error {
	if p.MaxColWidth != 0 && p.MaxColWidth < 4 {
		return errors.Reason("MaxColWidth [%d] must be 0 or >= 4", p.MaxColWidth)
	}
	rows := t.cells(p)
	var widths []int
	for i, row := range rows {
		if len(row) == 0 {
			return errors.Reason("row %d is empty", i)
		}
		if widths == nil {
			widths = make([]int, len(row))
		}
		if len(row) != len(widths) {
			return errors.Reason("row %d size [%d] != expected size [%d]",
				i, len(row), len(widths))
		}
		for j, s := range row {
			l := len([]rune(s))
			if p.MaxColWidth > 0 && l > p.MaxColWidth {
				l = p.MaxColWidth
			}
			if widths[j] < l {
				widths[j] = l
			}
		}
	}

	write := func(row []string) error {
		padded := make([]string, len(row))
		for i, s := range row {
			if r := []rune(s); len(r) > widths[i] {
				s = string(r[:widths[i]-2]) + ".."
			}
			padded[i] = fmt.Sprintf("%[2]*[1]s", s, widths[i])
		}
		_, err := fmt.Fprintf(w, "%s\n", strings.Join(padded, " | "))
		return err
	}

	for i, row := range rows {
		if err := write(row); err != nil {
			return errors.Annotate(err, "failed to write row %d", i)
		}
		if i == 0 && t.hasHeader(p) {
			dashes := make([]string, len(widths))
			for j, wd := range widths {
				dashes[j] = strings.Repeat("-", wd)
			}
			if err := write(dashes); err != nil {
				return errors.Annotate(err, "failed to write header separator")
			}
		}
	}
	return nil
}

// FormatValue prints a time-series value in the shortest exact form, and NaN
// as an empty string.
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FromFrame creates a Table with a row per date of the Frame. The header is the
// date column followed by the value columns.
func FromFrame(f *series.Frame) *Table {
	t := NewTable(append([]string{f.DateColumn}, f.Columns...)...)
	for i, d := range f.Dates {
		row := make(Strings, len(f.Columns)+1)
		row[0] = d.String()
		for j := range f.Columns {
			row[j+1] = FormatValue(f.Values[j][i])
		}
		t.AddRow(row)
	}
	return t
}

// FromSeries aligns the series on their common dates and creates a Table with
// a row per date. The header is dateColumn followed by the names, one per
// series.
func FromSeries(dateColumn string, names []string, tss ...*series.Timeseries) (*Table, error) {
	if len(names) != len(tss) {
		return nil, errors.Reason("%d names for %d series", len(names), len(tss))
	}
	t := NewTable(append([]string{dateColumn}, names...)...)
	aligned := series.Intersect(tss...)
	if len(aligned) == 0 {
		return t, nil
	}
	for i, d := range aligned[0].Dates() {
		row := make(Strings, len(aligned)+1)
		row[0] = d.String()
		for j, ts := range aligned {
			row[j+1] = FormatValue(ts.Data()[i])
		}
		t.AddRow(row)
	}
	return t, nil
}
