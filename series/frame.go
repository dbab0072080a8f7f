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

package series

import (
	"bytes"
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/stockparfait/errors"
	"golang.org/x/exp/slices"

	"github.com/stockparfait/datalink/query"
)

// Frame is the decoded CSV response of a dataset data request. Rows are sorted
// by date in ascending order, regardless of the order requested from the
// server. Missing values are NaN.
type Frame struct {
	DateColumn string       // name of the date column, usually "Date"
	Columns    []string     // names of the value columns
	Dates      []query.Date // one per row
	Values     [][]float64  // Values[column][row]
}

// DecodeCSV decodes the CSV data of a dataset. The first row must be the
// header, and the first column must be the date in YYYY-MM-DD format. It has
// the signature of a response decoder.
func DecodeCSV(body []byte) (*Frame, error) {
	r := csv.NewReader(bytes.NewReader(body))
	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.Reason("empty CSV: header is required")
	}
	if err != nil {
		return nil, errors.Annotate(err, "failed to read CSV header")
	}
	if len(header) < 1 {
		return nil, errors.Reason("CSV header has no columns")
	}
	f := &Frame{
		DateColumn: header[0],
		Columns:    header[1:],
		Values:     make([][]float64, len(header)-1),
	}
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Includes rows of the wrong width.
			return nil, errors.Annotate(err, "failed to read CSV line %d", line)
		}
		d, err := query.ParseDate(row[0])
		if err != nil {
			return nil, errors.Annotate(err, "line %d", line)
		}
		f.Dates = append(f.Dates, d)
		for i, cell := range row[1:] {
			v, err := parseValue(cell)
			if err != nil {
				return nil, errors.Annotate(err, "line %d, column '%s'", line, f.Columns[i])
			}
			f.Values[i] = append(f.Values[i], v)
		}
	}
	f.sort()
	return f, nil
}

func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// sort the rows by date in ascending order.
func (f *Frame) sort() {
	n := len(f.Dates)
	ascending := true
	descending := true
	for i := 1; i < n; i++ {
		if f.Dates[i].Before(f.Dates[i-1]) {
			ascending = false
		}
		if f.Dates[i-1].Before(f.Dates[i]) {
			descending = false
		}
	}
	if ascending {
		return
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	if descending {
		for i := range perm {
			perm[i] = n - 1 - i
		}
	} else {
		slices.SortStableFunc(perm, func(a, b int) bool {
			return f.Dates[a].Before(f.Dates[b])
		})
	}
	dates := make([]query.Date, n)
	for i, p := range perm {
		dates[i] = f.Dates[p]
	}
	f.Dates = dates
	for c, col := range f.Values {
		vals := make([]float64, n)
		for i, p := range perm {
			vals[i] = col[p]
		}
		f.Values[c] = vals
	}
}

// Len is the number of rows.
func (f *Frame) Len() int { return len(f.Dates) }

// Series returns the i-th value column (0 is the first column after the date)
// as a Timeseries. The Timeseries shares the memory with the Frame. Repeated
// dates are an error.
func (f *Frame) Series(i int) (*Timeseries, error) {
	if i < 0 || i >= len(f.Columns) {
		return nil, errors.Reason("column %d is out of range [0..%d)", i, len(f.Columns))
	}
	ts := NewTimeseries(f.Dates, f.Values[i])
	if err := ts.Check(); err != nil {
		return nil, errors.Annotate(err, "column '%s'", f.Columns[i])
	}
	return ts, nil
}

// Column returns the value column by its name as a Timeseries.
func (f *Frame) Column(name string) (*Timeseries, error) {
	for i, c := range f.Columns {
		if c == name {
			return f.Series(i)
		}
	}
	return nil, errors.Reason("no column '%s' in %v", name, f.Columns)
}
