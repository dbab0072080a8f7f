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
	"math"
	"sort"

	"github.com/stockparfait/errors"

	"github.com/stockparfait/datalink/query"
)

// Timeseries is a single value column of a dataset along with its dates,
// sorted in ascending order.
type Timeseries struct {
	dates []query.Date
	data  []float64
}

// NewTimeseries creates a Timeseries from the ascending dates and their values.
// The slices are not copied. It panics if their lengths differ.
func NewTimeseries(dates []query.Date, data []float64) *Timeseries {
	if len(dates) != len(data) {
		panic(errors.Reason("len(dates) [%d] != len(data) [%d]",
			len(dates), len(data)))
	}
	return &Timeseries{dates: dates, data: data}
}

func (t *Timeseries) Dates() []query.Date { return t.dates }
func (t *Timeseries) Data() []float64 { return t.data }
func (t *Timeseries) Len() int { return len(t.dates) }

// Check that the dates are strictly ascending. A dataset may not have two rows
// for the same date.
func (t *Timeseries) Check() error {
	for i := 1; i < len(t.dates); i++ {
		if !t.dates[i-1].Before(t.dates[i]) {
			return errors.Reason("date %s at row %d is not after %s",
				t.dates[i], i, t.dates[i-1])
		}
	}
	return nil
}

// Range returns the points from start to end inclusive. A zero start or end
// leaves that side of the interval open, the same way as unset dates of a
// query. The result shares the memory with t.
func (t *Timeseries) Range(start, end query.Date) *Timeseries {
	s := 0
	if !start.IsZero() {
		s = sort.Search(len(t.dates), func(i int) bool { return !t.dates[i].Before(start) })
	}
	e := len(t.dates)
	if !end.IsZero() {
		e = sort.Search(len(t.dates), func(i int) bool { return t.dates[i].After(end) })
	}
	if s >= e {
		return NewTimeseries(nil, nil)
	}
	return NewTimeseries(t.dates[s:e], t.data[s:e])
}

// LogReturns are the logarithms of the ratios of consecutive values, dated by
// the later value. A missing (NaN) value makes both of its neighboring returns
// NaN.
func (t *Timeseries) LogReturns() *Timeseries {
	if len(t.data) < 2 {
		return NewTimeseries(nil, nil)
	}
	res := make([]float64, len(t.data)-1)
	for i := range res {
		res[i] = math.Log(t.data[i+1] / t.data[i])
	}
	return NewTimeseries(t.dates[1:], res)
}

// Intersect aligns several Timeseries, for instance the data of one batch, on
// the dates present in all of them. The result has one Timeseries per argument,
// all sharing the same dates. It may be empty, but never nil.
func Intersect(tss ...*Timeseries) []*Timeseries {
	if len(tss) == 0 {
		return nil
	}
	counts := make(map[query.Date]int)
	for _, ts := range tss {
		for _, d := range ts.dates {
			counts[d]++
		}
	}
	var dates []query.Date
	for _, d := range tss[0].dates {
		if counts[d] == len(tss) {
			dates = append(dates, d)
		}
	}
	res := make([]*Timeseries, len(tss))
	for i, ts := range tss {
		var data []float64
		j := 0
		for k, d := range ts.dates {
			if j < len(dates) && d == dates[j] {
				data = append(data, ts.data[k])
				j++
			}
		}
		res[i] = NewTimeseries(dates, data)
	}
	return res
}
