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

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/stockparfait/datalink/query"
)

// Summary statistics of a Timeseries, ignoring missing (NaN) values. For an
// empty series all the values are NaN and the dates are zero.
type Summary struct {
	Count     int
	Mean      float64
	StdDev    float64 // sample standard deviation; NaN when Count < 2
	Min       float64
	Max       float64
	First     float64 // the earliest value
	Last      float64 // the latest value
	FirstDate query.Date
	LastDate  query.Date

	// Mean and standard deviation of the log-returns between consecutive
	// non-missing values.
	MeanLogReturn float64
	Volatility    float64 // NaN when Count < 3
}

// Summarize computes the Summary of ts.
func Summarize(ts *Timeseries) Summary {
	nan := math.NaN()
	s := Summary{Mean: nan, StdDev: nan, Min: nan, Max: nan, First: nan, Last: nan,
		MeanLogReturn: nan, Volatility: nan}
	var xs []float64
	var dates []query.Date
	for i, x := range ts.Data() {
		if math.IsNaN(x) {
			continue
		}
		if len(xs) == 0 {
			s.First = x
			s.FirstDate = ts.Dates()[i]
		}
		s.Last = x
		s.LastDate = ts.Dates()[i]
		xs = append(xs, x)
		dates = append(dates, ts.Dates()[i])
	}
	s.Count = len(xs)
	if s.Count == 0 {
		return s
	}
	s.Mean = stat.Mean(xs, nil)
	if s.Count > 1 {
		s.StdDev = stat.StdDev(xs, nil)
	}
	s.Min = floats.Min(xs)
	s.Max = floats.Max(xs)
	if r := NewTimeseries(dates, xs).LogReturns().Data(); len(r) > 0 {
		s.MeanLogReturn = stat.Mean(r, nil)
		if len(r) > 1 {
			s.Volatility = stat.StdDev(r, nil)
		}
	}
	return s
}
