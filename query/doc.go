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

// Package query builds requests for the Nasdaq Data Link (NDL, formerly
// Quandl) time-series API.
//
// Official documentation is at https://docs.data.nasdaq.com/docs/time-series .
//
// A request is described by an immutable Spec. Specs are produced by builders,
// one builder type per kind of request:
//
//   spec, err := query.NewDataQuery("WIKI", "AAPL").
//     Order(query.Ascending).
//     StartDate(2016, 2, 1).
//     EndDate(2016, 2, 29).
//     ColumnIndex(4).
//     Build()
//
// Each builder exposes only the options that apply to its kind, so, for
// instance, a MetadataQuery has no ColumnIndex method at all. The only values
// checked locally are those that can be checked without the server: non-empty
// dataset codes, calendar dates and enum values. Everything else, such as
// whether the dates fall within the available history, is validated by the
// server, and its errors are reported verbatim by the ndl package.
//
// Builders record the first error and ignore the following mutations; the error
// is available from Err() right away and is returned by Build(). A builder is
// single use: any mutation after Build() panics.
package query
