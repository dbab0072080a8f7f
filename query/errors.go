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

package query

import (
	"fmt"
)

// InvalidResourceError is returned when a dataset or database code is missing.
type InvalidResourceError struct {
	Source string
	Code   string
	Reason string
}

func (e *InvalidResourceError) Error() string {
	return fmt.Sprintf("invalid resource '%s/%s': %s", e.Source, e.Code, e.Reason)
}

// InvalidDateError is returned for a date that does not exist in the calendar,
// e.g. February 30.
type InvalidDateError struct {
	Year  int
	Month int
	Day   int
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %04d-%02d-%02d", e.Year, e.Month, e.Day)
}

// InvalidValueError is returned when an option is outside of its closed set of
// values, e.g. an Order value not defined in this package.
type InvalidValueError struct {
	Option string
	Value  string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value for %s: %s", e.Option, e.Value)
}
