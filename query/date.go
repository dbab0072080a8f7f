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
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/stockparfait/errors"
)

// Date records a calendar date as year, month and day. The zero value means the
// date is not set. A non-zero Date created by NewDate or ParseDate is always a
// valid calendar date.
type Date struct {
	YearVal  uint16
	MonthVal uint8
	DayVal   uint8
}

var _ json.Marshaler = Date{}
var _ json.Unmarshaler = &Date{}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func daysInMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if isLeapYear(year) {
			return 29
		}
		return 28
	}
	return 0
}

// NewDate creates a Date, checking that it exists in the Gregorian calendar.
func NewDate(year uint16, month, day uint8) (Date, error) {
	y, m, d := int(year), int(month), int(day)
	if y < 1 || m < 1 || m > 12 || d < 1 || d > daysInMonth(y, m) {
		return Date{}, &InvalidDateError{Year: y, Month: m, Day: d}
	}
	return Date{YearVal: year, MonthVal: month, DayVal: day}, nil
}

// MustDate is NewDate which panics on invalid dates. For use in tests and
// constant initializers.
func MustDate(year uint16, month, day uint8) Date {
	d, err := NewDate(year, month, day)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseDate parses a YYYY-MM-DD string. Impossible calendar dates result in
// InvalidDateError, malformed strings in a generic error.
func ParseDate(s string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return Date{}, errors.Reason("date '%s' is not in YYYY-MM-DD format", s)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, errors.Annotate(err, "date '%s' is not in YYYY-MM-DD format", s)
		}
		nums[i] = n
	}
	if nums[0] < 0 || nums[0] > 9999 || nums[1] < 0 || nums[1] > 255 || nums[2] < 0 || nums[2] > 255 {
		return Date{}, &InvalidDateError{Year: nums[0], Month: nums[1], Day: nums[2]}
	}
	return NewDate(uint16(nums[0]), uint8(nums[1]), uint8(nums[2]))
}

func (d Date) Year() uint16 { return d.YearVal }
func (d Date) Month() uint8 { return d.MonthVal }
func (d Date) Day() uint8   { return d.DayVal }

// String is the YYYY-MM-DD representation, which is also the wire format.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year(), d.Month(), d.Day())
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler. NOTE: unlike other methods, this
// is a pointer method.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Annotate(err, "Date JSON must be a string")
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	date, err := ParseDate(s)
	if err != nil {
		return errors.Annotate(err, "failed to parse Date string")
	}
	*d = date
	return nil
}

// Before compares two Date objects for strict inequality (self < d2).
func (d Date) Before(d2 Date) bool {
	if d.Year() != d2.Year() {
		return d.Year() < d2.Year()
	}
	if d.Month() != d2.Month() {
		return d.Month() < d2.Month()
	}
	return d.Day() < d2.Day()
}

// After compares two Date objects for strict inequality, self > d2.
func (d Date) After(d2 Date) bool {
	return d2.Before(d)
}

// IsZero checks whether the date has a zero value.
func (d Date) IsZero() bool {
	return d.Year() == 0 && d.Month() == 0 && d.Day() == 0
}

func (d Date) IsLeapYear() bool {
	return isLeapYear(int(d.Year()))
}

// DaysInMonth is the number of days in the current month, which for February
// depends on the year.
func (d Date) DaysInMonth() uint8 {
	if d.IsZero() {
		return 0
	}
	return uint8(daysInMonth(int(d.Year()), int(d.Month())))
}
