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
	"strconv"
)

// wireTable maps the values of a closed enum to the tokens the server
// expects. It is the only place where the tokens are spelled out.
type wireTable[E ~uint8] struct {
	option string
	tokens map[E]string
}

func (t wireTable[E]) token(e E) (string, bool) {
	s, ok := t.tokens[e]
	return s, ok
}

func (t wireTable[E]) parse(s string) (E, error) {
	for e, tok := range t.tokens {
		if tok == s {
			return e, nil
		}
	}
	var zero E
	return zero, &InvalidValueError{Option: t.option, Value: s}
}

// check returns an error unless e is in the table.
func (t wireTable[E]) check(e E) error {
	if _, ok := t.tokens[e]; !ok {
		return &InvalidValueError{Option: t.option, Value: strconv.FormatUint(uint64(e), 10)}
	}
	return nil
}

func (t wireTable[E]) str(e E) string {
	if s, ok := t.tokens[e]; ok {
		return s
	}
	return fmt.Sprintf("<undefined %s>", t.option)
}

// Order of the rows by date. The zero value leaves the choice to the server,
// which currently sorts in descending order.
type Order uint8

const (
	OrderUnset Order = iota
	Ascending        // the first row is the earliest date
	Descending       // the first row is the latest date
)

var orderTable = wireTable[Order]{option: "order", tokens: map[Order]string{
	Ascending:  "asc",
	Descending: "desc",
}}

// ParseOrder converts the wire token ("asc" or "desc") to Order.
func ParseOrder(s string) (Order, error) { return orderTable.parse(s) }

// String returns the wire token.
func (o Order) String() string { return orderTable.str(o) }

// Frequency to which the server collapses the data. When collapsing, the last
// observation of each period is returned. The zero value leaves the native
// frequency of the dataset.
type Frequency uint8

const (
	FrequencyUnset Frequency = iota
	FrequencyNone            // explicitly request the native frequency
	Daily
	Weekly
	Monthly
	Quarterly
	Annual
)

var frequencyTable = wireTable[Frequency]{option: "collapse", tokens: map[Frequency]string{
	FrequencyNone: "none",
	Daily:         "daily",
	Weekly:        "weekly",
	Monthly:       "monthly",
	Quarterly:     "quarterly",
	Annual:        "annual",
}}

// ParseFrequency converts the wire token, e.g. "monthly", to Frequency.
func ParseFrequency(s string) (Frequency, error) { return frequencyTable.parse(s) }

// String returns the wire token.
func (f Frequency) String() string { return frequencyTable.str(f) }

// Transform is a calculation the server applies to the data before returning
// it. In the formulas below y[0] is the oldest and y[n] the latest value.
type Transform uint8

const (
	TransformUnset Transform = iota
	TransformNone            // y'[t] = y[t]
	Diff                     // y'[t] = y[t] - y[t-1]
	RDiff                    // y'[t] = (y[t] - y[t-1]) / y[t-1]
	RDiffFrom                // y'[t] = (y[n] - y[t]) / y[t]
	Cumulative               // y'[t] = y[t] + y[t-1] + ... + y[0]
	Normalize                // y'[t] = y[t] / y[0] * 100
)

var transformTable = wireTable[Transform]{option: "transform", tokens: map[Transform]string{
	TransformNone: "none",
	Diff:          "diff",
	RDiff:         "rdiff",
	RDiffFrom:     "rdiff_from",
	Cumulative:    "cumul",
	Normalize:     "normalize",
}}

// ParseTransform converts the wire token, e.g. "rdiff", to Transform.
func ParseTransform(s string) (Transform, error) { return transformTable.parse(s) }

// String returns the wire token.
func (t Transform) String() string { return transformTable.str(t) }
