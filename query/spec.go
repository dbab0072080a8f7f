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
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/stockparfait/errors"
	"golang.org/x/exp/maps"
)

// Resource identifies a dataset by its source (database) code and dataset
// code, e.g. WIKI/AAPL. Database-level requests use only the Source.
type Resource struct {
	Source string
	Code   string
}

// ParseResource splits "SOURCE/CODE" into a Resource.
func ParseResource(s string) (Resource, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Resource{}, &InvalidResourceError{
			Source: s, Reason: "expected SOURCE/CODE"}
	}
	return Resource{Source: parts[0], Code: parts[1]}, nil
}

// Path is the "SOURCE/CODE" form used in URLs, or just "SOURCE" for database
// resources.
func (r Resource) Path() string {
	if r.Code == "" {
		return r.Source
	}
	return r.Source + "/" + r.Code
}

func (r Resource) String() string { return r.Path() }

func checkCode(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.Reason("%s code is empty", name)
	}
	if strings.ContainsAny(value, "/?#") {
		return errors.Reason("%s code '%s' contains URL delimiters", name, value)
	}
	return nil
}

func newDatasetResource(source, code string) (Resource, error) {
	r := Resource{Source: source, Code: code}
	if err := checkCode("source", source); err != nil {
		return r, &InvalidResourceError{Source: source, Code: code, Reason: err.Error()}
	}
	if err := checkCode("dataset", code); err != nil {
		return r, &InvalidResourceError{Source: source, Code: code, Reason: err.Error()}
	}
	return r, nil
}

func newDatabaseResource(source string) (Resource, error) {
	r := Resource{Source: source}
	if err := checkCode("source", source); err != nil {
		return r, &InvalidResourceError{Source: source, Reason: err.Error()}
	}
	return r, nil
}

// Kind of the request, which determines the URL, the accepted options and the
// format of the response.
type Kind uint8

const (
	KindUnset            Kind = iota
	KindMetadata              // dataset metadata, JSON
	KindData                  // dataset time-series, CSV
	KindDataAndMetadata       // dataset time-series with metadata, JSON
	KindDatabaseMetadata      // database metadata, JSON
	KindDatabaseSearch        // search of databases, JSON
	KindDatasetSearch         // search of datasets within a database, JSON
	KindCodeList              // all dataset codes of a database, zipped CSV
)

var kindNames = map[Kind]string{
	KindMetadata:         "metadata",
	KindData:             "data",
	KindDataAndMetadata:  "data-and-metadata",
	KindDatabaseMetadata: "database-metadata",
	KindDatabaseSearch:   "database-search",
	KindDatasetSearch:    "dataset-search",
	KindCodeList:         "code-list",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("<undefined kind %d>", uint8(k))
}

// ParseKind converts the name of the kind, as printed by String(), to Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindUnset, &InvalidValueError{Option: "kind", Value: s}
}

// IsData is true for the kinds which accept data options (dates, columns,
// transforms, etc.).
func (k Kind) IsData() bool {
	return k == KindData || k == KindDataAndMetadata
}

// IsSearch is true for the kinds which accept search options.
func (k Kind) IsSearch() bool {
	return k == KindDatabaseSearch || k == KindDatasetSearch
}

// Format of the successful response body: "json", "csv" or "zip".
func (k Kind) Format() string {
	switch k {
	case KindData:
		return "csv"
	case KindCodeList:
		return "zip"
	}
	return "json"
}

// dataOptions apply only to the data kinds.
type dataOptions struct {
	order       Order
	startDate   Date
	endDate     Date
	columnIndex uint
	columnSet   bool
	limit       uint
	limitSet    bool
	collapse    Frequency
	transform   Transform
}

// searchOptions apply only to the search kinds.
type searchOptions struct {
	keywords []string
	perPage  uint
	page     uint
}

// Spec is an immutable description of a single request. It can only be
// created by a builder, and is safe to share between goroutines.
type Spec struct {
	resource Resource
	kind     Kind
	apiKey   string
	data     dataOptions
	search   searchOptions
}

func (s Spec) Resource() Resource { return s.resource }
func (s Spec) Kind() Kind         { return s.kind }

// APIKey set for this request only, if any. It overrides the client's key.
func (s Spec) APIKey() string { return s.apiKey }

func (s Spec) Order() Order         { return s.data.order }
func (s Spec) StartDate() Date      { return s.data.startDate }
func (s Spec) EndDate() Date        { return s.data.endDate }
func (s Spec) Collapse() Frequency  { return s.data.collapse }
func (s Spec) Transform() Transform { return s.data.transform }

// ColumnIndex returns the requested column and whether it was set. Column 0 is
// the date, which is always returned.
func (s Spec) ColumnIndex() (uint, bool) { return s.data.columnIndex, s.data.columnSet }

// Limit returns the maximum number of rows and whether it was set.
func (s Spec) Limit() (uint, bool) { return s.data.limit, s.data.limitSet }

// Keywords returns a copy of the search keywords.
func (s Spec) Keywords() []string {
	if s.search.keywords == nil {
		return nil
	}
	return append([]string{}, s.search.keywords...)
}

func (s Spec) PerPage() uint { return s.search.perPage }
func (s Spec) Page() uint    { return s.search.page }

// IsZero is true for the zero Spec, which no builder ever produces.
func (s Spec) IsZero() bool { return s.kind == KindUnset }

// Path returns the URL path to add to the base URL.
func (s Spec) Path() string {
	r := s.resource
	switch s.kind {
	case KindMetadata:
		return "/datasets/" + r.Path() + "/metadata.json"
	case KindData:
		return "/datasets/" + r.Path() + "/data.csv"
	case KindDataAndMetadata:
		return "/datasets/" + r.Path() + ".json"
	case KindDatabaseMetadata:
		return "/databases/" + r.Source + ".json"
	case KindDatabaseSearch:
		return "/databases.json"
	case KindDatasetSearch:
		return "/datasets.json"
	case KindCodeList:
		return "/databases/" + r.Source + "/codes"
	}
	return ""
}

// Values returns the query values for the request, without the API key. Each
// call creates a new object, so the caller is free to modify it.
func (s Spec) Values() url.Values {
	v := make(url.Values)
	set := func(k, val string) { v[k] = []string{val} }
	d := s.data
	if d.order != OrderUnset {
		set("order", d.order.String())
	}
	if !d.startDate.IsZero() {
		set("start_date", d.startDate.String())
	}
	if !d.endDate.IsZero() {
		set("end_date", d.endDate.String())
	}
	if d.columnSet {
		set("column_index", strconv.FormatUint(uint64(d.columnIndex), 10))
	}
	if d.limitSet {
		set("limit", strconv.FormatUint(uint64(d.limit), 10))
	}
	if d.collapse != FrequencyUnset {
		set("collapse", d.collapse.String())
	}
	if d.transform != TransformUnset {
		set("transform", d.transform.String())
	}
	sr := s.search
	if len(sr.keywords) > 0 {
		set("query", strings.Join(sr.keywords, " "))
	}
	if sr.perPage > 0 {
		set("per_page", strconv.FormatUint(uint64(sr.perPage), 10))
	}
	if sr.page > 0 {
		set("page", strconv.FormatUint(uint64(sr.page), 10))
	}
	if s.kind == KindDatasetSearch {
		set("database_code", s.resource.Source)
	}
	return v
}

// String is a human-readable representation for logs. It never includes the
// API key.
func (s Spec) String() string {
	res := s.kind.String()
	if p := s.resource.Path(); p != "" {
		res += " " + p
	}
	v := s.Values()
	if len(v) == 0 {
		return res
	}
	keys := maps.Keys(v)
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + strings.Join(v[k], ",")
	}
	return res + "?" + strings.Join(parts, "&")
}
