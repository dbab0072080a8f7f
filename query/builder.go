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
	"strings"

	"github.com/stockparfait/errors"
)

// Builder is implemented by all the query builders.
type Builder interface {
	// Build freezes the builder and returns the Spec, or the first error
	// recorded by the constructor or a mutation.
	Build() (Spec, error)
	// Err returns the first recorded error, if any.
	Err() error
}

// Common is the set of mutators shared by all builders. Q is the concrete
// builder type, so the calls can be chained.
type Common[Q any] interface {
	Builder
	APIKey(key string) Q
}

// core holds the Spec under construction and implements Common[Q].
type core[Q any] struct {
	self  Q
	spec  Spec
	err   error
	built bool
}

func (c *core[Q]) init(self Q, kind Kind, r Resource, err error) {
	c.self = self
	c.spec = Spec{kind: kind, resource: r}
	c.err = err
}

// mutate applies f to the Spec unless an error was already recorded.
func (c *core[Q]) mutate(f func(s *Spec) error) Q {
	if c.built {
		panic(errors.Reason("%s query builder is used after Build()", c.spec.kind))
	}
	if c.err == nil {
		c.err = f(&c.spec)
	}
	return c.self
}

// APIKey sets the API key for this request only, overriding the client's key.
func (c *core[Q]) APIKey(key string) Q {
	return c.mutate(func(s *Spec) error {
		s.apiKey = key
		return nil
	})
}

func (c *core[Q]) Err() error { return c.err }

func (c *core[Q]) Build() (Spec, error) {
	c.built = true
	if c.err != nil {
		return Spec{}, c.err
	}
	s := c.spec
	s.search.keywords = s.Keywords() // detach from the builder
	return s, nil
}

// dataCore adds the data options to core.
type dataCore[Q any] struct {
	core[Q]
}

// Order sets the order of the rows by date.
func (c *dataCore[Q]) Order(o Order) Q {
	return c.mutate(func(s *Spec) error {
		if err := orderTable.check(o); err != nil {
			return err
		}
		s.data.order = o
		return nil
	})
}

// StartDate sets the earliest date to return. Impossible dates are rejected;
// whether the date is within the dataset's history is up to the server.
func (c *dataCore[Q]) StartDate(year uint16, month, day uint8) Q {
	return c.mutate(func(s *Spec) error {
		d, err := NewDate(year, month, day)
		if err != nil {
			return err
		}
		s.data.startDate = d
		return nil
	})
}

// EndDate sets the latest date to return, with the same checks as StartDate.
func (c *dataCore[Q]) EndDate(year uint16, month, day uint8) Q {
	return c.mutate(func(s *Spec) error {
		d, err := NewDate(year, month, day)
		if err != nil {
			return err
		}
		s.data.endDate = d
		return nil
	})
}

// ColumnIndex selects a single column to return, in addition to the date
// column 0 which is always returned.
func (c *dataCore[Q]) ColumnIndex(i uint) Q {
	return c.mutate(func(s *Spec) error {
		s.data.columnIndex = i
		s.data.columnSet = true
		return nil
	})
}

// Limit sets the maximum number of rows to return.
func (c *dataCore[Q]) Limit(n uint) Q {
	return c.mutate(func(s *Spec) error {
		s.data.limit = n
		s.data.limitSet = true
		return nil
	})
}

// Collapse requests the data at a lower frequency than the native one.
func (c *dataCore[Q]) Collapse(f Frequency) Q {
	return c.mutate(func(s *Spec) error {
		if err := frequencyTable.check(f); err != nil {
			return err
		}
		s.data.collapse = f
		return nil
	})
}

// Transform sets the calculation the server applies to the data.
func (c *dataCore[Q]) Transform(t Transform) Q {
	return c.mutate(func(s *Spec) error {
		if err := transformTable.check(t); err != nil {
			return err
		}
		s.data.transform = t
		return nil
	})
}

// searchCore adds the search options to core.
type searchCore[Q any] struct {
	core[Q]
}

// Keywords to search for. Blank keywords are dropped.
func (c *searchCore[Q]) Keywords(keywords ...string) Q {
	return c.mutate(func(s *Spec) error {
		kw := []string{}
		for _, k := range keywords {
			if k = strings.TrimSpace(k); k != "" {
				kw = append(kw, k)
			}
		}
		s.search.keywords = kw
		return nil
	})
}

// PerPage sets the number of results per page; 0 leaves the server default.
func (c *searchCore[Q]) PerPage(n uint) Q {
	return c.mutate(func(s *Spec) error {
		s.search.perPage = n
		return nil
	})
}

// Page selects the page of results, starting from 1; 0 leaves the server
// default.
func (c *searchCore[Q]) Page(n uint) Q {
	return c.mutate(func(s *Spec) error {
		s.search.page = n
		return nil
	})
}

// MetadataQuery builds a request for the metadata of a dataset.
type MetadataQuery struct {
	core[*MetadataQuery]
}

var _ Common[*MetadataQuery] = &MetadataQuery{}

// NewMetadataQuery starts a dataset metadata request. Empty codes are recorded
// as InvalidResourceError.
func NewMetadataQuery(source, code string) *MetadataQuery {
	q := &MetadataQuery{}
	r, err := newDatasetResource(source, code)
	q.init(q, KindMetadata, r, err)
	return q
}

// DataQuery builds a request for the time-series of a dataset in CSV format.
type DataQuery struct {
	dataCore[*DataQuery]
}

var _ Common[*DataQuery] = &DataQuery{}

// NewDataQuery starts a dataset data request. Empty codes are recorded as
// InvalidResourceError.
func NewDataQuery(source, code string) *DataQuery {
	q := &DataQuery{}
	r, err := newDatasetResource(source, code)
	q.init(q, KindData, r, err)
	return q
}

// DataAndMetadataQuery builds a request for both the time-series and the
// metadata of a dataset in a single JSON response.
type DataAndMetadataQuery struct {
	dataCore[*DataAndMetadataQuery]
}

var _ Common[*DataAndMetadataQuery] = &DataAndMetadataQuery{}

func NewDataAndMetadataQuery(source, code string) *DataAndMetadataQuery {
	q := &DataAndMetadataQuery{}
	r, err := newDatasetResource(source, code)
	q.init(q, KindDataAndMetadata, r, err)
	return q
}

// DatabaseMetadataQuery builds a request for the metadata of a database.
type DatabaseMetadataQuery struct {
	core[*DatabaseMetadataQuery]
}

var _ Common[*DatabaseMetadataQuery] = &DatabaseMetadataQuery{}

func NewDatabaseMetadataQuery(source string) *DatabaseMetadataQuery {
	q := &DatabaseMetadataQuery{}
	r, err := newDatabaseResource(source)
	q.init(q, KindDatabaseMetadata, r, err)
	return q
}

// CodeListQuery builds a request for all the dataset codes of a database.
type CodeListQuery struct {
	core[*CodeListQuery]
}

var _ Common[*CodeListQuery] = &CodeListQuery{}

func NewCodeListQuery(source string) *CodeListQuery {
	q := &CodeListQuery{}
	r, err := newDatabaseResource(source)
	q.init(q, KindCodeList, r, err)
	return q
}

// DatabaseSearch builds a search request over all databases.
type DatabaseSearch struct {
	searchCore[*DatabaseSearch]
}

var _ Common[*DatabaseSearch] = &DatabaseSearch{}

func NewDatabaseSearch() *DatabaseSearch {
	q := &DatabaseSearch{}
	q.init(q, KindDatabaseSearch, Resource{}, nil)
	return q
}

// DatasetSearch builds a search request over the datasets of a database.
type DatasetSearch struct {
	searchCore[*DatasetSearch]
}

var _ Common[*DatasetSearch] = &DatasetSearch{}

func NewDatasetSearch(source string) *DatasetSearch {
	q := &DatasetSearch{}
	r, err := newDatabaseResource(source)
	q.init(q, KindDatasetSearch, r, err)
	return q
}
