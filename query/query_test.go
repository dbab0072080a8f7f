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
	"net/url"
	"reflect"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDate(t *testing.T) {
	t.Parallel()

	Convey("NewDate validates the calendar", t, func() {
		Convey("accepts valid dates", func() {
			for _, d := range [][3]int{
				{2016, 2, 29}, {2000, 2, 29}, {2019, 2, 28}, {2019, 1, 31},
				{2019, 4, 30}, {2019, 12, 31}, {1, 1, 1},
			} {
				date, err := NewDate(uint16(d[0]), uint8(d[1]), uint8(d[2]))
				So(err, ShouldBeNil)
				So(int(date.Year()), ShouldEqual, d[0])
				So(int(date.Month()), ShouldEqual, d[1])
				So(int(date.Day()), ShouldEqual, d[2])
			}
		})

		Convey("rejects invalid dates", func() {
			for _, d := range [][3]int{
				{2019, 2, 29}, {1900, 2, 29}, {2016, 2, 30}, {2019, 4, 31},
				{2019, 13, 1}, {2019, 0, 1}, {2019, 1, 0}, {2019, 1, 32}, {0, 1, 1},
			} {
				_, err := NewDate(uint16(d[0]), uint8(d[1]), uint8(d[2]))
				So(err, ShouldResemble, &InvalidDateError{Year: d[0], Month: d[1], Day: d[2]})
			}
		})

		Convey("checks every day of a leap and a normal year", func() {
			for _, year := range []uint16{2016, 2019} {
				count := 0
				for m := uint8(1); m <= 12; m++ {
					for d := uint8(1); d <= 31; d++ {
						if _, err := NewDate(year, m, d); err == nil {
							count++
						}
					}
				}
				if year == 2016 {
					So(count, ShouldEqual, 366)
				} else {
					So(count, ShouldEqual, 365)
				}
			}
		})
	})

	Convey("ParseDate", t, func() {
		d, err := ParseDate("2016-02-29")
		So(err, ShouldBeNil)
		So(d, ShouldResemble, MustDate(2016, 2, 29))

		_, err = ParseDate("2015-02-29")
		So(err, ShouldResemble, &InvalidDateError{Year: 2015, Month: 2, Day: 29})

		_, err = ParseDate("yesterday")
		So(err, ShouldNotBeNil)
	})

	Convey("Date methods", t, func() {
		d := MustDate(2016, 2, 3)
		So(d.String(), ShouldEqual, "2016-02-03")
		So(d.IsLeapYear(), ShouldBeTrue)
		So(d.DaysInMonth(), ShouldEqual, 29)
		So(d.Before(MustDate(2016, 2, 4)), ShouldBeTrue)
		So(d.After(MustDate(2015, 12, 31)), ShouldBeTrue)
		So(Date{}.IsZero(), ShouldBeTrue)

		js, err := json.Marshal(d)
		So(err, ShouldBeNil)
		So(string(js), ShouldEqual, `"2016-02-03"`)
		var d2 Date
		So(json.Unmarshal(js, &d2), ShouldBeNil)
		So(d2, ShouldResemble, d)
	})
}

func TestEnums(t *testing.T) {
	t.Parallel()

	Convey("Enums map to wire tokens", t, func() {
		So(Ascending.String(), ShouldEqual, "asc")
		So(Descending.String(), ShouldEqual, "desc")
		So(Quarterly.String(), ShouldEqual, "quarterly")
		So(RDiffFrom.String(), ShouldEqual, "rdiff_from")
		So(Cumulative.String(), ShouldEqual, "cumul")
		So(Order(42).String(), ShouldEqual, "<undefined order>")

		o, err := ParseOrder("desc")
		So(err, ShouldBeNil)
		So(o, ShouldEqual, Descending)
		f, err := ParseFrequency("annual")
		So(err, ShouldBeNil)
		So(f, ShouldEqual, Annual)
		tr, err := ParseTransform("normalize")
		So(err, ShouldBeNil)
		So(tr, ShouldEqual, Normalize)

		_, err = ParseOrder("Ascending")
		So(err, ShouldResemble, &InvalidValueError{Option: "order", Value: "Ascending"})
	})

	Convey("Kind", t, func() {
		k, err := ParseKind("data-and-metadata")
		So(err, ShouldBeNil)
		So(k, ShouldEqual, KindDataAndMetadata)
		So(KindData.Format(), ShouldEqual, "csv")
		So(KindCodeList.Format(), ShouldEqual, "zip")
		So(KindMetadata.Format(), ShouldEqual, "json")
		So(KindDataAndMetadata.IsData(), ShouldBeTrue)
		So(KindMetadata.IsData(), ShouldBeFalse)
		So(KindDatasetSearch.IsSearch(), ShouldBeTrue)
	})
}

func TestBuilders(t *testing.T) {
	t.Parallel()

	Convey("Builders", t, func() {
		Convey("a fresh builder has no filters", func() {
			s, err := NewDataQuery("WIKI", "AAPL").Build()
			So(err, ShouldBeNil)
			So(s.Kind(), ShouldEqual, KindData)
			So(s.Resource(), ShouldResemble, Resource{Source: "WIKI", Code: "AAPL"})
			So(len(s.Values()), ShouldEqual, 0)
			So(s.Path(), ShouldEqual, "/datasets/WIKI/AAPL/data.csv")
			_, ok := s.ColumnIndex()
			So(ok, ShouldBeFalse)
			So(s.Order(), ShouldEqual, OrderUnset)
		})

		Convey("all data options", func() {
			s, err := NewDataQuery("WIKI", "AAPL").
				Order(Ascending).
				StartDate(2016, 2, 1).
				EndDate(2016, 2, 29).
				ColumnIndex(4).
				Limit(10).
				Collapse(Weekly).
				Transform(RDiff).
				Build()
			So(err, ShouldBeNil)
			So(s.Values(), ShouldResemble, url.Values{
				"order":        {"asc"},
				"start_date":   {"2016-02-01"},
				"end_date":     {"2016-02-29"},
				"column_index": {"4"},
				"limit":        {"10"},
				"collapse":     {"weekly"},
				"transform":    {"rdiff"},
			})
			So(s.String(), ShouldEqual, "data WIKI/AAPL?collapse=weekly&column_index=4&"+
				"end_date=2016-02-29&limit=10&order=asc&start_date=2016-02-01&transform=rdiff")
		})

		Convey("column 0 is a valid index", func() {
			s, err := NewDataQuery("WIKI", "AAPL").ColumnIndex(0).Build()
			So(err, ShouldBeNil)
			i, ok := s.ColumnIndex()
			So(ok, ShouldBeTrue)
			So(i, ShouldEqual, 0)
			So(s.Values().Get("column_index"), ShouldEqual, "0")
		})

		Convey("mutation order does not matter", func() {
			s1, err := NewDataQuery("WIKI", "AAPL").
				Limit(5).Order(Descending).StartDate(2000, 1, 3).APIKey("k").Build()
			So(err, ShouldBeNil)
			s2, err := NewDataQuery("WIKI", "AAPL").
				APIKey("k").StartDate(2000, 1, 3).Order(Descending).Limit(5).Build()
			So(err, ShouldBeNil)
			So(s1, ShouldResemble, s2)
		})

		Convey("empty resources are rejected", func() {
			q := NewDataQuery("", "AAPL")
			So(q.Err(), ShouldHaveSameTypeAs, &InvalidResourceError{})
			_, err := q.Limit(3).Build()
			So(err, ShouldHaveSameTypeAs, &InvalidResourceError{})

			_, err = NewMetadataQuery("WIKI", " ").Build()
			So(err, ShouldHaveSameTypeAs, &InvalidResourceError{})
			_, err = NewDatabaseMetadataQuery("").Build()
			So(err, ShouldHaveSameTypeAs, &InvalidResourceError{})
			_, err = NewCodeListQuery("A/B").Build()
			So(err, ShouldHaveSameTypeAs, &InvalidResourceError{})
		})

		Convey("invalid dates fail fast and stick", func() {
			q := NewDataQuery("WIKI", "AAPL").StartDate(2019, 2, 30)
			So(q.Err(), ShouldResemble, &InvalidDateError{Year: 2019, Month: 2, Day: 30})
			q.EndDate(2019, 3, 1).Limit(1)
			_, err := q.Build()
			So(err, ShouldResemble, &InvalidDateError{Year: 2019, Month: 2, Day: 30})

			_, err = NewDataAndMetadataQuery("WIKI", "AAPL").EndDate(2020, 2, 29).Build()
			So(err, ShouldBeNil)
		})

		Convey("out of range enum values are rejected", func() {
			_, err := NewDataQuery("WIKI", "AAPL").Order(Order(7)).Build()
			So(err, ShouldResemble, &InvalidValueError{Option: "order", Value: "7"})
			_, err = NewDataQuery("WIKI", "AAPL").Collapse(FrequencyUnset).Build()
			So(err, ShouldHaveSameTypeAs, &InvalidValueError{})
			_, err = NewDataQuery("WIKI", "AAPL").Transform(Transform(99)).Build()
			So(err, ShouldResemble, &InvalidValueError{Option: "transform", Value: "99"})
		})

		Convey("a built builder is frozen", func() {
			q := NewDataQuery("WIKI", "AAPL").Limit(1)
			s, err := q.Build()
			So(err, ShouldBeNil)
			So(func() { q.Limit(2) }, ShouldPanic)
			n, _ := s.Limit()
			So(n, ShouldEqual, 1)
		})

		Convey("kinds expose only their own options", func() {
			dataOnly := []string{"Order", "StartDate", "EndDate", "ColumnIndex",
				"Limit", "Collapse", "Transform"}
			searchOnly := []string{"Keywords", "PerPage", "Page"}
			hasMethod := func(v interface{}, name string) bool {
				_, ok := reflect.TypeOf(v).MethodByName(name)
				return ok
			}
			for _, m := range dataOnly {
				So(hasMethod(&DataQuery{}, m), ShouldBeTrue)
				So(hasMethod(&DataAndMetadataQuery{}, m), ShouldBeTrue)
				So(hasMethod(&MetadataQuery{}, m), ShouldBeFalse)
				So(hasMethod(&DatabaseMetadataQuery{}, m), ShouldBeFalse)
				So(hasMethod(&DatasetSearch{}, m), ShouldBeFalse)
			}
			for _, m := range searchOnly {
				So(hasMethod(&DatasetSearch{}, m), ShouldBeTrue)
				So(hasMethod(&DatabaseSearch{}, m), ShouldBeTrue)
				So(hasMethod(&DataQuery{}, m), ShouldBeFalse)
				So(hasMethod(&MetadataQuery{}, m), ShouldBeFalse)
			}
			for _, v := range []interface{}{&DataQuery{}, &MetadataQuery{}, &CodeListQuery{}} {
				So(hasMethod(v, "APIKey"), ShouldBeTrue)
				So(hasMethod(v, "Build"), ShouldBeTrue)
			}
		})

		Convey("paths and values of the other kinds", func() {
			s, err := NewMetadataQuery("WIKI", "AAPL").APIKey("secret").Build()
			So(err, ShouldBeNil)
			So(s.Path(), ShouldEqual, "/datasets/WIKI/AAPL/metadata.json")
			So(s.APIKey(), ShouldEqual, "secret")
			So(len(s.Values()), ShouldEqual, 0)
			So(s.String(), ShouldEqual, "metadata WIKI/AAPL")

			s, err = NewDataAndMetadataQuery("WIKI", "AAPL").Build()
			So(err, ShouldBeNil)
			So(s.Path(), ShouldEqual, "/datasets/WIKI/AAPL.json")

			s, err = NewDatabaseMetadataQuery("WIKI").Build()
			So(err, ShouldBeNil)
			So(s.Path(), ShouldEqual, "/databases/WIKI.json")

			s, err = NewCodeListQuery("WIKI").Build()
			So(err, ShouldBeNil)
			So(s.Path(), ShouldEqual, "/databases/WIKI/codes")

			s, err = NewDatabaseSearch().Keywords("Oil", " ", "Recycling ").PerPage(1).Page(2).Build()
			So(err, ShouldBeNil)
			So(s.Path(), ShouldEqual, "/databases.json")
			So(s.Values(), ShouldResemble, url.Values{
				"query": {"Oil Recycling"}, "per_page": {"1"}, "page": {"2"}})
			So(s.Values().Encode(), ShouldEqual, "page=2&per_page=1&query=Oil+Recycling")
			So(s.Keywords(), ShouldResemble, []string{"Oil", "Recycling"})

			s, err = NewDatasetSearch("WIKI").Keywords("apple").Build()
			So(err, ShouldBeNil)
			So(s.Path(), ShouldEqual, "/datasets.json")
			So(s.Values(), ShouldResemble, url.Values{
				"query": {"apple"}, "database_code": {"WIKI"}})
		})

		Convey("ParseResource", func() {
			r, err := ParseResource("WIKI/AAPL")
			So(err, ShouldBeNil)
			So(r, ShouldResemble, Resource{Source: "WIKI", Code: "AAPL"})
			So(r.String(), ShouldEqual, "WIKI/AAPL")
			_, err = ParseResource("WIKI")
			So(err, ShouldHaveSameTypeAs, &InvalidResourceError{})
		})
	})
}
