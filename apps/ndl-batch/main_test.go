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

package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stockparfait/logging"
	"github.com/stockparfait/testutil"

	"github.com/stockparfait/datalink/ndl"
	"github.com/stockparfait/datalink/query"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(t *testing.T) {
	t.Parallel()

	tmpdir, tmpdirErr := os.MkdirTemp("", "test_ndl_batch")
	defer os.RemoveAll(tmpdir)

	Convey("Setup succeeded", t, func() {
		So(tmpdirErr, ShouldBeNil)
	})

	Convey("parseFlags", t, func() {
		flags, err := parseFlags([]string{
			"-conf", "path/to/job.toml", "-log-level", "warning",
			"-workers", "3", "-ordered", "-csv", "-joint"})
		So(err, ShouldBeNil)
		So(flags.Config, ShouldEqual, "path/to/job.toml")
		So(flags.LogLevel, ShouldEqual, logging.Warning)
		So(flags.Workers, ShouldEqual, 3)
		So(flags.Ordered, ShouldBeTrue)
		So(flags.CSV, ShouldBeTrue)
		So(flags.Dump, ShouldBeFalse)
		So(flags.Joint, ShouldBeTrue)
	})

	Convey("parseConfig", t, func() {
		Convey("valid job file", func() {
			fileName := filepath.Join(tmpdir, "job.toml")
			So(testutil.WriteFile(fileName, `key = "testKey"
max_concurrency = 2
rate = 5.0

[[query]]
kind = "data"
dataset = "WIKI/AAPL"
start_date = "2016-02-01"
order = "asc"
column_index = 4

[[query]]
kind = "dataset-search"
database = "WIKI"
keywords = ["apple"]
`), ShouldBeNil)
			c, err := parseConfig(fileName)
			So(err, ShouldBeNil)
			So(c.Key, ShouldEqual, "testKey")
			So(c.MaxConcurrency, ShouldEqual, 2)
			So(c.Rate, ShouldEqual, 5.0)
			So(len(c.Queries), ShouldEqual, 2)
			So(c.Queries[0].Dataset, ShouldEqual, "WIKI/AAPL")
			So(*c.Queries[0].ColumnIndex, ShouldEqual, 4)
			So(c.Queries[1].Keywords, ShouldResemble, []string{"apple"})
		})

		Convey("missing file", func() {
			_, err := parseConfig(filepath.Join(tmpdir, "nope.toml"))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "does not exist")
		})

		Convey("no queries", func() {
			fileName := filepath.Join(tmpdir, "empty.toml")
			So(testutil.WriteFile(fileName, `key = "testKey"`), ShouldBeNil)
			_, err := parseConfig(fileName)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("QueryConfig.Spec", t, func() {
		Convey("data query", func() {
			col := uint(4)
			q := QueryConfig{Kind: "data", Dataset: "WIKI/AAPL", StartDate: "2016-02-01",
				EndDate: "2016-02-29", Order: "desc", Collapse: "weekly",
				Transform: "rdiff", ColumnIndex: &col, Key: "k"}
			s, err := q.Spec()
			So(err, ShouldBeNil)
			expected, err := query.NewDataQuery("WIKI", "AAPL").StartDate(2016, 2, 1).
				EndDate(2016, 2, 29).Order(query.Descending).Collapse(query.Weekly).
				Transform(query.RDiff).ColumnIndex(4).APIKey("k").Build()
			So(err, ShouldBeNil)
			So(s, ShouldResemble, expected)
		})

		Convey("search query", func() {
			q := QueryConfig{Kind: "database-search", Keywords: []string{"oil"}, PerPage: 5}
			s, err := q.Spec()
			So(err, ShouldBeNil)
			So(s.Kind(), ShouldEqual, query.KindDatabaseSearch)
			So(s.PerPage(), ShouldEqual, 5)
		})

		Convey("errors", func() {
			_, err := (&QueryConfig{Kind: "data", Dataset: "WIKI/AAPL",
				StartDate: "2019-02-29"}).Spec()
			So(err, ShouldHaveSameTypeAs, &query.InvalidDateError{})
			_, err = (&QueryConfig{Kind: "metadata"}).Spec()
			So(err, ShouldHaveSameTypeAs, &query.InvalidResourceError{})
			_, err = (&QueryConfig{Kind: "metadata", Dataset: "WIKI/AAPL", Limit: new(uint)}).Spec()
			So(err, ShouldNotBeNil)
			_, err = (&QueryConfig{Kind: "data", Dataset: "WIKI/AAPL", Keywords: []string{"x"}}).Spec()
			So(err, ShouldNotBeNil)
			_, err = (&QueryConfig{Kind: "everything"}).Spec()
			So(err, ShouldHaveSameTypeAs, &query.InvalidValueError{})
		})
	})

	Convey("run", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/datasets/WIKI/AAPL/data.csv":
				fmt.Fprint(w, "Date,Close\n2016-02-29,96.69\n2016-02-26,96.91\n")
			case "/datasets/WIKI/MSFT/data.csv":
				fmt.Fprint(w, "Date,Close\n2016-02-29,50.88\n2016-02-25,51.82\n")
			case "/datasets/WIKI/AAPL/metadata.json":
				fmt.Fprint(w, `{"dataset": {"name": "Apple", "dataset_code": "AAPL",
"database_code": "WIKI", "oldest_available_date": "1980-12-12",
"newest_available_date": "2018-03-27"}}`)
			default:
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"quandl_error": {"code": "QECx02", "message": "not found"}}`)
			}
		}))
		defer server.Close()

		fileName := filepath.Join(tmpdir, "run.toml")
		So(testutil.WriteFile(fileName, fmt.Sprintf(`key = "testKey"
base_url = "%s"

[[query]]
kind = "data"
dataset = "WIKI/AAPL"

[[query]]
kind = "metadata"
dataset = "WIKI/NOPE"

[[query]]
kind = "metadata"
dataset = "WIKI/AAPL"
`, server.URL)), ShouldBeNil)

		ctx := logging.Use(context.Background(), logging.DefaultGoLogger(logging.Error))
		var buf bytes.Buffer
		flags := &Flags{Config: fileName, Ordered: true, CSV: true, Dump: true}
		So(run(ctx, flags, &buf), ShouldBeNil)
		So("\n"+buf.String(), ShouldEqual, `
#,Request,Status,Rows,Detail
0,data WIKI/AAPL,OK,2,Close: first=96.91 last=96.69 min=96.69 max=96.91 mean=96.8 logret=-0.002273
1,metadata WIKI/NOPE,api,,API error QECx02 (status 404): not found
2,metadata WIKI/AAPL,OK,1,Apple [1980-12-12 .. 2018-03-27]

#0 WIKI/AAPL
Date,Close
2016-02-26,96.91
2016-02-29,96.69
`)

		Convey("with the client from the context and aligned data", func() {
			fileName := filepath.Join(tmpdir, "joint.toml")
			So(testutil.WriteFile(fileName, `key = "testKey"
base_url = "http://127.0.0.1:1/unused"

[[query]]
kind = "data"
dataset = "WIKI/AAPL"
start_date = "2016-02-27"

[[query]]
kind = "data"
dataset = "WIKI/MSFT"
`), ShouldBeNil)

			cctx := ndl.UseClient(ctx, ndl.NewClient(ndl.Options{BaseURL: server.URL}))
			var buf bytes.Buffer
			flags := &Flags{Config: fileName, Ordered: true, CSV: true, Joint: true}
			So(run(cctx, flags, &buf), ShouldBeNil)
			So("\n"+buf.String(), ShouldEqual, `
#,Request,Status,Rows,Detail
0,data WIKI/AAPL?start_date=2016-02-27,OK,2,Close: first=96.69 last=96.69 min=96.69 max=96.69 mean=96.69 logret=NaN
1,data WIKI/MSFT,OK,2,Close: first=51.82 last=50.88 min=50.88 max=51.82 mean=51.35 logret=-0.01831

Date,#0 Close,#1 Close
2016-02-29,96.69,50.88
`)
		})
	})
}
