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

// Command ndl-batch runs a batch of Nasdaq Data Link requests described in a
// TOML job file and prints a report of their outcomes.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
	"golang.org/x/time/rate"

	"github.com/stockparfait/datalink/batch"
	"github.com/stockparfait/datalink/ndl"
	"github.com/stockparfait/datalink/query"
	"github.com/stockparfait/datalink/series"
	"github.com/stockparfait/datalink/table"

	toml "github.com/pelletier/go-toml/v2"
)

type Flags struct {
	Config   string // path to the job file
	LogLevel logging.Level
	Workers  int  // overrides max_concurrency when > 0
	Ordered  bool // print the outcomes in the order of the job file
	CSV      bool // print CSV instead of text
	Dump     bool // also print the decoded time-series
	Joint    bool // also print the data of all requests aligned on common dates
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	fs := flag.NewFlagSet("ndl-batch", flag.ExitOnError)
	fs.StringVar(&flags.Config, "conf",
		filepath.Join(os.Getenv("HOME"), ".datalink", "batch.toml"),
		"job file path")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")
	fs.IntVar(&flags.Workers, "workers", 0, "max. concurrent requests (overrides the job file)")
	fs.BoolVar(&flags.Ordered, "ordered", false, "report outcomes in the job file order")
	fs.BoolVar(&flags.CSV, "csv", false, "print CSV instead of text tables")
	fs.BoolVar(&flags.Dump, "dump", false, "print the data of each time-series request")
	fs.BoolVar(&flags.Joint, "joint", false,
		"print the last column of all time-series requests on their common dates")

	err := fs.Parse(args)
	return &flags, err
}

// QueryConfig is a single request of the job file. Which fields apply depends
// on the kind; the others must be left empty.
type QueryConfig struct {
	Kind        string   `toml:"kind"`     // as printed by query.Kind.String()
	Dataset     string   `toml:"dataset"`  // SOURCE/CODE, for dataset kinds
	Database    string   `toml:"database"` // SOURCE, for database kinds
	Key         string   `toml:"key"`      // overrides the job's key
	StartDate   string   `toml:"start_date"`
	EndDate     string   `toml:"end_date"`
	Order       string   `toml:"order"`
	Collapse    string   `toml:"collapse"`
	Transform   string   `toml:"transform"`
	ColumnIndex *uint    `toml:"column_index"`
	Limit       *uint    `toml:"limit"`
	Keywords    []string `toml:"keywords"`
	PerPage     uint     `toml:"per_page"`
	Page        uint     `toml:"page"`
}

type Config struct {
	Key            string        `toml:"key"`      // user key for Nasdaq Data Link
	BaseURL        string        `toml:"base_url"` // default: ndl.URL
	TimeoutSeconds float64       `toml:"timeout_seconds"`
	MaxConcurrency int           `toml:"max_concurrency"`
	Rate           float64       `toml:"rate"` // requests per second per key; 0 = unlimited
	Burst          int           `toml:"burst"`
	Queries        []QueryConfig `toml:"query"`
}

const sampleConfig = `key = "YourSecretNasdaqDataLinkKey"
max_concurrency = 4

[[query]]
kind = "data"
dataset = "WIKI/AAPL"
start_date = "2016-02-01"
order = "asc"
`

func parseConfig(filePath string) (*Config, error) {
	if _, err := os.Stat(filePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Annotate(err,
				"job file '%s' does not exist.\nPlease create a job file such as:\n%s",
				filePath, sampleConfig)
		}
		return nil, errors.Annotate(err,
			"cannot check job file for existence: '%s'", filePath)
	}
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Annotate(err, "failed to open job file %s", filePath)
	}
	defer f.Close()

	d := toml.NewDecoder(f)
	d.DisallowUnknownFields()
	var c Config
	if err := d.Decode(&c); err != nil {
		return nil, errors.Annotate(err, "failed to read job file %s", filePath)
	}
	if len(c.Queries) == 0 {
		return nil, errors.Reason("job file %s has no [[query]] entries", filePath)
	}
	return &c, nil
}

// dataOptions is implemented by the builders of the data kinds.
type dataOptions[Q any] interface {
	query.Common[Q]
	Order(query.Order) Q
	StartDate(year uint16, month, day uint8) Q
	EndDate(year uint16, month, day uint8) Q
	ColumnIndex(uint) Q
	Limit(uint) Q
	Collapse(query.Frequency) Q
	Transform(query.Transform) Q
}

func dataBuilder[Q dataOptions[Q]](b Q, q *QueryConfig) (query.Builder, error) {
	if q.StartDate != "" {
		d, err := query.ParseDate(q.StartDate)
		if err != nil {
			return nil, err
		}
		b.StartDate(d.Year(), d.Month(), d.Day())
	}
	if q.EndDate != "" {
		d, err := query.ParseDate(q.EndDate)
		if err != nil {
			return nil, err
		}
		b.EndDate(d.Year(), d.Month(), d.Day())
	}
	if q.Order != "" {
		o, err := query.ParseOrder(q.Order)
		if err != nil {
			return nil, err
		}
		b.Order(o)
	}
	if q.Collapse != "" {
		f, err := query.ParseFrequency(q.Collapse)
		if err != nil {
			return nil, err
		}
		b.Collapse(f)
	}
	if q.Transform != "" {
		t, err := query.ParseTransform(q.Transform)
		if err != nil {
			return nil, err
		}
		b.Transform(t)
	}
	if q.ColumnIndex != nil {
		b.ColumnIndex(*q.ColumnIndex)
	}
	if q.Limit != nil {
		b.Limit(*q.Limit)
	}
	return b, nil
}

func (q *QueryConfig) hasDataOptions() bool {
	return q.StartDate != "" || q.EndDate != "" || q.Order != "" || q.Collapse != "" ||
		q.Transform != "" || q.ColumnIndex != nil || q.Limit != nil
}

func (q *QueryConfig) hasSearchOptions() bool {
	return len(q.Keywords) > 0 || q.PerPage > 0 || q.Page > 0
}

// Spec builds the request. Options which do not apply to the kind are errors.
func (q *QueryConfig) Spec() (query.Spec, error) {
	kind, err := query.ParseKind(q.Kind)
	if err != nil {
		return query.Spec{}, err
	}
	if !kind.IsData() && q.hasDataOptions() {
		return query.Spec{}, errors.Reason("data options are not allowed for kind %s", kind)
	}
	if !kind.IsSearch() && q.hasSearchOptions() {
		return query.Spec{}, errors.Reason("search options are not allowed for kind %s", kind)
	}
	var r query.Resource
	if q.Dataset != "" {
		if r, err = query.ParseResource(q.Dataset); err != nil {
			return query.Spec{}, err
		}
	}
	var b query.Builder
	switch kind {
	case query.KindMetadata:
		b = query.NewMetadataQuery(r.Source, r.Code).APIKey(q.Key)
	case query.KindData:
		b, err = dataBuilder(query.NewDataQuery(r.Source, r.Code).APIKey(q.Key), q)
	case query.KindDataAndMetadata:
		b, err = dataBuilder(query.NewDataAndMetadataQuery(r.Source, r.Code).APIKey(q.Key), q)
	case query.KindDatabaseMetadata:
		b = query.NewDatabaseMetadataQuery(q.Database).APIKey(q.Key)
	case query.KindCodeList:
		b = query.NewCodeListQuery(q.Database).APIKey(q.Key)
	case query.KindDatabaseSearch:
		b = query.NewDatabaseSearch().Keywords(q.Keywords...).
			PerPage(q.PerPage).Page(q.Page).APIKey(q.Key)
	case query.KindDatasetSearch:
		b = query.NewDatasetSearch(q.Database).Keywords(q.Keywords...).
			PerPage(q.PerPage).Page(q.Page).APIKey(q.Key)
	default:
		return query.Spec{}, errors.Reason("unsupported kind: %s", kind)
	}
	if err != nil {
		return query.Spec{}, err
	}
	return b.Build()
}

// Result is the decoded response, summarized for the report.
type Result struct {
	Rows   int
	Detail string
	Frame  *series.Frame // for the data kind only

	// The last column of the Frame within the requested dates. It is usually
	// the most relevant one, e.g. "Close" or the single column selected by
	// column_index.
	Column string
	Series *series.Timeseries
}

func summarize(name string, ts *series.Timeseries) string {
	s := series.Summarize(ts)
	if s.Count == 0 {
		return name + ": no values"
	}
	return fmt.Sprintf("%s: first=%s last=%s min=%s max=%s mean=%.4g logret=%.4g",
		name, table.FormatValue(s.First), table.FormatValue(s.Last),
		table.FormatValue(s.Min), table.FormatValue(s.Max), s.Mean, s.MeanLogReturn)
}

// decodeData decodes the CSV data. The summary is restricted to the requested
// dates, since a collapsed series may have a period date beyond the end date.
func decodeData(spec query.Spec, b []byte) (Result, error) {
	f, err := series.DecodeCSV(b)
	if err != nil {
		return Result{}, err
	}
	res := Result{Rows: f.Len(), Frame: f}
	if len(f.Columns) == 0 {
		return res, nil
	}
	res.Column = f.Columns[len(f.Columns)-1]
	ts, err := f.Column(res.Column)
	if err != nil {
		return Result{}, err
	}
	res.Series = ts.Range(spec.StartDate(), spec.EndDate())
	res.Detail = summarize(res.Column, res.Series)
	return res, nil
}

var decoders = map[query.Kind]ndl.Decoder[Result]{
	query.KindMetadata: func(b []byte) (Result, error) {
		m, err := ndl.DecodeDatasetMetadata(b)
		if err != nil {
			return Result{}, err
		}
		return Result{Rows: 1, Detail: fmt.Sprintf("%s [%s .. %s]",
			m.Name, m.OldestAvailableDate, m.NewestAvailableDate)}, nil
	},
	query.KindDataAndMetadata: func(b []byte) (Result, error) {
		d, err := ndl.DecodeDatasetData(b)
		if err != nil {
			return Result{}, err
		}
		return Result{Rows: len(d.Data), Detail: d.Name}, nil
	},
	query.KindDatabaseMetadata: func(b []byte) (Result, error) {
		m, err := ndl.DecodeDatabaseMetadata(b)
		if err != nil {
			return Result{}, err
		}
		return Result{Rows: 1, Detail: fmt.Sprintf("%s: %d datasets", m.Name, m.DatasetsCount)}, nil
	},
	query.KindDatabaseSearch: func(b []byte) (Result, error) {
		l, err := ndl.DecodeDatabaseList(b)
		if err != nil {
			return Result{}, err
		}
		return Result{Rows: len(l.Databases), Detail: fmt.Sprintf("page %d of %d, %d total",
			l.Meta.CurrentPage, l.Meta.TotalPages, l.Meta.TotalCount)}, nil
	},
	query.KindDatasetSearch: func(b []byte) (Result, error) {
		l, err := ndl.DecodeDatasetList(b)
		if err != nil {
			return Result{}, err
		}
		return Result{Rows: len(l.Datasets), Detail: fmt.Sprintf("page %d of %d, %d total",
			l.Meta.CurrentPage, l.Meta.TotalPages, l.Meta.TotalCount)}, nil
	},
	query.KindCodeList: func(b []byte) (Result, error) {
		codes, err := ndl.DecodeCodeList(b)
		if err != nil {
			return Result{}, err
		}
		return Result{Rows: len(codes)}, nil
	},
}

var decodeByKind = batch.ByKind(decoders)

func decode(spec query.Spec, b []byte) (Result, error) {
	if spec.Kind() == query.KindData {
		return decodeData(spec, b)
	}
	return decodeByKind(spec, b)
}

// reportRow is a single line of the report.
type reportRow batch.Outcome[Result]

func (r reportRow) CSV() []string {
	status := "OK"
	detail := r.Value.Detail
	rows := strconv.Itoa(r.Value.Rows)
	if r.Err != nil {
		status = ndl.Classify(r.Err).String()
		detail = r.Err.Error()
		rows = ""
	}
	return []string{strconv.Itoa(r.Index), r.Spec.String(), status, rows, detail}
}

func write(t *table.Table, w io.Writer, flags *Flags) error {
	if flags.CSV {
		return t.WriteCSV(w, table.Params{})
	}
	return t.WriteText(w, table.Params{MaxColWidth: 80})
}

// writeJoint prints the windowed last columns of the data outcomes aligned on
// their common dates.
func writeJoint(frames []batch.Outcome[Result], w io.Writer, flags *Flags) error {
	var names []string
	var tss []*series.Timeseries
	dateColumn := ""
	for _, o := range frames {
		if o.Value.Series == nil {
			continue
		}
		if dateColumn == "" {
			dateColumn = o.Value.Frame.DateColumn
		}
		names = append(names, fmt.Sprintf("#%d %s", o.Index, o.Value.Column))
		tss = append(tss, o.Value.Series)
	}
	if len(tss) == 0 {
		return nil
	}
	t, err := table.FromSeries(dateColumn, names, tss...)
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	return write(t, w, flags)
}

func run(ctx context.Context, flags *Flags, w io.Writer) error {
	config, err := parseConfig(flags.Config)
	if err != nil {
		return errors.Annotate(err, "failed to parse config")
	}
	specs := make([]query.Spec, len(config.Queries))
	for i := range config.Queries {
		if specs[i], err = config.Queries[i].Spec(); err != nil {
			return errors.Annotate(err, "invalid query #%d", i)
		}
	}
	if ndl.GetClient(ctx) == nil {
		ctx = ndl.UseClient(ctx, ndl.NewClient(ndl.Options{
			BaseURL: config.BaseURL,
			APIKey:  config.Key,
			Timeout: time.Duration(config.TimeoutSeconds * float64(time.Second)),
		}))
	}
	bc := batch.Config{
		MaxConcurrency: config.MaxConcurrency,
		Ordering:       batch.CompletionOrder,
		RateLimit:      rate.Limit(config.Rate),
		Burst:          config.Burst,
	}
	if flags.Workers > 0 {
		bc.MaxConcurrency = flags.Workers
	}
	if flags.Ordered {
		bc.Ordering = batch.SubmissionOrder
	}
	e, err := batch.New[Result](ndl.GetClient(ctx), decode, bc)
	if err != nil {
		return errors.Annotate(err, "failed to create batch executor")
	}
	outcomes := e.Run(ctx, specs)
	defer outcomes.Close()

	report := table.NewTable("#", "Request", "Status", "Rows", "Detail")
	var frames []batch.Outcome[Result]
	failed := 0
	for o, ok := outcomes.Next(); ok; o, ok = outcomes.Next() {
		report.AddRow(reportRow(o))
		if !o.OK() {
			failed++
			logging.Warningf(ctx, "request #%d %s failed: %s", o.Index, o.Spec, o.Err)
			continue
		}
		if o.Value.Frame != nil {
			frames = append(frames, o)
		}
	}
	if err := write(report, w, flags); err != nil {
		return errors.Annotate(err, "failed to write the report")
	}
	batch.SortByIndex(frames)
	if flags.Dump {
		for _, o := range frames {
			fmt.Fprintf(w, "\n#%d %s\n", o.Index, o.Spec.Resource())
			if err := write(table.FromFrame(o.Value.Frame), w, flags); err != nil {
				return errors.Annotate(err, "failed to write data for #%d", o.Index)
			}
		}
	}
	if flags.Joint {
		if err := writeJoint(frames, w, flags); err != nil {
			return errors.Annotate(err, "failed to write the joint data")
		}
	}
	if failed > 0 {
		logging.Warningf(ctx, "%d of %d requests failed", failed, len(specs))
	}
	return nil
}

func main() {
	ctx := context.Background()
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Info))
		logging.Errorf(ctx, "failed to parse flags: %s", err.Error())
		os.Exit(1)
	}
	ctx = logging.Use(ctx, logging.DefaultGoLogger(flags.LogLevel))

	if err := run(ctx, flags, os.Stdout); err != nil {
		logging.Errorf(ctx, "%s", err.Error())
		os.Exit(1)
	}
}
