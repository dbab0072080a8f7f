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

package ndl

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"strings"

	"github.com/stockparfait/errors"

	"github.com/stockparfait/datalink/query"
)

// DatabaseMetadata describes a database (a source of datasets).
type DatabaseMetadata struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	DatabaseCode  string `json:"database_code"`
	Description   string `json:"description"`
	DatasetsCount int    `json:"datasets_count"`
	Downloads     int    `json:"downloads"`
	Premium       bool   `json:"premium"`
	Image         string `json:"image"`
}

// DatasetMetadata describes a single time-series dataset.
type DatasetMetadata struct {
	ID                  int        `json:"id"`
	DatasetCode         string     `json:"dataset_code"`
	DatabaseCode        string     `json:"database_code"`
	Name                string     `json:"name"`
	Description         string     `json:"description"`
	RefreshedAt         string     `json:"refreshed_at"`
	NewestAvailableDate query.Date `json:"newest_available_date"`
	OldestAvailableDate query.Date `json:"oldest_available_date"`
	ColumnNames         []string   `json:"column_names"`
	Frequency           string     `json:"frequency"`
	Premium             bool       `json:"premium"`
	DatabaseID          int        `json:"database_id"`
}

// Resource of the dataset.
func (m *DatasetMetadata) Resource() query.Resource {
	return query.Resource{Source: m.DatabaseCode, Code: m.DatasetCode}
}

// SearchMeta is the paging information of a search response. Optional fields
// are nil when absent.
type SearchMeta struct {
	Query            string `json:"query"`
	PerPage          int    `json:"per_page"`
	CurrentPage      int    `json:"current_page"`
	PrevPage         *int   `json:"prev_page"`
	TotalPages       int    `json:"total_pages"`
	TotalCount       int    `json:"total_count"`
	NextPage         *int   `json:"next_page"`
	CurrentFirstItem *int   `json:"current_first_item"`
	CurrentLastItem  *int   `json:"current_last_item"`
}

// DatabaseList is the result of a database search.
type DatabaseList struct {
	Databases []DatabaseMetadata `json:"databases"`
	Meta      SearchMeta         `json:"meta"`
}

// DatasetList is the result of a dataset search.
type DatasetList struct {
	Datasets []DatasetMetadata `json:"datasets"`
	Meta     SearchMeta        `json:"meta"`
}

// Code is a single entry of a database's code list.
type Code struct {
	DatabaseCode string
	DatasetCode  string
	Name         string
}

// Resource of the dataset.
func (c Code) Resource() query.Resource {
	return query.Resource{Source: c.DatabaseCode, Code: c.DatasetCode}
}

// DatasetData is the combined metadata and time-series of a dataset. Each row
// of Data starts with the date string followed by the column values, which
// are float64 numbers, strings or nil.
type DatasetData struct {
	DatasetMetadata
	Limit       *int            `json:"limit"`
	Transform   *string         `json:"transform"`
	ColumnIndex *int            `json:"column_index"`
	StartDate   query.Date      `json:"start_date"`
	EndDate     query.Date      `json:"end_date"`
	Collapse    *string         `json:"collapse"`
	Order       *string         `json:"order"`
	Data        [][]interface{} `json:"data"`
}

// JSON creates a Decoder of a JSON payload into T.
func JSON[T any]() Decoder[T] {
	return func(body []byte) (T, error) {
		var v T
		if err := json.Unmarshal(body, &v); err != nil {
			return v, &DecodeError{Err: err}
		}
		return v, nil
	}
}

// Raw is the identity Decoder.
func Raw(body []byte) ([]byte, error) { return body, nil }

// unwrap decodes a JSON object {"<field>": {...}} into v.
func unwrap(body []byte, field string, v interface{}) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return &DecodeError{Err: err}
	}
	raw, ok := m[field]
	if !ok {
		return &DecodeError{Err: errors.Reason("missing '%s' in the response", field)}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &DecodeError{Err: errors.Annotate(err, "failed to decode '%s'", field)}
	}
	return nil
}

// DecodeDatasetMetadata decodes the response of query.KindMetadata.
func DecodeDatasetMetadata(body []byte) (*DatasetMetadata, error) {
	var m DatasetMetadata
	if err := unwrap(body, "dataset", &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// DecodeDatabaseMetadata decodes the response of query.KindDatabaseMetadata.
func DecodeDatabaseMetadata(body []byte) (*DatabaseMetadata, error) {
	var m DatabaseMetadata
	if err := unwrap(body, "database", &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// DecodeDatasetData decodes the response of query.KindDataAndMetadata.
func DecodeDatasetData(body []byte) (*DatasetData, error) {
	var d DatasetData
	if err := unwrap(body, "dataset", &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// DecodeDatasetList decodes the response of query.KindDatasetSearch.
func DecodeDatasetList(body []byte) (*DatasetList, error) {
	l, err := JSON[DatasetList]()(body)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// DecodeDatabaseList decodes the response of query.KindDatabaseSearch.
func DecodeDatabaseList(body []byte) (*DatabaseList, error) {
	l, err := JSON[DatabaseList]()(body)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// DecodeCodeList decodes the response of query.KindCodeList: a zip archive with
// a single CSV file of "SOURCE/CODE,name" rows. A header row, if present, is
// skipped.
func DecodeCodeList(body []byte) ([]Code, error) {
	r := bytes.NewReader(body)
	z, err := zip.NewReader(r, r.Size())
	if err != nil {
		return nil, &DecodeError{Err: errors.Annotate(err, "failed to read zip archive")}
	}
	if len(z.File) != 1 {
		names := make([]string, len(z.File))
		for i, f := range z.File {
			names[i] = f.Name
		}
		return nil, &DecodeError{Err: errors.Reason(
			"archive contains %d files (expected 1):\n  %s",
			len(z.File), strings.Join(names, "\n  "))}
	}
	rc, err := z.File[0].Open()
	if err != nil {
		return nil, &DecodeError{Err: errors.Annotate(
			err, "failed to open file in the archive: %s", z.File[0].Name)}
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = 2
	var codes []Code
	for line := 1; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &DecodeError{Err: errors.Annotate(err, "failed to read CSV")}
		}
		parts := strings.Split(row[0], "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			if line == 1 {
				continue // header
			}
			return nil, &DecodeError{Err: errors.Reason(
				"line %d: invalid dataset code '%s'", line, row[0])}
		}
		codes = append(codes, Code{
			DatabaseCode: parts[0],
			DatasetCode:  parts[1],
			Name:         row[1],
		})
	}
	return codes, nil
}
