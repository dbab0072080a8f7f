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
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/stockparfait/errors"

	"github.com/stockparfait/datalink/query"
)

// APIError is the error response of the server, preserved as received.
type APIError struct {
	Status  int                 // HTTP status code
	Code    string              // server-specific error code, e.g. "QECx02"
	Message string              // server message, or the raw body if not JSON
	Errors  map[string][]string // per-field details, if any
	Body    []byte              // the raw response body
}

func (e *APIError) Error() string {
	msg := e.Message
	if len(e.Errors) > 0 {
		fields := make([]string, 0, len(e.Errors))
		for f := range e.Errors {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		parts := make([]string, len(fields))
		for i, f := range fields {
			parts[i] = f + ": " + strings.Join(e.Errors[f], " ")
		}
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	if e.Code == "" {
		return fmt.Sprintf("API error (status %d): %s", e.Status, msg)
	}
	return fmt.Sprintf("API error %s (status %d): %s", e.Code, e.Status, msg)
}

type apiErrorResponse struct {
	QuandlError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"quandl_error"`
	Errors map[string][]string `json:"errors"`
}

// parseAPIError creates APIError from a non-2xx response. Bodies which are not
// in the server's error format are kept verbatim as the message.
func parseAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status, Body: body}
	var r apiErrorResponse
	if err := json.Unmarshal(body, &r); err != nil || r.QuandlError == nil {
		e.Message = strings.TrimSpace(string(body))
		return e
	}
	e.Code = r.QuandlError.Code
	e.Message = r.QuandlError.Message
	if len(r.Errors) > 0 {
		e.Errors = r.Errors
	}
	return e
}

// TransportErrorKind distinguishes the reasons a response was not received.
type TransportErrorKind uint8

const (
	Connection TransportErrorKind = iota // the request could not be completed
	Timeout                              // a deadline was exceeded
	Canceled                             // the context was canceled
)

func (k TransportErrorKind) String() string {
	switch k {
	case Connection:
		return "connection"
	case Timeout:
		return "timeout"
	case Canceled:
		return "canceled"
	}
	return fmt.Sprintf("<undefined transport error kind %d>", uint8(k))
}

// TransportError means that no response was received from the server.
type TransportError struct {
	Kind TransportErrorKind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error (%s): %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NewTransportError classifies err as a TransportError. The context errors and
// timeouts of the network stack are recognized; anything else is a Connection
// error.
func NewTransportError(err error) *TransportError {
	return &TransportError{Kind: transportErrorKind(err), Err: err}
}

func transportErrorKind(err error) TransportErrorKind {
	if errors.Is(err, context.Canceled) {
		return Canceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}
	// Includes *url.Error.
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return Timeout
	}
	return Connection
}

// DecodeError means that a successful response could not be decoded.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ErrorKind is a coarse classification of any error returned by this module,
// e.g. for metrics labels and reports.
type ErrorKind uint8

const (
	KindNone ErrorKind = iota
	KindAPI
	KindTimeout
	KindConnection
	KindCanceled
	KindDecode
	KindInvalid // the request could not be built
	KindUnknown
)

var errorKindNames = map[ErrorKind]string{
	KindNone:       "ok",
	KindAPI:        "api",
	KindTimeout:    "timeout",
	KindConnection: "connection",
	KindCanceled:   "canceled",
	KindDecode:     "decode",
	KindInvalid:    "invalid",
	KindUnknown:    "unknown",
}

func (k ErrorKind) String() string {
	if s, ok := errorKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("<undefined error kind %d>", uint8(k))
}

// Classify maps an error to its ErrorKind. Nil error is KindNone. The errors
// of this module are recognized when wrapped by other errors, too.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return KindAPI
	}
	var tErr *TransportError
	if errors.As(err, &tErr) {
		switch tErr.Kind {
		case Timeout:
			return KindTimeout
		case Canceled:
			return KindCanceled
		}
		return KindConnection
	}
	// Before the query errors: a date in a response may fail to decode.
	var dErr *DecodeError
	if errors.As(err, &dErr) {
		return KindDecode
	}
	var rErr *query.InvalidResourceError
	var dateErr *query.InvalidDateError
	var vErr *query.InvalidValueError
	if errors.As(err, &rErr) || errors.As(err, &dateErr) || errors.As(err, &vErr) {
		return KindInvalid
	}
	return KindUnknown
}
