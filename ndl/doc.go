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

// Package ndl executes requests described by query.Spec against the time-series
// API of Nasdaq Data Link (NDL), formerly known as Quandl API v3.
//
// Official documentation is at https://docs.data.nasdaq.com/docs/time-series .
//
// Requests go through a Transport, which returns the raw response payload of a
// successful request. Client is the HTTP implementation; tests and batch
// executors may substitute their own. Send combines a Transport with a Decoder
// to produce a typed result:
//
//	c := ndl.NewClient(ndl.Options{APIKey: key})
//	spec, err := query.NewMetadataQuery("WIKI", "AAPL").Build()
//	...
//	m, err := ndl.Send(ctx, c, spec, ndl.DecodeDatasetMetadata)
//
// Failures are reported as *APIError (the server responded with an error),
// *TransportError (no response was received) or *DecodeError (the response
// could not be decoded). These are returned without annotation, so the callers
// can type-switch on them or use Classify.
package ndl
