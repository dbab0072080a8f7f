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
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"

	"github.com/stockparfait/datalink/query"
)

type contextKey int

const (
	clientContextKey contextKey = iota
)

// URL is the default base URL of the server.
const URL = "https://data.nasdaq.com/api/v3"

// DefaultTimeout of a single request, when Options.Timeout is not set.
const DefaultTimeout = 30 * time.Second

// Transport executes a single request and returns the raw payload of a
// successful response. Failures must be one of *APIError, *TransportError or
// *DecodeError. Implementations must be safe for concurrent use.
type Transport interface {
	Fetch(ctx context.Context, spec query.Spec) ([]byte, error)
}

// Decoder converts a raw successful payload into a typed value.
type Decoder[T any] func(body []byte) (T, error)

// Send fetches spec through t and decodes the result. A decoding failure is
// returned as *DecodeError; transport failures are returned as is. There are
// no retries.
func Send[T any](ctx context.Context, t Transport, spec query.Spec, decode Decoder[T]) (T, error) {
	var zero T
	body, err := t.Fetch(ctx, spec)
	if err != nil {
		return zero, err
	}
	v, err := decode(body)
	if err != nil {
		decodeErrors.Inc()
		if derr, ok := err.(*DecodeError); ok {
			return zero, derr
		}
		return zero, &DecodeError{Err: err}
	}
	return v, nil
}

// Options for creating a Client. The zero value is valid and uses the
// defaults.
type Options struct {
	BaseURL    string        // default: URL
	APIKey     string        // default key, can be overridden per request
	HTTPClient *http.Client  // default: a new client with Timeout
	Timeout    time.Duration // default: DefaultTimeout; ignored with HTTPClient
	UserAgent  string        // optional User-Agent header
}

// Client is the HTTP Transport for NDL. It is immutable after creation and is
// safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	userAgent  string
}

var _ Transport = &Client{}

// NewClient creates a new Client.
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		httpClient: opts.HTTPClient,
		userAgent:  opts.UserAgent,
	}
	if c.baseURL == "" {
		c.baseURL = URL
	}
	if c.httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.httpClient = &http.Client{Timeout: timeout}
	}
	return c
}

// GetClient extracts the Client from the context, if any.
func GetClient(ctx context.Context) *Client {
	c, ok := ctx.Value(clientContextKey).(*Client)
	if !ok {
		return nil
	}
	return c
}

// UseClient injects the Client into the context.
func UseClient(ctx context.Context, c *Client) context.Context {
	return context.WithValue(ctx, clientContextKey, c)
}

// BaseURL the client sends requests to.
func (c *Client) BaseURL() string { return c.baseURL }

// URL of the request for spec, including the API key if any. Treat the result
// as a secret.
func (c *Client) URL(spec query.Spec) string {
	v := spec.Values()
	key := spec.APIKey()
	if key == "" {
		key = c.apiKey
	}
	if key != "" {
		v.Set("api_key", key)
	}
	u := c.baseURL + spec.Path()
	if len(v) > 0 {
		u += "?" + v.Encode()
	}
	return u
}

// Fetch implements Transport.
func (c *Client) Fetch(ctx context.Context, spec query.Spec) ([]byte, error) {
	if spec.IsZero() {
		return nil, errors.Reason("Fetch: the request spec was not built")
	}
	kind := spec.Kind().String()
	start := time.Now()
	body, status, err := c.get(ctx, spec)
	requestDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		terr := NewTransportError(err)
		requestsTotal.WithLabelValues(kind, terr.Kind.String()).Inc()
		errorsTotal.WithLabelValues(Classify(terr).String()).Inc()
		logging.Debugf(ctx, "%s: %s", spec, terr)
		return nil, terr
	}
	requestsTotal.WithLabelValues(kind, strconv.Itoa(status)).Inc()
	if status < 200 || status > 299 {
		aerr := parseAPIError(status, body)
		errorsTotal.WithLabelValues(KindAPI.String()).Inc()
		logging.Debugf(ctx, "%s: %s", spec, aerr)
		return nil, aerr
	}
	logging.Debugf(ctx, "%s: status %d, %d bytes in %s",
		spec, status, len(body), time.Since(start))
	return body, nil
}

// get executes the HTTP request and reads the whole body regardless of the
// status.
func (c *Client) get(ctx context.Context, spec query.Spec) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(spec), nil)
	if err != nil {
		return nil, 0, redact(err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, redact(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, redact(err)
	}
	return body, resp.StatusCode, nil
}

// redact removes the query, which contains the API key, from the URL of a
// *url.Error.
func redact(err error) error {
	uerr, ok := err.(*url.Error)
	if !ok {
		return err
	}
	if i := strings.Index(uerr.URL, "?"); i >= 0 {
		return &url.Error{Op: uerr.Op, URL: uerr.URL[:i], Err: uerr.Err}
	}
	return err
}
