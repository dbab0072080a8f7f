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

package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/iterator"
	"github.com/stockparfait/logging"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/time/rate"

	"github.com/stockparfait/datalink/ndl"
	"github.com/stockparfait/datalink/query"
)

// Ordering of the outcomes yielded by Outcomes.Next.
type Ordering uint8

const (
	OrderingUnset   Ordering = iota
	CompletionOrder          // as soon as each request completes
	SubmissionOrder          // by the index of the spec
)

func (o Ordering) String() string {
	switch o {
	case CompletionOrder:
		return "completion"
	case SubmissionOrder:
		return "submission"
	}
	return fmt.Sprintf("<undefined ordering %d>", uint8(o))
}

// Config of the Executor.
type Config struct {
	// MaxConcurrency is the maximum number of requests in flight. Default:
	// runtime.NumCPU().
	MaxConcurrency int
	// Ordering of the outcomes. Required.
	Ordering Ordering
	// RateLimit is the number of requests per second allowed for each API key.
	// Requests without their own key share the client's default key. 0 means
	// no limit.
	RateLimit rate.Limit
	// Burst of the rate limiter. Default: 1.
	Burst int
}

// DecodeFunc converts the raw payload of a successful request into T.
type DecodeFunc[T any] func(spec query.Spec, body []byte) (T, error)

// ByKind creates a DecodeFunc dispatching on the kind of the spec. A kind
// without a decoder results in *ndl.DecodeError.
func ByKind[T any](decoders map[query.Kind]ndl.Decoder[T]) DecodeFunc[T] {
	return func(spec query.Spec, body []byte) (T, error) {
		dec, ok := decoders[spec.Kind()]
		if !ok {
			var zero T
			return zero, &ndl.DecodeError{
				Err: errors.Reason("no decoder for kind %s", spec.Kind())}
		}
		return dec(body)
	}
}

// Outcome of a single request in a batch.
type Outcome[T any] struct {
	Index int        // index of the spec in the input slice
	Spec  query.Spec // the spec of the request
	Value T          // the decoded value, when Err is nil
	Err   error      // *ndl.APIError, *ndl.TransportError, *ndl.DecodeError or other
}

// OK is true for a successful outcome.
func (o Outcome[T]) OK() bool { return o.Err == nil }

// Executor runs batches of requests. It is safe for concurrent use, and the
// rate limiters are shared by all of its batches.
type Executor[T any] struct {
	transport ndl.Transport
	decode    DecodeFunc[T]
	config    Config

	mu       sync.Mutex
	limiters map[string]*rate.Limiter // by API key
}

// New creates an Executor. The Ordering must be set explicitly.
func New[T any](t ndl.Transport, decode DecodeFunc[T], c Config) (*Executor[T], error) {
	if t == nil {
		return nil, errors.Reason("transport is required")
	}
	if decode == nil {
		return nil, errors.Reason("decode function is required")
	}
	switch c.Ordering {
	case CompletionOrder, SubmissionOrder:
	case OrderingUnset:
		return nil, errors.Reason("ordering must be set explicitly")
	default:
		return nil, errors.Reason("unsupported ordering: %s", c.Ordering)
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = runtime.NumCPU()
	}
	if c.RateLimit < 0 {
		return nil, errors.Reason("rate limit %g must be >= 0", float64(c.RateLimit))
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	return &Executor[T]{
		transport: t,
		decode:    decode,
		config:    c,
		limiters:  make(map[string]*rate.Limiter),
	}, nil
}

// Config returns the effective configuration, with the defaults filled in.
func (e *Executor[T]) Config() Config { return e.config }

func (e *Executor[T]) limiter(key string) *rate.Limiter {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.limiters[key]
	if !ok {
		l = rate.NewLimiter(e.config.RateLimit, e.config.Burst)
		e.limiters[key] = l
	}
	return l
}

type job struct {
	index int
	spec  query.Spec
}

// queue is the source of jobs shared by the workers.
type queue struct {
	mu sync.Mutex
	it iterator.Iterator[job]
}

func (q *queue) next() (job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.it.Next()
}

// Run starts executing specs and returns the iterator over their outcomes.
// Exactly one Outcome is produced for each spec, unless the batch is stopped
// early by Outcomes.Close. Cancelling ctx does not stop the batch: the
// remaining requests fail quickly with a Canceled or Timeout TransportError.
func (e *Executor[T]) Run(ctx context.Context, specs []query.Spec) *Outcomes[T] {
	jobs := make([]job, len(specs))
	for i, s := range specs {
		jobs[i] = job{index: i, spec: s}
	}
	workers := e.config.MaxConcurrency
	if workers > len(specs) {
		workers = len(specs)
	}
	// Waiting for the rate limiter is interrupted by Close, unlike the requests.
	waitCtx, cancelWait := context.WithCancel(ctx)
	o := &Outcomes[T]{
		ordering:   e.config.Ordering,
		cancelWait: cancelWait,
		ch:       make(chan Outcome[T], len(specs)),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		pending:  make(map[int]Outcome[T]),
	}
	q := &queue{it: iterator.FromSlice(jobs)}
	logging.Infof(ctx, "starting a batch of %d requests with %d workers",
		len(specs), workers)
	start := time.Now()
	var wg sync.WaitGroup
	var failed int64
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-o.stop:
					return
				default:
				}
				j, ok := q.next()
				if !ok {
					return
				}
				res, ok := e.execute(ctx, waitCtx, o.stop, j)
				if !ok {
					return
				}
				if !res.OK() {
					atomic.AddInt64(&failed, 1)
				}
				o.ch <- res
			}
		}()
	}
	go func() {
		wg.Wait()
		cancelWait()
		close(o.ch)
		close(o.done)
		logging.Infof(ctx, "batch of %d requests finished in %s with %d failures",
			len(specs), time.Since(start), atomic.LoadInt64(&failed))
	}()
	return o
}

func stopped(stop <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}

// execute runs a single job. It never panics: a panic in the transport or the
// decoder becomes the error of the outcome. When the batch is stopped before
// the request is sent, the job is dropped and ok is false.
func (e *Executor[T]) execute(ctx, waitCtx context.Context, stop <-chan struct{}, j job) (res Outcome[T], ok bool) {
	res = Outcome[T]{Index: j.index, Spec: j.spec}
	ok = true
	defer func() {
		if r := recover(); r != nil {
			res.Err = errors.Reason("panic in request %d: %v", j.index, r)
		}
		if !ok {
			logging.Debugf(ctx, "[%d] %s: dropped", j.index, j.spec)
			return
		}
		outcomesTotal.WithLabelValues(ndl.Classify(res.Err).String()).Inc()
		if res.Err != nil {
			logging.Debugf(ctx, "[%d] %s: %s", j.index, j.spec, res.Err)
		} else {
			logging.Debugf(ctx, "[%d] %s: OK", j.index, j.spec)
		}
	}()

	if err := ctx.Err(); err != nil {
		res.Err = ndl.NewTransportError(err)
		return
	}
	if e.config.RateLimit > 0 {
		if err := e.limiter(j.spec.APIKey()).Wait(waitCtx); err != nil {
			if stopped(stop) {
				ok = false
				return
			}
			if cerr := ctx.Err(); cerr != nil {
				res.Err = ndl.NewTransportError(cerr)
			} else {
				// The wait would exceed the deadline of ctx.
				res.Err = &ndl.TransportError{Kind: ndl.Timeout, Err: err}
			}
			return
		}
	}
	if stopped(stop) {
		ok = false
		return
	}
	body, err := func() ([]byte, error) {
		inflight.Inc()
		defer inflight.Dec()
		return e.transport.Fetch(ctx, j.spec)
	}()
	if err != nil {
		res.Err = err
		return
	}
	v, err := e.decode(j.spec, body)
	if err != nil {
		if _, ok := err.(*ndl.DecodeError); !ok {
			err = &ndl.DecodeError{Err: err}
		}
		res.Err = err
		return
	}
	res.Value = v
	return
}

// Outcomes is the iterator over the outcomes of a batch. It must be consumed
// from a single goroutine.
type Outcomes[T any] struct {
	ordering   Ordering
	ch         chan Outcome[T]
	stop       chan struct{}
	stopOnce   sync.Once
	cancelWait context.CancelFunc
	done       chan struct{}

	// For SubmissionOrder only.
	pending map[int]Outcome[T]
	next    int
	drained bool
}

var _ iterator.Iterator[Outcome[int]] = &Outcomes[int]{}

// Next returns the next outcome, or false when there are no more outcomes.
func (o *Outcomes[T]) Next() (Outcome[T], bool) {
	if o.ordering == CompletionOrder {
		res, ok := <-o.ch
		return res, ok
	}
	for {
		if res, ok := o.pending[o.next]; ok {
			delete(o.pending, o.next)
			o.next++
			return res, true
		}
		if o.drained {
			// Indices may be missing after Close.
			if len(o.pending) == 0 {
				return Outcome[T]{}, false
			}
			keys := maps.Keys(o.pending)
			slices.Sort(keys)
			o.next = keys[0]
			continue
		}
		res, ok := <-o.ch
		if !ok {
			o.drained = true
			continue
		}
		o.pending[res.Index] = res
	}
}

// Close stops dispatching new requests. The requests already in flight are
// completed, and their outcomes are still returned by Next. Requests waiting
// for the rate limiter are dropped without being sent. It does not block and
// is safe to call multiple times and from any goroutine.
func (o *Outcomes[T]) Close() {
	o.stopOnce.Do(func() {
		close(o.stop)
		o.cancelWait()
	})
}

// Wait blocks until all the workers exit.
func (o *Outcomes[T]) Wait() {
	<-o.done
}

// Collect drains the iterator into a slice.
func Collect[T any](it iterator.Iterator[Outcome[T]]) []Outcome[T] {
	return iterator.Reduce[Outcome[T], []Outcome[T]](it, []Outcome[T]{}, func(o Outcome[T], res []Outcome[T]) []Outcome[T] {
		return append(res, o)
	})
}

// SortByIndex sorts the outcomes in place by their Index.
func SortByIndex[T any](outcomes []Outcome[T]) {
	slices.SortFunc(outcomes, func(a, b Outcome[T]) bool { return a.Index < b.Index })
}

// Split the outcomes into successes and failures, preserving their order.
func Split[T any](outcomes []Outcome[T]) (ok, failed []Outcome[T]) {
	for _, o := range outcomes {
		if o.OK() {
			ok = append(ok, o)
		} else {
			failed = append(failed, o)
		}
	}
	return
}

// RunAll runs the batch to completion and returns all the outcomes sorted by
// Index.
func (e *Executor[T]) RunAll(ctx context.Context, specs []query.Spec) []Outcome[T] {
	o := e.Run(ctx, specs)
	defer o.Close()
	res := Collect[T](o)
	SortByIndex(res)
	return res
}
