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

// Package batch executes many NDL requests concurrently.
//
// An Executor runs a slice of query.Spec through an ndl.Transport with a
// bounded number of workers, and yields one Outcome per spec, tagged with the
// index of the spec in the input slice. A failure of one request never affects
// the others: it is reported in the Outcome of that request only.
//
//	e, err := batch.New(client, batch.ByKind(decoders), batch.Config{
//		MaxConcurrency: 8,
//		Ordering:       batch.CompletionOrder,
//	})
//	...
//	outcomes := e.Run(ctx, specs)
//	defer outcomes.Close()
//	for o, ok := outcomes.Next(); ok; o, ok = outcomes.Next() {
//		if !o.OK() {
//			logging.Warningf(ctx, "%s failed: %s", o.Spec, o.Err)
//			continue
//		}
//		...
//	}
//
// The outcomes are produced lazily: requests are dispatched in the order of
// the input slice as workers become available, regardless of how fast the
// outcomes are consumed.
package batch
