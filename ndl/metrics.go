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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics of the HTTP client, registered in the default registry.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ndl_requests_total",
		Help: "Total NDL requests by kind and HTTP status or transport failure",
	}, []string{"kind", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ndl_request_duration_seconds",
		Help:    "NDL request duration in seconds by kind",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"kind"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ndl_errors_total",
		Help: "Total NDL request failures by class",
	}, []string{"class"})

	decodeErrors = errorsTotal.WithLabelValues(KindDecode.String())
)
