/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	NameHTTPRequests        = "http_requests_total"
	NameHTTPRequestDuration = "http_request_duration_seconds"
	LabelMethod             = "method"
	LabelRoute              = "route"
	LabelStatus             = "status"
)

var HTTPRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameHTTPRequests,
		Help:      "Handled HTTP requests",
		Namespace: Namespace,
	},
	[]string{LabelMethod, LabelRoute, LabelStatus},
)

var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:      NameHTTPRequestDuration,
		Help:      "HTTP request latency",
		Namespace: Namespace,
		Buckets:   prometheus.DefBuckets,
	},
	[]string{LabelMethod, LabelRoute},
)
