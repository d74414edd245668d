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
	NameRecordMutations = "record_mutations_total"
	NameUploads         = "uploads_total"
	NameUploadBytes     = "upload_bytes_total"
	LabelBackend        = "backend"
)

// RecordMutations counts create, update, remove and restore calls on the
// record store.
var RecordMutations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameRecordMutations,
		Help:      "Record store mutations",
		Namespace: Namespace,
	},
	[]string{LabelResource, LabelOperation, LabelOutcome},
)

var Uploads = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameUploads,
		Help:      "File uploads",
		Namespace: Namespace,
	},
	[]string{LabelBackend, LabelOutcome},
)

var UploadBytes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameUploadBytes,
		Help:      "Bytes accepted by file uploads",
		Namespace: Namespace,
	},
	[]string{LabelBackend},
)
