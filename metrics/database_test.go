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

package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/curriculum/database"
	"github.com/tomoncle/curriculum/metrics"
)

type fixedStats struct{ stats database.DBStats }

func (f *fixedStats) GetStats() *database.DBStats { return &f.stats }

func TestRegisterDBStats(t *testing.T) {
	reg := prometheus.NewRegistry()
	src := &fixedStats{stats: database.DBStats{OpenConns: 3, InUse: 1, Idle: 2}}
	require.NoError(t, metrics.RegisterDBStats(reg, src))

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	src.stats.InUse = 2
	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, f := range families {
		values[f.GetName()] = f.GetMetric()[0].GetGauge().GetValue()
	}
	assert.Equal(t, 3.0, values["curriculum_db_open_connections"])
	assert.Equal(t, 2.0, values["curriculum_db_in_use_connections"])

	assert.Error(t, metrics.RegisterDBStats(reg, src), "duplicate registration")
}
