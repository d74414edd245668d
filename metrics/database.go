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
	"github.com/tomoncle/curriculum/database"
)

// DBStatsSource is satisfied by the database factory.
type DBStatsSource interface {
	GetStats() *database.DBStats
}

// RegisterDBStats exposes connection pool gauges read from src on every
// scrape.
func RegisterDBStats(reg prometheus.Registerer, src DBStatsSource) error {
	gauge := func(name, help string, read func(*database.DBStats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "db",
			Name:      name,
			Help:      help,
		}, func() float64 { return read(src.GetStats()) })
	}
	collectors := []prometheus.Collector{
		gauge("open_connections", "Open connections", func(s *database.DBStats) float64 { return float64(s.OpenConns) }),
		gauge("in_use_connections", "Connections in use", func(s *database.DBStats) float64 { return float64(s.InUse) }),
		gauge("idle_connections", "Idle connections", func(s *database.DBStats) float64 { return float64(s.Idle) }),
		gauge("wait_count", "Connections waited for", func(s *database.DBStats) float64 { return float64(s.WaitCount) }),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
