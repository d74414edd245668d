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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

// silenced mutes both hooks, e.g. while migrations run.
var silenced atomic.Bool

func SilenceQueryHooks(b bool) { silenced.Store(b) }

var operationColors = map[string]*color.Color{
	"SELECT": color.New(color.FgGreen),
	"INSERT": color.New(color.FgBlue),
	"UPDATE": color.New(color.FgYellow),
	"DELETE": color.New(color.FgMagenta),
}

var defaultOperationColor = color.New(color.FgRed)

// QueryHook prints every query with its duration, colored by operation.
// When the env variable is set it overrides the options: "0" or "" disables,
// "2" also prints successful queries.
type QueryHook struct {
	envName string
	enabled bool
	verbose bool
	writer  io.Writer
}

type QueryHookOption func(*QueryHook)

func WithEnabled(on bool) QueryHookOption { return func(h *QueryHook) { h.enabled = on } }

func WithVerbose(on bool) QueryHookOption { return func(h *QueryHook) { h.verbose = on } }

func WithEnv(name string) QueryHookOption { return func(h *QueryHook) { h.envName = name } }

func WithWriter(w io.Writer) QueryHookOption { return func(h *QueryHook) { h.writer = w } }

func NewQueryHook(opts ...QueryHookOption) *QueryHook {
	h := &QueryHook{enabled: true, writer: os.Stdout}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

var _ bun.QueryHook = (*QueryHook)(nil)

func (h *QueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	if silenced.Load() {
		return
	}
	enabled, verbose := h.enabled, h.verbose
	if h.envName != "" {
		if env, ok := os.LookupEnv(h.envName); ok {
			enabled = env != "" && env != "0"
			verbose = env == "2"
		}
	}
	if !enabled {
		return
	}
	if !verbose {
		switch {
		case event.Err == nil, errors.Is(event.Err, sql.ErrNoRows), errors.Is(event.Err, sql.ErrTxDone):
			return
		}
	}

	now := time.Now()
	args := []interface{}{
		now.Format("2006-01-02 15:04:05.000"),
		color.CyanString("%10s", "[BUN]"),
		fmt.Sprintf("%12s", now.Sub(event.StartTime).Round(time.Microsecond)),
		colorize(event),
	}
	if event.Err != nil {
		typ := reflect.TypeOf(event.Err).String()
		args = append(args, color.New(color.BgRed).Sprintf(" %s: %s ", typ, event.Err.Error()))
	}
	_, _ = fmt.Fprintln(h.writer, args...)
}

func colorize(event *bun.QueryEvent) string {
	c, ok := operationColors[event.Operation()]
	if !ok {
		c = defaultOperationColor
	}
	return c.Sprint(event.Query)
}

// SlowQueryHook reports successful queries slower than the threshold.
type SlowQueryHook struct {
	threshold time.Duration
	logger    Logger
}

func NewSlowQueryHook(threshold time.Duration, logger Logger) *SlowQueryHook {
	return &SlowQueryHook{threshold: threshold, logger: logger}
}

func (h *SlowQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *SlowQueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	if silenced.Load() || event.Err != nil || h.logger == nil {
		return
	}
	if d := time.Since(event.StartTime); d > h.threshold {
		h.logger.Warn("slow query detected",
			"duration", d.Round(time.Microsecond).String(),
			"threshold", h.threshold.String(),
			"query", event.Query,
		)
	}
}
