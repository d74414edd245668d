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

package utils

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// rollingFileHook writes every entry to <dir>/<yyyy-mm-dd>/<level>.log and
// prunes day directories older than maxAgeDays when the day changes.
type rollingFileHook struct {
	dir        string
	maxAgeDays int
	formatter  logrus.Formatter
	now        func() time.Time

	mu      sync.Mutex
	curDate string
	files   map[logrus.Level]*os.File
}

func newRollingFileHook(dir string, maxAgeDays int, formatter logrus.Formatter) *rollingFileHook {
	if dir == "" {
		dir = "logs"
	}
	return &rollingFileHook{
		dir:        dir,
		maxAgeDays: maxAgeDays,
		formatter:  formatter,
		now:        time.Now,
		files:      map[logrus.Level]*os.File{},
	}
}

func (h *rollingFileHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *rollingFileHook) Fire(e *logrus.Entry) error {
	b, err := h.formatter.Format(e)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	f, err := h.fileFor(e.Level)
	if err != nil {
		return err
	}
	_, err = f.Write(b)
	return err
}

func (h *rollingFileHook) fileFor(level logrus.Level) (*os.File, error) {
	date := h.now().Format("2006-01-02")
	if date != h.curDate {
		for lvl, f := range h.files {
			_ = f.Close()
			delete(h.files, lvl)
		}
		h.curDate = date
		h.prune()
	}
	if f, ok := h.files[level]; ok {
		return f, nil
	}
	dayDir := filepath.Join(h.dir, date)
	if err := os.MkdirAll(dayDir, 0o755); err != nil {
		return nil, err
	}
	name := level.String()
	if level <= logrus.ErrorLevel {
		name = "error"
	}
	f, err := os.OpenFile(filepath.Join(dayDir, name+".log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	h.files[level] = f
	return f, nil
}

func (h *rollingFileHook) prune() {
	if h.maxAgeDays <= 0 {
		return
	}
	cutoff := h.now().AddDate(0, 0, -h.maxAgeDays)
	entries, err := os.ReadDir(h.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		day, err := time.ParseInLocation("2006-01-02", e.Name(), time.Local)
		if err != nil {
			continue
		}
		if day.Before(cutoff) {
			_ = os.RemoveAll(filepath.Join(h.dir, e.Name()))
		}
	}
}
