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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

type PathFormat int

const (
	PathFormatTruncatedRelative PathFormat = iota
	PathFormatFilenameOnly
	PathFormatShortRelative
	PathFormatFullRelative
)

var (
	faint   = color.New(color.Faint).SprintFunc()
	cyan    = color.New(color.FgCyan).SprintFunc()
	magenta = color.New(color.FgMagenta).SprintFunc()
)

var levelColors = map[logrus.Level]*color.Color{
	logrus.PanicLevel: color.New(color.FgRed, color.Bold),
	logrus.FatalLevel: color.New(color.FgRed, color.Bold),
	logrus.ErrorLevel: color.New(color.FgRed),
	logrus.WarnLevel:  color.New(color.FgYellow),
	logrus.InfoLevel:  color.New(color.FgGreen),
	logrus.DebugLevel: color.New(color.FgBlue),
	logrus.TraceLevel: color.New(color.FgMagenta),
}

// Log4jColorFormatter renders "time LEVEL pid --- [main] name caller : message".
type Log4jColorFormatter struct {
	LoggerName      string
	TimestampFormat string
	PathFmt         PathFormat
	ColorCaller     bool
	NameWidth       int
	CallerWidth     int
}

func (f *Log4jColorFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	ts := entry.Time.Format(orDefault(f.TimestampFormat))
	lvl := fmt.Sprintf("%7s", strings.ToUpper(entry.Level.String()))
	if c, ok := levelColors[entry.Level]; ok && f.ColorCaller {
		lvl = c.Sprint(lvl)
	}
	name := fmt.Sprintf("%*s", f.NameWidth, limitRunes(f.LoggerName, f.NameWidth))
	pid := fmt.Sprintf("%-6d", os.Getpid())
	caller := callerString(entry.Caller, f.PathFmt, f.CallerWidth)
	if f.CallerWidth > 0 {
		caller = fmt.Sprintf("%*s", f.CallerWidth, caller)
	}
	if f.ColorCaller {
		name, pid, caller = cyan(name), magenta(pid), faint(caller)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s --- [main] %s %s : %s", ts, lvl, pid, name, caller, entry.Message)
	for _, k := range sortedKeys(entry.Data) {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// JSONLogFormatter writes one JSON object per entry. The HTTP access log
// fields are promoted to top-level keys.
type JSONLogFormatter struct {
	LoggerName      string
	TimestampFormat string
	PathFmt         PathFormat
}

type jsonLogRecord struct {
	Time        string                 `json:"time"`
	Level       string                 `json:"level"`
	Logger      string                 `json:"logger"`
	Caller      string                 `json:"caller,omitempty"`
	Message     string                 `json:"message"`
	RequestID   string                 `json:"request_id,omitempty"`
	ClientIP    string                 `json:"client_ip,omitempty"`
	Method      string                 `json:"method,omitempty"`
	Path        string                 `json:"path,omitempty"`
	StatusCode  int                    `json:"status_code,omitempty"`
	LatencyTime string                 `json:"latency_time,omitempty"`
	Fields      map[string]interface{} `json:"fields,omitempty"`
}

func (f *JSONLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	rec := jsonLogRecord{
		Time:    entry.Time.Format(orDefault(f.TimestampFormat)),
		Level:   entry.Level.String(),
		Logger:  f.LoggerName,
		Caller:  callerString(entry.Caller, f.PathFmt, 0),
		Message: entry.Message,
	}
	promoted := map[string]*string{
		"request_id":   &rec.RequestID,
		"client_ip":    &rec.ClientIP,
		"req_method":   &rec.Method,
		"req_uri":      &rec.Path,
		"latency_time": &rec.LatencyTime,
	}
	extra := make(map[string]interface{})
	for k, v := range entry.Data {
		if dst, ok := promoted[k]; ok {
			if s, isString := v.(string); isString && s != "" {
				*dst = s
				continue
			}
		}
		if k == "status_code" {
			if n, ok := v.(int); ok {
				rec.StatusCode = n
				continue
			}
		}
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		extra[k] = v
	}
	if len(extra) > 0 {
		rec.Fields = extra
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func orDefault(format string) string {
	if format == "" {
		return defaultTimestampFormat
	}
	return format
}

func callerString(frame *runtime.Frame, pathFmt PathFormat, width int) string {
	if frame == nil {
		return ""
	}
	rel := moduleRelative(filepath.ToSlash(frame.File))
	switch pathFmt {
	case PathFormatFilenameOnly:
		rel = filepath.Base(rel)
	case PathFormatShortRelative:
		if parts := strings.Split(rel, "/"); len(parts) >= 2 {
			rel = strings.Join(parts[len(parts)-2:], "/")
		}
	case PathFormatTruncatedRelative:
		line := fmt.Sprintf(":%d", frame.Line)
		if width > 0 {
			return compactPath(rel, width-len(line)) + line
		}
	}
	return fmt.Sprintf("%s:%d", rel, frame.Line)
}

// compactPath joins the directories with dots and shortens them to their
// first letter until the result fits in max runes.
func compactPath(p string, max int) string {
	if max <= 0 {
		return ""
	}
	parts := strings.Split(p, "/")
	out := strings.Join(parts, ".")
	for i := 0; i < len(parts)-1 && len([]rune(out)) > max; i++ {
		if r := []rune(parts[i]); len(r) > 0 {
			parts[i] = string(r[0])
		}
		out = strings.Join(parts, ".")
	}
	if r := []rune(out); len(r) > max {
		return string(r[len(r)-max:])
	}
	return out
}

var (
	moduleRootOnce sync.Once
	moduleRoot     string
)

func moduleRelative(p string) string {
	moduleRootOnce.Do(func() { moduleRoot = findModuleRootFrom(p) })
	if moduleRoot != "" && strings.HasPrefix(p, moduleRoot+"/") {
		return strings.TrimPrefix(p, moduleRoot+"/")
	}
	return p
}

func findModuleRootFrom(p string) string {
	dir := filepath.Dir(p)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.ToSlash(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func limitRunes(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n])
}

func sortedKeys(m logrus.Fields) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

