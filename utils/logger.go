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
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

type Logger = logrus.Logger

const defaultTimestampFormat = "2006-01-02 15:04:05.000"

// LogOptions controls every logger created through NewLogger, including the
// ones created before ConfigureLogging runs.
type LogOptions struct {
	Level          string `yaml:"level" env:"LEVEL"`
	Format         string `yaml:"format" env:"FORMAT"` // text | json
	FileEnabled    bool   `yaml:"file_enabled" env:"FILE_ENABLED"`
	FileDir        string `yaml:"file_dir" env:"FILE_DIR"`
	FileFormat     string `yaml:"file_format" env:"FILE_FORMAT"`
	FileMaxAgeDays int    `yaml:"file_max_age_days" env:"FILE_MAX_AGE_DAYS"`
}

// DefaultLogOptions reads the CONSOLE_LOG_FORMAT / FILE_LOG_* variables so
// loggers built during package init already honour them.
func DefaultLogOptions() LogOptions {
	return LogOptions{
		Level:          EnvDefaultString("LOG_LEVEL", "info"),
		Format:         EnvDefaultString("CONSOLE_LOG_FORMAT", "text"),
		FileEnabled:    EnvDefaultBool("FILE_LOG_ENABLED", false),
		FileDir:        EnvDefaultString("FILE_LOG_DIR", "logs"),
		FileFormat:     EnvDefaultString("FILE_LOG_FORMAT", "text"),
		FileMaxAgeDays: 7,
	}
}

type registeredLogger struct {
	name     string
	logger   *logrus.Logger
	fileHook bool
}

var (
	optionsMu      sync.RWMutex
	currentOptions = DefaultLogOptions()
)

var (
	loggerRegistryMu sync.Mutex
	loggerRegistry   = map[string]*registeredLogger{}
)

var consoleOutput io.Writer = os.Stdout

// NewLogger returns the logger registered under name, creating it on first use.
func NewLogger(name string) *logrus.Logger {
	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	if rl, ok := loggerRegistry[name]; ok {
		return rl.logger
	}
	l := logrus.New()
	l.SetReportCaller(true)
	rl := &registeredLogger{name: name, logger: l}
	applyOptions(rl, options())
	loggerRegistry[name] = rl
	return l
}

// ConfigureLogging replaces the options and re-applies them to every
// registered logger.
func ConfigureLogging(opts LogOptions) {
	optionsMu.Lock()
	currentOptions = opts
	optionsMu.Unlock()

	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	for _, rl := range loggerRegistry {
		applyOptions(rl, opts)
	}
	logrus.SetLevel(ParseLogLevel(opts.Level))
}

// SetLoggerLevel changes the level of a single registered logger.
func SetLoggerLevel(name string, level string) bool {
	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	rl, ok := loggerRegistry[name]
	if !ok {
		return false
	}
	rl.logger.SetLevel(ParseLogLevel(level))
	return true
}

func options() LogOptions {
	optionsMu.RLock()
	defer optionsMu.RUnlock()
	return currentOptions
}

func applyOptions(rl *registeredLogger, opts LogOptions) {
	rl.logger.SetLevel(ParseLogLevel(opts.Level))
	rl.logger.SetOutput(consoleOutput)
	rl.logger.SetFormatter(newFormatter(rl.name, opts.Format, PathFormatTruncatedRelative, true))
	if opts.FileEnabled && !rl.fileHook {
		rl.logger.AddHook(newRollingFileHook(
			opts.FileDir,
			opts.FileMaxAgeDays,
			newFormatter(rl.name, opts.FileFormat, PathFormatFullRelative, false),
		))
		rl.fileHook = true
	}
}

func newFormatter(name, format string, pathFmt PathFormat, console bool) logrus.Formatter {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return &JSONLogFormatter{LoggerName: name, TimestampFormat: defaultTimestampFormat, PathFmt: pathFmt}
	}
	f := &Log4jColorFormatter{
		LoggerName:      name,
		TimestampFormat: defaultTimestampFormat,
		PathFmt:         pathFmt,
		ColorCaller:     console,
		NameWidth:       10,
	}
	if console {
		f.CallerWidth = 25
	}
	return f
}

func ParseLogLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

func EnvDefaultString(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return def
		}
		return b
	}
	return def
}
