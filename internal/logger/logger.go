// Copyright 2024 The AgentFS Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mulatta/agentfs/cfg"
	"gopkg.in/natefinch/lumberjack.v2"
)

// loggerFactory owns the sink (rotating file or stderr), the configured
// format, and the shared level var that every handler built from it
// checks on each call — so SetLogFormat and changing severity at
// runtime never require tearing down the async writer underneath.
type loggerFactory struct {
	file        *os.File
	asyncWriter *AsyncLogger
	sysWriter   io.Writer

	format string
	level  *slog.LevelVar
}

func (f *loggerFactory) writer() io.Writer {
	if f.asyncWriter != nil {
		return f.asyncWriter
	}
	if f.sysWriter != nil {
		return f.sysWriter
	}
	return os.Stderr
}

func (f *loggerFactory) createJsonOrTextHandler(w io.Writer, level *slog.LevelVar, prefix string) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr(prefix),
	}
	if f.format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func replaceAttr(prefix string) func([]string, slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) > 0 {
			return a
		}
		switch a.Key {
		case slog.LevelKey:
			lvl, _ := a.Value.Any().(slog.Level)
			return slog.Attr{Key: "severity", Value: slog.StringValue(severityName(lvl))}
		case slog.MessageKey:
			msg := a.Value.String()
			if prefix != "" {
				msg = prefix + msg
			}
			return slog.Attr{Key: "message", Value: slog.StringValue(msg)}
		case slog.TimeKey:
			t := a.Value.Time()
			return slog.Attr{Key: "timestamp", Value: slog.GroupValue(
				slog.Int64("seconds", t.Unix()),
				slog.Int64("nanos", int64(t.Nanosecond())),
			)}
		}
		return a
	}
}

var (
	defaultLoggerFactory = &loggerFactory{format: "json", level: new(slog.LevelVar)}
	defaultLogger        = slog.New(defaultLoggerFactory.createJsonOrTextHandler(os.Stderr, defaultLoggerFactory.level, ""))
)

// InitLogFile points the package-level logger at cfg's configured sink:
// a lumberjack-rotated file wrapped in an AsyncLogger when FilePath is
// set, stderr otherwise. It reconfigures format and severity too.
func InitLogFile(c cfg.LoggingConfig) error {
	factory := &loggerFactory{format: c.Format, level: new(slog.LevelVar)}
	setLoggingLevel(string(c.Severity), factory.level)

	if string(c.FilePath) != "" {
		lj := &lumberjack.Logger{
			Filename:   string(c.FilePath),
			MaxSize:    c.MaxSizeMB,
			MaxBackups: c.MaxBackups,
			Compress:   true,
		}
		factory.asyncWriter = NewAsyncLogger(lj, 1000)
	}

	defaultLoggerFactory = factory
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(defaultLoggerFactory.writer(), defaultLoggerFactory.level, ""))
	return nil
}

// SetLogFormat switches between "text" and "json" output, rebuilding
// the handler over the same sink and level.
func SetLogFormat(format string) {
	if format == "" {
		format = "json"
	}
	defaultLoggerFactory.format = format
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(defaultLoggerFactory.writer(), defaultLoggerFactory.level, ""))
}

// Close flushes and closes the underlying sink, if one was opened by
// InitLogFile.
func Close() error {
	if defaultLoggerFactory.asyncWriter != nil {
		return defaultLoggerFactory.asyncWriter.Close()
	}
	return nil
}

func log(level slog.Level, format string, v ...any) {
	defaultLogger.Log(context.Background(), level, fmt.Sprintf(format, v...))
}

func Tracef(format string, v ...any) { log(LevelTrace, format, v...) }
func Debugf(format string, v ...any) { log(LevelDebug, format, v...) }
func Infof(format string, v ...any)  { log(LevelInfo, format, v...) }
func Warnf(format string, v ...any)  { log(LevelWarn, format, v...) }
func Errorf(format string, v ...any) { log(LevelError, format, v...) }
