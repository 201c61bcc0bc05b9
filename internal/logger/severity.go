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

import "log/slog"

// AgentFS's severity scale is wider than slog's built-in four levels at
// both ends: TRACE below Debug for per-op tracing, and OFF above Error
// so a level var can silence the logger entirely without a separate
// enabled flag.
const (
	LevelTrace slog.Level = -8
	LevelDebug slog.Level = slog.LevelDebug
	LevelInfo  slog.Level = slog.LevelInfo
	LevelWarn  slog.Level = slog.LevelWarn
	LevelError slog.Level = slog.LevelError
	LevelOff   slog.Level = 12
)

var severityNames = map[slog.Level]string{
	LevelTrace: "TRACE",
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARNING",
	LevelError: "ERROR",
}

func severityName(l slog.Level) string {
	if name, ok := severityNames[l]; ok {
		return name
	}
	return l.String()
}

// levelFromSeverity maps one of cfg's severity strings to the slog.Level
// that enables it and everything louder.
func levelFromSeverity(severity string) slog.Level {
	switch severity {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "OFF":
		return LevelOff
	default:
		return LevelInfo
	}
}

// setLoggingLevel updates programLevel in place so every slog.Logger
// sharing it picks up the new threshold without rebuilding a handler.
func setLoggingLevel(severity string, programLevel *slog.LevelVar) {
	programLevel.Set(levelFromSeverity(severity))
}
