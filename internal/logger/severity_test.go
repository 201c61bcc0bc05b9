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
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFromSeverity(t *testing.T) {
	cases := map[string]slog.Level{
		"TRACE":   LevelTrace,
		"DEBUG":   LevelDebug,
		"INFO":    LevelInfo,
		"WARNING": LevelWarn,
		"ERROR":   LevelError,
		"OFF":     LevelOff,
		"":        LevelInfo,
		"bogus":   LevelInfo,
	}
	for severity, want := range cases {
		assert.Equal(t, want, levelFromSeverity(severity), "severity %q", severity)
	}
}

func TestSeverityNameKnownAndUnknown(t *testing.T) {
	assert.Equal(t, "TRACE", severityName(LevelTrace))
	assert.Equal(t, "WARNING", severityName(LevelWarn))
	assert.Equal(t, slog.Level(3).String(), severityName(3))
}

func TestSetLoggingLevel(t *testing.T) {
	var v slog.LevelVar
	setLoggingLevel("ERROR", &v)
	assert.Equal(t, LevelError, v.Level())

	setLoggingLevel("OFF", &v)
	assert.Equal(t, LevelOff, v.Level())
}
