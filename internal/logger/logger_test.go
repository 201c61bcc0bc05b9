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
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mulatta/agentfs/cfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogFileWritesToConfiguredFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentfs.log")

	require.NoError(t, InitLogFile(cfg.LoggingConfig{
		FilePath: cfg.ResolvedPath(path),
		Format:   "json",
		Severity: "INFO",
	}))
	defer Close()

	Infof("mounted at %s", "/mnt/agentfs")

	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "INFO", entry["severity"])
	assert.Equal(t, "mounted at /mnt/agentfs", entry["message"])
	assert.Contains(t, entry, "timestamp")
}

func TestInitLogFileBelowSeverityThresholdIsSuppressed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentfs.log")

	require.NoError(t, InitLogFile(cfg.LoggingConfig{
		FilePath: cfg.ResolvedPath(path),
		Format:   "json",
		Severity: "ERROR",
	}))
	defer Close()

	Infof("should not appear")
	Errorf("should appear")

	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "should not appear")
	assert.Contains(t, string(data), "should appear")
}

func TestSetLogFormatSwitchesToText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentfs.log")

	require.NoError(t, InitLogFile(cfg.LoggingConfig{
		FilePath: cfg.ResolvedPath(path),
		Format:   "json",
		Severity: "INFO",
	}))
	defer Close()

	SetLogFormat("text")
	Infof("hello text")

	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "message=")
	assert.NotContains(t, string(data), `"message"`)
}

func TestReplaceAttrTimestampGroup(t *testing.T) {
	fn := replaceAttr("")
	now := time.Unix(1700000000, 123)
	attr := fn(nil, slog.Time(slog.TimeKey, now))
	assert.Equal(t, "timestamp", attr.Key)
	assert.Equal(t, slog.KindGroup, attr.Value.Kind())
}
