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

package cfg

import (
	"reflect"
	"testing"

	"github.com/mitchellh/mapstructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasTextUnmarshaler(t *testing.T) {
	assert.True(t, hasTextUnmarshaler(reflect.TypeOf(Octal(0))))
	assert.True(t, hasTextUnmarshaler(reflect.TypeOf(LogSeverity(""))))
	assert.True(t, hasTextUnmarshaler(reflect.TypeOf(ResolvedPath(""))))
	assert.False(t, hasTextUnmarshaler(reflect.TypeOf(0)))
}

func TestDecodeHookDecodesCustomTypesFromStrings(t *testing.T) {
	var fsCfg FileSystemConfig
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: DecodeHook(),
		Result:     &fsCfg,
	})
	require.NoError(t, err)
	require.NoError(t, dec.Decode(map[string]any{"dir-mode": "750"}))
	assert.EqualValues(t, 0o750, fsCfg.DirMode)

	var logCfg LoggingConfig
	dec2, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: DecodeHook(),
		Result:     &logCfg,
	})
	require.NoError(t, err)
	require.NoError(t, dec2.Decode(map[string]any{
		"file-path": "/var/log/agentfs.log",
		"severity":  "error",
	}))
	assert.Equal(t, LogSeverity("ERROR"), logCfg.Severity)
	assert.Equal(t, ResolvedPath("/var/log/agentfs.log"), logCfg.FilePath)
}

func TestDecodeHookRejectsInvalidSeverity(t *testing.T) {
	var logCfg LoggingConfig
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: DecodeHook(),
		Result:     &logCfg,
	})
	require.NoError(t, err)
	assert.Error(t, dec.Decode(map[string]any{"severity": "not-a-severity"}))
}
