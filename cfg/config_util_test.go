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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCacheEnabled(t *testing.T) {
	cases := []struct {
		name string
		c    CacheConfig
		want bool
	}{
		{"enabled with entries", CacheConfig{Enabled: true, MaxEntries: 10}, true},
		{"enabled with zero entries", CacheConfig{Enabled: true, MaxEntries: 0}, false},
		{"disabled", CacheConfig{Enabled: false, MaxEntries: 10}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &Config{Cache: tc.c}
			assert.Equal(t, tc.want, IsCacheEnabled(c))
		})
	}
}

func TestValidateRequiresDatabasePath(t *testing.T) {
	assert.Error(t, Validate(&Config{}))
	assert.NoError(t, Validate(&Config{Database: DatabaseConfig{Path: ":memory:"}}))
	assert.NoError(t, Validate(&Config{Database: DatabaseConfig{Path: "/tmp/agentfs.db"}}))
}
