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

// IsCacheEnabled reports whether the path-resolution cache should be
// constructed with a positive capacity.
func IsCacheEnabled(c *Config) bool {
	return c.Cache.Enabled && c.Cache.MaxEntries > 0
}

// Validate rejects configuration combinations that BindFlags's
// per-field flag parsing cannot catch on its own.
func Validate(c *Config) error {
	if string(c.Database.Path) == "" {
		return errDatabasePathRequired
	}
	return nil
}

var errDatabasePathRequired = configError("database.path must be set (or pass ':memory:' explicitly)")

type configError string

func (e configError) Error() string { return string(e) }
