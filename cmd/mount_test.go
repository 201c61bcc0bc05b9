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

package cmd

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

// runMount must fail before ever touching fuse.Mount when no mount point
// is configured; a real mount requires a FUSE-capable kernel and is out
// of reach for this test.
func TestRunMountRequiresMountPoint(t *testing.T) {
	prevConfig := Config
	defer func() { Config = prevConfig }()

	Config.Database.Path = ":memory:"
	Config.FileSystem.MountPoint = ""

	c := &cobra.Command{}
	c.SetContext(context.Background())

	err := runMount(c, nil)
	assert.ErrorContains(t, err, "mount-point must be set")
}
