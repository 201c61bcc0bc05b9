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
	"github.com/stretchr/testify/require"
)

func TestRunFsckCleanDatabaseReportsNoViolations(t *testing.T) {
	prevConfig := Config
	defer func() { Config = prevConfig }()

	Config.Database.Path = ":memory:"
	Config.Debug.ExitOnInvariantViolation = false

	c := &cobra.Command{}
	c.SetContext(context.Background())

	require.NoError(t, runFsck(c, nil))
}
