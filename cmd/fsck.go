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
	"fmt"
	"os"

	"github.com/mulatta/agentfs/agentfs"
	"github.com/spf13/cobra"
)

var fsckCmd = &cobra.Command{
	Use:   "fsck",
	Short: "Open the database and report any invariant violations without mounting it",
	RunE:  runFsck,
}

func runFsck(c *cobra.Command, args []string) error {
	ctx := c.Context()

	fs, err := agentfs.Open(ctx, agentfs.Config{Path: string(Config.Database.Path)})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer fs.Close()

	violations, err := fs.CheckInvariants(ctx)
	if err != nil {
		return fmt.Errorf("checking invariants: %w", err)
	}

	if len(violations) == 0 {
		fmt.Fprintln(os.Stdout, "fsck: no invariant violations found")
		return nil
	}

	for _, v := range violations {
		fmt.Fprintln(os.Stderr, v)
	}
	if Config.Debug.ExitOnInvariantViolation {
		os.Exit(1)
	}
	return fmt.Errorf("fsck: found %d invariant violation(s)", len(violations))
}
