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
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mulatta/agentfs/agentfs"
	"github.com/mulatta/agentfs/internal/meta"
	"github.com/mulatta/agentfs/internal/storage"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed <source-dir>",
	Short: "Populate a fresh database's base layer from a directory on local disk",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
}

func runSeed(c *cobra.Command, args []string) error {
	sourceDir := args[0]

	entries, err := walkSeedTree(sourceDir)
	if err != nil {
		return fmt.Errorf("walking %q: %w", sourceDir, err)
	}

	backend, err := openFreshBackend(string(Config.Database.Path))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer backend.Close()

	ctx := c.Context()
	if err := agentfs.Seed(ctx, backend, entries); err != nil {
		return fmt.Errorf("seeding: %w", err)
	}

	fmt.Fprintf(os.Stdout, "seeded %d entries into %q from %q\n", len(entries), Config.Database.Path, sourceDir)
	return nil
}

func openFreshBackend(p string) (storage.Backend, error) {
	if p == "" || p == ":memory:" {
		return storage.NewMemBackend(), nil
	}
	return storage.OpenBolt(p)
}

// walkSeedTree mirrors sourceDir into a flat list of SeedEntry values.
// Paths are reported relative to sourceDir with a leading "/", matching
// the public API's path addressing; sourceDir itself becomes "/".
func walkSeedTree(sourceDir string) ([]agentfs.SeedEntry, error) {
	var entries []agentfs.SeedEntry

	uid, gid := Config.FileSystem.Uid, Config.FileSystem.Gid
	if uid < 0 {
		uid = os.Getuid()
	}
	if gid < 0 {
		gid = os.Getgid()
	}

	err := filepath.WalkDir(sourceDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(sourceDir, p)
		if err != nil {
			return err
		}
		seedPath := "/" + filepath.ToSlash(rel)
		if rel == "." {
			seedPath = "/"
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.Type()&os.ModeSymlink != 0:
			target, err := os.Readlink(p)
			if err != nil {
				return err
			}
			entries = append(entries, agentfs.SeedEntry{
				Path:       seedPath,
				Kind:       meta.KindSymlink,
				Mode:       0o777,
				UID:        uint32(uid),
				GID:        uint32(gid),
				LinkTarget: target,
			})
		case d.IsDir():
			entries = append(entries, agentfs.SeedEntry{
				Path: seedPath,
				Kind: meta.KindDir,
				Mode: uint32(info.Mode().Perm()),
				UID:  uint32(uid),
				GID:  uint32(gid),
			})
		default:
			content, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			entries = append(entries, agentfs.SeedEntry{
				Path:    seedPath,
				Kind:    meta.KindFile,
				Mode:    uint32(info.Mode().Perm()),
				UID:     uint32(uid),
				GID:     uint32(gid),
				Content: content,
			})
		}
		return nil
	})
	return entries, err
}
