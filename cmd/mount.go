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
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseutil"
	"github.com/mulatta/agentfs/agentfs"
	"github.com/mulatta/agentfs/internal/fuseadapter"
	"github.com/mulatta/agentfs/internal/logger"
	"github.com/mulatta/agentfs/internal/metrics"
	"github.com/spf13/cobra"
)

var mountCmd = &cobra.Command{
	Use:   "mount",
	Short: "Mount the overlay filesystem at the configured mount point",
	RunE:  runMount,
}

func runMount(c *cobra.Command, args []string) error {
	if err := logger.InitLogFile(Config.Logging); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Close()

	ctx := c.Context()

	fs, err := agentfs.Open(ctx, agentfs.Config{
		Path: string(Config.Database.Path),
		Cache: agentfs.CacheConfig{
			Enabled:    Config.Cache.Enabled,
			MaxEntries: Config.Cache.MaxEntries,
		},
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer fs.Close()

	var recorder *metrics.Recorder
	if Config.Metrics.Enabled {
		recorder = metrics.New()
		go serveMetrics(Config.Metrics.Address, recorder)
	}

	mountPoint := string(Config.FileSystem.MountPoint)
	if mountPoint == "" {
		return fmt.Errorf("file-system.mount-point must be set")
	}

	uid, gid := Config.FileSystem.Uid, Config.FileSystem.Gid
	if uid < 0 {
		uid = os.Getuid()
	}
	if gid < 0 {
		gid = os.Getgid()
	}
	adapter := fuseadapter.New(fs, uint32(uid), uint32(gid))
	server := fuseutil.NewFileSystemServer(adapter)

	// sessionID has no effect on filesystem behavior; it's a correlation
	// handle for tying together the log lines and metrics of one mount's
	// lifetime, since the same database can be mounted under a new
	// process many times over.
	sessionID := uuid.New().String()
	logger.Infof("mounting agentfs at %q (database %q, session %s)", mountPoint, Config.Database.Path, sessionID)
	mfs, err := fuse.Mount(mountPoint, server, &fuse.MountConfig{})
	if err != nil {
		return fmt.Errorf("fuse.Mount: %w", err)
	}

	if err := mfs.Join(ctx); err != nil {
		return fmt.Errorf("serving filesystem: %w", err)
	}
	return nil
}

func serveMetrics(addr string, recorder *metrics.Recorder) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	logger.Infof("serving metrics on %q", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Errorf("metrics server stopped: %v", err)
	}
}
