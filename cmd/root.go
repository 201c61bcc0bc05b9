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

// Package cmd wires AgentFS's cobra command tree: mount, seed and fsck
// subcommands sharing one viper-backed cfg.Config.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mulatta/agentfs/cfg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile       string
	bindErr       error
	configFileErr error
	unmarshalErr  error

	// Config is the process-wide configuration populated by initConfig
	// before any RunE runs.
	Config cfg.Config
)

var rootCmd = &cobra.Command{
	Use:   "agentfs",
	Short: "A copy-on-write overlay filesystem backed by a single database file",
	Long: `AgentFS exposes a path-addressed, copy-on-write overlay filesystem
whose persistent state lives entirely in one database file. An immutable
base layer carries the initial tree; every mutation materializes ("copies
up") into a mutable delta layer while preserving the original inode number.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		if configFileErr != nil {
			return configFileErr
		}
		if unmarshalErr != nil {
			return unmarshalErr
		}
		return cfg.Validate(&Config)
	},
}

// Execute runs the command tree, exiting the process with status 1 on
// any returned error the way the teacher's Execute does.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "Path to a YAML config file")
	bindErr = cfg.BindFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(mountCmd, seedCmd, fsckCmd)
}

func initConfig() {
	opt := viper.DecodeHook(cfg.DecodeHook())
	if cfgFile == "" {
		unmarshalErr = viper.Unmarshal(&Config, opt)
		return
	}

	resolved, err := filepath.Abs(cfgFile)
	if err != nil {
		configFileErr = fmt.Errorf("resolving config file path: %w", err)
		return
	}
	viper.SetConfigFile(resolved)
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		configFileErr = fmt.Errorf("reading config file: %w", err)
		return
	}
	unmarshalErr = viper.Unmarshal(&Config, opt)
}
