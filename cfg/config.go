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
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is AgentFS's full runtime configuration, unmarshalled by viper
// from flags and an optional YAML config file, flags taking precedence.
// Environment variables are not read.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Cache      CacheConfig      `yaml:"cache"`
	FileSystem FileSystemConfig `yaml:"file-system"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Debug      DebugConfig      `yaml:"debug"`
}

// DatabaseConfig names the single storage-backend file that holds both
// overlay layers.
type DatabaseConfig struct {
	Path ResolvedPath `yaml:"path"`
}

// CacheConfig controls the path-resolution cache.
type CacheConfig struct {
	Enabled    bool `yaml:"enabled"`
	MaxEntries int  `yaml:"max-entries"`
}

// FileSystemConfig carries defaults applied to newly-created inodes and
// the FUSE mount point.
type FileSystemConfig struct {
	MountPoint ResolvedPath `yaml:"mount-point"`
	DirMode    Octal        `yaml:"dir-mode"`
	FileMode   Octal        `yaml:"file-mode"`
	Uid        int          `yaml:"uid"`
	Gid        int          `yaml:"gid"`
}

// LoggingConfig configures the async file logger.
type LoggingConfig struct {
	FilePath   ResolvedPath `yaml:"file-path"`
	Format     string       `yaml:"format"`
	Severity   LogSeverity  `yaml:"severity"`
	MaxSizeMB  int          `yaml:"max-size-mb"`
	MaxBackups int          `yaml:"max-backups"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// DebugConfig controls invariant-checking behavior.
type DebugConfig struct {
	ExitOnInvariantViolation bool `yaml:"exit-on-invariant-violation"`
}

// BindFlags registers every config field as a persistent flag on
// flagSet and binds it to viper under the matching dotted key, the way
// the teacher's generated cfg.BindFlags does by hand for each field.
func BindFlags(flagSet *pflag.FlagSet) error {
	var err error

	flagSet.StringP("db-path", "", "", "Path to the AgentFS database file (or ':memory:').")
	if err = viper.BindPFlag("database.path", flagSet.Lookup("db-path")); err != nil {
		return err
	}

	flagSet.BoolP("cache-enabled", "", true, "Enable the path-resolution cache.")
	if err = viper.BindPFlag("cache.enabled", flagSet.Lookup("cache-enabled")); err != nil {
		return err
	}

	flagSet.IntP("cache-max-entries", "", 16384, "Maximum path-resolution cache entries.")
	if err = viper.BindPFlag("cache.max-entries", flagSet.Lookup("cache-max-entries")); err != nil {
		return err
	}

	flagSet.StringP("mount-point", "", "", "Directory to mount the filesystem at.")
	if err = viper.BindPFlag("file-system.mount-point", flagSet.Lookup("mount-point")); err != nil {
		return err
	}

	flagSet.StringP("dir-mode", "", "755", "Permission bits for created directories, in octal.")
	if err = viper.BindPFlag("file-system.dir-mode", flagSet.Lookup("dir-mode")); err != nil {
		return err
	}

	flagSet.StringP("file-mode", "", "644", "Permission bits for created files, in octal.")
	if err = viper.BindPFlag("file-system.file-mode", flagSet.Lookup("file-mode")); err != nil {
		return err
	}

	flagSet.IntP("uid", "", -1, "UID owner of newly created inodes; -1 keeps the caller's uid.")
	if err = viper.BindPFlag("file-system.uid", flagSet.Lookup("uid")); err != nil {
		return err
	}

	flagSet.IntP("gid", "", -1, "GID owner of newly created inodes; -1 keeps the caller's gid.")
	if err = viper.BindPFlag("file-system.gid", flagSet.Lookup("gid")); err != nil {
		return err
	}

	flagSet.StringP("log-file", "", "", "Path to the log file; empty logs to stderr.")
	if err = viper.BindPFlag("logging.file-path", flagSet.Lookup("log-file")); err != nil {
		return err
	}

	flagSet.StringP("log-format", "", "text", "Log output format: text or json.")
	if err = viper.BindPFlag("logging.format", flagSet.Lookup("log-format")); err != nil {
		return err
	}

	flagSet.StringP("log-severity", "", "info", "Minimum log severity: trace, debug, info, warning, error, off.")
	if err = viper.BindPFlag("logging.severity", flagSet.Lookup("log-severity")); err != nil {
		return err
	}

	flagSet.IntP("log-max-size-mb", "", 100, "Log file rotation size threshold, in MB.")
	if err = viper.BindPFlag("logging.max-size-mb", flagSet.Lookup("log-max-size-mb")); err != nil {
		return err
	}

	flagSet.IntP("log-max-backups", "", 5, "Number of rotated log files to retain.")
	if err = viper.BindPFlag("logging.max-backups", flagSet.Lookup("log-max-backups")); err != nil {
		return err
	}

	flagSet.BoolP("metrics-enabled", "", false, "Serve Prometheus metrics.")
	if err = viper.BindPFlag("metrics.enabled", flagSet.Lookup("metrics-enabled")); err != nil {
		return err
	}

	flagSet.StringP("metrics-address", "", ":9090", "Address the metrics endpoint listens on.")
	if err = viper.BindPFlag("metrics.address", flagSet.Lookup("metrics-address")); err != nil {
		return err
	}

	flagSet.BoolP("exit-on-invariant-violation", "", false, "Exit the process if an internal invariant check fails.")
	if err = viper.BindPFlag("debug.exit-on-invariant-violation", flagSet.Lookup("exit-on-invariant-violation")); err != nil {
		return err
	}

	return nil
}
