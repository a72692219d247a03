// Copyright 2024 Hotcache Authors
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

package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"hotcache/internal/config"
	"hotcache/internal/store"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersion sets the version info for --version flag
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// getVersionString returns the version string with build info
func getVersionString() string {
	buildDate := formatBuildDate(date)
	if strings.HasSuffix(version, "-dev") {
		// Dev build: include epoch and commit for troubleshooting
		return fmt.Sprintf("%s (%s, epoch: %s, commit: %s)", version, buildDate, date, commit)
	}
	return fmt.Sprintf("%s (%s)", version, buildDate)
}

// formatBuildDate converts epoch timestamp to readable date
func formatBuildDate(epoch string) string {
	ts, err := strconv.ParseInt(epoch, 10, 64)
	if err != nil {
		return epoch
	}
	return time.Unix(ts, 0).Format("2006-01-02")
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	roots      []string
	logLevel   string
	detector   string

	settings *config.Settings
}

// session is the store context of CLI commands.
type session struct {
	out io.Writer
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "hotcache",
		Short: "Inspect and watch hot-reloading file resources",
		Long: `Load files through a hot-reloading resource cache.

Keys are file paths (optionally prefixed with "path:") resolved against the
configured roots, or logical names prefixed with "logical:".`,
		Version:       getVersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			return g.load(cmd)
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate("hotcache version {{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&g.configPath, "config", "", "settings file (default: $HOTCACHE_CONFIG_DIR/settings.yaml)")
	flags.StringSliceVar(&g.roots, "root", nil, "search root for relative keys (repeatable, overrides settings)")
	flags.StringVar(&g.logLevel, "log-level", "", "log level: trace, debug, info, warn, none")
	flags.StringVar(&g.detector, "detector", "", "change detector: poll or notify")

	rootCmd.AddCommand(
		newCatCmd(g),
		newWatchCmd(g),
		newWaitCmd(g),
		newSettingsCmd(g),
	)
	return rootCmd
}

// load reads the settings file and applies flag overrides.
func (g *globalFlags) load(cmd *cobra.Command) error {
	var (
		settings *config.Settings
		err      error
	)
	if g.configPath != "" {
		settings, err = config.LoadSettingsFromPath(g.configPath)
	} else {
		settings, err = config.LoadSettings()
	}
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if len(g.roots) > 0 {
		settings.Roots = g.roots
	}
	if g.logLevel != "" {
		settings.LogLevel = g.logLevel
	}
	if g.detector != "" {
		settings.Detector = g.detector
	}
	settings.ApplyDefaults()
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := config.SetupLogging(settings.LogLevel, cmd.ErrOrStderr()); err != nil {
		return err
	}
	g.settings = settings
	return nil
}

// openStore creates a store from the effective settings. found, when
// non-nil, receives files reported by discovery.
func (g *globalFlags) openStore(found func(*store.Store[*session], store.Key, *session)) (*store.Store[*session], error) {
	opts, err := config.StoreOptions(g.settings, found)
	if err != nil {
		return nil, err
	}
	s, err := store.New(opts)
	if err != nil {
		if opts.Detector != nil {
			_ = opts.Detector.Close()
		}
		return nil, err
	}
	return s, nil
}

// Execute runs the root command
func Execute() error {
	return newRootCmd().Execute()
}
