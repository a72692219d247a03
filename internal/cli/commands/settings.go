package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"hotcache/internal/config"
)

func newSettingsCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show the effective settings",
		Long: `Print the settings in effect after merging the settings file, the embedded
defaults and command-line flags.

The settings file lives at $HOTCACHE_CONFIG_DIR/settings.yaml (default
~/.hotcache/settings.yaml). Run "hotcache settings init" to create it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(g.settings)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default settings file if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := config.InitConfigDir()
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", config.SettingsPath())
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already exists\n", config.SettingsPath())
			}
			return nil
		},
	})
	return cmd
}
