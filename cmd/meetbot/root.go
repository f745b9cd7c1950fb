// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/meetbot/meetbot/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the MeetBot CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meetbot",
		Short: "MeetBot - account backend for voice AI meeting agents",
		Long: `MeetBot serves the account API used by the MeetBot web app:
signup, sign-in and cookie-based sessions backed by PostgreSQL.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file path (YAML, default $XDG_CONFIG_HOME/meetbot/config.yaml if present)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// resolveConfigFile returns the --config path, or the XDG default config file
// when the flag is unset and that file exists.
func resolveConfigFile() (string, error) {
	if configFile != "" {
		return configFile, nil
	}
	return xdg.ExistingConfigFile() //nolint:wrapcheck // already coded by xdg
}
