// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

// Package xdg resolves XDG Base Directory paths for MeetBot.
package xdg

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const (
	appName        = "meetbot"
	configFileName = "config.yaml"
)

// ConfigDir returns the XDG config directory for meetbot.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// ConfigFile returns the default config file path inside ConfigDir.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), configFileName)
}

// ExistingConfigFile returns ConfigFile if it exists, or "" when it does not.
func ExistingConfigFile() (string, error) {
	path := ConfigFile()
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", oops.Code("CONFIG_LOAD_FAILED").With("file", path).Wrap(err)
	}
	if info.IsDir() {
		return "", oops.Code("CONFIG_LOAD_FAILED").With("file", path).Errorf("config path is a directory")
	}
	return path, nil
}
