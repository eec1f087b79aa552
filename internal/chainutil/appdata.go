// Copyright (c) 2013-2014 The btcsuite developers
// Copyright (c) 2025 The torba-go developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainutil holds small OS-facing helpers shared by the CLI
// commands in this repository. It carries no chain logic of its own.
package chainutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// AppDataDir returns an operating system appropriate home directory for
// an application's data, following the same convention on each
// platform that a real user would expect: %LOCALAPPDATA% on Windows,
// ~/Library/Application Support on macOS, ~/appname on Plan 9, and the
// XDG-ish ~/.appname on everything else.
func AppDataDir(appName string, roaming bool) string {
	if appName == "" || appName == "." {
		return "."
	}

	appName = strings.TrimPrefix(appName, ".")
	appNameUpper := strings.ToUpper(appName[:1]) + appName[1:]
	appNameLower := strings.ToLower(appName[:1]) + appName[1:]

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("LOCALAPPDATA")
		if roaming {
			appData = os.Getenv("APPDATA")
		}
		if appData != "" {
			return filepath.Join(appData, appNameUpper)
		}
		return filepath.Join(homeDir, appNameUpper)

	case "darwin":
		if homeDir != "" {
			return filepath.Join(homeDir, "Library", "Application Support", appNameUpper)
		}

	case "plan9":
		if homeDir != "" {
			return filepath.Join(homeDir, appNameLower)
		}

	default:
		if homeDir != "" {
			return filepath.Join(homeDir, "."+appNameLower)
		}
	}

	return "." + appNameLower
}
