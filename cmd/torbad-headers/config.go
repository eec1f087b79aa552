// Copyright (c) 2025 The torba-go developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	flags "github.com/jessevdk/go-flags"

	"github.com/lbryio/torba-go/internal/chainutil"
)

const (
	defaultConfigFilename = "torbad-headers.conf"
	defaultLogFilename    = "torbad-headers.log"
	defaultLogLevel       = "info"
)

var (
	defaultHomeDir    = chainutil.AppDataDir("torbad-headers", false)
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultDataDir    = filepath.Join(defaultHomeDir, "data")
	defaultLogDir     = filepath.Join(defaultHomeDir, "logs")
)

// config defines the command line and config-file options this CLI
// accepts. The header store itself never sees this type; only the
// headersDir value it resolves to, through the dirConfig adapter
// implementing headerchain.Config.
type config struct {
	ConfigFile string `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir    string `short:"b" long:"datadir" description:"Directory to store header files"`
	LogDir     string `long:"logdir" description:"Directory to log output"`
	DebugLevel string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical}"`
	TestNet    bool   `long:"testnet" description:"Use the regression test network"`
}

// dirConfig adapts a resolved headers directory to headerchain.Config.
type dirConfig struct {
	dir string
}

func (d dirConfig) HeadersDir() string { return d.dir }

// loadConfig parses command line flags, optionally overlaying a config
// file, and fills in defaults for anything left unset. Unlike a full
// node's config loader, there is no network dial-out or RPC
// credentials to resolve here: the header store's only ambient input
// is a filesystem path.
func loadConfig() (*config, []string, error) {
	cfg := config{
		ConfigFile: defaultConfigFile,
		DataDir:    defaultDataDir,
		LogDir:     defaultLogDir,
		DebugLevel: defaultLogLevel,
	}

	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.Default)
	_, err := preParser.Parse()
	if err != nil {
		if ferr, ok := err.(*flags.Error); ok && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, nil, err
	}

	if preCfg.ConfigFile != defaultConfigFile {
		cfg.ConfigFile = preCfg.ConfigFile
	}

	if _, err := os.Stat(cfg.ConfigFile); err == nil {
		fileParser := flags.NewParser(&cfg, flags.Default)
		if err := flags.NewIniParser(fileParser).ParseFile(cfg.ConfigFile); err != nil {
			return nil, nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	parser := flags.NewParser(&cfg, flags.Default)
	remaining, err := parser.Parse()
	if err != nil {
		if ferr, ok := err.(*flags.Error); ok && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, nil, err
	}

	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir
	}
	if cfg.LogDir == "" {
		cfg.LogDir = defaultLogDir
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &cfg, remaining, nil
}
