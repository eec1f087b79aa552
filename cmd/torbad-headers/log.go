// Copyright (c) 2025 The torba-go developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	rotator "github.com/jrick/logrotate/rotator"

	"github.com/lbryio/torba-go/headerchain"
)

// logRotator manages the application log file, rolling it over to a
// new file once the current one reaches a size threshold.
var logRotator *rotator.Rotator

// logWriter implements io.Writer and sends written data to both
// standard output and the log rotator.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	logRotator.Write(p)
	return len(p), nil
}

var backendLog = btclog.NewBackend(logWriter{})

var log = backendLog.Logger("TORB")

var headerchainLog = backendLog.Logger("HDCH")

// subsystemLoggers maps each subsystem identifier to its logger.
var subsystemLoggers = map[string]btclog.Logger{
	"TORB": log,
	"HDCH": headerchainLog,
}

func init() {
	headerchain.UseLogger(headerchainLog)
}

// initLogRotator initializes the logging rotator to write logs to
// logFile and creates the logging directory if it doesn't already
// exist.
func initLogRotator(logFile string) {
	logDir, _ := filepath.Split(logFile)
	if err := os.MkdirAll(logDir, 0o700); err != nil {
		os.Stderr.WriteString("failed to create log directory: " + err.Error() + "\n")
		os.Exit(1)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		os.Stderr.WriteString("failed to create file rotator: " + err.Error() + "\n")
		os.Exit(1)
	}
	logRotator = r
}

// setLogLevel sets the logging level for the named subsystem, or all
// subsystems when subsystemID is "all".
func setLogLevel(subsystemID string, logLevel string) {
	level, ok := btclog.LevelFromString(logLevel)
	if !ok {
		return
	}
	if subsystemID == "all" {
		setLogLevels(logLevel)
		return
	}
	if l, ok := subsystemLoggers[subsystemID]; ok {
		l.SetLevel(level)
	}
}

// setLogLevels sets the logging level for every registered subsystem.
func setLogLevels(logLevel string) {
	level, ok := btclog.LevelFromString(logLevel)
	if !ok {
		return
	}
	for _, l := range subsystemLoggers {
		l.SetLevel(level)
	}
}
