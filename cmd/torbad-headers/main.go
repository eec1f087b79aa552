// Copyright (c) 2025 The torba-go developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command torbad-headers is an offline tool for exercising the header
// store: importing newline-delimited hex headers or whole 2016-header
// chunks from a file, and reporting the registered chains' status.
// It performs no network I/O; header delivery is left to a collaborator
// outside this repository's scope.
package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lbryio/torba-go/chaincfg"
	"github.com/lbryio/torba-go/headerchain"
)

func main() {
	if err := realMain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func realMain() error {
	cfg, args, err := loadConfig()
	if err != nil {
		return err
	}
	setLogLevels(cfg.DebugLevel)

	initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))

	if len(args) == 0 {
		return fmt.Errorf("usage: torbad-headers [import|import-chunk|status] ...")
	}

	params := &chaincfg.MainNetParams
	if cfg.TestNet {
		params = &chaincfg.RegTestParams
	}

	dirCfg := dirConfig{dir: cfg.DataDir}
	reg, err := headerchain.ReadBlockchains(dirCfg, params)
	if err != nil {
		return err
	}

	switch args[0] {
	case "import":
		if len(args) != 2 {
			return fmt.Errorf("usage: torbad-headers import <hex-header-file>")
		}
		return cmdImport(reg, args[1])
	case "import-chunk":
		if len(args) != 3 {
			return fmt.Errorf("usage: torbad-headers import-chunk <index> <hex-chunk-file>")
		}
		return cmdImportChunk(reg, args[1], args[2])
	case "status":
		return cmdStatus(reg)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// cmdImport reads newline-delimited hex-encoded 112-byte headers from
// path and feeds each one through can_connect/save_header. A header
// that doesn't extend any known chain tip is logged and skipped; no
// fork is created for it.
func cmdImport(reg *headerchain.Registry, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024), 1024*1024)

	height := int32(0)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		raw, err := hex.DecodeString(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", height, err)
		}
		h, err := headerchain.DeserializeHeader(raw, height)
		if err != nil {
			return fmt.Errorf("line %d: %w", height, err)
		}

		if b := reg.CanConnect(h); b != nil {
			if err := b.SaveHeader(h); err != nil {
				return fmt.Errorf("height %d: %w", height, err)
			}
			log.Infof("saved header at height %d on chain %s", height, b.GetName())
		} else {
			log.Warnf("header at height %d does not connect to any known chain", height)
		}
		height++
	}
	return scanner.Err()
}

// cmdImportChunk reads a 2016-header chunk (or a shorter trailing one)
// as a single hex blob and feeds it through connect_chunk on the main
// chain.
func cmdImportChunk(reg *headerchain.Registry, indexArg, path string) error {
	var index int32
	if _, err := fmt.Sscanf(indexArg, "%d", &index); err != nil {
		return fmt.Errorf("invalid chunk index %q: %w", indexArg, err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	data, err := hex.DecodeString(string(raw))
	if err != nil {
		return err
	}

	main := reg.Main()
	if !main.ConnectChunk(index, data) {
		return fmt.Errorf("chunk %d rejected", index)
	}
	log.Infof("imported chunk %d (%d headers)", index, len(data)/headerchain.HeaderSize)
	return nil
}

// cmdStatus lists every registered chain: forkpoint, height, branch
// size, and its operator-facing name.
func cmdStatus(reg *headerchain.Registry) error {
	for _, b := range reg.Chains() {
		parentID, hasParent := b.ParentID()
		parentDesc := "none"
		if hasParent {
			parentDesc = fmt.Sprintf("%d", parentID)
		}
		fmt.Printf("forkpoint=%d height=%d size=%d branch_size=%d parent=%s name=%s\n",
			b.Forkpoint(), b.Height(), b.Size(), b.GetBranchSize(), parentDesc, b.GetName())
	}
	return nil
}
