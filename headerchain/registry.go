// Copyright (c) 2025 The torba-go developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package headerchain

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/lbryio/torba-go/chaincfg"
)

// Registry is the process-wide mapping from forkpoint to Blockchain. A
// single mutex protects the map itself; each Blockchain protects its
// own size and file with its own lock. The registry mutex is held only
// for map access and never while a chain lock is being acquired;
// swapWithParent takes it (through snapshotPaths and rekeyAfterSwap)
// while holding the swapping chain's lock.
type Registry struct {
	mu     sync.Mutex
	chains map[int32]*Blockchain

	config Config
	params *chaincfg.Params
}

// ReadBlockchains creates the registry, registers the main chain
// (creating its backing file if it does not exist yet), and
// discovers any fork files already present under config.HeadersDir().
// A fork file that can't be validated against its claimed parent is
// skipped silently, matching the startup contract: one bad fork file
// never aborts the rest of discovery.
func ReadBlockchains(config Config, params *chaincfg.Params) (*Registry, error) {
	reg := &Registry{
		chains: make(map[int32]*Blockchain),
		config: config,
		params: params,
	}
	main := newMainChain(config, params, reg)
	if err := main.file.create(); err != nil {
		return nil, err
	}
	reg.chains[0] = main

	forksDir := filepath.Join(config.HeadersDir(), forksDirname)
	entries, err := os.ReadDir(forksDir)
	if err != nil {
		// No forks directory yet is not an error; any other access
		// failure surfaces as an empty (main-chain-only) registry,
		// matching the reference client's tolerant startup.
		return reg, nil
	}

	type candidate struct {
		parentID  int32
		forkpoint int32
	}
	var candidates []candidate
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		pID, fp, ok := parseForkFilename(e.Name())
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{pID, fp})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].parentID < candidates[j].parentID
	})

	for _, c := range candidates {
		reg.mu.Lock()
		parent, ok := reg.chains[c.parentID]
		reg.mu.Unlock()
		if !ok {
			continue
		}

		parentID := c.parentID
		candidateFile := newChainFile(config.HeadersDir(), c.forkpoint, &parentID)
		raw, err := candidateFile.Read(c.forkpoint)
		if err != nil || raw == nil {
			continue
		}
		h, err := DeserializeHeader(raw, c.forkpoint)
		if err != nil {
			continue
		}
		if !parent.CanConnect(h, false) {
			continue
		}

		b := &Blockchain{
			params:    params,
			config:    config,
			forkpoint: c.forkpoint,
			parentID:  &parentID,
			registry:  reg,
			file:      candidateFile,
		}
		b.size = b.file.Size()

		reg.mu.Lock()
		reg.chains[c.forkpoint] = b
		reg.mu.Unlock()
	}

	return reg, nil
}

// parseForkFilename parses "fork_<parentID>_<forkpoint>" into its two
// integer components.
func parseForkFilename(name string) (parentID, forkpoint int32, ok bool) {
	if !strings.HasPrefix(name, "fork_") {
		return 0, 0, false
	}
	parts := strings.Split(strings.TrimPrefix(name, "fork_"), "_")
	if len(parts) != 2 {
		return 0, 0, false
	}
	p, err1 := strconv.Atoi(parts[0])
	f, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return int32(p), int32(f), true
}

// lookup returns the chain registered under forkpoint, or nil.
func (r *Registry) lookup(forkpoint int32) *Blockchain {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.chains[forkpoint]
}

// Main returns the forkpoint-0 chain.
func (r *Registry) Main() *Blockchain {
	return r.lookup(0)
}

// Chains returns a snapshot slice of every registered chain.
func (r *Registry) Chains() []*Blockchain {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Blockchain, 0, len(r.chains))
	for _, b := range r.chains {
		out = append(out, b)
	}
	return out
}

// childrenOf returns the forkpoints of every chain whose parentID is
// exactly forkpoint.
func (r *Registry) childrenOf(forkpoint int32) []int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int32
	for fp, b := range r.chains {
		if b.parentID != nil && *b.parentID == forkpoint {
			out = append(out, fp)
		}
	}
	return out
}

// snapshotPaths captures every registered chain's current backing-file
// path, for comparison after a swap relocates some of them.
func (r *Registry) snapshotPaths() map[int32]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int32]string, len(r.chains))
	for fp, b := range r.chains {
		out[fp] = b.file.path()
	}
	return out
}

// rekeyAfterSwap re-keys the registry by each chain's current forkpoint
// and renames the backing file of any chain (typically a grandchild of
// the swap) whose path changed as a side effect of the swap.
func (r *Registry) rekeyAfterSwap(oldPaths map[int32]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rekeyed := make(map[int32]*Blockchain, len(r.chains))
	for _, b := range r.chains {
		rekeyed[b.forkpoint] = b
	}
	r.chains = rekeyed

	for fp, b := range r.chains {
		oldPath, had := oldPaths[fp]
		newPath := b.file.path()
		if had && oldPath != newPath {
			if _, err := os.Stat(oldPath); err == nil {
				_ = rename(oldPath, newPath)
			}
			b.file.refreshSize()
			b.size = b.file.Size()
		}
	}
}

// CheckHeader returns the chain, if any, that already stores h at its
// own height (the header's hash matches what that chain has recorded).
func (r *Registry) CheckHeader(h *Header) *Blockchain {
	for _, b := range r.Chains() {
		stored, err := b.ReadHeader(h.BlockHeight)
		if err != nil || stored == nil {
			continue
		}
		if HashHeader(stored) == HashHeader(h) {
			return b
		}
	}
	return nil
}

// CanConnect returns the chain, if any, that h extends by exactly one
// header.
func (r *Registry) CanConnect(h *Header) *Blockchain {
	for _, b := range r.Chains() {
		if b.CanConnect(h, true) {
			return b
		}
	}
	return nil
}
