// Copyright (c) 2025 The torba-go developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package headerchain

import (
	"os"
	"path/filepath"
	"strconv"
)

// mainChainFilename is the backing file name for the primary chain.
const mainChainFilename = "blockchain_headers"

// forksDirname is the subdirectory holding fork backing files.
const forksDirname = "forks"

// chainFile is the append-only, fixed-record on-disk store backing a
// single Blockchain. Its path is a pure function of the chain's current
// identity (forkpoint, parentID) so that renaming a chain during a
// branch swap changes its path instantly, with no cache to invalidate.
type chainFile struct {
	headersDir string
	forkpoint  int32
	parentID   *int32 // nil for the main chain

	size uint32 // cached header count, refreshed after every mutation
}

// newChainFile opens (without creating) the chain file for the given
// identity and caches its current size.
func newChainFile(headersDir string, forkpoint int32, parentID *int32) *chainFile {
	cf := &chainFile{
		headersDir: headersDir,
		forkpoint:  forkpoint,
		parentID:   parentID,
	}
	cf.refreshSize()
	return cf
}

// path returns the current backing file path: blockchain_headers for
// the main chain, forks/fork_<parentID>_<forkpoint> otherwise. It is
// recomputed from the chain's current identity on every call.
func (cf *chainFile) path() string {
	if cf.parentID == nil {
		return filepath.Join(cf.headersDir, mainChainFilename)
	}
	basename := fmtForkFilename(*cf.parentID, cf.forkpoint)
	return filepath.Join(cf.headersDir, forksDirname, basename)
}

func fmtForkFilename(parentID, forkpoint int32) string {
	return "fork_" + strconv.Itoa(int(parentID)) + "_" + strconv.Itoa(int(forkpoint))
}

func (cf *chainFile) refreshSize() {
	info, err := os.Stat(cf.path())
	if err != nil {
		cf.size = 0
		return
	}
	cf.size = uint32(info.Size() / HeaderSize)
}

// Size returns the cached header count.
func (cf *chainFile) Size() uint32 {
	return cf.size
}

// assertAvailable returns a FileNotFoundError describing whether the
// headers directory itself or just this chain's file is missing.
func (cf *chainFile) assertAvailable(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if _, err := os.Stat(cf.headersDir); err != nil {
		return &FileNotFoundError{Path: cf.headersDir}
	}
	return &FileNotFoundError{Path: path}
}

// create ensures the backing file exists (used when forking a new
// chain, which starts from an empty file).
func (cf *chainFile) create() error {
	path := cf.path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	cf.refreshSize()
	return nil
}

// Read seeks to the slot for the given height and reads one 112-byte
// record. It returns (nil, nil) for an all-zero slot (the "no header"
// sentinel), and an error if fewer than HeaderSize bytes could be read.
func (cf *chainFile) Read(height int32) ([]byte, error) {
	path := cf.path()
	if err := cf.assertAvailable(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	offset := int64(height-cf.forkpoint) * HeaderSize
	buf := make([]byte, HeaderSize)
	n, err := f.ReadAt(buf, offset)
	if n < HeaderSize {
		if err != nil && n == 0 {
			return nil, &InvalidHeaderError{Reason: "short read"}
		}
		return nil, &InvalidHeaderError{Reason: "short read"}
	}
	if isAllZero(buf) {
		return nil, nil
	}
	return buf, nil
}

func isAllZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// Write opens the file read-write, optionally truncates at offset
// (when offset doesn't land exactly at the current end of file), then
// writes data at offset, flushes, and fsyncs. The cached size is
// refreshed afterward.
func (cf *chainFile) Write(data []byte, offset int64, truncate bool) error {
	path := cf.path()
	if err := cf.assertAvailable(path); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if truncate && offset != int64(cf.size)*HeaderSize {
		if err := f.Truncate(offset); err != nil {
			return err
		}
	}
	if _, err := f.WriteAt(data, offset); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	cf.refreshSize()
	return nil
}

// ReadRange reads exactly n bytes starting at byte offset off, used by
// swap_with_parent to pull an entire branch's worth of records across
// the forkpoint boundary in one shot.
func (cf *chainFile) ReadRange(off int64, n int) ([]byte, error) {
	path := cf.path()
	if err := cf.assertAvailable(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	if _, err := f.ReadAt(buf, off); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadAll reads the entire backing file's current contents.
func (cf *chainFile) ReadAll() ([]byte, error) {
	path := cf.path()
	if err := cf.assertAvailable(path); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// rename moves this chain's backing file from oldPath to its current
// path, used during swap_with_parent to relocate grandchildren whose
// parent identity just changed.
func rename(oldPath, newPath string) error {
	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return err
	}
	return os.Rename(oldPath, newPath)
}
