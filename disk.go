package fmfs

import (
	"fmt"
	"io"
	"os"

	"github.com/google/renameio"

	"github.com/frasermccallum/fmfs/internal/fmlog"
)

// Fixed disk geometry. FMFS addresses a small, constant number of blocks;
// growing past this is out of scope (spec Non-goals).
const (
	NumBlocks = 16
	BlockSize = 64

	// DefaultDiskName is the backing file name used when the CLI is run
	// with no explicit --disk flag, matching the original tool's DISK_NAME.
	DefaultDiskName = "my-disk"
)

// Disk is the lowest layer: a fixed-size backing file addressed in
// BlockSize-byte blocks. Every higher layer (FileTable, Item, Directory,
// Filesystem) reads and writes through a Disk; there is no in-memory cache
// of block contents anywhere above this layer.
type Disk struct {
	f    *os.File
	path string
}

// OpenDisk opens an existing backing file. The file must already be exactly
// NumBlocks*BlockSize bytes; this does not format it.
func OpenDisk(path string) (*Disk, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	return &Disk{f: f, path: path}, nil
}

// Close releases the backing file handle.
func (d *Disk) Close() error {
	return d.f.Close()
}

// LowLevelFormat creates (or truncates and recreates) the backing file at
// path, zero-filled to exactly NumBlocks*BlockSize bytes. The replacement is
// atomic: a crash partway through leaves either the old file or nothing,
// never a half-written one, using the same renameio.TempFile pattern
// cmd/distri/mirror.go uses for other on-disk artifacts.
func LowLevelFormat(path string) error {
	fmlog.L.Warnf("formatting backing file %s (%d blocks of %d bytes)", path, NumBlocks, BlockSize)

	t, err := renameio.TempFile("", path)
	if err != nil {
		return err
	}
	defer t.Cleanup()

	zero := make([]byte, BlockSize)
	for i := 0; i < NumBlocks; i++ {
		if _, err := t.Write(zero); err != nil {
			return err
		}
	}

	return t.CloseAtomicallyReplace()
}

// ReadBlock reads block i (0-indexed) and returns its BlockSize bytes.
func (d *Disk) ReadBlock(i int) ([]byte, error) {
	if i < 0 || i >= NumBlocks {
		return nil, fmt.Errorf("fmfs: block number %d out of range", i)
	}
	buf := make([]byte, BlockSize)
	_, err := d.f.ReadAt(buf, int64(i)*BlockSize)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf, nil
}

// WriteBlock writes data (must be exactly BlockSize bytes) to block i.
func (d *Disk) WriteBlock(i int, data []byte) error {
	if i < 0 || i >= NumBlocks {
		return fmt.Errorf("fmfs: block number %d out of range", i)
	}
	if len(data) != BlockSize {
		return fmt.Errorf("fmfs: block data must be %d bytes, got %d", BlockSize, len(data))
	}
	_, err := d.f.WriteAt(data, int64(i)*BlockSize)
	return err
}

// IntToBytes encodes value as a big-endian unsigned integer in n bytes,
// truncating modulo 256^n.
func IntToBytes(value uint64, n int) []byte {
	out := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = byte(value % 256)
		value /= 256
	}
	return out
}

// BytesToInt decodes a big-endian unsigned integer.
func BytesToInt(b []byte) uint64 {
	var value uint64
	for _, c := range b {
		value = value*256 + uint64(c)
	}
	return value
}

// StrToBytes right-pads s with NUL bytes to exactly n bytes. s longer than n
// is truncated.
func StrToBytes(s string, n int) []byte {
	out := make([]byte, n)
	copy(out, s)
	return out
}

// BytesToStr decodes b as ASCII without trimming NUL padding; trimming is
// the caller's responsibility (see clearNullsFromBytes / strings.TrimRight).
func BytesToStr(b []byte) string {
	return string(b)
}
