package fmfs

import (
	"os"
	"time"

	"github.com/frasermccallum/fmfs/internal/fmlog"
)

// Format zero-fills the backing file at path, then writes a fresh FAT
// (block 0) and root directory (block 1): T[0] and T[1] are EndOfFile,
// every other slot is FreeSpace, and the root's metadata carries mode
// S_IFDIR|0o755, NLINKS=2, and the process's own uid/gid.
func Format(path string) error {
	if err := LowLevelFormat(path); err != nil {
		return err
	}

	disk, err := OpenDisk(path)
	if err != nil {
		return err
	}
	defer disk.Close()

	table := make([]byte, BlockSize)
	for i := range table[:NumBlocks] {
		table[i] = FreeSpace
	}
	table[0] = EndOfFile
	table[1] = EndOfFile
	if err := disk.WriteBlock(0, table); err != nil {
		return err
	}
	fmlog.L.Warn("created file table in disk block 0")

	now := uint32(time.Now().Unix())
	rootMd := Metadata{
		Name:     "FMFS",
		Size:     BlockSize,
		NLinks:   2,
		Mode:     S_IFDIR | 0o755,
		UID:      uint16(os.Getuid()),
		GID:      uint16(os.Getgid()),
		CTime:    now,
		MTime:    now,
		ATime:    now,
		Location: RootBlock,
		Type:     DirType,
	}

	rootBlock := make([]byte, BlockSize)
	copy(rootBlock, rootMd.MarshalBinary())
	if err := disk.WriteBlock(RootBlock, rootBlock); err != nil {
		return err
	}
	fmlog.L.Warn("created root directory in disk block 1")

	fmlog.L.Success("backing file formatted")
	return nil
}
