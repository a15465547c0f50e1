package fmfs

import (
	"github.com/frasermccallum/fmfs/internal/fmlog"
)

// FAT sentinel byte values, block 0.
const (
	EndOfFile      = 0xF0
	FreeSpace      = 0xFF
	ReservedSpace  = 0xFE
	FileTableSpace = 0x30
)

// FileTable is the block-0 allocation map: a FAT-style singly-linked list
// turning a first block index into an ordered chain of blocks. Every
// operation here re-reads block 0 fresh and, if it mutates the table,
// writes it back before returning -- there is no in-memory cache of the FAT.
type FileTable struct {
	disk *Disk
}

// NewFileTable wraps disk for FAT operations.
func NewFileTable(disk *Disk) *FileTable {
	return &FileTable{disk: disk}
}

// snapshot reads block 0 as the table.
func (ft *FileTable) snapshot() ([]byte, error) {
	return ft.disk.ReadBlock(0)
}

// ReadFullFile walks the chain beginning at start and returns the
// concatenation of every block's raw bytes (metadata header included for
// the first block).
func (ft *FileTable) ReadFullFile(start int) ([]byte, error) {
	table, err := ft.snapshot()
	if err != nil {
		return nil, err
	}

	var out []byte
	current := start
	for i := 0; i < NumBlocks; i++ {
		block, err := ft.disk.ReadBlock(current)
		if err != nil {
			return nil, err
		}
		out = append(out, block...)
		next := table[current]
		if next == EndOfFile {
			return out, nil
		}
		current = int(next)
	}
	return nil, ErrInvalid
}

// GetFileBlocks walks the chain beginning at start and returns the ordered
// list of block indices it visits.
func (ft *FileTable) GetFileBlocks(start int) ([]int, error) {
	table, err := ft.snapshot()
	if err != nil {
		return nil, err
	}

	var blocks []int
	current := start
	for i := 0; i < NumBlocks; i++ {
		blocks = append(blocks, current)
		next := table[current]
		if next == EndOfFile {
			return blocks, nil
		}
		current = int(next)
	}
	return nil, ErrInvalid
}

// PurgeFullFile zeroes every block in the chain beginning at start and
// marks each FAT slot FreeSpace, writing the updated table back.
func (ft *FileTable) PurgeFullFile(start int) error {
	table, err := ft.snapshot()
	if err != nil {
		return err
	}

	zero := make([]byte, BlockSize)
	current := start
	for i := 0; i < NumBlocks; i++ {
		next := table[current]
		table[current] = FreeSpace
		if err := ft.disk.WriteBlock(current, zero); err != nil {
			return err
		}
		if next == EndOfFile {
			break
		}
		current = int(next)
	}

	fmlog.L.Successf("purged chain starting at block %d", start)
	return ft.disk.WriteBlock(0, table)
}

// FindFreeBlock scans the FAT and returns the first free block index not in
// exclude. It fails with ErrNoSpace if none remain.
func (ft *FileTable) FindFreeBlock(exclude []int) (int, error) {
	table, err := ft.snapshot()
	if err != nil {
		return 0, err
	}

	for i, v := range table[:NumBlocks] {
		if v != FreeSpace {
			continue
		}
		if contains(exclude, i) {
			continue
		}
		return i, nil
	}
	return 0, ErrNoSpace
}

// WriteBytesToBlock chunks data into BlockSize pieces. For chunk k, if
// k < len(overwrite) it writes into block overwrite[k] (reusing an existing
// chain's blocks in place); otherwise it allocates a new free block
// (excluding any already picked in this call). It returns the list of
// block indices written, in order.
func (ft *FileTable) WriteBytesToBlock(data []byte, overwrite []int) ([]int, error) {
	numChunks := (len(data) + BlockSize - 1) / BlockSize
	if numChunks == 0 {
		numChunks = 1 // a zero-length item still occupies its first block
	}

	var written []int
	for k := 0; k < numChunks; k++ {
		var target int
		if k < len(overwrite) {
			target = overwrite[k]
		} else {
			free, err := ft.FindFreeBlock(written)
			if err != nil {
				return nil, err
			}
			target = free
		}

		chunk := make([]byte, BlockSize)
		start := k * BlockSize
		end := start + BlockSize
		if end > len(data) {
			end = len(data)
		}
		if start < len(data) {
			copy(chunk, data[start:end])
		}

		if err := ft.disk.WriteBlock(target, chunk); err != nil {
			return nil, err
		}
		written = append(written, target)
	}

	return written, nil
}

// WriteToTable splices locations into the FAT as a single chain:
// T[locations[i]] = locations[i+1], and T[locations[len-1]] = EndOfFile.
// This is the only FAT operation that commits a new chain shape; every
// caller that grows, shrinks or truncates a chain ends with this call.
func (ft *FileTable) WriteToTable(locations []int) error {
	table, err := ft.snapshot()
	if err != nil {
		return err
	}

	for i, loc := range locations {
		if i+1 == len(locations) {
			table[loc] = EndOfFile
		} else {
			table[loc] = byte(locations[i+1])
		}
	}

	return ft.disk.WriteBlock(0, table)
}

func contains(haystack []int, needle int) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}
