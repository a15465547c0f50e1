package fmfs_test

import (
	"path/filepath"
	"testing"

	"github.com/frasermccallum/fmfs"
)

func newFormattedDisk(t *testing.T) (*fmfs.Disk, *fmfs.FileTable) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "disk")
	if err := fmfs.Format(path); err != nil {
		t.Fatalf("Format: %s", err)
	}
	disk, err := fmfs.OpenDisk(path)
	if err != nil {
		t.Fatalf("OpenDisk: %s", err)
	}
	t.Cleanup(func() { disk.Close() })
	return disk, fmfs.NewFileTable(disk)
}

func TestFileTableChainSpansMultipleBlocks(t *testing.T) {
	_, ft := newFormattedDisk(t)

	// 3 blocks' worth of payload forces a 3-block chain.
	data := make([]byte, fmfs.BlockSize*3-10)
	for i := range data {
		data[i] = byte(i % 251)
	}

	locations, err := ft.WriteBytesToBlock(data, nil)
	if err != nil {
		t.Fatalf("WriteBytesToBlock: %s", err)
	}
	if len(locations) != 3 {
		t.Fatalf("expected a 3-block chain, got %d blocks", len(locations))
	}
	if err := ft.WriteToTable(locations); err != nil {
		t.Fatalf("WriteToTable: %s", err)
	}

	chain, err := ft.GetFileBlocks(locations[0])
	if err != nil {
		t.Fatalf("GetFileBlocks: %s", err)
	}
	if len(chain) != 3 {
		t.Fatalf("expected chain length 3, got %d", len(chain))
	}

	full, err := ft.ReadFullFile(locations[0])
	if err != nil {
		t.Fatalf("ReadFullFile: %s", err)
	}
	if len(full) != fmfs.BlockSize*3 {
		t.Fatalf("expected %d raw bytes, got %d", fmfs.BlockSize*3, len(full))
	}
}

func TestFindFreeBlockExhaustion(t *testing.T) {
	_, ft := newFormattedDisk(t)

	// Root (block 1) is already taken; 14 more free blocks remain (2..15).
	data := make([]byte, fmfs.BlockSize*14)
	locations, err := ft.WriteBytesToBlock(data, nil)
	if err != nil {
		t.Fatalf("WriteBytesToBlock: %s", err)
	}
	if err := ft.WriteToTable(locations); err != nil {
		t.Fatalf("WriteToTable: %s", err)
	}

	if _, err := ft.FindFreeBlock(nil); err == nil {
		t.Fatal("expected ErrNoSpace once every block is allocated")
	} else if err != fmfs.ErrNoSpace {
		t.Errorf("expected ErrNoSpace, got %v", err)
	}
}

func TestPurgeFullFileFreesChain(t *testing.T) {
	_, ft := newFormattedDisk(t)

	data := make([]byte, fmfs.BlockSize*2)
	locations, err := ft.WriteBytesToBlock(data, nil)
	if err != nil {
		t.Fatalf("WriteBytesToBlock: %s", err)
	}
	if err := ft.WriteToTable(locations); err != nil {
		t.Fatalf("WriteToTable: %s", err)
	}

	if err := ft.PurgeFullFile(locations[0]); err != nil {
		t.Fatalf("PurgeFullFile: %s", err)
	}

	// every purged block must be reusable again
	reused, err := ft.FindFreeBlock(nil)
	if err != nil {
		t.Fatalf("FindFreeBlock after purge: %s", err)
	}
	found := false
	for _, loc := range locations {
		if reused == loc {
			found = true
		}
	}
	if !found {
		t.Errorf("expected FindFreeBlock to return one of the purged blocks %v, got %d", locations, reused)
	}
}
