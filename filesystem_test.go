package fmfs_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/frasermccallum/fmfs"
)

func newFormattedFilesystem(t *testing.T) *fmfs.Filesystem {
	t.Helper()
	path := filepath.Join(t.TempDir(), "disk")
	if err := fmfs.Format(path); err != nil {
		t.Fatalf("Format: %s", err)
	}
	fsys, err := fmfs.Open(path)
	if err != nil {
		t.Fatalf("Open: %s", err)
	}
	t.Cleanup(func() { fsys.Close() })
	return fsys
}

func TestCreateFileAppearsInParentListing(t *testing.T) {
	fsys := newFormattedFilesystem(t)

	if _, err := fsys.CreateFile("/hello.txt", 0o644); err != nil {
		t.Fatalf("CreateFile: %s", err)
	}

	names, err := fsys.ReadDir("/")
	if err != nil {
		t.Fatalf("ReadDir: %s", err)
	}
	found := false
	for _, n := range names {
		if n == "hello.txt" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected hello.txt in root listing, got %v", names)
	}

	attr, err := fsys.GetAttr("/hello.txt")
	if err != nil {
		t.Fatalf("GetAttr: %s", err)
	}
	if attr.Mode&fmfs.S_IFREG == 0 {
		t.Errorf("expected S_IFREG, got mode %o", attr.Mode)
	}
}

func TestEditFileAcrossBlockBoundary(t *testing.T) {
	fsys := newFormattedFilesystem(t)

	item, err := fsys.CreateFile("/big.bin", 0o644)
	if err != nil {
		t.Fatalf("CreateFile: %s", err)
	}

	// Larger than a single 64-byte block, forcing a chain write.
	payload := make([]byte, fmfs.BlockSize+10)
	for i := range payload {
		payload[i] = byte(i % 250)
	}

	n, err := fsys.EditFile(item.Block, payload, 0)
	if err != nil {
		t.Fatalf("EditFile: %s", err)
	}
	if n != len(payload) {
		t.Fatalf("expected to write %d bytes, wrote %d", len(payload), n)
	}

	content, err := item.Contents()
	if err != nil {
		t.Fatalf("Contents: %s", err)
	}
	if len(content) < len(payload) {
		t.Fatalf("expected at least %d bytes of content, got %d", len(payload), len(content))
	}
	for i, b := range payload {
		if content[i] != b {
			t.Fatalf("content mismatch at byte %d: want %d got %d", i, b, content[i])
		}
	}
}

func TestEditFileTruncatesTail(t *testing.T) {
	fsys := newFormattedFilesystem(t)

	item, err := fsys.CreateFile("/trunc.txt", 0o644)
	if err != nil {
		t.Fatalf("CreateFile: %s", err)
	}
	if _, err := fsys.EditFile(item.Block, []byte("hello world"), 0); err != nil {
		t.Fatalf("EditFile: %s", err)
	}
	if _, err := fsys.EditFile(item.Block, []byte("HI"), 2); err != nil {
		t.Fatalf("EditFile: %s", err)
	}

	content, err := item.Contents()
	if err != nil {
		t.Fatalf("Contents: %s", err)
	}
	if string(content[:4]) != "heHI" {
		t.Fatalf("expected %q, got %q", "heHI", content[:4])
	}
}

func TestRenameAcrossDirectories(t *testing.T) {
	fsys := newFormattedFilesystem(t)

	if _, err := fsys.CreateDir("/src", 0o755); err != nil {
		t.Fatalf("CreateDir(/src): %s", err)
	}
	if _, err := fsys.CreateDir("/dst", 0o755); err != nil {
		t.Fatalf("CreateDir(/dst): %s", err)
	}
	if _, err := fsys.CreateFile("/src/file.txt", 0o644); err != nil {
		t.Fatalf("CreateFile: %s", err)
	}

	if err := fsys.Rename("/src/file.txt", "/dst/renamed.txt"); err != nil {
		t.Fatalf("Rename: %s", err)
	}

	if _, err := fsys.GetAttr("/src/file.txt"); !errors.Is(err, fmfs.ErrNotFound) {
		t.Errorf("expected source path to be gone, got %v", err)
	}
	if _, err := fsys.GetAttr("/dst/renamed.txt"); err != nil {
		t.Errorf("expected renamed file to resolve at destination: %s", err)
	}
}

func TestRmdirRequiresEmpty(t *testing.T) {
	fsys := newFormattedFilesystem(t)

	if _, err := fsys.CreateDir("/d", 0o755); err != nil {
		t.Fatalf("CreateDir: %s", err)
	}
	if _, err := fsys.CreateFile("/d/f.txt", 0o644); err != nil {
		t.Fatalf("CreateFile: %s", err)
	}

	if err := fsys.Rmdir("/d"); !errors.Is(err, fmfs.ErrNotEmpty) {
		t.Fatalf("expected ErrNotEmpty for a non-empty directory, got %v", err)
	}

	if err := fsys.Unlink("/d/f.txt"); err != nil {
		t.Fatalf("Unlink: %s", err)
	}
	if err := fsys.Rmdir("/d"); err != nil {
		t.Fatalf("Rmdir on now-empty directory: %s", err)
	}

	if _, err := fsys.GetAttr("/d"); !errors.Is(err, fmfs.ErrNotFound) {
		t.Errorf("expected /d to be gone, got %v", err)
	}
}

func TestNoSpaceThenRecoveryAfterUnlink(t *testing.T) {
	fsys := newFormattedFilesystem(t)

	// Root (1) plus the FAT's own slot (0) are taken; 14 blocks remain.
	var created []string
	for i := 0; i < 14; i++ {
		name := "/f" + string(rune('a'+i))
		if _, err := fsys.CreateFile(name, 0o644); err != nil {
			t.Fatalf("CreateFile(%s): %s", name, err)
		}
		created = append(created, name)
	}

	if _, err := fsys.CreateFile("/overflow", 0o644); !errors.Is(err, fmfs.ErrNoSpace) {
		t.Fatalf("expected ErrNoSpace once the disk is full, got %v", err)
	}

	if err := fsys.Unlink(created[0]); err != nil {
		t.Fatalf("Unlink: %s", err)
	}

	if _, err := fsys.CreateFile("/overflow", 0o644); err != nil {
		t.Fatalf("expected CreateFile to succeed after freeing a block: %s", err)
	}
}
