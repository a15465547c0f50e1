package fmfs_test

import (
	"path/filepath"
	"testing"

	"github.com/frasermccallum/fmfs"
)

func TestIntBytesRoundTrip(t *testing.T) {
	cases := []struct {
		value uint64
		n     int
	}{
		{0, 1}, {255, 1}, {256, 2}, {65535, 2}, {1, 4},
	}
	for _, c := range cases {
		b := fmfs.IntToBytes(c.value, c.n)
		if len(b) != c.n {
			t.Fatalf("IntToBytes(%d, %d) returned %d bytes", c.value, c.n, len(b))
		}
		if got := fmfs.BytesToInt(b); got != c.value {
			t.Errorf("round trip %d (n=%d): got %d", c.value, c.n, got)
		}
	}
}

func TestStrBytesRoundTrip(t *testing.T) {
	b := fmfs.StrToBytes("root", 16)
	if len(b) != 16 {
		t.Fatalf("expected 16 bytes, got %d", len(b))
	}
	if got := fmfs.BytesToStr(b[:4]); got != "root" {
		t.Errorf("expected %q, got %q", "root", got)
	}
	for _, c := range b[4:] {
		if c != 0 {
			t.Fatalf("expected NUL padding, got %v", b)
		}
	}
}

func TestStrToBytesTruncates(t *testing.T) {
	b := fmfs.StrToBytes("this-name-is-way-too-long", 16)
	if len(b) != 16 {
		t.Fatalf("expected truncation to 16 bytes, got %d", len(b))
	}
}

func TestReadWriteBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk")
	if err := fmfs.LowLevelFormat(path); err != nil {
		t.Fatalf("LowLevelFormat: %s", err)
	}

	disk, err := fmfs.OpenDisk(path)
	if err != nil {
		t.Fatalf("OpenDisk: %s", err)
	}
	defer disk.Close()

	payload := make([]byte, fmfs.BlockSize)
	copy(payload, "hello block 3")
	if err := disk.WriteBlock(3, payload); err != nil {
		t.Fatalf("WriteBlock: %s", err)
	}

	got, err := disk.ReadBlock(3)
	if err != nil {
		t.Fatalf("ReadBlock: %s", err)
	}
	if string(got[:13]) != "hello block 3" {
		t.Errorf("expected %q, got %q", "hello block 3", got[:13])
	}
}

func TestBlockRangeValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk")
	if err := fmfs.LowLevelFormat(path); err != nil {
		t.Fatalf("LowLevelFormat: %s", err)
	}
	disk, err := fmfs.OpenDisk(path)
	if err != nil {
		t.Fatalf("OpenDisk: %s", err)
	}
	defer disk.Close()

	if _, err := disk.ReadBlock(fmfs.NumBlocks); err == nil {
		t.Error("expected error reading out-of-range block")
	}
	if _, err := disk.ReadBlock(-1); err == nil {
		t.Error("expected error reading negative block")
	}
	if err := disk.WriteBlock(0, make([]byte, fmfs.BlockSize-1)); err == nil {
		t.Error("expected error writing wrong-sized payload")
	}
}
