package fmfs

import "io/fs"

// Type is the on-disk TYPE byte of an item's metadata header:
// 0 for a directory, 1 for a regular file. FMFS has no symlinks, device
// nodes, fifos or sockets.
type Type uint8

const (
	DirType  Type = 0
	FileType Type = 1
)

func (t Type) IsDir() bool {
	return t == DirType
}

// Mode returns the fs.FileMode type bit (no permission bits) for t.
func (t Type) Mode() fs.FileMode {
	if t == DirType {
		return fs.ModeDir
	}
	return 0
}

func (t Type) String() string {
	if t == DirType {
		return "directory"
	}
	return "file"
}
