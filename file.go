package fmfs

// RegularFile is a specialisation of Item with TYPE = FileType; its only
// addition is ReadAt. Writes at arbitrary offsets are implemented one level
// up, in Filesystem.EditFile, since resizing a chain requires allocator
// access.
type RegularFile struct {
	*Item
}

// ReadAt implements io.ReaderAt over the file's logical content (metadata
// header stripped). Unlike directory name lookups, file content is never
// NUL-trimmed.
func (f *RegularFile) ReadAt(p []byte, off int64) (int, error) {
	content, err := f.Contents()
	if err != nil {
		return 0, err
	}
	if off < 0 || off > int64(len(content)) {
		return 0, ErrInvalid
	}
	n := copy(p, content[off:])
	return n, nil
}
