package fmfs

import (
	"io/fs"
	"time"

	"github.com/frasermccallum/fmfs/internal/fmlog"
)

// Directory is an Item whose content is a sequence of one-byte child block
// indices, terminated by the first 0x00 byte. Order is
// insertion order; entries are never sorted.
type Directory struct {
	*Item
}

// DirEntry names one child of a directory: its trimmed name, the block
// index holding it, and its item type.
type DirEntry struct {
	Name  string
	Block int
	Type  Type
}

// GetFiles returns the directory's children in insertion order. If
// stripNull is set, trailing NUL padding is trimmed from each name;
// otherwise names are returned exactly as stored (16 bytes, NUL-padded).
func (d *Directory) GetFiles(stripNull bool) ([]DirEntry, error) {
	_, payload, err := d.Data()
	if err != nil {
		return nil, err
	}

	var entries []DirEntry
	for _, b := range payload {
		if b == 0x00 {
			break
		}
		child := NewItem(d.ft, int(b))
		md, err := child.Metadata()
		if err != nil {
			return nil, err
		}
		name := md.Name
		if stripNull {
			name = md.TrimmedName()
		}
		entries = append(entries, DirEntry{Name: name, Block: int(b), Type: md.Type})
	}
	return entries, nil
}

// BlockIndexFromName linear-scans the directory's children for name and
// returns its block index, or fails with ErrNotFound.
func (d *Directory) BlockIndexFromName(name string) (int, error) {
	entries, err := d.GetFiles(true)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if e.Name == name {
			return e.Block, nil
		}
	}
	return 0, ErrNotFound
}

// EnsureUniqueness returns the block index of an existing child named name,
// or -1 if no such child exists.
func (d *Directory) EnsureUniqueness(name string) (int, error) {
	entries, err := d.GetFiles(true)
	if err != nil {
		return -1, err
	}
	for _, e := range entries {
		if e.Name == name {
			return e.Block, nil
		}
	}
	return -1, nil
}

// Deleteable reports whether the directory has zero children.
func (d *Directory) Deleteable() (bool, error) {
	entries, err := d.GetFiles(false)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

// clearNullsFromBytes returns the leading run of b up to (not including)
// the first NUL byte. Used to strip a directory's trailing-NUL padding
// before appending a new child index; step is always 1 here since FMFS
// child indices are single bytes (the original had a generic stride
// parameter for the same routine, never called with anything but 1).
func clearNullsFromBytes(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return append([]byte(nil), b[:i]...)
		}
	}
	return append([]byte(nil), b...)
}

// AddFile allocates a new block for a fresh item, writes its metadata and
// initialData, links it into this directory under name, and returns the
// newly created item.
//
// If a child named name already exists, its entire chain is purged first:
// this is a destructive overwrite, not a rename-on-conflict.
func (d *Directory) AddFile(name string, initialData []byte, md Metadata) (*Item, error) {
	firstLoc, err := d.ft.FindFreeBlock(nil)
	if err != nil {
		return nil, err
	}

	existing, err := d.EnsureUniqueness(name)
	if err != nil {
		return nil, err
	}
	if existing != -1 {
		if err := d.ft.PurgeFullFile(existing); err != nil {
			return nil, err
		}
	}

	md.Location = uint8(firstLoc)

	blocksToWrite, err := d.ft.WriteBytesToBlock(append(md.MarshalBinary(), initialData...), nil)
	if err != nil {
		return nil, err
	}
	if err := d.ft.WriteToTable(blocksToWrite); err != nil {
		return nil, err
	}

	dirMd, payload, err := d.Data()
	if err != nil {
		return nil, err
	}
	newPayload := append(clearNullsFromBytes(payload), byte(blocksToWrite[0]))
	if err := d.Save(append(dirMd.MarshalBinary(), newPayload...), false); err != nil {
		return nil, err
	}

	fmlog.L.Successf("added %q to directory block %d at block %d", name, d.Block, blocksToWrite[0])
	return NewItem(d.ft, blocksToWrite[0]), nil
}

// RemoveFile removes loc from the directory's child list and frees its
// entire chain. It removes the first payload byte equal to loc, not by
// position -- safe because FMFS has no hard links, so a block index can
// appear in at most one directory's payload at a time.
func (d *Directory) RemoveFile(loc int) error {
	md, payload, err := d.Data()
	if err != nil {
		return err
	}
	newPayload, err := removeFirst(payload, byte(loc))
	if err != nil {
		return err
	}
	if err := d.ft.PurgeFullFile(loc); err != nil {
		return err
	}
	return d.Save(append(md.MarshalBinary(), newPayload...), false)
}

// UnlinkFile removes loc from the directory's child list without purging
// its chain -- the child continues to exist until another directory
// re-links it (used by Rename).
func (d *Directory) UnlinkFile(loc int) error {
	md, payload, err := d.Data()
	if err != nil {
		return err
	}
	newPayload, err := removeFirst(payload, byte(loc))
	if err != nil {
		return err
	}
	return d.Save(append(md.MarshalBinary(), newPayload...), false)
}

// LinkFile appends loc to this directory's child list under withName and
// rewrites the child's own NAME field to match.
func (d *Directory) LinkFile(loc int, withName string) error {
	md, payload, err := d.Data()
	if err != nil {
		return err
	}
	newPayload := append(clearNullsFromBytes(payload), byte(loc))
	if err := d.Save(append(md.MarshalBinary(), newPayload...), false); err != nil {
		return err
	}

	child := NewItem(d.ft, loc)
	name := withName
	if err := child.UpdateMetadata(MetadataPatch{Name: &name}); err != nil {
		return err
	}
	fmlog.L.Successf("linked block %d into directory %d as %q", loc, d.Block, withName)
	return nil
}

// removeFirst returns a copy of b with the first occurrence of target
// removed, or ErrNotFound if target does not appear.
func removeFirst(b []byte, target byte) ([]byte, error) {
	for i, c := range b {
		if c == target {
			out := make([]byte, 0, len(b)-1)
			out = append(out, b[:i]...)
			out = append(out, b[i+1:]...)
			return out, nil
		}
	}
	return nil, ErrNotFound
}

// --- io/fs glue, making directory listings usable through the standard
// fs.ReadDirFile interface.

type dirInfo struct {
	name string
	md   Metadata
}

func (fi *dirInfo) Name() string       { return fi.name }
func (fi *dirInfo) Size() int64        { return int64(fi.md.Size) }
func (fi *dirInfo) Mode() fs.FileMode  { return UnixToMode(fi.md.Mode) }
func (fi *dirInfo) ModTime() time.Time { return time.Unix(int64(fi.md.MTime), 0) }
func (fi *dirInfo) IsDir() bool        { return fi.md.Type == DirType }
func (fi *dirInfo) Sys() any           { return fi.md }

type dirEntryAdapter struct {
	entry DirEntry
	ft    *FileTable
}

func (e *dirEntryAdapter) Name() string { return e.entry.Name }
func (e *dirEntryAdapter) IsDir() bool  { return e.entry.Type == DirType }
func (e *dirEntryAdapter) Type() fs.FileMode {
	return e.entry.Type.Mode()
}
func (e *dirEntryAdapter) Info() (fs.FileInfo, error) {
	md, err := NewItem(e.ft, e.entry.Block).Metadata()
	if err != nil {
		return nil, err
	}
	return &dirInfo{name: e.entry.Name, md: md}, nil
}

// ReadDir lists the directory's children as []fs.DirEntry, giving callers
// the standard io/fs view of a directory's contents.
func (d *Directory) ReadDir() ([]fs.DirEntry, error) {
	entries, err := d.GetFiles(true)
	if err != nil {
		return nil, err
	}
	out := make([]fs.DirEntry, len(entries))
	for i, e := range entries {
		out[i] = &dirEntryAdapter{entry: e, ft: d.ft}
	}
	return out, nil
}
