package fmfs

import (
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/frasermccallum/fmfs/internal/fmlog"
)

// RootBlock is the fixed block index of the root directory, always present
// after Format.
const RootBlock = 1

// Filesystem is the top-level orchestration service: path resolution and
// the high-level create/edit/rename/unlink/rmdir operations host VFS calls
// get translated into. It works on items through Item and Directory.
type Filesystem struct {
	disk *Disk
	ft   *FileTable

	// nextHandle backs Open/Create's monotonically increasing file handle.
	// FMFS associates no other state with a handle: every read/write
	// re-resolves the path.
	nextHandle uint64
}

// Open opens an existing, already-formatted backing file at path.
func Open(path string) (*Filesystem, error) {
	disk, err := OpenDisk(path)
	if err != nil {
		return nil, err
	}
	return &Filesystem{disk: disk, ft: NewFileTable(disk)}, nil
}

// Close releases the backing file handle.
func (fsys *Filesystem) Close() error {
	return fsys.disk.Close()
}

// GetRoot returns the root directory (block 1).
func (fsys *Filesystem) GetRoot() *Directory {
	return &Directory{Item: NewItem(fsys.ft, RootBlock)}
}

// blockMetadata reads block i's metadata through a throwaway Item.
func (fsys *Filesystem) blockMetadata(i int) (Metadata, error) {
	return NewItem(fsys.ft, i).Metadata()
}

// splitPath splits a slash-separated absolute path into its non-empty
// components ("/" -> nil, "/a/b" -> ["a", "b"]).
func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// PathResolver walks a slash-separated path from the root directory to a
// terminal block index. It returns (-1, nil) if any component is not
// found, and ErrInvalid if an intermediate component resolves to a file
// before the path is exhausted.
func (fsys *Filesystem) PathResolver(p string) (int, error) {
	if p == "/" || p == "" {
		return RootBlock, nil
	}

	chunks := splitPath(p)

	currentDir := fsys.GetRoot()
	finalLocation := -1
	isAtEnd := false

	for i, chunk := range chunks {
		possibleFile := i == len(chunks)-1
		found := false

		entries, err := currentDir.GetFiles(true)
		if err != nil {
			return -1, err
		}

		for _, e := range entries {
			if e.Name != chunk {
				continue
			}
			if e.Type == FileType && !possibleFile {
				fmlog.L.Error("path component is a file but more components follow it")
				return -1, ErrInvalid
			}
			finalLocation = e.Block
			found = true
			if possibleFile {
				isAtEnd = true
			} else {
				next, err := NewItem(fsys.ft, e.Block).UpcastDir()
				if err != nil {
					return -1, err
				}
				currentDir = next
			}
			break
		}

		if !found {
			return -1, nil
		}
	}

	if !isAtEnd {
		return -1, ErrNotFound
	}
	if finalLocation < 0 {
		return -1, nil
	}
	return finalLocation, nil
}

// SmartResolver combines PathResolver with a type-aware item constructor:
// it fails with ErrNotFound if the path does not resolve, or ErrInvalid on
// an unrecognised TYPE byte.
func (fsys *Filesystem) SmartResolver(p string) (*Item, error) {
	block, err := fsys.PathResolver(p)
	if err != nil {
		return nil, err
	}
	if block == -1 {
		return nil, ErrNotFound
	}
	item := NewItem(fsys.ft, block)
	md, err := item.Metadata()
	if err != nil {
		return nil, err
	}
	switch md.Type {
	case DirType, FileType:
		return item, nil
	default:
		return nil, ErrInvalid
	}
}

func splitDirBase(p string) (dir, base string) {
	return path.Dir(p), path.Base(p)
}

// createItem implements the shared body of CreateFile and CreateDir: it
// resolves the parent directory, builds fresh metadata, and links the new
// item in under basename(path).
func (fsys *Filesystem) createItem(p string, mode uint16, t Type) (*Item, error) {
	dirname, filename := splitDirBase(p)
	parentBlock, err := fsys.PathResolver(dirname)
	if err != nil {
		return nil, err
	}
	if parentBlock == -1 {
		return nil, ErrNotFound
	}
	parent, err := NewItem(fsys.ft, parentBlock).UpcastDir()
	if err != nil {
		return nil, err
	}

	now := uint32(time.Now().Unix())
	nlinks := uint8(1)
	size := uint16(0)
	fileMode := fs.FileMode(mode & 0o777)
	if t == DirType {
		nlinks = 2
		size = BlockSize
		fileMode |= fs.ModeDir

		parentMd, err := parent.Metadata()
		if err != nil {
			return nil, err
		}
		newLinks := u8p(parentMd.NLinks + 1)
		if err := parent.UpdateMetadata(MetadataPatch{NLinks: newLinks}); err != nil {
			return nil, err
		}
	}

	md := Metadata{
		Name:   filename,
		Size:   size,
		NLinks: nlinks,
		Mode:   ModeToUnix(fileMode),
		CTime:  now,
		MTime:  now,
		ATime:  now,
		Type:   t,
	}
	return parent.AddFile(filename, nil, md)
}

// CreateFile creates a regular file at path with the given permission bits.
func (fsys *Filesystem) CreateFile(p string, mode uint16) (*Item, error) {
	return fsys.createItem(p, mode, FileType)
}

// CreateDir creates a directory at path with the given permission bits.
func (fsys *Filesystem) CreateDir(p string, mode uint16) (*Item, error) {
	return fsys.createItem(p, mode, DirType)
}

// EditFile performs a random-access write at offset into the item whose
// first block is firstBlock: the logical content becomes
// oldContent[:offset] ++ data (anything at or beyond offset+len(data) in
// the old content is truncated away), and returns the number of bytes
// written.
func (fsys *Filesystem) EditFile(firstBlock int, data []byte, offset int) (int, error) {
	item := NewItem(fsys.ft, firstBlock)
	md, oldContent, err := item.Data()
	if err != nil {
		return 0, err
	}
	if offset > len(oldContent) {
		offset = len(oldContent)
	}

	kept := oldContent[:offset]
	newContent := append(append([]byte(nil), kept...), data...)

	now := uint32(time.Now().Unix())
	md.ATime = now
	md.CTime = now
	md.MTime = now
	md.Size = uint16(len(newContent))

	chain, err := fsys.ft.GetFileBlocks(firstBlock)
	if err != nil {
		return 0, err
	}

	toWrite := append(md.MarshalBinary(), newContent...)
	locations, err := fsys.ft.WriteBytesToBlock(toWrite, chain)
	if err != nil {
		return 0, err
	}
	if err := fsys.ft.WriteToTable(locations); err != nil {
		return 0, err
	}

	fmlog.L.Successf("wrote %d bytes at offset %d to block %d", len(data), offset, firstBlock)
	return len(data), nil
}

// Rename moves a block from one directory's child list to another's,
// rewriting the item's NAME field, within a single mount.
func (fsys *Filesystem) Rename(oldPath, newPath string) error {
	oldDirPath, _ := splitDirBase(oldPath)
	newDirPath, newBase := splitDirBase(newPath)

	oldParentBlock, err := fsys.PathResolver(oldDirPath)
	if err != nil {
		return err
	}
	if oldParentBlock == -1 {
		return ErrNotFound
	}
	oldParent, err := NewItem(fsys.ft, oldParentBlock).UpcastDir()
	if err != nil {
		return err
	}

	loc, err := fsys.PathResolver(oldPath)
	if err != nil {
		return err
	}
	if loc == -1 {
		return ErrNotFound
	}

	newParentBlock, err := fsys.PathResolver(newDirPath)
	if err != nil {
		return err
	}
	if newParentBlock == -1 {
		return ErrNotFound
	}
	newParent, err := NewItem(fsys.ft, newParentBlock).UpcastDir()
	if err != nil {
		return err
	}

	if err := oldParent.UnlinkFile(loc); err != nil {
		return err
	}
	return newParent.LinkFile(loc, newBase)
}

// Rmdir removes the empty directory at path, failing with ErrNotEmpty if
// it has children.
func (fsys *Filesystem) Rmdir(p string) error {
	block, err := fsys.PathResolver(p)
	if err != nil {
		return err
	}
	if block == -1 {
		return ErrNotFound
	}
	target, err := NewItem(fsys.ft, block).UpcastDir()
	if err != nil {
		return err
	}

	ok, err := target.Deleteable()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotEmpty
	}

	dirname, _ := splitDirBase(p)
	parentBlock, err := fsys.PathResolver(dirname)
	if err != nil {
		return err
	}
	parent, err := NewItem(fsys.ft, parentBlock).UpcastDir()
	if err != nil {
		return err
	}

	if err := parent.RemoveFile(block); err != nil {
		return err
	}

	parentMd, err := parent.Metadata()
	if err != nil {
		return err
	}
	newLinks := u8p(parentMd.NLinks - 1)
	return parent.UpdateMetadata(MetadataPatch{NLinks: newLinks})
}

// Unlink removes the file at path from its parent directory and frees its
// chain.
func (fsys *Filesystem) Unlink(p string) error {
	dirname, _ := splitDirBase(p)
	parentBlock, err := fsys.PathResolver(dirname)
	if err != nil {
		return err
	}
	if parentBlock == -1 {
		return ErrNotFound
	}
	parent, err := NewItem(fsys.ft, parentBlock).UpcastDir()
	if err != nil {
		return err
	}

	block, err := fsys.PathResolver(p)
	if err != nil {
		return err
	}
	if block == -1 {
		return ErrNotFound
	}
	return parent.RemoveFile(block)
}

// Attr is the attribute record GetAttr returns.
type Attr struct {
	Mode  uint16
	CTime uint32
	MTime uint32
	ATime uint32
	NLink uint8
	UID   uint16
	GID   uint16
	Size  uint16
}

// GetAttr resolves path and returns its attribute record.
func (fsys *Filesystem) GetAttr(p string) (Attr, error) {
	item, err := fsys.SmartResolver(p)
	if err != nil {
		return Attr{}, err
	}
	md, err := item.Metadata()
	if err != nil {
		return Attr{}, err
	}
	return Attr{
		Mode:  md.Mode,
		CTime: md.CTime,
		MTime: md.MTime,
		ATime: md.ATime,
		NLink: md.NLinks,
		UID:   md.UID,
		GID:   md.GID,
		Size:  md.Size,
	}, nil
}

// ReadDir resolves path and returns its listing as [".", "..", ...children],
// trailing NULs stripped.
func (fsys *Filesystem) ReadDir(p string) ([]string, error) {
	block, err := fsys.PathResolver(p)
	if err != nil {
		return nil, err
	}
	if block == -1 {
		return nil, ErrNotFound
	}
	dir, err := NewItem(fsys.ft, block).UpcastDir()
	if err != nil {
		return nil, err
	}

	entries, err := dir.GetFiles(true)
	if err != nil {
		return nil, err
	}
	names := []string{".", ".."}
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names, nil
}

// Utimens overwrites an item's ATIME/MTIME, leaving every other field
// untouched.
func (fsys *Filesystem) Utimens(p string, atime, mtime uint32) error {
	item, err := fsys.SmartResolver(p)
	if err != nil {
		return err
	}
	return item.UpdateMetadata(MetadataPatch{ATime: &atime, MTime: &mtime})
}

// NextHandle returns a fresh monotonically increasing file handle for
// Create/Open. FMFS associates no other state with a handle.
func (fsys *Filesystem) NextHandle() uint64 {
	fsys.nextHandle++
	return fsys.nextHandle
}

// StatFS is the constant, synthetic statfs record every mount must report.
type StatFS struct {
	BlockSize   uint32
	Blocks      uint64
	BlocksFree  uint64
	BlocksAvail uint64
}

// StatFS returns the fixed statfs constants (block size 512, 4096 blocks,
// 2048 available) every mount reports.
func (fsys *Filesystem) StatFS() StatFS {
	return StatFS{BlockSize: 512, Blocks: 4096, BlocksFree: 2048, BlocksAvail: 2048}
}
