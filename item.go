package fmfs

import (
	"github.com/frasermccallum/fmfs/internal/fmlog"
)

// Item is the common behaviour shared by every on-disk object (file or
// directory): fetch metadata, fetch concatenated content, save back, and
// update metadata in place. Directory and RegularFile both embed Item and
// add their own interpretation of the content bytes.
//
// Item reaches the disk only through a *FileTable and never refers to
// Filesystem; it names Directory and RegularFile only in the UpcastDir/
// UpcastFile views. There is no import cycle between this file and
// directory.go/filesystem.go the way the original Python had
// (AbstractItem <-> Directory <-> Filesystem all importing each other).
type Item struct {
	ft    *FileTable
	Block int
}

// NewItem wraps an existing item whose first block is block.
func NewItem(ft *FileTable, block int) *Item {
	return &Item{ft: ft, Block: block}
}

// Metadata returns the decoded 39-byte header of the item's first block.
func (it *Item) Metadata() (Metadata, error) {
	b, err := it.ft.disk.ReadBlock(it.Block)
	if err != nil {
		return Metadata{}, err
	}
	return BuildMetadata(b[startOfMetadata:endOfMetadata]), nil
}

// Contents returns the full chain's payload, metadata header stripped.
func (it *Item) Contents() ([]byte, error) {
	data, err := it.ft.ReadFullFile(it.Block)
	if err != nil {
		return nil, err
	}
	return data[startOfContent:], nil
}

// Data is a convenience pairing of Metadata and Contents.
func (it *Item) Data() (Metadata, []byte, error) {
	md, err := it.Metadata()
	if err != nil {
		return Metadata{}, nil, err
	}
	content, err := it.Contents()
	if err != nil {
		return Metadata{}, nil, err
	}
	return md, content, nil
}

// Save writes newData (a full block image: metadata header followed by
// content) across the item's chain, reusing existing blocks where possible
// and allocating new ones when newData is longer than the chain. When
// newData is shorter, the chain is cut after the last block written; the
// blocks cut off keep their FAT entries and are not marked FreeSpace.
// Unless metadataOnlyChange is set, the item's SIZE field is stamped to the
// allocated chain length in bytes. Filesystem.EditFile, which records the
// logical size instead, writes through the FileTable and not through Save.
func (it *Item) Save(newData []byte, metadataOnlyChange bool) error {
	chain, err := it.ft.GetFileBlocks(it.Block)
	if err != nil {
		return err
	}

	locations, err := it.ft.WriteBytesToBlock(newData, chain)
	if err != nil {
		return err
	}

	if !metadataOnlyChange {
		size := u16p(uint16(len(locations) * BlockSize))
		if err := it.updateMetadataRaw(MetadataPatch{Size: size}); err != nil {
			return err
		}
	}

	return it.ft.WriteToTable(locations)
}

// updateMetadataRaw merges patch onto the current header and writes header
// and content back through Save with metadataOnlyChange set, so Save's own
// SIZE stamp does not recurse. UpdateMetadata is this plus a debug log line.
func (it *Item) updateMetadataRaw(patch MetadataPatch) error {
	existing, content, err := it.Data()
	if err != nil {
		return err
	}
	merged := patch.Apply(existing)
	return it.Save(append(merged.MarshalBinary(), content...), true)
}

// UpdateMetadata merges patch onto the item's current metadata (fields left
// nil in patch keep their existing value) and writes the combined header
// back, leaving the rest of the chain's content untouched.
func (it *Item) UpdateMetadata(patch MetadataPatch) error {
	fmlog.L.Debugf("updating metadata on block %d: %+v", it.Block, patch)
	return it.updateMetadataRaw(patch)
}

// UpcastDir reinterprets the item as a Directory. It fails with ErrInvalid
// if the item's TYPE byte is not DirType.
func (it *Item) UpcastDir() (*Directory, error) {
	md, err := it.Metadata()
	if err != nil {
		return nil, err
	}
	if md.Type != DirType {
		return nil, ErrInvalid
	}
	return &Directory{Item: it}, nil
}

// UpcastFile reinterprets the item as a RegularFile. It fails with
// ErrInvalid if the item's TYPE byte is not FileType.
func (it *Item) UpcastFile() (*RegularFile, error) {
	md, err := it.Metadata()
	if err != nil {
		return nil, err
	}
	if md.Type != FileType {
		return nil, ErrInvalid
	}
	return &RegularFile{Item: it}, nil
}
