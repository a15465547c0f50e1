package fmfs

import (
	"fmt"
	"strings"
)

// Metadata byte layout. All multi-byte integers are big-endian; NAME is
// ASCII, NUL-padded, not length-prefixed.
const (
	startOfMetadata = 0
	endOfMetadata   = 39
	startOfContent  = 39

	offName     = 0
	szName      = 16
	offSize     = 16
	szSize      = 2
	offNLinks   = 18
	szNLinks    = 1
	offMode     = 19
	szMode      = 2
	offUID      = 21
	szUID       = 2
	offGID      = 23
	szGID       = 2
	offCTime    = 25
	szCTime     = 4
	offMTime    = 29
	szMTime     = 4
	offATime    = 33
	szATime     = 4
	offLocation = 37
	szLocation  = 1
	offType     = 38
	szType      = 1
)

// Metadata is the 39-byte header every item's first block starts with.
type Metadata struct {
	Name     string
	Size     uint16
	NLinks   uint8
	Mode     uint16
	UID      uint16
	GID      uint16
	CTime    uint32
	MTime    uint32
	ATime    uint32
	Location uint8
	Type     Type
}

// MarshalBinary serialises m at its fixed byte offsets. The header is
// bit-exact: this must not pad or align differently.
func (m Metadata) MarshalBinary() []byte {
	buf := make([]byte, endOfMetadata)
	copy(buf[offName:offName+szName], StrToBytes(m.Name, szName))
	copy(buf[offSize:offSize+szSize], IntToBytes(uint64(m.Size), szSize))
	copy(buf[offNLinks:offNLinks+szNLinks], IntToBytes(uint64(m.NLinks), szNLinks))
	copy(buf[offMode:offMode+szMode], IntToBytes(uint64(m.Mode), szMode))
	copy(buf[offUID:offUID+szUID], IntToBytes(uint64(m.UID), szUID))
	copy(buf[offGID:offGID+szGID], IntToBytes(uint64(m.GID), szGID))
	copy(buf[offCTime:offCTime+szCTime], IntToBytes(uint64(m.CTime), szCTime))
	copy(buf[offMTime:offMTime+szMTime], IntToBytes(uint64(m.MTime), szMTime))
	copy(buf[offATime:offATime+szATime], IntToBytes(uint64(m.ATime), szATime))
	copy(buf[offLocation:offLocation+szLocation], IntToBytes(uint64(m.Location), szLocation))
	copy(buf[offType:offType+szType], IntToBytes(uint64(m.Type), szType))
	return buf
}

// BuildMetadata decodes a 39-byte header. b must be at least endOfMetadata
// bytes; only the first endOfMetadata are consulted.
func BuildMetadata(b []byte) Metadata {
	return Metadata{
		Name:     BytesToStr(b[offName : offName+szName]),
		Size:     uint16(BytesToInt(b[offSize : offSize+szSize])),
		NLinks:   uint8(BytesToInt(b[offNLinks : offNLinks+szNLinks])),
		Mode:     uint16(BytesToInt(b[offMode : offMode+szMode])),
		UID:      uint16(BytesToInt(b[offUID : offUID+szUID])),
		GID:      uint16(BytesToInt(b[offGID : offGID+szGID])),
		CTime:    uint32(BytesToInt(b[offCTime : offCTime+szCTime])),
		MTime:    uint32(BytesToInt(b[offMTime : offMTime+szMTime])),
		ATime:    uint32(BytesToInt(b[offATime : offATime+szATime])),
		Location: uint8(BytesToInt(b[offLocation : offLocation+szLocation])),
		Type:     Type(BytesToInt(b[offType : offType+szType])),
	}
}

// TrimmedName returns Name with trailing NUL padding stripped.
func (m Metadata) TrimmedName() string {
	return strings.TrimRight(m.Name, "\x00")
}

func (m Metadata) String() string {
	return fmt.Sprintf(
		"Metadata{Name:%q Size:%d NLinks:%d Mode:%o UID:%d GID:%d CTime:%d MTime:%d ATime:%d Location:%d Type:%s}",
		m.TrimmedName(), m.Size, m.NLinks, m.Mode, m.UID, m.GID, m.CTime, m.MTime, m.ATime, m.Location, m.Type,
	)
}

// MetadataPatch is a partial update to Metadata, used by Item.UpdateMetadata.
// It uses pointer fields so "not given" (nil) is distinguishable from a
// genuine zero value: a naive "value or existing" fallback would conflate
// the two, making it impossible to ever set SIZE or NLINKS to zero via an
// update. Every field gets an explicit unset state instead.
type MetadataPatch struct {
	Name     *string
	Size     *uint16
	NLinks   *uint8
	Mode     *uint16
	UID      *uint16
	GID      *uint16
	CTime    *uint32
	MTime    *uint32
	ATime    *uint32
	Location *uint8
	Type     *Type
}

// Apply returns a copy of base with every non-nil field of p overlaid.
func (p MetadataPatch) Apply(base Metadata) Metadata {
	out := base
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Size != nil {
		out.Size = *p.Size
	}
	if p.NLinks != nil {
		out.NLinks = *p.NLinks
	}
	if p.Mode != nil {
		out.Mode = *p.Mode
	}
	if p.UID != nil {
		out.UID = *p.UID
	}
	if p.GID != nil {
		out.GID = *p.GID
	}
	if p.CTime != nil {
		out.CTime = *p.CTime
	}
	if p.MTime != nil {
		out.MTime = *p.MTime
	}
	if p.ATime != nil {
		out.ATime = *p.ATime
	}
	if p.Location != nil {
		out.Location = *p.Location
	}
	if p.Type != nil {
		out.Type = *p.Type
	}
	return out
}

func u16p(v uint16) *uint16 { return &v }
func u32p(v uint32) *uint32 { return &v }
func u8p(v uint8) *uint8    { return &v }
