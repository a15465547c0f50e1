// Package fusenode adapts a *fmfs.Filesystem to the go-fuse v2
// fs.InodeEmbedder tree API so it can be mounted as a kernel-visible
// filesystem.
package fusenode

import (
	"context"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/frasermccallum/fmfs/internal/fmlog"

	"github.com/frasermccallum/fmfs"
)

// Node is the single InodeEmbedder type backing every file and directory in
// the mount; its path is re-resolved against the Filesystem on every
// operation rather than cached, matching FMFS's stateless-handle design.
type Node struct {
	fs.Inode

	fsys *fmfs.Filesystem
	path string
}

var (
	_ fs.InodeEmbedder  = (*Node)(nil)
	_ fs.NodeLookuper   = (*Node)(nil)
	_ fs.NodeGetattrer  = (*Node)(nil)
	_ fs.NodeSetattrer  = (*Node)(nil)
	_ fs.NodeReaddirer  = (*Node)(nil)
	_ fs.NodeOpener     = (*Node)(nil)
	_ fs.NodeCreater    = (*Node)(nil)
	_ fs.NodeMkdirer    = (*Node)(nil)
	_ fs.NodeUnlinker   = (*Node)(nil)
	_ fs.NodeRmdirer    = (*Node)(nil)
	_ fs.NodeRenamer    = (*Node)(nil)
	_ fs.NodeReader     = (*Node)(nil)
	_ fs.NodeWriter     = (*Node)(nil)
	_ fs.NodeGetxattrer = (*Node)(nil)
	_ fs.NodeStatfser   = (*Node)(nil)
)

// Root builds the mount's root node for fs.Mount.
func Root(fsys *fmfs.Filesystem) *Node {
	return &Node{fsys: fsys, path: "/"}
}

func joinPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

func attrFromFmfs(a fmfs.Attr, out *fuse.Attr) {
	out.Mode = uint32(a.Mode)
	out.Size = uint64(a.Size)
	out.Nlink = uint32(a.NLink)
	out.Uid = uint32(a.UID)
	out.Gid = uint32(a.GID)
	out.Ctime = uint64(a.CTime)
	out.Mtime = uint64(a.MTime)
	out.Atime = uint64(a.ATime)
	out.Blksize = fmfs.BlockSize
}

func (n *Node) child(name string) *Node {
	return &Node{fsys: n.fsys, path: joinPath(n.path, name)}
}

// Lookup resolves name within this directory and mints a kernel Inode for
// it, failing with ENOENT if it does not exist.
func (n *Node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	child := n.child(name)
	attr, err := n.fsys.GetAttr(child.path)
	if err != nil {
		return nil, fmfs.Errno(err)
	}
	attrFromFmfs(attr, &out.Attr)

	mode := uint32(attr.Mode) & syscall.S_IFMT
	inode := n.NewInode(ctx, child, fs.StableAttr{Mode: mode})
	return inode, 0
}

// Getattr fills out with this node's current on-disk attributes.
func (n *Node) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	attr, err := n.fsys.GetAttr(n.path)
	if err != nil {
		return fmfs.Errno(err)
	}
	attrFromFmfs(attr, &out.Attr)
	return 0
}

// Setattr only honours mtime/atime updates (utimens); size changes arrive
// through Write and permission/owner changes are not supported.
func (n *Node) Setattr(ctx context.Context, f fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	mtime, mok := in.GetMTime()
	atime, aok := in.GetATime()
	if mok || aok {
		cur, err := n.fsys.GetAttr(n.path)
		if err != nil {
			return fmfs.Errno(err)
		}
		a, m := cur.ATime, cur.MTime
		if aok {
			a = uint32(atime.Unix())
		}
		if mok {
			m = uint32(mtime.Unix())
		}
		if err := n.fsys.Utimens(n.path, a, m); err != nil {
			return fmfs.Errno(err)
		}
	}
	attr, err := n.fsys.GetAttr(n.path)
	if err != nil {
		return fmfs.Errno(err)
	}
	attrFromFmfs(attr, &out.Attr)
	return 0
}

// Readdir lists the directory's children as a kernel DirStream, built from
// the item's io/fs.DirEntry view of its directory.
func (n *Node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	item, err := n.fsys.SmartResolver(n.path)
	if err != nil {
		return nil, fmfs.Errno(err)
	}
	dir, err := item.UpcastDir()
	if err != nil {
		return nil, fmfs.Errno(err)
	}
	children, err := dir.ReadDir()
	if err != nil {
		return nil, fmfs.Errno(err)
	}

	entries := make([]fuse.DirEntry, 0, len(children))
	for _, c := range children {
		entries = append(entries, fuse.DirEntry{
			Name: c.Name(),
			Mode: uint32(fmfs.ModeToUnix(c.Type())),
		})
	}
	return fs.NewListDirStream(entries), 0
}

// fileHandle carries the monotonically increasing id Filesystem.NextHandle
// mints; FMFS attaches no other per-handle state, so it's a bare wrapper.
type fileHandle struct {
	id uint64
}

// Open is a no-op beyond an existence check and handle minting: FMFS keeps
// no per-handle state, every Read/Write re-resolves the path.
func (n *Node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if _, err := n.fsys.GetAttr(n.path); err != nil {
		return nil, 0, fmfs.Errno(err)
	}
	return &fileHandle{id: n.fsys.NextHandle()}, 0, 0
}

// Create makes a new regular file under this directory and opens it.
func (n *Node) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	child := n.child(name)
	item, err := n.fsys.CreateFile(child.path, uint16(mode&0o777))
	if err != nil {
		return nil, nil, 0, fmfs.Errno(err)
	}

	md, err := item.Metadata()
	if err != nil {
		return nil, nil, 0, fmfs.Errno(err)
	}
	attrFromFmfs(fmfs.Attr{
		Mode: md.Mode, CTime: md.CTime, MTime: md.MTime, ATime: md.ATime,
		NLink: md.NLinks, UID: md.UID, GID: md.GID, Size: md.Size,
	}, &out.Attr)

	inode := n.NewInode(ctx, child, fs.StableAttr{Mode: syscall.S_IFREG})
	fmlog.L.Successf("created %s", child.path)
	return inode, &fileHandle{id: n.fsys.NextHandle()}, 0, 0
}

// Mkdir makes a new subdirectory under this directory.
func (n *Node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	child := n.child(name)
	if _, err := n.fsys.CreateDir(child.path, uint16(mode&0o777)); err != nil {
		return nil, fmfs.Errno(err)
	}

	attr, err := n.fsys.GetAttr(child.path)
	if err != nil {
		return nil, fmfs.Errno(err)
	}
	attrFromFmfs(attr, &out.Attr)

	inode := n.NewInode(ctx, child, fs.StableAttr{Mode: syscall.S_IFDIR})
	return inode, 0
}

// Unlink removes a regular file from this directory.
func (n *Node) Unlink(ctx context.Context, name string) syscall.Errno {
	return fmfs.Errno(n.fsys.Unlink(joinPath(n.path, name)))
}

// Rmdir removes an empty subdirectory from this directory.
func (n *Node) Rmdir(ctx context.Context, name string) syscall.Errno {
	return fmfs.Errno(n.fsys.Rmdir(joinPath(n.path, name)))
}

// Rename moves a child of this directory to a (possibly different)
// directory under a new name.
func (n *Node) Rename(ctx context.Context, name string, newParent fs.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	dest, ok := newParent.(*Node)
	if !ok {
		return syscall.EINVAL
	}
	return fmfs.Errno(n.fsys.Rename(joinPath(n.path, name), joinPath(dest.path, newName)))
}

// Read serves a regular file's content at the requested offset.
func (n *Node) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	item, err := n.fsys.SmartResolver(n.path)
	if err != nil {
		return nil, fmfs.Errno(err)
	}
	regular, err := item.UpcastFile()
	if err != nil {
		return nil, fmfs.Errno(err)
	}
	nRead, err := regular.ReadAt(dest, off)
	if err != nil {
		return nil, fmfs.Errno(err)
	}
	return fuse.ReadResultData(dest[:nRead]), 0
}

// Write overwrites a regular file's content from offset, truncating
// anything previously stored beyond offset+len(data).
func (n *Node) Write(ctx context.Context, f fs.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	item, err := n.fsys.SmartResolver(n.path)
	if err != nil {
		return 0, fmfs.Errno(err)
	}
	written, err := n.fsys.EditFile(item.Block, data, int(off))
	if err != nil {
		return 0, fmfs.Errno(err)
	}
	return uint32(written), 0
}

// Getxattr always returns empty bytes; FMFS stores no extended attributes.
func (n *Node) Getxattr(ctx context.Context, attr string, dest []byte) (uint32, syscall.Errno) {
	return 0, 0
}

// Statfs reports the fixed, synthetic geometry constants every mount shows.
func (n *Node) Statfs(ctx context.Context, out *fuse.StatfsOut) syscall.Errno {
	s := n.fsys.StatFS()
	out.Blocks = s.Blocks
	out.Bfree = s.BlocksFree
	out.Bavail = s.BlocksAvail
	out.Bsize = s.BlockSize
	out.Namelen = 16
	return 0
}

// options returns the fs.Options this mount should start with: a one-second
// entry/attribute cache timeout on every lookup.
func options(debug bool) *fs.Options {
	sec := time.Second
	return &fs.Options{
		EntryTimeout: &sec,
		AttrTimeout:  &sec,
		MountOptions: fuse.MountOptions{
			Debug:      debug,
			FsName:     "fmfs",
			Name:       "fmfs",
			AllowOther: false,
		},
	}
}

// Mount mounts root at mountPoint with FMFS's standard options.
func Mount(mountPoint string, root fs.InodeEmbedder, debug bool) (*fuse.Server, error) {
	return fs.Mount(mountPoint, root, options(debug))
}
