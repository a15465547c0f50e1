package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/frasermccallum/fmfs"
	"github.com/frasermccallum/fmfs/internal/fmlog"
	"github.com/frasermccallum/fmfs/internal/fusenode"
)

var mountCmd = &cobra.Command{
	Use:   "mount <mountpoint>",
	Short: "Mount --disk's backing file at the given mountpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mountPoint := args[0]

		fsys, err := fmfs.Open(diskPath)
		if err != nil {
			return err
		}
		defer fsys.Close()

		root := fusenode.Root(fsys)
		server, err := fusenode.Mount(mountPoint, root, debug)
		if err != nil {
			return err
		}
		fmlog.L.Successf("mounted %s at %s", diskPath, mountPoint)

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sig
			fmlog.L.Warn("unmounting")
			_ = server.Unmount()
		}()

		server.Wait()
		return nil
	},
}
