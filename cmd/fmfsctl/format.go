package main

import (
	"github.com/spf13/cobra"

	"github.com/frasermccallum/fmfs"
	"github.com/frasermccallum/fmfs/internal/fmlog"
)

var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Create a fresh, empty backing file at --disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := fmfs.Format(diskPath); err != nil {
			return err
		}
		fmlog.L.Successf("%s is ready to mount", diskPath)

		if debug {
			fsys, err := fmfs.Open(diskPath)
			if err != nil {
				return err
			}
			defer fsys.Close()
			md, err := fsys.GetRoot().Metadata()
			if err != nil {
				return err
			}
			fmlog.L.Debug(md.String())
		}
		return nil
	},
}
