// Command fmfsctl formats and mounts FMFS backing files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/frasermccallum/fmfs"
)

var (
	diskPath string
	debug    bool
)

var rootCmd = &cobra.Command{
	Use:   "fmfsctl",
	Short: "Format and mount FMFS backing files",
	Long: `fmfsctl manages FMFS backing files: fixed-size, block-addressed
single-file filesystems that can be mounted over FUSE.`,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&diskPath, "disk", fmfs.DefaultDiskName, "path to the backing file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable verbose logging")
	rootCmd.AddCommand(formatCmd, mountCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
