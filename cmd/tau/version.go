package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/tau-dev/tau/internal/dev"
)

// resolvedVersion prefers the linker-set version and falls back to the
// module version recorded by go install.
func resolvedVersion() string {
	if version != "dev" {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return version
}

func writeVersion(w io.Writer) {
	fmt.Fprintf(w, "  Version:      %s\n", resolvedVersion())
	fmt.Fprintf(w, "  Commit:       %s\n", commit)
	fmt.Fprintf(w, "  Built:        %s\n", date)
	fmt.Fprintf(w, "  Go:           %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(w, "  Restart code: %d\n", dev.RestartExitCode)
}

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Println(resolvedVersion())
				return
			}
			printBanner()
			writeVersion(os.Stdout)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version")
	return cmd
}
