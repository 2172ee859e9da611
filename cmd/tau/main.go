package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	tauerrors "github.com/tau-dev/tau/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌┬┐┌─┐┬ ┬
   │ ├─┤│ │
   ┴ ┴ ┴└─┘
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "tau",
		Short: "Run and develop tau apps",
		Long: `tau runs reactive desktop and browser UIs written in Go.

The component tree lives on the server; clients render what they are
sent and report events back over a websocket.

  • tau dev   build, run and hot reload the app in the current project
  • tau run   build and run the app without the reload supervisor`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		devCmd(),
		runCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		tauerrors.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

// printBanner prints the tau ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}
