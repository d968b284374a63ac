// Command foldiff diffs, applies, and verifies FLDF container artifacts
// (spec §6's CLI surface).
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yellowsink/foldiff/pkg/foldiff"
)

func rootMain(command *cobra.Command, arguments []string) {
	if rootConfiguration.version {
		fmt.Println(foldiff.VersionString())
		return
	}
	command.Help()
}

var rootCommand = &cobra.Command{
	Use:   "foldiff",
	Short: "Foldiff builds and applies compact diff-artifact containers between directory trees.",
	Run:   rootMain,
}

var rootConfiguration struct {
	help    bool
	version bool
}

func init() {
	cobra.EnableCommandSorting = false

	flags := rootCommand.Flags()
	flags.BoolVarP(&rootConfiguration.help, "help", "h", false, "show help information")
	flags.BoolVarP(&rootConfiguration.version, "version", "v", false, "show version information")

	rootCommand.AddCommand(
		diffCommand,
		applyCommand,
		verifyCommand,
	)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		Fatal(err)
	}
}
