package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/yellowsink/foldiff/pkg/foldiff/engine"
	"github.com/yellowsink/foldiff/pkg/foldiff/ferrors"
)

// verifyMain implements both verify forms from spec §6: a plain two-tree
// comparison, or an old-tree-plus-manifest cross-check against a new tree.
func verifyMain(command *cobra.Command, arguments []string) error {
	var equal bool
	var err error

	switch len(arguments) {
	case 2:
		equal, err = engine.VerifyTrees(context.Background(), arguments[0], arguments[1])
	case 3:
		var in *os.File
		in, err = os.Open(arguments[2])
		if err != nil {
			return ferrors.IO(arguments[2], "unable to open container", err)
		}
		defer in.Close()
		equal, err = engine.VerifyManifest(context.Background(), arguments[0], in, arguments[1])
	default:
		return ferrors.Input("", "verify requires 2 arguments (<a> <b>) or 3 (<old> <new> <in.fldf>)", nil)
	}
	if err != nil {
		return err
	}

	if !equal {
		Warning("trees do not match")
		os.Exit(1)
	}
	return nil
}

var verifyCommand = &cobra.Command{
	Use:   "verify <a> <b> | <old> <new> <in.fldf>",
	Short: "Verify two trees match, or that a tree pair matches a diff artifact's preconditions and postconditions",
	RunE: func(command *cobra.Command, arguments []string) error {
		if err := verifyMain(command, arguments); err != nil {
			Fatal(err)
		}
		return nil
	},
}
