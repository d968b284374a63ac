package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/yellowsink/foldiff/pkg/foldiff/engine"
	"github.com/yellowsink/foldiff/pkg/foldiff/ferrors"
)

func applyMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 3 {
		return ferrors.Input("", "apply requires exactly 3 arguments: <old-dir> <in.fldf> <new-dir>", nil)
	}
	oldRoot, inPath, newRoot := arguments[0], arguments[1], arguments[2]

	in, err := os.Open(inPath)
	if err != nil {
		return ferrors.IO(inPath, "unable to open container", err)
	}
	defer in.Close()

	return engine.Apply(context.Background(), oldRoot, in, newRoot)
}

var applyCommand = &cobra.Command{
	Use:   "apply <old-dir> <in.fldf> <new-dir>",
	Short: "Materialize a new directory tree by applying a diff artifact to an old tree",
	RunE: func(command *cobra.Command, arguments []string) error {
		if err := applyMain(command, arguments); err != nil {
			Fatal(err)
		}
		return nil
	},
}
