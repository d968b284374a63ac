package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yellowsink/foldiff/pkg/foldiff/engine"
	"github.com/yellowsink/foldiff/pkg/foldiff/ferrors"
)

func diffMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 3 {
		return ferrors.Input("", "diff requires exactly 3 arguments: <old-dir> <new-dir> <out.fldf>", nil)
	}
	oldRoot, newRoot, outPath := arguments[0], arguments[1], arguments[2]

	out, err := os.Create(outPath)
	if err != nil {
		return ferrors.IO(outPath, "unable to create output container", err)
	}
	defer out.Close()

	start := time.Now()
	if err := engine.Diff(context.Background(), oldRoot, newRoot, out); err != nil {
		return err
	}

	info, statErr := out.Stat()
	if statErr == nil {
		fmt.Println("wrote", humanize.Bytes(uint64(info.Size())), "in", time.Since(start).Round(time.Millisecond).String())
	}
	return nil
}

var diffCommand = &cobra.Command{
	Use:   "diff <old-dir> <new-dir> <out.fldf>",
	Short: "Compute a diff artifact between two directory trees",
	RunE: func(command *cobra.Command, arguments []string) error {
		if err := diffMain(command, arguments); err != nil {
			Fatal(err)
		}
		return nil
	},
}
