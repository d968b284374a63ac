package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yellowsink/foldiff/pkg/foldiff/classify"
	"github.com/yellowsink/foldiff/pkg/foldiff/container"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
}

func diffToBuffer(t *testing.T, oldRoot, newRoot string) []byte {
	t.Helper()
	tmp, err := os.CreateTemp(t.TempDir(), "fldf")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	defer tmp.Close()

	if err := Diff(context.Background(), oldRoot, newRoot, tmp); err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if _, err := tmp.Seek(0, 0); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	data, err := os.ReadFile(tmp.Name())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return data
}

// TestDiffApplyRoundTrip covers spec §8's round-trip invariant: apply(old,
// diff(old, new)) reproduces new byte-for-byte.
func TestDiffApplyRoundTrip(t *testing.T) {
	oldRoot := t.TempDir()
	newRoot := t.TempDir()
	outRoot := t.TempDir()

	writeTree(t, oldRoot, map[string]string{
		"same.txt":       "unchanged content",
		"renamed.txt":    "duplicate content",
		"modified.bin":   strings.Repeat("old-", 2000),
		"removed.txt":    "going away",
		"dir/nested.txt": "nested old",
	})
	writeTree(t, newRoot, map[string]string{
		"same.txt":         "unchanged content",
		"renamed-to.txt":   "duplicate content",
		"modified.bin":     strings.Repeat("new-", 2000),
		"created.txt":      "brand new",
		"dir/nested.txt":   "nested old",
		"dir/also-new.txt": "also new content",
	})

	containerBytes := diffToBuffer(t, oldRoot, newRoot)

	containerFile, err := os.CreateTemp(t.TempDir(), "fldf")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	if _, err := containerFile.Write(containerBytes); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := containerFile.Seek(0, 0); err != nil {
		t.Fatalf("Seek: %v", err)
	}

	if err := Apply(context.Background(), oldRoot, containerFile, outRoot); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	containerFile.Close()

	equal, err := VerifyTrees(context.Background(), newRoot, outRoot)
	if err != nil {
		t.Fatalf("VerifyTrees: %v", err)
	}
	if !equal {
		t.Fatal("applied tree does not match expected new tree")
	}

	if _, err := os.Stat(filepath.Join(outRoot, "removed.txt")); !os.IsNotExist(err) {
		t.Fatal("expected removed.txt to be absent from applied tree")
	}
}

// TestDiffIdentity diffs a tree against itself and checks that applying the
// result to that tree reproduces it exactly.
func TestDiffIdentity(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":     "alpha",
		"dir/b.txt": "beta",
	})

	outRoot := t.TempDir()
	containerBytes := diffToBuffer(t, root, root)

	containerFile, err := os.CreateTemp(t.TempDir(), "fldf")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	if _, err := containerFile.Write(containerBytes); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := containerFile.Seek(0, 0); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	defer containerFile.Close()

	if err := Apply(context.Background(), root, containerFile, outRoot); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	equal, err := VerifyTrees(context.Background(), root, outRoot)
	if err != nil {
		t.Fatalf("VerifyTrees: %v", err)
	}
	if !equal {
		t.Fatal("identity diff/apply did not reproduce the source tree")
	}
}

func TestVerifyTreesDetectsDifference(t *testing.T) {
	a := t.TempDir()
	b := t.TempDir()
	writeTree(t, a, map[string]string{"f.txt": "one"})
	writeTree(t, b, map[string]string{"f.txt": "two"})

	equal, err := VerifyTrees(context.Background(), a, b)
	if err != nil {
		t.Fatalf("VerifyTrees: %v", err)
	}
	if equal {
		t.Fatal("expected trees with differing content to compare unequal")
	}
}

// TestWriteNewBlobsReturnsPromptlyOnWorkerError covers spec §5/§7's "the
// first error cancels peers" guarantee: one source with no backing file
// among several valid ones must not cause writeNewBlobs to hang forever
// with every other producer blocked inside Sequencer.Submit waiting for an
// index that its failed peer will never reach.
func TestWriteNewBlobsReturnsPromptlyOnWorkerError(t *testing.T) {
	newRoot := t.TempDir()

	// No file backs index 0, so its producer fails at os.Open and returns
	// before ever calling Sequencer.Submit(0, ...); every later index's
	// producer, once it succeeds, blocks in Submit waiting for index 0 to
	// arrive. This is the scenario a context-unaware Sequencer would hang
	// on forever.
	sources := []classify.NewBlobSource{{SourcePath: "missing.bin"}}
	for i := 1; i <= 8; i++ {
		name := fmt.Sprintf("ok-%d.bin", i)
		writeTree(t, newRoot, map[string]string{name: strings.Repeat("x", 4096)})
		sources = append(sources, classify.NewBlobSource{SourcePath: name})
	}

	var buf bytes.Buffer
	cw := container.NewWriter(&buf)

	done := make(chan error, 1)
	go func() {
		done <- writeNewBlobs(context.Background(), cw, newRoot, sources)
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected writeNewBlobs to fail on the missing source file")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("writeNewBlobs hung instead of returning the missing-file error")
	}
}
