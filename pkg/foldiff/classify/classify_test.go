package classify

import (
	"testing"

	"github.com/yellowsink/foldiff/pkg/foldiff/digest"
	"github.com/yellowsink/foldiff/pkg/foldiff/scan"
)

func record(content string, tag string) *scan.Record {
	return &scan.Record{
		Size:    uint64(len(content)),
		Hash:    digest.Of([]byte(content)),
		TypeTag: tag,
	}
}

// TestClassifyS1Untouched covers spec §8 scenario S1: identical trees
// produce a single Untouched entry and nothing else.
func TestClassifyS1Untouched(t *testing.T) {
	old := scan.Map{"a.txt": record("hello", "txt")}
	newMap := scan.Map{"a.txt": record("hello", "txt")}

	cs := Classify(old, newMap)

	if len(cs.Untouched) != 1 || cs.Untouched[0].Path != "a.txt" {
		t.Fatalf("expected one Untouched entry for a.txt, got %+v", cs.Untouched)
	}
	if len(cs.Deleted) != 0 || len(cs.New) != 0 || len(cs.Patched) != 0 || len(cs.Duplicated) != 0 {
		t.Fatalf("expected no other changes, got %+v", cs)
	}
}

// TestClassifyS2Duplicated covers spec §8 scenario S2: a rename with
// identical content produces a Duplicated entry with no blob needed.
func TestClassifyS2Duplicated(t *testing.T) {
	old := scan.Map{"a.txt": record("x", "txt")}
	newMap := scan.Map{"b.txt": record("x", "txt")}

	cs := Classify(old, newMap)

	if len(cs.Duplicated) != 1 {
		t.Fatalf("expected one Duplicated entry, got %d", len(cs.Duplicated))
	}
	dup := cs.Duplicated[0]
	if len(dup.OldPaths) != 1 || dup.OldPaths[0] != "a.txt" {
		t.Fatalf("expected OldPaths=[a.txt], got %v", dup.OldPaths)
	}
	if len(dup.NewPaths) != 1 || dup.NewPaths[0] != "b.txt" {
		t.Fatalf("expected NewPaths=[b.txt], got %v", dup.NewPaths)
	}
	if dup.BlobIndex != NoBlob {
		t.Fatalf("expected BlobIndex=NoBlob, got %d", dup.BlobIndex)
	}
	if len(cs.NewBlobSources) != 0 {
		t.Fatalf("expected no new blobs, got %d", len(cs.NewBlobSources))
	}
}

// TestClassifyS3Patched covers spec §8 scenario S3: same path, differing
// content, produces a single Patched entry.
func TestClassifyS3Patched(t *testing.T) {
	old := scan.Map{"a.bin": record("aaaa", "bin")}
	newMap := scan.Map{"a.bin": record("bbbb", "bin")}

	cs := Classify(old, newMap)

	if len(cs.Patched) != 1 || cs.Patched[0].Path != "a.bin" {
		t.Fatalf("expected one Patched entry for a.bin, got %+v", cs.Patched)
	}
	if len(cs.PatchSources) != 1 {
		t.Fatalf("expected one patch source, got %d", len(cs.PatchSources))
	}
	if cs.Patched[0].PatchIndex != 0 {
		t.Fatalf("expected PatchIndex 0, got %d", cs.Patched[0].PatchIndex)
	}
}

// TestClassifyS4New covers spec §8 scenario S4: an empty old tree against a
// new file produces a single New entry with blob index 0.
func TestClassifyS4New(t *testing.T) {
	old := scan.Map{}
	newMap := scan.Map{"f": record("new", "")}

	cs := Classify(old, newMap)

	if len(cs.New) != 1 || cs.New[0].NewPath != "f" {
		t.Fatalf("expected one New entry for f, got %+v", cs.New)
	}
	if cs.New[0].BlobIndex != 0 {
		t.Fatalf("expected blob index 0, got %d", cs.New[0].BlobIndex)
	}
	if len(cs.NewBlobSources) != 1 || cs.NewBlobSources[0].SourcePath != "f" {
		t.Fatalf("expected new blob source f, got %+v", cs.NewBlobSources)
	}
}

// TestClassifyS5Deleted covers spec §8 scenario S5: a file removed in the
// new tree produces a single Deleted entry and no blobs.
func TestClassifyS5Deleted(t *testing.T) {
	old := scan.Map{"old": record("a", "")}
	newMap := scan.Map{}

	cs := Classify(old, newMap)

	if len(cs.Deleted) != 1 || cs.Deleted[0].OldPath != "old" {
		t.Fatalf("expected one Deleted entry for old, got %+v", cs.Deleted)
	}
	if len(cs.New) != 0 || len(cs.Patched) != 0 || len(cs.Duplicated) != 0 {
		t.Fatalf("expected no other changes, got %+v", cs)
	}
}

// TestClassifyIdentity covers spec §8 invariant 2: diffing a tree against
// itself covers every path as Untouched and produces no other entries.
func TestClassifyIdentity(t *testing.T) {
	tree := scan.Map{
		"a.txt":        record("alpha", "txt"),
		"dir/b.txt":    record("beta", "txt"),
		"dir/sub/c.go": record("gamma", "go"),
	}

	cs := Classify(tree, tree)

	if len(cs.Untouched) != len(tree) {
		t.Fatalf("expected %d Untouched entries, got %d", len(tree), len(cs.Untouched))
	}
	if len(cs.New) != 0 || len(cs.Deleted) != 0 || len(cs.Patched) != 0 || len(cs.Duplicated) != 0 {
		t.Fatalf("expected no other changes for identity diff, got %+v", cs)
	}
}

// TestClassifyPartition covers spec §8 invariant 4: every old path appears
// in exactly one list, and every new path appears in exactly one list.
func TestClassifyPartition(t *testing.T) {
	old := scan.Map{
		"untouched.txt": record("same", "txt"),
		"renamed.txt":   record("dup", "txt"),
		"patched.bin":   record("old-content", "bin"),
		"deleted.txt":   record("gone", "txt"),
	}
	newMap := scan.Map{
		"untouched.txt":  record("same", "txt"),
		"renamed-to.txt": record("dup", "txt"),
		"patched.bin":    record("new-content", "bin"),
		"created.txt":    record("fresh", "txt"),
	}

	cs := Classify(old, newMap)

	oldSeen := map[string]int{}
	for _, e := range cs.Untouched {
		oldSeen[e.Path]++
	}
	for _, e := range cs.Deleted {
		oldSeen[e.OldPath]++
	}
	for _, e := range cs.Patched {
		oldSeen[e.Path]++
	}
	for _, d := range cs.Duplicated {
		for _, p := range d.OldPaths {
			oldSeen[p]++
		}
	}
	for p, count := range oldSeen {
		if count != 1 {
			t.Fatalf("old path %q appeared %d times, expected exactly 1", p, count)
		}
	}
	if len(oldSeen) != len(old) {
		t.Fatalf("expected all %d old paths accounted for, saw %d", len(old), len(oldSeen))
	}

	newSeen := map[string]int{}
	for _, e := range cs.Untouched {
		newSeen[e.Path]++
	}
	for _, e := range cs.New {
		newSeen[e.NewPath]++
	}
	for _, e := range cs.Patched {
		newSeen[e.Path]++
	}
	for _, d := range cs.Duplicated {
		for _, p := range d.NewPaths {
			newSeen[p]++
		}
	}
	for p, count := range newSeen {
		if count != 1 {
			t.Fatalf("new path %q appeared %d times, expected exactly 1", p, count)
		}
	}
	if len(newSeen) != len(newMap) {
		t.Fatalf("expected all %d new paths accounted for, saw %d", len(newMap), len(newSeen))
	}
}

// TestClassifyBlobIndicesContiguous covers spec §3's invariant that
// blob_index values in New form a 0-based contiguous permutation.
func TestClassifyBlobIndicesContiguous(t *testing.T) {
	old := scan.Map{}
	newMap := scan.Map{
		"a": record("alpha-content", "a"),
		"b": record("beta-content", "b"),
		"c": record("gamma-content", "c"),
	}

	cs := Classify(old, newMap)

	seen := make(map[uint64]bool)
	for _, e := range cs.New {
		if e.BlobIndex >= uint64(len(cs.New)) {
			t.Fatalf("blob index %d out of range for %d New entries", e.BlobIndex, len(cs.New))
		}
		if seen[e.BlobIndex] {
			t.Fatalf("duplicate blob index %d", e.BlobIndex)
		}
		seen[e.BlobIndex] = true
	}
}
