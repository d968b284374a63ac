// Package classify implements the Classifier component: it consumes two
// Scanner outputs (old, new) and partitions every path into one of five
// disjoint change kinds (spec §4.2).
package classify

import (
	"math"
	"sort"

	"github.com/yellowsink/foldiff/pkg/foldiff/digest"
	"github.com/yellowsink/foldiff/pkg/foldiff/scan"
)

// NoBlob marks a Duplicated entry that requires no new blob because every
// new-side path it covers already exists at a matching path on the old
// side.
const NoBlob = math.MaxUint64

// UntouchedEntry records a path whose content is identical on both sides.
type UntouchedEntry struct {
	Path string
	Hash digest.Hash
}

// DeletedEntry records a path present only on the old side.
type DeletedEntry struct {
	Hash    digest.Hash
	OldPath string
}

// NewEntry records a path present only on the new side, whose content must
// be materialized from a new blob.
type NewEntry struct {
	Hash      digest.Hash
	NewPath   string
	BlobIndex uint64
}

// DuplicatedEntry records one canonical content hash appearing at one or
// more paths on each side.
type DuplicatedEntry struct {
	Hash      digest.Hash
	OldPaths  []string
	NewPaths  []string
	BlobIndex uint64 // NoBlob if no new blob is required.
}

// PatchedEntry records a path present on both sides whose content differs
// but can be reconstructed from the old content plus a patch.
type PatchedEntry struct {
	OldHash    digest.Hash
	NewHash    digest.Hash
	Path       string
	PatchIndex uint64
}

// NewBlobSource identifies, for a single new-blob index, which new-side path
// supplies the content to compress into that blob.
type NewBlobSource struct {
	Hash       digest.Hash
	SourcePath string
}

// PatchSource identifies, for a single patch index, the old-side and
// new-side paths the BinaryDiffer should read from.
type PatchSource struct {
	OldHash digest.Hash
	NewHash digest.Hash
	OldPath string
	NewPath string
}

// ChangeSet is the Classifier's output: five disjoint lists plus the two
// index-ordered auxiliary arrays that drive container blob production
// (spec §3, §4.2).
type ChangeSet struct {
	Untouched  []UntouchedEntry
	Duplicated []DuplicatedEntry
	Deleted    []DeletedEntry
	New        []NewEntry
	Patched    []PatchedEntry

	// NewBlobSources and PatchSources are ordered so that index i describes
	// the blob/patch that must be written at container position i.
	NewBlobSources []NewBlobSource
	PatchSources   []PatchSource
}

// pendingBlob tracks a not-yet-indexed new blob and which ChangeSet entry
// (and field) its eventual index must be written back into.
type pendingBlob struct {
	hash       digest.Hash
	sourcePath string
	typeTag    string
	assign     func(index uint64)
}

// pendingPatch tracks a not-yet-indexed patch and the PatchedEntry its
// eventual index must be written back into.
type pendingPatch struct {
	oldHash digest.Hash
	newHash digest.Hash
	oldPath string
	newPath string
	typeTag string
	assign  func(index uint64)
}

// Classify partitions every path in oldMap and newMap into a ChangeSet,
// following the ordered algorithm in spec §4.2.
func Classify(oldMap, newMap scan.Map) *ChangeSet {
	// Work on copies so the caller's maps are left untouched.
	remainingOld := make(map[string]*scan.Record, len(oldMap))
	for p, r := range oldMap {
		remainingOld[p] = r
	}
	remainingNew := make(map[string]*scan.Record, len(newMap))
	for p, r := range newMap {
		remainingNew[p] = r
	}

	cs := &ChangeSet{}

	// Step 1: Untouched.
	for p, oldRecord := range remainingOld {
		if newRecord, ok := remainingNew[p]; ok && newRecord.Hash == oldRecord.Hash {
			cs.Untouched = append(cs.Untouched, UntouchedEntry{Path: p, Hash: oldRecord.Hash})
			delete(remainingOld, p)
			delete(remainingNew, p)
		}
	}

	// Step 2: hash indexing over the remainders.
	oldByHash := make(map[digest.Hash][]string, len(remainingOld))
	for p, r := range remainingOld {
		oldByHash[r.Hash] = append(oldByHash[r.Hash], p)
	}
	newByHash := make(map[digest.Hash][]string, len(remainingNew))
	for p, r := range remainingNew {
		newByHash[r.Hash] = append(newByHash[r.Hash], p)
	}

	var pendingBlobs []pendingBlob
	var pendingPatches []pendingPatch

	// Step 3: Duplicated.
	for hash, oldPaths := range oldByHash {
		newPaths, ok := newByHash[hash]
		if !ok {
			continue
		}

		oldPathSet := make(map[string]bool, len(oldPaths))
		for _, p := range oldPaths {
			oldPathSet[p] = true
		}

		needsBlob := false
		for _, p := range newPaths {
			if !oldPathSet[p] {
				needsBlob = true
				break
			}
		}

		sortedOld := append([]string(nil), oldPaths...)
		sort.Slice(sortedOld, func(i, j int) bool { return less(sortedOld[i], sortedOld[j]) })
		sortedNew := append([]string(nil), newPaths...)
		sort.Slice(sortedNew, func(i, j int) bool { return less(sortedNew[i], sortedNew[j]) })

		entry := DuplicatedEntry{
			Hash:     hash,
			OldPaths: sortedOld,
			NewPaths: sortedNew,
		}

		if needsBlob {
			entryIndex := len(cs.Duplicated)
			sourcePath := sortedNew[0]
			pendingBlobs = append(pendingBlobs, pendingBlob{
				hash:       hash,
				sourcePath: sourcePath,
				typeTag:    remainingNew[sourcePath].TypeTag,
				assign: func(index uint64) {
					cs.Duplicated[entryIndex].BlobIndex = index
				},
			})
		} else {
			entry.BlobIndex = NoBlob
		}

		cs.Duplicated = append(cs.Duplicated, entry)

		for _, p := range oldPaths {
			delete(remainingOld, p)
		}
		for _, p := range newPaths {
			delete(remainingNew, p)
		}
	}

	// Step 4: Patched (paths remaining on both sides after steps 1 and 3).
	for p, oldRecord := range remainingOld {
		newRecord, ok := remainingNew[p]
		if !ok {
			continue
		}

		entryIndex := len(cs.Patched)
		cs.Patched = append(cs.Patched, PatchedEntry{
			OldHash: oldRecord.Hash,
			NewHash: newRecord.Hash,
			Path:    p,
		})
		pendingPatches = append(pendingPatches, pendingPatch{
			oldHash: oldRecord.Hash,
			newHash: newRecord.Hash,
			oldPath: p,
			newPath: p,
			typeTag: newRecord.TypeTag,
			assign: func(index uint64) {
				cs.Patched[entryIndex].PatchIndex = index
			},
		})

		delete(remainingOld, p)
		delete(remainingNew, p)
	}

	// Step 5: Deleted.
	for p, r := range remainingOld {
		cs.Deleted = append(cs.Deleted, DeletedEntry{Hash: r.Hash, OldPath: p})
	}

	// Step 6: New.
	for p, r := range remainingNew {
		entryIndex := len(cs.New)
		cs.New = append(cs.New, NewEntry{Hash: r.Hash, NewPath: p})
		pendingBlobs = append(pendingBlobs, pendingBlob{
			hash:       r.Hash,
			sourcePath: p,
			typeTag:    r.TypeTag,
			assign: func(index uint64) {
				cs.New[entryIndex].BlobIndex = index
			},
		})
	}

	// Diff-level ordering: sort owning entries by (type_tag, reversed-segment
	// path) and renumber so on-disk blob/patch order matches this order.
	sort.SliceStable(pendingBlobs, func(i, j int) bool {
		a, b := pendingBlobs[i], pendingBlobs[j]
		if a.typeTag != b.typeTag {
			return a.typeTag < b.typeTag
		}
		return less(a.sourcePath, b.sourcePath)
	})
	cs.NewBlobSources = make([]NewBlobSource, len(pendingBlobs))
	for i, pb := range pendingBlobs {
		pb.assign(uint64(i))
		cs.NewBlobSources[i] = NewBlobSource{Hash: pb.hash, SourcePath: pb.sourcePath}
	}

	sort.SliceStable(pendingPatches, func(i, j int) bool {
		a, b := pendingPatches[i], pendingPatches[j]
		if a.typeTag != b.typeTag {
			return a.typeTag < b.typeTag
		}
		return less(a.newPath, b.newPath)
	})
	cs.PatchSources = make([]PatchSource, len(pendingPatches))
	for i, pp := range pendingPatches {
		pp.assign(uint64(i))
		cs.PatchSources[i] = PatchSource{
			OldHash: pp.oldHash,
			NewHash: pp.newHash,
			OldPath: pp.oldPath,
			NewPath: pp.newPath,
		}
	}

	// Final tie-break sort of the five primary lists by reversed-segment
	// path order.
	sort.Slice(cs.Untouched, func(i, j int) bool { return less(cs.Untouched[i].Path, cs.Untouched[j].Path) })
	sort.Slice(cs.Deleted, func(i, j int) bool { return less(cs.Deleted[i].OldPath, cs.Deleted[j].OldPath) })
	sort.Slice(cs.New, func(i, j int) bool { return less(cs.New[i].NewPath, cs.New[j].NewPath) })
	sort.Slice(cs.Patched, func(i, j int) bool { return less(cs.Patched[i].Path, cs.Patched[j].Path) })
	sort.Slice(cs.Duplicated, func(i, j int) bool { return less(cs.Duplicated[i].OldPaths[0], cs.Duplicated[j].OldPaths[0]) })

	return cs
}
