package engine

import (
	"github.com/yellowsink/foldiff/pkg/foldiff/classify"
	"github.com/yellowsink/foldiff/pkg/foldiff/container"
	"github.com/yellowsink/foldiff/pkg/foldiff/fversion"
)

// buildManifest converts a ChangeSet's internal entry types to the
// container package's msgpack-tagged manifest types. The two type sets are
// kept distinct (spec §3 vs §6) since classify's entries carry
// digest.Hash while the wire format carries plain uint64.
func buildManifest(cs *classify.ChangeSet) *container.Manifest {
	m := &container.Manifest{
		Version:    fversion.Current,
		Untouched:  make([]container.UntouchedEntry, len(cs.Untouched)),
		Deleted:    make([]container.DeletedEntry, len(cs.Deleted)),
		New:        make([]container.NewEntry, len(cs.New)),
		Duplicated: make([]container.DuplicatedEntry, len(cs.Duplicated)),
		Patched:    make([]container.PatchedEntry, len(cs.Patched)),
	}

	for i, e := range cs.Untouched {
		m.Untouched[i] = container.UntouchedEntry{Path: e.Path, Hash: uint64(e.Hash)}
	}
	for i, e := range cs.Deleted {
		m.Deleted[i] = container.DeletedEntry{Hash: uint64(e.Hash), Path: e.OldPath}
	}
	for i, e := range cs.New {
		m.New[i] = container.NewEntry{Hash: uint64(e.Hash), Index: e.BlobIndex, Path: e.NewPath}
	}
	for i, e := range cs.Duplicated {
		m.Duplicated[i] = container.DuplicatedEntry{
			Hash:     uint64(e.Hash),
			Index:    e.BlobIndex,
			OldPaths: e.OldPaths,
			NewPaths: e.NewPaths,
		}
	}
	for i, e := range cs.Patched {
		m.Patched[i] = container.PatchedEntry{
			OldHash: uint64(e.OldHash),
			NewHash: uint64(e.NewHash),
			Index:   e.PatchIndex,
			Path:    e.Path,
		}
	}

	return m
}
