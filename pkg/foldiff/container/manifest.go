// Package container implements the streaming FLDF file format: magic
// bytes, a MessagePack manifest, a new-blobs array, and a patch-blobs
// array (spec §4.4/§6).
package container

import "github.com/yellowsink/foldiff/pkg/foldiff/fversion"

// Magic is the 4-byte ASCII header every FLDF stream begins with.
var Magic = [4]byte{'F', 'L', 'D', 'F'}

// NoBlob marks a Duplicated entry whose content needs no new blob because
// every new-side path has a matching old-side source to copy from.
const NoBlob = ^uint64(0)

// UntouchedEntry records a path whose content is identical between old and
// new trees.
type UntouchedEntry struct {
	Path string `msgpack:"path"`
	Hash uint64 `msgpack:"hash"`
}

// DeletedEntry records an old path absent from the new tree. The engine
// never writes it, and neither Apply nor VerifyManifest reads it back.
type DeletedEntry struct {
	Hash uint64 `msgpack:"hash"`
	Path string `msgpack:"path"`
}

// NewEntry records a new-tree path whose content did not exist anywhere in
// the old tree, sourced from new blob Index.
type NewEntry struct {
	Hash  uint64 `msgpack:"hash"`
	Index uint64 `msgpack:"index"`
	Path  string `msgpack:"path"`
}

// DuplicatedEntry records content present under one or more old paths and
// materialized under one or more new paths. Index is NoBlob when every new
// path can be satisfied by copying from an old path.
type DuplicatedEntry struct {
	Hash     uint64   `msgpack:"hash"`
	Index    uint64   `msgpack:"index"`
	OldPaths []string `msgpack:"old_paths"`
	NewPaths []string `msgpack:"new_paths"`
}

// PatchedEntry records a path present in both trees under different
// content, reconstructed by applying patch blob Index to the old file.
type PatchedEntry struct {
	OldHash uint64 `msgpack:"old_hash"`
	NewHash uint64 `msgpack:"new_hash"`
	Index   uint64 `msgpack:"index"`
	Path    string `msgpack:"path"`
}

// Manifest is the MessagePack object following the magic bytes, per the
// field table in spec §6.
type Manifest struct {
	Version    fversion.Version  `msgpack:"version"`
	Untouched  []UntouchedEntry  `msgpack:"untouched"`
	Deleted    []DeletedEntry    `msgpack:"deleted"`
	New        []NewEntry        `msgpack:"new"`
	Duplicated []DuplicatedEntry `msgpack:"duplicated"`
	Patched    []PatchedEntry    `msgpack:"patched"`
}

// NewBlobCount returns the number of blobs the new-blobs array must carry:
// every New entry plus every Duplicated entry that needs one (spec §4.4's
// invariant).
func (m *Manifest) NewBlobCount() uint64 {
	count := uint64(len(m.New))
	for _, d := range m.Duplicated {
		if d.Index != NoBlob {
			count++
		}
	}
	return count
}

// PatchCount returns the number of patch blobs the patch-blobs array must
// carry: one per Patched entry.
func (m *Manifest) PatchCount() uint64 {
	return uint64(len(m.Patched))
}
