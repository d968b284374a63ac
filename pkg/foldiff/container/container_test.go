package container

import (
	"bytes"
	"testing"

	"github.com/yellowsink/foldiff/pkg/foldiff/fversion"
)

func sampleManifest() *Manifest {
	return &Manifest{
		Version:   fversion.Current,
		Untouched: []UntouchedEntry{{Path: "a.txt", Hash: 1}},
		Deleted:   []DeletedEntry{{Path: "old.txt", Hash: 2}},
		New:       []NewEntry{{Path: "new.txt", Hash: 3, Index: 0}},
		Duplicated: []DuplicatedEntry{
			{Hash: 4, Index: NoBlob, OldPaths: []string{"x.txt"}, NewPaths: []string{"y.txt"}},
		},
		Patched: []PatchedEntry{{Path: "p.bin", OldHash: 5, NewHash: 6, Index: 0}},
	}
}

func TestManifestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	m := sampleManifest()
	if err := w.WriteManifest(m); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}

	r := NewReader(&buf)
	got, err := r.ReadManifest()
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}

	if got.Version != m.Version {
		t.Fatalf("version mismatch: got %+v, want %+v", got.Version, m.Version)
	}
	if len(got.Untouched) != 1 || got.Untouched[0] != m.Untouched[0] {
		t.Fatalf("untouched mismatch: got %+v", got.Untouched)
	}
	if len(got.Duplicated) != 1 || got.Duplicated[0].Index != NoBlob {
		t.Fatalf("duplicated mismatch: got %+v", got.Duplicated)
	}
}

func TestBadMagicRejected(t *testing.T) {
	buf := bytes.NewBufferString("NOPE-not-a-container")
	r := NewReader(buf)
	if _, err := r.ReadManifest(); err == nil {
		t.Fatal("expected error for bad magic bytes")
	}
}

func TestFullContainerStream(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	m := sampleManifest()
	if err := w.WriteManifest(m); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}

	newBlobs := [][]byte{[]byte("blob-zero-content")}
	if err := w.WriteNewBlobCount(uint64(len(newBlobs))); err != nil {
		t.Fatalf("WriteNewBlobCount: %v", err)
	}
	for _, b := range newBlobs {
		if err := w.WriteNewBlob(b); err != nil {
			t.Fatalf("WriteNewBlob: %v", err)
		}
	}

	patchChunks := [][]byte{[]byte("chunk-a"), []byte("chunk-b")}
	if err := w.WritePatchCount(1); err != nil {
		t.Fatalf("WritePatchCount: %v", err)
	}
	if err := w.WritePatchChunkCount(uint64(len(patchChunks))); err != nil {
		t.Fatalf("WritePatchChunkCount: %v", err)
	}
	for _, c := range patchChunks {
		if err := w.WriteChunk(c); err != nil {
			t.Fatalf("WriteChunk: %v", err)
		}
	}

	r := NewReader(&buf)
	if _, err := r.ReadManifest(); err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}

	blobCount, err := r.ReadNewBlobCount()
	if err != nil || blobCount != 1 {
		t.Fatalf("ReadNewBlobCount: %d, %v", blobCount, err)
	}
	blob, err := r.ReadNewBlob()
	if err != nil || string(blob) != "blob-zero-content" {
		t.Fatalf("ReadNewBlob: %q, %v", blob, err)
	}

	patchCount, err := r.ReadPatchCount()
	if err != nil || patchCount != 1 {
		t.Fatalf("ReadPatchCount: %d, %v", patchCount, err)
	}
	chunkCount, err := r.ReadPatchChunkCount()
	if err != nil || chunkCount != 2 {
		t.Fatalf("ReadPatchChunkCount: %d, %v", chunkCount, err)
	}
	for i, want := range patchChunks {
		got, err := r.ReadChunk()
		if err != nil || !bytes.Equal(got, want) {
			t.Fatalf("ReadChunk(%d): %q, %v", i, got, err)
		}
	}
}
