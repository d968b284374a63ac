package engine

import (
	"context"
	"errors"
	"os"

	"github.com/yellowsink/foldiff/pkg/foldiff/container"
	"github.com/yellowsink/foldiff/pkg/foldiff/ferrors"
	"github.com/yellowsink/foldiff/pkg/foldiff/scan"
)

// VerifyTrees compares two directory trees for content equality: every
// path must exist on both sides with an identical hash, and neither side
// may contain a path absent from the other.
func VerifyTrees(ctx context.Context, a, b string) (bool, error) {
	aMap, err := scan.Scan(ctx, a)
	if err != nil {
		return false, err
	}
	bMap, err := scan.Scan(ctx, b)
	if err != nil {
		return false, err
	}

	if len(aMap) != len(bMap) {
		return false, nil
	}
	for path, record := range aMap {
		other, ok := bMap[path]
		if !ok || other.Hash != record.Hash {
			return false, nil
		}
	}
	return true, nil
}

// VerifyManifest checks that oldRoot satisfies the manifest's old-side
// preconditions and that newRoot matches exactly what applying the
// manifest would produce, without materializing anything. It is the
// non-destructive counterpart to Apply's validation passes.
func VerifyManifest(ctx context.Context, oldRoot string, in *os.File, newRoot string) (bool, error) {
	cr := container.NewReader(in)
	manifest, err := cr.ReadManifest()
	if err != nil {
		return false, err
	}

	if err := validateOldSide(manifest, oldRoot); err != nil {
		var fe *ferrors.Error
		if errors.As(err, &fe) && fe.Kind() == ferrors.KindIntegrity {
			return false, nil
		}
		return false, err
	}

	newMap, err := scan.Scan(ctx, newRoot)
	if err != nil {
		return false, err
	}

	expected := make(map[string]uint64, len(newMap))
	for _, e := range manifest.Untouched {
		expected[e.Path] = e.Hash
	}
	for _, e := range manifest.New {
		expected[e.Path] = e.Hash
	}
	for _, e := range manifest.Duplicated {
		for _, p := range e.NewPaths {
			expected[p] = e.Hash
		}
	}
	for _, e := range manifest.Patched {
		expected[e.Path] = e.NewHash
	}

	if len(expected) != len(newMap) {
		return false, nil
	}
	for path, wantHash := range expected {
		record, ok := newMap[path]
		if !ok || uint64(record.Hash) != wantHash {
			return false, nil
		}
	}
	return true, nil
}
