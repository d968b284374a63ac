package engine

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/yellowsink/foldiff/pkg/foldiff/bindiff"
	"github.com/yellowsink/foldiff/pkg/foldiff/container"
	"github.com/yellowsink/foldiff/pkg/foldiff/digest"
	"github.com/yellowsink/foldiff/pkg/foldiff/ferrors"
	"github.com/yellowsink/foldiff/pkg/foldiff/newblob"
	"github.com/yellowsink/foldiff/pkg/foldiff/reflink"
	"github.com/yellowsink/foldiff/pkg/foldiff/workerpool"
)

// Apply reads an FLDF container from in and materializes newRoot from
// oldRoot, following the fixed six-step execution order in spec §4.5.
func Apply(ctx context.Context, oldRoot string, in *os.File, newRoot string) (err error) {
	runID := uuid.New()
	log.Printf("[%s] applying into %s", runID, newRoot)

	cr := container.NewReader(in)

	// Step 1: parse manifest.
	manifest, err := cr.ReadManifest()
	if err != nil {
		return err
	}

	var created []string
	defer func() {
		if err != nil {
			for i := len(created) - 1; i >= 0; i-- {
				os.Remove(created[i])
			}
		}
	}()

	// Step 2: validate old-side preconditions.
	if err = validateOldSide(manifest, oldRoot); err != nil {
		return err
	}

	// Step 3: Untouched & Duplicated, materialized by reflink/copy from the
	// old tree. Independent, so it may run in parallel.
	if err = materializeCopies(ctx, manifest, oldRoot, newRoot, &created); err != nil {
		return err
	}

	// Step 4: Deleted is a no-op in the new tree.

	// Step 5: New. Stream blobs in order, decompress into destination.
	if err = materializeNewBlobs(ctx, cr, manifest, newRoot, &created); err != nil {
		return err
	}

	// Step 6: Patched. Stream patch blobs in order, apply against old file.
	if err = materializePatches(ctx, cr, manifest, oldRoot, newRoot, &created); err != nil {
		return err
	}

	// Post-condition: verify every written file's hash.
	if err = verifyNewSideHashes(manifest, newRoot); err != nil {
		return err
	}

	return nil
}

func validateOldSide(manifest *container.Manifest, oldRoot string) error {
	check := func(path string, want uint64) error {
		f, err := os.Open(filepath.Join(oldRoot, filepath.FromSlash(path)))
		if err != nil {
			return ferrors.IO(path, "unable to open old file for validation", err)
		}
		defer f.Close()

		hash, _, err := digest.Stream(f)
		if err != nil {
			return ferrors.IO(path, "unable to hash old file", err)
		}
		if uint64(hash) != want {
			return ferrors.Integrity(path, "old file content does not match manifest precondition", nil)
		}
		return nil
	}

	for _, e := range manifest.Untouched {
		if err := check(e.Path, e.Hash); err != nil {
			return err
		}
	}
	for _, e := range manifest.Duplicated {
		for _, p := range e.OldPaths {
			if err := check(p, e.Hash); err != nil {
				return err
			}
		}
	}
	for _, e := range manifest.Patched {
		if err := check(e.Path, e.OldHash); err != nil {
			return err
		}
	}
	return nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ferrors.IO(dir, "unable to create parent directory", err)
	}
	return nil
}

// materializeCopies handles step 3: Untouched entries are re-cloned at
// their own path, Duplicated entries are cloned from one canonical old path
// to every new path (falling back to the freshly written blob for any new
// path with no old-side source).
func materializeCopies(ctx context.Context, manifest *container.Manifest, oldRoot, newRoot string, created *[]string) error {
	pool := workerpool.New(ctx, workerpool.DefaultConcurrency())
	createdMu := &createdList{list: created}

	for _, e := range manifest.Untouched {
		e := e
		pool.Go(func(workCtx context.Context) error {
			select {
			case <-workCtx.Done():
				return ferrors.Cancelled()
			default:
			}
			dst := filepath.Join(newRoot, filepath.FromSlash(e.Path))
			if err := ensureParentDir(dst); err != nil {
				return err
			}
			src := filepath.Join(oldRoot, filepath.FromSlash(e.Path))
			if err := reflink.Clone(dst, src); err != nil {
				return ferrors.IO(e.Path, "unable to materialize untouched file", err)
			}
			createdMu.add(dst)
			return nil
		})
	}

	for _, e := range manifest.Duplicated {
		e := e
		if len(e.OldPaths) == 0 {
			continue
		}
		canonicalOld := e.OldPaths[0]
		oldPathSet := make(map[string]bool, len(e.OldPaths))
		for _, p := range e.OldPaths {
			oldPathSet[p] = true
		}

		for _, newPath := range e.NewPaths {
			if !oldPathSet[newPath] && e.Index == container.NoBlob {
				// Every new path with no matching old path must be covered by
				// a new blob per the Classifier's invariant; Index == NoBlob
				// here would mean the manifest is inconsistent.
				return ferrors.Format("duplicated entry has an uncovered new path but no blob index", nil)
			}
			if !oldPathSet[newPath] {
				// Materialized from the blob in step 5; skip here.
				continue
			}
			newPath := newPath
			pool.Go(func(workCtx context.Context) error {
				select {
				case <-workCtx.Done():
					return ferrors.Cancelled()
				default:
				}
				dst := filepath.Join(newRoot, filepath.FromSlash(newPath))
				if err := ensureParentDir(dst); err != nil {
					return err
				}
				src := filepath.Join(oldRoot, filepath.FromSlash(canonicalOld))
				if err := reflink.Clone(dst, src); err != nil {
					return ferrors.IO(newPath, "unable to materialize duplicated file", err)
				}
				createdMu.add(dst)
				return nil
			})
		}
	}

	return pool.Wait()
}

// createdList serializes appends to the shared created-files cleanup list.
type createdList struct {
	mu   sync.Mutex
	list *[]string
}

func (c *createdList) add(path string) {
	c.mu.Lock()
	*c.list = append(*c.list, path)
	c.mu.Unlock()
}

// materializeNewBlobs handles step 5: stream new_count blobs in order,
// decompressing each into every destination path that needs it (its New
// entry's path, plus any Duplicated new path with no old-side source).
func materializeNewBlobs(ctx context.Context, cr *container.Reader, manifest *container.Manifest, newRoot string, created *[]string) error {
	count, err := cr.ReadNewBlobCount()
	if err != nil {
		return err
	}

	destinations := make(map[uint64][]string, count)
	for _, e := range manifest.New {
		destinations[e.Index] = append(destinations[e.Index], e.Path)
	}
	for _, e := range manifest.Duplicated {
		if e.Index == container.NoBlob {
			continue
		}
		oldPathSet := make(map[string]bool, len(e.OldPaths))
		for _, p := range e.OldPaths {
			oldPathSet[p] = true
		}
		for _, p := range e.NewPaths {
			if !oldPathSet[p] {
				destinations[e.Index] = append(destinations[e.Index], p)
			}
		}
	}

	for i := uint64(0); i < count; i++ {
		select {
		case <-ctx.Done():
			return ferrors.Cancelled()
		default:
		}

		frame, err := cr.ReadNewBlob()
		if err != nil {
			return err
		}

		paths := destinations[i]
		if len(paths) == 0 {
			continue
		}

		primary := filepath.Join(newRoot, filepath.FromSlash(paths[0]))
		if err := ensureParentDir(primary); err != nil {
			return err
		}
		primaryFile, err := os.Create(primary)
		if err != nil {
			return ferrors.IO(paths[0], "unable to create new file", err)
		}
		if err := newblob.Decompress(frame, primaryFile); err != nil {
			primaryFile.Close()
			return err
		}
		primaryFile.Close()
		*created = append(*created, primary)

		for _, extra := range paths[1:] {
			dst := filepath.Join(newRoot, filepath.FromSlash(extra))
			if err := ensureParentDir(dst); err != nil {
				return err
			}
			if err := reflink.Clone(dst, primary); err != nil {
				return ferrors.IO(extra, "unable to materialize duplicated new blob", err)
			}
			*created = append(*created, dst)
		}
	}

	return nil
}

// materializePatches handles step 6: stream patch_count patch blobs in
// order, applying each against its old-side file.
func materializePatches(ctx context.Context, cr *container.Reader, manifest *container.Manifest, oldRoot, newRoot string, created *[]string) error {
	count, err := cr.ReadPatchCount()
	if err != nil {
		return err
	}
	if count != uint64(len(manifest.Patched)) {
		return ferrors.Format("patch count does not match manifest", nil)
	}

	byIndex := make(map[uint64]container.PatchedEntry, len(manifest.Patched))
	for _, e := range manifest.Patched {
		byIndex[e.Index] = e
	}

	for i := uint64(0); i < count; i++ {
		select {
		case <-ctx.Done():
			return ferrors.Cancelled()
		default:
		}

		entry, ok := byIndex[i]
		if !ok {
			return ferrors.Format("patch blob has no matching manifest entry", nil)
		}

		chunkCount, err := cr.ReadPatchChunkCount()
		if err != nil {
			return err
		}

		oldPath := filepath.Join(oldRoot, filepath.FromSlash(entry.Path))
		oldFile, err := os.Open(oldPath)
		if err != nil {
			return ferrors.IO(entry.Path, "unable to open old file for patch", err)
		}

		dst := filepath.Join(newRoot, filepath.FromSlash(entry.Path))
		if err := ensureParentDir(dst); err != nil {
			oldFile.Close()
			return err
		}
		dstFile, err := os.Create(dst)
		if err != nil {
			oldFile.Close()
			return ferrors.IO(entry.Path, "unable to create patched file", err)
		}

		oldInfo, err := oldFile.Stat()
		if err != nil {
			oldFile.Close()
			dstFile.Close()
			return ferrors.IO(entry.Path, "unable to stat old file for patch", err)
		}

		readIndex := 0
		err = bindiff.Decode(oldFile, uint64(oldInfo.Size()), func(index int) ([]byte, error) {
			if uint64(index) >= chunkCount {
				return nil, ferrors.Format("patch chunk index out of range", nil)
			}
			readIndex++
			return cr.ReadChunk()
		}, dstFile)

		oldFile.Close()
		dstFile.Close()
		if err != nil {
			return err
		}
		if uint64(readIndex) != chunkCount {
			return ferrors.Format("patch declared chunk count does not match chunks consumed", nil)
		}

		*created = append(*created, dst)
	}

	return nil
}

func verifyNewSideHashes(manifest *container.Manifest, newRoot string) error {
	check := func(path string, want uint64) error {
		f, err := os.Open(filepath.Join(newRoot, filepath.FromSlash(path)))
		if err != nil {
			return ferrors.IO(path, "unable to open new file for verification", err)
		}
		defer f.Close()

		hash, _, err := digest.Stream(f)
		if err != nil {
			return ferrors.IO(path, "unable to hash new file", err)
		}
		if uint64(hash) != want {
			return ferrors.Integrity(path, "materialized file does not match manifest new_hash", nil)
		}
		return nil
	}

	for _, e := range manifest.Untouched {
		if err := check(e.Path, e.Hash); err != nil {
			return err
		}
	}
	for _, e := range manifest.New {
		if err := check(e.Path, e.Hash); err != nil {
			return err
		}
	}
	for _, e := range manifest.Duplicated {
		for _, p := range e.NewPaths {
			if err := check(p, e.Hash); err != nil {
				return err
			}
		}
	}
	for _, e := range manifest.Patched {
		if err := check(e.Path, e.NewHash); err != nil {
			return err
		}
	}
	return nil
}
