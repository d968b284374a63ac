// Package engine orchestrates the Scanner, Classifier, BinaryDiffer, and
// Container components into the three operations Foldiff exposes: Diff,
// Apply, and Verify (spec §2).
package engine

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/yellowsink/foldiff/pkg/foldiff/bindiff"
	"github.com/yellowsink/foldiff/pkg/foldiff/classify"
	"github.com/yellowsink/foldiff/pkg/foldiff/container"
	"github.com/yellowsink/foldiff/pkg/foldiff/ferrors"
	"github.com/yellowsink/foldiff/pkg/foldiff/logging"
	"github.com/yellowsink/foldiff/pkg/foldiff/newblob"
	"github.com/yellowsink/foldiff/pkg/foldiff/scan"
	"github.com/yellowsink/foldiff/pkg/foldiff/workerpool"
)

var log = logging.RootLogger.Sublogger("engine")

// Diff scans oldRoot and newRoot, classifies the result, and streams an
// FLDF container to out: Scanner(old), Scanner(new) -> Classifier ->
// {for each Patched} BinaryDiffer -> Container.write (spec §2).
func Diff(ctx context.Context, oldRoot, newRoot string, out *os.File) error {
	runID := uuid.New()
	log.Printf("[%s] diffing %s -> %s", runID, oldRoot, newRoot)

	oldMap, err := scan.Scan(ctx, oldRoot)
	if err != nil {
		return err
	}
	newMap, err := scan.Scan(ctx, newRoot)
	if err != nil {
		return err
	}

	cs := classify.Classify(oldMap, newMap)
	log.Printf("classified %d untouched, %d duplicated, %d deleted, %d new, %d patched",
		len(cs.Untouched), len(cs.Duplicated), len(cs.Deleted), len(cs.New), len(cs.Patched))

	manifest := buildManifest(cs)
	cw := container.NewWriter(out)
	if err := cw.WriteManifest(manifest); err != nil {
		return err
	}

	if err := writeNewBlobs(ctx, cw, newRoot, cs.NewBlobSources); err != nil {
		return err
	}
	if err := writePatches(ctx, cw, oldRoot, newRoot, oldMap, cs.PatchSources); err != nil {
		return err
	}

	return nil
}

// writeNewBlobs compresses each new-blob source in parallel and feeds the
// results into the container writer in index order via a Sequencer.
func writeNewBlobs(ctx context.Context, cw *container.Writer, newRoot string, sources []classify.NewBlobSource) error {
	if err := cw.WriteNewBlobCount(uint64(len(sources))); err != nil {
		return err
	}

	pool := workerpool.New(ctx, workerpool.DefaultConcurrency())
	seq := workerpool.NewSequencer(pool.Context())

	for i, src := range sources {
		i, src := i, src
		pool.Go(func(workCtx context.Context) error {
			select {
			case <-workCtx.Done():
				return ferrors.Cancelled()
			default:
			}

			frame, err := compressNewBlob(filepath.Join(newRoot, filepath.FromSlash(src.SourcePath)))
			if err != nil {
				return err
			}

			return seq.Submit(uint64(i), func() error {
				return cw.WriteNewBlob(frame)
			})
		})
	}

	return pool.Wait()
}

func compressNewBlob(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ferrors.IO(path, "unable to open new blob source", err)
	}
	defer f.Close()

	return newblob.Compress(f)
}

// writePatches runs BinaryDiffer.Encode over each patch source in parallel
// and feeds the resulting chunk sequences into the container writer in
// index order.
func writePatches(ctx context.Context, cw *container.Writer, oldRoot, newRoot string, oldMap scan.Map, sources []classify.PatchSource) error {
	if err := cw.WritePatchCount(uint64(len(sources))); err != nil {
		return err
	}

	pool := workerpool.New(ctx, workerpool.DefaultConcurrency())
	seq := workerpool.NewSequencer(pool.Context())

	for i, src := range sources {
		i, src := i, src
		pool.Go(func(workCtx context.Context) error {
			select {
			case <-workCtx.Done():
				return ferrors.Cancelled()
			default:
			}

			oldRecord, ok := oldMap[src.OldPath]
			if !ok {
				return ferrors.Integrity(src.OldPath, "patch source missing from old scan", nil)
			}

			oldPath := filepath.Join(oldRoot, filepath.FromSlash(src.OldPath))
			newPath := filepath.Join(newRoot, filepath.FromSlash(src.NewPath))

			oldFile, err := os.Open(oldPath)
			if err != nil {
				return ferrors.IO(src.OldPath, "unable to open old file for patching", err)
			}
			defer oldFile.Close()

			newFile, err := os.Open(newPath)
			if err != nil {
				return ferrors.IO(src.NewPath, "unable to open new file for patching", err)
			}
			defer newFile.Close()

			newInfo, err := newFile.Stat()
			if err != nil {
				return ferrors.IO(src.NewPath, "unable to stat new file for patching", err)
			}

			var chunks [][]byte
			err = bindiff.Encode(oldFile, oldRecord.Size, newFile, uint64(newInfo.Size()), func(index int, compressed []byte) error {
				chunks = append(chunks, compressed)
				return nil
			})
			if err != nil {
				return err
			}

			return seq.Submit(uint64(i), func() error {
				if err := cw.WritePatchChunkCount(uint64(len(chunks))); err != nil {
					return err
				}
				for _, c := range chunks {
					if err := cw.WriteChunk(c); err != nil {
						return err
					}
				}
				return nil
			})
		})
	}

	return pool.Wait()
}
