// Package scan implements the Scanner component: it walks a directory tree
// and yields a (relative-path, size, content-hash, type-tag) record for
// every regular file (spec §4.1).
package scan

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/yellowsink/foldiff/pkg/foldiff/digest"
	"github.com/yellowsink/foldiff/pkg/foldiff/ferrors"
	"github.com/yellowsink/foldiff/pkg/foldiff/logging"
	"github.com/yellowsink/foldiff/pkg/foldiff/typetag"
	"github.com/yellowsink/foldiff/pkg/foldiff/workerpool"
)

// log is the scan package's logger.
var log = logging.RootLogger.Sublogger("scan")

// Record is the Scanner's output for a single regular file: a
// root-relative, forward-slash-normalized path, its size, its content hash,
// and a short type tag used only for ordering (spec §3, FileRecord).
type Record struct {
	// Path is forward-slash-separated and relative to the scan root, with no
	// leading "./" and no trailing "/".
	Path string
	// Size is the file's size in bytes.
	Size uint64
	// Hash is the XXH3-64 digest of the file's full content.
	Hash digest.Hash
	// TypeTag is a short classification string derived from content
	// inspection or, failing that, the lowercased file extension.
	TypeTag string
}

// Map is the Scanner's output: a mapping from Path to Record.
type Map map[string]*Record

// ErrSymbolicLink indicates that a symbolic link was encountered during a
// scan, which is fatal per spec §4.1 and §8 (scenario S6).
var ErrSymbolicLink = errors.New("symbolic link encountered")

// Scan walks root recursively and returns a Map keyed by root-relative,
// forward-slash-normalized path. Directories with no regular-file
// descendants produce nothing. A symbolic link anywhere in the tree causes a
// fatal *ferrors.Error wrapping ErrSymbolicLink.
func Scan(ctx context.Context, root string) (Map, error) {
	// Collect the set of regular file paths first (a cheap, single-threaded
	// walk), then hash them in parallel. This mirrors the two-phase shape of
	// the teacher's directory/file handlers, but flattened because Foldiff
	// has no baseline-reuse or ignore-mask bookkeeping to carry through the
	// walk.
	type pending struct {
		absolute string
		relative string
	}
	var files []pending

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return ferrors.Input(path, "root directory does not exist", err)
			}
			return ferrors.IO(path, "unable to walk directory", err)
		}

		// Determine the path relative to root, normalized to forward
		// slashes with no leading "./" and no trailing "/".
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return ferrors.IO(path, "unable to compute relative path", relErr)
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			rel = ""
		}
		// Recompose Unicode so that a path decomposed by the host filesystem
		// (e.g. HFS+'s NFD-normalized names on macOS) hashes to the same Path
		// key as its NFC-normalized counterpart elsewhere, matching the
		// teacher's recomposeUnicode handling.
		rel = norm.NFC.String(rel)

		info, infoErr := d.Info()
		if infoErr != nil {
			return ferrors.IO(path, "unable to stat entry", infoErr)
		}

		if info.Mode()&os.ModeSymlink != 0 {
			return ferrors.Input(rel, "symbolic links are not supported", ErrSymbolicLink)
		}

		if d.IsDir() {
			return nil
		}
		if !info.Mode().IsRegular() {
			// Non-regular, non-symlink, non-directory content (devices,
			// sockets, etc.) has no representation in the data model and is
			// silently skipped, matching the "only regular files" traversal
			// rule in spec §4.1.
			return nil
		}

		files = append(files, pending{absolute: path, relative: rel})
		return nil
	})
	if err != nil {
		var fe *ferrors.Error
		if errors.As(err, &fe) {
			return nil, fe
		}
		return nil, ferrors.IO(root, "unable to walk directory", err)
	}

	result := make(Map, len(files))
	var resultMu sync.Mutex

	pool := workerpool.New(ctx, workerpool.DefaultConcurrency())

	for _, f := range files {
		f := f
		pool.Go(func(workCtx context.Context) error {
			select {
			case <-workCtx.Done():
				return ferrors.Cancelled()
			default:
			}

			record, fileErr := scanFile(f.absolute, f.relative)
			if fileErr != nil {
				return fileErr
			}

			resultMu.Lock()
			result[f.relative] = record
			resultMu.Unlock()
			return nil
		})
	}

	if err := pool.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}

// scanFile hashes a single file and determines its type tag.
func scanFile(absolute, relative string) (*Record, error) {
	file, err := os.Open(absolute)
	if err != nil {
		return nil, ferrors.IO(relative, "unable to open file", err)
	}
	defer file.Close()

	tag, tagErr := typetag.Detect(file, filepath.Base(relative))
	if tagErr != nil {
		return nil, ferrors.IO(relative, "unable to classify file content", tagErr)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, ferrors.IO(relative, "unable to rewind file after classification", err)
	}

	hash, size, hashErr := digest.Stream(file)
	if hashErr != nil {
		return nil, ferrors.IO(relative, "unable to hash file contents", hashErr)
	}

	log.Debugf("scanned %s (%d bytes, tag %q)", relative, size, tag)

	return &Record{
		Path:    relative,
		Size:    size,
		Hash:    hash,
		TypeTag: tag,
	}, nil
}

// SortedPaths returns the paths in m sorted in plain lexicographic order,
// primarily useful for deterministic test fixtures and diagnostic output.
func SortedPaths(m Map) []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
