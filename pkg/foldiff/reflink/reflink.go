// Package reflink attempts a copy-on-write clone of a file when the host
// filesystem supports it, falling back to an ordinary byte copy everywhere
// else. Reflink cloning is never a correctness contract (spec §4.5): a
// failed clone attempt silently falls back rather than propagating an
// error.
package reflink

import (
	"io"
	"os"
)

// Clone materializes dst as a copy of src, preferring a reflink-style
// clone (instant, copy-on-write) when the platform and filesystem support
// it, and falling back to a byte-for-byte copy otherwise.
func Clone(dst, src string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	info, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer dstFile.Close()

	if tryClone(dstFile, srcFile) {
		return nil
	}

	if _, err := srcFile.Seek(0, io.SeekStart); err != nil {
		return err
	}
	_, err = io.Copy(dstFile, srcFile)
	return err
}
