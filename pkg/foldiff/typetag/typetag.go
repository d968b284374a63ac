// Package typetag computes the short classification string recorded
// alongside each scanned file (spec §4.1's type_tag), used only for ordering
// patch/new blobs in the container (spec §4.2, Diff-level ordering).
package typetag

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLimit bounds how much of a file is inspected for magic-byte
// detection, matching mimetype's own default read limit.
const sniffLimit = 3072

// Detect inspects up to the first few kilobytes of r (which must be
// positioned at the start of the file) via magic-byte detection. If
// detection fails to identify anything beyond the generic binary/text
// fallback, it falls back to the lowercased extension of name, or the empty
// string if name has none.
//
// Detect does not rewind r; callers that need to re-read the file content
// afterward (e.g. to hash it) are responsible for seeking back to the start.
func Detect(r io.Reader, name string) (string, error) {
	limited := io.LimitReader(r, sniffLimit)
	mtype, err := mimetype.DetectReader(limited)
	if err != nil {
		return "", err
	}

	if tag := extensionFromMIME(mtype); tag != "" {
		return tag, nil
	}

	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	return strings.ToLower(ext), nil
}

// extensionFromMIME extracts a short tag from a detected MIME type's
// canonical extension, skipping the catch-all "application/octet-stream" and
// "text/plain" roots (the top of mimetype's detection tree) since those
// convey no more information than the filename extension fallback.
func extensionFromMIME(mtype *mimetype.MIME) string {
	if mtype == nil {
		return ""
	}
	if mtype.Is("application/octet-stream") || mtype.Is("text/plain") {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(mtype.Extension(), "."))
}
