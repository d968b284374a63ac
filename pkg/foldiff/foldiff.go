// Package foldiff provides shared constants and process-wide knobs for the
// Foldiff diff-artifact engine.
package foldiff

import (
	"os"

	"github.com/yellowsink/foldiff/pkg/foldiff/fversion"
)

// DebugEnabled reports whether the FOLDIFF_DEBUG environment variable is set
// to "1". Nothing in this module reads it; in particular it does not change
// the level of any logging.Logger.
var DebugEnabled bool

func init() {
	DebugEnabled = os.Getenv("FOLDIFF_DEBUG") == "1"
}

// VersionString returns the current manifest format version in the form
// printed by `foldiff --version`.
func VersionString() string {
	return fversion.Current.String()
}
