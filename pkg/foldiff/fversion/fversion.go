// Package fversion implements the manifest version tuple and its
// compatibility rule: readers accept any manifest whose (major, minor)
// is less than or equal to the current version's (spec §6).
package fversion

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Flag marks a release channel: release, beta, or alpha. Only the major and
// minor components of a Version participate in compatibility checks; patch
// and Flag are advisory.
type Flag byte

// Recognized release flags.
const (
	FlagRelease Flag = 'r'
	FlagBeta    Flag = 'b'
	FlagAlpha   Flag = 'a'
)

func (f Flag) String() string {
	switch f {
	case FlagRelease:
		return "release"
	case FlagBeta:
		return "beta"
	case FlagAlpha:
		return "alpha"
	default:
		return fmt.Sprintf("unknown(%c)", byte(f))
	}
}

// Version is the manifest's `version` field: a 4-element array of
// [major, minor, patch, flag].
type Version struct {
	Major uint8
	Minor uint8
	Patch uint8
	Flag  Flag
}

// Current is the version written by this implementation.
var Current = Version{Major: 1, Minor: 1, Patch: 0, Flag: FlagRelease}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d-%s", v.Major, v.Minor, v.Patch, v.Flag)
}

// Compatible reports whether a manifest carrying v can be read by this
// implementation: (major, minor) must be less than or equal to Current's,
// per spec §6.
func (v Version) Compatible() bool {
	if v.Major != Current.Major {
		return v.Major < Current.Major
	}
	return v.Minor <= Current.Minor
}

// EncodeMsgpack implements msgpack.CustomEncoder, writing v as the
// 4-element [major, minor, patch, flag] array spec §6 specifies.
func (v Version) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(4); err != nil {
		return err
	}
	for _, b := range []uint8{v.Major, v.Minor, v.Patch, uint8(v.Flag)} {
		if err := enc.EncodeUint8(b); err != nil {
			return err
		}
	}
	return nil
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (v *Version) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if n != 4 {
		return fmt.Errorf("version array must have 4 elements, got %d", n)
	}
	fields := make([]uint8, 4)
	for i := range fields {
		b, err := dec.DecodeUint8()
		if err != nil {
			return err
		}
		fields[i] = b
	}
	v.Major, v.Minor, v.Patch, v.Flag = fields[0], fields[1], fields[2], Flag(fields[3])
	return nil
}
