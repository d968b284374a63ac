// Package newblob implements the whole-file zstd framing used for New
// entries and the new-blob side of Duplicated entries: unlike bindiff's
// per-chunk dictionary mode, a new blob has no old-side counterpart to use
// as a dictionary, so it is compressed as a single ordinary zstd frame.
package newblob

import (
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/yellowsink/foldiff/pkg/foldiff/ferrors"
)

// Compress reads all of r and returns it as a single zstd frame.
func Compress(r io.Reader) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, ferrors.Compression("", "unable to create blob encoder", err)
	}
	defer encoder.Close()

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, ferrors.IO("", "unable to read blob source", err)
	}

	return encoder.EncodeAll(content, nil), nil
}

// Decompress decodes a single zstd frame produced by Compress fully in
// memory, then writes the result to w.
func Decompress(frame []byte, w io.Writer) error {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return ferrors.Compression("", "unable to create blob decoder", err)
	}
	defer decoder.Close()

	content, err := decoder.DecodeAll(frame, nil)
	if err != nil {
		return ferrors.Compression("", "unable to decompress blob", err)
	}

	if _, err := w.Write(content); err != nil {
		return ferrors.IO("", "unable to write decompressed blob", err)
	}
	return nil
}
