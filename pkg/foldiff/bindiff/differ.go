// Package bindiff implements the BinaryDiffer component: given two file
// handles of similar content, it produces a sequence of compressed chunk
// blobs, each encoded with the corresponding old-file chunk as a zstd
// dictionary (spec §4.3).
package bindiff

import (
	"io"
	"math/bits"

	"github.com/klauspost/compress/zstd"

	"github.com/yellowsink/foldiff/pkg/foldiff/ferrors"
)

// minWindowLog and maxWindowLog bound the zstd window size used for
// dictionary-mode (de)compression. The window must be large enough to cover
// both the dictionary (the old chunk) and the content being compressed (the
// new chunk) for long-range matches to reach back into the dictionary.
const (
	minWindowLog = 10
	maxWindowLog = 27
)

// windowLogFor returns one more than the smallest power-of-two window log
// that covers the given size (a window twice the covering size), clamped to
// [minWindowLog, maxWindowLog].
func windowLogFor(size uint64) int {
	if size == 0 {
		return minWindowLog
	}
	log := bits.Len64(size - 1)
	if size&(size-1) == 0 {
		log = bits.Len64(size) - 1
	}
	log++
	if log < minWindowLog {
		log = minWindowLog
	}
	if log > maxWindowLog {
		log = maxWindowLog
	}
	return log
}

// EncodeChunk compresses newChunk using oldChunk as a raw-content zstd
// dictionary with long-range mode enabled, matching spec §4.3's
// "C_i = zstd.compress(N_i, dict=O_i)".
func EncodeChunk(oldChunk, newChunk []byte) ([]byte, error) {
	windowLog := windowLogFor(uint64(len(oldChunk)) + uint64(len(newChunk)))

	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderDictRaw(0, oldChunk),
		zstd.WithWindowSize(1<<windowLog),
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		return nil, ferrors.Compression("", "unable to create chunk encoder", err)
	}
	defer encoder.Close()

	return encoder.EncodeAll(newChunk, nil), nil
}

// DecodeChunk decompresses compressed using oldChunk as the same raw-content
// zstd dictionary used to produce it. The uncompressed chunk length is not
// stored anywhere in the container framing (spec §4.3), so there is no way
// to derive the encoder's chosen window size from the compressed bytes
// alone; instead the decoder simply accepts up to the encoder's known worst
// case, maxWindowLog, matching EncodeChunk's own cap.
func DecodeChunk(oldChunk, compressed []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil,
		zstd.WithDecoderDictRaw(0, oldChunk),
		zstd.WithDecoderMaxWindow(1<<maxWindowLog),
	)
	if err != nil {
		return nil, ferrors.Compression("", "unable to create chunk decoder", err)
	}
	defer decoder.Close()

	result, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, ferrors.Compression("", "unable to decompress chunk", err)
	}
	return result, nil
}

// Encode reads old (of size oldSize) and new (of size newSize) sequentially,
// dividing each into the same number of chunks (derived from oldSize alone),
// and invokes emit once per chunk index with the compressed chunk bytes, in
// order. Both files are read purely sequentially, since chunk ranges are
// monotonically increasing and contiguous by construction (spec §4.3).
func Encode(old io.Reader, oldSize uint64, new io.Reader, newSize uint64, emit func(index int, compressed []byte) error) error {
	chunks := ChunkCount(oldSize)
	oldRanges := OldChunkRanges(oldSize)
	newRanges := NewChunkRanges(oldSize, newSize)

	for i := 0; i < chunks; i++ {
		oldChunk := make([]byte, oldRanges[i].End-oldRanges[i].Start)
		if _, err := io.ReadFull(old, oldChunk); err != nil {
			return ferrors.IO("", "unable to read old chunk", err)
		}

		newChunk := make([]byte, newRanges[i].End-newRanges[i].Start)
		if _, err := io.ReadFull(new, newChunk); err != nil {
			return ferrors.IO("", "unable to read new chunk", err)
		}

		compressed, err := EncodeChunk(oldChunk, newChunk)
		if err != nil {
			return err
		}

		if err := emit(i, compressed); err != nil {
			return err
		}
	}

	return nil
}

// Decode reads old (of size oldSize) sequentially and, for each chunk index,
// calls readChunk to obtain the corresponding compressed chunk bytes,
// writing the decompressed new-file content to out in order.
func Decode(old io.Reader, oldSize uint64, readChunk func(index int) ([]byte, error), out io.Writer) error {
	chunks := ChunkCount(oldSize)
	oldRanges := OldChunkRanges(oldSize)

	for i := 0; i < chunks; i++ {
		oldChunk := make([]byte, oldRanges[i].End-oldRanges[i].Start)
		if _, err := io.ReadFull(old, oldChunk); err != nil {
			return ferrors.IO("", "unable to read old chunk", err)
		}

		compressed, err := readChunk(i)
		if err != nil {
			return err
		}

		newChunk, err := DecodeChunk(oldChunk, compressed)
		if err != nil {
			return err
		}

		if _, err := out.Write(newChunk); err != nil {
			return ferrors.IO("", "unable to write decoded chunk", err)
		}
	}

	return nil
}
