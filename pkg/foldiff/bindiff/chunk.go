package bindiff

// maxChunkSize bounds the size of a single chunk at 2 GiB, so that no chunk
// ever exceeds the addressable range the container format's per-chunk
// length-prefix framing assumes in practice (spec §3, Chunk; §4.3).
const maxChunkSize = 2 * (1 << 30)

// byteRange is a half-open byte range [Start, End) within a file.
type byteRange struct {
	Start uint64
	End   uint64
}

// ChunkCount returns the number of chunks a file of the given old size is
// divided into: ceil(oldSize / 2GiB), minimum 1 (spec §4.3).
func ChunkCount(oldSize uint64) int {
	if oldSize == 0 {
		return 1
	}
	count := oldSize / maxChunkSize
	if oldSize%maxChunkSize != 0 {
		count++
	}
	if count < 1 {
		count = 1
	}
	return int(count)
}

// chunkRanges divides a file of size fileSize into exactly chunks pieces by
// simple integer division: piece i covers byte range
// [i*fileSize/chunks, (i+1)*fileSize/chunks). This is applied independently
// to old and new file sizes, so chunk boundaries are not content-aligned
// between the two files (spec §4.3).
func chunkRanges(fileSize uint64, chunks int) []byteRange {
	ranges := make([]byteRange, chunks)
	for i := 0; i < chunks; i++ {
		ranges[i] = byteRange{
			Start: uint64(i) * fileSize / uint64(chunks),
			End:   uint64(i+1) * fileSize / uint64(chunks),
		}
	}
	return ranges
}

// OldChunkRanges returns the chunk ranges for a file of size oldSize, using
// chunks derived from oldSize itself.
func OldChunkRanges(oldSize uint64) []byteRange {
	return chunkRanges(oldSize, ChunkCount(oldSize))
}

// NewChunkRanges returns the chunk ranges for a file of size newSize, using
// a chunk count derived from the corresponding old file's size. Because
// chunk boundaries are a deterministic function of oldSize and newSize
// alone, both the encoder and the decoder can reproduce them without storing
// any additional metadata (spec §4.3).
func NewChunkRanges(oldSize, newSize uint64) []byteRange {
	return chunkRanges(newSize, ChunkCount(oldSize))
}
