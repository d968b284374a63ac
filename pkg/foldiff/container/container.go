package container

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/yellowsink/foldiff/pkg/foldiff/ferrors"
)

// Writer streams an FLDF container to an underlying io.Writer. Callers must
// invoke its methods in the order the format's sections appear: a single
// WriteManifest, then WriteNewBlobCount followed by exactly that many
// WriteNewBlob calls, then WritePatchCount followed by exactly that many
// patches, each written as one WritePatchChunkCount call followed by
// exactly that many WriteChunk calls.
//
// The Writer itself does not reorder anything: callers that produce blobs
// out of order (e.g. a worker pool) are responsible for sequencing calls
// into this strict index order before reaching the Writer.
type Writer struct {
	w io.Writer
}

// NewWriter wraps w as an FLDF container writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteManifest writes the magic bytes followed by the MessagePack-encoded
// manifest. It must be the first call made on a Writer.
func (cw *Writer) WriteManifest(m *Manifest) error {
	if _, err := cw.w.Write(Magic[:]); err != nil {
		return ferrors.IO("", "unable to write container magic", err)
	}
	if err := msgpack.NewEncoder(cw.w).Encode(m); err != nil {
		return ferrors.IO("", "unable to write manifest", err)
	}
	return nil
}

func writeU64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// WriteNewBlobCount writes the new_count framing field.
func (cw *Writer) WriteNewBlobCount(n uint64) error {
	if err := writeU64(cw.w, n); err != nil {
		return ferrors.IO("", "unable to write new blob count", err)
	}
	return nil
}

// WriteNewBlob writes one blob_len-prefixed new blob.
func (cw *Writer) WriteNewBlob(data []byte) error {
	if err := writeU64(cw.w, uint64(len(data))); err != nil {
		return ferrors.IO("", "unable to write blob length", err)
	}
	if _, err := cw.w.Write(data); err != nil {
		return ferrors.IO("", "unable to write blob bytes", err)
	}
	return nil
}

// WritePatchCount writes the patch_count framing field.
func (cw *Writer) WritePatchCount(n uint64) error {
	if err := writeU64(cw.w, n); err != nil {
		return ferrors.IO("", "unable to write patch count", err)
	}
	return nil
}

// WritePatchChunkCount writes the chunk_count field beginning one patch.
func (cw *Writer) WritePatchChunkCount(n uint64) error {
	if err := writeU64(cw.w, n); err != nil {
		return ferrors.IO("", "unable to write patch chunk count", err)
	}
	return nil
}

// WriteChunk writes one chunk_len-prefixed chunk of a patch.
func (cw *Writer) WriteChunk(data []byte) error {
	if err := writeU64(cw.w, uint64(len(data))); err != nil {
		return ferrors.IO("", "unable to write chunk length", err)
	}
	if _, err := cw.w.Write(data); err != nil {
		return ferrors.IO("", "unable to write chunk bytes", err)
	}
	return nil
}

// Reader streams an FLDF container from an underlying io.Reader, mirroring
// Writer's call sequence.
type Reader struct {
	r io.Reader
}

// NewReader wraps r as an FLDF container reader. The manifest decoder and
// the framing reads share one buffered reader, so bytes the decoder reads
// ahead are still seen by the framing reads that follow.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

func readU64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// ReadManifest reads the magic bytes and decodes the manifest. It must be
// the first call made on a Reader.
func (cr *Reader) ReadManifest() (*Manifest, error) {
	var magic [4]byte
	if _, err := io.ReadFull(cr.r, magic[:]); err != nil {
		return nil, ferrors.Format("unable to read container magic", err)
	}
	if magic != Magic {
		return nil, ferrors.Format("not a foldiff container (bad magic bytes)", nil)
	}

	var m Manifest
	if err := msgpack.NewDecoder(cr.r).Decode(&m); err != nil {
		return nil, ferrors.Format("unable to parse manifest", err)
	}
	if !m.Version.Compatible() {
		return nil, ferrors.Format("manifest version "+m.Version.String()+" is not supported", nil)
	}
	return &m, nil
}

// ReadNewBlobCount reads the new_count framing field.
func (cr *Reader) ReadNewBlobCount() (uint64, error) {
	n, err := readU64(cr.r)
	if err != nil {
		return 0, ferrors.Format("unable to read new blob count", err)
	}
	return n, nil
}

// ReadNewBlob reads one blob_len-prefixed new blob in full.
func (cr *Reader) ReadNewBlob() ([]byte, error) {
	n, err := readU64(cr.r)
	if err != nil {
		return nil, ferrors.Format("unable to read blob length", err)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(cr.r, data); err != nil {
		return nil, ferrors.Format("unable to read blob bytes", err)
	}
	return data, nil
}

// ReadPatchCount reads the patch_count framing field.
func (cr *Reader) ReadPatchCount() (uint64, error) {
	n, err := readU64(cr.r)
	if err != nil {
		return 0, ferrors.Format("unable to read patch count", err)
	}
	return n, nil
}

// ReadPatchChunkCount reads the chunk_count field beginning one patch.
func (cr *Reader) ReadPatchChunkCount() (uint64, error) {
	n, err := readU64(cr.r)
	if err != nil {
		return 0, ferrors.Format("unable to read patch chunk count", err)
	}
	return n, nil
}

// ReadChunk reads one chunk_len-prefixed chunk of a patch in full.
func (cr *Reader) ReadChunk() ([]byte, error) {
	n, err := readU64(cr.r)
	if err != nil {
		return nil, ferrors.Format("unable to read chunk length", err)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(cr.r, data); err != nil {
		return nil, ferrors.Format("unable to read chunk bytes", err)
	}
	return data, nil
}
