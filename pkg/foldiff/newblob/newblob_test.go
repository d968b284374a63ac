package newblob

import (
	"bytes"
	"strings"
	"testing"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	content := strings.Repeat("new file content\n", 500)

	frame, err := Compress(strings.NewReader(content))
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	var out bytes.Buffer
	if err := Decompress(frame, &out); err != nil {
		t.Fatalf("Decompress: %v", err)
	}

	if out.String() != content {
		t.Fatalf("round trip mismatch: got %d bytes, want %d bytes", out.Len(), len(content))
	}
}

func TestCompressEmptyContent(t *testing.T) {
	frame, err := Compress(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	var out bytes.Buffer
	if err := Decompress(frame, &out); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected empty output, got %d bytes", out.Len())
	}
}
