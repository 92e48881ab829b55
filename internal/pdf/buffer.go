// Package pdf defines the opaque document buffer that flows between workflow
// operations. The engine never looks inside a buffer; operations do.
package pdf

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

// header is the magic prefix every PDF file starts with.
var header = []byte("%PDF-")

// Buffer is one document travelling through a workflow. Data is shared by
// reference between branches after a fan-out and must be treated as read-only;
// operations produce new buffers instead of modifying their inputs.
type Buffer struct {
	// Name is a human-readable file name, e.g. "invoice.pdf".
	Name string
	// Data holds the raw file bytes.
	Data []byte
}

// New creates a buffer from a name and its bytes.
func New(name string, data []byte) Buffer {
	return Buffer{Name: name, Data: data}
}

// ReadFile loads a buffer from disk, using the base name of path as its name.
func ReadFile(path string) (Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Buffer{}, fmt.Errorf("failed to read input file '%s': %w", path, err)
	}
	return New(filepath.Base(path), data), nil
}

// Size returns the number of bytes in the buffer.
func (b Buffer) Size() int {
	return len(b.Data)
}

// IsPDF reports whether the buffer starts with the PDF file header. Leading
// whitespace is tolerated, as many producers emit it.
func (b Buffer) IsPDF() bool {
	return bytes.HasPrefix(bytes.TrimLeft(b.Data, " \t\r\n"), header)
}

// Digest returns the hex-encoded BLAKE3 hash of the buffer contents.
func (b Buffer) Digest() string {
	sum := blake3.Sum256(b.Data)
	return hex.EncodeToString(sum[:])
}

// ShortDigest returns the first 12 hex characters of Digest, enough to tell
// buffers apart in logs and file names.
func (b Buffer) ShortDigest() string {
	return b.Digest()[:12]
}

// String implements fmt.Stringer for log output.
func (b Buffer) String() string {
	return fmt.Sprintf("%s (%d bytes)", b.Name, len(b.Data))
}

// Names returns the names of the given buffers, in order.
func Names(buffers []Buffer) []string {
	names := make([]string, len(buffers))
	for i, b := range buffers {
		names[i] = b.Name
	}
	return names
}
