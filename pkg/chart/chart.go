package chart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/orgtree/pkg/forest"

	apperrors "github.com/matzehuels/orgtree/pkg/errors"
)

// Marshal converts a forest to pretty-printed JSON bytes.
func Marshal(f *forest.Forest) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeTo(f, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write writes a forest as JSON to an io.Writer.
func Write(f *forest.Forest, w io.Writer) error {
	return writeTo(f, w)
}

// WriteFile writes a forest to a JSON file with 0644 permissions.
func WriteFile(f *forest.Forest, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()
	return writeTo(f, out)
}

// Read decodes a JSON chart from r into a validated forest.
// Use ReadFile for files or pass bytes.NewReader for in-memory data.
func Read(r io.Reader) (*forest.Forest, error) {
	var c Chart
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidChart, err, "decode chart")
	}
	return ToForest(c)
}

// ReadFile reads a JSON file and returns the decoded forest.
// Returns validation errors for malformed charts or forest constraint
// violations (dangling edges, duplicate IDs, second parents, cycles).
func ReadFile(path string) (*forest.Forest, error) {
	in, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer in.Close()
	return Read(in)
}

// Hash returns the content hash of a forest's serialized form, used as
// a cache key component for rendered artifacts and analysis responses.
func Hash(f *forest.Forest) (string, error) {
	data, err := Marshal(f)
	if err != nil {
		return "", err
	}
	return hashBytes(data), nil
}

func writeTo(f *forest.Forest, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromForest(f)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
