package compression

import (
	"bytes"
	"io"

	"github.com/dargueta/tosz"
)

// CompressStream reads `input` to EOF, compresses it, and writes the container
// to `output`.
//
// The returned int64 gives the number of bytes written to the output stream. If
// an error occurred, the value is undefined and should not be used.
func CompressStream(input io.Reader, output io.Writer) (int64, error) {
	source, err := io.ReadAll(input)
	if err != nil {
		return 0, tosz.ErrIOFailed.Wrap(err)
	}

	n, err := output.Write(Compress(source))
	if err != nil {
		return int64(n), tosz.ErrIOFailed.Wrap(err)
	}
	return int64(n), nil
}

// DecompressStream reads a whole container from `input` and writes the expanded
// data to `output`.
//
// The returned int64 gives the number of bytes written to the output (i.e. the
// expanded size). If an error occurred, the value is undefined and should not be
// used.
func DecompressStream(input io.Reader, output io.Writer) (int64, error) {
	expanded, err := DecompressToBytes(input)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(output, bytes.NewReader(expanded))
	if err != nil {
		return n, tosz.ErrIOFailed.Wrap(err)
	}
	return n, nil
}

// DecompressToBytes reads a whole container from `input` and returns the
// expanded data in a new byte slice.
func DecompressToBytes(input io.Reader) ([]byte, error) {
	container, err := io.ReadAll(input)
	if err != nil {
		return nil, tosz.ErrIOFailed.Wrap(err)
	}

	expanded, _, err := Decompress(container)
	return expanded, err
}
