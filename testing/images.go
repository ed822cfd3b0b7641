// Package testing holds helpers shared by the tests of other packages. Import it
// under a different name, e.g. `toszt`, to avoid clashing with the standard
// library's testing package.

package testing

import (
	"io"
	"math/rand"
	"testing"

	"github.com/dargueta/tosz/utilities/compression"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

// LoadContainer takes a container and returns a stream to access the expanded
// data.
//
//   - Writes to the stream do not affect `container`.
//   - While the stream can be written to, its size is fixed to the expanded
//     size. Attempting to write past the end of this buffer will trigger an
//     error.
func LoadContainer(t *testing.T, container []byte, expectedSize int) io.ReadWriteSeeker {
	require.GreaterOrEqual(
		t, len(container), compression.HeaderSize, "container is shorter than its header")

	expanded, n, err := compression.Decompress(container)
	require.NoError(t, err)
	require.EqualValues(t, len(expanded), n, "reported size doesn't match data")
	require.Equal(t, expectedSize, len(expanded), "expanded data is wrong size")
	return bytesextra.NewReadWriteSeeker(expanded)
}

// CreateRandomBody returns `size` pseudo-random bytes. The same seed always gives
// the same bytes, so failures can be reproduced.
func CreateRandomBody(size int, seed int64) []byte {
	body := make([]byte, size)
	rand.New(rand.NewSource(seed)).Read(body)
	return body
}

// CreateRandomTextBody is like [CreateRandomBody] but every byte is below 0x80.
func CreateRandomTextBody(size int, seed int64) []byte {
	body := CreateRandomBody(size, seed)
	for i := range body {
		body[i] &= 0x7f
	}
	return body
}

// CreateRasterBody returns a `width` by `height` body that looks like a typical
// 4-bit indexed drawing: horizontal runs of a few colours with the odd stray
// pixel. It compresses well but grows the table steadily.
func CreateRasterBody(width, height int, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed))
	body := make([]byte, width*height)

	colour := byte(rng.Intn(16))
	for i := range body {
		switch roll := rng.Intn(100); {
		case roll < 4:
			colour = byte(rng.Intn(16))
		case roll == 4:
			body[i] = byte(rng.Intn(16))
			continue
		}
		body[i] = colour
	}
	return body
}

// CreateVariedBody returns `size` bytes made of many distinct short phrases, so
// that coding it adds entries to the table far faster than it reuses them. Long
// enough bodies force the coder to start recycling slots.
func CreateVariedBody(size int, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed))
	body := make([]byte, 0, size)
	for len(body) < size {
		phraseLength := 2 + rng.Intn(6)
		for j := 0; j < phraseLength && len(body) < size; j++ {
			body = append(body, byte('a'+rng.Intn(20)))
		}
		if rng.Intn(3) == 0 && len(body) > 64 {
			// Repeat an earlier stretch so that longer sequences also appear.
			start := rng.Intn(len(body) - 32)
			length := 4 + rng.Intn(28)
			for j := 0; j < length && len(body) < size; j++ {
				body = append(body, body[start+j])
			}
		}
	}
	return body
}
