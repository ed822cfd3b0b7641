package bitfield_test

import (
	"math/rand"
	"testing"

	"github.com/dargueta/tosz/utilities/bitfield"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBit__Basic(t *testing.T) {
	buffer := []byte{0x01, 0x80, 0x00, 0xA5}

	assert.True(t, bitfield.GetBit(buffer, 0), "bit 0")
	assert.False(t, bitfield.GetBit(buffer, 1), "bit 1")
	assert.False(t, bitfield.GetBit(buffer, 8), "bit 8")
	assert.True(t, bitfield.GetBit(buffer, 15), "bit 15")
	for i := uint(16); i < 24; i++ {
		assert.Falsef(t, bitfield.GetBit(buffer, i), "bit %d", i)
	}

	// 0xA5 = 1010 0101
	expected := []bool{true, false, true, false, false, true, false, true}
	for i, want := range expected {
		assert.Equalf(t, want, bitfield.GetBit(buffer, uint(24+i)), "bit %d", 24+i)
	}
}

func TestSetBit__ReturnsPriorValue(t *testing.T) {
	buffer := make([]byte, 2)

	assert.False(t, bitfield.SetBit(buffer, 9), "bit 9 was clear")
	assert.Equal(t, []byte{0x00, 0x02}, buffer)
	assert.True(t, bitfield.SetBit(buffer, 9), "bit 9 should now be set")
	assert.Equal(t, []byte{0x00, 0x02}, buffer, "setting a set bit changed the buffer")

	bitfield.SetBit(buffer, 0)
	bitfield.SetBit(buffer, 7)
	assert.Equal(t, []byte{0x81, 0x02}, buffer)
}

type extractTestCase struct {
	Name     string
	Buffer   []byte
	Offset   uint
	Count    uint
	Expected uint32
}

var extractTestCases = []extractTestCase{
	{"zero width", []byte{0xff}, 3, 0, 0},
	{"whole byte", []byte{0x5a}, 0, 8, 0x5a},
	{"low nibble", []byte{0x5a}, 0, 4, 0xa},
	{"high nibble", []byte{0x5a}, 4, 4, 0x5},
	{"straddles bytes", []byte{0xf0, 0x0f}, 4, 8, 0xff},
	{"nine bits", []byte{0xff, 0x01}, 0, 9, 0x1ff},
	{"twelve bits unaligned", []byte{0x00, 0xb0, 0xa9, 0x00}, 12, 12, 0xa9b},
	{"full word unaligned", []byte{0x10, 0x32, 0x54, 0x76, 0x08}, 4, 32, 0x87654321},
	{"past end reads zero", []byte{0xff}, 4, 12, 0x0f},
}

func TestExtractU32__Basic(t *testing.T) {
	for _, test := range extractTestCases {
		t.Run(
			test.Name,
			func(t *testing.T) {
				result := bitfield.ExtractU32(test.Buffer, test.Offset, test.Count)
				assert.Equalf(
					t, test.Expected, result, "expected %#x, got %#x", test.Expected, result)
			},
		)
	}
}

// The masked-shift extraction must agree with the bit-at-a-time reference for
// every offset and width that fits inside the buffer.
func TestExtractU32__MatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(0x7e3))
	buffer := make([]byte, 64)
	rng.Read(buffer)

	totalBits := uint(len(buffer) * 8)
	for count := uint(1); count <= 32; count++ {
		for offset := uint(0); offset+count <= totalBits; offset += 3 {
			fast := bitfield.ExtractU32(buffer, offset, count)
			slow := bitfield.ExtractU32Slow(buffer, offset, count)
			require.Equalf(
				t, slow, fast, "mismatch at offset %d width %d", offset, count)
		}
	}
}

func TestOrU32At__Basic(t *testing.T) {
	buffer := make([]byte, 8)

	bitfield.OrU32At(buffer, 0, 0x1ff)
	assert.Equal(t, []byte{0xff, 0x01, 0, 0, 0, 0, 0, 0}, buffer)

	bitfield.OrU32At(buffer, 9, 0x5)
	assert.Equal(t, []byte{0xff, 0x0b, 0, 0, 0, 0, 0, 0}, buffer)

	bitfield.OrU32At(buffer, 21, 0xfff)
	assert.Equal(t, []byte{0xff, 0x0b, 0xe0, 0xff, 0x01, 0, 0, 0}, buffer)
}

func TestOrU32At__HighBitsTruncated(t *testing.T) {
	buffer := make([]byte, 8)
	bitfield.OrU32At(buffer, 4, 0xffffffff)
	assert.Equal(
		t,
		[]byte{0xf0, 0xff, 0xff, 0xff, 0, 0, 0, 0},
		buffer,
		"bits shifted past bit 31 must be dropped",
	)
}

func TestOrU32At__NearEndOfBuffer(t *testing.T) {
	buffer := make([]byte, 2)
	assert.NotPanics(t, func() { bitfield.OrU32At(buffer, 8, 0xabcdef) })
	assert.Equal(t, []byte{0x00, 0xef}, buffer)
}

// Packing a sequence of variable-width fields and reading them back must give
// the same values.
func TestOrThenExtract__RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	widths := make([]uint, 500)
	values := make([]uint32, len(widths))

	totalBits := uint(0)
	for i := range widths {
		widths[i] = uint(7 + rng.Intn(6))
		values[i] = uint32(rng.Intn(1 << widths[i]))
		totalBits += widths[i]
	}

	buffer := make([]byte, bitfield.BytesForBits(totalBits)+4)
	position := uint(0)
	for i, value := range values {
		bitfield.OrU32At(buffer, position, value)
		position += widths[i]
	}

	position = 0
	for i, value := range values {
		got := bitfield.ExtractU32(buffer, position, widths[i])
		require.Equalf(t, value, got, "field %d (width %d) is wrong", i, widths[i])
		position += widths[i]
	}
}

func TestBytesForBits(t *testing.T) {
	assert.EqualValues(t, 0, bitfield.BytesForBits(0))
	assert.EqualValues(t, 1, bitfield.BytesForBits(1))
	assert.EqualValues(t, 1, bitfield.BytesForBits(8))
	assert.EqualValues(t, 2, bitfield.BytesForBits(9))
}
