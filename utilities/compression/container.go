package compression

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/dargueta/tosz"
	"github.com/dargueta/tosz/utilities/bitfield"
)

// CompressionType is the tag stored in a container header saying how the
// payload is encoded.
type CompressionType uint8

const (
	// Stored means the payload is the source bytes, unmodified.
	Stored CompressionType = iota + 1
	// Coded7Bit means the payload is a code stream whose literals are 7 bits.
	// Only used when no source byte has its high bit set.
	Coded7Bit
	// Coded8Bit means the payload is a code stream whose literals are 8 bits.
	Coded8Bit
)

// HeaderSize is the size of a container header, in bytes. The payload begins
// immediately after it.
const HeaderSize = 17

// DefaultMaxExpandedSize is the largest expanded size [Decompress] will accept.
// Anything claiming to be this big or bigger is assumed to be garbage.
const DefaultMaxExpandedSize = 0x20000000

// encoderSlack is extra room past the coded region so the 32-bit OR of the last
// code stays inside the buffer.
const encoderSlack = 4

func (ct CompressionType) String() string {
	switch ct {
	case Stored:
		return "stored"
	case Coded7Bit:
		return "coded-7bit"
	case Coded8Bit:
		return "coded-8bit"
	default:
		return fmt.Sprintf("CompressionType(%d)", uint8(ct))
	}
}

// IsValid returns true if `ct` is one of the defined compression types.
func (ct CompressionType) IsValid() bool {
	return Stored <= ct && ct <= Coded8Bit
}

// MinBits gives the literal width for a coded type: 7 for [Coded7Bit], 8 for
// everything else.
func (ct CompressionType) MinBits() uint {
	if ct == Coded7Bit {
		return 7
	}
	return 8
}

// Header is the fixed-size preamble of every container. All fields are stored
// little-endian; the size fields are 64 bits wide on disk, split into low and
// high halves.
type Header struct {
	// CompressedSize is the size of the whole container, header included.
	CompressedSize uint64
	// ExpandedSize is the size of the data once decompressed.
	ExpandedSize    uint64
	CompressionType CompressionType
}

// MarshalBinary implements [encoding.BinaryMarshaler].
func (h Header) MarshalBinary() ([]byte, error) {
	buffer := make([]byte, HeaderSize)
	h.put(buffer)
	return buffer, nil
}

func (h Header) put(buffer []byte) {
	binary.LittleEndian.PutUint64(buffer[0:8], h.CompressedSize)
	binary.LittleEndian.PutUint64(buffer[8:16], h.ExpandedSize)
	buffer[16] = byte(h.CompressionType)
}

// ParseHeader decodes the header at the beginning of `container`. It only
// checks that there are enough bytes; use [Header.Validate] to check the values.
func ParseHeader(container []byte) (Header, error) {
	if len(container) < HeaderSize {
		return Header{}, tosz.ErrTruncated.WithMessage(
			fmt.Sprintf("header needs %d bytes, got %d", HeaderSize, len(container)))
	}
	return Header{
		CompressedSize:  binary.LittleEndian.Uint64(container[0:8]),
		ExpandedSize:    binary.LittleEndian.Uint64(container[8:16]),
		CompressionType: CompressionType(container[16]),
	}, nil
}

// Validate checks the header against the actual length of the container it came
// from and a ceiling on the expanded size.
func (h Header) Validate(containerLength int, maxExpandedSize uint64) error {
	if !h.CompressionType.IsValid() {
		return tosz.ErrInvalidCompressionType.WithMessage(
			fmt.Sprintf("got %d, expected %d-%d", uint8(h.CompressionType), Stored, Coded8Bit))
	}
	if h.ExpandedSize >= maxExpandedSize {
		return tosz.ErrExpandedSizeTooLarge.WithMessage(
			fmt.Sprintf("%d bytes claimed, limit is %d", h.ExpandedSize, maxExpandedSize))
	}
	if h.CompressedSize != uint64(containerLength) {
		return tosz.ErrSizeMismatch.WithMessage(
			fmt.Sprintf(
				"header says container is %d bytes, got %d",
				h.CompressedSize,
				containerLength,
			),
		)
	}
	return nil
}

////////////////////////////////////////////////////////////////////////////////

// Compress packs `source` into a container. It always succeeds: if the coded
// form doesn't fit in the space budgeted for it, the source is stored verbatim
// instead.
func Compress(source []byte) []byte {
	compressionType := DetermineCompressionType(source)

	// The budget is one bit per source bit plus a header's worth, measured from
	// the start of the container.
	limitBits := uint(len(source)+HeaderSize+1) * 8
	buffer := make([]byte, bitfield.BytesForBits(limitBits)+encoderSlack)

	enc := newEncoder(compressionType, buffer, HeaderSize*8, limitBits)
	if !enc.encode(source) {
		slog.Debug(
			"storedFallback",
			"expandedSize", len(source),
			"compressionType", compressionType.String(),
			"bitsUsed", enc.dstPos,
		)
		return storeVerbatim(source)
	}

	container := buffer[:bitfield.BytesForBits(enc.dstPos)]
	Header{
		CompressedSize:  uint64(len(container)),
		ExpandedSize:    uint64(len(source)),
		CompressionType: compressionType,
	}.put(container)
	return container
}

func storeVerbatim(source []byte) []byte {
	container := make([]byte, HeaderSize+len(source))
	Header{
		CompressedSize:  uint64(len(container)),
		ExpandedSize:    uint64(len(source)),
		CompressionType: Stored,
	}.put(container)
	copy(container[HeaderSize:], source)
	return container
}

// Decompress unpacks a container made by [Compress]. It returns the expanded
// data and its length, or an error if the container is malformed. Expanded
// sizes of [DefaultMaxExpandedSize] or more are rejected before anything is
// allocated.
func Decompress(container []byte) ([]byte, int64, error) {
	return DecompressLimit(container, DefaultMaxExpandedSize)
}

// DecompressLimit is [Decompress] with a caller-chosen ceiling on the expanded
// size. The ceiling is exclusive.
func DecompressLimit(container []byte, maxExpandedSize uint64) ([]byte, int64, error) {
	header, err := ParseHeader(container)
	if err != nil {
		return nil, 0, err
	}
	err = header.Validate(len(container), maxExpandedSize)
	if err != nil {
		return nil, 0, err
	}

	payload := container[HeaderSize:]
	expandedSize := uint(header.ExpandedSize)

	switch header.CompressionType {
	case Stored:
		if uint(len(payload)) < expandedSize {
			return nil, 0, tosz.ErrTruncated.WithMessage(
				fmt.Sprintf(
					"stored payload is %d bytes, header says %d",
					len(payload),
					expandedSize,
				),
			)
		}
		output := make([]byte, expandedSize)
		copy(output, payload)
		return output, int64(expandedSize), nil

	default:
		dec := newDecoder(
			header.CompressionType,
			container,
			HeaderSize*8,
			uint(len(container))*8,
		)
		output, err := dec.decode(expandedSize)
		if err != nil {
			return nil, 0, err
		}
		return output, int64(len(output)), nil
	}
}

// ArcCodec implements [tosz.BodyCodec] using [Compress] and [DecompressLimit].
type ArcCodec struct {
	// MaxExpandedSize is the exclusive ceiling on expanded sizes accepted when
	// decompressing. Zero means [DefaultMaxExpandedSize].
	MaxExpandedSize uint64
}

var _ tosz.BodyCodec = ArcCodec{}

func (codec ArcCodec) Compress(source []byte) []byte {
	return Compress(source)
}

func (codec ArcCodec) Decompress(container []byte) ([]byte, int64, error) {
	limit := codec.MaxExpandedSize
	if limit == 0 {
		limit = DefaultMaxExpandedSize
	}
	return DecompressLimit(container, limit)
}
