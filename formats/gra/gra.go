// Package gra reads and writes the framing of TempleOS .GRA raster images: a
// fixed header giving the geometry, followed by one byte per pixel, usually
// packed into a compressed container.
//
// Only the framing is handled here. The meaning of the pixel bytes (a 4-bit
// colour index in the low nibble, alpha in the high nibble) and the palette are
// left to the caller.

package gra

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dargueta/tosz"
	"github.com/dargueta/tosz/utilities/compression"
)

// HeaderSize is the size of the image header, in bytes.
const HeaderSize = 16

const (
	// FlagCompressed means the body is a compressed container rather than raw
	// pixels.
	FlagCompressed uint32 = 0x01
	// FlagPalette is reserved for images carrying their own palette. It's
	// preserved but otherwise ignored.
	FlagPalette uint32 = 0x02
)

// Header is the image preamble. All fields are little-endian u32 on disk, in the
// order declared here.
type Header struct {
	Width uint32
	// WidthInternal is Width rounded up to a multiple of 8. TempleOS uses it for
	// its own in-memory layout; the body in the file is not padded to it.
	WidthInternal uint32
	Height        uint32
	Flags         uint32
}

// InternalWidth rounds `width` up to the next multiple of 8.
func InternalWidth(width uint32) uint32 {
	return (width + 7) &^ 7
}

// NewHeader returns the header for a `width` by `height` image with the given
// flags.
func NewHeader(width, height, flags uint32) Header {
	return Header{
		Width:         width,
		WidthInternal: InternalWidth(width),
		Height:        height,
		Flags:         flags,
	}
}

// IsCompressed returns true if the body is stored as a compressed container.
func (h Header) IsCompressed() bool {
	return h.Flags&FlagCompressed != 0
}

// PixelCount gives the number of body bytes the geometry calls for.
func (h Header) PixelCount() uint64 {
	return uint64(h.Width) * uint64(h.Height)
}

// MarshalBinary implements [encoding.BinaryMarshaler].
func (h Header) MarshalBinary() ([]byte, error) {
	buffer := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buffer[0:4], h.Width)
	binary.LittleEndian.PutUint32(buffer[4:8], h.WidthInternal)
	binary.LittleEndian.PutUint32(buffer[8:12], h.Height)
	binary.LittleEndian.PutUint32(buffer[12:16], h.Flags)
	return buffer, nil
}

// ReadHeader reads exactly [HeaderSize] bytes from `input` and decodes them.
func ReadHeader(input io.Reader) (Header, error) {
	buffer := make([]byte, HeaderSize)
	n, err := io.ReadFull(input, buffer)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return Header{}, tosz.ErrTruncated.WithMessage(
			fmt.Sprintf("image header needs %d bytes, got %d", HeaderSize, n))
	} else if err != nil {
		return Header{}, tosz.ErrIOFailed.Wrap(err)
	}

	return Header{
		Width:         binary.LittleEndian.Uint32(buffer[0:4]),
		WidthInternal: binary.LittleEndian.Uint32(buffer[4:8]),
		Height:        binary.LittleEndian.Uint32(buffer[8:12]),
		Flags:         binary.LittleEndian.Uint32(buffer[12:16]),
	}, nil
}

// Image is a decoded GRA file. Body always holds uncompressed pixel bytes, at
// least [Header.PixelCount] of them.
type Image struct {
	Header
	Body []byte
}

// Options controls how bodies are compressed and expanded.
type Options struct {
	// Codec handles compressed bodies. Nil means [compression.ArcCodec] with the
	// default size limit.
	Codec tosz.BodyCodec
}

func (options Options) codec() tosz.BodyCodec {
	if options.Codec == nil {
		return compression.ArcCodec{}
	}
	return options.Codec
}

// Read decodes a whole image from `input`, expanding the body if it's
// compressed. Everything after the header is taken as the body.
func Read(input io.Reader, options Options) (Image, error) {
	header, err := ReadHeader(input)
	if err != nil {
		return Image{}, err
	}

	body, err := io.ReadAll(input)
	if err != nil {
		return Image{}, tosz.ErrIOFailed.Wrap(err)
	}

	if header.IsCompressed() {
		body, _, err = options.codec().Decompress(body)
		if err != nil {
			return Image{}, err
		}
	}

	if uint64(len(body)) < header.PixelCount() {
		return Image{}, tosz.ErrShortBody.WithMessage(
			fmt.Sprintf(
				"%dx%d image needs %d bytes, body has %d",
				header.Width,
				header.Height,
				header.PixelCount(),
				len(body),
			),
		)
	}
	return Image{Header: header, Body: body}, nil
}

// ReadBytes is [Read] for an image that's already in memory.
func ReadBytes(data []byte, options Options) (Image, error) {
	return Read(bytes.NewReader(data), options)
}

// Write encodes `image` to `output`, compressing the body if the header has
// [FlagCompressed] set. Only the first [Header.PixelCount] bytes of the body are
// written. If WidthInternal is zero it's filled in from Width.
//
// The returned int64 is the number of bytes written.
func Write(output io.Writer, image Image, options Options) (int64, error) {
	header := image.Header
	if header.WidthInternal == 0 {
		header.WidthInternal = InternalWidth(header.Width)
	}
	if header.WidthInternal < header.Width {
		return 0, tosz.ErrInvalidArgument.WithMessage(
			fmt.Sprintf(
				"internal width %d is less than width %d",
				header.WidthInternal,
				header.Width,
			),
		)
	}

	pixelCount := header.PixelCount()
	if uint64(len(image.Body)) < pixelCount {
		return 0, tosz.ErrShortBody.WithMessage(
			fmt.Sprintf("need %d bytes, body has %d", pixelCount, len(image.Body)))
	}

	body := image.Body[:pixelCount]
	if header.IsCompressed() {
		body = options.codec().Compress(body)
	}

	headerBytes, _ := header.MarshalBinary()
	total := int64(0)
	for _, chunk := range [][]byte{headerBytes, body} {
		n, err := output.Write(chunk)
		total += int64(n)
		if err != nil {
			return total, tosz.ErrIOFailed.Wrap(err)
		}
	}
	return total, nil
}
