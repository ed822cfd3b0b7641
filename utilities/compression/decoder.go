package compression

import (
	"fmt"

	"github.com/dargueta/tosz"
	"github.com/dargueta/tosz/utilities/bitfield"
)

// decoder rebuilds the source bytes from a code stream, reconstructing the
// encoder's table as it goes.
type decoder struct {
	table  *codeTable
	src    []byte
	srcPos uint
	// srcLimit is the number of valid bits in src, counted from the start of the
	// buffer.
	srcLimit uint
	// stack holds one expanded code, newest byte first.
	stack []byte
}

func newDecoder(compressionType CompressionType, src []byte, startBit, limitBit uint) *decoder {
	return &decoder{
		table:    newCodeTable(compressionType.MinBits()),
		src:      src,
		srcPos:   startBit,
		srcLimit: limitBit,
		stack:    make([]byte, 0, tableSize),
	}
}

// readCode returns the next code at the table's current read width, or false
// if the stream doesn't have that many bits left.
func (dec *decoder) readCode() (uint, bool) {
	width := dec.table.nextBits
	if dec.srcPos+width > dec.srcLimit {
		return 0, false
	}
	code := bitfield.ExtractU32(dec.src, dec.srcPos, width)
	dec.srcPos += width
	return uint(code), true
}

// push expands `code` onto the stack by following prefix links down to the
// literal it starts with, and returns that literal.
func (dec *decoder) push(code uint) (byte, error) {
	table := dec.table
	for !table.isLiteral(code) {
		if len(dec.stack) >= tableSize {
			return 0, tosz.ErrCorrupted.WithMessage("code expansion exceeds table depth")
		}
		entry := table.entries[code]
		dec.stack = append(dec.stack, entry.suffix)
		code = uint(entry.prefix)
	}
	dec.stack = append(dec.stack, byte(code))
	return byte(code), nil
}

// decode expands the stream into exactly `expandedSize` bytes.
func (dec *decoder) decode(expandedSize uint) ([]byte, error) {
	output := make([]byte, 0, expandedSize)
	if expandedSize == 0 {
		return output, nil
	}

	table := dec.table

	firstCode, ok := dec.readCode()
	if !ok {
		return nil, tosz.ErrTruncated.WithMessage("stream has no codes")
	}
	if !table.isLiteral(firstCode) {
		return nil, tosz.ErrUndefinedCode.WithMessage("first code isn't a literal")
	}

	output = append(output, byte(firstCode))
	table.advance()

	lastCode := firstCode
	lastFirstByte := byte(firstCode)

	for uint(len(output)) < expandedSize {
		code, ok := dec.readCode()
		if !ok {
			break
		}

		dec.stack = dec.stack[:0]
		toExpand := code
		if code == uint(table.cur) {
			// The code names the entry that this very step defines, so its last
			// byte is the first byte of the previous sequence.
			dec.stack = append(dec.stack, lastFirstByte)
			toExpand = lastCode
		} else if !table.isDefined(code) {
			return nil, tosz.ErrUndefinedCode.WithMessage(
				fmt.Sprintf("code %d used before it was defined", code))
		}

		firstByte, err := dec.push(toExpand)
		if err != nil {
			return nil, err
		}
		lastFirstByte = firstByte

		// A new entry may only extend a live one. This keeps the table a forest so
		// that recycling always finds a free slot.
		if !table.isDefined(lastCode) {
			return nil, tosz.ErrCorrupted.WithMessage(
				fmt.Sprintf("code %d was recycled before it could be extended", lastCode))
		}
		table.insert(uint16(lastCode), firstByte)
		table.advance()

		for i := len(dec.stack) - 1; i >= 0 && uint(len(output)) < expandedSize; i-- {
			output = append(output, dec.stack[i])
		}
		lastCode = code
	}

	if uint(len(output)) != expandedSize {
		return nil, tosz.ErrTruncated.WithMessage(
			fmt.Sprintf("expanded %d of %d bytes", len(output), expandedSize))
	}
	return output, nil
}
