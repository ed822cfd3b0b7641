package compression

import (
	"github.com/dargueta/tosz/utilities/bitfield"
)

// encoder packs a source buffer into a code stream. Each call to Compress gets
// its own encoder; nothing is shared between calls.
type encoder struct {
	table *codeTable
	// dst is the output buffer. It's at least 4 bytes longer than dstLimit/8 so
	// that the 32-bit OR of the last code never runs off the end.
	dst      []byte
	dstPos   uint
	dstLimit uint
}

func newEncoder(compressionType CompressionType, dst []byte, startBit, limitBit uint) *encoder {
	return &encoder{
		table:    newCodeTable(compressionType.MinBits()),
		dst:      dst,
		dstPos:   startBit,
		dstLimit: limitBit,
	}
}

// emit writes `code` at the current width. It returns false without writing
// anything if the code wouldn't fit in the output.
func (enc *encoder) emit(code uint16, width uint) bool {
	if enc.dstPos+width > enc.dstLimit {
		return false
	}
	bitfield.OrU32At(enc.dst, enc.dstPos, uint32(code))
	enc.dstPos += width
	return true
}

// encode codes all of `src`. It returns true if every byte was consumed and the
// final code was flushed, false if the output filled up first. The contents of
// the output are undefined when it returns false.
func (enc *encoder) encode(src []byte) bool {
	if len(src) == 0 {
		return true
	}

	table := enc.table
	table.advance()

	basecode := uint16(src[0])
	for _, ch := range src[1:] {
		if code, found := table.lookup(basecode, ch); found {
			basecode = code
			continue
		}

		if !enc.emit(basecode, table.curBits) {
			return false
		}
		table.insert(basecode, ch)
		table.advance()
		basecode = uint16(ch)
	}

	// Flush whatever sequence was still being extended when the input ran out.
	return enc.emit(basecode, table.curBits)
}

// DetermineCompressionType picks the coded mode for `src`: [Coded7Bit] if no
// byte has its high bit set, [Coded8Bit] otherwise.
func DetermineCompressionType(src []byte) CompressionType {
	for _, b := range src {
		if b&0x80 != 0 {
			return Coded8Bit
		}
	}
	return Coded7Bit
}
