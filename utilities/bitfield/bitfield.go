// Package bitfield reads and writes little-endian bit fields at arbitrary bit
// offsets within a byte slice.
//
// Bit numbering is LSB first: bit N lives in byte N/8 at position N%8, so bit 0
// of a field extracted at offset K is the bit at offset K in the buffer. This is
// the order the archive code stream is packed in.

package bitfield

import (
	"github.com/boljen/go-bitmap"
)

// GetBit returns the value of bit `bitIndex` in `buffer`.
func GetBit(buffer []byte, bitIndex uint) bool {
	return bitmap.Get(buffer, int(bitIndex))
}

// SetBit sets bit `bitIndex` in `buffer` and returns the value it had before.
func SetBit(buffer []byte, bitIndex uint) bool {
	prior := bitmap.Get(buffer, int(bitIndex))
	bitmap.Set(buffer, int(bitIndex), true)
	return prior
}

// ExtractU32 returns the `bitCount` bits (at most 32) of `buffer` starting at
// `bitOffset` as an integer. Bits beyond the end of the buffer are treated as 0.
func ExtractU32(buffer []byte, bitOffset, bitCount uint) uint32 {
	if bitCount == 0 {
		return 0
	}
	if bitCount > 32 {
		bitCount = 32
	}

	byteIndex := bitOffset >> 3
	shift := bitOffset & 7

	// A 32-bit field shifted by up to 7 bits spans at most 5 bytes.
	var window uint64
	for i := uint(0); i < 5; i++ {
		if byteIndex+i >= uint(len(buffer)) {
			break
		}
		window |= uint64(buffer[byteIndex+i]) << (8 * i)
	}

	window >>= shift
	return uint32(window & (uint64(1)<<bitCount - 1))
}

// ExtractU32Slow is a bit-at-a-time version of [ExtractU32]. It exists as a
// reference for the fast version and must give identical results for offsets
// that are entirely inside the buffer.
func ExtractU32Slow(buffer []byte, bitOffset, bitCount uint) uint32 {
	var result [4]byte
	for i := uint(0); i < bitCount && i < 32; i++ {
		if GetBit(buffer, bitOffset+i) {
			SetBit(result[:], i)
		}
	}
	return uint32(result[0]) | uint32(result[1])<<8 | uint32(result[2])<<16 |
		uint32(result[3])<<24
}

// OrU32At shifts `pattern` left by `bitOffset % 8` and ORs the low 32 bits of
// the result into the four bytes starting at byte `bitOffset / 8`, little-endian.
//
// Bits of `pattern` that shift past bit 31 are lost, exactly like the 32-bit
// store this mirrors. Callers packing fields wider than 25 bits must split them.
// Bytes that would land past the end of `buffer` are dropped; callers should
// leave 4 bytes of slack after the last field they intend to write.
func OrU32At(buffer []byte, bitOffset uint, pattern uint32) {
	byteIndex := bitOffset >> 3
	shifted := pattern << (bitOffset & 7)

	for i := uint(0); i < 4; i++ {
		if byteIndex+i >= uint(len(buffer)) {
			return
		}
		buffer[byteIndex+i] |= byte(shifted >> (8 * i))
	}
}

// BytesForBits returns the number of bytes needed to hold `bitCount` bits.
func BytesForBits(bitCount uint) uint {
	return (bitCount + 7) >> 3
}
