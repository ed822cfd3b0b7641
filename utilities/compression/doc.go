// Package compression implements the archive format TempleOS uses for
// compressed files and for the bodies of GRA images.
//
// An archive is a 17-byte header followed by a payload:
//
//	offset 0   u64  total size of the archive, header included
//	offset 8   u64  size of the data once expanded
//	offset 16  u8   compression type: 1 stored, 2 coded (7-bit), 3 coded (8-bit)
//	offset 17  ...  payload
//
// Both size fields are 64 bits on disk but in practice only the low 32 bits are
// ever non-zero. All integers are little-endian.
//
// Coded payloads are a variant of LZW. Codes are packed LSB first with no
// padding between them, starting at bit 136 of the archive (right after the
// header). Codes below 2^m are literal bytes, where m is 7 if no source byte
// has its high bit set and 8 otherwise. The first code is m+1 bits wide, and
// the width grows by one every time the table fills up to the next power of
// two, until it reaches 12 bits. From then on the table is full and slots are
// recycled: the coder scans forward from the last slot it handed out and takes
// the first one no other entry uses as a prefix.
//
// There are no clear codes or end-of-stream markers. The decoder stops when it
// has produced the expanded size given in the header.
//
// If coding a buffer would take more space than storing it (plus one byte),
// [Compress] stores it instead. Stored archives are never rejected for being
// larger than necessary; archives written by TempleOS itself carry one extra
// byte at the end of stored payloads.

package compression
