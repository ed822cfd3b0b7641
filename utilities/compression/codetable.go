package compression

import (
	"fmt"

	"github.com/boljen/go-bitmap"
)

// MaxCodeBits is the widest code the coder will ever emit. The table holds one
// entry per possible code of this width.
const MaxCodeBits = 12

const tableSize = 1 << MaxCodeBits

// noCode terminates a bucket chain and marks "no entry" in cur/next.
const noCode = 0xFFFF

// codeEntry represents the byte sequence of `prefix` followed by `suffix`.
type codeEntry struct {
	prefix uint16
	suffix byte
	// next is the following entry in the chain of entries sharing `prefix`.
	next uint16
}

// codeTable is the dictionary shared in mirrored form by the encoder and the
// decoder. Both sides drive it through exactly the same sequence of advance()
// and insert() calls, which is what keeps them in sync without transmitting the
// table.
//
// Codes below minTableEntry are literal bytes and never occupy a slot.
type codeTable struct {
	entries [tableSize]codeEntry
	// buckets holds, for every code, the most recently inserted entry whose
	// prefix is that code.
	buckets [tableSize]uint16
	defined bitmap.Bitmap

	minBits       uint
	minTableEntry uint

	// cur is the slot the next insert() fills; next is the slot after that.
	cur  uint16
	next uint16

	curBits  uint
	nextBits uint

	freeIndex uint
	freeLimit uint
	entryUsed bool

	// recycled counts live entries evicted to make room.
	recycled uint
}

// newCodeTable returns a table for literals of `minBits` bits, already advanced
// once so that `next` points at the first free slot.
func newCodeTable(minBits uint) *codeTable {
	table := &codeTable{
		defined:       bitmap.New(tableSize),
		minBits:       minBits,
		minTableEntry: 1 << minBits,
		cur:           noCode,
		next:          noCode,
	}
	for i := range table.buckets {
		table.buckets[i] = noCode
	}

	table.freeIndex = table.minTableEntry
	table.nextBits = minBits + 1
	table.freeLimit = 1 << table.nextBits
	table.entryUsed = true
	table.advance()
	table.entryUsed = true
	return table
}

// advance moves `next` into `cur` and picks a new `next`. It does nothing unless
// the current entry was consumed by insert() since the last call.
//
// While the code width is below [MaxCodeBits], slots are handed out in order and
// the width grows by one bit each time the free index reaches the next power of
// two. At full width, slots are recycled: the scan moves forward from the last
// slot handed out, wrapping to the first non-literal code, and takes the first
// slot that is not the prefix of any live entry and is not `cur`. That slot is
// unlinked from its own bucket before reuse.
func (table *codeTable) advance() {
	if !table.entryUsed {
		return
	}

	table.entryUsed = false
	table.cur = table.next
	table.curBits = table.nextBits

	i := table.freeIndex
	if table.nextBits < MaxCodeBits {
		table.next = uint16(i)
		i++
		if i == table.freeLimit {
			table.nextBits++
			table.freeLimit = 1 << table.nextBits
		}
	} else {
		i = table.findRecyclableSlot(i)
		table.next = uint16(i)
		table.evict(uint16(i))
	}
	table.freeIndex = i
}

func (table *codeTable) findRecyclableSlot(start uint) uint {
	i := start
	for n := 0; n < tableSize; n++ {
		i++
		if i == table.freeLimit {
			i = table.minTableEntry
		}
		if table.buckets[i] == noCode && uint16(i) != table.cur {
			return i
		}
	}

	// Live entries form a forest rooted at the literals, so at least one of them
	// is a leaf. Getting here means the chains were corrupted.
	panic(fmt.Sprintf("code table has no recyclable slot after scanning from %d", start))
}

// evict removes `code` from the bucket of its prefix, if it's linked there.
func (table *codeTable) evict(code uint16) {
	if !table.defined.Get(int(code)) {
		return
	}
	table.defined.Set(int(code), false)
	table.recycled++

	prefix := table.entries[code].prefix
	if table.buckets[prefix] == code {
		table.buckets[prefix] = table.entries[code].next
		return
	}

	for link := table.buckets[prefix]; link != noCode; link = table.entries[link].next {
		if table.entries[link].next == code {
			table.entries[link].next = table.entries[code].next
			return
		}
	}
}

// insert fills `cur` with the sequence `prefix`+`suffix` and links it at the
// head of the prefix's bucket.
func (table *codeTable) insert(prefix uint16, suffix byte) {
	slot := table.cur
	table.entries[slot] = codeEntry{
		prefix: prefix,
		suffix: suffix,
		next:   table.buckets[prefix],
	}
	table.buckets[prefix] = slot
	table.defined.Set(int(slot), true)
	table.entryUsed = true
}

// lookup returns the code for `prefix`+`suffix` if the table has one.
func (table *codeTable) lookup(prefix uint16, suffix byte) (uint16, bool) {
	for link := table.buckets[prefix]; link != noCode; link = table.entries[link].next {
		if table.entries[link].suffix == suffix {
			return link, true
		}
	}
	return 0, false
}

// isLiteral returns true if `code` stands for a single byte rather than a slot.
func (table *codeTable) isLiteral(code uint) bool {
	return code < table.minTableEntry
}

// isDefined returns true if `code` is a literal or a slot holding a live entry.
func (table *codeTable) isDefined(code uint) bool {
	if table.isLiteral(code) {
		return true
	}
	return code < tableSize && table.defined.Get(int(code))
}
