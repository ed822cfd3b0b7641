package compression

import (
	"testing"

	"github.com/dargueta/tosz/utilities/bitfield"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeTable__New(t *testing.T) {
	for _, minBits := range []uint{7, 8} {
		table := newCodeTable(minBits)
		first := uint16(1 << minBits)

		assert.EqualValues(t, noCode, table.cur, "nothing should be current yet")
		assert.EqualValues(t, first, table.next, "next should be the first slot")
		assert.EqualValues(t, minBits+1, table.nextBits)
		assert.EqualValues(t, first+1, table.freeIndex)
		assert.True(t, table.entryUsed)
	}
}

func TestCodeTable__AdvanceWithoutInsertIsNoop(t *testing.T) {
	table := newCodeTable(8)
	table.advance()
	require.EqualValues(t, 256, table.cur)

	before := *table
	table.advance()
	assert.Equal(t, before, *table, "advancing twice without an insert changed the table")
}

func TestCodeTable__InsertAndLookup(t *testing.T) {
	table := newCodeTable(8)
	table.advance()

	table.insert('a', 'b')
	table.advance()
	table.insert('a', 'c')
	table.advance()
	table.insert(256, 'z')
	table.advance()

	code, found := table.lookup('a', 'b')
	assert.True(t, found)
	assert.EqualValues(t, 256, code)

	code, found = table.lookup('a', 'c')
	assert.True(t, found)
	assert.EqualValues(t, 257, code)

	code, found = table.lookup(256, 'z')
	assert.True(t, found)
	assert.EqualValues(t, 258, code)

	_, found = table.lookup('a', 'z')
	assert.False(t, found, "found a sequence that was never inserted")
	_, found = table.lookup('b', 'a')
	assert.False(t, found, "found a sequence that was never inserted")

	// Newest entries go at the head of the chain.
	assert.EqualValues(t, 257, table.buckets['a'])
	assert.EqualValues(t, 256, table.entries[257].next)
	assert.EqualValues(t, noCode, table.entries[256].next)

	assert.True(t, table.isDefined('q'), "literals are always defined")
	assert.True(t, table.isDefined(258))
	assert.False(t, table.isDefined(259), "current slot isn't defined yet")
	assert.False(t, table.isDefined(3000))
}

// The width used for a code goes up one bit when the slot at the top of the
// current power of two becomes current.
func TestCodeTable__WidthGrowth(t *testing.T) {
	table := newCodeTable(8)
	table.advance()

	widthAtSlot := map[uint16]uint{}
	for table.cur < 2047 {
		widthAtSlot[table.cur] = table.curBits
		table.insert('x', byte(table.cur))
		table.advance()
	}

	assert.EqualValues(t, 9, widthAtSlot[256])
	assert.EqualValues(t, 9, widthAtSlot[510])
	assert.EqualValues(t, 10, widthAtSlot[511])
	assert.EqualValues(t, 10, widthAtSlot[1022])
	assert.EqualValues(t, 11, widthAtSlot[1023])
	assert.EqualValues(t, 12, table.curBits, "slot 2047 should use 12 bits")
	assert.EqualValues(t, MaxCodeBits, table.nextBits)
}

// Once the width maxes out, slots are taken by scanning forward and skipping
// every slot that is the prefix of a live entry.
func TestCodeTable__Recycling(t *testing.T) {
	table := newCodeTable(8)
	table.advance()

	for n := 0; ; n++ {
		slot := table.cur
		if slot == 2047 {
			// Slot 2048 is where the free index stood when the width maxed out.
			// The scan starts past it and only comes back to it after a lap.
			assert.EqualValues(t, 12, table.curBits)
			assert.EqualValues(t, 2049, table.next)
		}

		prefix := uint16('x')
		if slot >= 257 && slot <= 259 {
			// Build the chain 256 <- 257 <- 258 <- 259.
			prefix = slot - 1
		}
		table.insert(prefix, byte(n))

		if slot == 4095 {
			break
		}
		table.advance()
		require.NotEqualValues(t, 2048, table.cur, "slot 2048 used before the first lap")
	}

	// When 4095 became current the scan wrapped past the chain heads 256-258
	// and took 259, the leaf at the end of the chain.
	assert.EqualValues(t, 4095, table.cur)
	assert.EqualValues(t, 259, table.next)
	assert.EqualValues(t, noCode, table.buckets[258], "259 wasn't unlinked from its prefix")
	assert.False(t, table.isDefined(259))
	assert.EqualValues(t, 1, table.recycled)

	table.advance()
	assert.EqualValues(t, 259, table.cur)
	assert.EqualValues(t, 260, table.next)
	assert.EqualValues(t, 2, table.recycled)

	assert.False(t, chainContains(table, 'x', 260), "evicted entry is still reachable")
	assert.True(t, chainContains(table, 'x', 261))
}

func chainContains(table *codeTable, prefix, code uint16) bool {
	for link := table.buckets[prefix]; link != noCode; link = table.entries[link].next {
		if link == code {
			return true
		}
	}
	return false
}

////////////////////////////////////////////////////////////////////////////////
// Encoder/decoder internals

func encodeForTest(t *testing.T, source []byte) (*encoder, []byte) {
	compressionType := DetermineCompressionType(source)
	limitBits := uint(len(source)+HeaderSize+1) * 8
	buffer := make([]byte, bitfield.BytesForBits(limitBits)+encoderSlack)

	enc := newEncoder(compressionType, buffer, HeaderSize*8, limitBits)
	require.True(t, enc.encode(source), "encoding ran out of room")
	return enc, buffer[:bitfield.BytesForBits(enc.dstPos)]
}

// After a full round trip the encoder and decoder must have built identical
// tables, including through the recycling phase.
func TestEncoderDecoder__TablesInLockstep(t *testing.T) {
	sources := map[string][]byte{
		"text":     lockstepBody(200000, 'a'),
		"binary":   lockstepBody(200000, 0xa0),
		"short":    []byte("abracadabra abracadabra"),
		"one byte": {0x90},
	}

	for name, source := range sources {
		t.Run(
			name,
			func(t *testing.T) {
				enc, stream := encodeForTest(t, source)

				dec := newDecoder(
					DetermineCompressionType(source),
					stream,
					HeaderSize*8,
					uint(len(stream))*8,
				)
				output, err := dec.decode(uint(len(source)))
				require.NoError(t, err)
				require.Equal(t, source, output, "round trip failed")

				assert.Equal(t, enc.table.cur, dec.table.cur, "current slot differs")
				assert.Equal(t, enc.table.next, dec.table.next, "next slot differs")
				assert.Equal(t, enc.table.nextBits, dec.table.nextBits, "widths differ")
				assert.Equal(t, enc.table.recycled, dec.table.recycled)
				assert.True(t, enc.table.entries == dec.table.entries, "entries differ")
				assert.True(t, enc.table.buckets == dec.table.buckets, "buckets differ")
				assert.Equal(t, enc.table.defined, dec.table.defined)
			},
		)
	}
}

func TestEncoderDecoder__LongInputRecycles(t *testing.T) {
	enc, _ := encodeForTest(t, lockstepBody(200000, 'a'))
	assert.Greater(t, enc.table.recycled, uint(0), "input never forced slots to be recycled")
}

// lockstepBody returns a deterministic body of symbols drawn uniformly from the
// 20 byte values starting at `base`. That's varied enough to keep the table
// churning and regular enough to code smaller than it stores.
func lockstepBody(size int, base byte) []byte {
	body := make([]byte, size)
	state := uint32(0x12345678)
	for i := range body {
		state = state*1103515245 + 12345
		body[i] = base + byte((state>>16)%20)
	}
	return body
}

func TestEncoder__RunsOutOfRoom(t *testing.T) {
	source := []byte("this will never fit in forty bits of output")
	buffer := make([]byte, 32)

	enc := newEncoder(Coded7Bit, buffer, 0, 40)
	assert.False(t, enc.encode(source), "encoder should have run out of room")
	assert.LessOrEqual(t, enc.dstPos, uint(40), "encoder wrote past its limit")
}

// The final flush needs room too; losing it must fail the whole encode.
func TestEncoder__FinalFlushDoesNotFit(t *testing.T) {
	source := []byte{'a', 'b', 'c'}
	buffer := make([]byte, 16)

	// Three distinct bytes need three 8-bit codes; leave room for two.
	enc := newEncoder(Coded7Bit, buffer, 0, 16)
	assert.False(t, enc.encode(source))

	buffer = make([]byte, 16)
	enc = newEncoder(Coded7Bit, buffer, 0, 24)
	assert.True(t, enc.encode(source))
	assert.EqualValues(t, 24, enc.dstPos)
	assert.Equal(t, []byte{'a', 'b', 'c'}, buffer[:3])
}
