package secid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fromBits(u uint64) int64 {
	return int64(u)
}

func TestEncodeDecode_RoundTripEveryCategory(t *testing.T) {
	sequences := []uint32{0, 1, 2, 42, 65535, 1 << 20, MaxSequence - 1, MaxSequence}
	for _, c := range Categories() {
		for _, seq := range sequences {
			sid := Encode(c, seq)
			key, ok := Decode(sid)
			require.True(t, ok, "decode failed for %s/%d", c, seq)
			assert.Equal(t, c, key.Category)
			assert.Equal(t, seq, key.Sequence)
		}
	}
}

func TestTagsAreUniqueAndStable(t *testing.T) {
	expected := map[Category]uint16{
		Equity:     0x00,
		Preferred:  0x02,
		ADR:        0x04,
		Warrant:    0x06,
		Bond:       0x10,
		Option:     0x20,
		Future:     0x30,
		ETF:        0x40,
		MutualFund: 0x50,
		Crypto:     0x60,
		FX:         0x70,
		Swap:       0x80,
		Other:      0xF0,
	}
	seen := make(map[uint16]Category)
	for _, c := range Categories() {
		assert.Equal(t, expected[c], c.Tag(), "tag for %s", c)
		if prev, dup := seen[c.Tag()]; dup {
			t.Fatalf("tag %#x shared by %s and %s", c.Tag(), prev, c)
		}
		seen[c.Tag()] = c
	}
	assert.Len(t, seen, 13)
}

func TestEncode_KnownValues(t *testing.T) {
	assert.Equal(t, int64(1), Encode(Equity, 1))
	assert.Equal(t, int64(0x0040_0000_0000_0007), Encode(ETF, 7))
	assert.Equal(t, int64(0x00F0_0000_7FFF_FFFF), Encode(Other, MaxSequence))
}

func TestDecode_RejectsUnknownTags(t *testing.T) {
	invalid := []int64{
		fromBits(0x8100_0000_0000_00FF),
		fromBits(0x9000_0000_0000_0001),
		fromBits(0x1100_0000_0000_0001),
		fromBits(0x0001_0000_0000_0000), // tag 0x01
		fromBits(0x00FF_0000_0000_0000),
		-1,
	}
	for _, sid := range invalid {
		_, ok := Decode(sid)
		assert.False(t, ok, "sid %#x should not decode", uint64(sid))
	}
}

func TestDecode_RejectsStrayBits(t *testing.T) {
	// bit 31 sits between the sequence and the tag
	_, ok := Decode(int64(1) << 31)
	assert.False(t, ok)

	_, ok = Decode(Encode(Bond, 5) | int64(1)<<40)
	assert.False(t, ok)
}

func TestEncodeChecked(t *testing.T) {
	sid, err := EncodeChecked(Crypto, 12)
	require.NoError(t, err)
	assert.Equal(t, Encode(Crypto, 12), sid)

	_, err = EncodeChecked(Crypto, MaxSequence+1)
	assert.Error(t, err)

	_, err = EncodeChecked(Category(99), 1)
	assert.Error(t, err)
}

func TestSequenceOf(t *testing.T) {
	assert.Equal(t, uint32(314), SequenceOf(Encode(Swap, 314)))
}
