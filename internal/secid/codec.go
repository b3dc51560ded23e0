package secid

import "fmt"

// Category is the security class packed into the high bits of a SID.
type Category int

const (
	Equity Category = iota
	Preferred
	ADR
	Warrant
	Bond
	Option
	Future
	ETF
	MutualFund
	Crypto
	FX
	Swap
	Other
)

const (
	shift = 48
	// MaxSequence is the largest sequence that survives the codec unchanged.
	MaxSequence = 1<<31 - 1
	seqMask     = int64(MaxSequence)
	// bits between the sequence field and the tag field must be zero
	gapMask = int64(1)<<shift - 1 - seqMask
)

// tags are persisted inside every SID. Never renumber them.
var tags = map[Category]uint16{
	Equity:     0b0000_0000,
	Preferred:  0b0000_0010,
	ADR:        0b0000_0100,
	Warrant:    0b0000_0110,
	Bond:       0b0001_0000,
	Option:     0b0010_0000,
	Future:     0b0011_0000,
	ETF:        0b0100_0000,
	MutualFund: 0b0101_0000,
	Crypto:     0b0110_0000,
	FX:         0b0111_0000,
	Swap:       0b1000_0000,
	Other:      0b1111_0000,
}

var byTag = func() map[uint16]Category {
	m := make(map[uint16]Category, len(tags))
	for c, t := range tags {
		m[t] = c
	}
	return m
}()

// Categories lists every category in declaration order.
func Categories() []Category {
	return []Category{Equity, Preferred, ADR, Warrant, Bond, Option, Future, ETF, MutualFund, Crypto, FX, Swap, Other}
}

// Key is a decoded SID.
type Key struct {
	Category Category
	Sequence uint32
}

// Tag returns the wire tag of c.
func (c Category) Tag() uint16 {
	return tags[c]
}

// Encode packs a category and sequence into a SID. Sequences wider than
// MaxSequence are masked; use EncodeChecked to reject them instead.
func Encode(c Category, seq uint32) int64 {
	return int64(tags[c])<<shift | int64(seq)&seqMask
}

// EncodeChecked is Encode with range validation of both arguments.
func EncodeChecked(c Category, seq uint32) (int64, error) {
	if _, ok := tags[c]; !ok {
		return 0, fmt.Errorf("unknown category %d", int(c))
	}
	if seq > MaxSequence {
		return 0, fmt.Errorf("sequence %d exceeds %d", seq, MaxSequence)
	}
	return Encode(c, seq), nil
}

// Decode unpacks a SID. It reports false when the tag is not a known
// category or when bits outside the tag and sequence fields are set.
func Decode(sid int64) (Key, bool) {
	if sid&gapMask != 0 {
		return Key{}, false
	}
	tag := uint16(uint64(sid) >> shift)
	c, ok := byTag[tag]
	if !ok {
		return Key{}, false
	}
	return Key{Category: c, Sequence: uint32(sid & seqMask)}, true
}

// SequenceOf returns the sequence part of a SID without validating the tag.
func SequenceOf(sid int64) uint32 {
	return uint32(sid & seqMask)
}
