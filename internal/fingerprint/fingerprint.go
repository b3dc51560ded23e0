package fingerprint

import (
	"encoding/binary"
	"hash/crc32"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Canonical is implemented by rows that can be fingerprinted. Implementations
// must write every field that matters, always in the same order.
type Canonical interface {
	WriteCanonical(e *Encoder)
}

// Encoder builds the canonical byte form of a row sequence. Variable-length
// values are length-prefixed so adjacent fields can never run together.
type Encoder struct {
	buf []byte
}

func (e *Encoder) String(s string) {
	e.buf = binary.AppendUvarint(e.buf, uint64(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *Encoder) Strings(ss []string) {
	e.buf = binary.AppendUvarint(e.buf, uint64(len(ss)))
	for _, s := range ss {
		e.String(s)
	}
}

func (e *Encoder) Int64(v int64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, uint64(v))
}

func (e *Encoder) Float64(v float64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, math.Float64bits(v))
}

func (e *Encoder) Bool(v bool) {
	if v {
		e.buf = append(e.buf, 1)
		return
	}
	e.buf = append(e.buf, 0)
}

func (e *Encoder) Time(t time.Time) {
	e.Int64(t.UnixNano())
}

// Decimal writes the canonical string of d; trailing zeros do not matter.
func (e *Encoder) Decimal(d decimal.Decimal) {
	e.String(d.String())
}

// Optional writes a presence byte followed by s when present.
func (e *Encoder) Optional(s *string) {
	e.Bool(s != nil)
	if s != nil {
		e.String(*s)
	}
}

func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Of returns the checksum of rows in their given order, as a decimal string.
// Reordering identical rows changes the result.
func Of[T Canonical](rows []T) string {
	var e Encoder
	for _, row := range rows {
		row.WriteCanonical(&e)
	}
	return Sum(e.Bytes())
}

// One fingerprints a single row.
func One(row Canonical) string {
	var e Encoder
	row.WriteCanonical(&e)
	return Sum(e.Bytes())
}

// Sum is the IEEE CRC-32 of b formatted in base 10.
func Sum(b []byte) string {
	return strconv.FormatUint(uint64(crc32.ChecksumIEEE(b)), 10)
}

// Equal compares two stored fingerprints. An empty value never matches.
func Equal(a, b string) bool {
	return a != "" && a == b
}
