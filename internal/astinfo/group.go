// Package astinfo holds the per-expression analysis records the solver
// memoises: which input bytes an expression touches, which contiguous
// multi-byte groups back it, and coarse shape counters that the phase
// cascade uses to pick strategies.
package astinfo

import "fmt"

// MaxGroupSize caps index groups at 8 bytes, one machine word.
const MaxGroupSize = 8

// Group is an ordered tuple of input byte indices treated as one
// multi-byte value. Index order is most-significant byte first, the way
// a concat chain lists its operands. Group is comparable and used
// directly as a map key.
type Group struct {
	n   uint8
	idx [MaxGroupSize]uint32
}

// NewGroup builds a group from indices in most-significant-first order.
func NewGroup(indices ...int) Group {
	if len(indices) > MaxGroupSize {
		panic(fmt.Sprintf("astinfo: group of %d bytes exceeds the %d-byte cap", len(indices), MaxGroupSize))
	}
	var g Group
	g.n = uint8(len(indices))
	for i, ix := range indices {
		g.idx[i] = uint32(ix)
	}
	return g
}

// Len returns the number of bytes in the group.
func (g Group) Len() int { return int(g.n) }

// Index returns the i-th byte index, most-significant first.
func (g Group) Index(i int) int { return int(g.idx[i]) }

// Indices returns the byte indices as a fresh slice.
func (g Group) Indices() []int {
	out := make([]int, g.n)
	for i := 0; i < int(g.n); i++ {
		out[i] = int(g.idx[i])
	}
	return out
}

// Has reports whether the group contains the byte index.
func (g Group) Has(index int) bool {
	for i := 0; i < int(g.n); i++ {
		if int(g.idx[i]) == index {
			return true
		}
	}
	return false
}

// ValueLE reads the group from the value buffer with the last-listed
// index as the least significant byte. For a group built from
// concat(b3,b2,b1,b0) this is the value of the concat itself.
func (g Group) ValueLE(buf []uint64) uint64 {
	var v uint64
	for i := 0; i < int(g.n); i++ {
		v = v<<8 | buf[g.idx[i]]&0xff
	}
	return v
}

// ValueBE reads the group with the first-listed index as the least
// significant byte, the byte-swapped view of ValueLE.
func (g Group) ValueBE(buf []uint64) uint64 {
	var v uint64
	for i := int(g.n) - 1; i >= 0; i-- {
		v = v<<8 | buf[g.idx[i]]&0xff
	}
	return v
}

// SetLE writes v into the buffer so that ValueLE reads it back.
func (g Group) SetLE(buf []uint64, v uint64) {
	for i := int(g.n) - 1; i >= 0; i-- {
		buf[g.idx[i]] = v & 0xff
		v >>= 8
	}
}

// SetBE writes v into the buffer so that ValueBE reads it back.
func (g Group) SetBE(buf []uint64, v uint64) {
	for i := 0; i < int(g.n); i++ {
		buf[g.idx[i]] = v & 0xff
		v >>= 8
	}
}

// Bits returns the group's width in bits.
func (g Group) Bits() uint32 { return uint32(g.n) * 8 }

func (g Group) String() string {
	s := "<"
	for i := 0; i < int(g.n); i++ {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("b%d", g.idx[i])
	}
	return s + ">"
}
