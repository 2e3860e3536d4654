// Package interval implements wrapped (cyclic) bitvector intervals.
//
// An interval is a contiguous arc [Min, Max] over Z/2^Size, endpoints
// inclusive. Min > Max in the natural unsigned order encodes an arc that
// wraps through zero; this is how signed half-planes stay representable
// as a single interval (the signed-negative range sits in the upper half
// of the unsigned circle).
package interval

import (
	"fmt"

	"fuzzysat/internal/ast"
)

// Wrapped is a cyclic interval over Z/2^Size. The zero value is not
// meaningful; use the constructors.
type Wrapped struct {
	Min    uint64
	Max    uint64
	Size   uint32
	Signed bool // constructed from a signed comparison; drives widening

	empty bool
}

func mask(size uint32) uint64 {
	if size >= 64 {
		return ^uint64(0)
	}
	return (1 << size) - 1
}

func checkSize(size uint32) {
	if size == 0 || size > 64 {
		panic(fmt.Sprintf("interval: invalid size %d", size))
	}
}

// Full returns the interval containing every value of the given width.
func Full(size uint32) Wrapped {
	checkSize(size)
	return Wrapped{Min: 0, Max: mask(size), Size: size}
}

// Empty returns the empty interval of the given width.
func Empty(size uint32) Wrapped {
	checkSize(size)
	return Wrapped{Size: size, empty: true}
}

// FromCmp builds the solution set of `x op c` over Z/2^size as a single
// wrapped interval. EQ yields the point interval at c; strict orderings
// are folded into their non-strict neighbours (ULT c == ULE c-1 and so
// on); each signed half-plane is one arc through the wrap point.
func FromCmp(c uint64, op ast.Kind, size uint32) Wrapped {
	checkSize(size)
	m := mask(size)
	c &= m
	smin := uint64(1) << (size - 1) // most negative signed value
	smax := smin - 1                // most positive signed value

	switch op {
	case ast.EQ:
		return Wrapped{Min: c, Max: c, Size: size}
	case ast.ULT:
		if c == 0 {
			return Empty(size)
		}
		return Wrapped{Min: 0, Max: c - 1, Size: size}
	case ast.ULE:
		return Wrapped{Min: 0, Max: c, Size: size}
	case ast.UGT:
		if c == m {
			return Empty(size)
		}
		return Wrapped{Min: c + 1, Max: m, Size: size}
	case ast.UGE:
		return Wrapped{Min: c, Max: m, Size: size}
	case ast.SLT:
		if c == smin {
			e := Empty(size)
			e.Signed = true
			return e
		}
		return Wrapped{Min: smin, Max: (c - 1) & m, Size: size, Signed: true}
	case ast.SLE:
		return Wrapped{Min: smin, Max: c, Size: size, Signed: true}
	case ast.SGT:
		if c == smax {
			e := Empty(size)
			e.Signed = true
			return e
		}
		return Wrapped{Min: (c + 1) & m, Max: smax, Size: size, Signed: true}
	case ast.SGE:
		return Wrapped{Min: c, Max: smax, Size: size, Signed: true}
	}
	panic(fmt.Sprintf("interval: FromCmp with non-ordering kind %s", op))
}

// IsEmpty reports whether the interval contains no values.
func (w Wrapped) IsEmpty() bool { return w.empty }

// Contains reports whether v (taken mod 2^Size) lies on the arc.
func (w Wrapped) Contains(v uint64) bool {
	if w.empty {
		return false
	}
	v &= mask(w.Size)
	if w.Min <= w.Max {
		return v >= w.Min && v <= w.Max
	}
	return v >= w.Min || v <= w.Max
}

// Range returns the number of contained values. A full 64-bit interval
// saturates at 2^64-1 since the true count does not fit a uint64.
func (w Wrapped) Range() uint64 {
	if w.empty {
		return 0
	}
	span := (w.Max - w.Min) & mask(w.Size)
	if span == ^uint64(0) {
		return span
	}
	return span + 1
}

// WidenTo extends the interval to a larger width. Endpoints are sign- or
// zero-extended according to how the interval was constructed.
func (w Wrapped) WidenTo(size uint32) Wrapped {
	checkSize(size)
	if size < w.Size {
		panic(fmt.Sprintf("interval: widen from %d to narrower %d", w.Size, size))
	}
	if w.empty {
		e := Empty(size)
		e.Signed = w.Signed
		return e
	}
	out := Wrapped{Size: size, Signed: w.Signed}
	out.Min = extend(w.Min, w.Size, size, w.Signed)
	out.Max = extend(w.Max, w.Size, size, w.Signed)
	return out
}

func extend(v uint64, from, to uint32, signed bool) uint64 {
	if !signed || from == 64 {
		return v
	}
	if v&(1<<(from-1)) != 0 {
		v |= ^mask(from)
	}
	return v & mask(to)
}

// Invert maps the arc pointwise through x -> -x.
func (w Wrapped) Invert() Wrapped {
	if w.empty {
		return w
	}
	m := mask(w.Size)
	return Wrapped{Min: (-w.Max) & m, Max: (-w.Min) & m, Size: w.Size, Signed: w.Signed}
}

// AddK shifts the arc by +k mod 2^Size.
func (w Wrapped) AddK(k uint64) Wrapped {
	if w.empty {
		return w
	}
	m := mask(w.Size)
	return Wrapped{Min: (w.Min + k) & m, Max: (w.Max + k) & m, Size: w.Size, Signed: w.Signed}
}

// SubK shifts the arc by -k mod 2^Size.
func (w Wrapped) SubK(k uint64) Wrapped {
	return w.AddK(-k & mask(w.Size))
}

// Intersect returns the common arc of two intervals of equal width. The
// cyclic intersection of two arcs can in general split into two disjoint
// arcs; in that case the larger one is kept (ties keep the arc starting
// at the other interval's Min), so the result stays a single interval.
func (w Wrapped) Intersect(o Wrapped) Wrapped {
	if w.Size != o.Size {
		panic(fmt.Sprintf("interval: intersect width mismatch %d vs %d", w.Size, o.Size))
	}
	if w.empty || o.empty {
		e := Empty(w.Size)
		e.Signed = w.Signed
		return e
	}

	best := Empty(w.Size)
	best.Signed = w.Signed || o.Signed
	var bestRange uint64
	var top, bottom *Wrapped
	for _, a := range w.segments() {
		for _, b := range o.segments() {
			lo := maxU64(a[0], b[0])
			hi := minU64(a[1], b[1])
			if lo > hi {
				continue
			}
			seg := Wrapped{Min: lo, Max: hi, Size: w.Size, Signed: best.Signed}
			if r := seg.Range(); r > bestRange || (r == bestRange && seg.Min == o.Min) {
				best = seg
				bestRange = r
			}
			switch {
			case hi == mask(w.Size) && lo != 0:
				top = &seg
			case lo == 0 && hi != mask(w.Size):
				bottom = &seg
			}
		}
	}
	// a piece ending at the top of the domain and one starting at zero
	// are the two halves of a single arc through the wrap point
	if top != nil && bottom != nil {
		joined := Wrapped{Min: top.Min, Max: bottom.Max, Size: w.Size, Signed: best.Signed}
		if r := joined.Range(); r > bestRange || (r == bestRange && joined.Min == o.Min) {
			best = joined
		}
	}
	return best
}

// segments splits the arc into at most two linear [lo, hi] pieces.
func (w Wrapped) segments() [][2]uint64 {
	if w.Min <= w.Max {
		return [][2]uint64{{w.Min, w.Max}}
	}
	return [][2]uint64{{w.Min, mask(w.Size)}, {0, w.Max}}
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func (w Wrapped) String() string {
	if w.empty {
		return fmt.Sprintf("[empty] (%d)", w.Size)
	}
	return fmt.Sprintf("[ 0x%x, 0x%x ] (%d)", w.Min, w.Max, w.Size)
}
