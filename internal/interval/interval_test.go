package interval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fuzzysat/internal/ast"
)

var orderingOps = []ast.Kind{
	ast.EQ, ast.ULT, ast.ULE, ast.UGT, ast.UGE,
	ast.SLT, ast.SLE, ast.SGT, ast.SGE,
}

// cmpHolds is the reference predicate the constructors must agree with.
func cmpHolds(x, c uint64, op ast.Kind, size uint32) bool {
	m := mask(size)
	x &= m
	c &= m
	sx := int64(x << (64 - size)) >> (64 - size)
	sc := int64(c << (64 - size)) >> (64 - size)
	switch op {
	case ast.EQ:
		return x == c
	case ast.ULT:
		return x < c
	case ast.ULE:
		return x <= c
	case ast.UGT:
		return x > c
	case ast.UGE:
		return x >= c
	case ast.SLT:
		return sx < sc
	case ast.SLE:
		return sx <= sc
	case ast.SGT:
		return sx > sc
	case ast.SGE:
		return sx >= sc
	}
	return false
}

func TestFromCmpSoundness(t *testing.T) {
	// Exhaustive over a small width: the produced interval must contain
	// exactly the models of the comparison.
	const size = 5
	for _, op := range orderingOps {
		for c := uint64(0); c < 1<<size; c++ {
			w := FromCmp(c, op, size)
			for x := uint64(0); x < 1<<size; x++ {
				want := cmpHolds(x, c, op, size)
				if got := w.Contains(x); got != want {
					t.Fatalf("op=%s c=%d x=%d: Contains=%v want %v (%s)", op, c, x, got, want, w)
				}
			}
		}
	}
}

func TestRangeMatchesIterator(t *testing.T) {
	const size = 6
	for _, op := range orderingOps {
		for c := uint64(0); c < 1<<size; c += 7 {
			w := FromCmp(c, op, size)
			it := w.Values()
			n := uint64(0)
			for {
				v, ok := it.Next()
				if !ok {
					break
				}
				assert.True(t, w.Contains(v), "iterated value must be contained")
				n++
			}
			assert.Equal(t, w.Range(), n, "op=%s c=%d", op, c)
		}
	}
}

func TestIntersectLaws(t *testing.T) {
	const size = 8
	ws := []Wrapped{
		FromCmp(0x10, ast.ULT, size),
		FromCmp(0x08, ast.UGE, size),
		FromCmp(0x7f, ast.SLE, size),
		FromCmp(0x80, ast.SGE, size),
		FromCmp(0x42, ast.EQ, size),
		Full(size),
		Empty(size),
	}
	for _, a := range ws {
		for _, b := range ws {
			ab := a.Intersect(b)
			ba := b.Intersect(a)
			assert.Equal(t, ab.Range(), ba.Range(), "commutative cardinality")
			again := ab.Intersect(ab)
			assert.Equal(t, ab.Range(), again.Range(), "idempotent")
			// Every element of the intersection lies in both operands.
			it := ab.Values()
			for {
				v, ok := it.Next()
				if !ok {
					break
				}
				assert.True(t, a.Contains(v) && b.Contains(v))
			}
		}
	}
}

func TestIntersectEmpty(t *testing.T) {
	lo := FromCmp(0x10, ast.ULT, 8)
	hi := FromCmp(0xf0, ast.UGE, 8)
	assert.True(t, lo.Intersect(hi).IsEmpty())
	assert.Equal(t, uint64(0), lo.Intersect(hi).Range())
}

func TestIntersectWrapped(t *testing.T) {
	// The signed-positive arc [0x00, 0x7f] meets [0x70, 0xff]; only the
	// overlap below the sign boundary survives.
	a := FromCmp(0x00, ast.SGE, 8) // [0x00, 0x7f]
	b := FromCmp(0x70, ast.UGE, 8) // [0x70, 0xff]
	got := a.Intersect(b)
	assert.False(t, got.IsEmpty())
	assert.Equal(t, uint64(0x70), got.Min)
	assert.Equal(t, uint64(0x7f), got.Max)
}

func TestWidenUnsigned(t *testing.T) {
	w := FromCmp(0x80, ast.ULE, 8).WidenTo(16)
	assert.Equal(t, uint32(16), w.Size)
	assert.True(t, w.Contains(0x80))
	assert.False(t, w.Contains(0x180), "zero-extension must not alias high values")
}

func TestWidenSigned(t *testing.T) {
	// SLE -2 over 8 bits: [0x80, 0xfe]. Sign-extension keeps the arc in
	// the negative range of the wider domain.
	w := FromCmp(0xfe, ast.SLE, 8).WidenTo(16)
	assert.True(t, w.Contains(0xfffe))
	assert.True(t, w.Contains(0xff80))
	assert.False(t, w.Contains(0x00fe))
}

func TestAddSubInvert(t *testing.T) {
	w := FromCmp(0x20, ast.ULE, 8) // [0, 0x20]
	shifted := w.AddK(5)
	assert.True(t, shifted.Contains(5))
	assert.True(t, shifted.Contains(0x25))
	assert.False(t, shifted.Contains(4))

	back := shifted.SubK(5)
	assert.Equal(t, w.Min, back.Min)
	assert.Equal(t, w.Max, back.Max)

	inv := w.Invert() // [-0x20, 0] == [0xe0, 0x00] wrapped
	assert.True(t, inv.Contains(0))
	assert.True(t, inv.Contains(0xe0))
	assert.False(t, inv.Contains(1))
	assert.Equal(t, w.Range(), inv.Range())
}

func TestFullAndPointIntervals(t *testing.T) {
	f := Full(8)
	assert.Equal(t, uint64(256), f.Range())
	p := FromCmp(0xaa, ast.EQ, 8)
	assert.Equal(t, uint64(1), p.Range())
	v, ok := p.Values().Next()
	assert.True(t, ok)
	assert.Equal(t, uint64(0xaa), v)
}

func TestEmptyConstructors(t *testing.T) {
	assert.True(t, FromCmp(0, ast.ULT, 8).IsEmpty())
	assert.True(t, FromCmp(0xff, ast.UGT, 8).IsEmpty())
	assert.True(t, FromCmp(0x80, ast.SLT, 8).IsEmpty())
	assert.True(t, FromCmp(0x7f, ast.SGT, 8).IsEmpty())
}
