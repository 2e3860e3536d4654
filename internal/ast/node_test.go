package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStructuralHashEquality(t *testing.T) {
	mk := func() *Node {
		return NewCmp(EQ, NewConcat(NewSym(1, 8), NewSym(0, 8)), NewConst(0xbeef, 16))
	}
	assert.Equal(t, mk().Hash(), mk().Hash(), "structurally equal trees hash equal")
}

func TestStructuralHashDistinguishes(t *testing.T) {
	a := NewCmp(EQ, NewSym(0, 8), NewConst(1, 8))
	b := NewCmp(EQ, NewSym(0, 8), NewConst(2, 8))
	c := NewCmp(NE, NewSym(0, 8), NewConst(1, 8))
	assert.NotEqual(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), c.Hash())

	x := NewExtract(7, 0, NewConcat(NewSym(1, 8), NewSym(0, 8)))
	y := NewExtract(15, 8, NewConcat(NewSym(1, 8), NewSym(0, 8)))
	assert.NotEqual(t, x.Hash(), y.Hash(), "extract bounds are part of the hash")
}

func TestNegateCmpInvolution(t *testing.T) {
	for _, k := range []Kind{EQ, NE, ULT, ULE, UGT, UGE, SLT, SLE, SGT, SGE} {
		assert.Equal(t, k, NegateCmp(NegateCmp(k)), "%s", k)
	}
}

func TestSwapCmpInvolution(t *testing.T) {
	for _, k := range []Kind{EQ, NE, ULT, ULE, UGT, UGE, SLT, SLE, SGT, SGE} {
		assert.Equal(t, k, SwapCmp(SwapCmp(k)), "%s", k)
	}
}

func TestConstTruncation(t *testing.T) {
	n := NewConst(0x1ff, 8)
	assert.Equal(t, uint64(0xff), n.Val)
}

func TestConcatWidth(t *testing.T) {
	n := NewConcat(NewSym(1, 8), NewSym(0, 8))
	assert.Equal(t, uint32(16), n.Size)
}

func TestExtractBoundsChecked(t *testing.T) {
	w := NewConcat(NewSym(1, 8), NewSym(0, 8))
	assert.Panics(t, func() { NewExtract(16, 0, w) })
	assert.Panics(t, func() { NewExtract(3, 4, w) })
}

func TestPrinterRoundTripShape(t *testing.T) {
	n := NewCmp(UGT, NewConcat(NewSym(1, 8), NewSym(0, 8)), NewConst(0x0ff0, 16))
	assert.Equal(t, "(ugt (concat b1 b0) 0xff0)", n.String())
}

func TestKindByName(t *testing.T) {
	k, ok := KindByName("bvadd")
	assert.True(t, ok)
	assert.Equal(t, BVADD, k)
	_, ok = KindByName("sym")
	assert.False(t, ok, "leaf kinds are not operator names")
}
