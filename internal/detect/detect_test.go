package detect

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuzzysat/internal/ast"
	"fuzzysat/internal/astinfo"
	"fuzzysat/internal/conceval"
)

type testResolver struct {
	inputs      int
	assignments map[int]*ast.Node
}

func (r *testResolver) NumInputs() int { return r.inputs }
func (r *testResolver) Assignment(index int) *ast.Node {
	return r.assignments[index]
}

func res(n int) *testResolver { return &testResolver{inputs: n} }

func sym(i int) *ast.Node { return ast.NewSym(i, 8) }

func word32(b3, b2, b1, b0 int) *ast.Node {
	return ast.NewConcat(ast.NewConcat(sym(b3), sym(b2)), ast.NewConcat(sym(b1), sym(b0)))
}

func seedEval(seed []uint64) ConstEval {
	var touches func(n *ast.Node) bool
	touches = func(n *ast.Node) bool {
		if n.Kind == ast.SYM {
			return true
		}
		for _, a := range n.Args {
			if touches(a) {
				return true
			}
		}
		return false
	}
	return func(n *ast.Node) (uint64, bool) {
		if touches(n) {
			return 0, false
		}
		v, _ := conceval.Eval(n, seed)
		return v, true
	}
}

func TestGroupSingleton(t *testing.T) {
	g, approx, ok := Group(sym(3), res(8))
	require.True(t, ok)
	assert.False(t, approx)
	assert.Equal(t, []int{3}, g.Indices())
}

func TestGroupConcat(t *testing.T) {
	g, approx, ok := Group(word32(3, 2, 1, 0), res(8))
	require.True(t, ok)
	assert.False(t, approx)
	assert.Equal(t, []int{3, 2, 1, 0}, g.Indices())
}

func TestGroupConcatConstPadding(t *testing.T) {
	// A constant at the top of the chain is dropped but marks the group
	// approximated; a constant between inputs rejects.
	padded := ast.NewConcat(ast.NewConst(0, 8), ast.NewConcat(sym(1), sym(0)))
	g, approx, ok := Group(padded, res(8))
	require.True(t, ok)
	assert.True(t, approx)
	assert.Equal(t, []int{1, 0}, g.Indices())

	split := ast.NewConcat(sym(2), ast.NewConcat(ast.NewConst(0, 8), sym(0)))
	_, _, ok = Group(split, res(8))
	assert.False(t, ok)
}

func TestGroupExtract(t *testing.T) {
	w := word32(3, 2, 1, 0)
	g, approx, ok := Group(ast.NewExtract(15, 0, w), res(8))
	require.True(t, ok)
	assert.Equal(t, []int{1, 0}, g.Indices())
	// The historical approx condition fires whenever the high bit is
	// not bit 7, so a two-byte extract is always approximated.
	assert.True(t, approx)

	g, approx, ok = Group(ast.NewExtract(7, 0, w), res(8))
	require.True(t, ok)
	assert.Equal(t, []int{0}, g.Indices())
	assert.False(t, approx)

	_, approx, ok = Group(ast.NewExtract(11, 4, w), res(8))
	require.True(t, ok)
	assert.True(t, approx, "non-byte-aligned extract is approximated")
}

func TestGroupMask(t *testing.T) {
	w := word32(3, 2, 1, 0)
	g, approx, ok := Group(ast.NewBin(ast.BVAND, w, ast.NewConst(0x0000ff00, 32)), res(8))
	require.True(t, ok)
	assert.Equal(t, []int{1}, g.Indices())
	assert.False(t, approx)

	_, approx, ok = Group(ast.NewBin(ast.BVAND, w, ast.NewConst(0x00000ff0, 32)), res(8))
	require.True(t, ok)
	assert.True(t, approx, "mask off byte boundaries is approximated")

	_, approx, ok = Group(ast.NewBin(ast.BVAND, w, ast.NewConst(0x00ff00ff, 32)), res(8))
	require.True(t, ok)
	assert.True(t, approx, "mask with holes is approximated")
}

func TestGroupShiftedBytes(t *testing.T) {
	// b1 << 8 | b0, the little-endian two-byte load pattern.
	ext := func(i int) *ast.Node { return ast.NewZExt(sym(i), 16) }
	lo := ext(0)
	hi := ast.NewBin(ast.BVSHL, ext(1), ast.NewConst(8, 16))
	g, approx, ok := Group(ast.NewBin(ast.BVOR, hi, lo), res(8))
	require.True(t, ok)
	assert.False(t, approx)
	assert.Equal(t, []int{1, 0}, g.Indices())

	// Same shape with bvadd.
	g, _, ok = Group(ast.NewBin(ast.BVADD, hi, lo), res(8))
	require.True(t, ok)
	assert.Equal(t, []int{1, 0}, g.Indices())

	// Overlapping byte positions reject.
	dup := ast.NewBin(ast.BVOR, ast.NewBin(ast.BVSHL, ext(1), ast.NewConst(8, 16)),
		ast.NewBin(ast.BVSHL, ext(2), ast.NewConst(8, 16)))
	_, _, ok = Group(dup, res(8))
	assert.False(t, ok)
}

func TestGroupThroughAssignment(t *testing.T) {
	r := &testResolver{inputs: 4, assignments: map[int]*ast.Node{
		4: ast.NewConcat(sym(1), sym(0)),
	}}
	g, _, ok := Group(ast.NewSym(4, 16), r)
	require.True(t, ok)
	assert.Equal(t, []int{1, 0}, g.Indices())
}

func TestInputToStateEq(t *testing.T) {
	b := ast.NewCmp(ast.EQ, word32(3, 2, 1, 0), ast.NewConst(0xdeadbeef, 32))
	its, ok := InputToState(b, res(8), seedEval(make([]uint64, 8)))
	require.True(t, ok)
	assert.Equal(t, uint64(0xdeadbeef), its.Value)
	assert.Equal(t, []int{3, 2, 1, 0}, its.Group.Indices())
}

func TestInputToStateAdjustsStrict(t *testing.T) {
	se := seedEval(make([]uint64, 8))
	cases := []struct {
		op   ast.Kind
		c    uint64
		want uint64
	}{
		{ast.ULT, 0x10, 0x0f},
		{ast.UGT, 0x10, 0x11},
		{ast.ULE, 0x10, 0x10},
		{ast.NE, 0x10, 0x11},
	}
	for _, tc := range cases {
		b := ast.NewCmp(tc.op, sym(0), ast.NewConst(tc.c, 8))
		its, ok := InputToState(b, res(8), se)
		require.True(t, ok, "op %s", tc.op)
		assert.Equal(t, tc.want, its.Value, "op %s", tc.op)
	}
}

func TestInputToStateNegated(t *testing.T) {
	se := seedEval(make([]uint64, 8))
	b := ast.NewNot(ast.NewCmp(ast.NE, sym(0), ast.NewConst(0x42, 8)))
	its, ok := InputToState(b, res(8), se)
	require.True(t, ok)
	assert.Equal(t, uint64(0x42), its.Value)
}

func TestInputToStateSwappedOperands(t *testing.T) {
	se := seedEval(make([]uint64, 8))
	// 0x10 ult b0 means b0 ugt 0x10, so the satisfying value is 0x11.
	b := ast.NewCmp(ast.ULT, ast.NewConst(0x10, 8), sym(0))
	its, ok := InputToState(b, res(8), se)
	require.True(t, ok)
	assert.Equal(t, uint64(0x11), its.Value)
}

func TestInputToStateRejectsApprox(t *testing.T) {
	se := seedEval(make([]uint64, 8))
	approxGroup := ast.NewExtract(11, 4, word32(3, 2, 1, 0))
	b := ast.NewCmp(ast.EQ, approxGroup, ast.NewConst(0x12, 8))
	_, ok := InputToState(b, res(8), se)
	assert.False(t, ok)
}

func TestInputToStateUnwrapsOr(t *testing.T) {
	se := seedEval(make([]uint64, 8))
	dead := ast.NewCmp(ast.EQ, ast.NewConst(1, 8), ast.NewConst(2, 8))
	live := ast.NewCmp(ast.EQ, sym(0), ast.NewConst(0x99, 8))
	its, ok := InputToState(ast.NewOr(dead, live), res(8), se)
	require.True(t, ok)
	assert.Equal(t, uint64(0x99), its.Value)
}

func TestCollectBasic(t *testing.T) {
	env := &Env{Res: res(8), Cache: astinfo.NewCache(), ConstEval: seedEval(make([]uint64, 8))}
	b := ast.NewCmp(ast.UGT, word32(3, 2, 1, 0), ast.NewConst(0x1000, 32))
	r := Collect(b, env)
	if diff := cmp.Diff([]int{0, 1, 2, 3}, r.SortedIndexes()); diff != "" {
		t.Errorf("indexes mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, r.IndexGroups, 1)
	assert.Zero(t, r.NonlinearOps)
}

func TestCollectUDSplit(t *testing.T) {
	ud := map[int]bool{2: true}
	env := &Env{
		Res:  res(8),
		IsUD: func(i int) bool { return ud[i] },
	}
	b := ast.NewAnd(
		ast.NewCmp(ast.EQ, sym(2), ast.NewConst(1, 8)),
		ast.NewCmp(ast.EQ, sym(5), ast.NewConst(2, 8)),
	)
	r := Collect(b, env)
	assert.Equal(t, []int{5}, r.SortedIndexes())
	_, isUD := r.IndexesUD[2]
	assert.True(t, isUD)
}

func TestCollectMemoises(t *testing.T) {
	cache := astinfo.NewCache()
	env := &Env{Res: res(8), Cache: cache}
	b := ast.NewCmp(ast.EQ, sym(0), ast.NewConst(1, 8))
	first := Collect(b, env)
	second := Collect(b, env)
	assert.Same(t, first, second)
}

func TestCollectIteHarvestsITS(t *testing.T) {
	env := &Env{Res: res(8), ConstEval: seedEval(make([]uint64, 8))}
	cond := ast.NewCmp(ast.EQ, ast.NewConcat(sym(1), sym(0)), ast.NewConst(0xbeef, 16))
	ite := ast.NewIte(cond, ast.NewConst(1, 8), ast.NewConst(0, 8))
	r := Collect(ast.NewCmp(ast.EQ, ite, ast.NewConst(1, 8)), env)
	require.Len(t, r.InputToStateITE, 1)
	assert.Equal(t, uint64(0xbeef), r.InputToStateITE[0].Val)
}

func TestCollectNonlinearCounters(t *testing.T) {
	env := &Env{Res: res(8)}
	mul := ast.NewBin(ast.BVMUL, sym(0), sym(1))
	shifted := ast.NewBin(ast.BVLSHR, mul, ast.NewConst(2, 8))
	r := Collect(ast.NewCmp(ast.EQ, shifted, ast.NewConst(3, 8)), env)
	assert.Equal(t, 2, r.NonlinearOps)
	assert.Equal(t, 1, r.ExtractOps, "shifts count toward the extract counter")
}

func TestConstantsScraper(t *testing.T) {
	f := ast.NewAnd(
		ast.NewCmp(ast.EQ, sym(0), ast.NewConst(0x42, 8)),
		ast.NewCmp(ast.ULT, ast.NewConcat(sym(2), sym(1)), ast.NewConst(0x1234, 16)),
	)
	cs := Constants(f)
	assert.ElementsMatch(t, []uint64{0x42, 0x1234}, cs)
}
