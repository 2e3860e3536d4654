package solver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuzzysat/internal/ast"
	"fuzzysat/internal/testcase"
)

func zeroSeed(n int) *testcase.Testcase {
	tc := &testcase.Testcase{
		Values: make([]uint64, n),
		Sizes:  make([]uint8, n),
	}
	for i := range tc.Sizes {
		tc.Sizes[i] = 8
	}
	return tc
}

func newTestContext(t *testing.T, n int) *Context {
	t.Helper()
	t.Setenv("SKIP_HAVOC", "1") // keep unit runs deterministic
	return FromSeed(zeroSeed(n), nil, nil, 5*time.Second)
}

func sym(i int) *ast.Node { return ast.NewSym(i, 8) }

func word16(hi, lo int) *ast.Node { return ast.NewConcat(sym(hi), sym(lo)) }

func word32(b3, b2, b1, b0 int) *ast.Node {
	return ast.NewConcat(ast.NewConcat(sym(b3), sym(b2)), ast.NewConcat(sym(b1), sym(b0)))
}

func TestSingleByteInputToState(t *testing.T) {
	ctx := newTestContext(t, 8)
	b := ast.NewCmp(ast.EQ, sym(0), ast.NewConst(0x42, 8))
	proof, ok := ctx.QueryCheckLight(nil, b)
	require.True(t, ok)
	assert.Equal(t, []byte{0x42, 0, 0, 0, 0, 0, 0, 0}, proof)
}

func TestFourByteInputToState(t *testing.T) {
	ctx := newTestContext(t, 8)
	b := ast.NewCmp(ast.EQ, word32(3, 2, 1, 0), ast.NewConst(0xdeadbeef, 32))
	proof, ok := ctx.QueryCheckLight(nil, b)
	require.True(t, ok)
	assert.Equal(t, []byte{0xef, 0xbe, 0xad, 0xde, 0, 0, 0, 0}, proof)
}

func TestRangeBruteForceAfterNotify(t *testing.T) {
	ctx := newTestContext(t, 8)
	ctx.NotifyConstraint(ast.NewCmp(ast.ULT, word16(1, 0), ast.NewConst(0x1000, 16)))

	b := ast.NewCmp(ast.UGT, word16(1, 0), ast.NewConst(0x0ff0, 16))
	proof, ok := ctx.QueryCheckLight(nil, b)
	require.True(t, ok)

	v := uint64(proof[1])<<8 | uint64(proof[0])
	assert.GreaterOrEqual(t, v, uint64(0x0ff1))
	assert.LessOrEqual(t, v, uint64(0x0fff))
}

func TestArithmeticWithPathCondition(t *testing.T) {
	ctx := newTestContext(t, 8)
	pi := ast.NewCmp(ast.ULT, sym(0), ast.NewConst(10, 8))
	b := ast.NewCmp(ast.EQ, ast.NewBin(ast.BVADD, sym(0), sym(1)), ast.NewConst(100, 8))
	proof, ok := ctx.QueryCheckLight(pi, b)
	require.True(t, ok)
	assert.Less(t, proof[0], byte(10))
	assert.Equal(t, byte(100), proof[0]+proof[1])
}

func TestConjunctionMultigoal(t *testing.T) {
	ctx := newTestContext(t, 8)
	pi := ast.NewCmp(ast.EQ, sym(2), ast.NewConst(0xaa, 8))
	ctx.NotifyConstraint(pi)

	b := ast.NewAnd(
		ast.NewCmp(ast.EQ, sym(0), ast.NewConst(0x01, 8)),
		ast.NewCmp(ast.EQ, sym(2), ast.NewConst(0xaa, 8)),
		ast.NewCmp(ast.EQ, sym(4), ast.NewConst(0xff, 8)),
	)
	proof, ok := ctx.QueryCheckLight(pi, b)
	require.True(t, ok)
	assert.Equal(t, []byte{0x01, 0, 0xaa, 0, 0xff, 0, 0, 0}, proof)
}

func TestOptimisticOnly(t *testing.T) {
	ctx := newTestContext(t, 8)
	pi := ast.NewCmp(ast.EQ, sym(0), ast.NewConst(0x00, 8))
	ctx.NotifyConstraint(pi)

	b := ast.NewCmp(ast.EQ, sym(0), ast.NewConst(0x01, 8))
	_, ok := ctx.QueryCheckLight(pi, b)
	assert.False(t, ok, "pinned byte cannot reach 0x01 on the path")

	opt, found := ctx.GetOptimisticSol()
	require.True(t, found)
	assert.Equal(t, byte(0x01), opt[0])
}

func TestProofValidity(t *testing.T) {
	// Whatever query succeeds, the returned proof must satisfy both
	// formulas under the evaluator.
	ctx := newTestContext(t, 8)
	pi := ast.NewCmp(ast.ULE, sym(3), ast.NewConst(0x7f, 8))
	ctx.NotifyConstraint(pi)
	b := ast.NewCmp(ast.UGE, word16(3, 2), ast.NewConst(0x1234, 16))

	proof, ok := ctx.QueryCheckLight(pi, b)
	require.True(t, ok)
	assert.Equal(t, uint64(1), ctx.EvaluateExpression(pi, proof))
	assert.Equal(t, uint64(1), ctx.EvaluateExpression(b, proof))
}

func TestSatInSeedShortCircuit(t *testing.T) {
	ctx := newTestContext(t, 4)
	b := ast.NewCmp(ast.EQ, sym(0), ast.NewConst(0, 8))
	proof, ok := ctx.QueryCheckLight(nil, b)
	require.True(t, ok)
	assert.Equal(t, []byte{0, 0, 0, 0}, proof)
	// the early exit runs before the detectors, so nothing was cached
	assert.Zero(t, ctx.cache.Len())
}

func TestDeterminismWithoutHavoc(t *testing.T) {
	mk := func() ([]byte, bool) {
		ctx := newTestContext(t, 8)
		ctx.NotifyConstraint(ast.NewCmp(ast.ULT, word16(1, 0), ast.NewConst(0x2000, 16)))
		b := ast.NewCmp(ast.UGT, word16(1, 0), ast.NewConst(0x1ff0, 16))
		return ctx.QueryCheckLight(nil, b)
	}
	p1, ok1 := mk()
	p2, ok2 := mk()
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, p1, p2)
}

func TestRepeatQueryIsStable(t *testing.T) {
	ctx := newTestContext(t, 8)
	b := ast.NewCmp(ast.EQ, word16(1, 0), ast.NewConst(0xbeef, 16))

	p1, ok := ctx.QueryCheckLight(nil, b)
	require.True(t, ok)
	evalsFirst := ctx.Stats().Evaluations

	p2, ok := ctx.QueryCheckLight(nil, b)
	require.True(t, ok)
	evalsSecond := ctx.Stats().Evaluations - evalsFirst

	assert.Equal(t, p1, p2)
	assert.LessOrEqual(t, evalsSecond, evalsFirst, "the repeat run cannot cost more")
}

func TestCacheInvalidatedByUnivocallyDefined(t *testing.T) {
	ctx := newTestContext(t, 8)
	b := ast.NewCmp(ast.EQ, sym(3), ast.NewConst(0x10, 8))
	_, _ = ctx.QueryCheckLight(nil, b)
	require.NotZero(t, ctx.cache.Len())

	ctx.NotifyConstraint(ast.NewCmp(ast.EQ, sym(3), ast.NewConst(0x22, 8)))
	assert.Zero(t, ctx.cache.Len(), "new UD byte drops the info cache")

	info := ctx.queryInfo(ast.NewCmp(ast.EQ, sym(3), ast.NewConst(0x10, 8)))
	_, ud := info.IndexesUD[3]
	assert.True(t, ud, "re-derived record reflects the new UD split")
	assert.NotContains(t, info.Indexes, 3)
}

func TestNotifyPinsSeed(t *testing.T) {
	ctx := newTestContext(t, 8)
	ctx.NotifyConstraint(ast.NewCmp(ast.EQ, sym(2), ast.NewConst(0xaa, 8)))
	assert.Equal(t, uint64(0xaa), ctx.seed().Values[2])
}

func TestNotifyIdempotent(t *testing.T) {
	ctx := newTestContext(t, 8)
	c := ast.NewCmp(ast.ULT, sym(0), ast.NewConst(0x80, 8))
	ctx.NotifyConstraint(c)
	before := len(ctx.conflicts[0])
	ctx.NotifyConstraint(c)
	assert.Equal(t, before, len(ctx.conflicts[0]))
}

func TestAddAssignmentMaterialises(t *testing.T) {
	ctx := newTestContext(t, 4)
	sum := ast.NewBin(ast.BVADD, sym(0), sym(1))
	ctx.AddAssignment(4, sum)
	assert.Equal(t, 5, ctx.maxSlot)
	assert.Equal(t, uint64(0), ctx.seed().Values[4])
	assert.Len(t, ctx.seed().Values, 5)
}

func TestTimeoutReturnsUnknown(t *testing.T) {
	t.Setenv("SKIP_HAVOC", "1")
	slowEval := func(n *ast.Node, values []uint64, sizes []uint8) (uint64, uint32) {
		time.Sleep(time.Millisecond)
		return DefaultEvaluator(n, values, sizes)
	}
	ctx := FromSeed(zeroSeed(8), nil, slowEval, 5*time.Millisecond)
	b := ast.NewCmp(ast.EQ, ast.NewBin(ast.BVMUL, sym(0), sym(1)), ast.NewConst(77, 8))
	_, ok := ctx.QueryCheckLight(nil, b)
	assert.False(t, ok)
	assert.NotZero(t, ctx.Stats().Timeouts)
}

func TestSignedComparisonQuery(t *testing.T) {
	ctx := newTestContext(t, 8)
	// b0 as signed byte must be below -16
	b := ast.NewCmp(ast.SLT, sym(0), ast.NewConst(0xf0, 8))
	proof, ok := ctx.QueryCheckLight(nil, b)
	require.True(t, ok)
	assert.Equal(t, uint64(1), ctx.EvaluateExpression(b, proof))
}

func TestNotOrConjunction(t *testing.T) {
	ctx := newTestContext(t, 8)
	// not(or(a, b)) solves like and(not a, not b)
	b := ast.NewNot(ast.NewOr(
		ast.NewCmp(ast.EQ, sym(0), ast.NewConst(0, 8)),
		ast.NewCmp(ast.EQ, sym(1), ast.NewConst(0, 8)),
	))
	proof, ok := ctx.QueryCheckLight(nil, b)
	require.True(t, ok)
	assert.NotEqual(t, byte(0), proof[0])
	assert.NotEqual(t, byte(0), proof[1])
}
