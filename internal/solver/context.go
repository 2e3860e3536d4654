package solver

import (
	"fmt"
	"sort"
	"time"

	"github.com/tliron/commonlog"

	"fuzzysat/internal/ast"
	"fuzzysat/internal/astinfo"
	"fuzzysat/internal/conceval"
	"fuzzysat/internal/detect"
	"fuzzysat/internal/ranges"
	"fuzzysat/internal/testcase"
)

var log = commonlog.GetLogger("fuzzy.solver")

// Evaluator is the caller-supplied model evaluator. Booleans come back
// as 0/1, bitvectors as their unsigned 64-bit truncation; depth is a
// complexity signal used only to break ties between optimistic proofs.
type Evaluator func(n *ast.Node, values []uint64, sizes []uint8) (val uint64, depth uint32)

// DefaultEvaluator adapts the concrete evaluator to the contract.
func DefaultEvaluator(n *ast.Node, values []uint64, _ []uint8) (uint64, uint32) {
	return conceval.Eval(n, values)
}

var nextCtxID int

// Context is one solver instance over one input stream. It owns every
// piece of cross-query state: the testcase list, assignment vector,
// analysis caches, range store, conflict map, and the univocally
// defined set. Scratch buffers live in the process arena.
type Context struct {
	id  int
	cfg *Config

	inputs      int // L: raw input bytes
	maxSlot     int // L': inputs plus assignment high-water
	proofLen    int // original testcase length; proofs truncate to it
	assignments map[int]*ast.Node

	testcases []*testcase.Testcase // [0] is the seed

	eval         Evaluator
	timer        Timer
	queryTimeout time.Duration
	rng          *Rng

	cache     *astinfo.Cache
	rstore    *ranges.Store
	ud        map[int]struct{}
	conflicts map[int][]*ast.Node
	processed map[uint64]struct{}

	earlyConstants []uint64
	earlySeen      map[uint64]struct{}

	// per-query state
	evalCount    uint64
	digests      map[uint64]struct{}
	blacklist    map[int]struct{}
	aggressive   bool
	curNumSat    int
	sawBranchSat bool
	lastBInput   []uint64
	opt          optState
	proof        []uint64

	stats Stats
}

type optState struct {
	found  bool
	numSat int
	depth  uint32
	input  []uint64
}

// New creates a context from a seed file, optional auxiliary testcase
// folder, evaluator, and per-query timeout.
func New(seedPath, testcaseFolder string, eval Evaluator, timeout time.Duration) (*Context, error) {
	seed, err := testcase.Load(seedPath)
	if err != nil {
		return nil, err
	}
	var aux []*testcase.Testcase
	if testcaseFolder != "" {
		if aux, err = testcase.LoadFolder(testcaseFolder); err != nil {
			return nil, err
		}
	}
	return FromSeed(seed, aux, eval, timeout), nil
}

// FromSeed builds a context from already-loaded test cases; the CLI and
// the tests use this directly.
func FromSeed(seed *testcase.Testcase, aux []*testcase.Testcase, eval Evaluator, timeout time.Duration) *Context {
	if eval == nil {
		eval = DefaultEvaluator
	}
	nextCtxID++
	ctx := &Context{
		id:          nextCtxID,
		cfg:         ConfigFromEnv(),
		inputs:      seed.Len(),
		maxSlot:     seed.Len(),
		proofLen:    seed.Len(),
		assignments: make(map[int]*ast.Node),
		testcases:   append([]*testcase.Testcase{seed}, aux...),
		eval:        eval,
		rng:         NewRng(),
		cache:       astinfo.NewCache(),
		rstore:      ranges.NewStore(),
		ud:          make(map[int]struct{}),
		conflicts:   make(map[int][]*ast.Node),
		processed:   make(map[uint64]struct{}),
		earlySeen:   make(map[uint64]struct{}),
	}
	ctx.queryTimeout = timeout
	scratch.acquire(ctx.maxSlot)
	return ctx
}

// AddAssignment registers an assignment AST for slot index and eagerly
// materialises its concrete value in every known test case.
func (ctx *Context) AddAssignment(index int, n *ast.Node) {
	if index < ctx.inputs {
		panic(fmt.Sprintf("solver: assignment index %d collides with input bytes", index))
	}
	ctx.assignments[index] = n
	if index+1 > ctx.maxSlot {
		ctx.maxSlot = index + 1
		scratch.acquire(ctx.maxSlot)
	}
	for _, tc := range ctx.testcases {
		tc.Grow(ctx.maxSlot)
		v, _ := ctx.eval(n, tc.Values, tc.Sizes)
		tc.Values[index] = v
		tc.Sizes[index] = uint8(minU32(n.Size, 64))
	}
}

func minU32(a uint32, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

// NumInputs implements detect.Resolver.
func (ctx *Context) NumInputs() int { return ctx.inputs }

// Assignment implements detect.Resolver.
func (ctx *Context) Assignment(index int) *ast.Node { return ctx.assignments[index] }

func (ctx *Context) seed() *testcase.Testcase { return ctx.testcases[0] }

func (ctx *Context) isUD(index int) bool {
	_, ok := ctx.ud[index]
	return ok
}

// detectEnv assembles the environment the walkers read. ConstEval
// resolves input-free expressions against the current seed values.
func (ctx *Context) detectEnv() *detect.Env {
	return &detect.Env{
		Res:       ctx,
		IsUD:      ctx.isUD,
		ConstEval: ctx.constEval,
		Cache:     ctx.cache,
	}
}

func (ctx *Context) constEval(n *ast.Node) (uint64, bool) {
	if touchesInputs(n, ctx) {
		return 0, false
	}
	v, _ := ctx.eval(n, ctx.seed().Values, ctx.seed().Sizes)
	return v, true
}

func touchesInputs(n *ast.Node, ctx *Context) bool {
	if n.Kind == ast.SYM {
		if n.Sym < ctx.inputs {
			return true
		}
		if a := ctx.assignments[n.Sym]; a != nil {
			return touchesInputs(a, ctx)
		}
		return false
	}
	for _, a := range n.Args {
		if touchesInputs(a, ctx) {
			return true
		}
	}
	return false
}

// EvaluateExpression computes an expression under an explicit byte
// assignment, zero-extending the bytes into the context's value slots.
func (ctx *Context) EvaluateExpression(n *ast.Node, bytes []byte) uint64 {
	vals := make([]uint64, ctx.maxSlot)
	sizes := make([]uint8, ctx.maxSlot)
	copy(sizes, ctx.seed().Sizes)
	for i := 0; i < len(bytes) && i < ctx.maxSlot; i++ {
		vals[i] = uint64(bytes[i])
	}
	ctx.refreshAssignments(vals, sizes)
	v, _ := ctx.eval(n, vals, sizes)
	return v
}

// refreshAssignments recomputes assignment slots bottom-up after input
// bytes changed.
func (ctx *Context) refreshAssignments(vals []uint64, sizes []uint8) {
	idxs := make([]int, 0, len(ctx.assignments))
	for idx := range ctx.assignments {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)
	for _, idx := range idxs {
		v, _ := ctx.eval(ctx.assignments[idx], vals, sizes)
		if idx < len(vals) {
			vals[idx] = v
		}
	}
}

// proofBytes truncates a value buffer to the context's proof length.
func (ctx *Context) proofBytes(buf []uint64) []byte {
	out := make([]byte, ctx.proofLen)
	for i := range out {
		out[i] = byte(buf[i])
	}
	return out
}

// GetOptimisticSol returns the best assignment found by the previous
// query that satisfied the branch condition, whether or not the path
// condition held.
func (ctx *Context) GetOptimisticSol() ([]byte, bool) {
	if !ctx.opt.found {
		return nil, false
	}
	return ctx.proofBytes(ctx.opt.input), true
}
