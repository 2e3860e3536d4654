package solver

import (
	"fuzzysat/internal/ast"
	"fuzzysat/internal/astinfo"
	"fuzzysat/internal/gradient"
)

// reducePredicate folds leading negations into the comparator and
// reduces a disjunction to its live disjunct: when all but one operand
// already evaluates false on the current input, only the remaining one
// is worth descending on.
func (ctx *Context) reducePredicate(b *ast.Node, neg bool) (*ast.Node, bool) {
	switch {
	case b.Kind == ast.NOT:
		return ctx.reducePredicate(b.Args[0], !neg)

	case ast.IsCmp(b.Kind):
		if neg {
			return ast.NewCmp(ast.NegateCmp(b.Kind), b.Args[0], b.Args[1]), true
		}
		return b, true

	case (b.Kind == ast.OR && !neg) || (b.Kind == ast.AND && neg):
		sizes := ctx.seed().Sizes
		var target *ast.Node
		live := 0
		for _, d := range b.Args {
			v, _ := ctx.eval(d, scratch.tmpInput[:ctx.maxSlot], sizes)
			holds := v != 0
			if neg {
				holds = !holds
			}
			if !holds {
				target = d
				live++
			}
		}
		if live != 1 {
			return nil, false
		}
		return ctx.reducePredicate(target, neg)
	}
	return nil, false
}

// buildDistance shapes a comparison into a 64-bit distance expression
// that evaluates to zero exactly when the comparison holds. The
// intermediate ASTs are plain derived nodes; the evaluator computes the
// distance like any other expression.
func buildDistance(cmp *ast.Node) *ast.Node {
	a, b := cmp.Args[0], cmp.Args[1]
	signed := ast.IsSignedCmp(cmp.Kind)
	if a.Size < 64 {
		if signed {
			a = ast.NewSExt(a, 64)
			b = ast.NewSExt(b, 64)
		} else {
			a = ast.NewZExt(a, 64)
			b = ast.NewZExt(b, 64)
		}
	}
	zero := ast.NewConst(0, 64)
	one := ast.NewConst(1, 64)
	absDiff := ast.NewIte(ast.NewCmp(ast.UGT, a, b), ast.NewSub(a, b), ast.NewSub(b, a))

	holdsZeroElse := func(dist *ast.Node) *ast.Node {
		return ast.NewIte(cmpAt64(cmp.Kind, a, b), zero, dist)
	}

	switch cmp.Kind {
	case ast.EQ:
		return absDiff
	case ast.NE:
		// flat away from the diagonal: any neighbouring value solves it
		return holdsZeroElse(one)
	case ast.ULT, ast.SLT:
		return holdsZeroElse(ast.NewBin(ast.BVADD, ast.NewSub(a, b), one))
	case ast.ULE, ast.SLE:
		return holdsZeroElse(ast.NewSub(a, b))
	case ast.UGT, ast.SGT:
		return holdsZeroElse(ast.NewBin(ast.BVADD, ast.NewSub(b, a), one))
	case ast.UGE, ast.SGE:
		return holdsZeroElse(ast.NewSub(b, a))
	}
	panic("solver: buildDistance on non-comparison")
}

// cmpAt64 re-expresses the comparison over the widened operands.
func cmpAt64(k ast.Kind, a, b *ast.Node) *ast.Node {
	// after sign extension the signed orders coincide with their
	// 64-bit forms
	return ast.NewCmp(k, a, b)
}

// gdDims picks the descent dimensions: whole groups when they are
// pairwise disjoint, single bytes otherwise.
func gdDims(info *astinfo.Record, ctx *Context) ([]astinfo.Group, bool) {
	groups := info.SortedGroups()
	seen := make(map[int]struct{})
	disjoint := true
	covered := make(map[int]struct{})
	for _, g := range groups {
		for _, ix := range g.Indices() {
			if _, dup := seen[ix]; dup {
				disjoint = false
			}
			seen[ix] = struct{}{}
			covered[ix] = struct{}{}
		}
	}
	if !disjoint || len(groups) == 0 {
		// per-byte fallback
		var dims []astinfo.Group
		for _, ix := range info.SortedIndexes() {
			if ctx.mutable(ix) {
				dims = append(dims, astinfo.NewGroup(ix))
			}
		}
		return dims, len(dims) > 0
	}

	var dims []astinfo.Group
	for _, g := range groups {
		if ctx.groupMutable(g) {
			dims = append(dims, g)
		}
	}
	// loose bytes not covered by any group descend on their own
	for _, ix := range info.SortedIndexes() {
		if _, inGroup := covered[ix]; !inGroup && ctx.mutable(ix) {
			dims = append(dims, astinfo.NewGroup(ix))
		}
	}
	return dims, len(dims) > 0
}

// phaseGradientDescent minimises the distance function of B over the
// group dimensions. B and the path condition are evaluated once, at the
// point where the distance reaches zero; the intermediate improvements
// are not checked against them.
func (ctx *Context) phaseGradientDescent(pi, b *ast.Node, info *astinfo.Record) phaseResult {
	cmp, ok := ctx.reducePredicate(b, false)
	if !ok {
		return inconclusive
	}
	if cmp.Args[0].Size == 0 || cmp.Args[0].Size > 64 {
		panic("solver: gradient descent on a non-bitvector comparison")
	}
	dist := buildDistance(cmp)

	dims, ok := gdDims(info, ctx)
	if !ok {
		return inconclusive
	}

	saved := ctx.saveScratch()
	widths := make([]uint32, len(dims))
	point := make([]uint64, len(dims))
	for i, g := range dims {
		widths[i] = g.Bits()
		point[i] = g.ValueLE(scratch.tmpInput)
	}

	sizes := ctx.seed().Sizes
	visited := make(map[uint64]uint64)
	objective := func(pt []uint64) (uint64, error) {
		ctx.evalCount++
		if ctx.evalCount&16 != 0 && ctx.timer.Expired() {
			return 0, gradient.ErrTimeout
		}
		for i, g := range dims {
			g.SetLE(scratch.tmpInput, pt[i])
		}
		d := digestInput(scratch.tmpInput[:ctx.maxSlot])
		if v, seen := visited[d]; seen {
			return v, nil
		}
		ctx.refreshAssignments(scratch.tmpInput[:ctx.maxSlot], sizes)
		v, _ := ctx.eval(dist, scratch.tmpInput[:ctx.maxSlot], sizes)
		ctx.stats.Evaluations++
		visited[d] = v
		return v, nil
	}

	res, _, err := gradient.Minimize(point, widths, objective)
	if err != nil {
		ctx.restoreScratch(saved)
		return phaseTimeout
	}
	if res != gradient.FoundZero {
		ctx.restoreScratch(saved)
		return inconclusive
	}

	for i, g := range dims {
		g.SetLE(scratch.tmpInput, point[i])
	}
	switch ctx.checkInput(pi, b) {
	case checkSat:
		return phaseSat
	case checkTimeout:
		ctx.restoreScratch(saved)
		return phaseTimeout
	}
	ctx.restoreScratch(saved)
	return inconclusive
}
