package solver

import (
	"fuzzysat/internal/ast"
	"fuzzysat/internal/detect"
)

// QueryCheckLight is the core entry point: try to synthesize an
// assignment satisfying pi AND b. On success the returned proof is the
// byte-level assignment; on failure an optimistic proof may still be
// available through GetOptimisticSol.
func (ctx *Context) QueryCheckLight(pi, b *ast.Node) ([]byte, bool) {
	ctx.resetQuery()
	ctx.timer.Start(ctx.queryTimeout)
	ctx.harvestConstants(b)

	copy(scratch.tmpInput, ctx.seed().Values)

	// sat-in-seed early exit, deliberately before any detector runs
	switch ctx.checkInput(pi, b) {
	case checkSat:
		ctx.stats.SatQueries++
		return ctx.proofBytes(ctx.proof), true
	case checkTimeout:
		ctx.stats.Timeouts++
		return nil, false
	}

	res := ctx.solveQuery(pi, b)

	if res != phaseSat && !ctx.opt.found {
		ctx.runAggressiveOptimistic(pi, b)
	}
	if ctx.opt.found {
		ctx.stats.OptQueries++
	}

	switch res {
	case phaseSat:
		ctx.stats.SatQueries++
		return ctx.proofBytes(ctx.proof), true
	case phaseTimeout:
		ctx.stats.Timeouts++
	}
	return nil, false
}

func (ctx *Context) resetQuery() {
	ctx.evalCount = 0
	ctx.digests = make(map[uint64]struct{})
	ctx.blacklist = make(map[int]struct{})
	ctx.curNumSat = 0
	ctx.sawBranchSat = false
	ctx.opt = optState{}
	ctx.aggressive = false
}

// solveQuery dispatches between the conjunction handler and the
// single-clause path.
func (ctx *Context) solveQuery(pi, b *ast.Node) phaseResult {
	if clauses, ok := conjunctionClauses(b); ok {
		return ctx.solveConjunction(pi, b, clauses)
	}
	return ctx.solveClause(pi, b)
}

// conjunctionClauses flattens and(c1..cn), or its De Morgan mirror
// not(or(...)), into clause lists.
func conjunctionClauses(b *ast.Node) ([]*ast.Node, bool) {
	if b.Kind == ast.AND {
		return b.Args, true
	}
	if b.Kind == ast.NOT && b.Args[0].Kind == ast.OR {
		clauses := make([]*ast.Node, len(b.Args[0].Args))
		for i, d := range b.Args[0].Args {
			clauses[i] = ast.NewNot(d)
		}
		return clauses, true
	}
	return nil, false
}

// solveClause runs the cascade on a single branch condition and, if it
// produced only an optimistic proof, hands over to the multigoal
// coordinator. The evaluation dedup set is per branch condition, so a
// scratch state rejected for one clause can still be tried for the
// next.
func (ctx *Context) solveClause(pi, b *ast.Node) phaseResult {
	ctx.digests = make(map[uint64]struct{})

	// the current scratch may already satisfy this clause
	switch ctx.checkInput(pi, b) {
	case checkSat:
		return phaseSat
	case checkTimeout:
		return phaseTimeout
	}

	info := ctx.queryInfo(b)
	_, isITS := detect.InputToState(b, ctx, ctx.constEval)
	ctx.logQueryStats(info, isITS)

	res := ctx.solveBranch(pi, b, info)
	if res != phaseSat && res != phaseTimeout && ctx.opt.found && pi != nil {
		res = ctx.multigoal(pi, b, info, res)
	}
	return res
}

// solveConjunction satisfies one clause at a time, freezing the bytes
// of every clause that was flipped — even only optimistically — so
// later ones cannot undo it, then checks the whole conjunction against
// the accumulated scratch. If some clause was not hit even
// optimistically in the first pass, it retries right to left.
func (ctx *Context) solveConjunction(pi, b *ast.Node, clauses []*ast.Node) phaseResult {
	optAll, r := ctx.conjunctionPass(pi, clauses, false)
	if r == phaseTimeout {
		return phaseTimeout
	}
	if r = ctx.checkConjunction(pi, b, len(clauses)); r != inconclusive {
		return r
	}
	if !optAll {
		copy(scratch.tmpInput, ctx.seed().Values)
		if _, r = ctx.conjunctionPass(pi, clauses, true); r == phaseTimeout {
			return phaseTimeout
		}
		return ctx.checkConjunction(pi, b, len(clauses))
	}
	return inconclusive
}

func (ctx *Context) checkConjunction(pi, b *ast.Node, numClauses int) phaseResult {
	ctx.digests = make(map[uint64]struct{})
	ctx.curNumSat = numClauses
	switch ctx.checkInput(pi, b) {
	case checkSat:
		return phaseSat
	case checkTimeout:
		return phaseTimeout
	}
	return inconclusive
}

// conjunctionPass walks the clauses in order, solving each against the
// other clauses plus the path condition. A clause whose branch was hit
// (fully or optimistically) leaves its best assignment in the scratch
// and its bytes in the blacklist.
func (ctx *Context) conjunctionPass(pi *ast.Node, clauses []*ast.Node, reverse bool) (bool, phaseResult) {
	savedBlacklist := ctx.copyBlacklist()
	defer func() { ctx.blacklist = savedBlacklist }()

	satAll := true
	optAll := true
	numSat := 0

	order := make([]int, len(clauses))
	for i := range order {
		if reverse {
			order[i] = len(clauses) - 1 - i
		} else {
			order[i] = i
		}
	}

	for _, idx := range order {
		c := clauses[idx]
		rest := make([]*ast.Node, 0, len(clauses))
		for _, other := range clauses {
			if other != c {
				rest = append(rest, other)
			}
		}
		npi := pi
		if len(rest) > 0 {
			all := append([]*ast.Node(nil), rest...)
			if pi != nil {
				all = append(all, pi)
			}
			npi = ast.NewAnd(all...)
		}

		ctx.curNumSat = numSat
		ctx.sawBranchSat = false
		r := ctx.solveClause(npi, c)
		if r == phaseTimeout {
			return optAll, phaseTimeout
		}
		if r == phaseSat {
			numSat++
		} else {
			satAll = false
		}
		if r == phaseSat || ctx.sawBranchSat {
			if r != phaseSat {
				// keep the last assignment that flipped this clause
				copy(scratch.tmpInput, ctx.lastBInput)
			}
			cinfo := ctx.queryInfo(c)
			for ix := range cinfo.Indexes {
				ctx.blacklist[ix] = struct{}{}
			}
		}
		optAll = optAll && ctx.sawBranchSat
		if !satAll && !optAll {
			break
		}
	}
	return optAll, inconclusive
}

func (ctx *Context) copyBlacklist() map[int]struct{} {
	out := make(map[int]struct{}, len(ctx.blacklist))
	for ix := range ctx.blacklist {
		out[ix] = struct{}{}
	}
	return out
}

// runAggressiveOptimistic reruns the whole query with the univocally
// defined sets merged back in and range validation off. Statistics are
// restored afterwards; the optimistic proof, if one appears, is kept.
func (ctx *Context) runAggressiveOptimistic(pi, b *ast.Node) {
	savedStats := ctx.stats
	ctx.aggressive = true
	copy(scratch.tmpInput, ctx.seed().Values)
	ctx.solveQuery(pi, b)
	ctx.aggressive = false
	ctx.stats = savedStats
}
