package solver

import (
	"fuzzysat/internal/ast"
	"fuzzysat/internal/astinfo"
)

// multigoal repairs the path condition after the cascade found an
// assignment satisfying only the branch condition: the mutation that
// flipped B usually broke some earlier path clause touching the same
// bytes. B's bytes are frozen and each broken clause is re-solved as a
// branch condition of its own, accumulating freezes as clauses land.
func (ctx *Context) multigoal(pi, b *ast.Node, info *astinfo.Record, prior phaseResult) phaseResult {
	if r := ctx.freezeNeighbours(pi, b, info); r != inconclusive {
		return r
	}

	conflicting := ctx.conflictingClauses(info)
	if len(conflicting) == 0 {
		return prior
	}

	savedBlacklist := ctx.copyBlacklist()
	defer func() { ctx.blacklist = savedBlacklist }()
	savedScratch := ctx.saveScratch()

	// continue from the best B-satisfying assignment, with B pinned
	copy(scratch.tmpInput, ctx.opt.input)
	for ix := range info.Indexes {
		ctx.blacklist[ix] = struct{}{}
	}

	for _, c := range conflicting {
		cinfo := ctx.queryInfo(c)
		r := ctx.solveBranch(pi, c, cinfo)
		if r == phaseTimeout {
			ctx.restoreScratch(savedScratch)
			return phaseTimeout
		}
		if r == phaseSat {
			for ix := range cinfo.Indexes {
				ctx.blacklist[ix] = struct{}{}
			}
		}
	}

	switch ctx.checkInput(pi, b) {
	case checkSat:
		return phaseSat
	case checkTimeout:
		ctx.restoreScratch(savedScratch)
		return phaseTimeout
	}
	ctx.restoreScratch(savedScratch)
	return prior
}

// conflictingClauses lists the previously-notified atomic clauses that
// share a byte with B and evaluate false on the current optimistic
// assignment.
func (ctx *Context) conflictingClauses(info *astinfo.Record) []*ast.Node {
	sizes := ctx.seed().Sizes
	seen := make(map[uint64]struct{})
	var out []*ast.Node
	for _, ix := range info.SortedIndexes() {
		for _, c := range ctx.conflicts[ix] {
			if _, dup := seen[c.Hash()]; dup {
				continue
			}
			seen[c.Hash()] = struct{}{}
			v, _ := ctx.eval(c, ctx.opt.input, sizes)
			if v == 0 {
				out = append(out, c)
			}
		}
	}
	return out
}

// freezeNeighbours probes whether the path condition comes true in the
// close neighbourhood of the optimistic group value, without touching
// any byte outside B's dominating group.
func (ctx *Context) freezeNeighbours(pi, b *ast.Node, info *astinfo.Record) phaseResult {
	g, ok := dominatingGroup(info)
	if !ok || !ctx.groupMutable(g) {
		return inconclusive
	}

	saved := ctx.saveScratch()
	copy(scratch.tmpInput, ctx.opt.input)
	base := g.ValueLE(scratch.tmpInput)
	mask := unitMask(g.Bits())

	for k := uint64(1); k <= 255; k++ {
		for _, v := range []uint64{base + k, base - k} {
			g.SetLE(scratch.tmpInput, v&mask)
			if !ctx.validGroup(g) {
				continue
			}
			res := ctx.checkInput(pi, b)
			if res == checkSat {
				return phaseSat
			}
			if res == checkTimeout {
				ctx.restoreScratch(saved)
				return phaseTimeout
			}
			copy(scratch.tmpInput, ctx.opt.input)
		}
	}
	ctx.restoreScratch(saved)
	return inconclusive
}

// dominatingGroup returns B's single group when it covers every byte B
// touches.
func dominatingGroup(info *astinfo.Record) (astinfo.Group, bool) {
	if len(info.IndexGroups) != 1 {
		return astinfo.Group{}, false
	}
	var g astinfo.Group
	for cand := range info.IndexGroups {
		g = cand
	}
	for ix := range info.Indexes {
		if !g.Has(ix) {
			return astinfo.Group{}, false
		}
	}
	return g, true
}
